// firm is a server implementing the ActivityPub federation protocol.
// Copyright (C) 2019 Cory Slep
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package authz

import (
	"context"

	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
)

// Chain tries each Authorizer in order; the first decision with
// Authorized=true wins, grounded on
// firm.auth.chained.AuthorizationServiceChain.
type Chain struct {
	Authorizers []Authorizer
}

func NewChain(authorizers ...Authorizer) *Chain {
	return &Chain{Authorizers: authorizers}
}

var _ Authorizer = (*Chain)(nil)

func (c *Chain) IsGetAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, res resource.Doc) (Decision, error) {
	var last Decision
	for _, a := range c.Authorizers {
		d, err := a.IsGetAuthorized(ctx, tenantPrefix, id, res)
		if err != nil {
			return Decision{}, err
		}
		if d.Authorized {
			return d, nil
		}
		last = d
	}
	return fallback(last, id, "no authorizer in chain granted GET access"), nil
}

func (c *Chain) IsPostAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, boxType, boxURI string) (Decision, error) {
	var last Decision
	for _, a := range c.Authorizers {
		d, err := a.IsPostAuthorized(ctx, tenantPrefix, id, boxType, boxURI)
		if err != nil {
			return Decision{}, err
		}
		if d.Authorized {
			return d, nil
		}
		last = d
	}
	return fallback(last, id, "no authorizer in chain granted POST access"), nil
}

func (c *Chain) IsActivityAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, activity resource.Doc) (Decision, error) {
	var last Decision
	for _, a := range c.Authorizers {
		d, err := a.IsActivityAuthorized(ctx, tenantPrefix, id, activity)
		if err != nil {
			return Decision{}, err
		}
		if d.Authorized {
			return d, nil
		}
		last = d
	}
	return fallback(last, id, "no authorizer in chain authorized this activity"), nil
}

// fallback returns the last chain member's decision if one exists,
// otherwise the standard no-principal/else-403 default.
func fallback(last Decision, id identity.Identity, reason string) Decision {
	if last.StatusCode != 0 {
		return last
	}
	return denyForPrincipal(id, reason)
}
