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

package auth

import (
	"context"
	"net/http"

	"github.com/stevebate/firm/internal/identity"
)

// Chain tries each Authenticator in order and returns the first
// identity resolved, grounded on firm.auth.chained.AuthenticatorChain.
// A hard error from any authenticator aborts the chain immediately --
// malformed credentials are reported, not silently skipped.
type Chain struct {
	Authenticators []Authenticator
}

// NewChain builds a Chain over the given authenticators, tried in order.
func NewChain(authenticators ...Authenticator) *Chain {
	return &Chain{Authenticators: authenticators}
}

func (c *Chain) Authenticate(ctx context.Context, r *http.Request) (identity.Identity, error) {
	for _, a := range c.Authenticators {
		id, err := a.Authenticate(ctx, r)
		if err != nil {
			return nil, err
		}
		if id != nil {
			return id, nil
		}
	}
	return nil, nil
}
