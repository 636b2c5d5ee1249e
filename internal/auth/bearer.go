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
	"strings"

	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

// BearerAuthenticator implements opaque bearer-token auth against
// firm:Credentials documents, grounded on
// firm.auth.bearer_token.BearerTokenAuthenticator.
type BearerAuthenticator struct {
	Store store.Store
}

func (a *BearerAuthenticator) Authenticate(ctx context.Context, r *http.Request) (identity.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	scheme, token, ok := splitAuthScheme(header)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, nil
	}

	cred, err := a.Store.QueryOne(ctx, store.Criteria{
		"@prefix":          "urn:",
		"type":             resource.TypeCredentials,
		resource.PropToken: token,
	})
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}
	actorURI := resource.GetString(cred, "attributedTo")
	if actorURI == "" {
		return nil, nil
	}
	actor, err := a.Store.Get(ctx, actorURI)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, nil
	}
	return identity.New(actor), nil
}
