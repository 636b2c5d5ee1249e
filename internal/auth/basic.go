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
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

// BasicAuthenticator implements HTTP Basic auth against firm:Credentials
// documents, grounded on firm.auth.http_basic.HttpBasicAuthenticator.
type BasicAuthenticator struct {
	Store store.Store
}

func (a *BasicAuthenticator) Authenticate(ctx context.Context, r *http.Request) (identity.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	scheme, value, ok := splitAuthScheme(header)
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed basic credentials", ErrAuthentication)
	}
	// actor-uri:password, split on the last colon since the actor uri
	// itself may contain colons (scheme, port).
	idx := strings.LastIndexByte(string(decoded), ':')
	if idx < 0 {
		return nil, fmt.Errorf("%w: malformed basic credentials", ErrAuthentication)
	}
	actorURI, password := string(decoded[:idx]), string(decoded[idx+1:])

	cred, err := a.Store.QueryOne(ctx, store.Criteria{
		"@prefix":      "urn:",
		"type":         resource.TypeCredentials,
		"attributedTo": actorURI,
	})
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}
	hash, ok := cred[resource.PropPassword].(string)
	if !ok || !VerifyPassword(password, hash) {
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
