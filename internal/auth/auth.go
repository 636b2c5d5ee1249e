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

// Package auth implements the chained authentication pipeline of §4.2:
// HTTP Signatures, HTTP Basic, and Bearer tokens, each resolving a
// request to an identity.Identity or returning nil for "no identity".
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stevebate/firm/internal/identity"
)

// ErrAuthentication signals malformed credentials -- distinct from "no
// identity" -- per firm.interfaces.AuthenticationError and spec.md §7.
var ErrAuthentication = errors.New("auth: authentication error")

// Authenticator resolves a request to an identity, or (nil, nil) if it
// doesn't apply. A non-nil error means the credentials present were
// malformed, not merely absent.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (identity.Identity, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, r *http.Request) (identity.Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, r *http.Request) (identity.Identity, error) {
	return f(ctx, r)
}

// splitAuthScheme parses "Scheme value" into its two parts.
func splitAuthScheme(header string) (scheme, value string, ok bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// stripFragment removes a trailing "#fragment" from a URI, used when
// resolving an actor from its key id (§4.2.1, §9 "arbitrary fragments
// should be handled uniformly" -- the source only strips "#main-key";
// this strips any fragment).
func stripFragment(uri string) string {
	if idx := strings.IndexByte(uri, '#'); idx >= 0 {
		return uri[:idx]
	}
	return uri
}
