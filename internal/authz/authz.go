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

// Package authz implements the authorization decision engine of §4.3:
// GET/POST/activity decisions consulting stored block lists, ownership,
// recipient fields, and public-collection markers, grounded on
// firm.auth.authorization.
package authz

import (
	"context"
	"net/http"

	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
)

// Decision is the result of every authorization check: whether access is
// granted, why, and what HTTP status a denial should surface as.
type Decision struct {
	Authorized bool
	Reason     string
	StatusCode int
}

// Allow builds a granting Decision.
func Allow(reason string) Decision {
	return Decision{Authorized: true, Reason: reason, StatusCode: http.StatusOK}
}

// Deny builds a denying Decision with the given HTTP status.
func Deny(reason string, status int) Decision {
	return Decision{Authorized: false, Reason: reason, StatusCode: status}
}

// denyForPrincipal applies the source's recurring default: no principal
// means 401 (authentication required), any authenticated-but-disallowed
// principal means 403.
func denyForPrincipal(id identity.Identity, reason string) Decision {
	if id == nil {
		return Deny("authentication required: "+reason, http.StatusUnauthorized)
	}
	return Deny(reason, http.StatusForbidden)
}

// Authorizer is the contract every authorization stage and the chain
// combinator implement, matching the Python AuthorizationService
// protocol's three entry points.
type Authorizer interface {
	IsGetAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, res resource.Doc) (Decision, error)
	IsPostAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, boxType, boxURI string) (Decision, error)
	IsActivityAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, activity resource.Doc) (Decision, error)
}

func principalURI(id identity.Identity) string {
	if id == nil {
		return ""
	}
	return id.URI()
}
