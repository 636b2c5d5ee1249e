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

// Package activitypub is the dispatch engine of §4.1: it translates
// neutral, host-framework-agnostic requests against actor boxes into
// state transitions on the resource store, grounded on
// firm.services.activitypub.ActivityPubService/ActivityPubTenant.
package activitypub

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stevebate/firm/internal/apperr"
	"github.com/stevebate/firm/internal/authz"
	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
	"github.com/stevebate/firm/internal/store/prefixstore"
)

// Request is the neutral request shape the core consumes; the host HTTP
// framework (internal/httpapi) is responsible for producing one from an
// actual *http.Request.
type Request struct {
	Method   string
	URI      string // full dereferenced URI of the target resource/box
	Identity identity.Identity
	Body     []byte
}

// Response is the neutral response shape the core produces.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Location    string
}

// Delivery is the out-of-scope collaborator that fans a published
// activity out to remote inboxes (§1).
type Delivery interface {
	Deliver(ctx context.Context, activity resource.Doc) error
}

// Service is the core dispatch engine, wired over a prefix-routed store,
// an authorization chain, and a delivery collaborator.
type Service struct {
	Store     store.Store
	Authz     authz.Authorizer
	Delivery  Delivery
	Sanitizer *Sanitizer
	Tenants   []string // configured tenant URL prefixes, e.g. "https://t1.test"
}

// ProcessRequest routes req to the GET or POST handler after resolving
// its tenant, per §4.1's "Request routing".
func (s *Service) ProcessRequest(ctx context.Context, req Request) (Response, error) {
	tenant, ok := s.tenantFor(req.URI)
	if !ok {
		return Response{}, apperr.BadRequest("unknown tenant for %s", req.URI)
	}
	switch req.Method {
	case http.MethodGet:
		return s.processGet(ctx, tenant, req)
	case http.MethodPost:
		return s.processPost(ctx, tenant, req)
	default:
		return Response{}, apperr.MethodNotAllowed("method %s not allowed", req.Method)
	}
}

func (s *Service) tenantFor(uri string) (string, bool) {
	if prefixstore.IsPrivate(uri) {
		return "", false
	}
	prefix := prefixstore.URLPrefix(uri)
	for _, t := range s.Tenants {
		if t == prefix {
			return t, true
		}
	}
	return "", false
}

func (s *Service) processGet(ctx context.Context, tenant string, req Request) (Response, error) {
	res, err := s.Store.Get(ctx, req.URI)
	if err != nil {
		return Response{}, err
	}
	if res == nil {
		return Response{}, apperr.NotFound("%s not found", req.URI)
	}
	decision, err := s.Authz.IsGetAuthorized(ctx, tenant, req.Identity, res)
	if err != nil {
		return Response{}, err
	}
	if !decision.Authorized {
		return Response{}, apperr.FromDecision(decision.Reason, decision.StatusCode)
	}
	body, err := json.Marshal(res)
	if err != nil {
		return Response{}, apperr.Internal("marshal response: %v", err)
	}
	return Response{StatusCode: http.StatusOK, ContentType: "application/activity+json", Body: body}, nil
}
