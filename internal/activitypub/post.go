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

package activitypub

import (
	"context"
	"encoding/json"

	"github.com/stevebate/firm/internal/apperr"
	"github.com/stevebate/firm/internal/resource"
)

// processPost implements §4.1's POST handling: box resolution, the
// authorization checks, and handoff to the inbox or outbox handler.
func (s *Service) processPost(ctx context.Context, tenant string, req Request) (Response, error) {
	if req.Identity == nil {
		return Response{}, apperr.Forbidden("authentication required to post")
	}

	target, err := s.Store.Get(ctx, req.URI)
	if err != nil {
		return Response{}, err
	}
	if target == nil || !target.IsType("OrderedCollection") {
		return Response{}, apperr.BadRequest("%s is not a postable box", req.URI)
	}
	ownerURI := resource.GetString(target, "attributedTo")
	if ownerURI == "" {
		return Response{}, apperr.BadRequest("%s has no owning actor", req.URI)
	}
	owner, err := s.Store.Get(ctx, ownerURI)
	if err != nil {
		return Response{}, err
	}
	if owner == nil {
		return Response{}, apperr.BadRequest("owner %s not found", ownerURI)
	}

	var boxType string
	switch req.URI {
	case resource.GetString(owner, "inbox"):
		boxType = "inbox"
	case resource.GetString(owner, "outbox"):
		boxType = "outbox"
	default:
		return Response{}, apperr.BadRequest("%s is not %s's inbox or outbox", req.URI, ownerURI)
	}

	var activity resource.Doc
	if err := json.Unmarshal(req.Body, &activity); err != nil {
		return Response{}, apperr.BadRequest("invalid activity body: %v", err)
	}

	decision, err := s.Authz.IsPostAuthorized(ctx, tenant, req.Identity, boxType, req.URI)
	if err != nil {
		return Response{}, err
	}
	if !decision.Authorized {
		return Response{}, apperr.FromDecision(decision.Reason, decision.StatusCode)
	}

	activityDecision, err := s.Authz.IsActivityAuthorized(ctx, tenant, req.Identity, activity)
	if err != nil {
		return Response{}, err
	}
	if !activityDecision.Authorized {
		return Response{}, apperr.FromDecision(activityDecision.Reason, activityDecision.StatusCode)
	}

	if boxType == "inbox" {
		return s.processInbox(ctx, req.Identity.URI(), owner, target, activity)
	}
	return s.processOutbox(ctx, owner, activity)
}
