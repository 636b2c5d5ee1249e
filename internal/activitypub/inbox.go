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
	"net/http"

	"github.com/stevebate/firm/internal/apperr"
	"github.com/stevebate/firm/internal/resource"
)

// processInbox implements §4.1's per-activity-type inbox handling,
// grounded on ActivityPubTenant._process_inbox and its
// _process_inbox_follow/_like/_create/_undo(_follow/_like) helpers.
func (s *Service) processInbox(ctx context.Context, principalURI string, owner, inbox resource.Doc, activity resource.Doc) (Response, error) {
	actorURI := resource.ResourceID(activity["actor"])
	if actorURI == "" {
		actorURI = principalURI
	}
	activity = normalizeActivity(activity, actorURI)
	s.Sanitizer.SanitizeActivity(activity)

	var reason string
	switch {
	case activity.IsType("Follow"):
		if err := s.handleInboxFollow(ctx, principalURI, owner, activity); err != nil {
			return Response{}, err
		}
	case activity.IsType("Like"):
		if err := s.handleInboxLike(ctx, principalURI, activity); err != nil {
			return Response{}, err
		}
	case activity.IsType("Create"):
		if err := s.handleInboxCreate(ctx, activity); err != nil {
			return Response{}, err
		}
	case activity.IsType("Undo"):
		r, err := s.handleInboxUndo(ctx, principalURI, activity)
		if err != nil {
			return Response{}, err
		}
		reason = r
	default:
		return Response{}, apperr.NotImplemented("unrecognized activity type %v", activity.Types())
	}

	if err := s.Store.Put(ctx, activity); err != nil {
		return Response{}, err
	}
	if err := s.prependCollection(ctx, inbox.ID(), activity.ID()); err != nil {
		return Response{}, err
	}

	resp := Response{StatusCode: http.StatusOK}
	if reason != "" {
		body, err := json.Marshal(map[string]string{"reason": reason})
		if err != nil {
			return Response{}, apperr.Internal("marshal response: %v", err)
		}
		resp.Body = body
	}
	return resp, nil
}

// handleInboxFollow enforces §4.1's Follow invariants -- actor must be
// the authenticated principal, object must name the box owner,
// self-follow is rejected -- then appends the follower and emits the
// auto-Accept.
func (s *Service) handleInboxFollow(ctx context.Context, principalURI string, owner, activity resource.Doc) error {
	actorURI := resource.ResourceID(activity["actor"])
	if actorURI != principalURI {
		return apperr.BadRequest("Follow actor must equal the authenticated principal")
	}
	ownerURI := owner.ID()
	objectURI := resource.ResourceID(activity["object"])
	if objectURI != ownerURI {
		return apperr.BadRequest("Follow object must equal the box owner")
	}
	if actorURI == ownerURI {
		return apperr.BadRequest("self-follow is not allowed")
	}

	followersURI := resource.GetString(owner, "followers")
	if followersURI == "" {
		return apperr.Internal("owner %s has no followers collection", ownerURI)
	}
	if err := s.appendCollection(ctx, followersURI, actorURI); err != nil {
		return err
	}
	return s.emitAccept(ctx, owner, activity)
}

// emitAccept publishes an Accept for follow from the box owner's
// outbox, addressed to the follower.
func (s *Service) emitAccept(ctx context.Context, owner, follow resource.Doc) error {
	accept := resource.Doc{
		"type":   "Accept",
		"actor":  owner.ID(),
		"object": follow.ID(),
		"to":     resource.ResourceID(follow["actor"]),
	}
	_, err := s.publishFromOutbox(ctx, owner, accept)
	return err
}

// handleInboxLike appends the liking actor to the liked object's likes
// collection.
func (s *Service) handleInboxLike(ctx context.Context, principalURI string, activity resource.Doc) error {
	actorURI := resource.ResourceID(activity["actor"])
	if actorURI != principalURI {
		return apperr.BadRequest("Like actor must equal the authenticated principal")
	}
	objectURI := resource.ResourceID(activity["object"])
	if objectURI == "" {
		return apperr.BadRequest("Like requires an object")
	}
	obj, err := s.Store.Get(ctx, objectURI)
	if err != nil {
		return err
	}
	if obj == nil {
		return apperr.BadRequest("unknown object %s", objectURI)
	}
	likesURI := resource.GetString(obj, "likes")
	if likesURI == "" {
		return apperr.Internal("object %s has no likes collection", objectURI)
	}
	return s.appendCollection(ctx, likesURI, actorURI)
}

// handleInboxCreate persists an embedded object, if any, and rewrites
// the Create's object field to the object's assigned id.
func (s *Service) handleInboxCreate(ctx context.Context, activity resource.Doc) error {
	obj, ok := resource.AsDoc(activity["object"])
	if !ok {
		return nil
	}
	actorURI := resource.ResourceID(activity["actor"])
	obj = normalizeObject(obj, actorURI)
	s.Sanitizer.SanitizeObject(obj)
	if err := s.Store.Put(ctx, obj); err != nil {
		return err
	}
	activity["object"] = obj.ID()
	return nil
}

// handleInboxUndo reverses the collection mutation caused by a prior
// Follow or Like. A missing or unrecognized embedded activity is
// accepted permissively, returning a non-empty reason rather than an
// error, per §4.1 and the documented open question in §9.
func (s *Service) handleInboxUndo(ctx context.Context, principalURI string, activity resource.Doc) (string, error) {
	undone, ok := resource.AsDoc(activity["object"])
	if !ok {
		return "missing activity", nil
	}

	switch {
	case undone.IsType("Follow"):
		followerURI := resource.ResourceID(undone["actor"])
		if followerURI == "" {
			followerURI = principalURI
		}
		ownerURI := resource.ResourceID(undone["object"])
		owner, err := s.Store.Get(ctx, ownerURI)
		if err != nil {
			return "", err
		}
		if owner == nil {
			return "missing activity", nil
		}
		followersURI := resource.GetString(owner, "followers")
		if followersURI == "" {
			return "", apperr.Internal("owner %s has no followers collection", ownerURI)
		}
		return "", s.removeFromCollection(ctx, followersURI, followerURI)

	case undone.IsType("Like"):
		likerURI := resource.ResourceID(undone["actor"])
		if likerURI == "" {
			likerURI = principalURI
		}
		objectURI := resource.ResourceID(undone["object"])
		obj, err := s.Store.Get(ctx, objectURI)
		if err != nil {
			return "", err
		}
		if obj == nil {
			return "missing activity", nil
		}
		likesURI := resource.GetString(obj, "likes")
		if likesURI == "" {
			return "", apperr.Internal("object %s has no likes collection", objectURI)
		}
		return "", s.removeFromCollection(ctx, likesURI, likerURI)

	default:
		return "missing activity", nil
	}
}
