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
	"net/http"

	"github.com/stevebate/firm/internal/fnlog"
	"github.com/stevebate/firm/internal/resource"
)

// processOutbox implements §4.1's outbox handling: normalize, persist,
// prepend to the outbox collection, and hand off to delivery.
func (s *Service) processOutbox(ctx context.Context, owner, activity resource.Doc) (Response, error) {
	published, err := s.publishFromOutbox(ctx, owner, activity)
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: http.StatusOK, Location: published.ID()}, nil
}

// publishFromOutbox is shared by client-originated outbox posts and
// server-synthesized activities (the Follow auto-Accept).
func (s *Service) publishFromOutbox(ctx context.Context, owner, activity resource.Doc) (resource.Doc, error) {
	actorURI := owner.ID()
	activity = normalizeActivity(activity, actorURI)
	s.Sanitizer.SanitizeActivity(activity)

	if activity.IsType("Create") {
		if obj, ok := resource.AsDoc(activity["object"]); ok {
			obj = normalizeObject(obj, actorURI)
			s.Sanitizer.SanitizeObject(obj)
			if err := s.Store.Put(ctx, obj); err != nil {
				return nil, err
			}
			activity["object"] = obj.ID()
		}
	}

	if err := s.Store.Put(ctx, activity); err != nil {
		return nil, err
	}

	outboxURI := resource.GetString(owner, "outbox")
	if outboxURI != "" {
		if err := s.prependCollection(ctx, outboxURI, activity.ID()); err != nil {
			return nil, err
		}
	}

	if s.Delivery != nil {
		// Delivery failures are logged but never fail the originating
		// request: the activity is already durably recorded (§7 policy).
		if err := s.Delivery.Deliver(ctx, activity); err != nil {
			fnlog.Error.Errorf("activitypub: delivery failed for %s: %v", activity.ID(), err)
		}
	}
	return activity, nil
}
