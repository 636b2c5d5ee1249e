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
	"net/http"
	"strings"

	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

// Engine is the default Authorizer, grounded on
// firm.auth.authorization.Authorization. Next is consulted for activity
// types the type-switch doesn't recognize; if nil, an unrecognized
// activity is retried once wrapped in a synthetic Create.
type Engine struct {
	Store store.Store
	Next  Authorizer
}

var _ Authorizer = (*Engine)(nil)

// isOutbox/isInbox/boxOwner are structural: a box is identified by its
// id's trailing path segment, and its owner is either an explicit
// attributedTo or the id with that segment stripped.
func isOutbox(res resource.Doc) bool { return strings.HasSuffix(res.ID(), "/outbox") }
func isInbox(res resource.Doc) bool  { return strings.HasSuffix(res.ID(), "/inbox") }

func boxOwner(res resource.Doc) string {
	if owner := resource.GetString(res, "attributedTo"); owner != "" {
		return owner
	}
	id := res.ID()
	if idx := strings.LastIndexByte(id, '/'); idx >= 0 {
		return id[:idx]
	}
	return ""
}

// IsGetAuthorized implements §4.3's nine-step GET decision.
func (e *Engine) IsGetAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, res resource.Doc) (Decision, error) {
	principal := principalURI(id)

	if principal != "" {
		blocked, reason, err := isBlocked(ctx, e.Store, tenantPrefix, principal)
		if err != nil {
			return Decision{}, err
		}
		if blocked {
			return Deny("blocked: "+reason, http.StatusForbidden), nil
		}
	}

	if res.IsPublic() {
		return Allow("publicly addressed"), nil
	}
	if res.IsActorObject() {
		return Allow("actor objects are public"), nil
	}
	if isOutbox(res) {
		return Allow("outboxes are publicly readable"), nil
	}
	if isInbox(res) {
		if principal == "" {
			return Deny("authentication required for inbox", http.StatusUnauthorized), nil
		}
		if principal == boxOwner(res) {
			return Allow("inbox owner"), nil
		}
		return Deny("not the inbox owner", http.StatusForbidden), nil
	}

	if principal != "" {
		if res.IsRecipient(principal) {
			return Allow("principal is a recipient"), nil
		}
		if res.IsAttributedTo(principal) {
			return Allow("attributed to principal"), nil
		}
		if res.IsActivityActor(principal) {
			return Allow("principal is the activity's actor"), nil
		}
	}
	return denyForPrincipal(id, "not authorized to read this resource"), nil
}

// IsPostAuthorized implements §4.3's inbox/outbox POST decision.
func (e *Engine) IsPostAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, boxType, boxURI string) (Decision, error) {
	if id == nil {
		return Deny("authentication required", http.StatusUnauthorized), nil
	}
	blocked, reason, err := isBlocked(ctx, e.Store, tenantPrefix, id.URI())
	if err != nil {
		return Decision{}, err
	}
	if blocked {
		return Deny("blocked: "+reason, http.StatusForbidden), nil
	}

	switch boxType {
	case "inbox":
		return Allow("authenticated, non-blocked principal"), nil
	case "outbox":
		if resource.GetString(id.Actor(), "outbox") == boxURI {
			return Allow("posting to own outbox"), nil
		}
		return Deny("not the outbox owner", http.StatusForbidden), nil
	default:
		return Deny("unknown box type "+boxType, http.StatusForbidden), nil
	}
}

// IsActivityAuthorized implements §4.3's per-activity-type rules.
func (e *Engine) IsActivityAuthorized(ctx context.Context, tenantPrefix string, id identity.Identity, activity resource.Doc) (Decision, error) {
	principal := principalURI(id)

	switch {
	case activity.IsTypeAny("Add", "Remove"):
		return e.isAddRemoveAuthorized(ctx, id, activity)

	case activity.IsTypeAny("Announce", "Like", "Follow", "Accept", "Reject", "Create", "Block"):
		return Allow(activity.Types()[0] + " is always allowed"), nil

	case activity.IsType("Undo"):
		return e.isUndoAuthorized(ctx, principal, activity)

	case activity.IsTypeAny("Update", "Delete"):
		return e.isUpdateDeleteAuthorized(ctx, principal, activity)

	default:
		if e.Next != nil {
			return e.Next.IsActivityAuthorized(ctx, tenantPrefix, id, activity)
		}
		synthetic := resource.Doc{
			"type":   "Create",
			"actor":  activity["actor"],
			"object": resource.Doc(activity),
		}
		return e.IsActivityAuthorized(ctx, tenantPrefix, id, synthetic)
	}
}

func (e *Engine) isAddRemoveAuthorized(ctx context.Context, id identity.Identity, activity resource.Doc) (Decision, error) {
	principal := principalURI(id)
	objectURI := resource.ResourceID(activity["object"])
	targetURI := resource.ResourceID(activity["target"])
	if objectURI == "" || targetURI == "" {
		return Deny("Add/Remove requires object and target", http.StatusForbidden), nil
	}

	target, err := e.Store.Get(ctx, targetURI)
	if err != nil {
		return Decision{}, err
	}
	if target == nil {
		return Deny("target not found", http.StatusForbidden), nil
	}
	if target.IsPublic() {
		return Allow("target is public"), nil
	}
	if principal != "" {
		if target.IsAttributedTo(principal) {
			return Allow("target attributed to principal"), nil
		}
		if id != nil && resource.IsActorCollection(id.Actor(), targetURI) {
			return Allow("target is principal's own collection"), nil
		}
	}
	return denyForPrincipal(id, "not authorized to modify this target"), nil
}

func (e *Engine) isUndoAuthorized(ctx context.Context, principal string, activity resource.Doc) (Decision, error) {
	undoneURI := resource.ResourceID(activity["object"])
	if undoneURI == "" {
		return Allow("missing undo object, treated permissively"), nil
	}
	undone, err := e.Store.Get(ctx, undoneURI)
	if err != nil {
		return Decision{}, err
	}
	if undone == nil {
		return Allow("undone activity not found, treated permissively"), nil
	}
	if !undone.IsTypeAny("Follow", "Like", "Announce") {
		return Allow("undone activity type is not revocable, treated permissively"), nil
	}
	actorURI := resource.ResourceID(undone["actor"])
	if actorURI == "" || actorURI == principal {
		return Allow("undoing own activity"), nil
	}
	return Deny("cannot undo another actor's activity", http.StatusForbidden), nil
}

func (e *Engine) isUpdateDeleteAuthorized(ctx context.Context, principal string, activity resource.Doc) (Decision, error) {
	objectURI := resource.ResourceID(activity["object"])
	if objectURI == "" {
		return Deny("Update/Delete requires object", http.StatusForbidden), nil
	}
	obj, err := e.Store.Get(ctx, objectURI)
	if err != nil {
		return Decision{}, err
	}
	if obj == nil {
		return Deny("object not found", http.StatusForbidden), nil
	}
	if principal != "" && obj.IsAttributedTo(principal) {
		return Allow("attributed to principal"), nil
	}
	return Deny("object is not attributed to principal", http.StatusForbidden), nil
}
