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

package resource

// ActorTypes enumerates the actor object types recognized in §3 of the
// data model.
var ActorTypes = []string{"Person", "Service", "Group", "Application", "Organization"}

// AddressingFields lists the fields inspected for recipients and public
// visibility, per data model invariant 4.
var AddressingFields = []string{"to", "cc", "bto", "bcc", "audience"}

// PublicURIs lists the ActivityStreams URIs that mark a resource public,
// per data model invariant 5.
var PublicURIs = []string{
	"https://www.w3.org/ns/activitystreams#Public",
	"as:Public",
	"Public",
}

// IsActorObject reports whether the document is one of the recognized
// actor types.
func (d Doc) IsActorObject() bool {
	return d.IsTypeAny(ActorTypes...)
}

// IsPublic reports whether any addressing field names a public URI.
func (d Doc) IsPublic() bool {
	for _, field := range AddressingFields {
		if _, ok := d[field]; !ok {
			continue
		}
		for _, uri := range PublicURIs {
			if HasValue(d, field, uri) {
				return true
			}
		}
	}
	return false
}

// IsRecipient reports whether uri appears in any addressing field.
func (d Doc) IsRecipient(uri string) bool {
	for _, field := range AddressingFields {
		if HasValue(d, field, uri) {
			return true
		}
	}
	return false
}

// IsAttributedTo reports whether the document's attributedTo names uri.
func (d Doc) IsAttributedTo(uri string) bool {
	return HasValue(d, "attributedTo", uri)
}

// IsActivityActor reports whether uri is the document's actor, in
// whichever shape it takes (string, embedded object, or list), following
// the source (firm.auth.authorization.is_activity_actor). attributedTo is
// consulted only when actor is absent, nil, or of some other type; an
// actor of one of those shapes that does not match gives false without
// looking at attributedTo (see DESIGN.md open question).
func (d Doc) IsActivityActor(uri string) bool {
	if actors, ok := d["actor"]; ok && actors != nil {
		switch v := actors.(type) {
		case string:
			return v == uri
		case map[string]interface{}:
			return Doc(v).ID() == uri
		case Doc:
			return v.ID() == uri
		case []interface{}:
			for _, item := range v {
				if ResourceID(item) == uri {
					return true
				}
			}
			return false
		}
	}
	if attribution := Get(d, "attributedTo"); attribution != nil {
		switch v := attribution.(type) {
		case string:
			return v == uri
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && s == uri {
					return true
				}
			}
		}
	}
	return false
}

// ActorCollectionFields lists the actor-owned collections a principal may
// freely mutate (used by Add/Remove authorization).
var ActorCollectionFields = []string{"followers", "following", "liked", "likes", "shares"}

// IsActorCollection reports whether uri names one of actor's own
// collections.
func IsActorCollection(actor Doc, uri string) bool {
	for _, field := range ActorCollectionFields {
		if s, ok := actor[field].(string); ok && s == uri {
			return true
		}
	}
	return false
}
