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
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stevebate/firm/internal/resource"
)

const activityStreamsContext = "https://www.w3.org/ns/activitystreams"

// primaryType returns a document's first declared type, used to build
// the lowercased path segment in generated ids.
func primaryType(d resource.Doc) string {
	types := d.Types()
	if len(types) == 0 {
		return "activity"
	}
	return types[0]
}

// normalizeActivity assigns a missing id as "{actorURI}/{type}-{uuid}",
// injects "@context" and "actor" if absent, matching §4.1's outbox
// normalization step (reused for inbound activities too, keyed off
// their own declared actor rather than the posting owner).
func normalizeActivity(activity resource.Doc, actorURI string) resource.Doc {
	out := activity.Clone()
	if out.ID() == "" {
		out["id"] = fmt.Sprintf("%s/%s-%s", actorURI, strings.ToLower(primaryType(out)), uuid.NewString())
	}
	if _, ok := out["@context"]; !ok {
		out["@context"] = activityStreamsContext
	}
	if _, ok := out["actor"]; !ok {
		out["actor"] = actorURI
	}
	return out
}

// normalizeObject assigns a missing id as "{actorURI}/{type}/{uuid}" and
// sets attributedTo, matching §4.1's Create embedded-object handling.
func normalizeObject(obj resource.Doc, actorURI string) resource.Doc {
	out := obj.Clone()
	if out.ID() == "" {
		out["id"] = fmt.Sprintf("%s/%s/%s", actorURI, strings.ToLower(primaryType(out)), uuid.NewString())
	}
	out["attributedTo"] = actorURI
	return out
}
