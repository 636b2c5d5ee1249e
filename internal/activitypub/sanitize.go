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
	"github.com/microcosm-cc/bluemonday"

	"github.com/stevebate/firm/internal/resource"
)

// sanitizedFields lists the free-text fields sanitized before persisting
// content coming from a remote peer or a local client.
var sanitizedFields = []string{"content", "summary", "name"}

// Sanitizer strips unsafe markup from inbound content, generalizing the
// teacher's bluemonday-based HTML escaping from rendered templates to
// stored federated documents. A nil *Sanitizer is a no-op, so callers
// can wire one in optionally.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a Sanitizer using bluemonday's UGC policy, the
// same permissiveness level appropriate for user-generated post content.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// SanitizeObject sanitizes an Object's free-text fields in place.
func (s *Sanitizer) SanitizeObject(obj resource.Doc) {
	if s == nil || obj == nil {
		return
	}
	for _, field := range sanitizedFields {
		if v, ok := obj[field].(string); ok {
			obj[field] = s.policy.Sanitize(v)
		}
	}
}

// SanitizeActivity sanitizes an Activity's own free-text fields and, if
// it carries an embedded object, that object's fields too.
func (s *Sanitizer) SanitizeActivity(activity resource.Doc) {
	if s == nil || activity == nil {
		return
	}
	for _, field := range sanitizedFields {
		if v, ok := activity[field].(string); ok {
			activity[field] = s.policy.Sanitize(v)
		}
	}
	if obj, ok := resource.AsDoc(activity["object"]); ok {
		s.SanitizeObject(obj)
	}
}
