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

// Package resource implements the JSON-document polymorphism the
// ActivityPub core is built on: every resource -- actor, activity, object,
// collection -- is a plain document and is narrowed with predicates rather
// than a static type hierarchy, per the source's runtime type tests.
package resource

import "fmt"

// Doc is a resource represented as its raw decoded JSON object. Unknown
// fields survive a get/put round trip because nothing here projects a
// struct over it.
type Doc map[string]interface{}

// Clone makes a shallow copy of the document: top-level fields can be
// set or deleted on the copy without touching d, but nested maps and
// slices are shared between the two.
func (d Doc) Clone() Doc {
	c := make(Doc, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// ID returns the document's "id" field, or "" if missing or non-string.
func (d Doc) ID() string {
	s, _ := d["id"].(string)
	return s
}

// Types returns the document's "type" field normalized to a slice, since
// ActivityStreams types may be a single string or a list of strings.
func (d Doc) Types() []string {
	switch t := d["type"].(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	}
	return nil
}

// IsType reports whether the document's type includes t.
func (d Doc) IsType(t string) bool {
	for _, got := range d.Types() {
		if got == t {
			return true
		}
	}
	return false
}

// IsTypeAny reports whether the document's type includes any of types.
func (d Doc) IsTypeAny(types ...string) bool {
	for _, t := range types {
		if d.IsType(t) {
			return true
		}
	}
	return false
}

// ResourceID extracts a URI from either a bare string reference or an
// embedded object carrying an "id" field, mirroring firm.util.resource_id.
func ResourceID(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case Doc:
		return val.ID()
	case map[string]interface{}:
		return Doc(val).ID()
	case []interface{}:
		// FIXME (per source): a list of actor/object references; any
		// element matching is treated as authoritative elsewhere, here
		// we just surface the first resolvable id.
		for _, item := range val {
			if id := ResourceID(item); id != "" {
				return id
			}
		}
		return ""
	default:
		panic(fmt.Sprintf("resource: cannot get id from %T", v))
	}
}

// Get walks nested document fields, returning nil if any segment is
// missing or not itself a document (firm.util.resource_get).
func Get(d Doc, keys ...string) interface{} {
	var cur interface{} = d
	for _, k := range keys {
		m, ok := cur.(Doc)
		if !ok {
			if raw, ok2 := cur.(map[string]interface{}); ok2 {
				m = Doc(raw)
			} else {
				return nil
			}
		}
		cur = m[k]
	}
	return cur
}

// GetString is Get narrowed to a string result.
func GetString(d Doc, keys ...string) string {
	v := Get(d, keys...)
	s, _ := v.(string)
	return s
}

// AsDoc normalizes a nested field value into a Doc. Values decoded by
// encoding/json into a Doc's own fields come back as plain
// map[string]interface{}, since Go doesn't propagate named map types
// into nested values -- callers that need to navigate into an embedded
// object (e.g. an actor's "publicKey") go through this.
func AsDoc(v interface{}) (Doc, bool) {
	switch val := v.(type) {
	case Doc:
		return val, true
	case map[string]interface{}:
		return Doc(val), true
	default:
		return nil, false
	}
}

// HasValue reports whether resource[key] equals value, either directly or
// as a member of a list value (firm.util.has_value).
func HasValue(d Doc, key, value string) bool {
	v, ok := d[key]
	if !ok {
		return false
	}
	switch val := v.(type) {
	case string:
		return val == value
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok && s == value {
				return true
			}
		}
	case []string:
		for _, s := range val {
			if s == value {
				return true
			}
		}
	}
	return false
}
