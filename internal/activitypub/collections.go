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

	"github.com/stevebate/firm/internal/apperr"
)

// prependCollection inserts memberURI at the front of collectionURI's
// member list (inbox/outbox insertion order, §4.1).
func (s *Service) prependCollection(ctx context.Context, collectionURI, memberURI string) error {
	return s.mutateCollection(ctx, collectionURI, memberURI, true, false)
}

// appendCollection inserts memberURI at the back of collectionURI's
// member list (followers/likes insertion order).
func (s *Service) appendCollection(ctx context.Context, collectionURI, memberURI string) error {
	return s.mutateCollection(ctx, collectionURI, memberURI, false, false)
}

// removeFromCollection removes memberURI from collectionURI, a no-op if
// absent (Undo handling).
func (s *Service) removeFromCollection(ctx context.Context, collectionURI, memberURI string) error {
	return s.mutateCollection(ctx, collectionURI, memberURI, false, true)
}

// mutateCollection selects "items" or "orderedItems" by the collection's
// declared type and applies the requested mutation, rejecting duplicate
// insertion as a no-op per §4.1/§8.
func (s *Service) mutateCollection(ctx context.Context, collectionURI, memberURI string, prepend, remove bool) error {
	col, err := s.Store.Get(ctx, collectionURI)
	if err != nil {
		return err
	}
	if col == nil {
		return apperr.Internal("collection %s does not exist", collectionURI)
	}

	field := "items"
	if col.IsType("OrderedCollection") {
		field = "orderedItems"
	}
	items := stringSlice(col[field])
	idx := indexOf(items, memberURI)

	switch {
	case remove:
		if idx < 0 {
			return nil
		}
		items = append(items[:idx], items[idx+1:]...)
	case idx >= 0:
		return nil
	case prepend:
		items = append([]string{memberURI}, items...)
	default:
		items = append(items, memberURI)
	}

	col = col.Clone()
	col[field] = items
	return s.Store.Put(ctx, col)
}

func stringSlice(v interface{}) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func indexOf(items []string, uri string) int {
	for i, s := range items {
		if s == uri {
			return i
		}
	}
	return -1
}
