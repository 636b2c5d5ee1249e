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

// Package memstore is an in-memory resource store partition, grounded on
// firm.store.memory.MemoryResourceStore. Safe for concurrent use by
// multiple request handlers, per §5's single-writer requirement.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

// Store is a mutex-protected map from resource id to document.
type Store struct {
	store.Base

	mu      sync.RWMutex
	objects map[string]resource.Doc
}

// New creates an empty in-memory store.
func New() *Store {
	s := &Store{objects: make(map[string]resource.Doc)}
	s.Base = store.NewBase(s)
	return s
}

func (s *Store) Get(ctx context.Context, uri string) (resource.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.objects[uri]; ok {
		return d.Clone(), nil
	}
	return nil, nil
}

func (s *Store) IsStored(ctx context.Context, uri string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[uri]
	return ok, nil
}

func (s *Store) Put(ctx context.Context, res resource.Doc) error {
	id := res.ID()
	if id == "" {
		// Assign a URI if one is not provided, per firm.store.memory.
		id = "urn:uuid:" + uuid.New().String()
		res = res.Clone()
		res["id"] = id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = res
	return nil
}

func (s *Store) Remove(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, uri)
	return nil
}

func (s *Store) Query(ctx context.Context, criteria store.Criteria) ([]resource.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []resource.Doc
	for _, obj := range s.objects {
		if store.IsMatch(obj, criteria) {
			matches = append(matches, obj.Clone())
		}
	}
	return matches, nil
}

var _ store.Store = (*Store)(nil)
