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

// Package store defines the resource store contract shared by every
// partition implementation (memory, file, SQL, prefix-routed) and the
// base helpers (query_one/update/upsert/is_match) built on top of it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stevebate/firm/internal/resource"
)

// Criteria is a query-by-example document: every non-"@"-prefixed key is
// matched against the candidate document's same key, either by equality
// or (if the candidate's value is a list) by membership.
type Criteria map[string]interface{}

// ErrMultipleMatches is returned by QueryOne when more than one document
// satisfies the criteria.
var ErrMultipleMatches = errors.New("store: multiple matches for query_one")

// ErrUnknownResource is returned by Update for a uri with no existing
// document.
var ErrUnknownResource = errors.New("store: unknown resource")

// ErrMissingID is returned by Put when the resource carries no "id", and
// by Upsert when criteria carries no "id".
var ErrMissingID = errors.New("store: resource has no id")

// Primitive is the set of operations a concrete partition must implement.
// QueryOne/Update/Upsert are derived from these by Base.
type Primitive interface {
	Get(ctx context.Context, uri string) (resource.Doc, error)
	IsStored(ctx context.Context, uri string) (bool, error)
	Put(ctx context.Context, res resource.Doc) error
	Remove(ctx context.Context, uri string) error
	Query(ctx context.Context, criteria Criteria) ([]resource.Doc, error)
}

// Store is the full resource store contract (§4.4), matching the Python
// ResourceStore protocol.
type Store interface {
	Primitive
	QueryOne(ctx context.Context, criteria Criteria) (resource.Doc, error)
	Update(ctx context.Context, uri string, updates resource.Doc) error
	Upsert(ctx context.Context, criteria Criteria, updates resource.Doc) error
}

// Base implements QueryOne/Update/Upsert atop an embedded Primitive,
// mirroring firm.store.base.ResourceStoreBase. Concrete partitions embed
// Base and only need to implement Primitive.
type Base struct {
	Primitive
}

// NewBase wraps a Primitive with the default QueryOne/Update/Upsert
// behavior.
func NewBase(p Primitive) Base {
	return Base{Primitive: p}
}

func (b Base) QueryOne(ctx context.Context, criteria Criteria) (resource.Doc, error) {
	matches, err := b.Query(ctx, criteria)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrMultipleMatches, criteria)
	}
}

func (b Base) Update(ctx context.Context, uri string, updates resource.Doc) error {
	res, err := b.Get(ctx, uri)
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("%w: %s", ErrUnknownResource, uri)
	}
	res = res.Clone()
	for k, v := range updates {
		if k == "id" {
			// The resource identifier can never be changed via update.
			continue
		}
		res[k] = v
	}
	return b.Put(ctx, res)
}

func (b Base) Upsert(ctx context.Context, criteria Criteria, updates resource.Doc) error {
	id, ok := criteria["id"].(string)
	if !ok || id == "" {
		return fmt.Errorf("%w: id must be in criteria for upsert: %v", ErrMissingID, criteria)
	}
	res, err := b.QueryOne(ctx, criteria)
	if err != nil {
		return err
	}
	if res == nil {
		res = make(resource.Doc, len(criteria))
		for k, v := range criteria {
			if strings.HasPrefix(k, "@") {
				continue
			}
			res[k] = v
		}
	} else {
		res = res.Clone()
	}
	for k, v := range updates {
		if k == "id" {
			continue
		}
		res[k] = v
	}
	return b.Put(ctx, res)
}

// IsMatch reports whether doc satisfies criteria: for every non-"@"
// key/value pair, either doc[key] == value, or doc[key] is a list
// containing value. Absent fields never match.
func IsMatch(doc resource.Doc, criteria Criteria) bool {
	for k, v := range criteria {
		if strings.HasPrefix(k, "@") {
			continue
		}
		want, ok := v.(string)
		if !ok {
			// Non-string criteria values are compared for direct equality
			// against a non-list field; lists of non-strings aren't a
			// shape the source data ever produces.
			got, present := doc[k]
			if !present || got != v {
				return false
			}
			continue
		}
		if !resource.HasValue(doc, k, want) {
			return false
		}
	}
	return true
}
