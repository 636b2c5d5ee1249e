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

// Package prefixstore routes resource store operations across per-tenant
// partitions, a remote partition, and a private partition by URI prefix,
// grounded on firm.store.prefixstore.PrefixAwareResourceStore.
package prefixstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

// WildcardTenant is the catch-all tenant prefix, matched when no specific
// tenant claims a URI's scheme+host(+port).
const WildcardTenant = "*"

// URLPrefix returns "scheme://host[:port]" for uri, the routing key used
// throughout this package (firm.interfaces.get_url_prefix).
func URLPrefix(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return u.Scheme + "://" + u.Host
}

// IsPrivate reports whether prefix (or a bare URI) belongs to the private
// partition, i.e. starts with "urn:".
func IsPrivate(uriOrPrefix string) bool {
	return strings.HasPrefix(uriOrPrefix, "urn:")
}

// Store routes by URI prefix across tenant, remote, and private
// partitions.
type Store struct {
	tenants []string // tenantStores keys in map iteration order (unsorted); lookup uses tenantStores
	tenantStores map[string]store.Store
	remote       store.Store
	private      store.Store
}

// New builds a prefix-routed store. tenantStores keys are URL prefixes
// ("https://example.test") or the WildcardTenant ("*").
func New(tenantStores map[string]store.Store, remote, private store.Store) *Store {
	s := &Store{tenantStores: tenantStores, remote: remote, private: private}
	for prefix := range tenantStores {
		s.tenants = append(s.tenants, prefix)
	}
	return s
}

// IsTenant reports whether prefix names a configured tenant (not counting
// the wildcard fallback).
func (s *Store) IsTenant(prefix string) bool {
	_, ok := s.tenantStores[prefix]
	return ok
}

func (s *Store) storeForPrefix(prefix string) (store.Store, error) {
	if IsPrivate(prefix) {
		return s.private, nil
	}
	if st, ok := s.tenantStores[prefix]; ok {
		return st, nil
	}
	if !s.IsTenant(prefix) {
		if st, ok := s.tenantStores[WildcardTenant]; ok {
			return st, nil
		}
		return s.remote, nil
	}
	return nil, fmt.Errorf("prefixstore: no store for %s", prefix)
}

func (s *Store) storeForURI(uri string) (store.Store, error) {
	if IsPrivate(uri) {
		return s.private, nil
	}
	return s.storeForPrefix(URLPrefix(uri))
}

func (s *Store) Get(ctx context.Context, uri string) (resource.Doc, error) {
	st, err := s.storeForURI(uri)
	if err != nil {
		return nil, err
	}
	return st.Get(ctx, uri)
}

func (s *Store) IsStored(ctx context.Context, uri string) (bool, error) {
	st, err := s.storeForURI(uri)
	if err != nil {
		return false, err
	}
	return st.IsStored(ctx, uri)
}

func (s *Store) Put(ctx context.Context, res resource.Doc) error {
	id := res.ID()
	if id == "" {
		return store.ErrMissingID
	}
	st, err := s.storeForURI(id)
	if err != nil {
		return err
	}
	return st.Put(ctx, res)
}

func (s *Store) Remove(ctx context.Context, uri string) error {
	st, err := s.storeForURI(uri)
	if err != nil {
		return err
	}
	return st.Remove(ctx, uri)
}

// takePrefix extracts and removes the synthetic "@prefix" criterion
// selecting which partition a query/query_one/upsert targets, per §4.4.
func takePrefix(criteria store.Criteria) (string, store.Criteria, error) {
	prefix, ok := criteria["@prefix"].(string)
	if !ok || prefix == "" {
		return "", nil, fmt.Errorf("prefixstore: query criteria has no @prefix")
	}
	rest := make(store.Criteria, len(criteria))
	for k, v := range criteria {
		if k == "@prefix" {
			continue
		}
		rest[k] = v
	}
	return prefix, rest, nil
}

func (s *Store) Query(ctx context.Context, criteria store.Criteria) ([]resource.Doc, error) {
	prefix, rest, err := takePrefix(criteria)
	if err != nil {
		return nil, err
	}
	st, err := s.storeForPrefix(prefix)
	if err != nil {
		return nil, err
	}
	return st.Query(ctx, rest)
}

func (s *Store) QueryOne(ctx context.Context, criteria store.Criteria) (resource.Doc, error) {
	prefix, rest, err := takePrefix(criteria)
	if err != nil {
		return nil, err
	}
	st, err := s.storeForPrefix(prefix)
	if err != nil {
		return nil, err
	}
	return st.QueryOne(ctx, rest)
}

func (s *Store) Update(ctx context.Context, uri string, updates resource.Doc) error {
	st, err := s.storeForURI(uri)
	if err != nil {
		return err
	}
	return st.Update(ctx, uri, updates)
}

func (s *Store) Upsert(ctx context.Context, criteria store.Criteria, updates resource.Doc) error {
	prefix, rest, err := takePrefix(criteria)
	if err != nil {
		return err
	}
	st, err := s.storeForPrefix(prefix)
	if err != nil {
		return err
	}
	return st.Upsert(ctx, rest, updates)
}

var _ store.Store = (*Store)(nil)
