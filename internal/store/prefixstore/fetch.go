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

package prefixstore

import (
	"context"
	"encoding/json"

	"github.com/stevebate/firm/internal/fnlog"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
	"github.com/stevebate/firm/internal/transport"
)

// WithFetch wraps a prefix-routed Store so that Get falls back to an
// outbound HTTP fetch for unknown, non-tenant http(s) URIs, caching the
// result in the remote partition. Grounded on
// firm.store.prefixstore.PrefixAwareResourceStoreWithFetch.
type WithFetch struct {
	inner     *Store
	transport *Client
}

// Client is the subset of transport.Client used for fetch-fallback,
// factored out so tests can substitute a fake without a real transport.
type Client interface {
	Get(ctx context.Context, uri string, headers map[string]string) (status int, body []byte, err error)
}

var _ Client = (*transport.Client)(nil)

// NewWithFetch wraps inner with fetch-fallback using the given transport.
func NewWithFetch(inner *Store, t Client) *WithFetch {
	return &WithFetch{inner: inner, transport: t}
}

func isHTTPURI(uri string) bool {
	return len(uri) > 7 && (uri[:7] == "http://" || (len(uri) > 8 && uri[:8] == "https://"))
}

func (w *WithFetch) fetch(ctx context.Context, uri string) resource.Doc {
	fnlog.Info.Infof("fetching %s", uri)
	status, body, err := w.transport.Get(ctx, uri, map[string]string{
		"Accept": "application/activity+json",
	})
	if err != nil {
		fnlog.Error.Errorf("failed to fetch %s: %v", uri, err)
		return nil
	}
	if status < 200 || status >= 300 {
		fnlog.Error.Errorf("failed to fetch %s: status %d", uri, status)
		return nil
	}
	var doc resource.Doc
	if err := json.Unmarshal(body, &doc); err != nil {
		fnlog.Error.Errorf("failed to parse fetch response %s: %v", uri, err)
		return nil
	}
	return doc
}

func (w *WithFetch) Get(ctx context.Context, uri string) (resource.Doc, error) {
	res, err := w.inner.Get(ctx, uri)
	if err != nil {
		return nil, err
	}
	if res == nil && !w.inner.IsTenant(URLPrefix(uri)) && isHTTPURI(uri) {
		if fetched := w.fetch(ctx, uri); fetched != nil {
			if err := w.Put(ctx, fetched); err != nil {
				return nil, err
			}
			return fetched, nil
		}
	}
	return res, nil
}

func (w *WithFetch) IsStored(ctx context.Context, uri string) (bool, error) {
	return w.inner.IsStored(ctx, uri)
}

func (w *WithFetch) Put(ctx context.Context, res resource.Doc) error {
	return w.inner.Put(ctx, res)
}

func (w *WithFetch) Remove(ctx context.Context, uri string) error {
	return w.inner.Remove(ctx, uri)
}

func (w *WithFetch) Query(ctx context.Context, criteria store.Criteria) ([]resource.Doc, error) {
	return w.inner.Query(ctx, criteria)
}

func (w *WithFetch) QueryOne(ctx context.Context, criteria store.Criteria) (resource.Doc, error) {
	return w.inner.QueryOne(ctx, criteria)
}

func (w *WithFetch) Update(ctx context.Context, uri string, updates resource.Doc) error {
	return w.inner.Update(ctx, uri, updates)
}

func (w *WithFetch) Upsert(ctx context.Context, criteria store.Criteria, updates resource.Doc) error {
	return w.inner.Upsert(ctx, criteria, updates)
}

var _ store.Store = (*WithFetch)(nil)
