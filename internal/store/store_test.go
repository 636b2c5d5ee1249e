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

package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
	"github.com/stevebate/firm/internal/store/memstore"
)

func TestIsMatchScalarListAndAtPrefix(t *testing.T) {
	doc := resource.Doc{
		"type": "Follow",
		"to":   []interface{}{"https://example.test/a", "https://example.test/b"},
	}
	assert.True(t, store.IsMatch(doc, store.Criteria{"type": "Follow"}))
	assert.False(t, store.IsMatch(doc, store.Criteria{"type": "Like"}))
	assert.True(t, store.IsMatch(doc, store.Criteria{"to": "https://example.test/a"}))
	assert.False(t, store.IsMatch(doc, store.Criteria{"to": "https://example.test/z"}))
	assert.True(t, store.IsMatch(doc, store.Criteria{"@prefix": "https://example.test/"}))
	assert.False(t, store.IsMatch(doc, store.Criteria{"absent": "x"}))
}

func TestUpsertCreatesWhenAbsentAndUpdatesWhenPresent(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	err := s.Upsert(ctx, store.Criteria{"id": "https://example.test/a"}, resource.Doc{"name": "Alice"})
	require.NoError(t, err)

	got, err := s.Get(ctx, "https://example.test/a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got["name"])

	err = s.Upsert(ctx, store.Criteria{"id": "https://example.test/a"}, resource.Doc{"name": "Alicia"})
	require.NoError(t, err)

	got, err = s.Get(ctx, "https://example.test/a")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got["name"])
}

func TestUpsertWithoutIDErrors(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	err := s.Upsert(ctx, store.Criteria{"type": "Person"}, resource.Doc{"name": "Alice"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrMissingID))
}

func TestQueryOneErrorsOnMultipleMatches(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Put(ctx, resource.Doc{"id": "https://example.test/a", "type": "Person"}))
	require.NoError(t, s.Put(ctx, resource.Doc{"id": "https://example.test/b", "type": "Person"}))

	_, err := s.QueryOne(ctx, store.Criteria{"type": "Person"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrMultipleMatches))
}

func writeJSONFile(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoadResourcesSingleDocument(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	path := filepath.Join(t.TempDir(), "actor.json")
	writeJSONFile(t, path, resource.Doc{"id": "https://example.test/actor/alice", "type": "Person"})

	require.NoError(t, store.LoadResources(ctx, s, path))

	got, err := s.Get(ctx, "https://example.test/actor/alice")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestLoadResourcesArrayOfDocuments(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	path := filepath.Join(t.TempDir(), "actors.json")
	writeJSONFile(t, path, []resource.Doc{
		{"id": "https://example.test/actor/alice", "type": "Person"},
		{"id": "https://example.test/actor/bob", "type": "Person"},
	})

	require.NoError(t, store.LoadResources(ctx, s, path))

	alice, err := s.Get(ctx, "https://example.test/actor/alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	bob, err := s.Get(ctx, "https://example.test/actor/bob")
	require.NoError(t, err)
	require.NotNil(t, bob)
}

func TestLoadResourcesWalksDirectoryAndSkipsNonJSON(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	dir := t.TempDir()
	writeJSONFile(t, filepath.Join(dir, "alice.json"), resource.Doc{"id": "https://example.test/actor/alice", "type": "Person"})
	writeJSONFile(t, filepath.Join(dir, "note.jsonld"), resource.Doc{"id": "https://example.test/note/1", "type": "Note"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not json"), 0o644))

	require.NoError(t, store.LoadResources(ctx, s, dir))

	alice, err := s.Get(ctx, "https://example.test/actor/alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	note, err := s.Get(ctx, "https://example.test/note/1")
	require.NoError(t, err)
	require.NotNil(t, note)
}
