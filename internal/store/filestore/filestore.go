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

// Package filestore is a one-JSON-file-per-resource store partition,
// grounded on firm.store.file.FileResourceStore. The filename is the MD5
// hex digest of the resource's URI; writes are atomic (write-to-temp then
// rename) per §5's file partition requirement.
package filestore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stevebate/firm/internal/fnlog"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
	"github.com/tidwall/pretty"
)

// Store is a directory of one-file-per-resource JSON documents.
type Store struct {
	store.Base

	dir string
}

// New creates (if needed) dir and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}
	fnlog.Info.Infof("filestore initialized at %q", dir)
	s := &Store{dir: dir}
	s.Base = store.NewBase(s)
	return s, nil
}

// URIHash returns the MD5 hex digest used as a resource's filename.
func URIHash(uri string) string {
	sum := md5.Sum([]byte(uri))
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(uri string) string {
	return filepath.Join(s.dir, URIHash(uri)+".json")
}

func (s *Store) Get(ctx context.Context, uri string) (resource.Doc, error) {
	data, err := os.ReadFile(s.path(uri))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore get %s: %w", uri, err)
	}
	var doc resource.Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("filestore get %s: %w", uri, err)
	}
	return doc, nil
}

func (s *Store) IsStored(ctx context.Context, uri string) (bool, error) {
	_, err := os.Stat(s.path(uri))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) Put(ctx context.Context, res resource.Doc) error {
	id := res.ID()
	if id == "" {
		return store.ErrMissingID
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("filestore put %s: %w", id, err)
	}
	data = pretty.Pretty(data)
	dest := s.path(id)
	tmp, err := os.CreateTemp(s.dir, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("filestore put %s: %w", id, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore put %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore put %s: %w", id, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore put %s: %w", id, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, uri string) error {
	err := os.Remove(s.path(uri))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) Query(ctx context.Context, criteria store.Criteria) ([]resource.Doc, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("filestore query: %w", err)
	}
	var matches []resource.Doc
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var doc resource.Doc
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		if store.IsMatch(doc, criteria) {
			matches = append(matches, doc)
		}
	}
	return matches, nil
}

var _ store.Store = (*Store)(nil)
