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

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stevebate/firm/internal/resource"
)

// isJSONFile mirrors firm.store.base.ResourceStoreBase.is_json_file.
func isJSONFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".json" || ext == ".jsonld"
}

// LoadResources bulk-loads a single JSON document, a JSON array of
// documents, or a directory tree of such files into store, generalizing
// firm.store.base.ResourceStoreBase.load_resources. Used by tests that
// want a populated fixture store.
func LoadResources(ctx context.Context, s Store, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("load resources: %w", err)
	}
	if info.IsDir() {
		return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isJSONFile(p) {
				return nil
			}
			return loadFile(ctx, s, p)
		})
	}
	if !isJSONFile(path) {
		return nil
	}
	return loadFile(ctx, s, path)
}

func loadFile(ctx context.Context, s Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load resources: %s: %w", path, err)
	}
	var asList []resource.Doc
	if err := json.Unmarshal(data, &asList); err == nil {
		for _, res := range asList {
			if err := s.Put(ctx, res); err != nil {
				return err
			}
		}
		return nil
	}
	var single resource.Doc
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("load resources: %s: %w", path, err)
	}
	return s.Put(ctx, single)
}
