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

package main

import (
	"fmt"
	"os"

	"github.com/stevebate/firm/internal/config"
)

// genConfigAction interactively builds a new configuration file, grounded
// on apcore's promptNewConfig -- asking only what's needed to pick a
// store backend and the tenants it will serve, then writing it with
// config.Save.
func genConfigAction() error {
	if _, err := os.Stat(*configFlag); err == nil {
		overwrite, err := promptYN(fmt.Sprintf("A file already exists at %q. Overwrite it?", *configFlag), false)
		if err != nil {
			return err
		}
		if !overwrite {
			return nil
		}
	}

	addr, err := promptStringWithDefault("Address to listen on", ":8080")
	if err != nil {
		return err
	}

	var tenants []string
	for {
		prefix, err := promptStringWithDefault("Tenant URL prefix (e.g. https://example.test), blank to stop", "")
		if err != nil {
			return err
		}
		if prefix == "" {
			break
		}
		tenants = append(tenants, prefix)
	}
	if len(tenants) == 0 {
		return fmt.Errorf("genconfig: at least one tenant prefix is required")
	}

	backend, err := promptSelection("Resource store backend", "memory", "file", "sql")
	if err != nil {
		return err
	}

	cfg := config.Default(tenants...)
	cfg.Server.Addr = addr
	cfg.Store.Backend = backend

	switch backend {
	case "file":
		dir, err := promptStringWithDefault("Directory for stored resources", "./firm-data")
		if err != nil {
			return err
		}
		cfg.Store.FileDir = dir
	case "sql":
		dsn, err := promptStringWithDefault("SQLite DSN", "./firm.db")
		if err != nil {
			return err
		}
		cfg.Store.SQLDSN = dsn
	}

	timeout, err := promptIntWithDefault("Outbound HTTP timeout in seconds", cfg.ActivityPub.OutboundTimeoutSeconds)
	if err != nil {
		return err
	}
	cfg.ActivityPub.OutboundTimeoutSeconds = timeout

	if err := cfg.Verify(); err != nil {
		return err
	}
	if err := config.Save(*configFlag, cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote configuration to %q\n", *configFlag)
	return nil
}
