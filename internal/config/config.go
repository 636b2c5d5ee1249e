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

// Package config is the ini-backed configuration struct, grounded on
// apcore's config.go: per-section structs with an `ini` tag, a Verify
// method per section, and Load/Save helpers built on gopkg.in/ini.v1.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Config is the overall configuration file structure for a firm instance.
type Config struct {
	Server      ServerConfig      `ini:"server" comment:"Server configuration"`
	Store       StoreConfig       `ini:"store" comment:"Resource store configuration"`
	ActivityPub ActivityPubConfig `ini:"activitypub" comment:"ActivityPub dispatch configuration"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `ini:"sr_addr" comment:"(required) Address to listen on, e.g. \":8080\""`
}

// StoreConfig selects and configures the resource store backend.
type StoreConfig struct {
	Backend         string   `ini:"st_backend" comment:"(required) One of \"memory\", \"file\", \"sql\""`
	FileDir         string   `ini:"st_file_dir" comment:"Directory for the file-backed store (required if backend is \"file\")"`
	SQLDSN          string   `ini:"st_sql_dsn" comment:"DSN for the SQL-backed store (required if backend is \"sql\")"`
	TenantPrefixes  []string `ini:"st_tenant_prefixes" comment:"Comma-separated list of tenant URL prefixes this server hosts, e.g. \"https://example.test\""`
	RemoteIsWritten bool     `ini:"st_remote_writable" comment:"(Default sets true) Not read by the server: fetched remote resources are always cached"`
}

// Verify checks required StoreConfig fields, per the teacher's
// per-section Verify() convention.
func (s StoreConfig) Verify() error {
	switch s.Backend {
	case "memory", "file", "sql":
	default:
		return fmt.Errorf("config: store backend must be one of memory, file, sql, got %q", s.Backend)
	}
	if s.Backend == "file" && s.FileDir == "" {
		return fmt.Errorf("config: st_file_dir is required for the file backend")
	}
	if s.Backend == "sql" && s.SQLDSN == "" {
		return fmt.Errorf("config: st_sql_dsn is required for the sql backend")
	}
	if len(s.TenantPrefixes) == 0 {
		return fmt.Errorf("config: at least one tenant prefix is required")
	}
	return nil
}

// ActivityPubConfig configures the dispatch engine and outbound transport.
type ActivityPubConfig struct {
	OutboundTimeoutSeconds int      `ini:"ap_outbound_timeout_seconds" comment:"(default: 5) Timeout in seconds for outbound HTTP (fetch-fallback, delivery)"`
	OutboundRateLimitQPS   float64  `ini:"ap_outbound_rate_limit_qps" comment:"(default: 10) Outbound rate limit for delivery and fetch-fallback"`
	OutboundRateLimitBurst int      `ini:"ap_outbound_rate_limit_burst" comment:"(default: 20) Outbound burst tolerance"`
	SignedHeaders          []string `ini:"ap_signed_headers" comment:"(default: \"(request-target),date,digest,host\") Header list signed on outbound deliveries"`
}

// Verify checks required ActivityPubConfig fields and applies defaults
// for anything left zero.
func (a *ActivityPubConfig) Verify() error {
	if a.OutboundTimeoutSeconds <= 0 {
		a.OutboundTimeoutSeconds = 5
	}
	if a.OutboundRateLimitQPS <= 0 {
		a.OutboundRateLimitQPS = 10
	}
	if a.OutboundRateLimitBurst <= 0 {
		a.OutboundRateLimitBurst = 20
	}
	if len(a.SignedHeaders) == 0 {
		a.SignedHeaders = []string{"(request-target)", "date", "digest", "host"}
	}
	return nil
}

// Default returns a Config populated with the given tenant prefixes and
// an in-memory store, suitable as a genconfig starting point.
func Default(tenantPrefixes ...string) *Config {
	c := &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store: StoreConfig{
			Backend:         "memory",
			TenantPrefixes:  tenantPrefixes,
			RemoteIsWritten: true,
		},
	}
	_ = c.ActivityPub.Verify()
	return c
}

// Verify checks every section of c, applying defaults where the source
// does.
func (c *Config) Verify() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: sr_addr is required")
	}
	if err := c.Store.Verify(); err != nil {
		return err
	}
	return c.ActivityPub.Verify()
}

// Load reads and validates a Config from an ini file at path.
func Load(path string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	c := &Config{}
	if err := cfg.MapTo(c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c to path in ini format, grounded on apcore's
// saveConfigFile.
func Save(path string, c *Config) error {
	cfg := ini.Empty()
	if err := ini.ReflectFrom(cfg, c); err != nil {
		return fmt.Errorf("config: reflect: %w", err)
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("config: save %s: %w", path, err)
	}
	return nil
}

// SplitCSV splits a comma-separated ini value into trimmed, non-empty
// fields. Load and genconfig do not call it: Load relies on
// gopkg.in/ini.v1's own parsing of typed slice fields.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
