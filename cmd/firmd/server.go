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
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/stevebate/firm/internal/activitypub"
	"github.com/stevebate/firm/internal/auth"
	"github.com/stevebate/firm/internal/authz"
	"github.com/stevebate/firm/internal/config"
	"github.com/stevebate/firm/internal/delivery"
	"github.com/stevebate/firm/internal/discovery"
	"github.com/stevebate/firm/internal/httpapi"
	"github.com/stevebate/firm/internal/store"
	"github.com/stevebate/firm/internal/store/filestore"
	"github.com/stevebate/firm/internal/store/memstore"
	"github.com/stevebate/firm/internal/store/prefixstore"
	"github.com/stevebate/firm/internal/store/sqlstore"
	"github.com/stevebate/firm/internal/transport"
)

// Software and Version name this build in NodeInfo responses.
const (
	Software = "firm"
	Version  = "0.1.0"
)

// newServer wires every component named in cfg into a *http.Server,
// mirroring the construction apcore's Server.Start performs across its
// database, policies, and router, but collapsed into one assembly
// function since firm has no ORM layer to generate it from.
func newServer(cfg *config.Config) (*http.Server, error) {
	tenants, remoteStore, privateStore, err := newPartitions(cfg)
	if err != nil {
		return nil, err
	}

	t := transport.New(
		transport.WithTimeout(time.Duration(cfg.ActivityPub.OutboundTimeoutSeconds)*time.Second),
		transport.WithRateLimit(rate.Limit(cfg.ActivityPub.OutboundRateLimitQPS), cfg.ActivityPub.OutboundRateLimitBurst),
	)

	routed := prefixstore.New(tenants, remoteStore, privateStore)
	rootStore := prefixstore.NewWithFetch(routed, t)

	deliverer := &delivery.Deliverer{
		Store:         rootStore,
		Transport:     t,
		SignedHeaders: cfg.ActivityPub.SignedHeaders,
	}

	authenticator := auth.NewChain(
		&auth.HTTPSignatureAuthenticator{Store: rootStore},
		&auth.BasicAuthenticator{Store: rootStore},
		&auth.BearerAuthenticator{Store: rootStore},
	)

	authorizer := &authz.Engine{Store: rootStore}

	dispatch := &activitypub.Service{
		Store:     rootStore,
		Authz:     authorizer,
		Delivery:  deliverer,
		Sanitizer: activitypub.NewSanitizer(),
		Tenants:   cfg.Store.TenantPrefixes,
	}

	webfinger := &discovery.WebFingerService{Store: rootStore}
	nodeinfo := &discovery.NodeInfoService{Store: rootStore, Software: Software, Version: Version}

	handler := httpapi.NewServer(dispatch, authenticator, webfinger, nodeinfo)

	return &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}, nil
}

// newPartitions builds the per-tenant, remote, and private store
// partitions named by cfg.Store.Backend, grounded on the three
// interchangeable backends every firm deployment can choose between.
func newPartitions(cfg *config.Config) (tenants map[string]store.Store, remote, private store.Store, err error) {
	switch cfg.Store.Backend {
	case "memory":
		tenants = make(map[string]store.Store, len(cfg.Store.TenantPrefixes))
		for _, prefix := range cfg.Store.TenantPrefixes {
			tenants[prefix] = memstore.New()
		}
		remote = memstore.New()
		private = memstore.New()
	case "file":
		tenants = make(map[string]store.Store, len(cfg.Store.TenantPrefixes))
		for _, prefix := range cfg.Store.TenantPrefixes {
			dir := cfg.Store.FileDir + "/" + filestore.URIHash(prefix)
			st, err := filestore.New(dir)
			if err != nil {
				return nil, nil, nil, err
			}
			tenants[prefix] = st
		}
		remoteStore, err := filestore.New(cfg.Store.FileDir + "/remote")
		if err != nil {
			return nil, nil, nil, err
		}
		privateStore, err := filestore.New(cfg.Store.FileDir + "/private")
		if err != nil {
			return nil, nil, nil, err
		}
		remote, private = remoteStore, privateStore
	case "sql":
		db, err := sqlstore.OpenDB(cfg.Store.SQLDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		tenants = make(map[string]store.Store, len(cfg.Store.TenantPrefixes))
		for _, prefix := range cfg.Store.TenantPrefixes {
			tenants[prefix] = sqlstore.New(db, prefix)
		}
		remote = sqlstore.New(db, "remote")
		private = sqlstore.New(db, "private")
	default:
		return nil, nil, nil, fmt.Errorf("server: unknown store backend %q", cfg.Store.Backend)
	}
	return tenants, remote, private, nil
}
