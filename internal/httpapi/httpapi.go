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

// Package httpapi is the host-framework adapter (§6 External Interfaces):
// it wires gorilla/mux routes (generalized from the teacher's router.go)
// to the neutral activitypub.Request/Response shapes the dispatch engine
// consumes, and maps the typed apperr boundary back to HTTP status codes.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stevebate/firm/internal/activitypub"
	"github.com/stevebate/firm/internal/auth"
	"github.com/stevebate/firm/internal/discovery"
)

// Server wires the dispatch engine, authenticator chain, and discovery
// responders behind a single http.Handler.
type Server struct {
	Dispatch  *activitypub.Service
	Auth      auth.Authenticator
	WebFinger *discovery.WebFingerService
	NodeInfo  *discovery.NodeInfoService
	router    *mux.Router
}

// NewServer builds a Server with its routes wired.
func NewServer(dispatch *activitypub.Service, authenticator auth.Authenticator, webfinger *discovery.WebFingerService, nodeinfo *discovery.NodeInfoService) *Server {
	s := &Server{
		Dispatch:  dispatch,
		Auth:      authenticator,
		WebFinger: webfinger,
		NodeInfo:  nodeinfo,
		router:    mux.NewRouter(),
	}
	s.router.HandleFunc("/.well-known/webfinger", s.handleWebFinger).Methods(http.MethodGet)
	s.router.HandleFunc("/.well-known/nodeinfo", s.handleNodeInfoWellKnown).Methods(http.MethodGet)
	s.router.HandleFunc("/nodeinfo/2.0", s.handleNodeInfoDocument).Methods(http.MethodGet)
	s.router.PathPrefix("/").HandlerFunc(s.handleActivityPub).Methods(http.MethodGet, http.MethodPost)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestURI rebuilds the full dereferenceable URI of r, honoring
// X-Forwarded-Proto for servers sitting behind a reverse proxy.
func requestURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.Path
}
