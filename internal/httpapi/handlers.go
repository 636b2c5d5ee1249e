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

package httpapi

import (
	"io"
	"net/http"

	"github.com/stevebate/firm/internal/activitypub"
	"github.com/stevebate/firm/internal/apperr"
	"github.com/stevebate/firm/internal/store/prefixstore"
)

// handleActivityPub serves every actor box / resource GET and POST,
// translating the host *http.Request into the neutral
// activitypub.Request the dispatch engine consumes.
func (s *Server) handleActivityPub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := s.Auth.Authenticate(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body []byte
	if r.Method == http.MethodPost {
		body, err = io.ReadAll(r.Body)
		if err != nil {
			writeError(w, apperr.BadRequest("cannot read request body: %v", err))
			return
		}
	}

	resp, err := s.Dispatch.ProcessRequest(ctx, activitypub.Request{
		Method:   r.Method,
		URI:      requestURI(r),
		Identity: id,
		Body:     body,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if resp.Location != "" {
		w.Header().Set("Location", resp.Location)
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != nil {
		w.Write(resp.Body)
	}
}

// handleWebFinger serves /.well-known/webfinger?resource=...
func (s *Server) handleWebFinger(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()["resource"]
	if len(values) != 1 {
		writeError(w, apperr.BadRequest("resource parameter must appear exactly once"))
		return
	}
	tenant := prefixstore.URLPrefix(requestURI(r))
	jrd, err := s.WebFinger.Lookup(r.Context(), tenant, values[0])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "application/jrd+json", jrd)
}

// handleNodeInfoWellKnown serves /.well-known/nodeinfo.
func (s *Server) handleNodeInfoWellKnown(w http.ResponseWriter, r *http.Request) {
	tenant := prefixstore.URLPrefix(requestURI(r))
	jrd := s.NodeInfo.WellKnown(tenant)
	writeJSON(w, http.StatusOK, "application/jrd+json", jrd)
}

// handleNodeInfoDocument serves /nodeinfo/2.0.
func (s *Server) handleNodeInfoDocument(w http.ResponseWriter, r *http.Request) {
	tenant := prefixstore.URLPrefix(requestURI(r))
	doc, err := s.NodeInfo.Document(r.Context(), tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "application/json", doc)
}
