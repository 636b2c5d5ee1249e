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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevebate/firm/internal/activitypub"
	"github.com/stevebate/firm/internal/auth"
	"github.com/stevebate/firm/internal/authz"
	"github.com/stevebate/firm/internal/discovery"
	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store/memstore"
)

var anonymous = auth.AuthenticatorFunc(func(ctx context.Context, r *http.Request) (identity.Identity, error) {
	return nil, nil
})

// newHTTPSRequest builds a request against the given full HTTPS target.
// httptest.NewRequest already fills in req.TLS for an https target;
// X-Forwarded-Proto, the header a reverse-proxied deployment would set,
// is added as well so requestURI sees https by either route.
func newHTTPSRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("X-Forwarded-Proto", "https")
	return req
}

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	dispatch := &activitypub.Service{
		Store:     s,
		Authz:     &authz.Engine{Store: s},
		Sanitizer: activitypub.NewSanitizer(),
		Tenants:   []string{"https://example.test"},
	}
	webfinger := &discovery.WebFingerService{Store: s}
	nodeinfo := &discovery.NodeInfoService{Store: s, Software: "firm", Version: "0.1.0"}
	return NewServer(dispatch, anonymous, webfinger, nodeinfo), s
}

func TestHandleActivityPubGetReturnsPublicResource(t *testing.T) {
	server, s := newTestServer(t)
	actorURI := "https://example.test/actor/alice"
	require.NoError(t, s.Put(context.Background(), resource.Doc{"id": actorURI, "type": "Person"}))

	req := newHTTPSRequest(http.MethodGet, "https://example.test/actor/alice", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, actorURI, got["id"])
}

func TestHandleActivityPubGetMissingResourceIsNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	req := newHTTPSRequest(http.MethodGet, "https://example.test/actor/ghost", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleActivityPubPostWithoutIdentityIsForbidden(t *testing.T) {
	server, s := newTestServer(t)
	ctx := context.Background()
	actorURI := "https://example.test/actor/alice"
	require.NoError(t, s.Put(ctx, resource.Doc{
		"id": actorURI, "type": "Person", "inbox": actorURI + "/inbox",
	}))
	require.NoError(t, s.Put(ctx, resource.Doc{
		"id": actorURI + "/inbox", "type": "OrderedCollection", "attributedTo": actorURI,
	}))

	req := newHTTPSRequest(http.MethodPost, "https://example.test/actor/alice/inbox", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandleWebFingerRequiresExactlyOneResourceParam(t *testing.T) {
	server, _ := newTestServer(t)

	req := newHTTPSRequest(http.MethodGet, "https://example.test/.well-known/webfinger", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleWebFingerReturnsJRD(t *testing.T) {
	server, s := newTestServer(t)
	ctx := context.Background()
	actorURI := "https://example.test/actor/alice"
	require.NoError(t, s.Put(ctx, resource.Doc{"id": actorURI, "type": "Person"}))

	req := newHTTPSRequest(http.MethodGet, "https://example.test/.well-known/webfinger?resource="+actorURI, nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/jrd+json", rr.Header().Get("Content-Type"))
}

func TestHandleNodeInfoWellKnownPointsAtDocument(t *testing.T) {
	server, _ := newTestServer(t)

	req := newHTTPSRequest(http.MethodGet, "https://example.test/.well-known/nodeinfo", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var jrd struct {
		Links []struct{ Href string } `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &jrd))
	require.Len(t, jrd.Links, 1)
	assert.Equal(t, "https://example.test/nodeinfo/2.0", jrd.Links[0].Href)
}

func TestHandleNodeInfoDocumentServesSoftwareName(t *testing.T) {
	server, _ := newTestServer(t)

	req := newHTTPSRequest(http.MethodGet, "https://example.test/nodeinfo/2.0", nil)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	software, _ := doc["software"].(map[string]interface{})
	assert.Equal(t, "firm", software["name"])
}

func TestWriteErrorMapsAuthenticationErrorToBadRequest(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, auth.ErrAuthentication)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWriteErrorMapsUnknownErrorToInternalServerError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, assertUnexpectedError{})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

type assertUnexpectedError struct{}

func (assertUnexpectedError) Error() string { return "boom" }
