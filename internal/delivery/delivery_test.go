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

package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevebate/firm/internal/httpsig"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store/memstore"
	"github.com/stevebate/firm/internal/transport"
)

type recordingInbox struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (r *recordingInbox) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.requests = append(r.requests, req.Clone(context.Background()))
		r.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}
}

func (r *recordingInbox) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func seedActorWithCredentials(t *testing.T, s *memstore.Store, actorURI, followersURI string) {
	t.Helper()
	ctx := context.Background()
	kp, err := httpsig.GenerateKeyPair(httpsig.MinKeySize)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, resource.Doc{
		"id":        actorURI,
		"type":      "Person",
		"followers": followersURI,
	}))
	require.NoError(t, s.Put(ctx, resource.Doc{
		"id":                    "urn:uuid:cred-" + actorURI,
		"type":                  resource.TypeCredentials,
		"attributedTo":          actorURI,
		resource.PropPrivateKey: kp.Private,
	}))
}

func TestDeliverPostsToDirectRecipientInbox(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	inbox := &recordingInbox{}
	srv := httptest.NewServer(inbox.handler())
	defer srv.Close()

	alice := "https://example.test/actor/alice"
	seedActorWithCredentials(t, s, alice, alice+"/followers")

	bob := "https://remote.test/actor/bob"
	require.NoError(t, s.Put(ctx, resource.Doc{
		"id": bob, "type": "Person", "inbox": srv.URL + "/inbox",
	}))

	d := &Deliverer{Store: s, Transport: transport.New()}
	activity := resource.Doc{
		"id": alice + "/activity/1", "type": "Create", "actor": alice, "to": bob,
	}

	require.NoError(t, d.Deliver(ctx, activity))
	assert.Equal(t, 1, inbox.count())
	assert.NotEmpty(t, inbox.requests[0].Header.Get("Signature"))
	assert.Equal(t, "application/activity+json", inbox.requests[0].Header.Get("Content-Type"))
}

func TestDeliverExpandsPublicAddressingToFollowers(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	inbox := &recordingInbox{}
	srv := httptest.NewServer(inbox.handler())
	defer srv.Close()

	alice := "https://example.test/actor/alice"
	followersURI := alice + "/followers"
	seedActorWithCredentials(t, s, alice, followersURI)

	follower := "https://remote.test/actor/carol"
	require.NoError(t, s.Put(ctx, resource.Doc{
		"id": follower, "type": "Person", "inbox": srv.URL + "/inbox",
	}))
	require.NoError(t, s.Put(ctx, resource.Doc{
		"id": followersURI, "type": "Collection", "items": []interface{}{follower},
	}))

	d := &Deliverer{Store: s, Transport: transport.New()}
	activity := resource.Doc{
		"id": alice + "/activity/1", "type": "Create", "actor": alice,
		"to": resource.PublicURIs[0],
	}

	require.NoError(t, d.Deliver(ctx, activity))
	assert.Equal(t, 1, inbox.count())
}

func TestDeliverSkipsSendingActorsOwnInbox(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	alice := "https://example.test/actor/alice"
	seedActorWithCredentials(t, s, alice, alice+"/followers")
	actor, err := s.Get(ctx, alice)
	require.NoError(t, err)
	actor["inbox"] = alice + "/inbox"
	require.NoError(t, s.Put(ctx, actor))

	d := &Deliverer{Store: s, Transport: transport.New()}
	activity := resource.Doc{
		"id": alice + "/activity/1", "type": "Create", "actor": alice, "to": alice,
	}

	// No recipient inboxes resolve (self is excluded), so delivery succeeds
	// with nothing sent.
	require.NoError(t, d.Deliver(ctx, activity))
}

func TestDeliverErrorsWithoutStoredCredentials(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	alice := "https://example.test/actor/alice"
	require.NoError(t, s.Put(ctx, resource.Doc{"id": alice, "type": "Person"}))

	d := &Deliverer{Store: s, Transport: transport.New()}
	activity := resource.Doc{"id": alice + "/activity/1", "type": "Create", "actor": alice, "to": "https://remote.test/actor/bob"}

	err := d.Deliver(ctx, activity)
	require.Error(t, err)
}
