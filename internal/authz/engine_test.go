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

package authz

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store/memstore"
)

const alice = "https://example.test/actor/alice"
const bob = "https://example.test/actor/bob"

func TestIsGetAuthorizedPublicResource(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}
	res := resource.Doc{"id": "https://example.test/note/1", "to": []interface{}{resource.PublicURIs[0]}}

	d, err := e.IsGetAuthorized(ctx, "https://example.test", nil, res)
	require.NoError(t, err)
	assert.True(t, d.Authorized)
}

func TestIsGetAuthorizedNonPublicRequiresRelation(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}
	res := resource.Doc{"id": "https://example.test/note/1", "to": []interface{}{bob}}

	d, err := e.IsGetAuthorized(ctx, "https://example.test", nil, res)
	require.NoError(t, err)
	assert.False(t, d.Authorized)
	assert.Equal(t, http.StatusUnauthorized, d.StatusCode)

	d, err = e.IsGetAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": alice}), res)
	require.NoError(t, err)
	assert.False(t, d.Authorized)
	assert.Equal(t, http.StatusForbidden, d.StatusCode)

	d, err = e.IsGetAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": bob}), res)
	require.NoError(t, err)
	assert.True(t, d.Authorized)
}

func TestIsGetAuthorizedActorObjectsArePublic(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}
	res := resource.Doc{"id": alice, "type": "Person"}

	d, err := e.IsGetAuthorized(ctx, "https://example.test", nil, res)
	require.NoError(t, err)
	assert.True(t, d.Authorized)
}

func TestIsGetAuthorizedInboxRequiresOwner(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}
	res := resource.Doc{"id": alice + "/inbox"}

	d, err := e.IsGetAuthorized(ctx, "https://example.test", nil, res)
	require.NoError(t, err)
	assert.False(t, d.Authorized)
	assert.Equal(t, http.StatusUnauthorized, d.StatusCode)

	d, err = e.IsGetAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": bob}), res)
	require.NoError(t, err)
	assert.False(t, d.Authorized)
	assert.Equal(t, http.StatusForbidden, d.StatusCode)

	d, err = e.IsGetAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": alice}), res)
	require.NoError(t, err)
	assert.True(t, d.Authorized)
}

func TestIsGetAuthorizedOutboxIsPubliclyReadable(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}
	res := resource.Doc{"id": alice + "/outbox"}

	d, err := e.IsGetAuthorized(ctx, "https://example.test", nil, res)
	require.NoError(t, err)
	assert.True(t, d.Authorized)
}

func TestIsGetAuthorizedBlockedPrincipalDenied(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Put(ctx, resource.Doc{
		"id":                      "urn:uuid:blocks-1",
		"type":                    resource.TypeBlocks,
		"attributedTo":            "https://example.test",
		resource.PropBlockedActor: bob,
	}))
	e := &Engine{Store: s}
	res := resource.Doc{"id": "https://example.test/note/1", "to": []interface{}{resource.PublicURIs[0]}}

	d, err := e.IsGetAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": bob}), res)
	require.NoError(t, err)
	assert.False(t, d.Authorized)
	assert.Equal(t, http.StatusForbidden, d.StatusCode)
}

func TestIsPostAuthorizedInboxRequiresAuthentication(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}

	d, err := e.IsPostAuthorized(ctx, "https://example.test", nil, "inbox", alice+"/inbox")
	require.NoError(t, err)
	assert.False(t, d.Authorized)

	d, err = e.IsPostAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": bob}), "inbox", alice+"/inbox")
	require.NoError(t, err)
	assert.True(t, d.Authorized)
}

func TestIsPostAuthorizedOutboxRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}
	actor := resource.Doc{"id": alice, "outbox": alice + "/outbox"}

	d, err := e.IsPostAuthorized(ctx, "https://example.test", identity.New(actor), "outbox", alice+"/outbox")
	require.NoError(t, err)
	assert.True(t, d.Authorized)

	d, err = e.IsPostAuthorized(ctx, "https://example.test", identity.New(actor), "outbox", bob+"/outbox")
	require.NoError(t, err)
	assert.False(t, d.Authorized)
}

func TestIsActivityAuthorizedAlwaysAllowedTypes(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}
	for _, typ := range []string{"Announce", "Like", "Follow", "Accept", "Reject", "Create", "Block"} {
		activity := resource.Doc{"type": typ, "actor": alice}
		d, err := e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": alice}), activity)
		require.NoError(t, err)
		assert.True(t, d.Authorized, "expected %s to be allowed", typ)
	}
}

func TestIsActivityAuthorizedUndoPermissiveWhenUnresolvable(t *testing.T) {
	ctx := context.Background()
	e := &Engine{Store: memstore.New()}

	// No object at all.
	d, err := e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": alice}), resource.Doc{"type": "Undo"})
	require.NoError(t, err)
	assert.True(t, d.Authorized)

	// Object not found in the store.
	d, err = e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": alice}), resource.Doc{
		"type": "Undo", "object": "https://example.test/activity/ghost",
	})
	require.NoError(t, err)
	assert.True(t, d.Authorized)
}

func TestIsActivityAuthorizedUndoOfFollowRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Put(ctx, resource.Doc{"id": "https://example.test/activity/follow-1", "type": "Follow", "actor": alice}))
	e := &Engine{Store: s}

	d, err := e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": alice}), resource.Doc{
		"type": "Undo", "object": "https://example.test/activity/follow-1",
	})
	require.NoError(t, err)
	assert.True(t, d.Authorized)

	d, err = e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": bob}), resource.Doc{
		"type": "Undo", "object": "https://example.test/activity/follow-1",
	})
	require.NoError(t, err)
	assert.False(t, d.Authorized)
	assert.Equal(t, http.StatusForbidden, d.StatusCode)
}

func TestIsActivityAuthorizedUpdateDeleteRequiresAttribution(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Put(ctx, resource.Doc{"id": "https://example.test/note/1", "attributedTo": alice}))
	e := &Engine{Store: s}

	d, err := e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": alice}), resource.Doc{
		"type": "Update", "object": "https://example.test/note/1",
	})
	require.NoError(t, err)
	assert.True(t, d.Authorized)

	d, err = e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": bob}), resource.Doc{
		"type": "Delete", "object": "https://example.test/note/1",
	})
	require.NoError(t, err)
	assert.False(t, d.Authorized)
}

func TestIsActivityAuthorizedAddRemoveRequiresTargetOwnership(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Put(ctx, resource.Doc{"id": "https://example.test/collection/1", "attributedTo": alice}))
	e := &Engine{Store: s}

	d, err := e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": alice}), resource.Doc{
		"type": "Add", "object": "https://example.test/note/1", "target": "https://example.test/collection/1",
	})
	require.NoError(t, err)
	assert.True(t, d.Authorized)

	d, err = e.IsActivityAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": bob}), resource.Doc{
		"type": "Remove", "object": "https://example.test/note/1", "target": "https://example.test/collection/1",
	})
	require.NoError(t, err)
	assert.False(t, d.Authorized)
}

func TestChainFallsThroughToNextAuthorizer(t *testing.T) {
	ctx := context.Background()
	blocking := memstore.New()
	require.NoError(t, blocking.Put(ctx, resource.Doc{
		"id":                      "urn:uuid:blocks-1",
		"type":                    resource.TypeBlocks,
		"attributedTo":            "https://example.test",
		resource.PropBlockedActor: bob,
	}))
	first := &Engine{Store: blocking}
	second := &Engine{Store: memstore.New()}
	chain := NewChain(first, second)

	res := resource.Doc{"id": "https://example.test/note/1", "to": []interface{}{resource.PublicURIs[0]}}
	d, err := chain.IsGetAuthorized(ctx, "https://example.test", identity.New(resource.Doc{"id": bob}), res)
	require.NoError(t, err)
	assert.True(t, d.Authorized)
}

func TestChainReturnsLastDenialWhenNoneAuthorize(t *testing.T) {
	ctx := context.Background()
	chain := NewChain(&Engine{Store: memstore.New()})

	res := resource.Doc{"id": "https://example.test/note/1", "to": []interface{}{bob}}
	d, err := chain.IsGetAuthorized(ctx, "https://example.test", nil, res)
	require.NoError(t, err)
	assert.False(t, d.Authorized)
	assert.Equal(t, http.StatusUnauthorized, d.StatusCode)
}
