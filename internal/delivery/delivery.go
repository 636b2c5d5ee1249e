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

// Package delivery fans a published activity out to the inboxes of its
// remote recipients, signing each request with the sending actor's key,
// grounded on the teacher's delivery attempt bookkeeping and the
// Cavage-signing delivery loop shown in the wider retrieval pack.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stevebate/firm/internal/fnlog"
	"github.com/stevebate/firm/internal/httpsig"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
	"github.com/stevebate/firm/internal/store/prefixstore"
	"github.com/stevebate/firm/internal/transport"
)

// DefaultSignedHeaders is the header list signed on outgoing deliveries,
// matching the teacher's ap_http_sig_post_headers default.
var DefaultSignedHeaders = []string{"(request-target)", "date", "digest", "host"}

// Deliverer fans activities out to their addressed recipients' inboxes,
// implementing activitypub.Delivery.
type Deliverer struct {
	Store     store.Store
	Transport *transport.Client
	// SignedHeaders overrides DefaultSignedHeaders when non-nil.
	SignedHeaders []string
}

func (d *Deliverer) signedHeaders() []string {
	if d.SignedHeaders != nil {
		return d.SignedHeaders
	}
	return DefaultSignedHeaders
}

// Deliver resolves the actor's signing key once, then POSTs activity,
// with each request signed on its own, to every recipient inbox addressed
// by to/cc/bto/bcc/audience, per §4.1's "Outbox processing" delivery step.
// Public addressing fans out to the actor's followers collection. The body
// is activity exactly as given: Deliver does not remove bto/bcc from it.
func (d *Deliverer) Deliver(ctx context.Context, activity resource.Doc) error {
	actorURI := resource.ResourceID(activity["actor"])
	if actorURI == "" {
		return fmt.Errorf("delivery: activity %s has no actor", activity.ID())
	}
	actor, err := d.Store.Get(ctx, actorURI)
	if err != nil {
		return fmt.Errorf("delivery: resolve actor %s: %w", actorURI, err)
	}
	if actor == nil {
		return fmt.Errorf("delivery: unknown actor %s", actorURI)
	}

	signer, err := d.signerFor(ctx, actor)
	if err != nil {
		return fmt.Errorf("delivery: %w", err)
	}

	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("delivery: marshal activity: %w", err)
	}

	inboxes, err := d.recipientInboxes(ctx, actor, activity)
	if err != nil {
		return fmt.Errorf("delivery: resolve recipients: %w", err)
	}

	var firstErr error
	for _, inbox := range inboxes {
		if err := d.post(ctx, signer, inbox, body); err != nil {
			fnlog.Error.Errorf("delivery: post to %s: %v", inbox, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
	}
	return firstErr
}

func (d *Deliverer) signerFor(ctx context.Context, actor resource.Doc) (*httpsig.Signer, error) {
	creds, err := d.Store.QueryOne(ctx, store.Criteria{
		"@prefix":      "urn:",
		"type":         resource.TypeCredentials,
		"attributedTo": actor.ID(),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve credentials for %s: %w", actor.ID(), err)
	}
	if creds == nil {
		return nil, fmt.Errorf("no credentials stored for %s", actor.ID())
	}
	pem, _ := creds[resource.PropPrivateKey].(string)
	if pem == "" {
		return nil, fmt.Errorf("credentials for %s carry no private key", actor.ID())
	}
	key, err := httpsig.DecodePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("decode private key for %s: %w", actor.ID(), err)
	}
	keyID := actor.ID() + "#main-key"
	return httpsig.NewSigner(keyID, key, d.signedHeaders())
}

// recipientInboxes resolves the addressed recipients of activity to a
// deduplicated list of inbox URIs, excluding the sending actor's own
// inbox. Recipients in the actor's own tenant are not filtered out.
func (d *Deliverer) recipientInboxes(ctx context.Context, actor resource.Doc, activity resource.Doc) ([]string, error) {
	seen := map[string]bool{}
	var inboxes []string

	add := func(recipientURI string) error {
		if recipientURI == "" || recipientURI == actor.ID() {
			return nil
		}
		recipient, err := d.Store.Get(ctx, recipientURI)
		if err != nil {
			return err
		}
		if recipient == nil {
			return nil
		}
		if recipient.IsType("Collection") || recipient.IsType("OrderedCollection") {
			return d.addCollectionMembers(ctx, recipient, seen, &inboxes)
		}
		inbox, _ := recipient["inbox"].(string)
		if inbox == "" || seen[inbox] {
			return nil
		}
		seen[inbox] = true
		inboxes = append(inboxes, inbox)
		return nil
	}

	for _, field := range resource.AddressingFields {
		v, ok := activity[field]
		if !ok {
			continue
		}
		for _, uri := range asURIs(v) {
			if isPublicURI(uri) {
				if followers, _ := actor["followers"].(string); followers != "" {
					if err := add(followers); err != nil {
						return nil, err
					}
				}
				continue
			}
			if err := add(uri); err != nil {
				return nil, err
			}
		}
	}
	return inboxes, nil
}

func (d *Deliverer) addCollectionMembers(ctx context.Context, collection resource.Doc, seen map[string]bool, inboxes *[]string) error {
	items := collection["orderedItems"]
	if items == nil {
		items = collection["items"]
	}
	list, _ := items.([]interface{})
	for _, item := range list {
		memberURI := resource.ResourceID(item)
		if memberURI == "" || prefixstore.IsPrivate(memberURI) {
			continue
		}
		member, err := d.Store.Get(ctx, memberURI)
		if err != nil {
			return err
		}
		if member == nil {
			continue
		}
		inbox, _ := member["inbox"].(string)
		if inbox == "" || seen[inbox] {
			continue
		}
		seen[inbox] = true
		*inboxes = append(*inboxes, inbox)
	}
	return nil
}

func (d *Deliverer) post(ctx context.Context, signer *httpsig.Signer, inbox string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inbox, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/activity+json")
	if err := signer.Sign(req, body); err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	status, _, err := d.Transport.Do(ctx, req)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("remote inbox %s responded %d", inbox, status)
	}
	return nil
}

func asURIs(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if id := resource.ResourceID(item); id != "" {
				out = append(out, id)
			}
		}
		return out
	default:
		return nil
	}
}

func isPublicURI(uri string) bool {
	for _, p := range resource.PublicURIs {
		if uri == p {
			return true
		}
	}
	return false
}
