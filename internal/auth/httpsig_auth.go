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

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stevebate/firm/internal/httpsig"
	"github.com/stevebate/firm/internal/identity"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

// HTTPSignatureAuthenticator verifies the legacy Cavage HTTP Signature on
// a request and resolves the signing key to its owning actor, grounded
// on firm.auth.http_signature.HttpSigAuthenticator.authenticate.
type HTTPSignatureAuthenticator struct {
	Store store.Store
}

func (a *HTTPSignatureAuthenticator) Authenticate(ctx context.Context, r *http.Request) (identity.Identity, error) {
	verifier, err := httpsig.NewVerifier(r)
	if errors.Is(err, httpsig.ErrNoSignatureHeader) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pubKeyDoc, err := a.resolveKeyDoc(ctx, verifier.KeyID())
	if err != nil {
		return nil, err
	}
	if pubKeyDoc == nil {
		return nil, nil
	}

	pemStr, ok := pubKeyDoc["publicKeyPem"].(string)
	if !ok {
		return nil, fmt.Errorf("auth: key %s has no publicKeyPem", verifier.KeyID())
	}
	pub, err := httpsig.DecodePublicKey(pemStr)
	if errors.Is(err, httpsig.ErrUnsupportedKeyType) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := verifier.Verify(pub); err != nil {
		// An invalid signature is "no identity", not a hard failure: the
		// request simply fails this authenticator and falls through the
		// chain.
		return nil, nil
	}

	ownerURI := resource.GetString(pubKeyDoc, "owner")
	if ownerURI == "" {
		return nil, fmt.Errorf("auth: key %s has no owner", verifier.KeyID())
	}
	actor, err := a.Store.Get(ctx, ownerURI)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, fmt.Errorf("auth: unknown key owner %s", ownerURI)
	}
	return identity.New(actor), nil
}

// resolveKeyDoc resolves a keyId to the publicKey sub-document, trying
// the keyId directly first (it may itself name a document carrying
// publicKeyPem/owner), then falling back to stripping any fragment
// (e.g. "#main-key") and reading the owner actor's embedded publicKey,
// per the source's authenticate().
func (a *HTTPSignatureAuthenticator) resolveKeyDoc(ctx context.Context, keyID string) (resource.Doc, error) {
	doc, err := a.Store.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		if embedded, ok := resource.AsDoc(doc["publicKey"]); ok {
			return embedded, nil
		}
		if _, ok := doc["publicKeyPem"]; ok {
			return doc, nil
		}
	}

	actor, err := a.Store.Get(ctx, stripFragment(keyID))
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, nil
	}
	embedded, ok := resource.AsDoc(actor["publicKey"])
	if !ok {
		return nil, nil
	}
	return embedded, nil
}
