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

package httpsig

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndDecodeKeyPairRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair(MinKeySize)
	require.NoError(t, err)

	pub, err := DecodePublicKey(kp.Public)
	require.NoError(t, err)
	require.NotNil(t, pub)

	priv, err := DecodePrivateKey(kp.Private)
	require.NoError(t, err)
	require.NotNil(t, priv)

	assert.Equal(t, pub.N, priv.PublicKey.N)
}

func TestGenerateKeyPairEnforcesMinimumSize(t *testing.T) {
	kp, err := GenerateKeyPair(512)
	require.NoError(t, err)

	priv, err := DecodePrivateKey(kp.Private)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, priv.N.BitLen(), MinKeySize)
}

func TestDecodePublicKeyRejectsUnsupportedKeyType(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	_, err = DecodePublicKey(string(pemBytes))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)
}

func TestDecodePublicKeyRejectsInvalidPEM(t *testing.T) {
	_, err := DecodePublicKey("not a pem block")
	require.Error(t, err)
}

func TestSignThenVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair(MinKeySize)
	require.NoError(t, err)

	priv, err := DecodePrivateKey(kp.Private)
	require.NoError(t, err)
	pub, err := DecodePublicKey(kp.Public)
	require.NoError(t, err)

	body := []byte(`{"type":"Follow"}`)
	req, err := http.NewRequest(http.MethodPost, "https://example.test/inbox", bytes.NewReader(body))
	require.NoError(t, err)

	signer, err := NewSigner("https://example.test/actor#main-key", priv, nil)
	require.NoError(t, err)
	require.NoError(t, signer.Sign(req, body))

	assert.NotEmpty(t, req.Header.Get("Signature"))
	assert.NotEmpty(t, req.Header.Get("Digest"))
	assert.NotEmpty(t, req.Header.Get("Date"))

	verifier, err := NewVerifier(req)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/actor#main-key", verifier.KeyID())

	require.NoError(t, verifier.Verify(pub))
}

func TestVerifyFailsForWrongKey(t *testing.T) {
	kp, err := GenerateKeyPair(MinKeySize)
	require.NoError(t, err)
	priv, err := DecodePrivateKey(kp.Private)
	require.NoError(t, err)

	other, err := GenerateKeyPair(MinKeySize)
	require.NoError(t, err)
	otherPub, err := DecodePublicKey(other.Public)
	require.NoError(t, err)

	body := []byte(`{}`)
	req, err := http.NewRequest(http.MethodPost, "https://example.test/inbox", bytes.NewReader(body))
	require.NoError(t, err)

	signer, err := NewSigner("https://example.test/actor#main-key", priv, nil)
	require.NoError(t, err)
	require.NoError(t, signer.Sign(req, body))

	verifier, err := NewVerifier(req)
	require.NoError(t, err)
	err = verifier.Verify(otherPub)
	require.Error(t, err)
}

func TestNewVerifierErrorsWithoutSignatureHeader(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://example.test/actor", nil)
	require.NoError(t, err)

	_, err = NewVerifier(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSignatureHeader)
}

func TestDefaultHeadersContainsRequestTarget(t *testing.T) {
	found := false
	for _, h := range DefaultHeaders {
		if strings.EqualFold(h, "(request-target)") {
			found = true
		}
	}
	assert.True(t, found)
}
