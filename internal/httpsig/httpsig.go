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

// Package httpsig implements the legacy Cavage HTTP Signatures draft
// (§4.2.1): RSA-SHA256 signing and verification over a canonical header
// list, compatible with Mastodon peers. The signing-string construction
// and crypto itself are delegated to github.com/go-fed/httpsig, the same
// library the teacher wires for outbound federated requests; this
// package adds the key-material handling (SubjectPublicKeyInfo decoding,
// key-type rejection, RSA keypair generation) spec.md calls for.
package httpsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"

	gofedhttpsig "github.com/go-fed/httpsig"
)

// DefaultHeaders is the header list used when none is configured,
// matching firm.auth.http_signature.HttpSignatureMixin.DEFAULT_HEADERS.
var DefaultHeaders = []string{"(request-target)", "host", "date", "digest"}

// ErrUnsupportedKeyType is returned when a decoded public/private key is
// DH, X25519, or X448 -- algorithms the Cavage RSA-SHA256 scheme can't
// use (§4.2.1).
var ErrUnsupportedKeyType = errors.New("httpsig: unsupported key type")

// ErrNoSignatureHeader is returned by NewVerifier when the request carries no
// Signature header at all (the authenticator treats this as "no
// identity", not an error).
var ErrNoSignatureHeader = errors.New("httpsig: no Signature header")

// DecodePublicKey parses a PEM-encoded SubjectPublicKeyInfo and returns
// its RSA public key, rejecting DH/X25519/X448 keys per §4.2.1.
func DecodePublicKey(pemBytes string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemBytes))
	if block == nil {
		return nil, fmt.Errorf("httpsig: invalid PEM public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("httpsig: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, ErrUnsupportedKeyType
	}
	return rsaPub, nil
}

// DecodePrivateKey parses a PEM-encoded PKCS8 RSA private key.
func DecodePrivateKey(pemBytes string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemBytes))
	if block == nil {
		return nil, fmt.Errorf("httpsig: invalid PEM private key")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("httpsig: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrUnsupportedKeyType
	}
	return rsaKey, nil
}

// Verifier verifies an inbound request's Signature header against a
// resolved public key, per §4.2.1. KeyID exposes the request's claimed
// keyId so the caller can resolve it against the store (including the
// "#main-key" fallback, which is store-shaped and so lives in the auth
// package, not here).
type Verifier struct {
	v      gofedhttpsig.Verifier
	keyID  string
}

// NewVerifier inspects r for a Signature header and prepares to verify
// it. Returns ErrNoSignatureHeader if none is present.
func NewVerifier(r *http.Request) (*Verifier, error) {
	if r.Header.Get("Signature") == "" {
		return nil, ErrNoSignatureHeader
	}
	v, err := gofedhttpsig.NewVerifier(r)
	if err != nil {
		return nil, fmt.Errorf("httpsig: %w", err)
	}
	return &Verifier{v: v, keyID: v.KeyId()}, nil
}

// KeyID returns the keyId claimed by the Signature header.
func (v *Verifier) KeyID() string {
	return v.keyID
}

// Verify checks the signature against pub using RSA-SHA256. The
// algorithm field in the Signature header is tolerated but never
// consulted (§4.2.1) -- RSA-SHA256 is always what's checked.
func (v *Verifier) Verify(pub *rsa.PublicKey) error {
	return v.v.Verify(pub, gofedhttpsig.RSA_SHA256)
}

// Signer signs outbound requests with the Cavage draft over the given
// header list, synthesizing Date/Digest/Host as needed (§4.2.1 Signing).
type Signer struct {
	headers []string
	keyID   string
	key     crypto.PrivateKey
}

// NewSigner builds a Signer for keyID/privateKey, signing the given
// header list (DefaultHeaders if nil).
func NewSigner(keyID string, privateKey *rsa.PrivateKey, headers []string) (*Signer, error) {
	if headers == nil {
		headers = DefaultHeaders
	}
	return &Signer{headers: headers, keyID: keyID, key: privateKey}, nil
}

// Sign synthesizes any missing Date/Digest/Host headers on r, then signs
// r (and body, if any) in place, adding the Signature header.
func (s *Signer) Sign(r *http.Request, body []byte) error {
	synthesizeHeaders(r, body, s.headers)
	signer, _, err := gofedhttpsig.NewSigner(
		[]gofedhttpsig.Algorithm{gofedhttpsig.RSA_SHA256},
		s.headers,
		gofedhttpsig.Signature,
	)
	if err != nil {
		return fmt.Errorf("httpsig: %w", err)
	}
	if err := signer.SignRequest(s.key, s.keyID, r, body); err != nil {
		return fmt.Errorf("httpsig: sign: %w", err)
	}
	return nil
}
