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
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// MinKeySize is the smallest RSA key size this module will generate,
// grounded on the teacher's createRSAPrivateKey guard.
const MinKeySize = 2048

// KeyPair is a freshly generated actor keypair, PEM-encoded, grounded on
// firm.auth.keys.KeyPair/create_key_pair.
type KeyPair struct {
	Public  string
	Private string
}

// GenerateKeyPair creates an RSA keypair of the given size (defaulting to
// MinKeySize if smaller), PEM-encoding the public key as
// SubjectPublicKeyInfo and the private key as PKCS8, matching what
// actor provisioning is expected to produce (§3 Lifecycles).
func GenerateKeyPair(size int) (KeyPair, error) {
	if size < MinKeySize {
		size = MinKeySize
	}
	key, err := rsa.GenerateKey(rand.Reader, size)
	if err != nil {
		return KeyPair{}, fmt.Errorf("httpsig: generate key: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("httpsig: marshal public key: %w", err)
	}
	priv, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return KeyPair{}, fmt.Errorf("httpsig: marshal private key: %w", err)
	}
	return KeyPair{
		Public: string(pem.EncodeToMemory(&pem.Block{
			Type:  "PUBLIC KEY",
			Bytes: pub,
		})),
		Private: string(pem.EncodeToMemory(&pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: priv,
		})),
	}, nil
}
