// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package wallet exposes the server's scoped key-decrypt-and-sign
// capability, per §9's design note: "Key material flows through the
// core only as opaque encrypted blobs; decryption sits behind an
// explicit scoped capability acquired once per build and dropped
// before response." Key material itself is CBOR-hex shaped the way
// github.com/blinklabs-io/bursa emits it, the same library the
// teacher's tx-building code used to turn a mnemonic into payment
// verification/signing keys.
package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/bursa"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// cborBytesPrefixLen is the length of the CBOR byte-string header that
// bursa's CborHex fields carry in front of the raw key payload (a
// `58 XX` major-type-2 prefix for keys up to 255 bytes).
const cborBytesPrefixLen = 2

// extendedSigningKeyLen is the length of bursa's extended Ed25519
// signing key: a 64-byte expanded private key followed by a 32-byte
// public key and 32-byte chain code.
const extendedSigningKeyLen = 128

// SigningKeyDecryptor decrypts an at-rest key blob (named as an
// external collaborator in §1: "Key-material encryption at rest" is
// out of core scope). The core only ever sees the decrypted CBOR hex
// through this capability.
type SigningKeyDecryptor interface {
	Decrypt(encryptedCborHex string) (string, error)
}

// Capability is the scoped key-material handle described in §9:
// acquired once per build, dropped before the response is returned.
// It never outlives the request that created it.
type Capability struct {
	decryptor SigningKeyDecryptor
}

// NewCapability acquires a key-material capability bound to decryptor.
// Callers must not retain the returned Capability past a single build.
func NewCapability(decryptor SigningKeyDecryptor) *Capability {
	return &Capability{decryptor: decryptor}
}

// KeyPair is a decoded Ed25519 payment key pair, stripped of its CBOR
// type-tag prefix and (for extended signing keys) its embedded public
// key and chain-code suffix, matching bursa's on-disk key shape.
type KeyPair struct {
	VerificationKey common.VerificationKey
	SigningKey      common.SigningKey
}

// Unlock decrypts encryptedVKeyHex/encryptedSKeyHex and returns the
// Ed25519 key material ready for witness construction.
func (c *Capability) Unlock(encryptedVKeyHex, encryptedSKeyHex string) (KeyPair, error) {
	vKeyCborHex, err := c.decryptor.Decrypt(encryptedVKeyHex)
	if err != nil {
		return KeyPair{}, fmt.Errorf("wallet: decrypting vkey: %w", err)
	}
	sKeyCborHex, err := c.decryptor.Decrypt(encryptedSKeyHex)
	if err != nil {
		return KeyPair{}, fmt.Errorf("wallet: decrypting skey: %w", err)
	}

	vKeyBytes, err := hex.DecodeString(vKeyCborHex)
	if err != nil {
		return KeyPair{}, fmt.Errorf("wallet: decoding vkey hex: %w", err)
	}
	sKeyBytes, err := hex.DecodeString(sKeyCborHex)
	if err != nil {
		return KeyPair{}, fmt.Errorf("wallet: decoding skey hex: %w", err)
	}

	if len(vKeyBytes) > cborBytesPrefixLen {
		vKeyBytes = vKeyBytes[cborBytesPrefixLen:]
	}
	if len(sKeyBytes) > cborBytesPrefixLen {
		sKeyBytes = sKeyBytes[cborBytesPrefixLen:]
	}

	if len(sKeyBytes) >= extendedSigningKeyLen {
		// Extended key: drop the embedded public key + chain code,
		// keep the 64-byte expanded private key only.
		sKeyBytes = append([]byte{}, sKeyBytes[:64]...)
	}

	return KeyPair{
		VerificationKey: common.VerificationKey{Payload: vKeyBytes},
		SigningKey:      common.SigningKey{Payload: sKeyBytes},
	}, nil
}

// NewWalletFromMnemonic derives a fresh payment key pair from a
// mnemonic; it bypasses the decrypt-at-rest path entirely since there
// is no stored ciphertext yet.
func NewWalletFromMnemonic(mnemonic string, networkStr string) (bursa.Wallet, error) {
	w, err := bursa.NewWallet(mnemonic, networkStr)
	if err != nil {
		return bursa.Wallet{}, fmt.Errorf("wallet: deriving from mnemonic: %w", err)
	}
	return w, nil
}
