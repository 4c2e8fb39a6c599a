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

// Package fingerprint computes a native asset's canonical textual id,
// per §3: bech32("asset", blake2b160(policy || asset_name)). Required
// for reward lookups against the external Reward Ledger collaborator.
// Grounded on cmd/mk-script-address's existing blake2b-hashing idiom
// (golang.org/x/crypto/blake2b) paired with the bech32 codec used
// across the pack's wallet-facing repos
// (github.com/btcsuite/btcd/btcutil/bech32).
package fingerprint

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

const hrp = "asset"

// digestSize is CIP-14's 160-bit (20-byte) blake2b digest length.
const digestSize = 20

// Compute returns the bech32 "asset1..." fingerprint for policyHex
// (28-byte policy id) and nameHex (0-32 byte asset name), both hex
// encoded.
func Compute(policyHex, nameHex string) (string, error) {
	policy, err := hex.DecodeString(policyHex)
	if err != nil {
		return "", fmt.Errorf("fingerprint: invalid policy hex: %w", err)
	}
	name, err := hex.DecodeString(nameHex)
	if err != nil {
		return "", fmt.Errorf("fingerprint: invalid asset name hex: %w", err)
	}

	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		return "", fmt.Errorf("fingerprint: initializing blake2b: %w", err)
	}
	h.Write(policy)
	h.Write(name)
	digest := h.Sum(nil)

	converted, err := bech32.ConvertBits(digest, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("fingerprint: converting bits: %w", err)
	}
	encoded, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", fmt.Errorf("fingerprint: bech32 encoding: %w", err)
	}
	return encoded, nil
}
