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

package wallet

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityDecryptor treats its input as already-decrypted, for testing
// the unwrap/strip logic in isolation from any real at-rest cipher.
type identityDecryptor struct{}

func (identityDecryptor) Decrypt(cborHex string) (string, error) {
	return cborHex, nil
}

func TestUnlockStripsCborPrefixAndExtendedKeySuffix(t *testing.T) {
	vKeyPayload := strings.Repeat("ab", 32)
	vKeyCbor := "5820" + vKeyPayload // CBOR byte-string(32) prefix

	sKeyPrivate := strings.Repeat("cd", 64)
	sKeyPublic := strings.Repeat("ef", 32)
	sKeyChainCode := strings.Repeat("01", 32)
	sKeyCbor := "5880" + sKeyPrivate + sKeyPublic + sKeyChainCode

	cap := NewCapability(identityDecryptor{})
	kp, err := cap.Unlock(vKeyCbor, sKeyCbor)
	require.NoError(t, err)

	assert.Equal(t, vKeyPayload, hex.EncodeToString(kp.VerificationKey.Payload))
	assert.Equal(t, sKeyPrivate, hex.EncodeToString(kp.SigningKey.Payload))
}

type failingDecryptor struct{}

func (failingDecryptor) Decrypt(string) (string, error) {
	return "", assert.AnError
}

func TestUnlockPropagatesDecryptError(t *testing.T) {
	cap := NewCapability(failingDecryptor{})
	_, err := cap.Unlock("deadbeef", "deadbeef")
	require.Error(t, err)
}
