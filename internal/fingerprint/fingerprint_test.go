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

package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeIsDeterministic(t *testing.T) {
	policy := "1e349c9bdea19fd6c147626a5260bc44b71635f398b67c59881df209"
	name := "504154415445"

	a, err := Compute(policy, name)
	require.NoError(t, err)
	b, err := Compute(policy, name)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, len(a) > len(hrp)+1)
	assert.Equal(t, hrp+"1", a[:len(hrp)+1])
}

func TestComputeDiffersByAssetName(t *testing.T) {
	policy := "1e349c9bdea19fd6c147626a5260bc44b71635f398b67c59881df209"
	a, err := Compute(policy, "504154415445")
	require.NoError(t, err)
	b, err := Compute(policy, "504154415446")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestComputeRejectsInvalidHex(t *testing.T) {
	_, err := Compute("not-hex", "504154415445")
	require.Error(t, err)
}
