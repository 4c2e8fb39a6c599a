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

package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseRoundTrip(t *testing.T) {
	td := TxData{
		Addrs:       []string{"addr1one", "addr1two"},
		Stake:       "stake1abc",
		Outputs:     []string{"deadbeef"},
		Inputs:      []string{"cafe#0", "babe#1"},
		Excludes:    nil,
		Collateral:  []string{"face#2"},
		Network:     NetworkMainnet,
		Slot:        123456,
		UserID:      "user-1",
		ContractIDs: []string{"contract-a", "contract-b"},
	}

	s := Format(td)
	got, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, td, got)
}

func TestFormatUsesNoDataPlaceholderForEmptyFields(t *testing.T) {
	td := TxData{
		Network: NetworkTestnet,
		Slot:    0,
	}
	s := Format(td)
	assert.Contains(t, s, noData)

	got, err := Parse(s)
	require.NoError(t, err)
	assert.Nil(t, got.Addrs)
	assert.Equal(t, "", got.Stake)
	assert.Nil(t, got.Outputs)
	assert.Equal(t, "", got.UserID)
}

func TestParseRejectsWrongFieldCount(t *testing.T) {
	_, err := Parse("a|b|c")
	require.Error(t, err)
}

func TestParseRejectsMalformedNetwork(t *testing.T) {
	bad := "NoData|NoData|NoData|NoData|NoData|NoData|notanumber|0|NoData|NoData"
	_, err := Parse(bad)
	require.Error(t, err)
}

func TestNewCBORTransactionEnvelope(t *testing.T) {
	env := NewCBORTransactionEnvelope("test tx", []byte{0xDE, 0xAD, 0xBE, 0xEF})
	assert.Equal(t, "Tx BabbageEra", env.Type)
	assert.Equal(t, "test tx", env.Description)
	assert.Equal(t, "deadbeef", env.CborHex)
}

func TestOperationTaggedUnionSelectsSingleVariant(t *testing.T) {
	op := Operation{
		Kind: OpStakeDelegation,
		StakeDelegation: &StakeDelegationPayload{
			PoolID: "pool1xyz",
		},
	}
	assert.Equal(t, OpStakeDelegation, op.Kind)
	require.NotNil(t, op.StakeDelegation)
	assert.Nil(t, op.Marketplace)
	assert.Equal(t, "pool1xyz", op.StakeDelegation.PoolID)
}
