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

package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/shai/internal/errs"
	"github.com/blinklabs-io/shai/internal/splitter"
	"github.com/blinklabs-io/shai/internal/utxo"
	"github.com/blinklabs-io/shai/internal/value"
)

var testSplitterParams = splitter.Params{UtxoCostPerByte: 4310}

func senderOnly(utxo.UnspentOutput) InputClass { return ClassSender }

func mkInput(t *testing.T, idx uint32, coin uint64) utxo.UnspentOutput {
	t.Helper()
	ref, err := utxo.NewInputRefFromHex(
		"cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc",
		idx,
	)
	require.NoError(t, err)
	return utxo.UnspentOutput{Input: ref, Output: utxo.Output{Value: value.New(coin)}}
}

func TestBalanceProducesChangeOutput(t *testing.T) {
	req := Request{
		Inputs:         []utxo.UnspentOutput{mkInput(t, 0, 10_000_000)},
		Outputs:        []utxo.Output{{Address: "addr_receiver", Value: value.New(3_000_000)}},
		Fee:            170_000,
		ChangeAddr:     "addr_sender",
		Classify:       senderOnly,
		SplitterParams: testSplitterParams,
	}

	res, err := Balance(req)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)

	var total value.Value
	for _, o := range res.Outputs {
		total = value.Add(total, o.Value)
	}
	assert.Equal(t, req.Inputs[0].Output.Value.Coin, total.Coin+req.Fee)
}

func TestBalanceInsufficientInputs(t *testing.T) {
	req := Request{
		Inputs:         []utxo.UnspentOutput{mkInput(t, 0, 1_000_000)},
		Outputs:        []utxo.Output{{Address: "addr_receiver", Value: value.New(5_000_000)}},
		Fee:            170_000,
		ChangeAddr:     "addr_sender",
		Classify:       senderOnly,
		SplitterParams: testSplitterParams,
	}

	_, err := Balance(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInsufficientFunds)
}

func TestBalanceDustChange(t *testing.T) {
	req := Request{
		Inputs:         []utxo.UnspentOutput{mkInput(t, 0, 3_200_000)},
		Outputs:        []utxo.Output{{Address: "addr_receiver", Value: value.New(3_000_000)}},
		Fee:            170_000,
		ChangeAddr:     "addr_sender",
		Classify:       senderOnly,
		SplitterParams: testSplitterParams,
	}

	_, err := Balance(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDustChange)
}

func TestBalanceForeignInputRejected(t *testing.T) {
	foreign := mkInput(t, 1, 20_000_000)
	req := Request{
		Inputs:  []utxo.UnspentOutput{foreign},
		Outputs: []utxo.Output{{Address: "addr_receiver", Value: value.New(3_000_000)}},
		Fee:     170_000,
		Classify: func(u utxo.UnspentOutput) InputClass {
			return ClassForeign
		},
		SplitterParams: testSplitterParams,
	}

	_, err := Balance(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInternalInvariant)
}

func TestBalanceRoutesResidualTokensIntoChange(t *testing.T) {
	in := mkInput(t, 0, 10_000_000)
	in.Output.Value.Assets = map[string]map[string]uint64{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa": {
			"74657374746f6b656e": 50,
		},
	}

	req := Request{
		Inputs:         []utxo.UnspentOutput{in},
		Outputs:        []utxo.Output{{Address: "addr_receiver", Value: value.New(3_000_000)}},
		Fee:            170_000,
		ChangeAddr:     "addr_sender",
		Classify:       senderOnly,
		SplitterParams: testSplitterParams,
	}

	res, err := Balance(req)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)

	change := res.Outputs[1]
	assert.Equal(t, uint64(50), change.Value.Get(
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"74657374746f6b656e",
	))
	assert.Equal(t, change.Value, res.ChangeValue)
}

func TestBalanceImbalancedTokensWithNoChangeLovelace(t *testing.T) {
	in := mkInput(t, 0, 3_170_000)
	in.Output.Value.Assets = map[string]map[string]uint64{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa": {
			"74657374746f6b656e": 50,
		},
	}

	req := Request{
		Inputs:         []utxo.UnspentOutput{in},
		Outputs:        []utxo.Output{{Address: "addr_receiver", Value: value.New(3_000_000)}},
		Fee:            170_000,
		ChangeAddr:     "addr_sender",
		Classify:       senderOnly,
		SplitterParams: testSplitterParams,
	}

	_, err := Balance(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrImbalancedTokens)
}

func TestBalanceZeroChangeOmitsChangeOutput(t *testing.T) {
	req := Request{
		Inputs:         []utxo.UnspentOutput{mkInput(t, 0, 3_170_000)},
		Outputs:        []utxo.Output{{Address: "addr_receiver", Value: value.New(3_000_000)}},
		Fee:            170_000,
		ChangeAddr:     "addr_sender",
		Classify:       senderOnly,
		SplitterParams: testSplitterParams,
	}

	res, err := Balance(req)
	require.NoError(t, err)
	assert.Len(t, res.Outputs, 1)
}
