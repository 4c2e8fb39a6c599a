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

package feeengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blinklabs-io/shai/internal/protocolparams"
)

var testParams = protocolparams.Params{
	TxFeePerByte: 44,
	TxFeeFixed:   155_381,
	ExecutionUnitPrices: protocolparams.ExecutionUnitPrices{
		PriceSteps:  0.0000721,
		PriceMemory: 0.0577,
	},
}

func TestComputeLinearFeeNoScripts(t *testing.T) {
	got := Compute(testParams, 300, false, DefaultScriptBudget)
	want := testParams.TxFeePerByte*300 + testParams.TxFeeFixed
	assert.Equal(t, want, got)
}

func TestComputeAddsScriptFeeWhenPresent(t *testing.T) {
	noScripts := Compute(testParams, 300, false, DefaultScriptBudget)
	withScripts := Compute(testParams, 300, true, DefaultScriptBudget)
	assert.Greater(t, withScripts, noScripts)
}

func TestComputeScalesWithSize(t *testing.T) {
	small := Compute(testParams, 300, false, DefaultScriptBudget)
	large := Compute(testParams, 600, false, DefaultScriptBudget)
	assert.Greater(t, large, small)
}
