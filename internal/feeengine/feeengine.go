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

// Package feeengine computes the linear base fee plus script-unit fee
// from protocol parameters, per §4.5 step 3. Grounded on Apollo's own
// fee computation inside CompleteExact (as exercised by
// geniusyield/tx.go before its removal), reduced here to the single
// pure function the Builder Loop needs between its dummy and real
// assemble passes.
package feeengine

import (
	"math"

	"github.com/blinklabs-io/shai/internal/protocolparams"
)

// ScriptBudget carries the placeholder execution-unit budget from §4.5
// step 1: "Fix script-budget placeholders steps=2 500 000 000,
// mem=7 000 000 (tighten post-MVP with real evaluation)."
type ScriptBudget struct {
	Steps  uint64
	Memory uint64
}

// DefaultScriptBudget is the placeholder budget used when an operation
// declares scripts but no real execution-unit evaluation is available
// yet.
var DefaultScriptBudget = ScriptBudget{Steps: 2_500_000_000, Memory: 7_000_000}

// Compute returns fee = a*size + b + scriptFee, where scriptFee is
// omitted entirely (not just zeroed) when hasScripts is false, per
// §4.5 step 3's "the script term is omitted when the operation
// declares no scripts".
func Compute(params protocolparams.Params, txSize int, hasScripts bool, budget ScriptBudget) uint64 {
	base := params.TxFeePerByte*uint64(txSize) + params.TxFeeFixed
	if !hasScripts {
		return base
	}

	scriptFee := uint64(math.Ceil(float64(budget.Steps)*params.ExecutionUnitPrices.PriceSteps)) +
		uint64(math.Ceil(float64(budget.Memory)*params.ExecutionUnitPrices.PriceMemory))
	return base + scriptFee
}
