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

// Package balancer implements §4.4: recursive accumulation of selected
// inputs into a change value, min-ADA enforcement on that change, and
// delegation to the Splitter for oversize change. Grounded on
// original_source/libs/murin/src/txbuilder/mod.rs's balance pass, which
// classifies inputs by owning credential before folding them into
// change the same way.
package balancer

import (
	"fmt"

	"github.com/blinklabs-io/shai/internal/errs"
	"github.com/blinklabs-io/shai/internal/splitter"
	"github.com/blinklabs-io/shai/internal/utxo"
	"github.com/blinklabs-io/shai/internal/value"
)

// InputClass is §4.4's input classification.
type InputClass int

const (
	// ClassSender is an input from the sender's stake-cred or enterprise
	// payment-cred.
	ClassSender InputClass = iota
	// ClassScript is an input from an approved script address.
	ClassScript
	// ClassForeign is any other input; it must not contribute to change.
	ClassForeign
)

// Classifier assigns an InputClass to a UTxO, given the request's known
// sender/script addresses. Implementations are supplied by the caller
// (an Assembler), since only it knows the sender/contract addresses in
// play for a given build.
type Classifier func(u utxo.UnspentOutput) InputClass

// Request bundles the Balancer's inputs, per §4.4's contract.
type Request struct {
	Inputs         []utxo.UnspentOutput
	Outputs        []utxo.Output
	Fee            uint64
	ChangeAddr     string
	AlreadyPaid    value.Value
	Classify       Classifier
	SplitterParams splitter.Params
}

// Result is the Balancer's output: the final output list (original
// outputs plus change, post-split) and the change value before
// splitting, useful for logging/testing.
type Result struct {
	Outputs     []utxo.Output
	ChangeValue value.Value
}

// Balance implements §4.4's algorithm.
func Balance(req Request) (Result, error) {
	var outputTotal value.Value
	for _, o := range req.Outputs {
		outputTotal = value.Add(outputTotal, o.Value)
	}
	outputTotal.Coin += req.Fee

	toBePaid := value.ClampedSub(outputTotal, req.AlreadyPaid)

	var change value.Value
	paid := false

	for _, in := range req.Inputs {
		class := req.Classify(in)
		switch class {
		case ClassSender, ClassScript:
			change = value.Add(change, in.Output.Value)
		case ClassForeign:
			return Result{}, fmt.Errorf(
				"%w: foreign input %s may not contribute to change",
				errs.ErrInternalInvariant,
				in.Input,
			)
		}

		if !paid && change.Coin >= toBePaid.Coin {
			change = value.ClampedSub(change, toBePaid)
			paid = true
		}
	}

	if !paid {
		return Result{}, fmt.Errorf(
			"%w: inputs exhausted with %d lovelace still owed",
			errs.ErrInsufficientFunds,
			toBePaid.Coin,
		)
	}

	outputs := append([]utxo.Output{}, req.Outputs...)

	if change.Coin == 0 {
		if len(change.Assets) > 0 {
			return Result{}, fmt.Errorf(
				"%w: residual multi-asset tokens with no lovelace left to place a change output",
				errs.ErrImbalancedTokens,
			)
		}
		return Result{Outputs: outputs, ChangeValue: change}, nil
	}

	changeOutput := utxo.Output{Address: req.ChangeAddr, Value: change}
	requiredMinAda, err := minAdaFor(changeOutput, req.SplitterParams)
	if err != nil {
		return Result{}, fmt.Errorf("balancer: computing change min-ada: %w", err)
	}

	if change.Coin < requiredMinAda {
		return Result{}, fmt.Errorf(
			"%w: change %d lovelace is below min-ada %d",
			errs.ErrDustChange,
			change.Coin,
			requiredMinAda,
		)
	}

	pieces, err := splitter.Split(changeOutput, req.SplitterParams)
	if err != nil {
		return Result{}, fmt.Errorf("balancer: splitting change: %w", err)
	}

	outputs = append(outputs, pieces...)
	return Result{Outputs: outputs, ChangeValue: change}, nil
}

func minAdaFor(o utxo.Output, params splitter.Params) (uint64, error) {
	estimate := utxo.SizeEstimator(o)
	return value.MinAdaForOutputCurrent(estimate, params.UtxoCostPerByte, o.Value.Coin)
}
