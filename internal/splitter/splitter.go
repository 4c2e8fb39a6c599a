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

// Package splitter implements §4.3: breaking an oversize change output
// into several protocol-legal pieces. Grounded on
// original_source/libs/murin/src/txbuilder/mod.rs's output-splitting
// pass, which runs the same size/threshold checks before handing the
// pieces back to the balancer.
package splitter

import (
	"fmt"

	"github.com/blinklabs-io/shai/internal/utxo"
	"github.com/blinklabs-io/shai/internal/value"
)

// CTh is the ADA/token split threshold from §4.3: once change.coin
// reaches this many lovelace, ADA is pulled out of the token-bearing
// output into its own piece.
const CTh = 40_000_000

// BTh bounds a policy-bundled output's serialized size in the
// many-policies branch.
const BTh = 2500

// maxTokensPerPolicy is the per-policy token count above which a single
// policy's assets must themselves be split.
const maxTokensPerPolicy = 40

// UtxoCostPerByte carries the protocol parameter needed for min-ADA
// checks; the caller supplies the live value from internal/protocolparams.
type Params struct {
	UtxoCostPerByte uint64
}

// Split implements §4.3's algorithm against a single change output,
// returning a list of outputs whose total value equals the input and
// each of which is individually protocol-legal, or the input unchanged
// if no legal split exists.
func Split(changeOutput utxo.Output, params Params) ([]utxo.Output, error) {
	size, err := utxo.SerializedSize(changeOutput)
	if err != nil {
		return nil, fmt.Errorf("splitter: measuring change output: %w", err)
	}

	if size <= value.MaxValueSize && changeOutput.Value.Coin >= CTh && len(changeOutput.Value.Assets) > 0 {
		return splitAdaFromTokens(changeOutput, params)
	}

	if policy, count := singleOversizedPolicy(changeOutput.Value); policy != "" && count > maxTokensPerPolicy {
		return splitPolicyTail(changeOutput, policy, params)
	}

	if len(changeOutput.Value.Assets) > 1 {
		pieces, err := splitByPolicyBundle(changeOutput, params)
		if err == nil {
			return pieces, nil
		}
	}

	if requiredMinAdaExceedsInput(changeOutput) {
		return []utxo.Output{changeOutput}, nil
	}

	return []utxo.Output{changeOutput}, nil
}

func singleOversizedPolicy(v value.Value) (string, int) {
	if len(v.Assets) != 1 {
		return "", 0
	}
	for policy, names := range v.Assets {
		return policy, len(names)
	}
	return "", 0
}

func splitAdaFromTokens(o utxo.Output, params Params) ([]utxo.Output, error) {
	tokenOnly := o
	tokenOnly.Value = value.Value{Assets: o.Value.Assets}
	tokenMinAda, err := minAdaFor(tokenOnly, params)
	if err != nil {
		return nil, err
	}
	tokenOnly.Value.Coin = tokenMinAda

	if tokenMinAda > o.Value.Coin {
		return []utxo.Output{o}, nil
	}

	adaOnly := o
	adaOnly.Value = value.Value{Coin: o.Value.Coin - tokenMinAda}
	adaOnly.DatumHash = nil
	adaOnly.InlineDatum = nil
	adaOnly.ScriptRef = nil

	if adaOnly.Value.Coin < minAdaForSafe(adaOnly, params) {
		return []utxo.Output{o}, nil
	}

	return []utxo.Output{adaOnly, tokenOnly}, nil
}

func splitPolicyTail(o utxo.Output, policy string, params Params) ([]utxo.Output, error) {
	names := value.Value{Assets: o.Value.Assets}.SortedAssetNames(policy)
	if len(names) <= maxTokensPerPolicy {
		return []utxo.Output{o}, nil
	}

	head := names[:maxTokensPerPolicy]
	tail := names[maxTokensPerPolicy:]

	headOut := o
	headOut.Value = value.Value{Assets: map[string]map[string]uint64{policy: subMap(o.Value.Assets[policy], head)}}
	headMinAda, err := minAdaFor(headOut, params)
	if err != nil {
		return nil, err
	}
	headOut.Value.Coin = headMinAda

	if headMinAda > o.Value.Coin {
		return []utxo.Output{o}, nil
	}

	tailOut := o
	tailOut.Value = value.Value{Assets: map[string]map[string]uint64{policy: subMap(o.Value.Assets[policy], tail)}}
	tailOut.DatumHash = nil
	tailOut.InlineDatum = nil
	tailOut.ScriptRef = nil

	remaining := o.Value.Coin - headMinAda
	tailOut.Value.Coin = remaining

	rest, err := Split(tailOut, params)
	if err != nil {
		return nil, err
	}
	return append([]utxo.Output{headOut}, rest...), nil
}

func subMap(m map[string]uint64, keys []string) map[string]uint64 {
	out := map[string]uint64{}
	for _, k := range keys {
		out[k] = m[k]
	}
	return out
}

func splitByPolicyBundle(o utxo.Output, params Params) ([]utxo.Output, error) {
	v := value.Value{Assets: o.Value.Assets}
	policies := v.SortedPolicies()
	if len(policies) == 0 {
		return []utxo.Output{o}, nil
	}

	var bundle []string
	remainingCoin := int64(o.Value.Coin)
	var pieces []utxo.Output

	flush := func() error {
		if len(bundle) == 0 {
			return nil
		}
		assets := map[string]map[string]uint64{}
		for _, p := range bundle {
			assets[p] = o.Value.Assets[p]
		}
		piece := o
		piece.Value = value.Value{Assets: assets}
		minAda, err := minAdaFor(piece, params)
		if err != nil {
			return err
		}
		piece.Value.Coin = minAda
		remainingCoin -= int64(minAda)
		pieces = append(pieces, piece)
		bundle = nil
		return nil
	}

	for _, policy := range policies {
		bundle = append(bundle, policy)
		probe := o
		probe.Value = value.Value{Assets: map[string]map[string]uint64{}}
		for _, p := range bundle {
			probe.Value.Assets[p] = o.Value.Assets[p]
		}
		size, err := utxo.SerializedSize(probe)
		if err != nil {
			return nil, err
		}
		if size >= BTh {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if remainingCoin < 0 {
		return nil, fmt.Errorf("splitter: policy bundling exceeds input coin")
	}

	if remainingCoin > 0 {
		last := o
		last.Value = value.Value{Coin: uint64(remainingCoin)}
		last.DatumHash = nil
		last.InlineDatum = nil
		last.ScriptRef = nil
		pieces = append(pieces, last)
	}

	return pieces, nil
}

func requiredMinAdaExceedsInput(o utxo.Output) bool {
	required := value.MinAdaLegacyForValue(o.Value)
	return required > o.Value.Coin
}

func minAdaFor(o utxo.Output, params Params) (uint64, error) {
	estimate := utxo.SizeEstimator(o)
	return value.MinAdaForOutputCurrent(estimate, params.UtxoCostPerByte, o.Value.Coin)
}

func minAdaForSafe(o utxo.Output, params Params) uint64 {
	got, err := minAdaFor(o, params)
	if err != nil {
		return value.MinAdaLegacyForValue(o.Value)
	}
	return got
}
