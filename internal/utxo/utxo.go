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

// Package utxo implements the UnspentOutput/UTxOContainer data model from
// §3: a value-typed, CBOR-serializable collection of unspent outputs.
// Outputs are held as this package's own decoded Output struct; only the
// inline datum and script reference are kept as opaque CBOR.
package utxo

import (
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/shai/internal/value"
)

// InputRef identifies a transaction output by transaction id and index,
// per §3.
type InputRef struct {
	TxID  [32]byte
	Index uint32
}

func (r InputRef) String() string {
	return fmt.Sprintf("%s#%d", hex.EncodeToString(r.TxID[:]), r.Index)
}

// NewInputRefFromHex builds an InputRef from a hex-encoded 32-byte tx id.
func NewInputRefFromHex(txIDHex string, index uint32) (InputRef, error) {
	raw, err := hex.DecodeString(txIDHex)
	if err != nil {
		return InputRef{}, fmt.Errorf("invalid tx id hex: %w", err)
	}
	if len(raw) != 32 {
		return InputRef{}, fmt.Errorf("tx id must be 32 bytes, got %d", len(raw))
	}
	var ref InputRef
	copy(ref.TxID[:], raw)
	ref.Index = index
	return ref, nil
}

// Output is the address/value/datum/script portion of an unspent output,
// per §3's `output = (address, value, optional datum_hash, optional
// inline_datum, optional script_ref)`.
type Output struct {
	Address      string
	Value        value.Value
	DatumHash    []byte
	InlineDatum  []byte // raw CBOR, opaque to the core
	ScriptRef    []byte // raw CBOR, opaque to the core
}

// UnspentOutput is (input_ref, output); equality is by InputRef alone,
// per §3.
type UnspentOutput struct {
	Input  InputRef
	Output Output
}

// Equal compares two UnspentOutputs by InputRef only, per §3's equality
// rule.
func (u UnspentOutput) Equal(other UnspentOutput) bool {
	return u.Input == other.Input
}

// wireOutput is the CBOR-on-the-wire shape used both for container
// serialization and for min-ADA size estimation (§4.1's "re-serialize").
// It is a plain untagged CBOR array, the teacher's own cbor.StructAsArray
// idiom for a fixed-shape CBOR record.
type wireOutput struct {
	cbor.StructAsArray
	Address     []byte
	Coin        uint64
	PolicyIDs   [][]byte
	AssetNames  [][][]byte
	AssetQtys   [][]uint64
	DatumHash   []byte
	InlineDatum []byte
	ScriptRef   []byte
}

func toWire(o Output) (wireOutput, error) {
	w := wireOutput{Coin: o.Value.Coin, DatumHash: o.DatumHash}
	if o.Address != "" {
		w.Address = []byte(o.Address)
	}
	if o.InlineDatum != nil {
		w.InlineDatum = o.InlineDatum
	}
	if o.ScriptRef != nil {
		w.ScriptRef = o.ScriptRef
	}
	for _, policy := range o.Value.SortedPolicies() {
		policyBytes, err := hex.DecodeString(policy)
		if err != nil {
			return wireOutput{}, fmt.Errorf("invalid policy hex %q: %w", policy, err)
		}
		names := o.Value.SortedAssetNames(policy)
		var nameBytesList [][]byte
		var qtys []uint64
		for _, name := range names {
			nameBytes, err := hex.DecodeString(name)
			if err != nil {
				return wireOutput{}, fmt.Errorf("invalid asset name hex %q: %w", name, err)
			}
			nameBytesList = append(nameBytesList, nameBytes)
			qtys = append(qtys, o.Value.Get(policy, name))
		}
		w.PolicyIDs = append(w.PolicyIDs, policyBytes)
		w.AssetNames = append(w.AssetNames, nameBytesList)
		w.AssetQtys = append(w.AssetQtys, qtys)
	}
	return w, nil
}

// SerializedSize returns the CBOR-encoded byte size of o, used by the
// min-ADA fixed-point search (§4.1) and the Splitter's size bound (§4.3).
func SerializedSize(o Output) (int, error) {
	w, err := toWire(o)
	if err != nil {
		return 0, err
	}
	encoded, err := cbor.Encode(&w)
	if err != nil {
		return 0, fmt.Errorf("failed to encode output: %w", err)
	}
	return len(encoded), nil
}

// SizeEstimator returns a value.SizeEstimator bound to o's address/datum/
// script shape, varying only the coin, for use with
// value.MinAdaForOutputCurrent.
func SizeEstimator(o Output) value.SizeEstimator {
	return func(candidateCoin uint64) (int, error) {
		o2 := o
		o2.Value = o.Value.Clone()
		o2.Value.Coin = candidateCoin
		return SerializedSize(o2)
	}
}
