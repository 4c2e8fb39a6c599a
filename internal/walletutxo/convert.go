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

// Package walletutxo decodes the CIP-30 shaped TransactionUnspentOutput
// CBOR hex strings a wallet hands the intake layer (§6's
// UTXOsHexCBOR/ExcludesHexCBOR/CollateralHexCBOR) into both of the two
// shapes the rest of the core needs: the pure-Go utxo.UnspentOutput used
// by the Selector/Balancer/Splitter's value math, and apollo's own
// UTxO.UTxO used by the Builder Loop's Assembler to actually construct a
// transaction. Grounded on the teacher's own
// internal/storage/utxo.go (Utxo.UnmarshalCBOR unwrapping a [input,
// output] pair and handing the output half to
// ledger.NewTransactionOutputFromCbor) and internal/geniusyield/
// geniusyield.go's wrapTxOutput/cbor.Decode round trip into
// UTxO.UTxO for the apollo side.
package walletutxo

import (
	"encoding/hex"
	"fmt"

	"github.com/Salvionied/apollo/serialization/UTxO"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger"

	"github.com/blinklabs-io/shai/internal/utxo"
	"github.com/blinklabs-io/shai/internal/value"
)

// Decoded holds both views of one wallet-supplied UTxO.
type Decoded struct {
	Domain utxo.UnspentOutput
	Apollo UTxO.UTxO
}

// DecodeAll decodes every hex-encoded TransactionUnspentOutput pair in
// hexPairs.
func DecodeAll(hexPairs []string) ([]Decoded, error) {
	out := make([]Decoded, 0, len(hexPairs))
	for _, h := range hexPairs {
		d, err := DecodeOne(h)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// DecodeOne decodes a single hex-encoded [input, output] CBOR pair.
func DecodeOne(hexPair string) (Decoded, error) {
	raw, err := hex.DecodeString(hexPair)
	if err != nil {
		return Decoded{}, fmt.Errorf("walletutxo: invalid hex: %w", err)
	}

	var pair []cbor.RawMessage
	if _, err := cbor.Decode(raw, &pair); err != nil {
		return Decoded{}, fmt.Errorf("walletutxo: decoding utxo pair: %w", err)
	}
	if len(pair) != 2 {
		return Decoded{}, fmt.Errorf(
			"walletutxo: expected a 2-element [input, output] pair, got %d elements",
			len(pair),
		)
	}

	var inputRef ledger.ShelleyTransactionInput
	if _, err := cbor.Decode(pair[0], &inputRef); err != nil {
		return Decoded{}, fmt.Errorf("walletutxo: decoding input: %w", err)
	}

	txOutput, err := ledger.NewTransactionOutputFromCbor(pair[1])
	if err != nil {
		return Decoded{}, fmt.Errorf("walletutxo: decoding output: %w", err)
	}

	var apolloUTxO UTxO.UTxO
	if _, err := cbor.Decode(raw, &apolloUTxO); err != nil {
		return Decoded{}, fmt.Errorf("walletutxo: decoding apollo utxo: %w", err)
	}

	var ref utxo.InputRef
	idBytes := inputRef.Id().Bytes()
	if len(idBytes) != len(ref.TxID) {
		return Decoded{}, fmt.Errorf(
			"walletutxo: unexpected tx id length %d", len(idBytes),
		)
	}
	copy(ref.TxID[:], idBytes)
	ref.Index = inputRef.Index()

	val := value.New(txOutput.Amount().Uint64())
	if assets := txOutput.Assets(); assets != nil {
		for _, policy := range assets.Policies() {
			policyHex := policy.String()
			for _, name := range assets.Assets(policy) {
				qty := assets.Asset(policy, name)
				nameHex := hex.EncodeToString(name.Bytes())
				val = value.Add(val, singleAsset(policyHex, nameHex, qty.Uint64()))
			}
		}
	}

	return Decoded{
		Domain: utxo.UnspentOutput{
			Input: ref,
			Output: utxo.Output{
				Address: txOutput.Address().String(),
				Value:   val,
			},
		},
		Apollo: apolloUTxO,
	}, nil
}

func singleAsset(policyHex, nameHex string, qty uint64) value.Value {
	return value.Value{Assets: map[string]map[string]uint64{policyHex: {nameHex: qty}}}
}

// DomainContainer builds a utxo.Container from a slice of Decoded,
// discarding the apollo view, for pure selector/balancer use.
func DomainContainer(decoded []Decoded) *utxo.Container {
	items := make([]utxo.UnspentOutput, 0, len(decoded))
	for _, d := range decoded {
		items = append(items, d.Domain)
	}
	return utxo.NewContainer(items...)
}

// FindApollo returns the apollo UTxO.UTxO matching ref, if present.
func FindApollo(decoded []Decoded, ref utxo.InputRef) (UTxO.UTxO, bool) {
	for _, d := range decoded {
		if d.Domain.Input == ref {
			return d.Apollo, true
		}
	}
	return UTxO.UTxO{}, false
}
