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

package utxo

import (
	"encoding/hex"
	"sort"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Container is an ordered sequence of UnspentOutput (§3's UTxOContainer).
// Inner order is a selection hint only; callers may sort it freely.
type Container struct {
	items []UnspentOutput
}

// NewContainer builds a Container from a slice, copying it so the caller's
// slice can be reused.
func NewContainer(items ...UnspentOutput) *Container {
	c := &Container{}
	c.items = append(c.items, items...)
	return c
}

// Len returns the number of UTxOs held.
func (c *Container) Len() int {
	return len(c.items)
}

// At returns the UTxO at index i.
func (c *Container) At(i int) UnspentOutput {
	return c.items[i]
}

// Items returns the container's contents as a slice (a borrowed view, per
// §3's "borrow-as-slice for iteration").
func (c *Container) Items() []UnspentOutput {
	return c.items
}

// Push appends a UTxO.
func (c *Container) Push(u UnspentOutput) {
	c.items = append(c.items, u)
}

// Pop removes and returns the last UTxO, or false if the container is empty.
func (c *Container) Pop() (UnspentOutput, bool) {
	if len(c.items) == 0 {
		return UnspentOutput{}, false
	}
	last := c.items[len(c.items)-1]
	c.items = c.items[:len(c.items)-1]
	return last, true
}

// FindByInputRef returns the UTxO matching ref, if present.
func (c *Container) FindByInputRef(ref InputRef) (UnspentOutput, bool) {
	for _, u := range c.items {
		if u.Input == ref {
			return u, true
		}
	}
	return UnspentOutput{}, false
}

// FindIndexOf returns the index of ref within the container, or -1.
func (c *Container) FindIndexOf(ref InputRef) int {
	for i, u := range c.items {
		if u.Input == ref {
			return i
		}
	}
	return -1
}

// RemoveBySwap removes the element at index i in O(1) by swapping it with
// the last element, which reorders the container (documented as a
// selection hint only, per §3).
func (c *Container) RemoveBySwap(i int) {
	n := len(c.items)
	if i < 0 || i >= n {
		return
	}
	c.items[i] = c.items[n-1]
	c.items = c.items[:n-1]
}

// Merge appends other's items to c.
func (c *Container) Merge(other *Container) {
	c.items = append(c.items, other.items...)
}

// DeleteSet removes every UTxO whose InputRef is in refs.
func (c *Container) DeleteSet(refs map[InputRef]struct{}) {
	kept := c.items[:0]
	for _, u := range c.items {
		if _, found := refs[u.Input]; !found {
			kept = append(kept, u)
		}
	}
	c.items = kept
}

// Clone returns a shallow copy of the container (a new backing slice, same
// UnspentOutput values, which are themselves value types).
func (c *Container) Clone() *Container {
	out := &Container{items: make([]UnspentOutput, len(c.items))}
	copy(out.items, c.items)
	return out
}

// SortByCoin sorts ascending by lovelace coin amount.
func (c *Container) SortByCoin() {
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].Output.Value.Coin < c.items[j].Output.Value.Coin
	})
}

// SortByTokenCount sorts ascending by distinct (policy, asset name) count.
func (c *Container) SortByTokenCount() {
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].Output.Value.AssetCount() < c.items[j].Output.Value.AssetCount()
	})
}

// SortByAssetAmount sorts ascending by the total quantity of the given
// asset held (UTxOs without the asset sort first).
func (c *Container) SortByAssetAmount(policy, name string) {
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].Output.Value.Get(policy, name) < c.items[j].Output.Value.Get(policy, name)
	})
}

// FilterByValueBand returns the subset of items whose coin falls within
// +/- pct percent of target.
func (c *Container) FilterByValueBand(target uint64, pct int) *Container {
	lowNum := target * uint64(100-pct)
	highNum := target * uint64(100+pct)
	out := &Container{}
	for _, u := range c.items {
		coin := u.Output.Value.Coin
		if coin*100 >= lowNum && coin*100 <= highNum {
			out.items = append(out.items, u)
		}
	}
	return out
}

// Partition splits the container into ada-only and multi-asset UTxOs,
// per §4.2 step 1.
func (c *Container) Partition() (adaOnly, multiAsset *Container) {
	adaOnly = &Container{}
	multiAsset = &Container{}
	for _, u := range c.items {
		if len(u.Output.Value.Assets) == 0 {
			adaOnly.items = append(adaOnly.items, u)
		} else {
			multiAsset.items = append(multiAsset.items, u)
		}
	}
	return adaOnly, multiAsset
}

// wireEntry is one element of a Container's CBOR array encoding: a
// wireOutput-shaped entry prefixed with its InputRef.
type wireEntry struct {
	cbor.StructAsArray
	TxID   []byte
	Index  uint32
	Output wireOutput
}

// Encode serializes the container as a CBOR array, per §3.
func (c *Container) Encode() ([]byte, error) {
	entries := make([]wireEntry, 0, len(c.items))
	for _, u := range c.items {
		w, err := toWire(u.Output)
		if err != nil {
			return nil, err
		}
		entries = append(entries, wireEntry{
			TxID:   append([]byte{}, u.Input.TxID[:]...),
			Index:  u.Input.Index,
			Output: w,
		})
	}
	return cbor.Encode(&entries)
}

// Decode parses the CBOR array produced by Encode back into a Container.
func Decode(data []byte) (*Container, error) {
	var entries []wireEntry
	if _, err := cbor.Decode(data, &entries); err != nil {
		return nil, err
	}
	c := &Container{}
	for _, e := range entries {
		var ref InputRef
		copy(ref.TxID[:], e.TxID)
		ref.Index = e.Index

		out := Output{
			Address:     string(e.Output.Address),
			DatumHash:   e.Output.DatumHash,
			InlineDatum: []byte(e.Output.InlineDatum),
			ScriptRef:   []byte(e.Output.ScriptRef),
		}
		out.Value.Coin = e.Output.Coin
		for i, policyBytes := range e.Output.PolicyIDs {
			policyHex := hex.EncodeToString(policyBytes)
			for j, nameBytes := range e.Output.AssetNames[i] {
				nameHex := hex.EncodeToString(nameBytes)
				qty := e.Output.AssetQtys[i][j]
				if out.Value.Assets == nil {
					out.Value.Assets = map[string]map[string]uint64{}
				}
				if out.Value.Assets[policyHex] == nil {
					out.Value.Assets[policyHex] = map[string]uint64{}
				}
				out.Value.Assets[policyHex][nameHex] = qty
			}
		}
		c.items = append(c.items, UnspentOutput{Input: ref, Output: out})
	}
	return c, nil
}
