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

// Package value implements exact Cardano multi-asset value arithmetic and
// the min-ADA calculation, independent of any transaction-building
// library so it can be unit tested in isolation (§4.1).
package value

import (
	"fmt"
	"sort"

	"github.com/blinklabs-io/shai/internal/errs"
)

// Value is a pair (coin, multi_asset) per §3. Assets is keyed by hex
// policy ID, then by hex asset name, to a strictly-positive quantity;
// zero-quantity entries are always pruned and an empty multi-asset is
// represented by a nil/empty map.
type Value struct {
	Coin   uint64
	Assets map[string]map[string]uint64
}

// New returns a coin-only Value.
func New(coin uint64) Value {
	return Value{Coin: coin}
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (v Value) Clone() Value {
	out := Value{Coin: v.Coin}
	if len(v.Assets) == 0 {
		return out
	}
	out.Assets = make(map[string]map[string]uint64, len(v.Assets))
	for policy, names := range v.Assets {
		nm := make(map[string]uint64, len(names))
		for name, qty := range names {
			nm[name] = qty
		}
		out.Assets[policy] = nm
	}
	return out
}

// IsEmpty reports whether the value carries neither coin nor assets.
func (v Value) IsEmpty() bool {
	return v.Coin == 0 && len(v.Assets) == 0
}

// AssetCount returns the number of distinct (policy, asset name) pairs.
func (v Value) AssetCount() int {
	n := 0
	for _, names := range v.Assets {
		n += len(names)
	}
	return n
}

// PolicyCount returns the number of distinct policy IDs present.
func (v Value) PolicyCount() int {
	return len(v.Assets)
}

// Get returns the quantity of (policy, name), or 0 if absent.
func (v Value) Get(policy, name string) uint64 {
	names, ok := v.Assets[policy]
	if !ok {
		return 0
	}
	return names[name]
}

// set stores qty under (policy, name), pruning zero entries and empty
// policy maps to preserve the "zero entries are pruned" invariant.
func (v *Value) set(policy, name string, qty uint64) {
	if qty == 0 {
		if names, ok := v.Assets[policy]; ok {
			delete(names, name)
			if len(names) == 0 {
				delete(v.Assets, policy)
			}
		}
		return
	}
	if v.Assets == nil {
		v.Assets = make(map[string]map[string]uint64)
	}
	names, ok := v.Assets[policy]
	if !ok {
		names = make(map[string]uint64)
		v.Assets[policy] = names
	}
	names[name] = qty
}

// Add returns a+b, commutative and associative, per §8.
func Add(a, b Value) Value {
	out := a.Clone()
	out.Coin += b.Coin
	for policy, names := range b.Assets {
		for name, qty := range names {
			out.set(policy, name, out.Get(policy, name)+qty)
		}
	}
	return out
}

// CheckedSub returns a-b, failing with errs.ErrInsufficientFunds-flavored
// underflow if any scalar (coin or any asset quantity) would go negative.
func CheckedSub(a, b Value) (Value, error) {
	if a.Coin < b.Coin {
		return Value{}, fmt.Errorf(
			"%w: coin underflow: %d < %d",
			errs.ErrInsufficientFunds,
			a.Coin,
			b.Coin,
		)
	}
	out := a.Clone()
	out.Coin = a.Coin - b.Coin
	for policy, names := range b.Assets {
		for name, qty := range names {
			have := out.Get(policy, name)
			if have < qty {
				return Value{}, fmt.Errorf(
					"%w: asset %s.%s underflow: %d < %d",
					errs.ErrInsufficientFunds,
					policy,
					name,
					have,
					qty,
				)
			}
			out.set(policy, name, have-qty)
		}
	}
	return out, nil
}

// ClampedSub returns, per scalar, max(0, a-b); used when b is only an
// upper bound (e.g. subtracting an already-paid amount).
func ClampedSub(a, b Value) Value {
	out := a.Clone()
	if b.Coin >= out.Coin {
		out.Coin = 0
	} else {
		out.Coin -= b.Coin
	}
	for policy, names := range b.Assets {
		for name, qty := range names {
			have := out.Get(policy, name)
			if qty >= have {
				out.set(policy, name, 0)
			} else {
				out.set(policy, name, have-qty)
			}
		}
	}
	return out
}

// Ordering is the result of comparing two Values under their partial order.
type Ordering int

const (
	Incomparable Ordering = iota
	Less
	Equal
	Greater
)

// Compare implements the partial order: a <= b iff a.coin <= b.coin and,
// for every asset present in either value, a's quantity <= b's quantity.
func Compare(a, b Value) Ordering {
	lessEq := LessEq(a, b)
	greaterEq := LessEq(b, a)
	switch {
	case lessEq && greaterEq:
		return Equal
	case lessEq:
		return Less
	case greaterEq:
		return Greater
	default:
		return Incomparable
	}
}

// LessEq reports whether a <= b coordinate-wise (coin and every asset).
func LessEq(a, b Value) bool {
	if a.Coin > b.Coin {
		return false
	}
	for policy, names := range a.Assets {
		for name, qty := range names {
			if qty > b.Get(policy, name) {
				return false
			}
		}
	}
	return true
}

// GreaterEq reports whether a covers b coordinate-wise.
func GreaterEq(a, b Value) bool {
	return LessEq(b, a)
}

// sortedPolicies returns the value's policy IDs in a deterministic order,
// needed anywhere the iteration order affects a CBOR encode or a
// serialized-size estimate.
func (v Value) sortedPolicies() []string {
	keys := make([]string, 0, len(v.Assets))
	for k := range v.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedAssetNames returns the sorted asset names under a policy.
func (v Value) SortedAssetNames(policy string) []string {
	names := v.Assets[policy]
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedPolicies exposes sortedPolicies for callers outside the package
// (Splitter, Balancer) that need deterministic iteration.
func (v Value) SortedPolicies() []string {
	return v.sortedPolicies()
}
