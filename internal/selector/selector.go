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

// Package selector implements the UTxO selection algorithm from §4.2:
// given a needed Value and a pool of available UTxOs, produce an input
// set that covers it. Grounded on supporting_functions.rs's input-picking
// loop (coin-first, then token-aware, with a "coin reservoir" fallback),
// adapted to Go's explicit multi-return error style the way the teacher's
// storage/tx-building code does.
package selector

import (
	"fmt"

	"github.com/blinklabs-io/shai/internal/errs"
	"github.com/blinklabs-io/shai/internal/utxo"
	"github.com/blinklabs-io/shai/internal/value"
)

// maxMultiAssetEntriesForQuickTake bounds the "fewer-asset UTxO" fallback
// in step 5 of §4.2.
const maxMultiAssetEntriesForQuickTake = 21

// Options configures a single Select call, per §4.2's opts.
type Options struct {
	// RequiredTokens lists (policy, name) -> minimum quantity that must be
	// covered by token-bearing UTxOs before the coin-covering loop runs.
	RequiredTokens map[string]map[string]uint64
	// CollateralExclude, if set, must never appear in the result.
	CollateralExclude *utxo.InputRef
	// AddressFilter, if non-empty, restricts selection to UTxOs at this
	// address.
	AddressFilter string
	// OverheadPct is the selector's "prefer a UTxO up to this percent
	// larger than still-needed" policy knob (§9 open question — default
	// 50, tunable per deployment via internal/config).
	OverheadPct int
}

// Result is the selector's output: the consumed input refs and the
// UTxOs they refer to, in selection order.
type Result struct {
	InputRefs []utxo.InputRef
	Selected  *utxo.Container
}

// Select implements §4.2's algorithm.
func Select(needed value.Value, available *utxo.Container, opts Options) (Result, error) {
	if opts.OverheadPct <= 0 {
		opts.OverheadPct = 50
	}

	pool := available.Clone()
	if opts.AddressFilter != "" {
		filtered := &utxo.Container{}
		for _, u := range pool.Items() {
			if u.Output.Address == opts.AddressFilter {
				filtered.Push(u)
			}
		}
		pool = filtered
	}

	adaOnly, multiAsset := pool.Partition()

	selected := &utxo.Container{}
	selectedValue := value.Value{}

	// Step 2: token-aware greedy walk over multi-asset UTxOs.
	if len(opts.RequiredTokens) > 0 {
		stillNeeded := cloneTokenMap(opts.RequiredTokens)
		var remaining []utxo.UnspentOutput
		for _, u := range multiAsset.Items() {
			if tokenMapSatisfied(stillNeeded) {
				remaining = append(remaining, u)
				continue
			}
			if contributesToNeeded(u.Output.Value, stillNeeded) {
				selected.Push(u)
				selectedValue = value.Add(selectedValue, u.Output.Value)
				subtractContribution(stillNeeded, u.Output.Value)
			} else {
				remaining = append(remaining, u)
			}
		}
		multiAsset = utxo.NewContainer(remaining...)
		if !tokenMapSatisfied(stillNeeded) {
			return Result{}, fmt.Errorf(
				"%w: required tokens not covered by available UTxOs",
				errs.ErrInsufficientFunds,
			)
		}
		optimizeOnAssets(selected, multiAsset, opts.RequiredTokens, &selectedValue)
	}

	// Step 3: collateral exclusion from the ada-only pool.
	if opts.CollateralExclude != nil {
		idx := adaOnly.FindIndexOf(*opts.CollateralExclude)
		if idx >= 0 {
			adaOnly.RemoveBySwap(idx)
		}
	}

	// Step 4: sort both pools ascending by coin.
	adaOnly.SortByCoin()
	multiAsset.SortByCoin()

	// Step 5: coin-covering loop.
	var reservoir []utxo.UnspentOutput
	for selectedValue.Coin < needed.Coin {
		stillNeededCoin := uint64(0)
		if needed.Coin > selectedValue.Coin {
			stillNeededCoin = needed.Coin - selectedValue.Coin
		}

		u, fromPool, ok := drawOne(adaOnly, multiAsset, stillNeededCoin, opts.OverheadPct)
		if ok {
			selected.Push(u)
			selectedValue = value.Add(selectedValue, u.Output.Value)
			removeFirstMatch(fromPool, u)
			continue
		}

		// No direct candidate: collect the largest-coin UTxO from
		// whichever pool has one into the reservoir and keep trying,
		// else accumulate from the current pool past the floor.
		pool := adaOnly
		if pool.Len() == 0 {
			pool = multiAsset
		}
		if pool.Len() == 0 {
			break
		}

		largestIdx := largestCoinIndex(pool)
		largest := pool.At(largestIdx)
		if largest.Output.Value.Coin > stillNeededCoin {
			reservoir = append(reservoir, largest)
			pool.RemoveBySwap(largestIdx)
			continue
		}

		// Accumulate from current pool until we clear needed+min-ADA
		// floor, per §4.2 step 5's last bullet.
		floor := value.MinAdaLegacyForValue(needed)
		for pool.Len() > 0 && selectedValue.Coin <= needed.Coin+floor {
			idx := pool.Len() - 1
			u := pool.At(idx)
			selected.Push(u)
			selectedValue = value.Add(selectedValue, u.Output.Value)
			pool.RemoveBySwap(idx)
		}
		break
	}

	if selectedValue.Coin < needed.Coin && len(reservoir) > 0 {
		smallestIdx := 0
		for i, u := range reservoir {
			if u.Output.Value.Coin < reservoir[smallestIdx].Output.Value.Coin {
				smallestIdx = i
			}
		}
		u := reservoir[smallestIdx]
		selected.Push(u)
		selectedValue = value.Add(selectedValue, u.Output.Value)
	}

	if value.Compare(selectedValue, needed) == value.Less ||
		value.Compare(selectedValue, needed) == value.Incomparable {
		return Result{}, fmt.Errorf(
			"%w: selected %+v does not cover needed %+v",
			errs.ErrInsufficientFunds,
			selectedValue,
			needed,
		)
	}

	refs := make([]utxo.InputRef, 0, selected.Len())
	seen := map[utxo.InputRef]struct{}{}
	for _, u := range selected.Items() {
		if _, dup := seen[u.Input]; dup {
			return Result{}, fmt.Errorf(
				"%w: duplicate input ref %s in selection",
				errs.ErrInternalInvariant,
				u.Input,
			)
		}
		seen[u.Input] = struct{}{}
		refs = append(refs, u.Input)
		if opts.CollateralExclude != nil && u.Input == *opts.CollateralExclude {
			return Result{}, fmt.Errorf(
				"%w: collateral UTxO %s selected as input",
				errs.ErrInternalInvariant,
				u.Input,
			)
		}
	}

	return Result{InputRefs: refs, Selected: selected}, nil
}

func cloneTokenMap(m map[string]map[string]uint64) map[string]map[string]uint64 {
	out := make(map[string]map[string]uint64, len(m))
	for policy, names := range m {
		nm := make(map[string]uint64, len(names))
		for name, qty := range names {
			nm[name] = qty
		}
		out[policy] = nm
	}
	return out
}

func tokenMapSatisfied(m map[string]map[string]uint64) bool {
	for _, names := range m {
		for _, qty := range names {
			if qty > 0 {
				return false
			}
		}
	}
	return true
}

func contributesToNeeded(v value.Value, stillNeeded map[string]map[string]uint64) bool {
	for policy, names := range stillNeeded {
		for name, qty := range names {
			if qty > 0 && v.Get(policy, name) > 0 {
				return true
			}
		}
	}
	return false
}

func subtractContribution(stillNeeded map[string]map[string]uint64, v value.Value) {
	for policy, names := range stillNeeded {
		for name, qty := range names {
			have := v.Get(policy, name)
			if have >= qty {
				names[name] = 0
			} else {
				names[name] = qty - have
			}
		}
	}
}

// optimizeOnAssets implements §4.2 step 2's "optimize_on_assets": if the
// tokens accumulated so far exceed the needed amounts by an amount exactly
// matching a single still-available UTxO, that UTxO is redundant and is
// dropped back into the remaining pool instead of being selected.
func optimizeOnAssets(
	selected *utxo.Container,
	remainingMultiAsset *utxo.Container,
	required map[string]map[string]uint64,
	selectedValue *value.Value,
) {
	// Compute current surplus per asset.
	surplus := map[string]map[string]uint64{}
	for policy, names := range required {
		for name, need := range names {
			have := selectedValue.Get(policy, name)
			if have > need {
				if surplus[policy] == nil {
					surplus[policy] = map[string]uint64{}
				}
				surplus[policy][name] = have - need
			}
		}
	}
	if len(surplus) == 0 {
		return
	}
	for i := 0; i < selected.Len(); i++ {
		u := selected.At(i)
		redundant := true
		any := false
		for policy, names := range u.Output.Value.Assets {
			for name, qty := range names {
				any = true
				if surplus[policy] == nil || surplus[policy][name] != qty {
					redundant = false
				}
			}
		}
		if redundant && any {
			selected.RemoveBySwap(i)
			remainingMultiAsset.Push(u)
			*selectedValue = value.ClampedSub(*selectedValue, u.Output.Value)
			return
		}
	}
}

// drawOne implements §4.2 step 5's per-draw rule: ada_only first, else
// multi_asset; prefer the smallest UTxO within overheadPct of still-needed,
// else the smallest with <=21 asset entries that exceeds still-needed.
func drawOne(
	adaOnly, multiAsset *utxo.Container,
	stillNeededCoin uint64,
	overheadPct int,
) (utxo.UnspentOutput, *utxo.Container, bool) {
	for _, pool := range []*utxo.Container{adaOnly, multiAsset} {
		if u, ok := findWithinOverhead(pool, stillNeededCoin, overheadPct); ok {
			return u, pool, true
		}
	}
	for _, pool := range []*utxo.Container{adaOnly, multiAsset} {
		if u, ok := findSmallestExceedingWithFewAssets(pool, stillNeededCoin); ok {
			return u, pool, true
		}
	}
	return utxo.UnspentOutput{}, nil, false
}

func findWithinOverhead(pool *utxo.Container, stillNeeded uint64, overheadPct int) (utxo.UnspentOutput, bool) {
	best := -1
	for i := 0; i < pool.Len(); i++ {
		coin := pool.At(i).Output.Value.Coin
		if coin < stillNeeded {
			continue
		}
		maxAllowed := stillNeeded + (stillNeeded*uint64(overheadPct))/100
		if coin > maxAllowed {
			continue
		}
		if best < 0 || coin < pool.At(best).Output.Value.Coin {
			best = i
		}
	}
	if best < 0 {
		return utxo.UnspentOutput{}, false
	}
	return pool.At(best), true
}

func findSmallestExceedingWithFewAssets(pool *utxo.Container, stillNeeded uint64) (utxo.UnspentOutput, bool) {
	best := -1
	for i := 0; i < pool.Len(); i++ {
		u := pool.At(i)
		if u.Output.Value.Coin <= stillNeeded {
			continue
		}
		if u.Output.Value.AssetCount() > maxMultiAssetEntriesForQuickTake {
			continue
		}
		if best < 0 || u.Output.Value.Coin < pool.At(best).Output.Value.Coin {
			best = i
		}
	}
	if best < 0 {
		return utxo.UnspentOutput{}, false
	}
	return pool.At(best), true
}

func largestCoinIndex(pool *utxo.Container) int {
	best := 0
	for i := 1; i < pool.Len(); i++ {
		if pool.At(i).Output.Value.Coin > pool.At(best).Output.Value.Coin {
			best = i
		}
	}
	return best
}

func removeFirstMatch(pool *utxo.Container, target utxo.UnspentOutput) {
	if pool == nil {
		return
	}
	idx := pool.FindIndexOf(target.Input)
	if idx >= 0 {
		pool.RemoveBySwap(idx)
	}
}
