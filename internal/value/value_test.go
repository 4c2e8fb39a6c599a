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

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenValue(coin uint64, policy, name string, qty uint64) Value {
	v := New(coin)
	v.set(policy, name, qty)
	return v
}

func TestAddCommutativeAssociative(t *testing.T) {
	a := tokenValue(10, "p1", "n1", 5)
	b := tokenValue(20, "p1", "n1", 3)
	c := tokenValue(30, "p2", "n2", 1)

	assert.Equal(t, Add(a, b), Add(b, a))
	assert.Equal(t, Add(Add(a, b), c), Add(a, Add(b, c)))
}

func TestCheckedSubInverseOfAdd(t *testing.T) {
	a := tokenValue(10, "p1", "n1", 5)
	b := tokenValue(3, "p1", "n1", 2)

	sum := Add(a, b)
	back, err := CheckedSub(sum, b)
	require.NoError(t, err)
	assert.Equal(t, a.Coin, back.Coin)
	assert.Equal(t, a.Get("p1", "n1"), back.Get("p1", "n1"))
}

func TestCheckedSubUnderflow(t *testing.T) {
	a := New(5)
	b := New(10)
	_, err := CheckedSub(a, b)
	require.Error(t, err)
}

func TestClampedSubSaturatesAtZero(t *testing.T) {
	a := tokenValue(5, "p1", "n1", 2)
	b := tokenValue(10, "p1", "n1", 5)

	out := ClampedSub(a, b)
	assert.Equal(t, uint64(0), out.Coin)
	assert.Equal(t, uint64(0), out.Get("p1", "n1"))
}

func TestClampedSubCoordinateLaw(t *testing.T) {
	// clamped_sub(a, b) + (b - min(a,b)) = max(a,b), coordinate-wise.
	a := New(7)
	b := New(12)

	clamped := ClampedSub(a, b)
	minAB := a.Coin
	if b.Coin < minAB {
		minAB = b.Coin
	}
	maxAB := a.Coin
	if b.Coin > maxAB {
		maxAB = b.Coin
	}
	assert.Equal(t, maxAB, clamped.Coin+(b.Coin-minAB))
}

func TestCompare(t *testing.T) {
	a := New(5)
	b := New(10)
	assert.Equal(t, Less, Compare(a, b))
	assert.Equal(t, Greater, Compare(b, a))
	assert.Equal(t, Equal, Compare(a, a))

	c := tokenValue(5, "p1", "n1", 5)
	d := tokenValue(5, "p2", "n2", 5)
	assert.Equal(t, Incomparable, Compare(c, d))
}

func TestZeroAssetEntriesPruned(t *testing.T) {
	v := tokenValue(0, "p1", "n1", 5)
	v.set("p1", "n1", 0)
	assert.Empty(t, v.Assets)
}

func TestMinAdaForOutputCurrentFixedPoint(t *testing.T) {
	// Output size grows by at most a couple of bytes as coin widens; the
	// estimator here mimics a CBOR uint that grows at each width boundary
	// (24, 256, 65536).
	sizeFor := func(coin uint64) int {
		base := 40
		switch {
		case coin < 24:
			return base
		case coin < 256:
			return base + 1
		case coin < 65536:
			return base + 2
		default:
			return base + 4
		}
	}
	estimate := func(candidate uint64) (int, error) {
		return sizeFor(candidate), nil
	}

	got, err := MinAdaForOutputCurrent(estimate, 4310, 0)
	require.NoError(t, err)

	finalSize := sizeFor(got)
	required := uint64(finalSize+160) * 4310
	assert.GreaterOrEqual(t, got, required)
}

func TestMinAdaForOutputCurrentRejectsOversizeValue(t *testing.T) {
	estimate := func(candidate uint64) (int, error) {
		return MaxValueSize + 1, nil
	}
	_, err := MinAdaForOutputCurrent(estimate, 4310, 0)
	require.Error(t, err)
}

func TestMinAdaMonotoneOnExtraAsset(t *testing.T) {
	base := MinAdaLegacy(0, 0, 0, 0)
	withAsset := MinAdaLegacy(0, 1, 4, 28)
	assert.GreaterOrEqual(t, withAsset, base)

	withMoreAssets := MinAdaLegacy(0, 2, 8, 28)
	assert.GreaterOrEqual(t, withMoreAssets, withAsset)
}
