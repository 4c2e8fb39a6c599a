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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/shai/internal/value"
)

func mkUTxO(t *testing.T, idx uint32, addr string, coin uint64) UnspentOutput {
	t.Helper()
	ref, err := NewInputRefFromHex(
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		idx,
	)
	require.NoError(t, err)
	return UnspentOutput{
		Input: ref,
		Output: Output{
			Address: addr,
			Value:   value.New(coin),
		},
	}
}

func TestContainerPushLenAt(t *testing.T) {
	c := NewContainer()
	u := mkUTxO(t, 0, "addr1", 5_000_000)
	c.Push(u)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.At(0).Equal(u))
}

func TestContainerFindByInputRef(t *testing.T) {
	c := NewContainer()
	u1 := mkUTxO(t, 0, "addr1", 1)
	u2 := mkUTxO(t, 1, "addr1", 2)
	c.Push(u1)
	c.Push(u2)

	found, ok := c.FindByInputRef(u2.Input)
	require.True(t, ok)
	assert.Equal(t, u2.Output.Value.Coin, found.Output.Value.Coin)

	_, ok = c.FindByInputRef(mkUTxO(t, 9, "addr1", 0).Input)
	assert.False(t, ok)
}

func TestContainerRemoveBySwap(t *testing.T) {
	c := NewContainer(mkUTxO(t, 0, "a", 1), mkUTxO(t, 1, "a", 2), mkUTxO(t, 2, "a", 3))
	c.RemoveBySwap(0)
	require.Equal(t, 2, c.Len())
	// index 0 now holds what was the last element (coin=3)
	assert.Equal(t, uint64(3), c.At(0).Output.Value.Coin)
}

func TestContainerDeleteSet(t *testing.T) {
	u1 := mkUTxO(t, 0, "a", 1)
	u2 := mkUTxO(t, 1, "a", 2)
	u3 := mkUTxO(t, 2, "a", 3)
	c := NewContainer(u1, u2, u3)
	c.DeleteSet(map[InputRef]struct{}{u2.Input: {}})
	require.Equal(t, 2, c.Len())
	_, ok := c.FindByInputRef(u2.Input)
	assert.False(t, ok)
}

func TestContainerSortByCoin(t *testing.T) {
	c := NewContainer(mkUTxO(t, 0, "a", 30), mkUTxO(t, 1, "a", 10), mkUTxO(t, 2, "a", 20))
	c.SortByCoin()
	assert.Equal(t, uint64(10), c.At(0).Output.Value.Coin)
	assert.Equal(t, uint64(20), c.At(1).Output.Value.Coin)
	assert.Equal(t, uint64(30), c.At(2).Output.Value.Coin)
}

func TestContainerPartition(t *testing.T) {
	adaOnlyUTxO := mkUTxO(t, 0, "a", 10)
	multiUTxO := mkUTxO(t, 1, "a", 5)
	multiUTxO.Output.Value.Assets = map[string]map[string]uint64{
		"aa": {"bb": 1},
	}
	c := NewContainer(adaOnlyUTxO, multiUTxO)
	adaOnly, multiAsset := c.Partition()
	require.Equal(t, 1, adaOnly.Len())
	require.Equal(t, 1, multiAsset.Len())
	assert.Equal(t, uint64(10), adaOnly.At(0).Output.Value.Coin)
}

func TestContainerFilterByValueBand(t *testing.T) {
	c := NewContainer(mkUTxO(t, 0, "a", 100), mkUTxO(t, 1, "a", 140), mkUTxO(t, 2, "a", 200))
	band := c.FilterByValueBand(100, 50) // [50, 150]
	require.Equal(t, 2, band.Len())
}

func TestContainerEncodeDecodeRoundTrip(t *testing.T) {
	u1 := mkUTxO(t, 0, "addr1", 5_000_000)
	u2 := mkUTxO(t, 1, "addr2", 3_000_000)
	u2.Output.Value.Assets = map[string]map[string]uint64{
		"aabbcc": {"7465737400": 42},
	}
	c := NewContainer(u1, u2)

	encoded, err := c.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	require.Equal(t, c.Len(), decoded.Len())
	got1, ok := decoded.FindByInputRef(u1.Input)
	require.True(t, ok)
	assert.Equal(t, u1.Output.Value.Coin, got1.Output.Value.Coin)

	got2, ok := decoded.FindByInputRef(u2.Input)
	require.True(t, ok)
	assert.Equal(t, uint64(42), got2.Output.Value.Get("aabbcc", "7465737400"))
}
