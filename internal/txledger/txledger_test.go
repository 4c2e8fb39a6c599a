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

// Ledger tests require a reachable Redis instance (REDIS_DB_URL_UTXOMIND
// or localhost:6379) and skip themselves otherwise, matching the
// pack's convention of gating infra-backed tests on a live dependency
// rather than mocking the wire protocol.
package txledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/shai/internal/utxo"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	url := os.Getenv("REDIS_DB_URL_UTXOMIND")
	if url == "" {
		url = "redis://127.0.0.1:6379/0"
	}
	l, err := New(url, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := l.client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %s", url, err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func mkRef(t *testing.T, idx uint32) utxo.InputRef {
	t.Helper()
	ref, err := utxo.NewInputRefFromHex(
		"dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd",
		idx,
	)
	require.NoError(t, err)
	return ref
}

func TestRecordThenCheckAnyUTxOUsed(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	ref := mkRef(t, 0)
	require.NoError(t, l.Record(ctx, "deadbeef", []utxo.InputRef{ref}))

	txHash, found, err := l.MarkUsedGet(ctx, ref)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "deadbeef", txHash)
}

func TestMarkUsedForgetReleasesBothKeyspaces(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	ref := mkRef(t, 1)
	require.NoError(t, l.Record(ctx, "cafebabe", []utxo.InputRef{ref}))
	require.NoError(t, l.MarkUsedForget(ctx, "cafebabe"))

	_, found, err := l.MarkUsedGet(ctx, ref)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRemoveUsedUTxOsFiltersContainer(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	usedRef := mkRef(t, 2)
	freeRef := mkRef(t, 3)
	require.NoError(t, l.Record(ctx, "f00dcafe", []utxo.InputRef{usedRef}))

	c := utxo.NewContainer(
		utxo.UnspentOutput{Input: usedRef},
		utxo.UnspentOutput{Input: freeRef},
	)
	require.NoError(t, l.RemoveUsedUTxOs(ctx, c))
	require.Equal(t, 1, c.Len())
	_, ok := c.FindByInputRef(freeRef)
	require.True(t, ok)
}
