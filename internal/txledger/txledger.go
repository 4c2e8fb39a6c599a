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

// Package txledger implements §4.6's Consumed-UTxO Ledger: the single
// cross-request synchronization point, backed by Redis per §6's
// REDIS_DB_URL_UTXOMIND/REDIS_CLUSTER configuration. Grounded on
// original_source/libs/murin/src/utxomngr/mod.rs, which keeps the same
// dual keyspace (tx_hash -> [input_ref] and input_ref -> tx_hash) with
// a bounded TTL and transactional per-tx_hash writes.
package txledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blinklabs-io/shai/internal/errs"
	"github.com/blinklabs-io/shai/internal/utxo"
)

const (
	usedKeyPrefix = "used" // used:<tx_id>:<index> -> <tx_hash>
	txKeyPrefix   = "tx"   // tx:<tx_hash> -> set of "<tx_id>:<index>"
)

// Ledger is the Redis-backed Consumed-UTxO Ledger. The zero value is
// not usable; build one with New or NewCluster.
type Ledger struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New builds a Ledger against a single Redis instance named by a
// redis:// URL, per the non-cluster branch of REDIS_CLUSTER.
func New(redisURL string, ttl time.Duration) (*Ledger, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("txledger: parsing redis url: %w", err)
	}
	return &Ledger{client: redis.NewClient(opts), ttl: ttl}, nil
}

// NewCluster builds a Ledger against a Redis Cluster deployment, per
// REDIS_CLUSTER=true.
func NewCluster(addrs []string, ttl time.Duration) *Ledger {
	client := redis.NewClusterClient(&redis.ClusterOptions{Addrs: addrs})
	return &Ledger{client: client, ttl: ttl}
}

// refMember renders ref as "<tx_id>:<index>", the form stored in the tx:
// set and appended to the used: prefix.
func refMember(ref utxo.InputRef) string {
	return fmt.Sprintf("%x:%d", ref.TxID, ref.Index)
}

func usedKey(ref utxo.InputRef) string {
	return fmt.Sprintf("%s:%s", usedKeyPrefix, refMember(ref))
}

func txKey(txHash string) string {
	return fmt.Sprintf("%s:%s", txKeyPrefix, txHash)
}

// Record implements §4.6's `record(tx_hash, used_utxos)`: a
// transactional write of both keyspaces, guarded by a Redis
// transaction (WATCH/MULTI/EXEC) so either the whole set is recorded
// or none is.
func (l *Ledger) Record(ctx context.Context, txHash string, used []utxo.InputRef) error {
	if len(used) == 0 {
		return nil
	}

	txFn := func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			refStrs := make([]string, 0, len(used))
			for _, ref := range used {
				refStr := refMember(ref)
				refStrs = append(refStrs, refStr)
				pipe.Set(ctx, usedKey(ref), txHash, l.ttl)
			}
			pipe.SAdd(ctx, txKey(txHash), toAnySlice(refStrs)...)
			pipe.Expire(ctx, txKey(txHash), l.ttl)
			return nil
		})
		return err
	}

	if err := l.client.Watch(ctx, txFn); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrLedgerUnavailable, err)
	}
	return nil
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// MarkUsedGet implements `mark_used_get(utxo) -> Option<tx_hash>`.
func (l *Ledger) MarkUsedGet(ctx context.Context, ref utxo.InputRef) (string, bool, error) {
	txHash, err := l.client.Get(ctx, usedKey(ref)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %s", errs.ErrLedgerUnavailable, err)
	}
	return txHash, true, nil
}

// MarkUsedForget implements `mark_used_forget(tx_hash)`: explicit
// acknowledgment that tx_hash confirmed on-chain, releasing both
// keyspaces early instead of waiting out the TTL.
func (l *Ledger) MarkUsedForget(ctx context.Context, txHash string) error {
	members, err := l.client.SMembers(ctx, txKey(txHash)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("%w: %s", errs.ErrLedgerUnavailable, err)
	}

	pipe := l.client.TxPipeline()
	for _, m := range members {
		pipe.Del(ctx, fmt.Sprintf("%s:%s", usedKeyPrefix, m))
	}
	pipe.Del(ctx, txKey(txHash))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrLedgerUnavailable, err)
	}
	return nil
}

// RemoveUsedUTxOs implements `remove_used_utxos(from container)`: it
// looks up c's refs with CheckAnyUTxOUsed below and deletes the in-flight
// ones from c. cmd/txbuildd's build handler runs this lookup before
// selection, per §4.6's policy.
func (l *Ledger) RemoveUsedUTxOs(ctx context.Context, c *utxo.Container) error {
	usedRefs, err := l.CheckAnyUTxOUsed(ctx, c)
	if err != nil {
		return err
	}
	if len(usedRefs) == 0 {
		return nil
	}
	toDelete := map[utxo.InputRef]struct{}{}
	for _, ref := range usedRefs {
		toDelete[ref] = struct{}{}
	}
	c.DeleteSet(toDelete)
	return nil
}

// CheckAnyUTxOUsed returns the subset of c's input refs already marked
// in-flight. A Ledger outage surfaces as ErrLedgerUnavailable; callers
// MUST NOT treat that as "free to spend" (§4.6's failure policy).
func (l *Ledger) CheckAnyUTxOUsed(ctx context.Context, c *utxo.Container) ([]utxo.InputRef, error) {
	var used []utxo.InputRef
	for _, u := range c.Items() {
		_, found, err := l.MarkUsedGet(ctx, u.Input)
		if err != nil {
			return nil, err
		}
		if found {
			used = append(used, u.Input)
		}
	}
	return used, nil
}

// Close releases the underlying Redis connection(s).
func (l *Ledger) Close() error {
	return l.client.Close()
}

// IsTransientUnavailable reports whether err represents a transient
// Redis outage rather than a definitive answer, matching §4.6's
// "transient unavailability returns unknown" contract.
func IsTransientUnavailable(err error) bool {
	return errors.Is(err, errs.ErrLedgerUnavailable)
}
