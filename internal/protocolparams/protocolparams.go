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

// Package protocolparams loads the Cardano protocol parameter JSON file
// named in §6 and caches it in-process, reloading when the file's mtime
// advances (§9's design note: "read on every build is acceptable but
// fragile; prefer an in-process cached copy with a reload-on-mtime
// policy"). Grounded on internal/storage.Storage's embedded-Badger
// "open once, reuse the handle" lifecycle from the teacher, adapted here
// to a file cache instead of a KV handle.
package protocolparams

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// ExecutionUnitPrices carries the per-unit cost of Plutus script
// execution, per §6.
type ExecutionUnitPrices struct {
	PriceSteps float64 `json:"priceSteps"`
	PriceMemory float64 `json:"priceMemory"`
}

// Params is the subset of the protocol parameter file the core
// consumes, per §6.
type Params struct {
	TxFeePerByte        uint64              `json:"tx_fee_per_byte"`
	TxFeeFixed          uint64              `json:"tx_fee_fixed"`
	ExecutionUnitPrices ExecutionUnitPrices `json:"execution_unit_prices"`
	UtxoCostPerByte     uint64              `json:"utxo_cost_per_byte"`
	MaxValueSize        uint64              `json:"max_value_size"`
	MaxTxSize           uint64              `json:"max_tx_size"`
	CostModels          json.RawMessage     `json:"cost_models"`
}

// Cache is an in-process, mtime-invalidated cache of a single protocol
// parameter file. The zero value is not usable; build one with New.
type Cache struct {
	path string

	mu       sync.RWMutex
	loadedAt time.Time
	modTime  time.Time
	params   Params
}

// New builds a Cache bound to path. The file is not read until the
// first Get call, matching the teacher's lazy-open-on-first-use idiom
// in internal/storage.
func New(path string) *Cache {
	return &Cache{path: path}
}

// Get returns the current parameters, reloading from disk if the file's
// mtime has advanced since the last load or if nothing has been loaded
// yet.
func (c *Cache) Get() (Params, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return Params{}, fmt.Errorf("protocolparams: stat %s: %w", c.path, err)
	}

	c.mu.RLock()
	stale := c.loadedAt.IsZero() || info.ModTime().After(c.modTime)
	current := c.params
	c.mu.RUnlock()

	if !stale {
		return current, nil
	}

	return c.reload(info.ModTime())
}

func (c *Cache) reload(modTime time.Time) (Params, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return Params{}, fmt.Errorf("protocolparams: read %s: %w", c.path, err)
	}

	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return Params{}, fmt.Errorf("protocolparams: parse %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.params = p
	c.modTime = modTime
	c.loadedAt = time.Now()
	c.mu.Unlock()

	return p, nil
}
