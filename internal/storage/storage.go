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

// Package storage wraps the embedded Badger store the core keeps
// locally for concerns that do not belong in the shared Redis
// Consumed-UTxO Ledger (internal/txledger): inbound requests are
// deduplicated here (SeenRequest) so a retried intake request does not
// trigger a second build. The protocol-parameter cache does not use
// this store. This is the teacher's own storage.Storage, narrowed from
// its chain-indexer duties (out of core scope per the request
// intake/indexer boundary) to this one local-cache role.
package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/shai/internal/config"
	"github.com/blinklabs-io/shai/internal/logging"

	"github.com/dgraph-io/badger/v4"
)

type Storage struct {
	db *badger.DB
}

var globalStorage = &Storage{}

func (s *Storage) Load() error {
	cfg := config.GetConfig()
	badgerOpts := badger.DefaultOptions(cfg.Storage.Directory).
		WithLogger(NewBadgerLogger()).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Set writes key/val with an optional TTL (zero means no expiry).
func (s *Storage) Set(key string, val []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), val)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get reads key, returning (nil, false) if absent.
func (s *Storage) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			out = append([]byte{}, v...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// SeenRequest marks customerID+requestID as handled for ttl and
// reports whether it had already been seen, giving the intake layer
// request-level idempotency independent of the Consumed-UTxO Ledger's
// input-level dedup.
func (s *Storage) SeenRequest(customerID uint64, requestID string, ttl time.Duration) (alreadySeen bool, err error) {
	key := fmt.Sprintf("seen_req_%d_%s", customerID, requestID)
	_, found, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if found {
		return true, nil
	}
	if err := s.Set(key, []byte{1}, ttl); err != nil {
		return false, err
	}
	return false, nil
}

func GetStorage() *Storage {
	return globalStorage
}

// BadgerLogger adapts the core's slog logger to Badger's expected
// logging interface.
type BadgerLogger struct {
	logger *slog.Logger
}

func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{logger: logging.GetLogger()}
}

func (b *BadgerLogger) Errorf(msg string, args ...any) {
	b.logger.Error(fmt.Sprintf(msg, args...))
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.logger.Warn(fmt.Sprintf(msg, args...))
}

func (b *BadgerLogger) Infof(msg string, args ...any) {
	b.logger.Info(fmt.Sprintf(msg, args...))
}

func (b *BadgerLogger) Debugf(msg string, args ...any) {
	b.logger.Debug(fmt.Sprintf(msg, args...))
}
