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

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/shai/internal/config"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	cfg := config.GetConfig()
	cfg.Storage.Directory = t.TempDir()
	s := &Storage{}
	require.NoError(t, s.Load())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Set("k1", []byte("v1"), 0))

	got, found, err := s.Get("k1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1", string(got))
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStorage(t)
	_, found, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestSeenRequestDedup(t *testing.T) {
	s := newTestStorage(t)

	seen, err := s.SeenRequest(1, "req-a", time.Minute)
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = s.SeenRequest(1, "req-a", time.Minute)
	require.NoError(t, err)
	require.True(t, seen)

	seen, err = s.SeenRequest(2, "req-a", time.Minute)
	require.NoError(t, err)
	require.False(t, seen, "different customer id must not share dedup state")
}
