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

package submit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/shai/internal/errs"
)

func acceptingServer(t *testing.T, hash string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, contentType, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(hash))
	}))
}

func rejectingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("rejected"))
	}))
}

func TestSubmitSucceedsIfAnyEndpointAccepts(t *testing.T) {
	bad := rejectingServer(t)
	defer bad.Close()
	good := acceptingServer(t, "txhash123")
	defer good.Close()

	client := NewClient([]string{bad.URL, good.URL}, time.Second)
	hash, err := Submit(context.Background(), client, []byte{0xAA}, "txhash123")
	require.NoError(t, err)
	assert.Equal(t, "txhash123", hash)
}

func TestSubmitFailsWhenAllEndpointsReject(t *testing.T) {
	bad1 := rejectingServer(t)
	defer bad1.Close()
	bad2 := rejectingServer(t)
	defer bad2.Close()

	client := NewClient([]string{bad1.URL, bad2.URL}, time.Second)
	_, err := Submit(context.Background(), client, []byte{0xAA}, "txhash123")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSubmitRejected)
}

func TestSubmitNoEndpointsConfigured(t *testing.T) {
	client := NewClient(nil, time.Second)
	_, err := Submit(context.Background(), client, []byte{0xAA}, "txhash123")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSubmitRejected)
}

func TestSubmitRejectsHashMismatch(t *testing.T) {
	server := acceptingServer(t, "wronghash")
	defer server.Close()

	client := NewClient([]string{server.URL}, time.Second)
	_, err := Submit(context.Background(), client, []byte{0xAA}, "expectedhash")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSubmitRejected)
}

func TestSubmitTimesOutSlowEndpoint(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer slow.Close()

	client := NewClient([]string{slow.URL}, 20*time.Millisecond)
	_, err := Submit(context.Background(), client, []byte{0xAA}, "txhash123")
	require.Error(t, err)
}
