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

// Package submit implements §4.7's submission fan-out: parallel POST of
// the signed transaction CBOR to N configured endpoints, any-success
// semantics with a per-endpoint timeout. Grounded on the teacher's
// internal/txsubmit package, which POSTed raw CBOR with the same
// application/cbor content type and checked for a 202 response before
// this generalization to a reusable fan-out over an arbitrary endpoint
// list.
package submit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/blinklabs-io/shai/internal/errs"
)

const contentType = "application/cbor"
const acceptedStatus = http.StatusAccepted

// endpointRateLimit caps each submission endpoint at one attempt per
// interval, so a flapping relay doesn't get hammered by retried builds
// faster than it can respond.
const endpointRateLimit = rate.Limit(2) // 2 req/s
const endpointBurst = 4

// Client fans a raw transaction CBOR payload out to multiple
// submission endpoints, one rate limiter per endpoint.
type Client struct {
	Endpoints []string
	Timeout   time.Duration
	HTTP      *http.Client

	limiters map[string]*rate.Limiter
}

// NewClient builds a Client with the package's default http.Client,
// matching the teacher's use of http.DefaultClient for outbound POSTs.
func NewClient(endpoints []string, timeout time.Duration) *Client {
	limiters := make(map[string]*rate.Limiter, len(endpoints))
	for _, e := range endpoints {
		limiters[e] = rate.NewLimiter(endpointRateLimit, endpointBurst)
	}
	return &Client{
		Endpoints: endpoints,
		Timeout:   timeout,
		HTTP:      http.DefaultClient,
		limiters:  limiters,
	}
}

type endpointResult struct {
	endpoint string
	txHash   string
	err      error
}

// Submit POSTs txCbor to every configured endpoint in parallel and
// succeeds as soon as one returns 202 with a body matching
// expectedTxHash, per §4.7. If none succeed, it returns a single error
// concatenating every endpoint's failure.
func Submit(ctx context.Context, client *Client, txCbor []byte, expectedTxHash string) (string, error) {
	if len(client.Endpoints) == 0 {
		return "", fmt.Errorf("%w: no submit endpoints configured", errs.ErrSubmitRejected)
	}

	results := make(chan endpointResult, len(client.Endpoints))
	var wg sync.WaitGroup

	for _, endpoint := range client.Endpoints {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			results <- postOne(ctx, client, endpoint, txCbor, expectedTxHash)
		}(endpoint)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var failures []string
	for res := range results {
		if res.err == nil {
			return res.txHash, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %s", res.endpoint, res.err))
	}

	return "", fmt.Errorf("%w: %s", errs.ErrSubmitRejected, strings.Join(failures, "; "))
}

func postOne(ctx context.Context, client *Client, endpoint string, txCbor []byte, expectedTxHash string) endpointResult {
	reqCtx, cancel := context.WithTimeout(ctx, client.Timeout)
	defer cancel()

	if limiter, ok := client.limiters[endpoint]; ok {
		if err := limiter.Wait(reqCtx); err != nil {
			return endpointResult{endpoint: endpoint, err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(txCbor))
	if err != nil {
		return endpointResult{endpoint: endpoint, err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.HTTP.Do(req)
	if err != nil {
		return endpointResult{endpoint: endpoint, err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return endpointResult{endpoint: endpoint, err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != acceptedStatus {
		return endpointResult{
			endpoint: endpoint,
			err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	gotHash := strings.TrimSpace(string(body))
	if expectedTxHash != "" && gotHash != expectedTxHash {
		return endpointResult{
			endpoint: endpoint,
			err:      fmt.Errorf("returned hash %q does not match expected %q", gotHash, expectedTxHash),
		}
	}

	return endpointResult{endpoint: endpoint, txHash: gotHash}
}
