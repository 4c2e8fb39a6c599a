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

// Package errs defines the closed set of error kinds the transaction
// builder core can return, so callers (and the intake layer) can branch on
// kind instead of matching error strings.
package errs

import "errors"

// Sentinel errors for the core's closed error enum. Component functions
// wrap these with fmt.Errorf("...: %w", Sentinel) so errors.Is still
// matches after context is attached.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrImbalancedTokens    = errors.New("imbalanced tokens")
	ErrDustChange          = errors.New("dust change")
	ErrMaxValueExceeded    = errors.New("max value exceeded")
	ErrContractLookupFailed = errors.New("contract lookup failed")
	ErrKeyLookupFailed     = errors.New("key lookup failed")
	ErrChainQueryFailed    = errors.New("chain query failed")
	ErrRewardUnavailable   = errors.New("reward unavailable")
	ErrLedgerUnavailable   = errors.New("consumed-utxo ledger unavailable")
	ErrSubmitRejected      = errors.New("submit rejected")
	ErrTimeout             = errors.New("timeout")
	ErrInternalInvariant   = errors.New("internal invariant violated")
)

// Kind returns the sentinel (if any) that err wraps, for callers that want
// to branch on error class (e.g. the intake layer picking an ERROR: frame).
func Kind(err error) error {
	for _, sentinel := range []error{
		ErrInvalidInput,
		ErrInsufficientFunds,
		ErrImbalancedTokens,
		ErrDustChange,
		ErrMaxValueExceeded,
		ErrContractLookupFailed,
		ErrKeyLookupFailed,
		ErrChainQueryFailed,
		ErrRewardUnavailable,
		ErrLedgerUnavailable,
		ErrSubmitRejected,
		ErrTimeout,
		ErrInternalInvariant,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
