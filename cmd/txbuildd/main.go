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

// Command txbuildd runs the transaction-construction HTTP service: it
// wires the intake envelope to the per-operation Plan constructors in
// internal/assemblers, drives the Builder Loop, and records consumed
// inputs in the Consumed-UTxO Ledger before fanning the result out to
// submission. Grounded on the teacher's cmd/shai/main.go's flag/config/
// logging bootstrap shape.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/blinklabs-io/shai/internal/assemblers"
	"github.com/blinklabs-io/shai/internal/builder"
	"github.com/blinklabs-io/shai/internal/config"
	"github.com/blinklabs-io/shai/internal/errs"
	"github.com/blinklabs-io/shai/internal/intake"
	"github.com/blinklabs-io/shai/internal/logging"
	"github.com/blinklabs-io/shai/internal/protocolparams"
	"github.com/blinklabs-io/shai/internal/splitter"
	"github.com/blinklabs-io/shai/internal/storage"
	"github.com/blinklabs-io/shai/internal/submit"
	"github.com/blinklabs-io/shai/internal/txledger"
	"github.com/blinklabs-io/shai/internal/walletutxo"
)

const programVersion = "0.1.0"

var cmdlineFlags struct {
	configFile string
	version    bool
}

// server bundles the long-lived collaborators every /build request
// needs, built once at startup.
type server struct {
	logger *slog.Logger
	params *protocolparams.Cache
	ledger *txledger.Ledger
	submit *submit.Client
	store  *storage.Storage
	cfg    *config.Config
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.BoolVar(&cmdlineFlags.version, "version", false, "show version")
	flag.Parse()

	if cmdlineFlags.version {
		fmt.Printf("txbuildd %s\n", programVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("failed to load config: %s\n", err)
		os.Exit(1)
	}

	logging.Configure()
	logger := logging.GetLogger()

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		logger.Warn("failed to set GOMAXPROCS", "error", err)
	}

	store := storage.GetStorage()
	if err := store.Load(); err != nil {
		logger.Error("failed to open local storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ledger, err := newLedger(cfg)
	if err != nil {
		logger.Error("failed to connect to consumed-utxo ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	srv := &server{
		logger: logger,
		params: protocolparams.New(cfg.Protocol.ParameterPath),
		ledger: ledger,
		submit: submit.NewClient(cfg.Submit.Endpoints(), time.Duration(cfg.Submit.TimeoutMs)*time.Millisecond),
		store:  store,
		cfg:    cfg,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Post("/build", srv.handleBuild)
	mux.Post("/submit", srv.handleSubmit)
	mux.Get("/healthz", srv.handleHealthz)

	if cfg.Debug.ListenPort > 0 {
		logger.Info("starting debug listener", "address", cfg.Debug.ListenAddress, "port", cfg.Debug.ListenPort)
		go func() {
			addr := fmt.Sprintf("%s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Error("debug listener stopped", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)
	logger.Info("starting build listener", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("build listener stopped", "error", err)
		os.Exit(1)
	}
}

func newLedger(cfg *config.Config) (*txledger.Ledger, error) {
	ttl := time.Duration(cfg.Ledger.TtlHours) * time.Hour
	if cfg.Ledger.Cluster {
		return txledger.NewCluster([]string{cfg.Ledger.RedisURL}, ttl), nil
	}
	return txledger.New(cfg.Ledger.RedisURL, ttl)
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req intake.RequestEnvelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", errs.ErrInvalidInput, err))
		return
	}

	out, err := s.build(r.Context(), req)
	if err != nil {
		s.writeError(w, statusForErr(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Error("failed writing response", "error", err)
	}
}

// submitRequest is the wallet's post-signing handoff: the fully
// witnessed transaction CBOR plus the hash it expects a relay to
// confirm, per §4.7.
type submitRequest struct {
	SignedTxCborHex string `json:"signedTxCborHex"`
	ExpectedTxHash  string `json:"expectedTxHash"`
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", errs.ErrInvalidInput, err))
		return
	}

	txCbor, err := hex.DecodeString(req.SignedTxCborHex)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: decoding signed tx hex: %s", errs.ErrInvalidInput, err))
		return
	}

	txHash, err := submit.Submit(r.Context(), s.submit, txCbor, req.ExpectedTxHash)
	if err != nil {
		s.writeError(w, statusForErr(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"txHash": txHash})
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("build request failed", "error", err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "ERROR: %s", err)
}

func statusForErr(err error) int {
	switch errs.Kind(err) {
	case errs.ErrInvalidInput:
		return http.StatusBadRequest
	case errs.ErrInsufficientFunds, errs.ErrImbalancedTokens, errs.ErrDustChange, errs.ErrMaxValueExceeded:
		return http.StatusUnprocessableEntity
	case errs.ErrTimeout, errs.ErrChainQueryFailed, errs.ErrLedgerUnavailable, errs.ErrSubmitRejected:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// build runs one request through decode -> plan -> Builder Loop ->
// Consumed-UTxO Ledger record and returns the unsigned BuildOutput;
// submission is the separate /submit handler.
func (s *server) build(ctx context.Context, req intake.RequestEnvelope) (intake.BuildOutput, error) {
	buildID := uuid.New().String()
	logger := s.logger.With("buildId", buildID, "customerId", req.CustomerID, "subType", req.SubType)

	seen, err := s.store.SeenRequest(req.CustomerID, req.SubType, 24*time.Hour)
	if err != nil {
		return intake.BuildOutput{}, fmt.Errorf("%w: checking request dedup: %s", errs.ErrLedgerUnavailable, err)
	}
	if seen {
		return intake.BuildOutput{}, fmt.Errorf("%w: duplicate request", errs.ErrInvalidInput)
	}

	logger.Info("building transaction", "operation", req.Pattern.Operation.Kind)

	pattern := req.Pattern

	available, err := walletutxo.DecodeAll(pattern.UTXOsHexCBOR)
	if err != nil {
		return intake.BuildOutput{}, fmt.Errorf("%w: %s", errs.ErrInvalidInput, err)
	}

	plan, err := planForOperation(pattern)
	if err != nil {
		return intake.BuildOutput{}, err
	}

	params, err := s.params.Get()
	if err != nil {
		return intake.BuildOutput{}, fmt.Errorf("%w: loading protocol parameters: %s", errs.ErrChainQueryFailed, err)
	}

	domainUTxOs := walletutxo.DomainContainer(available)
	usedAlready, err := s.ledger.CheckAnyUTxOUsed(ctx, domainUTxOs)
	if err != nil {
		return intake.BuildOutput{}, err
	}
	if len(usedAlready) > 0 {
		logger.Info("excluding in-flight utxos", "count", len(usedAlready))
		if err := s.ledger.RemoveUsedUTxOs(ctx, domainUTxOs); err != nil {
			return intake.BuildOutput{}, err
		}
		kept := available[:0]
		for _, d := range available {
			if domainUTxOs.FindIndexOf(d.Domain.Input) >= 0 {
				kept = append(kept, d)
			}
		}
		available = kept
	}

	buildCtx := assemblers.Context{
		Available:      available,
		ChangeAddress:  pattern.ChangeAddress,
		CurrentSlot:    0,
		OverheadPct:    s.cfg.Build.OverheadPct,
		SplitterParams: splitter.Params{UtxoCostPerByte: params.UtxoCostPerByte},
	}

	asm := assemblers.New(buildCtx, plan)
	result, err := builder.Run(params, asm)
	if err != nil {
		return intake.BuildOutput{}, err
	}

	env := intake.NewCBORTransactionEnvelope("unsigned build output", result.Body)
	envBytes, err := json.Marshal(env)
	if err != nil {
		return intake.BuildOutput{}, fmt.Errorf("%w: %s", errs.ErrInternalInvariant, err)
	}

	usedHex := fmt.Sprintf("%x", result.Body[:min(len(result.Body), 32)])
	if err := s.ledger.Record(ctx, usedHex, result.UsedUTxOs); err != nil {
		logger.Warn("failed recording consumed utxos", "error", err)
	}

	logger.Info("transaction built", "usedUtxos", len(result.UsedUTxOs), "txFee", result.TxFee)

	return intake.BuildOutput{
		TxUnsigned: string(envBytes),
		TxBody:     fmt.Sprintf("%x", result.Body),
		Metadata:   fmt.Sprintf("%x", result.AuxData),
	}, nil
}

func planForOperation(pattern intake.TransactionPattern) (assemblers.Plan, error) {
	switch pattern.Operation.Kind {
	case intake.OpStdTx:
		if pattern.Operation.StdTx == nil {
			return assemblers.Plan{}, fmt.Errorf("%w: missing stdTx payload", errs.ErrInvalidInput)
		}
		return assemblers.PlanStdTx(pattern.ChangeAddress, *pattern.Operation.StdTx)
	case intake.OpCPO:
		if pattern.Operation.CPO == nil {
			return assemblers.Plan{}, fmt.Errorf("%w: missing cpo payload", errs.ErrInvalidInput)
		}
		return assemblers.PlanCPO(pattern.ChangeAddress, *pattern.Operation.CPO)
	case intake.OpStakeDelegation:
		return assemblers.PlanStakeDelegation(pattern.ChangeAddress)
	case intake.OpStakeDeregistration:
		return assemblers.PlanStakeDeregistration(pattern.ChangeAddress)
	case intake.OpWmtStaking:
		return assemblers.PlanWmtStaking(pattern.ChangeAddress)
	default:
		// Marketplace, NftShop, Minter, NftCollectionMinter,
		// TokenMinter, NftOffer, SpoRewardClaim, RewardWithdrawal and
		// ClApiOneShotMint all need a resolved ContractLookup/
		// RewardLedger/NFTInventory collaborator, which lives outside
		// this repo's scope (see internal/contracts). Wire a concrete
		// adapter to extend this switch.
		return assemblers.Plan{}, fmt.Errorf(
			"%w: operation %q has no collaborator adapter configured",
			errs.ErrContractLookupFailed,
			pattern.Operation.Kind,
		)
	}
}
