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

// Package contracts defines the three external-collaborator interfaces
// named in §1/§3: Contract Lookup, Reward Ledger, and NFT Inventory.
// Their implementations live outside the core (relational stores, per
// §1's scope boundary); the core only ever consumes borrowed values
// through these contracts and never persists them past a request, per
// §3's ownership rule.
package contracts

import "context"

// ContractDescriptor identifies a script-controlled wallet or a
// native-script multi-sig, per §3.
type ContractDescriptor struct {
	UserID         string
	ContractID     string
	Version        int
	Address        string
	ScriptBlob     []byte
	PolicyID       string
	IsPlutusScript bool
}

// KeyLocation is the set of encrypted private keys, the fee wallet
// address, and the service fee bound to a ContractDescriptor, per §3.
type KeyLocation struct {
	EncryptedVKeyHex string
	EncryptedSKeyHex string
	FeeWalletAddress string
	ServiceFeeLovelace uint64
}

// ContractLookup resolves contract descriptors and key locations. The
// core treats both as borrowed for the duration of a single build.
type ContractLookup interface {
	GetContractDescriptor(ctx context.Context, userID, contractID string) (ContractDescriptor, error)
	GetKeyLocation(ctx context.Context, userID, contractID string) (KeyLocation, error)
}

// RewardEntry is a single claimable reward unit as seen by the Reward
// Ledger, keyed by asset Fingerprint (§3).
type RewardEntry struct {
	Fingerprint string
	PolicyID    string
	AssetName   string
	Earned      uint64
	InVesting   bool
}

// RewardLedger resolves a user's claimable rewards for an SpoRewardClaim
// or RewardWithdrawal operation. Per §8 scenario 6 and §9, vesting
// entries are stripped from the requested set by the Assembler rather
// than by this collaborator; RewardLedger only reports ground truth.
type RewardLedger interface {
	GetRewards(ctx context.Context, userID string, fingerprints []string) ([]RewardEntry, error)
}

// NFTDescriptor is a single mintable/transferable NFT as seen by the
// NFT Inventory, used by Minter/NftCollectionMinter/NftOffer/NftShop
// operations.
type NFTDescriptor struct {
	PolicyID    string
	AssetName   string
	MetadataCBOR []byte
	Royalties   uint64
}

// NFTInventory resolves NFT metadata and royalty terms for mint- and
// marketplace-shaped operations.
type NFTInventory interface {
	GetNFT(ctx context.Context, policyID, assetName string) (NFTDescriptor, error)
	ListCollection(ctx context.Context, policyID string) ([]NFTDescriptor, error)
}
