// Copyright 2025 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package proof provides cryptographic proof generation and verification
// for Accumulate account states using the production-ready implementation.
package proof

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"gitlab.com/accumulatenetwork/accumulate/pkg/database/merkle"
	"gitlab.com/accumulatenetwork/accumulate/pkg/url"
	"github.com/certen/tls-oracle/accumulate-lite-client-2/liteclient/proof/production-proof/core"
	"github.com/certen/tls-oracle/accumulate-lite-client-2/liteclient/types"
)

// CompleteProof represents a complete cryptographic proof chain from
// account state to network consensus following Paul Snow's healing pattern.
type CompleteProof struct {
	// Layer 1: Account → BPT
	AccountHash []byte          `json:"accountHash"`
	BPTProof    *merkle.Receipt `json:"bptProof"`

	// Layer 2: BPT → Block
	BPTRoot     []byte `json:"bptRoot"`
	BlockHeight uint64 `json:"blockHeight"`
	BlockHash   []byte `json:"blockHash"`

	// Layer 3: Block → Validators (when API available)
	ValidatorProof *ConsensusProof `json:"validatorProof,omitempty"`

	// Layer 4: Validators → Genesis (future)
	TrustChain []ValidatorTransition `json:"trustChain,omitempty"`

	// Combined proof receipt
	CombinedReceipt *merkle.Receipt `json:"combinedReceipt"`

	// Proof path components (for healing pattern)
	MainChainProof *merkle.Receipt  `json:"mainChainProof"`
	BVNAnchorProof *PartitionAnchor `json:"bvnAnchorProof"`
	DNAnchorProof  *PartitionAnchor `json:"dnAnchorProof"`
}

// ConsensusProof represents Layer 3 consensus verification
type ConsensusProof struct {
	BlockHeight uint64               `json:"blockHeight"`
	BlockHash   []byte               `json:"blockHash"`
	ChainID     string               `json:"chainId"`
	Round       int32                `json:"round"`
	Validators  []ValidatorInfo      `json:"validators"`
	Signatures  []ValidatorSignature `json:"signatures"`
	TotalPower  int64                `json:"totalPower"`
	SignedPower int64                `json:"signedPower"`
}

// ValidatorInfo represents a validator's public information
type ValidatorInfo struct {
	Address     []byte `json:"address"`
	PublicKey   []byte `json:"publicKey"`
	VotingPower int64  `json:"votingPower"`
}

// ValidatorSignature represents a validator's signature on a block
type ValidatorSignature struct {
	ValidatorAddress []byte `json:"validatorAddress"`
	Signature        []byte `json:"signature"`
	Timestamp        int64  `json:"timestamp"`
}

// ValidatorTransition represents a validator set change
type ValidatorTransition struct {
	FromHeight    uint64          `json:"fromHeight"`
	ToHeight      uint64          `json:"toHeight"`
	OldValidators []ValidatorInfo `json:"oldValidators"`
	NewValidators []ValidatorInfo `json:"newValidators"`
	Approvals     int64           `json:"approvals"` // Voting power that approved
}

// PartitionAnchor represents an anchor between partitions
type PartitionAnchor struct {
	SourcePartition string          `json:"sourcePartition"`
	TargetPartition string          `json:"targetPartition"`
	AnchorHash      []byte          `json:"anchorHash"`
	Receipt         *merkle.Receipt `json:"receipt"`
}

// BPTProof represents a BPT inclusion proof
type BPTProof struct {
	Partition string          `json:"partition"`
	Root      []byte          `json:"root"`
	Receipt   *merkle.Receipt `json:"receipt"`
}

// HealingProofGenerator generates complete cryptographic proofs
// using the healing pattern architecture.
type HealingProofGenerator struct {
	backend  types.DataBackend
	verifier *core.CryptographicVerifier
}

// NewHealingProofGenerator creates a new proof generator
func NewHealingProofGenerator(backend types.DataBackend) *HealingProofGenerator {
	return &HealingProofGenerator{
		backend:  backend,
		verifier: core.NewCryptographicVerifier(),
	}
}

// GenerateAccountProof generates a complete cryptographic proof for an account
// following the 6-stage healing pattern.
func (g *HealingProofGenerator) GenerateAccountProof(ctx context.Context, accountURL string) (*CompleteProof, error) {
	// Parse the account URL
	accURL, err := url.Parse(accountURL)
	if err != nil {
		return nil, fmt.Errorf("invalid account URL: %w", err)
	}

	// Use production verifier for Layer 1-2 verification
	verificationResult, err := g.verifier.VerifyAccount(ctx, accURL)
	if err != nil {
		return nil, fmt.Errorf("proof verification failed: %w", err)
	}

	if verificationResult.Error != "" {
		return nil, fmt.Errorf("account proof verification failed: %s", verificationResult.Error)
	}

	if !verificationResult.FullyVerified {
		return nil, fmt.Errorf("account proof not fully verified (trust level: %s)", verificationResult.TrustLevel)
	}

	// Build complete proof from verified layers
	proof := &CompleteProof{}

	// Layer 1: Account → BPT
	if verificationResult.Layer1Result != nil {
		l1 := verificationResult.Layer1Result
		if l1.AccountHash != "" {
			if hash, err := parseHexToBytes(l1.AccountHash); err == nil {
				proof.AccountHash = hash
			}
		}
		if l1.BPTRoot != "" {
			if root, err := parseHexToBytes(l1.BPTRoot); err == nil {
				proof.BPTRoot = root
			}
		}
		// TODO: Build actual BPTProof from API receipt data when available
		// For now we have verified the merkle path but need to extract receipt
		proof.BPTProof = nil // Will be populated when API provides receipt details
	}

	// Layer 2: BPT → Block
	if verificationResult.Layer2Result != nil {
		l2 := verificationResult.Layer2Result
		proof.BlockHeight = uint64(l2.BlockHeight)
		if l2.BlockHash != "" {
			if hash, err := parseHexToBytes(l2.BlockHash); err == nil {
				proof.BlockHash = hash
			}
		}
	}

	// Layer 3: Block → Validators (when available)
	if verificationResult.Layer3Result != nil {
		l3 := verificationResult.Layer3Result
		if l3.Verified && !l3.APILimitation {
			// Build consensus proof from validator signatures
			proof.ValidatorProof = &ConsensusProof{
				BlockHeight: uint64(l3.BlockHeight),
				ChainID:     l3.ChainID,
				Round:       l3.Round,
				TotalPower:  l3.TotalPower,
				SignedPower: l3.SignedPower,
			}

			// Copy block hash
			if len(proof.BlockHash) > 0 {
				proof.ValidatorProof.BlockHash = make([]byte, len(proof.BlockHash))
				copy(proof.ValidatorProof.BlockHash, proof.BlockHash)
			}

			// Convert validator signatures
			for _, valSig := range l3.ValidatorSignatures {
				if valSig.Verified {
					// Decode address from hex
					if addr, err := parseHexToBytes(valSig.Address); err == nil {
						// Decode public key from base64
						if pubKey, err := parseBase64ToBytes(valSig.PubKey); err == nil {
							proof.ValidatorProof.Validators = append(proof.ValidatorProof.Validators, ValidatorInfo{
								Address:     addr,
								PublicKey:   pubKey,
								VotingPower: valSig.VotingPower,
							})
						}
					}
				}
			}
		}
	}

	return proof, nil
}

// VerifyCompleteProof verifies all layers of a complete proof
func VerifyCompleteProof(proof *CompleteProof) error {
	// Layer 1: Verify account state in BPT
	if proof.BPTProof == nil {
		return fmt.Errorf("missing BPT proof")
	}

	// Layer 2: Verify BPT root in block
	if proof.BlockHash == nil {
		return fmt.Errorf("missing block hash")
	}

	// Layer 3: Verify validator signatures (when available)
	if proof.ValidatorProof != nil {
		if proof.ValidatorProof.SignedPower <= proof.ValidatorProof.TotalPower*2/3 {
			return fmt.Errorf("insufficient validator signatures: %d/%d",
				proof.ValidatorProof.SignedPower, proof.ValidatorProof.TotalPower)
		}
	}

	// Layer 4: Verify trust chain (future)
	if len(proof.TrustChain) > 0 {
		// Verify each transition has 2/3+ approval
		for _, transition := range proof.TrustChain {
			if transition.Approvals <= proof.ValidatorProof.TotalPower*2/3 {
				return fmt.Errorf("invalid validator transition at height %d",
					transition.FromHeight)
			}
		}
	}

	return nil
}

// parseHexToBytes safely converts hex string to bytes
func parseHexToBytes(hexStr string) ([]byte, error) {
	// Remove 0x prefix if present
	if len(hexStr) > 2 && hexStr[0:2] == "0x" {
		hexStr = hexStr[2:]
	}
	return hex.DecodeString(hexStr)
}

// parseBase64ToBytes safely converts base64 string to bytes
func parseBase64ToBytes(b64Str string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64Str)
}
