// Copyright 2025 Certen Protocol

// Package anchor periodically Merkle-roots the oracle's accepted
// attestation log and publishes that root to the Accumulate network,
// giving the log an external, tamper-evident checkpoint the same way the
// validator's own on-cadence anchor scheduler checkpoints proof batches.
package anchor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/certen/tls-oracle/pkg/accumulate"
	"github.com/certen/tls-oracle/pkg/merkle"
	"github.com/certen/tls-oracle/pkg/oracle"
)

// Checkpoint is one published anchor: the Merkle root of every attestation
// id in [fromID, toID] and the Accumulate transaction hash it was written
// under.
type Checkpoint struct {
	FromID      uint64    `json:"fromId"`
	ToID        uint64    `json:"toId"`
	MerkleRoot  string    `json:"merkleRoot"`
	AccumulateTxHash string `json:"accumulateTxHash"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Publisher builds a Merkle tree over attestations accepted since the last
// checkpoint and submits the root as a WriteData transaction.
type Publisher struct {
	reg       *oracle.Registry
	client    accumulate.Client
	principal string
	cadence   time.Duration
	logger    *log.Logger

	mu           sync.Mutex
	lastID       uint64
	checkpoints  []Checkpoint
	trees        map[uint64]*merkle.Tree // keyed by Checkpoint.ToID, for InclusionReceipt
	stopChan     chan struct{}
	running      bool
}

// NewPublisher builds a Publisher. principal is the Accumulate data account
// URL the anchor root is written to (e.g. "acc://tls-oracle.acme/anchors").
func NewPublisher(reg *oracle.Registry, client accumulate.Client, principal string, cadence time.Duration, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(log.Writer(), "[anchor] ", log.LstdFlags)
	}
	return &Publisher{
		reg:       reg,
		client:    client,
		principal: principal,
		cadence:   cadence,
		logger:    logger,
		trees:     make(map[uint64]*merkle.Tree),
		stopChan:  make(chan struct{}),
	}
}

// Start runs the on-cadence publish loop until ctx is cancelled or Stop is
// called.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("anchor: publisher already running")
	}
	p.running = true
	p.mu.Unlock()

	ticker := time.NewTicker(p.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stopChan:
			return nil
		case <-ticker.C:
			if _, err := p.PublishOnce(ctx); err != nil {
				p.logger.Printf("anchor: publish failed: %v", err)
			}
		}
	}
}

// Stop ends the publish loop started by Start.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopChan)
}

// PublishOnce builds a Merkle root over every attestation accepted since
// the last checkpoint and writes it to Accumulate. It returns (nil, nil)
// when there is nothing new to anchor.
func (p *Publisher) PublishOnce(ctx context.Context) (*Checkpoint, error) {
	p.mu.Lock()
	fromID := p.lastID + 1
	p.mu.Unlock()

	stats, err := p.reg.GetStats()
	if err != nil {
		return nil, fmt.Errorf("anchor: reading registry stats: %w", err)
	}
	if stats.AttestationCount == 0 || fromID > stats.AttestationCount {
		return nil, nil
	}

	var leaves [][]byte
	for id := fromID; id <= stats.AttestationCount; id++ {
		rec, err := p.reg.GetAttestation(id)
		if err != nil {
			return nil, fmt.Errorf("anchor: loading attestation %d: %w", id, err)
		}
		leaves = append(leaves, attestationLeaf(rec))
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, fmt.Errorf("anchor: building merkle tree: %w", err)
	}

	root := tree.Root()
	txHash, err := p.submitRoot(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("anchor: submitting root: %w", err)
	}

	cp := Checkpoint{
		FromID:           fromID,
		ToID:             stats.AttestationCount,
		MerkleRoot:       hex.EncodeToString(root),
		AccumulateTxHash: txHash,
		PublishedAt:      time.Now(),
	}

	p.mu.Lock()
	p.lastID = stats.AttestationCount
	p.checkpoints = append(p.checkpoints, cp)
	p.trees[cp.ToID] = tree
	p.mu.Unlock()

	p.logger.Printf("anchor: published checkpoint [%d,%d] root=%s tx=%s", cp.FromID, cp.ToID, cp.MerkleRoot, cp.AccumulateTxHash)
	return &cp, nil
}

// Checkpoints returns every checkpoint published so far, oldest first.
func (p *Publisher) Checkpoints() []Checkpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Checkpoint, len(p.checkpoints))
	copy(out, p.checkpoints)
	return out
}

// InclusionReceipt builds a portable Merkle receipt proving that
// attestation id was committed under some published checkpoint's root.
// Unlike Checkpoints, the result needs nothing from this Publisher to
// re-verify: merkle.Receipt.Validate only hashes bytes. Returns an error
// if id hasn't been covered by any checkpoint yet, or its tree was not
// retained (a checkpoint published by a different Publisher instance,
// e.g. after a restart).
func (p *Publisher) InclusionReceipt(id uint64) (*merkle.Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, cp := range p.checkpoints {
		if id < cp.FromID || id > cp.ToID {
			continue
		}
		tree, ok := p.trees[cp.ToID]
		if !ok {
			return nil, fmt.Errorf("anchor: checkpoint [%d,%d] tree not retained", cp.FromID, cp.ToID)
		}
		proof, err := tree.GenerateProof(int(id - cp.FromID))
		if err != nil {
			return nil, fmt.Errorf("anchor: generating inclusion proof for attestation %d: %w", id, err)
		}
		return merkle.FromInclusionProof(proof, cp.ToID), nil
	}
	return nil, fmt.Errorf("anchor: attestation %d has not been anchored in any checkpoint", id)
}

// attestationLeaf hashes the fields of an attestation that matter for
// tamper-evidence: not the full response body (already committed to inside
// the Groth16 proof), but the on-chain-visible summary.
func attestationLeaf(rec oracle.AttestationRecord) []byte {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s", rec.ID, rec.DataCommitment, rec.ServerNameHash, rec.NotaryPubkeyHash)
	sum := h.Sum(nil)
	return sum
}

func (p *Publisher) submitRoot(ctx context.Context, root []byte) (string, error) {
	entry := map[string]interface{}{
		"data": []string{hex.EncodeToString(root)},
	}
	payload, err := json.Marshal(map[string]interface{}{
		"transaction": map[string]interface{}{
			"header": map[string]interface{}{"principal": p.principal},
			"body": map[string]interface{}{
				"type":  "writeData",
				"entry": entry,
			},
		},
		"signatures": []interface{}{},
	})
	if err != nil {
		return "", fmt.Errorf("encoding writeData transaction: %w", err)
	}

	type writeDataSubmitter interface {
		SubmitWriteData(ctx context.Context, principal string, txData []byte) (string, error)
	}
	submitter, ok := p.client.(writeDataSubmitter)
	if !ok {
		return "", fmt.Errorf("accumulate client does not support SubmitWriteData")
	}
	return submitter.SubmitWriteData(ctx, p.principal, payload)
}
