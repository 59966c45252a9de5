// Copyright 2025 Certen Protocol

// Package audit mirrors accepted attestations into Firestore as a
// hash-chained, append-only log, so an operator can inspect recent oracle
// activity from the same real-time UI the validator's own audit trail
// feeds, without granting that UI read access to the LevelDB state file.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/certen/tls-oracle/pkg/firestore"
	"github.com/certen/tls-oracle/pkg/oracle"
)

// Entry is one hash-chained audit record for an accepted attestation.
type Entry struct {
	EntryID          string    `firestore:"-"`
	AttestationID    uint64    `firestore:"attestationId"`
	SourceURL        string    `firestore:"sourceUrl"`
	ServerName       string    `firestore:"serverName"`
	DataCommitment   string    `firestore:"dataCommitment"`
	NotaryPubkeyHash string    `firestore:"notaryPubkeyHash"`
	Submitter        string    `firestore:"submitter"`
	BlockHeight      uint64    `firestore:"blockHeight"`
	Timestamp        time.Time `firestore:"timestamp"`
	PreviousHash     string    `firestore:"previousHash"`
	EntryHash        string    `firestore:"entryHash"`
}

// Mirror appends accepted attestations to a Firestore collection.
type Mirror struct {
	client     *firestore.Client
	collection string
	logger     *log.Logger
}

// NewMirror builds a Mirror over an existing Firestore client. Pass a
// disabled client (firestore.Client built with Enabled: false) to get a
// no-op mirror suitable for local development.
func NewMirror(client *firestore.Client, collection string, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.New(log.Writer(), "[audit] ", log.LstdFlags)
	}
	if collection == "" {
		collection = "oracle_attestations"
	}
	return &Mirror{client: client, collection: collection, logger: logger}
}

// IsEnabled reports whether the underlying Firestore client will actually
// perform writes.
func (m *Mirror) IsEnabled() bool {
	return m.client != nil && m.client.IsEnabled()
}

// RecordAccepted appends one hash-chained entry for rec. It is a no-op,
// not an error, when the mirror is disabled.
func (m *Mirror) RecordAccepted(ctx context.Context, rec oracle.AttestationRecord) error {
	if !m.IsEnabled() {
		m.logger.Printf("audit mirror disabled - skipping attestation %d", rec.ID)
		return nil
	}

	previousHash, err := m.latestHash(ctx)
	if err != nil {
		m.logger.Printf("audit: reading previous hash: %v (continuing with empty chain head)", err)
	}

	entry := &Entry{
		EntryID:          uuid.New().String(),
		AttestationID:    rec.ID,
		SourceURL:        rec.SourceURL,
		ServerName:       rec.ServerName,
		DataCommitment:   rec.DataCommitment,
		NotaryPubkeyHash: rec.NotaryPubkeyHash,
		Submitter:        rec.Submitter,
		BlockHeight:      rec.BlockHeight,
		Timestamp:        time.Now(),
		PreviousHash:     previousHash,
	}
	entry.EntryHash = computeEntryHash(entry)

	_, err = m.client.Collection(m.collection).Doc(entry.EntryID).Set(ctx, entry)
	if err != nil {
		return fmt.Errorf("audit: writing entry for attestation %d: %w", rec.ID, err)
	}
	return nil
}

func (m *Mirror) latestHash(ctx context.Context) (string, error) {
	docs, err := m.client.Collection(m.collection).OrderBy("timestamp", gcpfirestore.Desc).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}
	var e Entry
	if err := docs[0].DataTo(&e); err != nil {
		return "", err
	}
	return e.EntryHash, nil
}

func computeEntryHash(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%d|%d|%s",
		e.AttestationID, e.SourceURL, e.ServerName, e.DataCommitment, e.NotaryPubkeyHash,
		e.Submitter, e.BlockHeight, e.Timestamp.Unix(), e.PreviousHash)
	return hex.EncodeToString(h.Sum(nil))
}
