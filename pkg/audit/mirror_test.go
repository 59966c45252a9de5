// Copyright 2025 Certen Protocol

package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/certen/tls-oracle/pkg/firestore"
	"github.com/certen/tls-oracle/pkg/oracle"
)

func TestRecordAcceptedNoopWhenDisabled(t *testing.T) {
	client, err := firestore.NewClient(context.Background(), &firestore.ClientConfig{Enabled: false})
	require.NoError(t, err)

	m := NewMirror(client, "", nil)
	require.False(t, m.IsEnabled())

	err = m.RecordAccepted(context.Background(), oracle.AttestationRecord{ID: 1, SourceURL: "https://example.com"})
	require.NoError(t, err)
}

func TestComputeEntryHashIsDeterministic(t *testing.T) {
	e := &Entry{AttestationID: 1, SourceURL: "https://example.com", DataCommitment: "123"}
	require.Equal(t, computeEntryHash(e), computeEntryHash(e))

	other := *e
	other.DataCommitment = "456"
	require.NotEqual(t, computeEntryHash(e), computeEntryHash(&other))
}
