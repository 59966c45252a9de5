// Copyright 2025 Certen Protocol

package reporting

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/certen/tls-oracle/pkg/oracle"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	connStr := os.Getenv("ORACLE_TEST_REPORTING_DSN")
	if connStr == "" {
		os.Exit(0)
	}
	var err error
	testDB, err = sql.Open("postgres", connStr)
	if err != nil {
		panic("reporting: failed to connect to test database: " + err.Error())
	}
	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{DSN: os.Getenv("ORACLE_TEST_REPORTING_DSN")})
	require.NoError(t, err)
	require.NoError(t, c.Migrate(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMirrorAttestationRoundTrip(t *testing.T) {
	if testDB == nil {
		t.Skip("ORACLE_TEST_REPORTING_DSN not set")
	}
	c := newTestClient(t)
	rec := oracle.AttestationRecord{
		ID:               1,
		SourceURL:        "https://example.com/page",
		ServerName:       "example.com",
		Timestamp:        time.Now().Unix(),
		ResponseData:     []byte("payload"),
		DataCommitment:   "123",
		ServerNameHash:   "456",
		NotaryPubkeyHash: "789",
		Submitter:        "alice",
		BlockHeight:      42,
		SigVerified:      true,
	}
	require.NoError(t, c.MirrorAttestation(context.Background(), rec))
	require.NoError(t, c.MirrorAttestation(context.Background(), rec)) // idempotent on conflict

	got, err := c.AttestationsByServerName(context.Background(), "example.com", time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, rec.DataCommitment, got[0].DataCommitment)
}
