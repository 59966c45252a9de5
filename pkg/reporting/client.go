// Copyright 2025 Certen Protocol

// Package reporting mirrors accepted attestations into Postgres so
// operators can run ad-hoc SQL/analytics queries the LevelDB-backed
// oracle.KV store cannot serve. It is an optional, best-effort sink: the
// oracle's KV store remains the source of truth, and a reporting outage
// never blocks Submit.
package reporting

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/certen/tls-oracle/pkg/oracle"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client wraps a pooled Postgres connection mirroring the attestation log.
type Client struct {
	db     *sql.DB
	logger *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// Config bundles the connection-pool parameters a reporting mirror needs.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewClient opens a pooled connection to dsn and verifies it with a ping.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("reporting: DSN cannot be empty")
	}
	c := &Client{logger: log.New(log.Writer(), "[reporting] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(c)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("reporting: opening database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	c.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("reporting: pinging database: %w", err)
	}
	c.logger.Printf("connected to reporting database (max_open=%d, max_idle=%d)", cfg.MaxOpenConns, cfg.MaxIdleConns)
	return c, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Migrate applies every embedded migrations/*.sql file in lexical order.
// It is idempotent: each migration is expected to use IF NOT EXISTS.
func (c *Client) Migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reporting: reading embedded migrations: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reporting: reading migration %s: %w", entry.Name(), err)
		}
		if _, err := c.db.ExecContext(ctx, string(raw)); err != nil {
			return fmt.Errorf("reporting: applying migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// MirrorAttestation upserts one accepted attestation row. Call it from the
// ABCI host right after a successful FinalizeBlock TxSubmit; errors here are
// logged by the caller and never roll back the authoritative KV commit.
func (c *Client) MirrorAttestation(ctx context.Context, rec oracle.AttestationRecord) error {
	const query = `
		INSERT INTO attestations (
			id, source_url, server_name, timestamp, response_data,
			data_commitment, server_name_hash, notary_pubkey_hash,
			submitter, block_height, sig_verified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID, rec.SourceURL, rec.ServerName, rec.Timestamp, rec.ResponseData,
		rec.DataCommitment, rec.ServerNameHash, rec.NotaryPubkeyHash,
		rec.Submitter, rec.BlockHeight, rec.SigVerified,
	)
	if err != nil {
		return fmt.Errorf("reporting: mirroring attestation %d: %w", rec.ID, err)
	}
	return nil
}

// AttestationsByServerName supports the "which attestations did we accept for
// this host" analytics query the KV store's flat indices cannot answer
// efficiently (it would require scanning every source-name bucket).
func (c *Client) AttestationsByServerName(ctx context.Context, serverName string, since time.Time) ([]oracle.AttestationRecord, error) {
	const query = `
		SELECT id, source_url, server_name, timestamp, response_data,
			data_commitment, server_name_hash, notary_pubkey_hash,
			submitter, block_height, sig_verified
		FROM attestations
		WHERE server_name = $1 AND timestamp >= $2
		ORDER BY timestamp DESC`
	rows, err := c.db.QueryContext(ctx, query, serverName, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("reporting: querying attestations by server name: %w", err)
	}
	defer rows.Close()

	var out []oracle.AttestationRecord
	for rows.Next() {
		var rec oracle.AttestationRecord
		if err := rows.Scan(
			&rec.ID, &rec.SourceURL, &rec.ServerName, &rec.Timestamp, &rec.ResponseData,
			&rec.DataCommitment, &rec.ServerNameHash, &rec.NotaryPubkeyHash,
			&rec.Submitter, &rec.BlockHeight, &rec.SigVerified,
		); err != nil {
			return nil, fmt.Errorf("reporting: scanning attestation row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
