// Copyright 2025 Certen Protocol

package oraclestore

import (
	"fmt"
	"os"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/certen/tls-oracle/pkg/kvdb"
)

// OpenLevelDB opens (creating if necessary) a LevelDB-backed oracle.KV under
// dir/name.db, reusing the validator's existing cometbft-db KV adapter
// rather than writing a second one. This is the committed-state store the
// ABCI host (pkg/host) binds to in Commit.
func OpenLevelDB(name, dir string) (*kvdb.KVAdapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("oraclestore: creating db directory: %w", err)
	}
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, fmt.Errorf("oraclestore: opening leveldb: %w", err)
	}
	return kvdb.NewKVAdapter(db), nil
}
