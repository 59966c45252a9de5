// Copyright 2025 Certen Protocol
//
// Package oraclestore provides oracle.KV-compatible storage backends: an
// in-memory map for tests and CheckTx scratch state, and a LevelDB-backed
// store (via the existing cometbft-db adapter) for committed ABCI state.
package oraclestore

import "sync"

// Memory is a simple in-memory oracle.KV, adapted from the validator's own
// inline MemoryKV (see main.go in the original tree). It satisfies
// oracle.KV structurally; no explicit interface assertion is needed.
type Memory struct {
	mu    sync.RWMutex
	store map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{store: make(map[string][]byte)}
}

func (m *Memory) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.store[string(key)]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *Memory) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == nil {
		delete(m.store, string(key))
		return nil
	}
	m.store[string(key)] = append([]byte{}, value...)
	return nil
}

// Snapshot returns a defensive copy of the full key space, for diagnostics
// and for CheckTx state resets in pkg/host.
func (m *Memory) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.store))
	for k, v := range m.store {
		out[k] = append([]byte{}, v...)
	}
	return out
}
