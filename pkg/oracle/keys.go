// Copyright 2025 Certen Protocol

package oracle

import "encoding/binary"

// KV is the storage interface the registry is built on. Implementations
// (see pkg/oraclestore) are responsible only for byte storage; all
// encoding/decoding happens in this package.
//
// CONCURRENCY: Registry assumes single-writer
// access from whatever thread applies committed transactions. Concurrent
// callers must serialize their own access; Registry performs no locking.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// Key layout. Each collection lives under a disjoint prefix so that a
// migration can rebind to a parallel v2 set without colliding with
// existing data (see Migrate).
var (
	keyMeta             = []byte("oracle:v1:meta")        // -> registryMeta (owner, count)
	keyNotaryPrefix      = []byte("oracle:v1:notary:")     // + pubkeyHash -> NotaryRecord
	keyAttestPrefix      = []byte("oracle:v1:attestation:") // + big-endian id -> AttestationRecord
	keyBySourcePrefix    = []byte("oracle:v1:bysource:")    // + serverName -> []uint64 (ids, ascending)
	keyUsedCommitPrefix  = []byte("oracle:v1:usedcommit:")  // + commitment decimal string -> presence marker

	keyMetaV2           = []byte("oracle:v2:meta")
	keyNotaryPrefixV2   = []byte("oracle:v2:notary:")
	keyAttestPrefixV2   = []byte("oracle:v2:attestation:")
	keyBySourcePrefixV2 = []byte("oracle:v2:bysource:")
	keyUsedCommitV2     = []byte("oracle:v2:usedcommit:")

	keyMigrated = []byte("oracle:v2:migrated") // presence marks Migrate as already run

	// keyGeneration selects which prefix set (v1 or v2) is currently
	// active. It lives outside both prefix sets so Migrate can flip it
	// without touching either collection.
	keyGeneration = []byte("oracle:generation")
)

// generationPrefixes bundles one generation's key prefixes.
type generationPrefixes struct {
	meta       []byte
	notary     []byte
	attest     []byte
	bySource   []byte
	usedCommit []byte
}

var genV1 = generationPrefixes{keyMeta, keyNotaryPrefix, keyAttestPrefix, keyBySourcePrefix, keyUsedCommitPrefix}
var genV2 = generationPrefixes{keyMetaV2, keyNotaryPrefixV2, keyAttestPrefixV2, keyBySourcePrefixV2, keyUsedCommitV2}

func notaryKey(prefix []byte, pubkeyHash string) []byte {
	return append(append([]byte{}, prefix...), []byte(pubkeyHash)...)
}

func attestationKey(prefix []byte, id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return append(append([]byte{}, prefix...), b...)
}

func bySourceKey(prefix []byte, serverName string) []byte {
	return append(append([]byte{}, prefix...), []byte(serverName)...)
}

func usedCommitKey(prefix []byte, commitment string) []byte {
	return append(append([]byte{}, prefix...), []byte(commitment)...)
}
