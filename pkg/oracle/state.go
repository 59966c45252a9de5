// Copyright 2025 Certen Protocol

package oracle

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	maxResponseBytes = 4096
	maxSourceURLBytes = 2048
	futureToleranceSecs = 60
	maxAttestationAgeSecs = 600
	defaultListLimit = 20
	maxListLimit     = 100
)

// registryMeta is the small persisted header: owner and next-id counter.
type registryMeta struct {
	Owner string `json:"owner"`
	Count uint64 `json:"count"`
}

// Registry is the attestation state machine (C4). It wraps a KV store and
// exposes the admin and submission operations described in the external
// interfaces. Registry holds one other piece of state besides the KV
// reference: the verification key it checks submitted proofs against.
// Production code gets embeddedVerificationKey() by default; tests may
// override it via WithVerificationKey to check against a real,
// freshly-compiled circuit (see internal/circuitfixture).
type Registry struct {
	kv KV
	vk VerificationKey
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithVerificationKey overrides the embedded verification key. Intended for
// tests; production hosts should rely on the default.
func WithVerificationKey(vk VerificationKey) RegistryOption {
	return func(r *Registry) { r.vk = vk }
}

// NewRegistry wraps an existing KV store. It does not itself initialize the
// registry — call Init for that.
func NewRegistry(kv KV, opts ...RegistryOption) *Registry {
	r := &Registry{kv: kv, vk: embeddedVerificationKey()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) gen() generationPrefixes {
	v, err := r.kv.Get(keyGeneration)
	if err == nil && len(v) == 1 && v[0] == 2 {
		return genV2
	}
	return genV1
}

func (r *Registry) loadMeta() (*registryMeta, error) {
	b, err := r.kv.Get(r.gen().meta)
	if err != nil || len(b) == 0 {
		return nil, ErrNotInitialized
	}
	var m registryMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("oracle: decoding registry meta: %w", err)
	}
	return &m, nil
}

func (r *Registry) saveMeta(g generationPrefixes, m *registryMeta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("oracle: encoding registry meta: %w", err)
	}
	return r.kv.Set(g.meta, b)
}

// Init creates the registry with the given owner principal. It fails if the
// registry already has a meta record.
func (r *Registry) Init(owner string) error {
	if _, err := r.loadMeta(); err == nil {
		return ErrAlreadyInitialized
	}
	return r.saveMeta(genV1, &registryMeta{Owner: owner, Count: 0})
}

// Migrate reinitializes the registry's collections under a fresh storage
// namespace (the v2 prefix set), orphaning all prior data. It is one-shot:
// a second call fails with ErrAlreadyMigrated rather than re-orphaning data
// again (see the "Open question" design note and SPEC_FULL.md §13, which
// resolves it this way since the original contract never implemented this
// hook at all).
func (r *Registry) Migrate(caller string) error {
	meta, err := r.loadMeta()
	if err != nil {
		return err
	}
	if caller != meta.Owner {
		return ErrNotOwner
	}
	if b, err := r.kv.Get(keyMigrated); err == nil && len(b) > 0 {
		return ErrAlreadyMigrated
	}
	if err := r.saveMeta(genV2, &registryMeta{Owner: meta.Owner, Count: 0}); err != nil {
		return err
	}
	if err := r.kv.Set(keyMigrated, []byte{1}); err != nil {
		return err
	}
	return r.kv.Set(keyGeneration, []byte{2})
}

// GetOwner returns the current owner principal.
func (r *Registry) GetOwner() (string, error) {
	m, err := r.loadMeta()
	if err != nil {
		return "", err
	}
	return m.Owner, nil
}

// SetOwner reassigns the owner principal. Only the current owner may call
// this.
func (r *Registry) SetOwner(caller, newOwner string) error {
	g := r.gen()
	m, err := r.loadMeta()
	if err != nil {
		return err
	}
	if caller != m.Owner {
		return ErrNotOwner
	}
	m.Owner = newOwner
	return r.saveMeta(g, m)
}

// AddNotary registers or updates a notary. rawPubkeyHex, if non-empty, must
// be exactly 128 hex characters (64 raw bytes); it upserts Name, URL, and
// (when supplied) RawPubkey in place if the hash already exists.
func (r *Registry) AddNotary(caller, pubkeyHash, name, url, rawPubkeyHex string, blockHeight uint64) error {
	g := r.gen()
	m, err := r.loadMeta()
	if err != nil {
		return err
	}
	if caller != m.Owner {
		return ErrNotOwner
	}
	if pubkeyHash == "" {
		return fmt.Errorf("%w: pubkeyHash is required", ErrInvalidArgument)
	}

	rec := NotaryRecord{PubkeyHash: pubkeyHash, Name: name, URL: url, AddedBy: caller, AddedAtBlock: blockHeight}
	if existing, err := r.getNotary(g, pubkeyHash); err == nil {
		rec.RawPubkey = existing.RawPubkey
		rec.AddedBy = existing.AddedBy
		rec.AddedAtBlock = existing.AddedAtBlock
	}
	if rawPubkeyHex != "" {
		if len(rawPubkeyHex) != 128 {
			return fmt.Errorf("%w: rawPubkey must be 128 hex characters", ErrInvalidArgument)
		}
		raw, err := hex.DecodeString(rawPubkeyHex)
		if err != nil {
			return fmt.Errorf("%w: rawPubkey is not valid hex: %v", ErrInvalidArgument, err)
		}
		rec.RawPubkey = raw
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("oracle: encoding notary record: %w", err)
	}
	if err := r.kv.Set(notaryKey(g.notary, pubkeyHash), b); err != nil {
		return err
	}
	return r.recordNotaryIndex(g, pubkeyHash)
}

// RemoveNotary deletes a notary registration. It does not retroactively
// invalidate attestations already accepted under that notary.
func (r *Registry) RemoveNotary(caller, pubkeyHash string) error {
	g := r.gen()
	m, err := r.loadMeta()
	if err != nil {
		return err
	}
	if caller != m.Owner {
		return ErrNotOwner
	}
	// The KV interface has no delete; an empty value is treated as absent
	// by getNotary, matching the rest of this package's miss-is-empty
	// convention.
	return r.kv.Set(notaryKey(g.notary, pubkeyHash), nil)
}

func (r *Registry) getNotary(g generationPrefixes, pubkeyHash string) (NotaryRecord, error) {
	b, err := r.kv.Get(notaryKey(g.notary, pubkeyHash))
	if err != nil || len(b) == 0 {
		return NotaryRecord{}, ErrNotFound
	}
	var rec NotaryRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return NotaryRecord{}, fmt.Errorf("oracle: decoding notary record: %w", err)
	}
	return rec, nil
}

// GetNotaries lists all registered notaries. It is a simple scan; the
// registry does not index notaries for enumeration beyond this.
func (r *Registry) GetNotaries() ([]NotaryRecord, error) {
	g := r.gen()
	idx, err := r.loadNotaryIndex(g)
	if err != nil {
		return nil, err
	}
	out := make([]NotaryRecord, 0, len(idx))
	for _, hash := range idx {
		rec, err := r.getNotary(g, hash)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// loadNotaryIndex and its sibling recordNotaryIndex keep a flat list of
// every pubkeyHash ever added, so GetNotaries can enumerate without a
// range-scan capable KV. AddNotary calls recordNotaryIndex; it is
// idempotent (append-if-absent).
func (r *Registry) loadNotaryIndex(g generationPrefixes) ([]string, error) {
	b, err := r.kv.Get(append(append([]byte{}, g.notary...), []byte("__index")...))
	if err != nil || len(b) == 0 {
		return nil, nil
	}
	var idx []string
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, fmt.Errorf("oracle: decoding notary index: %w", err)
	}
	return idx, nil
}

func (r *Registry) recordNotaryIndex(g generationPrefixes, pubkeyHash string) error {
	idx, err := r.loadNotaryIndex(g)
	if err != nil {
		return err
	}
	for _, h := range idx {
		if h == pubkeyHash {
			return nil
		}
	}
	idx = append(idx, pubkeyHash)
	b, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	return r.kv.Set(append(append([]byte{}, g.notary...), []byte("__index")...), b)
}
