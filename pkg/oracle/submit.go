// Copyright 2025 Certen Protocol

package oracle

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Submit validates and, if every check passes, appends a new attestation.
// The checks run in the exact order described in the external interfaces;
// the first failure returns immediately and performs no storage writes, so
// a failed submission never mutates state.
func (r *Registry) Submit(req SubmitRequest) (uint64, error) {
	g := r.gen()
	meta, err := r.loadMeta()
	if err != nil {
		return 0, err
	}

	// 1. size limits
	if len(req.ResponseData) > maxResponseBytes {
		return 0, ErrResponseTooLarge
	}
	if len(req.SourceURL) > maxSourceURLBytes {
		return 0, ErrSourceURLTooLarge
	}

	// 2. freshness window
	if req.Timestamp > req.NowUnix+futureToleranceSecs {
		return 0, ErrFutureTimestamp
	}
	if req.Timestamp+maxAttestationAgeSecs < req.NowUnix {
		return 0, ErrStaleTimestamp
	}

	// 3. positional integrity: publicSignals[2] must equal timestamp
	if stripNonDigits(string(req.Public.Timestamp)) != strconv.FormatInt(req.Timestamp, 10) {
		return 0, ErrTimestampMismatch
	}

	// 4. notary lookup
	notary, err := r.getNotary(g, string(req.Public.NotaryPubkeyHash))
	if err != nil {
		return 0, ErrUnknownNotary
	}

	// 5. replay check
	commitment := string(req.Public.DataCommitment)
	if used, err := r.kv.Get(usedCommitKey(g.usedCommit, commitment)); err == nil && len(used) > 0 {
		return 0, ErrReplay
	}

	// 6. notary signature
	if err := verifySignature(notary, req.SigHex, req.SigV, req.SourceURL, req.ServerName, req.Timestamp, req.ResponseData); err != nil {
		return 0, err
	}

	// 7-8. decode proof (decoding happens inside verifyGroth16) and verify
	proof := Proof{A: req.ProofA, B: req.ProofB, C: req.ProofC}
	ok, err := verifyGroth16(r.vk, proof, req.Public)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrInvalidProof
	}

	// 9. mark commitment used
	if err := r.kv.Set(usedCommitKey(g.usedCommit, commitment), []byte{1}); err != nil {
		return 0, fmt.Errorf("oracle: recording used commitment: %w", err)
	}

	// 10. assign id, store, index by source
	id := meta.Count
	rec := AttestationRecord{
		ID:               id,
		SourceURL:        req.SourceURL,
		ServerName:       req.ServerName,
		Timestamp:        req.Timestamp,
		ResponseData:     req.ResponseData,
		DataCommitment:   commitment,
		ServerNameHash:   string(req.Public.ServerNameHash),
		NotaryPubkeyHash: string(req.Public.NotaryPubkeyHash),
		Submitter:        req.Submitter,
		BlockHeight:      req.BlockHeight,
		SigVerified:      true,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("oracle: encoding attestation record: %w", err)
	}
	if err := r.kv.Set(attestationKey(g.attest, id), b); err != nil {
		return 0, fmt.Errorf("oracle: storing attestation: %w", err)
	}

	if err := r.appendSourceIndex(g, req.ServerName, id); err != nil {
		return 0, fmt.Errorf("oracle: updating source index: %w", err)
	}

	meta.Count = id + 1
	if err := r.saveMeta(g, meta); err != nil {
		return 0, fmt.Errorf("oracle: updating registry meta: %w", err)
	}

	return id, nil
}

// stripNonDigits drops every non-digit rune, so publicSignals[2] can be
// compared against the submitted timestamp even if the proof generator
// decorated the decimal string. Leading zeros are kept, so a zero-padded
// value does not match.
func stripNonDigits(s string) string {
	out := make([]byte, 0, len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			out = append(out, byte(ch))
		}
	}
	return string(out)
}

func (r *Registry) appendSourceIndex(g generationPrefixes, serverName string, id uint64) error {
	key := bySourceKey(g.bySource, serverName)
	b, err := r.kv.Get(key)
	var ids []uint64
	if err == nil && len(b) > 0 {
		if err := json.Unmarshal(b, &ids); err != nil {
			return fmt.Errorf("oracle: decoding source index: %w", err)
		}
	}
	ids = append(ids, id)
	nb, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.kv.Set(key, nb)
}

// GetAttestation fetches a single attestation by id.
func (r *Registry) GetAttestation(id uint64) (AttestationRecord, error) {
	g := r.gen()
	b, err := r.kv.Get(attestationKey(g.attest, id))
	if err != nil || len(b) == 0 {
		return AttestationRecord{}, ErrNotFound
	}
	var rec AttestationRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return AttestationRecord{}, fmt.Errorf("oracle: decoding attestation record: %w", err)
	}
	return rec, nil
}

// GetAttestations walks ids downward from fromIndex (default count-1),
// collecting up to limit (default 20, capped at 100) records, stopping at
// id 0 inclusive.
func (r *Registry) GetAttestations(fromIndex *uint64, limit *int) ([]AttestationRecord, error) {
	g := r.gen()
	meta, err := r.loadMeta()
	if err != nil {
		return nil, err
	}
	if meta.Count == 0 {
		return nil, nil
	}

	from := meta.Count - 1
	if fromIndex != nil {
		from = *fromIndex
	}
	n := defaultListLimit
	if limit != nil {
		n = *limit
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([]AttestationRecord, 0, n)
	for i := from; ; i-- {
		rec, err := r.GetAttestation(i)
		if err == nil {
			out = append(out, rec)
			if len(out) >= n {
				break
			}
		}
		if i == 0 {
			break
		}
	}
	return out, nil
}

// GetAttestationsBySource returns, most recent first, up to limit
// (default 20, capped 100) attestation records for serverName.
func (r *Registry) GetAttestationsBySource(serverName string, limit *int) ([]AttestationRecord, error) {
	g := r.gen()
	b, err := r.kv.Get(bySourceKey(g.bySource, serverName))
	if err != nil || len(b) == 0 {
		return nil, nil
	}
	var ids []uint64
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("oracle: decoding source index: %w", err)
	}

	n := defaultListLimit
	if limit != nil {
		n = *limit
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([]AttestationRecord, 0, n)
	for i := len(ids) - 1; i >= 0 && len(out) < n; i-- {
		rec, err := r.GetAttestation(ids[i])
		if err == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// RegistryStats summarizes the registry for operator/dashboard queries.
type RegistryStats struct {
	AttestationCount uint64 `json:"attestationCount"`
	NotaryCount      int    `json:"notaryCount"`
	Owner            string `json:"owner"`
}

// GetStats returns a summary of the registry's current size and owner.
func (r *Registry) GetStats() (RegistryStats, error) {
	meta, err := r.loadMeta()
	if err != nil {
		return RegistryStats{}, err
	}
	notaries, err := r.GetNotaries()
	if err != nil {
		return RegistryStats{}, err
	}
	return RegistryStats{AttestationCount: meta.Count, NotaryCount: len(notaries), Owner: meta.Owner}, nil
}
