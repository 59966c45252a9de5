// Copyright 2025 Certen Protocol

package oracle

import (
	"encoding/hex"
	"math/big"
	"sync"
	"testing"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/certen/tls-oracle/internal/circuitfixture"
)

// mapKV is a minimal in-memory KV for exercising Registry without pulling
// in pkg/oraclestore; it mirrors the teacher's own inline MemoryKV.
type mapKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func newMapKV() *mapKV { return &mapKV{m: make(map[string][]byte)} }

func (k *mapKV) Get(key []byte) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.m[string(key)], nil
}

func (k *mapKV) Set(key, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if value == nil {
		delete(k.m, string(key))
		return nil
	}
	k.m[string(key)] = append([]byte{}, value...)
	return nil
}

type harness struct {
	t       *testing.T
	reg     *Registry
	fixture *circuitfixture.Fixture
	owner   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fx, err := circuitfixture.Build()
	require.NoError(t, err)
	vk, err := fx.VerificationKey()
	require.NoError(t, err)

	reg := NewRegistry(newMapKV(), WithVerificationKey(vk))
	require.NoError(t, reg.Init("alice"))

	return &harness{t: t, reg: reg, fixture: fx, owner: "alice"}
}

// buildSubmission produces a real Groth16 proof and a real secp256k1
// signature for a consistent set of fields, registers the notary, and
// returns a ready-to-submit SubmitRequest.
func (h *harness) buildSubmission(now int64, timestampOffset int64) SubmitRequest {
	t := h.t
	key, err := gethcrypto.GenerateKey()
	require.NoError(t, err)
	pub := gethcrypto.FromECDSAPub(&key.PublicKey)
	rawPubkey := pub[1:]
	notaryHash := "77"

	require.NoError(t, h.reg.AddNotary(h.owner, notaryHash, "Example Notary", "https://notary.example", hex.EncodeToString(rawPubkey), 1))

	sourceURL := "https://api.coingecko.com/api/v3/ping"
	serverName := "api.coingecko.com"
	timestamp := now + timestampOffset
	responseData := []byte(`{"gecko_says":"(V3)"}`)

	// secret is derived from the timestamp so repeated calls within one test
	// (e.g. multiple accepted submissions) produce distinct data commitments
	// instead of tripping the replay check against themselves.
	secret := big.NewInt(7 + timestamp%1000003)
	dataCommitment := new(big.Int).Mul(secret, secret)
	serverNameHash := big.NewInt(123456)
	timestampBig := big.NewInt(timestamp)
	notaryPubkeyHashBig, ok := new(big.Int).SetString(notaryHash, 10)
	require.True(t, ok)

	proof, public, err := h.fixture.Prove(secret, dataCommitment, serverNameHash, timestampBig, notaryPubkeyHashBig)
	require.NoError(t, err)

	msg := canonicalMessage(sourceURL, serverName, timestamp, responseData)
	sig, err := gethcrypto.Sign(msg[:], key)
	require.NoError(t, err)

	return SubmitRequest{
		SourceURL:    sourceURL,
		ServerName:   serverName,
		Timestamp:    timestamp,
		ResponseData: responseData,
		ProofA:       proof.A,
		ProofB:       proof.B,
		ProofC:       proof.C,
		Public:       public,
		SigHex:       hex.EncodeToString(sig[:64]),
		SigV:         sig[64],
		Submitter:    "bob",
		BlockHeight:  10,
		NowUnix:      now,
	}
}

func TestSubmitAcceptsValidAttestation(t *testing.T) {
	h := newHarness(t)
	now := int64(1700000000)
	req := h.buildSubmission(now, 0)

	id, err := h.reg.Submit(req)
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	stats, err := h.reg.GetStats()
	require.NoError(t, err)
	require.Equal(t, uint64(1), stats.AttestationCount)

	bySource, err := h.reg.GetAttestationsBySource("api.coingecko.com", nil)
	require.NoError(t, err)
	require.Len(t, bySource, 1)
}

func TestSubmitRejectsReplay(t *testing.T) {
	h := newHarness(t)
	now := int64(1700000000)
	req := h.buildSubmission(now, 0)

	_, err := h.reg.Submit(req)
	require.NoError(t, err)

	_, err = h.reg.Submit(req)
	require.ErrorIs(t, err, ErrReplay)

	stats, err := h.reg.GetStats()
	require.NoError(t, err)
	require.Equal(t, uint64(1), stats.AttestationCount)
}

func TestSubmitRejectsStaleTimestamp(t *testing.T) {
	h := newHarness(t)
	now := int64(1700000000)
	req := h.buildSubmission(now, -601)

	_, err := h.reg.Submit(req)
	require.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestSubmitRejectsFutureTimestamp(t *testing.T) {
	h := newHarness(t)
	now := int64(1700000000)
	req := h.buildSubmission(now, 61)

	_, err := h.reg.Submit(req)
	require.ErrorIs(t, err, ErrFutureTimestamp)
}

func TestSubmitRejectsUnknownNotary(t *testing.T) {
	h := newHarness(t)
	now := int64(1700000000)
	req := h.buildSubmission(now, 0)
	req.Public.NotaryPubkeyHash = "999999"

	_, err := h.reg.Submit(req)
	require.ErrorIs(t, err, ErrUnknownNotary)
}

func TestSubmitRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	now := int64(1700000000)
	req := h.buildSubmission(now, 0)
	// flip a hex nibble
	raw := []byte(req.SigHex)
	if raw[0] == 'a' {
		raw[0] = 'b'
	} else {
		raw[0] = 'a'
	}
	req.SigHex = string(raw)

	_, err := h.reg.Submit(req)
	require.Error(t, err)
}

func TestSubmitRejectsBadProof(t *testing.T) {
	h := newHarness(t)
	now := int64(1700000000)
	req := h.buildSubmission(now, 0)
	req.ProofA.Y = "1"

	_, err := h.reg.Submit(req)
	require.ErrorIs(t, err, ErrInvalidProof)

	stats, err := h.reg.GetStats()
	require.NoError(t, err)
	require.Equal(t, uint64(0), stats.AttestationCount)
}

func TestAdminOpsRequireOwner(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.reg.AddNotary("mallory", "1", "n", "u", "", 1), ErrNotOwner)
	require.ErrorIs(t, h.reg.RemoveNotary("mallory", "1"), ErrNotOwner)
	require.ErrorIs(t, h.reg.SetOwner("mallory", "mallory"), ErrNotOwner)
}

func TestMigrateIsOneShot(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.reg.Migrate(h.owner))
	require.ErrorIs(t, h.reg.Migrate(h.owner), ErrAlreadyMigrated)
}

func TestGetAttestationsDescendingOrder(t *testing.T) {
	h := newHarness(t)
	now := int64(1700000000)
	for i := 0; i < 3; i++ {
		req := h.buildSubmission(now+int64(i), 0)
		_, err := h.reg.Submit(req)
		require.NoError(t, err)
	}

	got, err := h.reg.GetAttestations(nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, uint64(2), got[0].ID)
	require.Equal(t, uint64(1), got[1].ID)
	require.Equal(t, uint64(0), got[2].ID)
}
