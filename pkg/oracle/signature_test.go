// Copyright 2025 Certen Protocol

package oracle

import (
	"encoding/hex"
	"math/big"
	"testing"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func signFixture(t *testing.T, sourceURL, serverName string, timestamp int64, responseData []byte) (NotaryRecord, string, byte) {
	t.Helper()
	key, err := gethcrypto.GenerateKey()
	require.NoError(t, err)

	pub := gethcrypto.FromECDSAPub(&key.PublicKey) // 65 bytes, 0x04 prefix
	raw := pub[1:]

	msg := canonicalMessage(sourceURL, serverName, timestamp, responseData)
	sig, err := gethcrypto.Sign(msg[:], key)
	require.NoError(t, err)

	notary := NotaryRecord{PubkeyHash: "1", RawPubkey: raw}
	return notary, hex.EncodeToString(sig[:64]), sig[64]
}

func TestVerifySignatureAccepts(t *testing.T) {
	notary, sigHex, sigV := signFixture(t, "https://example.com/a", "example.com", 1700000000, []byte("payload"))
	err := verifySignature(notary, sigHex, sigV, "https://example.com/a", "example.com", 1700000000, []byte("payload"))
	require.NoError(t, err)
}

func TestVerifySignatureRejectsMismatchedKey(t *testing.T) {
	notary, sigHex, sigV := signFixture(t, "https://example.com/a", "example.com", 1700000000, []byte("payload"))

	other, _, _ := signFixture(t, "https://example.com/a", "example.com", 1700000000, []byte("payload"))
	notary.RawPubkey = other.RawPubkey

	err := verifySignature(notary, sigHex, sigV, "https://example.com/a", "example.com", 1700000000, []byte("payload"))
	require.ErrorIs(t, err, ErrSignatureKeyMismatch)
}

func TestVerifySignatureRejectsTamperedMessage(t *testing.T) {
	notary, sigHex, sigV := signFixture(t, "https://example.com/a", "example.com", 1700000000, []byte("payload"))
	err := verifySignature(notary, sigHex, sigV, "https://example.com/a", "example.com", 1700000000, []byte("tampered"))
	require.ErrorIs(t, err, ErrSignatureKeyMismatch)
}

func TestVerifySignatureRejectsMissingRawKey(t *testing.T) {
	notary := NotaryRecord{PubkeyHash: "1"}
	err := verifySignature(notary, hex.EncodeToString(make([]byte, 64)), 0, "u", "s", 1, nil)
	require.ErrorIs(t, err, ErrNotaryMissingRawKey)
}

// TestVerifySignatureRejectsHighS checks malleability-strict recovery:
// (r, N-s) with the flipped recovery id recovers the same key as (r, s) in
// plain ECDSA, so a verifier that skips the low-S check would accept both
// signatures over the same message. verifySignature must reject the high-S
// one.
func TestVerifySignatureRejectsHighS(t *testing.T) {
	notary, sigHex, sigV := signFixture(t, "https://example.com/a", "example.com", 1700000000, []byte("payload"))
	rs, err := hex.DecodeString(sigHex)
	require.NoError(t, err)

	s := new(big.Int).SetBytes(rs[32:])
	flippedS := new(big.Int).Sub(gethcrypto.S256().Params().N, s)
	flippedSBytes := flippedS.Bytes()
	var flippedSPadded [32]byte
	copy(flippedSPadded[32-len(flippedSBytes):], flippedSBytes)
	copy(rs[32:], flippedSPadded[:])
	flippedSigHex := hex.EncodeToString(rs)
	flippedV := sigV ^ 1

	err = verifySignature(notary, flippedSigHex, flippedV, "https://example.com/a", "example.com", 1700000000, []byte("payload"))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsBadHexLength(t *testing.T) {
	notary := NotaryRecord{PubkeyHash: "1", RawPubkey: make([]byte, 64)}
	err := verifySignature(notary, "deadbeef", 0, "u", "s", 1, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}
