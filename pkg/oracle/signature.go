// Copyright 2025 Certen Protocol

package oracle

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// canonicalMessage builds the exact pre-image a notary signs off-chain:
// sourceUrl || 0x00 || serverName || 0x00 || timestamp_be8 || 0x00 || responseData,
// hashed with SHA-256. The null-byte separators are domain separators
// against length-extension ambiguity between adjacent fields and must not
// be changed without also changing whatever produces notary signatures.
func canonicalMessage(sourceURL, serverName string, timestamp int64, responseData []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(sourceURL))
	h.Write([]byte{0x00})
	h.Write([]byte(serverName))
	h.Write([]byte{0x00})
	var tsBytes [8]byte
	binary.BigEndian.PutUint64(tsBytes[:], uint64(timestamp))
	h.Write(tsBytes[:])
	h.Write([]byte{0x00})
	h.Write(responseData)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// verifySignature recovers the signer's secp256k1 public key from sigHex/sigV
// over the canonical message and requires it to match notary.RawPubkey
// byte-for-byte. sigHex is a 128-character hex string (r||s, 64 bytes);
// sigV is the recovery id, 0 or 1.
func verifySignature(notary NotaryRecord, sigHex string, sigV byte, sourceURL, serverName string, timestamp int64, responseData []byte) error {
	if len(notary.RawPubkey) != 64 {
		return ErrNotaryMissingRawKey
	}
	if len(sigHex) != 128 {
		return fmt.Errorf("%w: signature must be 128 hex characters", ErrInvalidArgument)
	}
	rs, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("%w: signature is not valid hex: %v", ErrInvalidArgument, err)
	}
	if sigV != 0 && sigV != 1 {
		return fmt.Errorf("%w: recovery id must be 0 or 1", ErrInvalidArgument)
	}

	// homestead=true is what makes ValidateSignatureValues enforce low-S
	// (reject s > secp256k1_halfN) on top of the r/s curve-order bounds it
	// always checks; dropping this argument silently reintroduces signature
	// malleability.
	r := new(big.Int).SetBytes(rs[:32])
	s := new(big.Int).SetBytes(rs[32:])
	if !crypto.ValidateSignatureValues(sigV, r, s, true) {
		return ErrInvalidSignature
	}

	sig := make([]byte, 65)
	copy(sig[:64], rs)
	sig[64] = sigV

	msg := canonicalMessage(sourceURL, serverName, timestamp, responseData)
	recovered, err := crypto.Ecrecover(msg[:], sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	// Ecrecover returns a 65-byte uncompressed key (0x04 prefix + x||y);
	// the stored raw key is the bare 64-byte x||y.
	if len(recovered) != 65 || recovered[0] != 0x04 {
		return fmt.Errorf("%w: unexpected recovered key format", ErrInvalidSignature)
	}
	recoveredXY := recovered[1:]
	if !bytesEqual(recoveredXY, notary.RawPubkey) {
		return ErrSignatureKeyMismatch
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
