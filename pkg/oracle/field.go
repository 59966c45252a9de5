// Copyright 2025 Certen Protocol
//
// Package oracle implements the verification core of the TLS attestation
// oracle: a Groth16 proof check over BN254, secp256k1 notary-signature
// recovery, and the append-only attestation registry built on top of them.
// The package is host-agnostic: it never reads a clock or opens a socket,
// and every value it needs (block time, block height, caller identity) is
// passed in by whatever process links against it (see pkg/host).
package oracle

import "math/big"

// qLE is the BN254 base field modulus q, little-endian.
var qLE = [32]byte{
	0x47, 0xFD, 0x7C, 0xD8, 0x16, 0x8C, 0x20, 0x3C, 0x8d, 0xca, 0x71, 0x68, 0x91, 0x6a,
	0x81, 0x97, 0x5d, 0x58, 0x81, 0x81, 0xb6, 0x45, 0x50, 0xb8, 0x29, 0xa0, 0x31, 0xe1,
	0x72, 0x4e, 0x64, 0x30,
}

// decimalToLE converts a decimal string into a 32-byte little-endian
// accumulator. Non-digit characters are skipped rather than rejected; the
// off-chain proof generator relies on this to strip incidental formatting,
// and production callers only ever pass pre-validated decimal strings.
// Digits beyond the 256th bit of magnitude are silently discarded.
func decimalToLE(s string) [32]byte {
	var out [32]byte
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			continue
		}
		digit := uint16(ch - '0')
		carry := digit
		for i := range out {
			val := uint16(out[i])*10 + carry
			out[i] = byte(val & 0xff)
			carry = val >> 8
		}
	}
	return out
}

// negateFq computes q - y over the 256-bit little-endian accumulator,
// without reducing y modulo q first. Callers that pass y >= q get a
// result outside [0, q) back; the pairing primitive downstream treats
// such a point as invalid, so no separate range check is performed here.
func negateFq(y [32]byte) [32]byte {
	var out [32]byte
	borrow := int16(0)
	for i := 0; i < 32; i++ {
		val := int16(qLE[i]) - int16(y[i]) - borrow
		if val < 0 {
			out[i] = byte(val + 256)
			borrow = 1
		} else {
			out[i] = byte(val)
			borrow = 0
		}
	}
	return out
}

// leToBigInt interprets b as a 256-bit little-endian integer. This is the
// decode side of the codec groth16.go's decodeG1/decodeG2/decodeFr feed
// every wire-format coordinate and scalar through before handing it to
// gnark-crypto, and the representation negateFq operates on directly.
func leToBigInt(b [32]byte) *big.Int {
	be := make([]byte, 32)
	for i := 0; i < 32; i++ {
		be[i] = b[31-i]
	}
	return new(big.Int).SetBytes(be)
}

// leToDecimal renders a 32-byte little-endian accumulator back as a
// decimal string, for round-trip tests and for log lines.
func leToDecimal(b [32]byte) string {
	return leToBigInt(b).String()
}
