// Copyright 2025 Certen Protocol

package oracle

// G1Point is a point on the BN254 base curve, held as decimal-string
// coordinates matching the wire encoding described in the external
// interfaces: proofA/proofC and each verification-key IC entry.
type G1Point struct {
	X string
	Y string
}

// G2Point is a point on the BN254 twist. Coordinates are kept in the
// "positional" order the wire format uses — [real, imaginary] per axis.
// decodeG2 maps them by name onto gnark-crypto's A0 (real) and A1
// (imaginary) components; this package builds no 128-byte imaginary-first
// packed encoding.
type G2Point struct {
	XReal, XImag string
	YReal, YImag string
}

// Scalar is a decimal-string element of the BN254 scalar field.
type Scalar string

// VerificationKey is the circuit-specific Groth16 verification key.
// It is meant to be held as a single compiled-in constant (see vk.go)
// and never rebuilt at runtime.
type VerificationKey struct {
	Alpha G1Point
	Beta  G2Point
	Gamma G2Point
	Delta G2Point
	IC    []G1Point // |IC| must equal len(publicSignals)+1
}

// Proof is a Groth16 proof: three curve points, no auxiliary data.
type Proof struct {
	A G1Point
	B G2Point
	C G1Point
}

// PublicSignals is the fixed four-slot tuple the circuit exposes.
// Positional meaning (external interfaces, canonical signing message):
//
//	[0] DataCommitment   — replay key
//	[1] ServerNameHash   — binds the proof to a TLS server name
//	[2] Timestamp        — must equal the submission's own timestamp field
//	[3] NotaryPubkeyHash — selects the notary whose signature is checked
type PublicSignals struct {
	DataCommitment   Scalar
	ServerNameHash   Scalar
	Timestamp        Scalar
	NotaryPubkeyHash Scalar
}

// slice returns the four signals in wire order, the order the
// verification key's IC entries (after IC[0]) are bound to.
func (p PublicSignals) slice() [4]Scalar {
	return [4]Scalar{p.DataCommitment, p.ServerNameHash, p.Timestamp, p.NotaryPubkeyHash}
}

// NotaryRecord is a registered notary. RawPubkey is required before any
// submission referencing this notary can be accepted; it is optional only
// at registration time so that an operator can pre-seed a placeholder
// entry and fill in the key later.
type NotaryRecord struct {
	PubkeyHash   string
	Name         string
	URL          string
	RawPubkey    []byte // 64 bytes, uncompressed secp256k1 x‖y, or nil
	AddedBy      string
	AddedAtBlock uint64
}

// AttestationRecord is an immutable, accepted attestation.
type AttestationRecord struct {
	ID               uint64
	SourceURL        string
	ServerName       string
	Timestamp        int64
	ResponseData     []byte
	DataCommitment   string
	ServerNameHash   string
	NotaryPubkeyHash string
	Submitter        string
	BlockHeight      uint64
	SigVerified      bool
}

// SubmitRequest carries every caller-supplied field of a submission.
type SubmitRequest struct {
	SourceURL    string
	ServerName   string
	Timestamp    int64
	ResponseData []byte

	ProofA G1Point
	ProofB G2Point
	ProofC G1Point
	Public PublicSignals

	SigHex string // 128 hex chars, r‖s
	SigV   byte   // 0 or 1

	Submitter   string
	BlockHeight uint64
	NowUnix     int64
}
