// Copyright 2025 Certen Protocol

package oracle

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/stretchr/testify/require"

	"github.com/certen/tls-oracle/internal/circuitfixture"
)

// TestNegationIdentity checks testable property 2: e(A,B)*e(-A,B) = 1 for
// any well-formed (A,B), using the real BN254 generators rather than
// hand-picked points.
func TestNegationIdentity(t *testing.T) {
	_, _, g1gen, g2gen := bn254.Generators()

	var negG1 bn254.G1Affine
	negG1.Neg(&g1gen)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{g1gen, negG1},
		[]bn254.G2Affine{g2gen, g2gen},
	)
	require.NoError(t, err)
	require.True(t, ok)
}

// TestVerifyGroth16ArityMismatch checks testable property 3: a verification
// key whose IC length disagrees with the public-signal count is rejected
// before any cryptography runs.
func TestVerifyGroth16ArityMismatch(t *testing.T) {
	vk := embeddedVerificationKey()
	vk.IC = vk.IC[:2] // now arity 1, but PublicSignals always carries 4

	_, err := verifyGroth16(vk, Proof{}, PublicSignals{})
	require.ErrorIs(t, err, ErrInputLengthMismatch)
}

// TestVerifyGroth16AcceptsRealProof builds a genuine circuit with the
// oracle's four-signal public layout, proves a true statement, and checks
// that the hand-rolled pairing-check verifier in this package accepts the
// resulting proof/verification-key pair — the same identity §4.2 describes,
// exercised against real cryptography instead of fixed test vectors.
func TestVerifyGroth16AcceptsRealProof(t *testing.T) {
	fx, err := circuitfixture.Build()
	require.NoError(t, err)

	vk, err := fx.VerificationKey()
	require.NoError(t, err)

	secret := big.NewInt(7)
	dataCommitment := new(big.Int).Mul(secret, secret)
	serverNameHash := big.NewInt(1111)
	timestamp := big.NewInt(1700000000)
	notaryPubkeyHash := big.NewInt(2222)

	proof, public, err := fx.Prove(secret, dataCommitment, serverNameHash, timestamp, notaryPubkeyHash)
	require.NoError(t, err)

	ok, err := verifyGroth16(vk, proof, public)
	require.NoError(t, err)
	require.True(t, ok)
}

// TestVerifyGroth16RejectsWrongPublicSignal mirrors scenario S6: flipping a
// public signal after a proof was generated for different ones must make
// verification fail rather than panic.
func TestVerifyGroth16RejectsWrongPublicSignal(t *testing.T) {
	fx, err := circuitfixture.Build()
	require.NoError(t, err)
	vk, err := fx.VerificationKey()
	require.NoError(t, err)

	secret := big.NewInt(7)
	dataCommitment := new(big.Int).Mul(secret, secret)
	proof, public, err := fx.Prove(secret, dataCommitment, big.NewInt(1), big.NewInt(2), big.NewInt(3))
	require.NoError(t, err)

	public.DataCommitment = Scalar(new(big.Int).Add(dataCommitment, big.NewInt(1)).String())

	ok, err := verifyGroth16(vk, proof, public)
	require.NoError(t, err)
	require.False(t, ok)
}
