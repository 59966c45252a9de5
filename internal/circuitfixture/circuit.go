// Copyright 2025 Certen Protocol
//
// Package circuitfixture compiles a tiny, real gnark BN254 circuit with
// exactly four public signals (mirroring the oracle's actual public-signal
// layout) and produces genuine Groth16 proofs from it. It exists only so
// pkg/oracle's tests can check the hand-rolled pairing-check verifier
// against a proof that came out of a real Setup/Prove pipeline, instead of
// asserting against hand-picked curve points. Nothing in this package is
// part of the production verification path.
package circuitfixture

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/certen/tls-oracle/pkg/oracle"
)

// Circuit proves knowledge of a secret square root of DataCommitment,
// exposing the same four-slot public layout the production verifier
// expects: DataCommitment, ServerNameHash, Timestamp, NotaryPubkeyHash.
// Only DataCommitment is meaningfully constrained; the other three are
// tied to themselves with a trivial equality so gnark does not reject them
// as unconstrained.
type Circuit struct {
	Secret           frontend.Variable
	DataCommitment   frontend.Variable `gnark:",public"`
	ServerNameHash   frontend.Variable `gnark:",public"`
	Timestamp        frontend.Variable `gnark:",public"`
	NotaryPubkeyHash frontend.Variable `gnark:",public"`
}

func (c *Circuit) Define(api frontend.API) error {
	sq := api.Mul(c.Secret, c.Secret)
	api.AssertIsEqual(sq, c.DataCommitment)
	api.AssertIsEqual(api.Mul(c.ServerNameHash, 1), c.ServerNameHash)
	api.AssertIsEqual(api.Mul(c.Timestamp, 1), c.Timestamp)
	api.AssertIsEqual(api.Mul(c.NotaryPubkeyHash, 1), c.NotaryPubkeyHash)
	return nil
}

// Fixture holds a compiled circuit and its proving/verification keys.
type Fixture struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// Build compiles Circuit and runs a fresh (insecure, test-only) Groth16
// setup.
func Build() (*Fixture, error) {
	var circuit Circuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("circuitfixture: compile: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("circuitfixture: setup: %w", err)
	}
	return &Fixture{ccs: ccs, pk: pk, vk: vk}, nil
}

// VerificationKey exports the fixture's verification key in the oracle
// package's decimal-string representation.
func (f *Fixture) VerificationKey() (oracle.VerificationKey, error) {
	vkBN254, ok := f.vk.(*groth16_bn254.VerifyingKey)
	if !ok {
		return oracle.VerificationKey{}, fmt.Errorf("circuitfixture: unexpected verifying key type %T", f.vk)
	}

	ic := make([]oracle.G1Point, len(vkBN254.G1.K))
	for i, p := range vkBN254.G1.K {
		ic[i] = g1ToPoint(p)
	}

	return oracle.VerificationKey{
		Alpha: g1ToPoint(vkBN254.G1.Alpha),
		Beta:  g2ToPoint(vkBN254.G2.Beta),
		Gamma: g2ToPoint(vkBN254.G2.Gamma),
		Delta: g2ToPoint(vkBN254.G2.Delta),
		IC:    ic,
	}, nil
}

// Prove produces a genuine Groth16 proof and its matching public signals
// for the given witness values.
func (f *Fixture) Prove(secret, dataCommitment, serverNameHash, timestamp, notaryPubkeyHash *big.Int) (oracle.Proof, oracle.PublicSignals, error) {
	assignment := Circuit{
		Secret:           secret,
		DataCommitment:   dataCommitment,
		ServerNameHash:   serverNameHash,
		Timestamp:        timestamp,
		NotaryPubkeyHash: notaryPubkeyHash,
	}
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return oracle.Proof{}, oracle.PublicSignals{}, fmt.Errorf("circuitfixture: witness: %w", err)
	}

	proof, err := groth16.Prove(f.ccs, f.pk, witness)
	if err != nil {
		return oracle.Proof{}, oracle.PublicSignals{}, fmt.Errorf("circuitfixture: prove: %w", err)
	}
	proofBN254, ok := proof.(*groth16_bn254.Proof)
	if !ok {
		return oracle.Proof{}, oracle.PublicSignals{}, fmt.Errorf("circuitfixture: unexpected proof type %T", proof)
	}

	public := oracle.PublicSignals{
		DataCommitment:   oracle.Scalar(dataCommitment.String()),
		ServerNameHash:   oracle.Scalar(serverNameHash.String()),
		Timestamp:        oracle.Scalar(timestamp.String()),
		NotaryPubkeyHash: oracle.Scalar(notaryPubkeyHash.String()),
	}
	return oracle.Proof{
		A: g1ToPoint(proofBN254.Ar),
		B: g2ToPoint(proofBN254.Bs),
		C: g1ToPoint(proofBN254.Krs),
	}, public, nil
}

// VerifyNative runs gnark's own groth16.Verify, as a cross-check that a
// proof produced here is valid under gnark's own verifier before handing it
// to the oracle package's hand-rolled one.
func (f *Fixture) VerifyNative(proof groth16.Proof, dataCommitment, serverNameHash, timestamp, notaryPubkeyHash *big.Int) error {
	assignment := Circuit{
		DataCommitment:   dataCommitment,
		ServerNameHash:   serverNameHash,
		Timestamp:        timestamp,
		NotaryPubkeyHash: notaryPubkeyHash,
	}
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("circuitfixture: public witness: %w", err)
	}
	return groth16.Verify(proof, f.vk, witness)
}

func g1ToPoint(p bn254.G1Affine) oracle.G1Point {
	var x, y big.Int
	p.X.BigInt(&x)
	p.Y.BigInt(&y)
	return oracle.G1Point{X: x.String(), Y: y.String()}
}

func g2ToPoint(p bn254.G2Affine) oracle.G2Point {
	var xr, xi, yr, yi big.Int
	p.X.A0.BigInt(&xr)
	p.X.A1.BigInt(&xi)
	p.Y.A0.BigInt(&yr)
	p.Y.A1.BigInt(&yi)
	return oracle.G2Point{XReal: xr.String(), XImag: xi.String(), YReal: yr.String(), YImag: yi.String()}
}
