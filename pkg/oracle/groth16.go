// Copyright 2025 Certen Protocol

package oracle

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// verifyGroth16 checks e(-A,B) * e(alpha,beta) * e(vk_x,gamma) * e(C,delta) == 1,
// where vk_x = IC[0] + sum(signal[i] * IC[i+1]).
//
// This repository runs on a Go host, not inside a WASM contract runtime, so
// unlike the NEAR original there is no alt_bn128_multiexp/alt_bn128_pairing
// syscall boundary to cross with packed byte blobs — gnark-crypto's bn254
// package is called directly. The algorithm (operand order, which operand is
// negated, the MSM-then-sum construction of vk_x) is unchanged from the
// original contract's groth16.rs.
func verifyGroth16(vk VerificationKey, proof Proof, public PublicSignals) (bool, error) {
	signals := public.slice()
	if len(vk.IC) != len(signals)+1 {
		return false, ErrInputLengthMismatch
	}

	points := make([]bn254.G1Affine, len(signals))
	scalars := make([]fr.Element, len(signals))
	for i, s := range signals {
		p, err := decodeG1(vk.IC[i+1])
		if err != nil {
			return false, fmt.Errorf("oracle: decoding IC[%d]: %w", i+1, err)
		}
		points[i] = p
		scalars[i] = decodeFr(s)
	}

	var msm bn254.G1Affine
	if len(points) > 0 {
		if _, err := msm.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
			return false, fmt.Errorf("%w: multi-exponentiation: %v", ErrHostPrimitive, err)
		}
	}

	ic0, err := decodeG1(vk.IC[0])
	if err != nil {
		return false, fmt.Errorf("oracle: decoding IC[0]: %w", err)
	}
	var vkx bn254.G1Affine
	vkx.Add(&ic0, &msm)

	a, err := decodeG1(proof.A)
	if err != nil {
		return false, fmt.Errorf("oracle: decoding proof A: %w", err)
	}
	b, err := decodeG2(proof.B)
	if err != nil {
		return false, fmt.Errorf("oracle: decoding proof B: %w", err)
	}
	c, err := decodeG1(proof.C)
	if err != nil {
		return false, fmt.Errorf("oracle: decoding proof C: %w", err)
	}

	alpha, err := decodeG1(vk.Alpha)
	if err != nil {
		return false, fmt.Errorf("oracle: decoding vk.Alpha: %w", err)
	}
	beta, err := decodeG2(vk.Beta)
	if err != nil {
		return false, fmt.Errorf("oracle: decoding vk.Beta: %w", err)
	}
	gamma, err := decodeG2(vk.Gamma)
	if err != nil {
		return false, fmt.Errorf("oracle: decoding vk.Gamma: %w", err)
	}
	delta, err := decodeG2(vk.Delta)
	if err != nil {
		return false, fmt.Errorf("oracle: decoding vk.Delta: %w", err)
	}

	negA, err := negateG1(a, proof.A)
	if err != nil {
		return false, fmt.Errorf("oracle: negating proof A: %w", err)
	}

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{negA, alpha, vkx, c},
		[]bn254.G2Affine{b, beta, gamma, delta},
	)
	if err != nil {
		return false, fmt.Errorf("%w: pairing check: %v", ErrHostPrimitive, err)
	}
	return ok, nil
}

// decodeG1 parses a decimal-string G1Point into a gnark-crypto affine point,
// routing each coordinate through decimalToLE/leToBigInt (§C1's field codec)
// rather than parsing the decimal string directly.
func decodeG1(p G1Point) (bn254.G1Affine, error) {
	var out bn254.G1Affine
	out.X.SetBigInt(leToBigInt(decimalToLE(p.X)))
	out.Y.SetBigInt(leToBigInt(decimalToLE(p.Y)))
	return out, nil
}

// negateG1 computes -A the way the original contract's G1Point::neg does:
// q - y over the little-endian accumulator, x unchanged. negA's x coordinate
// is taken from the already-decoded a (decodeG1(raw.X) == a.X); only y is
// recomputed, directly from the wire-format decimal string, so the negation
// and the decode share the same codec instead of going through gnark-crypto's
// own field subtraction.
func negateG1(a bn254.G1Affine, raw G1Point) (bn254.G1Affine, error) {
	negY := negateFq(decimalToLE(raw.Y))
	out := bn254.G1Affine{X: a.X}
	out.Y.SetBigInt(leToBigInt(negY))
	return out, nil
}

// decodeG2 parses a positional G2Point (real, imaginary) into an affine
// point, through the same decimalToLE/leToBigInt codec as decodeG1. The
// real part of each coordinate goes to A0 and the imaginary part to A1;
// gnark-crypto takes the components by name, so no imaginary-first packed
// form is built or reordered here.
func decodeG2(p G2Point) (bn254.G2Affine, error) {
	var out bn254.G2Affine
	out.X.A0.SetBigInt(leToBigInt(decimalToLE(p.XReal)))
	out.X.A1.SetBigInt(leToBigInt(decimalToLE(p.XImag)))
	out.Y.A0.SetBigInt(leToBigInt(decimalToLE(p.YReal)))
	out.Y.A1.SetBigInt(leToBigInt(decimalToLE(p.YImag)))
	return out, nil
}

func decodeFr(s Scalar) fr.Element {
	var e fr.Element
	e.SetBigInt(leToBigInt(decimalToLE(string(s))))
	return e
}
