// Copyright 2025 Certen Protocol

package oracle

// embeddedVerificationKey is the circuit-specific Groth16 verification key
// compiled into this binary as a constant, per the design note that it must
// never be rebuilt or deserialized at runtime. A real deployment's key comes
// out of a one-time trusted-setup/compile pipeline for the oracle's actual
// circuit (4 public signals: dataCommitment, serverNameHash, timestamp,
// notaryPubkeyHash) and is pasted in here as the literal decimal constants
// below, the same way the original contract's vk_data module holds its key.
//
// This build has no such pipeline to run, so the constant below uses the
// well-known BN254 generator points for every field rather than a
// circuit-derived key — it is arity-correct (five IC entries for four
// public signals) and every point is a genuine point on the curve, but it
// does not correspond to any real circuit. Tests that need a real
// proof/verification-key pair to check against (see internal/circuitfixture)
// build their own via gnark's actual Setup, and do not use this constant.
func embeddedVerificationKey() VerificationKey {
	g1x := "1"
	g1y := "2"
	g2xre := "10857046999023057135944570762232829481370756359578518086990519993285655852781"
	g2xim := "11559732032986387107991004021392285783925812861821192530917403151452391805634"
	g2yre := "8495653923123431417604973247489272438418190587263600148770280649306958101930"
	g2yim := "4082367875863433681332203403145435568316851327593401208105741076214120093531"

	g1 := G1Point{X: g1x, Y: g1y}
	g2 := G2Point{XReal: g2xre, XImag: g2xim, YReal: g2yre, YImag: g2yim}

	return VerificationKey{
		Alpha: g1,
		Beta:  g2,
		Gamma: g2,
		Delta: g2,
		IC:    []G1Point{g1, g1, g1, g1, g1},
	}
}
