// Copyright 2025 Certen Protocol

package oracle

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimalRoundTrip(t *testing.T) {
	cases := []string{"0", "1", "2", "12345", "21888242871839275222246405745257275088696311157297823662689037894645226208582"}
	for _, c := range cases {
		le := decimalToLE(c)
		got := leToDecimal(le)
		require.Equal(t, c, got, "round trip for %s", c)
	}
}

func TestDecimalToLESkipsNonDigits(t *testing.T) {
	require.Equal(t, decimalToLE("1,234"), decimalToLE("1234"))
	require.Equal(t, decimalToLE("  42  "), decimalToLE("42"))
}

func TestNegateFqInvolution(t *testing.T) {
	y := decimalToLE("5")
	negY := negateFq(y)
	gotBack := negateFq(negY)
	require.Equal(t, y, gotBack)
}

func TestNegateFqIsQMinusY(t *testing.T) {
	q := new(big.Int).SetBytes(reverse(qLE[:]))
	y := new(big.Int).SetInt64(12345)
	want := new(big.Int).Sub(q, y)

	var yLE [32]byte
	yb := y.Bytes()
	for i, b := range yb {
		yLE[len(yb)-1-i] = b
	}
	got := negateFq(yLE)
	gotBig := new(big.Int).SetBytes(reverse(got[:]))
	require.Equal(t, 0, want.Cmp(gotBig))
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
