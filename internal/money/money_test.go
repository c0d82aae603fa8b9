package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		1.004:   1.0,
		0:       0,
		99.999:  100,
		100.004: 100,
		12.344:  12.34,
	}
	for in, want := range cases {
		require.InDelta(t, want, Round2(in), 1e-9, "Round2(%v)", in)
	}
}

func TestRound2HalfCents(t *testing.T) {
	// 1.005 scaled by 100 is 100.49999999999999 in float64, so the half cent
	// that exists only in decimal notation rounds down.
	require.InDelta(t, 1.0, Round2(1.005), 1e-9)
	require.InDelta(t, -1.0, Round2(-1.005), 1e-9)

	// 0.125 is exactly representable; its true half cent rounds away from zero.
	require.InDelta(t, 0.13, Round2(0.125), 1e-9)
	require.InDelta(t, -0.13, Round2(-0.125), 1e-9)
}

func TestRound2Idempotent(t *testing.T) {
	values := []float64{0, 0.001, 1.005, 12.345, 900.0, 1234.5678, -42.195}
	for _, v := range values {
		once := Round2(v)
		require.Equal(t, once, Round2(once))
	}
}

func TestClamp(t *testing.T) {
	require.Equal(t, 0.0, Clamp(-5, 0, 100))
	require.Equal(t, 100.0, Clamp(150, 0, 100))
	require.Equal(t, 42.0, Clamp(42, 0, 100))
}

func TestFormatterUsesLocaleDecimals(t *testing.T) {
	fr := NewFormatter("fr")
	require.Equal(t, "10,00", fr.Format(10))

	en := NewFormatter("en")
	require.Equal(t, "10.50", en.Format(10.499))

	fallback := NewFormatter("not-a-tag")
	require.Equal(t, "1,25", fallback.Format(1.248))
}

func TestFormatterUnsupportedLocaleFallsBackToFrench(t *testing.T) {
	// Parseable but unsupported tags get the first supported locale.
	ja := NewFormatter("ja")
	require.Equal(t, "1,25", ja.Format(1.248))
}
