package value

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCompareSameType(t *testing.T) {
	require.Equal(t, -1, Int(1).Compare(Int(2)))
	require.Equal(t, 1, Int(2).Compare(Int(1)))
	require.Equal(t, 0, Int(2).Compare(Int(2)))

	require.Equal(t, -1, Str("a").Compare(Str("b")))
	require.Equal(t, -1, Bool(false).Compare(Bool(true)))
	require.Equal(t, 0, Eid(7).Compare(Eid(7)))
}

func TestCompareCrossTypeIsOrderedByRank(t *testing.T) {
	// Aid < Str < Bool < Int < Rational < Eid < Instant < UUID < Decimal
	require.Equal(t, -1, Aid("x").Compare(Str("x")))
	require.Equal(t, 1, Eid(1).Compare(Int(1)))

	// Order must be antisymmetric regardless of operand side.
	require.Equal(t, -Str("x").Compare(Aid("x")), Aid("x").Compare(Str("x")))
}

func TestRationalEqualityAcrossDenominators(t *testing.T) {
	half := NewRational(1, 2)
	twoQuarters := NewRational(2, 4)
	require.True(t, half.Equal(twoQuarters))
	require.Equal(t, 0, half.Compare(twoQuarters))

	third := NewRational(1, 3)
	require.Equal(t, 1, half.Compare(third))
}

func TestRationalNormalizesNegativeDenominator(t *testing.T) {
	r := NewRational(1, -2)
	require.Equal(t, int32(-1), r.Num)
	require.Equal(t, int32(2), r.Den)
}

func TestDecimalCompareAcrossExponents(t *testing.T) {
	// 1.00 vs 1.0 (same value, different scale)
	a := Decimal{Mantissa: 100, Exp: -2}
	b := Decimal{Mantissa: 10, Exp: -1}
	require.True(t, a.Equal(b))

	c := Decimal{Mantissa: 101, Exp: -2}
	require.Equal(t, 1, c.Compare(b))
}

func TestUUIDStringAndEquality(t *testing.T) {
	id := UUID(uuid.New())
	require.True(t, id.Equal(id))
	other := UUID(uuid.New())
	require.False(t, id.Equal(other))
	require.NotEmpty(t, id.String())
}

func TestTotalOrderIsTransitiveSample(t *testing.T) {
	values := []Value{Aid("attr"), Str("s"), Bool(true), Int(5), Eid(9), Instant(42)}
	for i := 0; i < len(values)-1; i++ {
		require.LessOrEqual(t, values[i].Compare(values[i+1]), 0)
	}
}
