// Package value defines the algebraic datum carried on every tuple edge
// in the compiled dataflow: a closed union of the concrete types a Datalog
// attribute may hold, with a total order so values can key an arrangement.
package value

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Value is any member of the closed union below. Unlike the interface{}
// carrier a plain key-value store can get away with, arrangement keys need
// a stable total order across every variant, so Value pins that contract
// down rather than leaving it to reflection or fmt.Sprintf fallbacks.
type Value interface {
	// rank is the position of this variant in the type's total order.
	// Unexported so Value stays a closed sum: only this package's types
	// satisfy it.
	rank() typeRank
	// Compare returns -1, 0, or 1 or comparing v to other. Values of
	// different concrete type order by rank first.
	Compare(other Value) int
	// Equal is Compare(other) == 0, but avoids the rank dance for the
	// common case of comparing same-typed values.
	Equal(other Value) bool
	String() string
}

type typeRank byte

const (
	rankAid typeRank = iota
	rankStr
	rankBool
	rankInt
	rankRational
	rankEid
	rankInstant
	rankUUID
	rankDecimal
	rankTuple
)

// Aid is an attribute-id value — an attribute referenced as data, not as
// the attribute a pattern matches on.
type Aid string

func (Aid) rank() typeRank  { return rankAid }
func (a Aid) String() string { return string(a) }
func (a Aid) Equal(other Value) bool {
	o, ok := other.(Aid)
	return ok && a == o
}
func (a Aid) Compare(other Value) int {
	if o, ok := other.(Aid); ok {
		return strings.Compare(string(a), string(o))
	}
	return compareRank(a, other)
}

// Str is an arbitrary-length string value.
type Str string

func (Str) rank() typeRank  { return rankStr }
func (s Str) String() string { return string(s) }
func (s Str) Equal(other Value) bool {
	o, ok := other.(Str)
	return ok && s == o
}
func (s Str) Compare(other Value) int {
	if o, ok := other.(Str); ok {
		return strings.Compare(string(s), string(o))
	}
	return compareRank(s, other)
}

// Bool is a boolean value.
type Bool bool

func (Bool) rank() typeRank { return rankBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && b == o
}
func (b Bool) Compare(other Value) int {
	if o, ok := other.(Bool); ok {
		if b == o {
			return 0
		}
		if !bool(b) {
			return -1
		}
		return 1
	}
	return compareRank(b, other)
}

// Int is a 64-bit signed integer value.
type Int int64

func (Int) rank() typeRank  { return rankInt }
func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }
func (i Int) Equal(other Value) bool {
	o, ok := other.(Int)
	return ok && i == o
}
func (i Int) Compare(other Value) int {
	if o, ok := other.(Int); ok {
		return compareInt64(int64(i), int64(o))
	}
	return compareRank(i, other)
}

// Rational is a 32-bit rational, stored as a numerator and a strictly
// positive denominator; NewRational normalizes the sign but does not reduce
// the fraction. Two Rationals compare by cross-multiplying rather than by
// converting to float, so equal fractions with different denominators
// (1/2 and 2/4) compare equal.
type Rational struct {
	Num, Den int32
}

func NewRational(num, den int32) Rational {
	if den == 0 {
		panic("value: rational with zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	return Rational{Num: num, Den: den}
}

func (Rational) rank() typeRank { return rankRational }
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
func (r Rational) Equal(other Value) bool {
	o, ok := other.(Rational)
	return ok && int64(r.Num)*int64(o.Den) == int64(o.Num)*int64(r.Den)
}
func (r Rational) Compare(other Value) int {
	if o, ok := other.(Rational); ok {
		left := int64(r.Num) * int64(o.Den)
		right := int64(o.Num) * int64(r.Den)
		return compareInt64(left, right)
	}
	return compareRank(r, other)
}

// Eid is an entity identifier.
type Eid uint64

func (Eid) rank() typeRank  { return rankEid }
func (e Eid) String() string { return fmt.Sprintf("#%d", uint64(e)) }
func (e Eid) Equal(other Value) bool {
	o, ok := other.(Eid)
	return ok && e == o
}
func (e Eid) Compare(other Value) int {
	if o, ok := other.(Eid); ok {
		if e == o {
			return 0
		}
		if e < o {
			return -1
		}
		return 1
	}
	return compareRank(e, other)
}

// Instant is a point in time, in milliseconds since the Unix epoch.
type Instant int64

func (Instant) rank() typeRank  { return rankInstant }
func (t Instant) String() string { return fmt.Sprintf("@%d", int64(t)) }
func (t Instant) Equal(other Value) bool {
	o, ok := other.(Instant)
	return ok && t == o
}
func (t Instant) Compare(other Value) int {
	if o, ok := other.(Instant); ok {
		return compareInt64(int64(t), int64(o))
	}
	return compareRank(t, other)
}

// UUID is an optional value variant backed by google/uuid.
type UUID uuid.UUID

func (UUID) rank() typeRank { return rankUUID }
func (u UUID) String() string {
	return uuid.UUID(u).String()
}
func (u UUID) Equal(other Value) bool {
	o, ok := other.(UUID)
	return ok && u == o
}
func (u UUID) Compare(other Value) int {
	if o, ok := other.(UUID); ok {
		return strings.Compare(uuid.UUID(u).String(), uuid.UUID(o).String())
	}
	return compareRank(u, other)
}

// Decimal is an optional fixed-point real: a scale-10^Exp integer Mantissa.
// The pack carries no dedicated decimal library, so a scaled-integer type
// stands in; Compare normalizes to a common exponent before comparing
// mantissas, which keeps the order exact for any finite scale difference
// the two values use.
type Decimal struct {
	Mantissa int64
	Exp      int8 // value == Mantissa * 10^Exp
}

func (Decimal) rank() typeRank { return rankDecimal }
func (d Decimal) String() string {
	return fmt.Sprintf("%de%d", d.Mantissa, d.Exp)
}
func (d Decimal) Equal(other Value) bool {
	o, ok := other.(Decimal)
	return ok && d.Compare(o) == 0
}
func (d Decimal) Compare(other Value) int {
	o, ok := other.(Decimal)
	if !ok {
		return compareRank(d, other)
	}
	dm, om := big.NewInt(d.Mantissa), big.NewInt(o.Mantissa)
	ten := big.NewInt(10)
	exp := d.Exp
	if d.Exp > o.Exp {
		exp = o.Exp
	}
	for e := d.Exp; e > exp; e-- {
		dm.Mul(dm, ten)
	}
	for e := o.Exp; e > exp; e-- {
		om.Mul(om, ten)
	}
	return dm.Cmp(om)
}

// Tuple is a composite Value formed by packing several Values into one —
// used as an arrangement key when an operator arranges by more than one
// column (spec §4.6 case (c), "tuples_by_variables"). It is not part of
// the attribute domain spec §3 enumerates; it exists purely so the
// dataflow contracts in package dataflow, which key arrangements by a
// single Value, can still express a multi-column key.
type Tuple []Value

func (Tuple) rank() typeRank { return rankTuple }
func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t Tuple) Equal(other Value) bool {
	o, ok := other.(Tuple)
	return ok && t.Compare(o) == 0
}
func (t Tuple) Compare(other Value) int {
	o, ok := other.(Tuple)
	if !ok {
		return compareRank(t, other)
	}
	for i := 0; i < len(t) && i < len(o); i++ {
		if c := t[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	return compareInt64(int64(len(t)), int64(len(o)))
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareRank orders two Values of differing concrete type solely by their
// rank; it is only ever reached once the Compare method on the concrete
// receiver has already ruled out a same-type comparison.
func compareRank(v Value, other Value) int {
	vr, or := v.rank(), other.rank()
	switch {
	case vr < or:
		return -1
	case vr > or:
		return 1
	default:
		return 0
	}
}
