package badgercatalog

import (
	"encoding/binary"

	"github.com/wbrown/diffplan/catalog/codec"
	"github.com/wbrown/diffplan/value"
)

// encodeValue renders v as a byte string: a one-byte type tag (mirroring
// value's internal rank order) followed by a type-specific payload. Values
// of different types therefore sort by rank. Within one type the payload
// sorts in value order for Aid, Str, Bool, Int, Eid, Instant and UUID; the
// Rational payload (raw numerator then denominator) and the Decimal payload
// (raw mantissa bits then exponent) do not sort in value order, and equal
// Rationals or Decimals written with different scales encode differently.
func encodeValue(v value.Value) []byte {
	switch t := v.(type) {
	case value.Aid:
		return append([]byte{0}, []byte(t)...)
	case value.Str:
		return append([]byte{1}, []byte(t)...)
	case value.Bool:
		if t {
			return []byte{2, 1}
		}
		return []byte{2, 0}
	case value.Int:
		return append([]byte{3}, sortableInt64(int64(t))...)
	case value.Rational:
		buf := make([]byte, 9)
		buf[0] = 4
		binary.BigEndian.PutUint32(buf[1:5], uint32(t.Num))
		binary.BigEndian.PutUint32(buf[5:9], uint32(t.Den))
		return buf
	case value.Eid:
		buf := make([]byte, 9)
		buf[0] = 5
		binary.BigEndian.PutUint64(buf[1:], uint64(t))
		return buf
	case value.Instant:
		return append([]byte{6}, sortableInt64(int64(t))...)
	case value.UUID:
		return append([]byte{7}, t[:]...)
	case value.Decimal:
		buf := make([]byte, 9)
		buf[0] = 8
		binary.BigEndian.PutUint64(buf[1:], uint64(t.Mantissa))
		return append(buf, byte(t.Exp))
	default:
		// Tuple and any future variant: fall back to its string form,
		// prefixed with a tag past every concrete scalar's.
		s := t.String()
		return append([]byte{9}, []byte(s)...)
	}
}

// sortableInt64 maps a signed int64 to a big-endian byte string whose
// lexicographic order matches the integer order, by flipping the sign bit.
func sortableInt64(n int64) []byte {
	u := uint64(n) ^ (1 << 63)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u)
	return buf
}

// l85Key produces a printable, lexicographically-sortable key fragment for
// a raw byte string. factKey passes both the key and the value encoding of
// every fact through it, so every stored Badger key is text.
func l85Key(raw []byte) string {
	return codec.EncodeL85(raw)
}
