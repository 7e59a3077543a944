package badgercatalog

import (
	"encoding/binary"

	"github.com/wbrown/diffplan/catalog/codec"
	"github.com/wbrown/diffplan/value"
)

// decodeL85 reverses l85Key.
func decodeL85(s string) ([]byte, error) {
	return codec.DecodeL85(s)
}

// decodeTaggedEidOrValue reverses encodeValue for the two concrete types
// Assert ever writes as a key or value column: Eid and whatever scalar
// value.Value the caller asserted. Tuple-valued facts never reach Assert
// (spec §3 facts are scalar (entity, value) pairs), so the Tuple fallback
// branch of encodeValue has no decoder here.
func decodeTaggedEidOrValue(raw []byte) value.Value {
	if len(raw) == 0 {
		return value.Str("")
	}
	tag, payload := raw[0], raw[1:]
	switch tag {
	case 0:
		return value.Aid(payload)
	case 1:
		return value.Str(payload)
	case 2:
		return value.Bool(len(payload) > 0 && payload[0] == 1)
	case 3:
		return value.Int(unsortableInt64(payload))
	case 4:
		if len(payload) < 8 {
			return value.Str(string(payload))
		}
		return value.Rational{
			Num: int32(binary.BigEndian.Uint32(payload[0:4])),
			Den: int32(binary.BigEndian.Uint32(payload[4:8])),
		}
	case 5:
		if len(payload) < 8 {
			return value.Str(string(payload))
		}
		return value.Eid(binary.BigEndian.Uint64(payload))
	case 6:
		return value.Instant(unsortableInt64(payload))
	case 7:
		var u value.UUID
		copy(u[:], payload)
		return u
	case 8:
		if len(payload) < 9 {
			return value.Str(string(payload))
		}
		return value.Decimal{
			Mantissa: int64(binary.BigEndian.Uint64(payload[0:8])),
			Exp:      int8(payload[8]),
		}
	default:
		return value.Str(string(payload))
	}
}

// unsortableInt64 reverses sortableInt64.
func unsortableInt64(buf []byte) int64 {
	if len(buf) < 8 {
		return 0
	}
	u := binary.BigEndian.Uint64(buf)
	return int64(u ^ (1 << 63))
}
