// Package codec provides a printable, lexicographically-sortable byte
// encoding for badgercatalog's fact-key fragments. Every entity and value
// segment of a badgercatalog key goes through it, so the keys stay printable
// text while still sorting the same way the raw bytes would.
package codec

import (
	"errors"
	"fmt"
)

// L85Alphabet is 85 ASCII punctuation/digit/letter characters in strictly
// ascending byte order, so that encoding a byte string preserves its
// lexicographic order: if a < b, EncodeL85(a) < EncodeL85(b).
const L85Alphabet = "!$%&()+,-./" +
	"0123456789:;<=>@" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ[]_`" +
	"abcdefghijklmnopqrstuvwxyz{}"

var (
	l85Decode [256]byte

	// ErrInvalidCharacter indicates an invalid character in input.
	ErrInvalidCharacter = errors.New("invalid L85 character")
)

func init() {
	for i := range l85Decode {
		l85Decode[i] = 0 // 0 marks "not in the alphabet"
	}
	for i, c := range L85Alphabet {
		l85Decode[byte(c)] = byte(i + 1)
	}
}

// EncodeL85 encodes src as base85 over L85Alphabet, 4 input bytes to 5
// output characters, with a shortened final group for inputs not a
// multiple of 4 bytes — entity and attribute encodings are rarely
// 4-aligned, so the short-group path is the common case, not an edge case.
func EncodeL85(src []byte) string {
	if len(src) == 0 {
		return ""
	}

	result := make([]byte, 0, (len(src)*5+3)/4)

	full := len(src) - len(src)%4
	for i := 0; i < full; i += 4 {
		v := uint32(src[i])<<24 | uint32(src[i+1])<<16 |
			uint32(src[i+2])<<8 | uint32(src[i+3])
		group := encode85Group(v)
		result = append(result, group[:]...)
	}

	if remainder := len(src) % 4; remainder > 0 {
		var padded [4]byte
		copy(padded[:], src[full:])
		v := uint32(padded[0])<<24 | uint32(padded[1])<<16 |
			uint32(padded[2])<<8 | uint32(padded[3])
		group := encode85Group(v)
		result = append(result, group[:remainder+1]...)
	}

	return string(result)
}

func encode85Group(v uint32) [5]byte {
	var chars [5]byte
	for j := 4; j >= 0; j-- {
		chars[j] = L85Alphabet[v%85]
		v /= 85
	}
	return chars
}

// DecodeL85 reverses EncodeL85.
func DecodeL85(src string) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}

	for i, c := range src {
		if c >= 256 || l85Decode[byte(c)] == 0 {
			return nil, fmt.Errorf("%w at position %d: %c", ErrInvalidCharacter, i, c)
		}
	}

	result := make([]byte, 0, len(src)*4/5+4)

	full := len(src) - len(src)%5
	for i := 0; i < full; i += 5 {
		v := decode85Group(src[i : i+5])
		result = append(result, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}

	if remainder := len(src) % 5; remainder > 0 {
		numBytes := remainder - 1
		if numBytes <= 0 {
			return nil, errors.New("invalid L85 encoding: incomplete group")
		}

		padded := src[full:]
		for len(padded) < 5 {
			padded += string(L85Alphabet[len(L85Alphabet)-1])
		}

		v := decode85Group(padded)
		decoded := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
		result = append(result, decoded[:numBytes]...)
	}

	return result, nil
}

func decode85Group(chars string) uint32 {
	var v uint32
	for j := 0; j < 5; j++ {
		v = v*85 + uint32(l85Decode[chars[j]]-1)
	}
	return v
}
