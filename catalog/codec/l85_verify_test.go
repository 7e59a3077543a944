package codec

import (
	"bytes"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// badgerKeyFragment builds the kind of byte string l85Key actually encodes:
// a one-byte type tag followed by a variable-length payload, mirroring
// encodeValue's (entity, value) pair encoding.
func badgerKeyFragment(tag byte, payload []byte) []byte {
	return append([]byte{tag}, payload...)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x00},
		badgerKeyFragment(5, binary.BigEndian.AppendUint64(nil, 1)),
		badgerKeyFragment(1, []byte("profile-color")),
		bytes.Repeat([]byte{0xFF}, 9),
		bytes.Repeat([]byte{0x00}, 17),
	}

	for _, in := range inputs {
		encoded := EncodeL85(in)
		decoded, err := DecodeL85(encoded)
		require.NoError(t, err)
		require.Equal(t, in, decoded)
	}
}

// TestSortOrderPreserved is the property badgercatalog's prefix scans
// depend on: Badger iterates keys in byte order, and printed keys must
// agree with the raw-byte order they stand in for.
func TestSortOrderPreserved(t *testing.T) {
	var raw [][]byte
	for i := 0; i < 64; i++ {
		raw = append(raw, badgerKeyFragment(5, binary.BigEndian.AppendUint64(nil, uint64(i*7919))))
	}
	raw = append(raw, []byte(""), []byte{0x00}, bytes.Repeat([]byte{0xFF}, 3))

	encoded := make([]string, len(raw))
	for i, r := range raw {
		encoded[i] = EncodeL85(r)
	}

	byRaw := make([]int, len(raw))
	for i := range byRaw {
		byRaw[i] = i
	}
	sort.Slice(byRaw, func(i, j int) bool {
		return bytes.Compare(raw[byRaw[i]], raw[byRaw[j]]) < 0
	})

	byEncoded := make([]int, len(raw))
	for i := range byEncoded {
		byEncoded[i] = i
	}
	sort.Slice(byEncoded, func(i, j int) bool {
		return encoded[byEncoded[i]] < encoded[byEncoded[j]]
	})

	require.Equal(t, byRaw, byEncoded)
}

func TestAlphabetIs85DistinctSortedCharacters(t *testing.T) {
	require.Len(t, L85Alphabet, 85)

	seen := make(map[rune]bool, 85)
	for _, c := range L85Alphabet {
		require.False(t, seen[c], "duplicate character %q", c)
		seen[c] = true
	}

	sorted := []byte(L85Alphabet)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	require.Equal(t, L85Alphabet, string(sorted))
}

func TestDecodeRejectsUnknownCharacter(t *testing.T) {
	_, err := DecodeL85("^^^")
	require.ErrorIs(t, err, ErrInvalidCharacter)
}
