package protocol

import (
	"bytes"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestHexRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0xff, 0x01, 0x02},
		{0xde, 0xad, 0xbe, 0xef},
		bytes.Repeat([]byte{0x7a}, 64),
	}
	for _, want := range cases {
		enc := EncodeHex(nil, want)
		buf := append([]byte(nil), enc...)
		got, err := DecodeHexInPlace(buf)
		assert(t, err == nil, "decode failed: %v", err)
		assert(t, bytes.Equal(got, want), "roundtrip mismatch: got %x want %x", got, want)
	}
}

func TestHexInPlaceSameBuffer(t *testing.T) {
	buf := EncodeHex(nil, []byte{1, 2, 3, 4})
	orig := &buf[0]
	out, err := DecodeHexInPlace(buf)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, &out[0] == orig, "decode did not operate on the same backing array")
}

func TestHexMalformed(t *testing.T) {
	_, err := DecodeHexInPlace([]byte("abc"))
	assert(t, err == ErrMalformedHex, "expected odd-length error, got %v", err)

	_, err = DecodeHexInPlace([]byte("zz"))
	assert(t, err == ErrMalformedHex, "expected non-hex error, got %v", err)
}

func TestDecodeHexU64(t *testing.T) {
	v, err := DecodeHexU64([]byte("1a"))
	assert(t, err == nil && v == 0x1a, "got %d, %v", v, err)
}
