package base64url

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		[]byte("abcd"),
		[]byte{0xff, 0x00, 0x10, 0x20, 0x30, 0x40},
	}
	for _, c := range cases {
		encBuf := make([]byte, EncodedLen(len(c)))
		n := Encode(encBuf, c)
		encBuf = encBuf[:n]

		decBuf := make([]byte, DecodedLen(len(encBuf)))
		n, err := Decode(decBuf, encBuf)
		if err != nil {
			t.Fatalf("Decode(%q): %v", c, err)
		}
		decBuf = decBuf[:n]
		if !bytes.Equal(decBuf, c) {
			t.Errorf("round trip mismatch: got %x, want %x", decBuf, c)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"a===",
		"ab==",
		"a\nbc",
		"!!!!",
	}
	for _, c := range cases {
		dst := make([]byte, DecodedLen(len(c)))
		if _, err := Decode(dst, []byte(c)); err == nil {
			t.Errorf("Decode(%q) = nil error, want error", c)
		}
	}
}
