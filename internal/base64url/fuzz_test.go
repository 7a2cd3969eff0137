package base64url

import (
	"bytes"
	"testing"
)

func FuzzDecode(f *testing.F) {
	f.Add([]byte("eyJhbGciOiJIUzI1NiJ9"))
	f.Add([]byte(""))
	f.Add([]byte("a"))
	f.Add([]byte("!!!!"))

	f.Fuzz(func(t *testing.T, data []byte) {
		decoded, err := DecodeString(data)
		if err != nil {
			return
		}
		// Strict decoding means a successful decode re-encodes to the
		// exact input: the alphabet is canonical and trailing bits are
		// zero.
		reencoded := make([]byte, EncodedLen(len(decoded)))
		Encode(reencoded, decoded)
		if !bytes.Equal(reencoded, data) {
			t.Errorf("re-encode mismatch: got %q, want %q", reencoded, data)
		}
	})
}
