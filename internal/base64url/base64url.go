// Package base64url centralizes the URL-safe, unpadded base64 alphabet
// arithmetic that the compact serialization packages (jws, jwe, jwt) each
// otherwise duplicate as a package-local "b64 = base64.RawURLEncoding"
// shorthand.
package base64url

import (
	"bytes"
	"encoding/base64"
)

// enc is the URL-safe, unpadded base64 alphabet used throughout JOSE
// compact serialization (RFC 7515 Appendix C). Strict mode rejects
// non-zero trailing padding bits, so two distinct encodings can never
// decode to the same bytes.
var enc = base64.RawURLEncoding.Strict()

// EncodedLen returns the length in bytes of the base64url encoding of an
// input buffer of length n.
func EncodedLen(n int) int {
	return enc.EncodedLen(n)
}

// DecodedLen returns the maximum length in bytes of the decoded data
// corresponding to n bytes of base64url-encoded data.
func DecodedLen(n int) int {
	return enc.DecodedLen(n)
}

// Encode encodes src into dst, which must be at least EncodedLen(len(src))
// bytes long, and returns the number of bytes written.
func Encode(dst, src []byte) int {
	enc.Encode(dst, src)
	return enc.EncodedLen(len(src))
}

// AppendEncode appends the base64url encoding of src to dst and returns the
// extended buffer.
func AppendEncode(dst, src []byte) []byte {
	n := len(dst)
	dst = append(dst, make([]byte, enc.EncodedLen(len(src)))...)
	enc.Encode(dst[n:], src)
	return dst
}

// Decode decodes src into dst, which must be at least DecodedLen(len(src))
// bytes long, and returns the number of bytes written. It fails with a
// base64.CorruptInputError if src contains bytes outside the base64url
// alphabet or non-zero trailing bits. Embedded newlines are rejected too:
// encoding/base64 skips them even in strict mode, but they are not part of
// the alphabet.
func Decode(dst, src []byte) (n int, err error) {
	if i := bytes.IndexAny(src, "\r\n"); i >= 0 {
		return 0, base64.CorruptInputError(i)
	}
	return enc.Decode(dst, src)
}

// DecodeString is a convenience wrapper allocating the destination buffer.
func DecodeString(src []byte) ([]byte, error) {
	dst := make([]byte, enc.DecodedLen(len(src)))
	n, err := Decode(dst, src)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
