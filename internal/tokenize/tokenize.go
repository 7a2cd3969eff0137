// Package tokenize splits compact-serialized JOSE tokens (JWS or JWE) into
// their dot-delimited segments. It centralizes the
// bytes.IndexByte(data, '.')-chaining idiom that jws.Parse and jwe.Parse
// each otherwise duplicate.
package tokenize

import "errors"

// ErrMalformed is returned when data does not contain 3 (JWS) or 5 (JWE)
// dot-delimited segments, or when the header segment is empty.
var ErrMalformed = errors.New("tokenize: malformed compact token")

// Tokenize scans data left to right and splits it on '.' (0x2E), returning
// the segments found. A valid compact JWS has exactly 3 segments; a valid
// compact JWE has exactly 5. n reports how many of segments[0:n] are
// populated; fewer than 3 or more than 5 segments is reported as
// ErrMalformed, as is an empty header segment.
func Tokenize(data []byte) (segments [5][]byte, n int, err error) {
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '.' {
			if n >= 5 {
				return segments, 0, ErrMalformed
			}
			segments[n] = data[start:i]
			n++
			start = i + 1
		}
	}
	if n != 3 && n != 5 {
		return segments, 0, ErrMalformed
	}
	if len(segments[0]) == 0 {
		return segments, 0, ErrMalformed
	}
	return segments, n, nil
}
