package jwt

// Status classifies the outcome of TryReadToken. It mirrors the error
// taxonomy of RFC 7519 validation failures as a closed, comparable set of
// values instead of distinct exception types, so callers can switch on it
// directly or use errors.Is/errors.As against the wrapped cause.
type Status int

const (
	// StatusSuccess means the token was decoded and every configured
	// validator passed.
	StatusSuccess Status = iota

	// StatusMalformedToken means the input was not a well-formed compact
	// JOSE token: wrong segment count, invalid base64url, or invalid JSON.
	StatusMalformedToken

	// StatusInvalidHeader means a header parameter was unsupported or
	// conflicted with another (e.g. an unrecognized "crit" entry).
	StatusInvalidHeader

	// StatusMissingEncryptionAlgorithm means a JWE token had no "enc"
	// header parameter.
	StatusMissingEncryptionAlgorithm

	// StatusEncryptionKeyNotFound means the policy has no encryption key
	// provider configured, or the provider returned no candidates.
	StatusEncryptionKeyNotFound

	// StatusSigningKeyNotFound means the policy has no signature
	// requirement configured, or the key provider returned no candidates.
	StatusSigningKeyNotFound

	// StatusSignatureValidationFailed means every candidate key failed to
	// verify the signature.
	StatusSignatureValidationFailed

	// StatusDecryptionFailed means key unwrap or AEAD decryption failed
	// for every candidate key.
	StatusDecryptionFailed

	// StatusDecompressionFailed means the "zip" parameter named an
	// algorithm whose decompression failed.
	StatusDecompressionFailed

	// StatusPolicyViolation means a claim validator rejected the token
	// (lifetime, issuer, audience, or a required claim).
	StatusPolicyViolation

	// StatusUnsupported means the token named a recognized but
	// unimplemented algorithm.
	StatusUnsupported
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusMalformedToken:
		return "malformed token"
	case StatusInvalidHeader:
		return "invalid header"
	case StatusMissingEncryptionAlgorithm:
		return "missing encryption algorithm"
	case StatusEncryptionKeyNotFound:
		return "encryption key not found"
	case StatusSigningKeyNotFound:
		return "signing key not found"
	case StatusSignatureValidationFailed:
		return "signature validation failed"
	case StatusDecryptionFailed:
		return "decryption failed"
	case StatusDecompressionFailed:
		return "decompression failed"
	case StatusPolicyViolation:
		return "policy violation"
	case StatusUnsupported:
		return "unsupported algorithm"
	default:
		return "unknown status"
	}
}

// HeaderError is the cause carried by a StatusInvalidHeader result. Param
// names the offending header parameter (e.g. "alg", "crit").
type HeaderError struct {
	Param string
	Err   error
}

func (e *HeaderError) Error() string {
	return "jwt: invalid header parameter " + quote(e.Param) + ": " + e.Err.Error()
}

func (e *HeaderError) Unwrap() error {
	return e.Err
}

// ClaimError is the cause carried by a StatusPolicyViolation result. Claim
// names the offending claim (e.g. "exp", "iss").
type ClaimError struct {
	Claim string
	Err   error
}

func (e *ClaimError) Error() string {
	return "jwt: policy violation on claim " + quote(e.Claim) + ": " + e.Err.Error()
}

func (e *ClaimError) Unwrap() error {
	return e.Err
}

func quote(s string) string {
	return "\"" + s + "\""
}
