package jwt

// Result is the outcome of TryReadToken. Classifiable read failures never
// escape as a panic; they are always returned as a Result value.
type Result struct {
	Status Status

	// Token is set whenever the payload was decoded as JWT claims,
	// whether it came from a top-level JWS or from a JWE (nested JWS, or
	// claims encrypted directly with no inner signature).
	Token *Token

	// Payload is the raw bytes carried by the token: the JWS payload, or
	// the (decompressed) JWE plaintext. Always set on StatusSuccess, even
	// when Token is nil (IgnoreNestedToken, or the no-validation opaque
	// fallback).
	Payload []byte

	// Err is the underlying cause, wrapped with %w where applicable. Nil
	// on StatusSuccess.
	Err error
}

func success(payload []byte, token *Token) Result {
	return Result{Status: StatusSuccess, Payload: payload, Token: token}
}

func failure(status Status, err error) Result {
	return Result{Status: status, Err: err}
}
