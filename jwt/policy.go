package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/joseforge/jose/jwa"
	"github.com/joseforge/jose/jwk"
)

// HeaderValidator validates a decoded JOSE header. Header validators run
// in registration order before the payload is decoded.
type HeaderValidator interface {
	ValidateHeader(ctx context.Context, header Header) error
}

// HeaderValidatorFunc adapts an ordinary function to a HeaderValidator,
// the same func-adapter convention as jws.FindKeyFunc.
type HeaderValidatorFunc func(ctx context.Context, header Header) error

func (f HeaderValidatorFunc) ValidateHeader(ctx context.Context, header Header) error {
	return f(ctx, header)
}

// ClaimsValidator validates the decoded Claims of a JWS payload or the
// innermost decrypted JWE payload. Claims validators run in registration
// order after the payload is decoded.
type ClaimsValidator interface {
	ValidateClaims(ctx context.Context, claims *Claims) error
}

// ClaimsValidatorFunc adapts an ordinary function to a ClaimsValidator.
type ClaimsValidatorFunc func(ctx context.Context, claims *Claims) error

func (f ClaimsValidatorFunc) ValidateClaims(ctx context.Context, claims *Claims) error {
	return f(ctx, claims)
}

// RequireKnownCritical rejects a header whose "crit" list names an
// extension not in known. Not enabled by default. JWS header parsing
// already rejects "crit" names that are not header parameters known to
// package jws (TryReadToken reports those as StatusMalformedToken before
// any validator runs); JWE header parsing does not check "crit", so for a
// JWE this validator is the only check.
func RequireKnownCritical(known ...string) HeaderValidator {
	allowed := make(map[string]struct{}, len(known))
	for _, k := range known {
		allowed[k] = struct{}{}
	}
	return HeaderValidatorFunc(func(ctx context.Context, header Header) error {
		for _, name := range header.Critical() {
			if _, ok := allowed[name]; !ok {
				return &HeaderError{Param: "crit", Err: errors.New("jwt: unknown critical extension " + quote(name))}
			}
		}
		return nil
	})
}

// RequireIssuer accepts a token only if its "iss" claim matches one of
// issuers.
func RequireIssuer(issuers ...string) ClaimsValidator {
	return ClaimsValidatorFunc(func(ctx context.Context, claims *Claims) error {
		for _, iss := range issuers {
			if claims.Issuer == iss {
				return nil
			}
		}
		return &ClaimError{Claim: "iss", Err: errors.New("jwt: issuer " + quote(claims.Issuer) + " is not trusted")}
	})
}

// RequireAudience accepts a token only if its "aud" claim contains aud.
func RequireAudience(aud string) ClaimsValidator {
	return ClaimsValidatorFunc(func(ctx context.Context, claims *Claims) error {
		for _, a := range claims.Audience {
			if a == aud {
				return nil
			}
		}
		return &ClaimError{Claim: "aud", Err: errors.New("jwt: audience " + quote(aud) + " not present")}
	})
}

// RequireLifetime accepts a token only if the current time (as reported
// by nowFunc) falls within ["nbf"-clockSkew, "exp"+clockSkew]. When
// requireExp is true, a token with no "exp" claim is rejected.
func RequireLifetime(clockSkew time.Duration, requireExp bool) ClaimsValidator {
	return ClaimsValidatorFunc(func(ctx context.Context, claims *Claims) error {
		now := nowFunc()
		if claims.ExpirationTime.IsZero() {
			if requireExp {
				return &ClaimError{Claim: "exp", Err: errors.New("jwt: token has no expiration time")}
			}
		} else if now.After(claims.ExpirationTime.Add(clockSkew)) {
			return &ClaimError{Claim: "exp", Err: errors.New("jwt: token is expired")}
		}
		if !claims.NotBefore.IsZero() && now.Before(claims.NotBefore.Add(-clockSkew)) {
			return &ClaimError{Claim: "nbf", Err: errors.New("jwt: token is not valid yet")}
		}
		return nil
	})
}

// RequireClaim accepts a token only if check returns nil for the raw
// value of the named claim (check receives nil when the claim is absent).
func RequireClaim(name string, check func(value any) error) ClaimsValidator {
	return ClaimsValidatorFunc(func(ctx context.Context, claims *Claims) error {
		if err := check(claims.Raw[name]); err != nil {
			return &ClaimError{Claim: name, Err: err}
		}
		return nil
	})
}

// SignatureRequirement configures how TryReadToken resolves and verifies
// the signature of a JWS (or the JWS wrapped inside a nested JWE). It
// runs as part of header validation, but is kept as its own Policy field
// rather than a HeaderValidator because verifying a signature needs the
// raw signing input and must try candidate keys in order, which the
// narrow ValidateHeader(header) signature cannot express.
type SignatureRequirement struct {
	_NamedFieldsRequired struct{}

	KeyProvider KeyProvider
	Algorithms  []jwa.SignatureAlgorithm // nil means any registered algorithm is allowed
}

func (r SignatureRequirement) configured() bool {
	return r.KeyProvider != nil
}

// allows reports whether alg may be used to satisfy this requirement. The
// unsecured "none" algorithm (RFC 7515 §6) is never allowed implicitly,
// for the same reason jws.UnsecureAnyAlgorithm is a distinctly named,
// opt-in type rather than the default: it must be named explicitly in
// Algorithms even when Algorithms is otherwise unrestricted.
func (r SignatureRequirement) allows(alg jwa.SignatureAlgorithm) bool {
	if alg == jwa.None {
		return r.explicitlyAllowsNone()
	}
	if len(r.Algorithms) == 0 {
		return true
	}
	for _, a := range r.Algorithms {
		if a == alg {
			return true
		}
	}
	return false
}

func (r SignatureRequirement) explicitlyAllowsNone() bool {
	for _, a := range r.Algorithms {
		if a == jwa.None {
			return true
		}
	}
	return false
}

// RequireSignature builds a SignatureRequirement that verifies against a
// single fixed key, accepting any algorithm compatible with that key.
func RequireSignature(key *jwk.Key) SignatureRequirement {
	return SignatureRequirement{KeyProvider: StaticKeys{key}}
}

// RequireSignatureFrom builds a SignatureRequirement that resolves
// candidate keys from provider, restricted to algorithms. Named
// distinctly from RequireSignature since Go has no overloading.
func RequireSignatureFrom(provider KeyProvider, algorithms ...jwa.SignatureAlgorithm) SignatureRequirement {
	return SignatureRequirement{KeyProvider: provider, Algorithms: algorithms}
}

// Policy is an immutable composition of validators. Build one with the
// Require* constructors and pass it to TryReadToken.
type Policy struct {
	_NamedFieldsRequired struct{}

	// Signature configures JWS signature verification. Required for any
	// JWS token, and for the inner JWS of a nested JWT unless the
	// nested token is ignored (IgnoreNestedToken).
	Signature SignatureRequirement

	// EncryptionKeys resolves candidate keys for unwrapping a JWE's
	// content encryption key. Required for any JWE token.
	EncryptionKeys KeyProvider

	HeaderValidators []HeaderValidator
	ClaimsValidators []ClaimsValidator

	// MaxTokenSize bounds the input accepted by TryReadToken. Zero means
	// DefaultMaxTokenSize.
	MaxTokenSize int

	// ClockSkew records a clock-skew tolerance for the policy. It is not
	// read by TryReadToken or by any validator; RequireLifetime takes its
	// own clockSkew argument.
	ClockSkew time.Duration

	// IgnoreNestedToken, when true, makes TryReadToken return a JWE's
	// decrypted payload as opaque bytes instead of recursing into it even
	// when "cty" names a nested JWT.
	IgnoreNestedToken bool
}

func (p *Policy) maxTokenSize() int {
	if p.MaxTokenSize > 0 {
		return p.MaxTokenSize
	}
	return DefaultMaxTokenSize
}

// hasValidation reports whether any validator is configured. The reader
// uses it to return a decrypted payload that isn't a claims set as opaque
// bytes when nothing would validate those claims anyway.
func (p *Policy) hasValidation() bool {
	return len(p.HeaderValidators) > 0 || len(p.ClaimsValidators) > 0
}

func (p *Policy) validateHeader(ctx context.Context, header Header) error {
	for _, v := range p.HeaderValidators {
		if err := v.ValidateHeader(ctx, header); err != nil {
			return err
		}
	}
	return nil
}

func (p *Policy) validateClaims(ctx context.Context, claims *Claims) error {
	for _, v := range p.ClaimsValidators {
		if err := v.ValidateClaims(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}
