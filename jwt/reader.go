package jwt

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseforge/jose/internal/base64url"
	"github.com/joseforge/jose/internal/jsonutils"
	"github.com/joseforge/jose/internal/tokenize"
	"github.com/joseforge/jose/jwe"
	"github.com/joseforge/jose/jwk"
	"github.com/joseforge/jose/jws"
	"github.com/joseforge/jose/keymanage"
)

// DefaultMaxTokenSize is used when Policy.MaxTokenSize is zero. Tokens
// larger than 16 KiB are rejected as malformed unless the caller raises
// Policy.MaxTokenSize explicitly.
const DefaultMaxTokenSize = 16 * 1024

var jwsHeaderCache = newLRUCache[string, *jws.Header](defaultLRUCapacity)
var jweHeaderCache = newLRUCache[string, *jwe.Header](defaultLRUCapacity)

func decodeCachedJWSHeader(b64header []byte) (*jws.Header, error) {
	key := string(b64header)
	if h, ok := jwsHeaderCache.Get(key); ok {
		return h, nil
	}
	raw, err := base64url.DecodeString(b64header)
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to decode header: %w", err)
	}
	var h jws.Header
	if err := h.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("jwt: failed to parse header: %w", err)
	}
	jwsHeaderCache.Put(key, &h)
	return &h, nil
}

func decodeCachedJWEHeader(b64header []byte) (*jwe.Header, error) {
	key := string(b64header)
	if h, ok := jweHeaderCache.Get(key); ok {
		return h, nil
	}
	raw, err := base64url.DecodeString(b64header)
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to decode header: %w", err)
	}
	var h jwe.Header
	if err := h.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("jwt: failed to parse header: %w", err)
	}
	jweHeaderCache.Put(key, &h)
	return &h, nil
}

// TryReadToken reads and validates a compact-serialized token: it tokenizes,
// decodes the header, runs header validation, resolves and verifies a
// signature (JWS) or unwraps and decrypts a content encryption key (JWE),
// and — for JWE — recurses into a nested token or decodes the plaintext as
// a JWT claims payload. It never panics on data-dependent input; every
// classifiable failure is returned as a Result.
func TryReadToken(ctx context.Context, data []byte, policy *Policy) Result {
	if policy == nil {
		return failure(StatusMalformedToken, errors.New("jwt: policy is required"))
	}
	if len(data) == 0 || len(data) > policy.maxTokenSize() {
		return failure(StatusMalformedToken, errors.New("jwt: token is empty or exceeds the maximum size"))
	}

	segments, n, err := tokenize.Tokenize(data)
	if err != nil {
		return failure(StatusMalformedToken, err)
	}

	switch n {
	case 3:
		return readJWS(ctx, data, segments, policy)
	case 5:
		return readJWE(ctx, data, segments, policy)
	default:
		return failure(StatusMalformedToken, tokenize.ErrMalformed)
	}
}

func readJWS(ctx context.Context, data []byte, segments [5][]byte, policy *Policy) Result {
	header, err := decodeCachedJWSHeader(segments[0])
	if err != nil {
		return failure(StatusMalformedToken, err)
	}
	if err := policy.validateHeader(ctx, header); err != nil {
		return failure(StatusInvalidHeader, err)
	}

	alg := header.Algorithm()
	if !alg.Available() {
		if alg.Recognized() {
			return failure(StatusUnsupported, fmt.Errorf("jwt: signature algorithm %s is not available in this build", alg))
		}
		return failure(StatusInvalidHeader, &HeaderError{Param: "alg", Err: fmt.Errorf("jwt: signature algorithm %s is not recognized", alg)})
	}
	if !policy.Signature.configured() {
		return failure(StatusSigningKeyNotFound, errors.New("jwt: policy has no signature requirement configured"))
	}
	if !policy.Signature.allows(alg) {
		return failure(StatusInvalidHeader, &HeaderError{Param: "alg", Err: fmt.Errorf("jwt: signature algorithm %s is not allowed by policy", alg)})
	}

	candidates, err := policy.Signature.KeyProvider.FindKeys(ctx, header)
	if err != nil {
		return failure(StatusSigningKeyNotFound, err)
	}
	if len(candidates) == 0 {
		return failure(StatusSigningKeyNotFound, errors.New("jwt: no candidate signing keys"))
	}

	signature, err := base64url.DecodeString(segments[2])
	if err != nil {
		return failure(StatusMalformedToken, fmt.Errorf("jwt: failed to decode signature: %w", err))
	}
	// segments[0] and segments[1] are contiguous subslices of data separated
	// by a single '.', so the signing input is just the prefix of data up to
	// (and not including) the dot before the signature segment.
	signingInput := data[:len(segments[0])+1+len(segments[1])]

	signer := alg.New()
	var resolvedKey *jwk.Key
	var verifyErr error
	for _, key := range candidates {
		signingKey := signer.NewSigningKey(key)
		if err := signingKey.Verify(signingInput, signature); err == nil {
			resolvedKey = key
			break
		} else {
			verifyErr = err
		}
	}
	if resolvedKey == nil {
		if verifyErr == nil {
			verifyErr = errors.New("jwt: no candidate key verified the signature")
		}
		return failure(StatusSignatureValidationFailed, verifyErr)
	}

	payload, err := base64url.DecodeString(segments[1])
	if err != nil {
		return failure(StatusMalformedToken, fmt.Errorf("jwt: failed to decode payload: %w", err))
	}
	claims, err := decodeClaimsRaw(payload)
	if err != nil {
		return failure(StatusMalformedToken, err)
	}
	if err := policy.validateClaims(ctx, claims); err != nil {
		return Result{Status: StatusPolicyViolation, Err: err, Payload: payload}
	}
	return success(payload, &Token{Header: header, Claims: claims, ResolvedKey: resolvedKey})
}

func readJWE(ctx context.Context, data []byte, segments [5][]byte, policy *Policy) Result {
	header, err := decodeCachedJWEHeader(segments[0])
	if err != nil {
		return failure(StatusMalformedToken, err)
	}
	if err := policy.validateHeader(ctx, header); err != nil {
		return failure(StatusInvalidHeader, err)
	}

	encAlg := header.EncryptionAlgorithm()
	if encAlg == "" {
		return failure(StatusMissingEncryptionAlgorithm, errors.New(`jwt: jwe header has no "enc" parameter`))
	}
	if !encAlg.Available() {
		if encAlg.Recognized() {
			return failure(StatusUnsupported, fmt.Errorf("jwt: encryption algorithm %s is not available in this build", encAlg))
		}
		return failure(StatusInvalidHeader, &HeaderError{Param: "enc", Err: fmt.Errorf("jwt: encryption algorithm %s is not recognized", encAlg)})
	}
	kmAlg := header.Algorithm()
	if !kmAlg.Available() {
		if kmAlg.Recognized() {
			return failure(StatusUnsupported, fmt.Errorf("jwt: key management algorithm %s is not available in this build", kmAlg))
		}
		return failure(StatusInvalidHeader, &HeaderError{Param: "alg", Err: fmt.Errorf("jwt: key management algorithm %s is not recognized", kmAlg)})
	}
	if policy.EncryptionKeys == nil {
		return failure(StatusEncryptionKeyNotFound, errors.New("jwt: policy has no encryption key provider configured"))
	}

	candidates, err := policy.EncryptionKeys.FindKeys(ctx, header)
	if err != nil {
		return failure(StatusEncryptionKeyNotFound, err)
	}
	if len(candidates) == 0 {
		return failure(StatusEncryptionKeyNotFound, errors.New("jwt: no candidate encryption keys"))
	}

	msg, err := jwe.Parse(data)
	if err != nil {
		return failure(StatusMalformedToken, err)
	}

	wrappers := make([]keymanage.KeyWrapper, 0, len(candidates))
	for _, key := range candidates {
		wrappers = append(wrappers, kmAlg.New().NewKeyWrapper(key))
	}
	kw := multiKeyWrapper(wrappers)

	plaintext, err := msg.Decrypt(jwe.FindKeyWrapperFunc(func(protected, unprotected, recipient *jwe.Header) (keymanage.KeyWrapper, error) {
		return kw, nil
	}))
	if err != nil {
		if errors.Is(err, jwe.ErrDecompressionFailed) {
			return failure(StatusDecompressionFailed, err)
		}
		return failure(StatusDecryptionFailed, err)
	}

	if policy.IgnoreNestedToken {
		return success(plaintext, nil)
	}

	// cty="JWT" (RFC 7519 §5.2) signals a nested token, but we don't
	// require callers to set it: we simply try the plaintext as a nested
	// compact token first and fall back to treating it as a direct claims
	// payload when that recursion reports StatusMalformedToken.
	nested := TryReadToken(ctx, plaintext, policy)
	if nested.Status != StatusMalformedToken {
		return nested
	}

	claims, err := decodeClaimsRaw(plaintext)
	if err != nil {
		if !policy.hasValidation() {
			return success(plaintext, nil)
		}
		return failure(StatusMalformedToken, err)
	}
	if err := policy.validateClaims(ctx, claims); err != nil {
		return Result{Status: StatusPolicyViolation, Err: err, Payload: plaintext}
	}
	return success(plaintext, &Token{Claims: claims})
}

// multiKeyWrapper tries each wrapper's UnwrapKey in order and returns the
// first success, so candidate keys are tried in the order the provider
// yielded them. jwe.Message.Decrypt only retries FindKeyWrapper across
// recipients, not across candidate keys for one recipient, so the
// candidate loop has to live on this side of that call.
type multiKeyWrapper []keymanage.KeyWrapper

func (m multiKeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	return nil, errors.New("jwt: multiKeyWrapper does not support wrapping")
}

func (m multiKeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	var err error
	for _, w := range m {
		cek, e := w.UnwrapKey(data, opts)
		if e == nil {
			return cek, nil
		}
		err = e
	}
	if err == nil {
		err = errors.New("jwt: no candidate key unwrapped the content encryption key")
	}
	return nil, err
}

// decodeClaimsRaw decodes a JWT claims payload without enforcing lifetime
// constraints; callers apply RequireLifetime (or any other ClaimsValidator)
// themselves, since Policy owns validation ordering.
func decodeClaimsRaw(data []byte) (*Claims, error) {
	var raw map[string]any
	if err := jsonutils.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("jwt: failed to parse claims: %w", err)
	}
	c := &Claims{Raw: raw}
	d := jsonutils.NewDecoder("jwt", raw)

	c.Issuer, _ = d.GetString("iss")
	c.Subject, _ = d.GetString("sub")

	if aud, ok := raw["aud"]; ok {
		switch aud := aud.(type) {
		case []any:
			for _, v := range aud {
				s, ok := v.(string)
				if !ok {
					d.SaveError(fmt.Errorf("jwt: invalid type of aud claim: %T", v))
					continue
				}
				c.Audience = append(c.Audience, s)
			}
		case string:
			c.Audience = []string{aud}
		}
	}

	c.ExpirationTime, _ = d.GetTime("exp")
	c.NotBefore, _ = d.GetTime("nbf")
	c.IssuedAt, _ = d.GetTime("iat")
	c.JWTID, _ = d.GetString("jti")

	if err := d.Err(); err != nil {
		return nil, err
	}
	return c, nil
}
