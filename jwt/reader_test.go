package jwt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/joseforge/jose/jwa"
	_ "github.com/joseforge/jose/jwa/acbc" // for jwa.A128CBC_HS256
	_ "github.com/joseforge/jose/jwa/akw"  // for jwa.A128KW
	_ "github.com/joseforge/jose/jwa/hs"   // for jwa.HS256
	"github.com/joseforge/jose/jwe"
	"github.com/joseforge/jose/jws"
)

// flipSegmentByte mutates the last byte of the nth '.'-delimited segment of
// a compact token, producing a structurally valid but cryptographically
// tampered token.
func flipSegmentByte(t *testing.T, token []byte, segment int) []byte {
	t.Helper()
	parts := bytes.Split(token, []byte("."))
	if segment >= len(parts) {
		t.Fatalf("token has no segment %d", segment)
	}
	raw, err := base64.RawURLEncoding.DecodeString(string(parts[segment]))
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) == 0 {
		t.Fatal("segment decoded to zero bytes")
	}
	raw[len(raw)-1] ^= 0xFF
	parts[segment] = []byte(base64.RawURLEncoding.EncodeToString(raw))
	return bytes.Join(parts, []byte("."))
}

// TestTryReadToken_HS256RoundTrip: a token signed with HS256 and read
// back with a policy requiring that exact algorithm and key must succeed
// and recover the original claims.
func TestTryReadToken_HS256RoundTrip(t *testing.T) {
	key := hs256Key(t)
	header := jws.NewHeader()
	header.SetAlgorithm(jwa.HS256)
	claims := new(Claims)
	claims.Issuer = "https://joseforge.example/issuer"
	claims.Audience = []string{"https://example.com/aud"}
	payload, err := claims.Encode()
	if err != nil {
		t.Fatal(err)
	}
	token, err := WriteToken(&JwsDescriptor{Header: header, Payload: payload, SigningKey: key})
	if err != nil {
		t.Fatal(err)
	}

	policy := &Policy{
		Signature: RequireSignatureFrom(StaticKeys{key}, jwa.HS256),
	}
	result := TryReadToken(context.Background(), token, policy)
	if result.Status != StatusSuccess {
		t.Fatalf("want StatusSuccess, got %v (%v)", result.Status, result.Err)
	}
	if result.Token == nil || result.Token.Claims == nil {
		t.Fatal("expected decoded claims")
	}
	if result.Token.Claims.Issuer != claims.Issuer {
		t.Errorf("want issuer %q, got %q", claims.Issuer, result.Token.Claims.Issuer)
	}
	if result.Token.ResolvedKey != key {
		t.Error("want ResolvedKey to be the verifying key")
	}
}

// TestTryReadToken_TamperedSignature: a single mutated byte in the
// payload invalidates the signature, so the policy's signature
// requirement must reject with StatusSignatureValidationFailed rather
// than silently accepting.
func TestTryReadToken_TamperedSignature(t *testing.T) {
	key := hs256Key(t)
	header := jws.NewHeader()
	header.SetAlgorithm(jwa.HS256)
	claims := new(Claims)
	claims.Subject = "alice"
	payload, err := claims.Encode()
	if err != nil {
		t.Fatal(err)
	}
	token, err := WriteToken(&JwsDescriptor{Header: header, Payload: payload, SigningKey: key})
	if err != nil {
		t.Fatal(err)
	}

	tampered := flipSegmentByte(t, token, 1)

	policy := &Policy{Signature: RequireSignatureFrom(StaticKeys{key}, jwa.HS256)}
	result := TryReadToken(context.Background(), tampered, policy)
	if result.Status != StatusSignatureValidationFailed {
		t.Fatalf("want StatusSignatureValidationFailed, got %v (%v)", result.Status, result.Err)
	}
}

// TestTryReadToken_UnknownAlgorithm: a header naming an algorithm this
// module does not recognize must be rejected as StatusInvalidHeader
// carrying a HeaderError for "alg", before any key lookup or signature
// check runs.
func TestTryReadToken_UnknownAlgorithm(t *testing.T) {
	header := map[string]any{"alg": "bogus-9000", "typ": "JWT"}
	rawHeader, err := json.Marshal(header)
	if err != nil {
		t.Fatal(err)
	}
	b64Header := base64.RawURLEncoding.EncodeToString(rawHeader)
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"alice"}`))
	signature := base64.RawURLEncoding.EncodeToString([]byte("not-a-real-signature"))
	token := []byte(b64Header + "." + payload + "." + signature)

	key := hs256Key(t)
	policy := &Policy{Signature: RequireSignature(key)}
	result := TryReadToken(context.Background(), token, policy)
	if result.Status != StatusInvalidHeader {
		t.Fatalf("want StatusInvalidHeader, got %v (%v)", result.Status, result.Err)
	}
	var headerErr *HeaderError
	if !errors.As(result.Err, &headerErr) {
		t.Fatalf("want a *HeaderError, got %T: %v", result.Err, result.Err)
	}
	if headerErr.Param != "alg" {
		t.Errorf("want HeaderError.Param %q, got %q", "alg", headerErr.Param)
	}
}

// TestTryReadToken_UnsupportedAlgorithm: ES256 is in the closed registry
// but this test binary never imports jwa/es, so no implementation is
// registered. That is StatusUnsupported (recognized but not implemented
// in the build), distinct from the unrecognized-algorithm
// StatusInvalidHeader above.
func TestTryReadToken_UnsupportedAlgorithm(t *testing.T) {
	if jwa.ES256.Available() {
		t.Skip("jwa/es is registered in this build")
	}
	b64Header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"ES256"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"alice"}`))
	signature := base64.RawURLEncoding.EncodeToString([]byte("not-a-real-signature"))
	token := []byte(b64Header + "." + payload + "." + signature)

	policy := &Policy{Signature: RequireSignature(hs256Key(t))}
	result := TryReadToken(context.Background(), token, policy)
	if result.Status != StatusUnsupported {
		t.Fatalf("want StatusUnsupported, got %v (%v)", result.Status, result.Err)
	}
}

// TestTryReadToken_JweRoundTrip: a JWE written with A128KW key management
// and A128CBC-HS256 content encryption must decrypt and decode its claims
// when the policy supplies the matching key.
func TestTryReadToken_JweRoundTrip(t *testing.T) {
	key := a128kwKey(t)
	header := &jwe.Header{}
	header.SetAlgorithm(jwa.A128KW)
	claims := new(Claims)
	claims.Issuer = "https://joseforge.example/issuer"
	payload, err := claims.Encode()
	if err != nil {
		t.Fatal(err)
	}
	token, err := WriteToken(&JweDescriptor{
		Header:        header,
		InnerPayload:  &BinaryJweDescriptor{Data: payload},
		EncryptionKey: key,
		Encryption:    jwa.A128CBC_HS256,
	})
	if err != nil {
		t.Fatal(err)
	}

	policy := &Policy{EncryptionKeys: StaticKeys{key}}
	result := TryReadToken(context.Background(), token, policy)
	if result.Status != StatusSuccess {
		t.Fatalf("want StatusSuccess, got %v (%v)", result.Status, result.Err)
	}
	if result.Token == nil || result.Token.Claims == nil {
		t.Fatal("expected decoded claims")
	}
	if result.Token.Claims.Issuer != claims.Issuer {
		t.Errorf("want issuer %q, got %q", claims.Issuer, result.Token.Claims.Issuer)
	}
}

// TestTryReadToken_JweTamperedCiphertext: a mutated ciphertext byte must
// fail AEAD integrity verification and report StatusDecryptionFailed.
func TestTryReadToken_JweTamperedCiphertext(t *testing.T) {
	key := a128kwKey(t)
	header := &jwe.Header{}
	header.SetAlgorithm(jwa.A128KW)
	token, err := WriteToken(&JweDescriptor{
		Header:        header,
		InnerPayload:  &PlaintextJweDescriptor{Text: "secret"},
		EncryptionKey: key,
		Encryption:    jwa.A128CBC_HS256,
	})
	if err != nil {
		t.Fatal(err)
	}

	tampered := flipSegmentByte(t, token, 3)

	policy := &Policy{EncryptionKeys: StaticKeys{key}}
	result := TryReadToken(context.Background(), tampered, policy)
	if result.Status != StatusDecryptionFailed {
		t.Fatalf("want StatusDecryptionFailed, got %v (%v)", result.Status, result.Err)
	}
}

// TestTryReadToken_NestedJwt: a JWE whose decrypted payload is itself a
// compact JWS. With IgnoreNestedToken false
// (the default) TryReadToken recurses and returns the inner token's
// claims; with it true, the JWE's decrypted bytes come back as opaque
// Payload and Token is nil.
func TestTryReadToken_NestedJwt(t *testing.T) {
	signingKey := hs256Key(t)
	innerHeader := jws.NewHeader()
	innerHeader.SetAlgorithm(jwa.HS256)
	claims := new(Claims)
	claims.Subject = "nested-claims"
	payload, err := claims.Encode()
	if err != nil {
		t.Fatal(err)
	}

	encKey := a128kwKey(t)
	outerHeader := &jwe.Header{}
	outerHeader.SetAlgorithm(jwa.A128KW)
	outerHeader.SetContentType("JWT")

	token, err := WriteToken(&JweDescriptor{
		Header: outerHeader,
		InnerPayload: &JwsDescriptor{
			Header:     innerHeader,
			Payload:    payload,
			SigningKey: signingKey,
		},
		EncryptionKey: encKey,
		Encryption:    jwa.A128CBC_HS256,
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("recurses by default", func(t *testing.T) {
		policy := &Policy{
			EncryptionKeys: StaticKeys{encKey},
			Signature:      RequireSignatureFrom(StaticKeys{signingKey}, jwa.HS256),
		}
		result := TryReadToken(context.Background(), token, policy)
		if result.Status != StatusSuccess {
			t.Fatalf("want StatusSuccess, got %v (%v)", result.Status, result.Err)
		}
		if result.Token == nil || result.Token.Claims == nil {
			t.Fatal("expected the inner JWS's claims to be recovered")
		}
		if result.Token.Claims.Subject != claims.Subject {
			t.Errorf("want subject %q, got %q", claims.Subject, result.Token.Claims.Subject)
		}
	})

	t.Run("ignores nested token when configured", func(t *testing.T) {
		policy := &Policy{
			EncryptionKeys:    StaticKeys{encKey},
			IgnoreNestedToken: true,
		}
		result := TryReadToken(context.Background(), token, policy)
		if result.Status != StatusSuccess {
			t.Fatalf("want StatusSuccess, got %v (%v)", result.Status, result.Err)
		}
		if result.Token != nil {
			t.Error("want Token to be nil when IgnoreNestedToken is set")
		}
		if bytes.Count(result.Payload, []byte(".")) != 2 {
			t.Errorf("want Payload to be the raw inner compact JWS, got %s", result.Payload)
		}
	})
}

// TestTryReadToken_RequireLifetime: lifetime validation must reject an
// expired token and accept one still within a configured clock skew
// allowance.
func TestTryReadToken_RequireLifetime(t *testing.T) {
	key := hs256Key(t)
	fixedNow := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	restore := nowFunc
	nowFunc = func() time.Time { return fixedNow }
	defer func() { nowFunc = restore }()

	build := func(exp time.Time) []byte {
		header := jws.NewHeader()
		header.SetAlgorithm(jwa.HS256)
		claims := new(Claims)
		claims.ExpirationTime = exp
		payload, err := claims.Encode()
		if err != nil {
			t.Fatal(err)
		}
		token, err := WriteToken(&JwsDescriptor{Header: header, Payload: payload, SigningKey: key})
		if err != nil {
			t.Fatal(err)
		}
		return token
	}

	t.Run("rejects an expired token", func(t *testing.T) {
		token := build(fixedNow.Add(-time.Minute))
		policy := &Policy{
			Signature:        RequireSignatureFrom(StaticKeys{key}, jwa.HS256),
			ClaimsValidators: []ClaimsValidator{RequireLifetime(0, false)},
		}
		result := TryReadToken(context.Background(), token, policy)
		if result.Status != StatusPolicyViolation {
			t.Fatalf("want StatusPolicyViolation, got %v (%v)", result.Status, result.Err)
		}
	})

	t.Run("accepts an expired token within clock skew", func(t *testing.T) {
		token := build(fixedNow.Add(-time.Minute))
		policy := &Policy{
			Signature:        RequireSignatureFrom(StaticKeys{key}, jwa.HS256),
			ClaimsValidators: []ClaimsValidator{RequireLifetime(2 * time.Minute, false)},
		}
		result := TryReadToken(context.Background(), token, policy)
		if result.Status != StatusSuccess {
			t.Fatalf("want StatusSuccess, got %v (%v)", result.Status, result.Err)
		}
	})

	t.Run("accepts a token still within its lifetime", func(t *testing.T) {
		token := build(fixedNow.Add(time.Hour))
		policy := &Policy{
			Signature:        RequireSignatureFrom(StaticKeys{key}, jwa.HS256),
			ClaimsValidators: []ClaimsValidator{RequireLifetime(0, false)},
		}
		result := TryReadToken(context.Background(), token, policy)
		if result.Status != StatusSuccess {
			t.Fatalf("want StatusSuccess, got %v (%v)", result.Status, result.Err)
		}
	})
}
