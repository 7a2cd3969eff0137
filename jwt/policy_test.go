package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/joseforge/jose/jwa"
)

func TestRequireIssuer(t *testing.T) {
	validator := RequireIssuer("https://a.example", "https://b.example")

	if err := validator.ValidateClaims(context.Background(), &Claims{Issuer: "https://b.example"}); err != nil {
		t.Errorf("want a trusted issuer to pass, got %v", err)
	}

	err := validator.ValidateClaims(context.Background(), &Claims{Issuer: "https://evil.example"})
	if err == nil {
		t.Fatal("want an untrusted issuer to be rejected")
	}
	var claimErr *ClaimError
	if ce, ok := err.(*ClaimError); !ok {
		t.Fatalf("want *ClaimError, got %T", err)
	} else {
		claimErr = ce
	}
	if claimErr.Claim != "iss" {
		t.Errorf("want ClaimError.Claim %q, got %q", "iss", claimErr.Claim)
	}
}

func TestRequireAudience(t *testing.T) {
	validator := RequireAudience("api://orders")

	if err := validator.ValidateClaims(context.Background(), &Claims{Audience: []string{"api://billing", "api://orders"}}); err != nil {
		t.Errorf("want a matching audience to pass, got %v", err)
	}
	if err := validator.ValidateClaims(context.Background(), &Claims{Audience: []string{"api://billing"}}); err == nil {
		t.Error("want a non-matching audience to be rejected")
	}
}

func TestRequireLifetime_RequireExp(t *testing.T) {
	restore := nowFunc
	nowFunc = func() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = restore }()

	validator := RequireLifetime(0, true)
	if err := validator.ValidateClaims(context.Background(), &Claims{}); err == nil {
		t.Error("want a token with no exp claim to be rejected when requireExp is true")
	}

	validator = RequireLifetime(0, false)
	if err := validator.ValidateClaims(context.Background(), &Claims{}); err != nil {
		t.Errorf("want a token with no exp claim to pass when requireExp is false, got %v", err)
	}
}

func TestRequireLifetime_NotBefore(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	restore := nowFunc
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = restore }()

	validator := RequireLifetime(0, false)
	if err := validator.ValidateClaims(context.Background(), &Claims{NotBefore: now.Add(time.Minute)}); err == nil {
		t.Error("want a not-yet-valid token to be rejected")
	}
	if err := validator.ValidateClaims(context.Background(), &Claims{NotBefore: now.Add(-time.Minute)}); err != nil {
		t.Errorf("want an already-valid token to pass, got %v", err)
	}

	skewed := RequireLifetime(2*time.Minute, false)
	if err := skewed.ValidateClaims(context.Background(), &Claims{NotBefore: now.Add(time.Minute)}); err != nil {
		t.Errorf("want clock skew to admit a token not-yet-valid within the allowance, got %v", err)
	}
}

// SignatureRequirement.allows never implicitly admits the unsecured "none"
// algorithm, even when Algorithms is left empty (meaning "any algorithm").
func TestSignatureRequirement_NeverImplicitlyAllowsNone(t *testing.T) {
	unrestricted := RequireSignature(nil)
	if unrestricted.allows(jwa.None) {
		t.Error("want an unrestricted SignatureRequirement to still reject jwa.None")
	}
	if !unrestricted.allows(jwa.HS256) {
		t.Error("want an unrestricted SignatureRequirement to allow a real algorithm")
	}

	explicit := RequireSignatureFrom(StaticKeys{}, jwa.None, jwa.HS256)
	if !explicit.allows(jwa.None) {
		t.Error("want jwa.None to be allowed once named explicitly")
	}

	restricted := RequireSignatureFrom(StaticKeys{}, jwa.HS256)
	if restricted.allows(jwa.RS256) {
		t.Error("want an algorithm outside the configured set to be rejected")
	}
}
