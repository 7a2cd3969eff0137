// Package jwt handles JSON Web Token defined in RFC 7519.
package jwt

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/joseforge/jose/internal/jsonutils"
	"github.com/joseforge/jose/jwk"
	"github.com/joseforge/jose/jws"
)

var b64 = base64.RawURLEncoding
var nowFunc = time.Now // for testing

// Claims is a JWT Claims Set defined in RFC7519.
type Claims struct {
	// RFC7519 Section 4.1.1. "iss" (Issuer) Claim
	Issuer string

	// RFC7519 Section 4.1.2. "sub" (Subject) Claim
	Subject string

	// RFC7519 Section 4.1.3. "aud" (Audience) Claim
	Audience []string

	// RFC7519 Section 4.1.4. "exp" (Expiration Time) Claim
	ExpirationTime time.Time

	// RFC7519 Section 4.1.5. "nbf" (Not Before) Claim
	NotBefore time.Time

	// RFC7519 Section 4.1.6. "iat" (Issued At) Claim
	IssuedAt time.Time

	// RFC7519 Section 4.1.7. "jti" (JWT ID) Claim
	JWTID string

	// Raw is the raw data of JSON-decoded JWT Claims Set.
	// JSON numbers are decoded as json.Number to avoid data loss.
	Raw map[string]any
}

// Token is a decoded JWT token.
type Token struct {
	Header *jws.Header
	Claims *Claims

	// ResolvedKey is the key TryReadToken used to verify this token's
	// signature, when the token was a JWS (or the innermost JWS of a
	// nested JWT). Nil for JWE payloads that were not themselves a signed
	// JWS.
	ResolvedKey *jwk.Key
}

// Encode marshals c into a JWT Claims Set payload suitable for
// JwsDescriptor.Payload or BinaryJweDescriptor.Data before calling
// WriteToken.
func (c *Claims) Encode() ([]byte, error) {
	return encodeClaims(c)
}

func encodeClaims(c *Claims) ([]byte, error) {
	raw := make(map[string]any, len(c.Raw))
	for k, v := range c.Raw {
		raw[k] = v
	}
	e := jsonutils.NewEncoder(raw)

	if iss := c.Issuer; iss != "" {
		e.Set("iss", iss)
	}
	if sub := c.Subject; sub != "" {
		e.Set("sub", sub)
	}
	if aud := c.Audience; aud != nil {
		if len(aud) == 1 {
			e.Set("aud", aud[0])
		} else {
			e.Set("aud", aud)
		}
	}
	if exp := c.ExpirationTime; !exp.IsZero() {
		e.SetTime("exp", exp)
	}
	if nbf := c.NotBefore; !nbf.IsZero() {
		e.SetTime("nbf", nbf)
	}
	if iat := c.IssuedAt; !iat.IsZero() {
		e.SetTime("iat", iat)
	}
	if jti := c.JWTID; jti != "" {
		e.Set("jti", jti)
	}

	if err := e.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(e.Data())
}
