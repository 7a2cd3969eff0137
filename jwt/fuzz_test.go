package jwt

import (
	"context"
	"testing"

	_ "github.com/joseforge/jose/jwa/acbc"
	_ "github.com/joseforge/jose/jwa/akw"
	_ "github.com/joseforge/jose/jwa/hs"
	"github.com/joseforge/jose/jwk"
)

func FuzzTryReadToken(f *testing.F) {
	// RFC 7515 Appendix A.1. Example JWS Using HMAC SHA-256
	f.Add(`eyJ0eXAiOiJKV1QiLA0KICJhbGciOiJIUzI1NiJ9.` +
		`eyJpc3MiOiJqb2UiLA0KICJleHAiOjEzMDA4MTkzODAsDQogImh0dHA6Ly9leGFt` +
		`cGxlLmNvbS9pc19yb290Ijp0cnVlfQ.` +
		`dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk`)

	// RFC 7516 Appendix A.3. Example JWE Using AES Key Wrap and AES_128_CBC_HMAC_SHA_256
	f.Add(`eyJhbGciOiJBMTI4S1ciLCJlbmMiOiJBMTI4Q0JDLUhTMjU2In0.` +
		`6KB707dM9YTIgHtLvtgWQ8mKwboJW3of9locizkDTHzBC2IlrT1oOQ.` +
		`AxY8DCtDaGlsbGljb3RoZQ.` +
		`KDlTtXchhZTGufMYmOYGS4HffxPSUrfmqCHXaI9wOGY.` +
		`U0m_YmjN04DJvceFICbCVQ`)

	f.Add(`..`)
	f.Add(`eyJhbGciOiJIUzI1NiJ9..`)
	f.Add(`not a token at all`)

	// the key of RFC 7515 Appendix A.1, so the JWS seed actually verifies
	sigKey, err := jwk.ParseKey([]byte(`{"kty":"oct",` +
		`"k":"AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75` +
		`aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow"}`))
	if err != nil {
		f.Fatal(err)
	}
	encKey, err := jwk.ParseKey([]byte(`{"kty":"oct","k":"GawgguFyGrWKav7AX4VKUg"}`))
	if err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, s string) {
		policy := &Policy{
			Signature:      RequireSignature(sigKey),
			EncryptionKeys: StaticKeys{encKey},
		}
		result := TryReadToken(context.Background(), []byte(s), policy)
		switch result.Status {
		case StatusSuccess:
			if result.Payload == nil {
				t.Errorf("success with no payload for %q", s)
			}
			if result.Err != nil {
				t.Errorf("success carrying an error for %q: %v", s, result.Err)
			}
		default:
			if result.Err == nil {
				t.Errorf("status %v with no cause for %q", result.Status, s)
			}
		}
	})
}
