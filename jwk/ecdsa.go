package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"

	"github.com/joseforge/jose/internal/jsonutils"
	"github.com/joseforge/jose/jwa"
)

// RFC7518 6.2.2. Parameters for Elliptic Curve Private Keys
func parseEcdsaKey(d *jsonutils.Decoder, key *Key) {
	var privateKey ecdsa.PrivateKey
	crv := jwa.EllipticCurve(d.MustString("crv"))
	switch crv {
	case jwa.P256:
		privateKey.Curve = elliptic.P256()
	case jwa.P384:
		privateKey.Curve = elliptic.P384()
	case jwa.P521:
		privateKey.Curve = elliptic.P521()
	default:
		d.SaveError(fmt.Errorf("jwk: unknown crv: %q", crv))
		return
	}

	// parameters for public key
	privateKey.X = new(big.Int).SetBytes(d.MustBytes("x"))
	privateKey.Y = new(big.Int).SetBytes(d.MustBytes("y"))
	if err := d.Err(); err != nil {
		return
	}
	if !privateKey.Curve.IsOnCurve(privateKey.X, privateKey.Y) {
		d.SaveError(errors.New("jwk: the point (x, y) is not on the curve"))
		return
	}
	key.pub = &privateKey.PublicKey

	// parameters for private key
	if dBytes, ok := d.GetBytes("d"); ok {
		privateKey.D = new(big.Int).SetBytes(dBytes)
		if privateKey.D.Sign() == 0 || privateKey.D.Cmp(privateKey.Curve.Params().N) >= 0 {
			d.SaveError(errors.New("jwk: parameter d out of range"))
			return
		}
		x, y := privateKey.Curve.ScalarBaseMult(dBytes)
		if x.Cmp(privateKey.X) != 0 || y.Cmp(privateKey.Y) != 0 {
			d.SaveError(errors.New("jwk: ecdsa private key does not match its public key"))
			return
		}
		key.priv = &privateKey
	}

	// sanity check of the certificate
	if certs := key.x5c; len(certs) > 0 {
		cert := certs[0]
		publicKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
		if !ok {
			d.SaveError(errors.New("jwk: public key types are mismatch"))
			return
		}
		if !privateKey.PublicKey.Equal(publicKey) {
			d.SaveError(errors.New("jwk: public keys are mismatch"))
		}
	}
}

func encodeEcdsaKey(e *jsonutils.Encoder, priv *ecdsa.PrivateKey, pub *ecdsa.PublicKey) {
	e.Set("kty", jwa.EC.String())

	size := (pub.Curve.Params().BitSize + 7) / 8
	switch pub.Curve {
	case elliptic.P256():
		e.Set("crv", string(jwa.P256))
	case elliptic.P384():
		e.Set("crv", string(jwa.P384))
	case elliptic.P521():
		e.Set("crv", string(jwa.P521))
	default:
		e.SaveError(fmt.Errorf("jwk: unsupported elliptic curve: %s", pub.Curve.Params().Name))
		return
	}
	e.SetBytes("x", fixedSizeBytes(pub.X, size))
	e.SetBytes("y", fixedSizeBytes(pub.Y, size))

	if priv != nil {
		e.SetBytes("d", fixedSizeBytes(priv.D, size))
	}
}

func fixedSizeBytes(v *big.Int, size int) []byte {
	b := v.Bytes()
	if len(b) >= size {
		return b
	}
	buf := make([]byte, size)
	copy(buf[size-len(b):], b)
	return buf
}

// validateEcdsaPrivateKey sanity checks a private key supplied directly
// (not via JSON parsing) before it is wrapped in a Key.
func validateEcdsaPrivateKey(key *ecdsa.PrivateKey) error {
	if key.Curve == nil || key.X == nil || key.Y == nil || key.D == nil {
		return errors.New("jwk: incomplete ecdsa private key")
	}
	if err := validateEcdsaPublicKey(&key.PublicKey); err != nil {
		return err
	}
	if key.D.Sign() == 0 || key.D.Cmp(key.Curve.Params().N) >= 0 {
		return errors.New("jwk: parameter d out of range")
	}
	x, y := key.Curve.ScalarBaseMult(key.D.Bytes())
	if x.Cmp(key.X) != 0 || y.Cmp(key.Y) != 0 {
		return errors.New("jwk: ecdsa private key does not match its public key")
	}
	return nil
}

// validateEcdsaPublicKey sanity checks a public key supplied directly
// (not via JSON parsing) before it is wrapped in a Key.
func validateEcdsaPublicKey(key *ecdsa.PublicKey) error {
	if key.Curve == nil || key.X == nil || key.Y == nil {
		return errors.New("jwk: incomplete ecdsa public key")
	}
	if !key.Curve.IsOnCurve(key.X, key.Y) {
		return errors.New("jwk: the point (x, y) is not on the curve")
	}
	return nil
}
