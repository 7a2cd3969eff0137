//go:build go1.20

package ecdhes

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/joseforge/jose/jwk"
)

// generateEphemeralKey creates a fresh key pair on the same curve as pub and
// returns it alongside a *jwk.Key wrapping its public half, ready to be
// carried as the "epk" header parameter. jwk only models EC keys backed by
// crypto/ecdsa, so that is the only curve representation supported here.
func generateEphemeralKey(pub any) (priv any, epk *jwk.Key, err error) {
	pubkey, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("ecdhes: unknown public key type: %T", pub)
	}
	ephemeral, err := ecdsa.GenerateKey(pubkey.Curve, rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	epk, err = jwk.NewPublicKey(&ephemeral.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	return ephemeral, epk, nil
}

func deriveZ(priv, pub any) ([]byte, error) {
	switch priv := priv.(type) {
	case *ecdsa.PrivateKey:
		pubkey, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ecdhes: want *ecdsa.PublicKey but got %T", pub)
		}
		privECDH, err := priv.ECDH()
		if err != nil {
			return nil, err
		}
		pubECDH, err := pubkey.ECDH()
		if err != nil {
			return nil, err
		}
		return privECDH.ECDH(pubECDH)
	case *ecdh.PrivateKey:
		pubkey, ok := pub.(*ecdh.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ecdhes: want *ecdh.PublicKey but got %T", pub)
		}
		return priv.ECDH(pubkey)
	default:
		return nil, fmt.Errorf("ecdhes: unknown private key type: %T", priv)
	}
}
