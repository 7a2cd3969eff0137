// Package rsaoaep implements a Key Encryption Algorithm RSA-OAEP.
package rsaoaep

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/joseforge/jose/jwa"
	"github.com/joseforge/jose/keymanage"
)

var alg = &Algorithm{
	hash: crypto.SHA1,
}

func New() keymanage.Algorithm {
	return alg
}

var alg256 = &Algorithm{
	hash: crypto.SHA256,
}

func New256() keymanage.Algorithm {
	return alg256
}

var alg384 = &Algorithm{
	hash: crypto.SHA384,
}

// New384 returns RSA-OAEP-384 (RSAES OAEP using SHA-384 and MGF1 with SHA-384).
func New384() keymanage.Algorithm {
	return alg384
}

var alg512 = &Algorithm{
	hash: crypto.SHA512,
}

// New512 returns RSA-OAEP-512 (RSAES OAEP using SHA-512 and MGF1 with SHA-512).
func New512() keymanage.Algorithm {
	return alg512
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.RSA_OAEP, New)
	jwa.RegisterKeyManagementAlgorithm(jwa.RSA_OAEP_256, New256)
	jwa.RegisterKeyManagementAlgorithm(jwa.RSA_OAEP_384, New384)
	jwa.RegisterKeyManagementAlgorithm(jwa.RSA_OAEP_512, New512)
}

var _ keymanage.Algorithm = (*Algorithm)(nil)

type Algorithm struct {
	hash crypto.Hash
}

// NewKeyWrapper implements [github.com/joseforge/jose/keymanage.Algorithm].
func (alg *Algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	privateKey := key.PrivateKey()
	priv, ok := privateKey.(*rsa.PrivateKey)
	if !ok && privateKey != nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("rsaoaep: invalid private key type: %T", privateKey))
	}

	publicKey := key.PublicKey()
	pub, ok := publicKey.(*rsa.PublicKey)
	if !ok && publicKey != nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("rsaoaep: invalid public key type: %T", publicKey))
	}

	if priv != nil {
		return &KeyWrapper{
			alg:  alg,
			priv: priv,
			pub:  &priv.PublicKey,
		}
	}

	return &KeyWrapper{
		alg: alg,
		pub: pub,
	}
}

var _ keymanage.KeyWrapper = (*KeyWrapper)(nil)
var label = []byte{}

type KeyWrapper struct {
	alg  *Algorithm
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
}

func (w *KeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	hash := w.alg.hash.New()
	return rsa.EncryptOAEP(hash, rand.Reader, w.pub, cek, label)
}

func (w *KeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	hash := w.alg.hash.New()
	return rsa.DecryptOAEP(hash, rand.Reader, w.priv, data, label)
}
