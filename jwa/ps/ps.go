// Package ps implements RSASSA-PSS Digital Signature.
package ps

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"hash"

	"github.com/joseforge/jose/internal/pool"
	"github.com/joseforge/jose/jwa"
	"github.com/joseforge/jose/jwk/jwktypes"
	"github.com/joseforge/jose/sig"
)

var ps256 = &Algorithm{
	alg:  jwa.PS256,
	hash: crypto.SHA256,
}

func New256() sig.Algorithm {
	return ps256
}

var ps384 = &Algorithm{
	alg:  jwa.PS384,
	hash: crypto.SHA384,
}

func New384() sig.Algorithm {
	return ps384
}

var ps512 = &Algorithm{
	alg:  jwa.PS512,
	hash: crypto.SHA512,
}

func New512() sig.Algorithm {
	return ps512
}

func init() {
	jwa.RegisterSignatureAlgorithm(jwa.PS256, New256)
	jwa.RegisterSignatureAlgorithm(jwa.PS384, New384)
	jwa.RegisterSignatureAlgorithm(jwa.PS512, New512)
}

var _ sig.Algorithm = (*Algorithm)(nil)

type Algorithm struct {
	alg  jwa.SignatureAlgorithm
	hash crypto.Hash
	weak bool
}

var _ sig.SigningKey = (*signingKey)(nil)

// signingKey pools the scratch hash.Hash used to digest the signing input
// before calling rsa.SignPSS/VerifyPSS, same reasoning as jwa/es and
// jwa/rs.
type signingKey struct {
	hash       crypto.Hash
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	canSign    bool
	canVerify  bool
	pool       *pool.Pool[hash.Hash]
}

// NewSigningKey implements [github.com/joseforge/jose/sig.Algorithm].
func (alg *Algorithm) NewSigningKey(key sig.Key) sig.SigningKey {
	priv := key.PrivateKey()
	pub := key.PublicKey()

	k := &signingKey{
		hash:      alg.hash,
		canSign:   jwktypes.CanUseFor(key, jwktypes.KeyOpSign),
		canVerify: jwktypes.CanUseFor(key, jwktypes.KeyOpVerify),
	}
	if p, ok := priv.(*rsa.PrivateKey); ok {
		k.privateKey = p
	} else if priv != nil {
		return sig.NewInvalidKey(alg.alg.String(), priv, pub)
	}
	if p, ok := pub.(*rsa.PublicKey); ok {
		k.publicKey = p
	} else if pub != nil {
		return sig.NewInvalidKey(alg.alg.String(), priv, pub)
	}
	if k.privateKey != nil && k.publicKey == nil {
		k.publicKey = &k.privateKey.PublicKey
	}
	if k.publicKey == nil {
		return sig.NewInvalidKey(alg.alg.String(), priv, pub)
	}
	if !alg.weak {
		if size := k.publicKey.N.BitLen(); size < 2048 {
			return sig.NewErrorKey(fmt.Errorf("ps: weak key bit length: %d", size))
		}
	}
	hashFn := alg.hash
	k.pool = pool.New(func() hash.Hash {
		return hashFn.New()
	})
	return k
}

// Sign implements [github.com/joseforge/jose/sig.SigningKey].
func (key *signingKey) Sign(payload []byte) (signature []byte, err error) {
	if !key.hash.Available() {
		return nil, sig.ErrHashUnavailable
	}
	if key.privateKey == nil || !key.canSign {
		return nil, sig.ErrSignUnavailable
	}
	h := key.pool.Get()
	defer func() {
		h.Reset()
		key.pool.Put(h)
	}()
	if _, err := h.Write(payload); err != nil {
		return nil, err
	}
	return rsa.SignPSS(rand.Reader, key.privateKey, key.hash, h.Sum(nil), nil)
}

// Verify implements [github.com/joseforge/jose/sig.SigningKey].
func (key *signingKey) Verify(payload, signature []byte) error {
	if !key.hash.Available() {
		return sig.ErrHashUnavailable
	}
	if !key.canVerify {
		return sig.ErrSignUnavailable
	}
	h := key.pool.Get()
	defer func() {
		h.Reset()
		key.pool.Put(h)
	}()
	if _, err := h.Write(payload); err != nil {
		return err
	}
	if err := rsa.VerifyPSS(key.publicKey, key.hash, h.Sum(nil), signature, nil); err != nil {
		return sig.ErrSignatureMismatch
	}
	return nil
}
