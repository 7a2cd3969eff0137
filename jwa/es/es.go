// package es implements ECDSA algorithm.
package es

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"hash"
	"math/big"

	"github.com/joseforge/jose/internal/pool"
	"github.com/joseforge/jose/jwa"
	"github.com/joseforge/jose/jwk/jwktypes"
	"github.com/joseforge/jose/sig"
)

var es256 = &Algorithm{
	alg:  jwa.ES256,
	hash: crypto.SHA256,
	crv:  elliptic.P256(),
}

func New256() sig.Algorithm {
	return es256
}

var es384 = &Algorithm{
	alg:  jwa.ES384,
	hash: crypto.SHA384,
	crv:  elliptic.P384(),
}

func New384() sig.Algorithm {
	return es384
}

var es512 = &Algorithm{
	alg:  jwa.ES512,
	hash: crypto.SHA512,
	crv:  elliptic.P521(),
}

func New512() sig.Algorithm {
	return es512
}

func init() {
	jwa.RegisterSignatureAlgorithm(jwa.ES256, New256)
	jwa.RegisterSignatureAlgorithm(jwa.ES384, New384)
	jwa.RegisterSignatureAlgorithm(jwa.ES512, New512)
}

var _ sig.Algorithm = (*Algorithm)(nil)

type Algorithm struct {
	alg  jwa.SignatureAlgorithm
	hash crypto.Hash
	crv  elliptic.Curve
}

var _ sig.SigningKey = (*signingKey)(nil)

// signingKey pools the scratch hash.Hash used to digest the signing input:
// ECDSA signs/verifies over the hash of the payload, not the payload
// itself, so each Sign/Verify call needs a fresh digest state but the
// crypto.Hash constructor it comes from never changes for the life of the
// key, same reasoning as jwa/rs's pooled scratch hash.
type signingKey struct {
	hash       crypto.Hash
	crv        elliptic.Curve
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
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
		crv:       alg.crv,
		canSign:   jwktypes.CanUseFor(key, jwktypes.KeyOpSign),
		canVerify: jwktypes.CanUseFor(key, jwktypes.KeyOpVerify),
	}
	if p, ok := priv.(*ecdsa.PrivateKey); ok {
		if p != nil && p.Curve != alg.crv {
			return sig.NewInvalidKey(alg.alg.String(), priv, pub)
		}
		k.privateKey = p
	} else if priv != nil {
		return sig.NewInvalidKey(alg.alg.String(), priv, pub)
	}
	if p, ok := pub.(*ecdsa.PublicKey); ok {
		if p != nil && p.Curve != alg.crv {
			return sig.NewInvalidKey(alg.alg.String(), priv, pub)
		}
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
	sum := h.Sum(nil)

	r, s, err := ecdsa.Sign(rand.Reader, key.privateKey, sum)
	if err != nil {
		return nil, err
	}
	bits := key.crv.Params().BitSize
	size := (bits + 7) / 8

	ret := make([]byte, 2*size)
	r.FillBytes(ret[:size])
	s.FillBytes(ret[size:])
	return ret, nil
}

// Verify implements [github.com/joseforge/jose/sig.SigningKey].
func (key *signingKey) Verify(payload, signature []byte) error {
	if !key.hash.Available() {
		return sig.ErrHashUnavailable
	}
	if !key.canVerify {
		return sig.ErrSignUnavailable
	}

	bits := key.crv.Params().BitSize
	size := (bits + 7) / 8
	if len(signature) != 2*size {
		return sig.ErrSignatureMismatch
	}

	h := key.pool.Get()
	defer func() {
		h.Reset()
		key.pool.Put(h)
	}()
	if _, err := h.Write(payload); err != nil {
		return err
	}
	sum := h.Sum(nil)

	r := new(big.Int).SetBytes(signature[:size])
	s := new(big.Int).SetBytes(signature[size:])
	if !ecdsa.Verify(key.publicKey, sum, r, s) {
		return sig.ErrSignatureMismatch
	}
	return nil
}
