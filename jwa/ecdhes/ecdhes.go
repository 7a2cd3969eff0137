// Package ecdhes implements Key Agreement with Elliptic Curve Diffie-Hellman Ephemeral Static (ECDH-ES).
package ecdhes

import (
	"crypto"
	_ "crypto/sha256" // for crypto.SHA256
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/joseforge/jose/jwa"
	"github.com/joseforge/jose/jwa/akw"
	"github.com/joseforge/jose/jwk"
	"github.com/joseforge/jose/keymanage"
)

// alg is bare ECDH-ES: Algorithm.size == 0 routes NewKeyWrapper to
// directKeyWrapper, so f is never consulted for this instance.
var alg = &Algorithm{}

// New returns a new algorithm
// Elliptic Curve Diffie-Hellman Ephemeral Static key agreement using Concat KDF.
func New() keymanage.Algorithm {
	return alg
}

var a128kw = &Algorithm{
	size: 16,
	f: func(key *jwk.Key) keymanage.KeyWrapper {
		return akw.New128().NewKeyWrapper(key)
	},
}

// NewA128KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A128KW".
func NewA128KW() keymanage.Algorithm {
	return a128kw
}

var a192kw = &Algorithm{
	size: 24,
	f: func(key *jwk.Key) keymanage.KeyWrapper {
		return akw.New192().NewKeyWrapper(key)
	},
}

// NewA192KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A192KW".
func NewA192KW() keymanage.Algorithm {
	return a192kw
}

var a256kw = &Algorithm{
	size: 32,
	f: func(key *jwk.Key) keymanage.KeyWrapper {
		return akw.New256().NewKeyWrapper(key)
	},
}

// NewA256KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A256KW".
func NewA256KW() keymanage.Algorithm {
	return a256kw
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES, New)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A128KW, NewA128KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A192KW, NewA192KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A256KW, NewA256KW)
}

var _ keymanage.Algorithm = (*Algorithm)(nil)

// Algorithm is ECDH-ES, or ECDH-ES with the derived key wrapped by AES Key
// Wrap when size is non-zero.
type Algorithm struct {
	size int
	f    func(*jwk.Key) keymanage.KeyWrapper
}

// These mirror the duck-typed header getter/setter convention that agcmkw
// and pbes2 use to read and write per-message header parameters through the
// opts argument of WrapKey/UnwrapKey.
type encryptionAlgorithmGetter interface {
	EncryptionAlgorithm() jwa.EncryptionAlgorithm
}

type ephemeralPublicKeyGetter interface {
	EphemeralPublicKey() *jwk.Key
}

type ephemeralPublicKeySetter interface {
	SetEphemeralPublicKey(epk *jwk.Key)
}

type agreementPartyUInfoGetter interface {
	AgreementPartyUInfo() []byte
}

type agreementPartyVInfoGetter interface {
	AgreementPartyVInfo() []byte
}

// NewKeyWrapper implements [github.com/joseforge/jose/keymanage.Algorithm].
// key is the recipient's static EC key pair: its public half is used to
// wrap, its private half to unwrap. Bare ECDH-ES (no AES Key Wrap layer)
// uses the agreed key as the CEK directly, so it returns a
// [github.com/joseforge/jose/keymanage.KeyDeriver] instead of an ordinary
// wrap/unwrap KeyWrapper.
func (alg *Algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	if alg.size == 0 {
		return &directKeyWrapper{key: key}
	}
	return &KeyWrapper{
		alg: alg,
		key: key,
	}
}

var _ keymanage.KeyWrapper = (*KeyWrapper)(nil)

type KeyWrapper struct {
	alg *Algorithm
	key keymanage.Key
}

// WrapKey generates an ephemeral key pair on the recipient's curve, derives
// the CEK (or key-encryption-key) from it, and records the ephemeral public
// key in opts via SetEphemeralPublicKey so it can be carried in the "epk"
// header parameter.
func (w *KeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	encAlgGetter, ok := opts.(encryptionAlgorithmGetter)
	if !ok {
		return nil, errors.New("ecdhes: EncryptionAlgorithm not found")
	}
	setter, ok := opts.(ephemeralPublicKeySetter)
	if !ok {
		return nil, errors.New("ecdhes: SetEphemeralPublicKey not found")
	}

	pub := w.key.PublicKey()
	priv, epk, err := generateEphemeralKey(pub)
	if err != nil {
		return nil, fmt.Errorf("ecdhes: failed to generate ephemeral key: %w", err)
	}
	setter.SetEphemeralPublicKey(epk)

	var apu, apv []byte
	if getter, ok := opts.(agreementPartyUInfoGetter); ok {
		apu = getter.AgreementPartyUInfo()
	}
	if getter, ok := opts.(agreementPartyVInfoGetter); ok {
		apv = getter.AgreementPartyVInfo()
	}

	encAlg := encAlgGetter.EncryptionAlgorithm()
	size := w.alg.size
	if size == 0 {
		size = encAlg.New().CEKSize()
	}

	derived, err := deriveECDHES([]byte(encAlg.String()), apu, apv, priv, pub, size)
	if err != nil {
		return nil, fmt.Errorf("ecdhes: failed to derive key: %w", err)
	}
	kek, err := jwk.NewPrivateKey(derived)
	if err != nil {
		return nil, err
	}
	return w.alg.f(kek).WrapKey(cek, opts)
}

// UnwrapKey derives the CEK (or key-encryption-key) from the static private
// key and the "epk" header parameter, then delegates the remainder to the
// AES Key Wrap wrapper this algorithm was built with.
func (w *KeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	encAlgGetter, ok := opts.(encryptionAlgorithmGetter)
	if !ok {
		return nil, errors.New("ecdhes: EncryptionAlgorithm not found")
	}
	epkGetter, ok := opts.(ephemeralPublicKeyGetter)
	if !ok {
		return nil, errors.New("ecdhes: EphemeralPublicKey not found")
	}
	epk := epkGetter.EphemeralPublicKey()
	if epk == nil {
		return nil, errors.New("ecdhes: epk header parameter is missing")
	}

	var apu, apv []byte
	if getter, ok := opts.(agreementPartyUInfoGetter); ok {
		apu = getter.AgreementPartyUInfo()
	}
	if getter, ok := opts.(agreementPartyVInfoGetter); ok {
		apv = getter.AgreementPartyVInfo()
	}

	encAlg := encAlgGetter.EncryptionAlgorithm()
	size := w.alg.size
	if size == 0 {
		size = encAlg.New().CEKSize()
	}

	derived, err := deriveECDHES([]byte(encAlg.String()), apu, apv, w.key.PrivateKey(), epk.PublicKey(), size)
	if err != nil {
		return nil, fmt.Errorf("ecdhes: failed to derive key: %w", err)
	}
	kek, err := jwk.NewPrivateKey(derived)
	if err != nil {
		return nil, err
	}
	return w.alg.f(kek).UnwrapKey(data, opts)
}

var _ keymanage.KeyWrapper = (*directKeyWrapper)(nil)
var _ keymanage.KeyDeriver = (*directKeyWrapper)(nil)

// directKeyWrapper backs bare ECDH-ES (Algorithm.size == 0): the Concat KDF
// output is used as the CEK directly, with no wrapped key segment, so it
// implements KeyDeriver instead of wrapping a caller-supplied CEK.
type directKeyWrapper struct {
	key keymanage.Key
}

func (w *directKeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	return nil, errors.New("ecdhes: bare ECDH-ES derives the CEK, it does not wrap one; use DeriveKey")
}

func (w *directKeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	encAlgGetter, ok := opts.(encryptionAlgorithmGetter)
	if !ok {
		return nil, errors.New("ecdhes: EncryptionAlgorithm not found")
	}
	epkGetter, ok := opts.(ephemeralPublicKeyGetter)
	if !ok {
		return nil, errors.New("ecdhes: EphemeralPublicKey not found")
	}
	epk := epkGetter.EphemeralPublicKey()
	if epk == nil {
		return nil, errors.New("ecdhes: epk header parameter is missing")
	}

	var apu, apv []byte
	if getter, ok := opts.(agreementPartyUInfoGetter); ok {
		apu = getter.AgreementPartyUInfo()
	}
	if getter, ok := opts.(agreementPartyVInfoGetter); ok {
		apv = getter.AgreementPartyVInfo()
	}

	encAlg := encAlgGetter.EncryptionAlgorithm()
	size := encAlg.New().CEKSize()
	return deriveECDHES([]byte(encAlg.String()), apu, apv, w.key.PrivateKey(), epk.PublicKey(), size)
}

// DeriveKey implements [github.com/joseforge/jose/keymanage.KeyDeriver]. It
// generates an ephemeral key pair, records its public half in opts via
// SetEphemeralPublicKey so it can be carried as the "epk" header parameter,
// and returns the Concat KDF output as the CEK with no encrypted_key
// segment.
func (w *directKeyWrapper) DeriveKey(opts any) (cek, encryptedKey []byte, err error) {
	encAlgGetter, ok := opts.(encryptionAlgorithmGetter)
	if !ok {
		return nil, nil, errors.New("ecdhes: EncryptionAlgorithm not found")
	}
	setter, ok := opts.(ephemeralPublicKeySetter)
	if !ok {
		return nil, nil, errors.New("ecdhes: SetEphemeralPublicKey not found")
	}

	pub := w.key.PublicKey()
	priv, epk, err := generateEphemeralKey(pub)
	if err != nil {
		return nil, nil, fmt.Errorf("ecdhes: failed to generate ephemeral key: %w", err)
	}
	setter.SetEphemeralPublicKey(epk)

	var apu, apv []byte
	if getter, ok := opts.(agreementPartyUInfoGetter); ok {
		apu = getter.AgreementPartyUInfo()
	}
	if getter, ok := opts.(agreementPartyVInfoGetter); ok {
		apv = getter.AgreementPartyVInfo()
	}

	encAlg := encAlgGetter.EncryptionAlgorithm()
	size := encAlg.New().CEKSize()
	cek, err = deriveECDHES([]byte(encAlg.String()), apu, apv, priv, pub, size)
	if err != nil {
		return nil, nil, fmt.Errorf("ecdhes: failed to derive key: %w", err)
	}
	return cek, []byte{}, nil
}

func deriveECDHES(alg, apu, apv []byte, priv, pub any, keySize int) ([]byte, error) {
	z, err := deriveZ(priv, pub)
	if err != nil {
		return nil, err
	}

	var pubinfo [4]byte
	bits := keySize * 8
	pubinfo[0] = byte(bits >> 24)
	pubinfo[1] = byte(bits >> 16)
	pubinfo[2] = byte(bits >> 8)
	pubinfo[3] = byte(bits)

	r := newKDF(crypto.SHA256, z, alg, apu, apv, pubinfo[:], []byte{})
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

type kdf struct {
	hash hash.Hash

	z []byte

	// AlgorithmID
	alg []byte

	// PartyUInfo, PartyVInfo
	apu, apv []byte

	// SuppPubInfo, SuppPrivInfo
	pub, priv []byte

	round uint32
	n     int
	buf   []byte
}

func newKDF(hash crypto.Hash, z, alg, apu, apv, pub, priv []byte) *kdf {
	h := hash.New()
	size := h.Size()
	if size < 4 {
		size = 4
	}
	return &kdf{
		z:    z,
		hash: h,
		alg:  alg,
		apu:  apu,
		apv:  apv,
		pub:  pub,
		priv: priv,
		buf:  make([]byte, size),
	}
}

func (r *kdf) Read(data []byte) (n int, err error) {
	if r.n == 0 {
		r.round++
		r.hash.Reset()

		r.putUint32(r.round)
		r.hash.Write(r.z)
		r.putUint32(uint32(len(r.alg)))
		r.hash.Write(r.alg)
		r.putUint32(uint32(len(r.apu)))
		r.hash.Write(r.apu)
		r.putUint32(uint32(len(r.apv)))
		r.hash.Write(r.apv)
		r.hash.Write(r.pub)
		r.hash.Write(r.priv)

		r.buf = r.hash.Sum(r.buf[:0])
		r.n = len(r.buf)
	}
	n = copy(data, r.buf[len(r.buf)-r.n:])
	r.n -= n
	return
}

func (r *kdf) putUint32(v uint32) {
	buf := r.buf[:4]
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
	r.hash.Write(buf)
}
