package jwt

import (
	"bytes"
	"compress/flate"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/joseforge/jose/internal/base64url"
	"github.com/joseforge/jose/jwa"
	"github.com/joseforge/jose/jwk"
	"github.com/joseforge/jose/keymanage"
)

// GenerationError is the single error type WriteToken returns; it wraps
// the underlying cause so callers can match it with errors.As and still
// reach the root failure with errors.Is.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "jwt: failed to generate token: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// WriteToken emits the compact serialization described by d.
func WriteToken(d Descriptor) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch v := d.(type) {
	case *JwsDescriptor:
		data, err = writeJws(v)
	case *JweDescriptor:
		data, err = writeJwe(v)
	default:
		err = fmt.Errorf("jwt: unsupported descriptor type %T", d)
	}
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	return data, nil
}

// jwsHeaderEncodeCache amortizes repeated header encodings across tokens
// minted with the same header, keyed by the raw header JSON bytes (which
// already embed the signing algorithm).
var jwsHeaderEncodeCache = newLRUCache[string, []byte](defaultLRUCapacity)

// signatureSize returns the exact byte length signingKey.Sign will
// produce for alg, so writeJws can allocate its output buffer once with
// no reallocation or truncation. The second return value is false only if
// the size cannot be determined in advance (not reachable for any
// algorithm in this module's closed registry, but guarded rather than
// assumed).
func signatureSize(alg jwa.SignatureAlgorithm, key *jwk.Key) (int, bool) {
	if alg == jwa.None {
		return 0, true
	}
	attrs := alg.Attributes()
	if attrs.SignatureIsFixed {
		return attrs.SignatureSize, true
	}
	if attrs.IsSymmetric {
		return attrs.Hash.Size(), true
	}
	if pub, ok := key.PublicKey().(*rsa.PublicKey); ok {
		return (pub.N.BitLen() + 7) / 8, true
	}
	return 0, false
}

func writeJws(d *JwsDescriptor) ([]byte, error) {
	if d.Header == nil || d.SigningKey == nil {
		return nil, errors.New("jwt: jws descriptor is not fully configured")
	}
	alg := d.Header.Algorithm()
	if !alg.Available() {
		return nil, fmt.Errorf("jwt: signature algorithm %s is not available", alg)
	}

	rawHeader, err := d.Header.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to encode header: %w", err)
	}
	b64Header, ok := jwsHeaderEncodeCache.Get(string(rawHeader))
	if !ok {
		b64Header = base64url.AppendEncode(nil, rawHeader)
		jwsHeaderEncodeCache.Put(string(rawHeader), b64Header)
	}

	l1 := len(b64Header)
	l2 := base64url.EncodedLen(len(d.Payload))

	sigSize, known := signatureSize(alg, d.SigningKey)
	var buf []byte
	if known {
		l3 := base64url.EncodedLen(sigSize)
		buf = make([]byte, l1+1+l2+1+l3)
	} else {
		// Generous upper bound for an algorithm this module cannot size in
		// advance; grown below if still too small.
		buf = make([]byte, l1+1+l2+1+base64url.EncodedLen(1024))
	}

	copy(buf[:l1], b64Header)
	buf[l1] = '.'
	base64url.Encode(buf[l1+1:l1+1+l2], d.Payload)
	buf[l1+1+l2] = '.'
	signingInput := buf[:l1+1+l2]

	signer := alg.New()
	signingKey := signer.NewSigningKey(d.SigningKey)
	signature, err := signingKey.Sign(signingInput)
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to sign: %w", err)
	}

	l3 := base64url.EncodedLen(len(signature))
	need := l1 + 1 + l2 + 1 + l3
	if len(buf) < need {
		grown := make([]byte, need)
		copy(grown, buf[:l1+1+l2+1])
		buf = grown
	} else {
		buf = buf[:need]
	}
	base64url.Encode(buf[l1+1+l2+1:], signature)
	return buf, nil
}

// encryptedKeySize returns the exact byte length the key management
// algorithm kmAlg will produce when wrapping (or deriving) a content
// encryption key sized for enc, so writeJwe can size its output buffer in
// one pass. The second return value is false
// only if the size cannot be determined in advance — the RSA family sizes
// to the recipient key's modulus, which is only known once the key is
// resolved to an *rsa.PublicKey.
func encryptedKeySize(kmAlg jwa.KeyManagementAlgorithm, encAlg jwa.EncryptionAlgorithm, key *jwk.Key) (int, bool) {
	attrs := kmAlg.Attributes()
	if !attrs.ProducesWrappedKey {
		return 0, true
	}
	if attrs.UsesKeyModulusSize {
		if pub, ok := key.PublicKey().(*rsa.PublicKey); ok {
			return (pub.N.BitLen() + 7) / 8, true
		}
		return 0, false
	}
	return encAlg.CEKSize() + attrs.WrapOverhead, true
}

// writeJwe builds the compact JWE serialization directly from the
// key-management and content-encryption primitives, the same way writeJws
// bypasses jws's own Sign helper: jwe.NewMessageWithKW/Message.Compact
// build their output by appending to a growing byte slice, while this
// precomputes every segment length from jwa's algorithm attributes
// (falling back to a guess-and-grow only for the RSA family, whose wrapped
// key size depends on the recipient's modulus) and allocates once.
func writeJwe(d *JweDescriptor) ([]byte, error) {
	if d.Header == nil || d.EncryptionKey == nil || d.InnerPayload == nil {
		return nil, errors.New("jwt: jwe descriptor is not fully configured")
	}
	kmAlg := d.Header.Algorithm()
	if !kmAlg.Available() {
		return nil, fmt.Errorf("jwt: key management algorithm %s is not available", kmAlg)
	}
	if !d.Encryption.Available() {
		return nil, fmt.Errorf("jwt: encryption algorithm %s is not available", d.Encryption)
	}

	plaintext, err := encodeInnerPayload(d.InnerPayload)
	if err != nil {
		return nil, err
	}

	if d.Header.CompressionAlgorithm() == jwa.DEF {
		buf := bytes.NewBuffer(make([]byte, 0, len(plaintext)))
		w, err := flate.NewWriter(buf, flate.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("jwt: failed to compress payload: %w", err)
		}
		if _, err := w.Write(plaintext); err != nil {
			return nil, fmt.Errorf("jwt: failed to compress payload: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("jwt: failed to compress payload: %w", err)
		}
		plaintext = buf.Bytes()
	}

	// The header is cloned, not mutated in place, so a caller that reuses
	// the same *jwe.Header across multiple WriteToken calls doesn't see
	// one call's "epk"/"iv"/"tag"/"p2s"/"p2c" parameters leak into the
	// next (mirrors jwe.NewMessageWithKW's protected.Clone()).
	header := d.Header.Clone()
	// Set before wrapping/deriving, not after: ECDH-ES (with or without an
	// AES Key Wrap layer) and the bare-ECDH-ES deriver both read "enc" back
	// out of the header via opts to size and label the key derivation.
	header.SetEncryptionAlgorithm(d.Encryption)

	kw := kmAlg.New().NewKeyWrapper(d.EncryptionKey)
	encAttrs := d.Encryption.Attributes()

	// Predicted from jwa's algorithm attributes before any key-management
	// or encryption primitive runs; used below to allocate the output
	// buffer in one pass instead of after the fact.
	predictedKeySize, keySizeKnown := encryptedKeySize(kmAlg, d.Encryption, d.EncryptionKey)
	predictedCiphertextSize, ciphertextSizeKnown := d.Encryption.CiphertextSize(len(plaintext))

	var cek, encryptedKey []byte
	if deriver, ok := kw.(keymanage.KeyDeriver); ok {
		cek, encryptedKey, err = deriver.DeriveKey(header)
	} else {
		enc1 := d.Encryption.New()
		cek, err = enc1.GenerateCEK()
		if err != nil {
			return nil, fmt.Errorf("jwt: failed to generate content encryption key: %w", err)
		}
		encryptedKey, err = kw.WrapKey(cek, header)
	}
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to encrypt key: %w", err)
	}

	rawHeader, err := header.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to encode header: %w", err)
	}
	b64Header := base64url.AppendEncode(nil, rawHeader)

	enc1 := d.Encryption.New()
	iv, err := enc1.GenerateIV()
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to generate initialization vector: %w", err)
	}

	l1 := len(b64Header)
	l3 := base64url.EncodedLen(encAttrs.IVSize)
	var buf []byte
	if keySizeKnown && ciphertextSizeKnown {
		l2 := base64url.EncodedLen(predictedKeySize)
		l4 := base64url.EncodedLen(predictedCiphertextSize)
		l5 := base64url.EncodedLen(encAttrs.TagSize)
		buf = make([]byte, l1+1+l2+1+l3+1+l4+1+l5)
	}

	ciphertext, authTag, err := enc1.Encrypt(cek, iv, b64Header, plaintext)
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to encrypt: %w", err)
	}

	l2 := base64url.EncodedLen(len(encryptedKey))
	l4 := base64url.EncodedLen(len(ciphertext))
	l5 := base64url.EncodedLen(len(authTag))
	need := l1 + 1 + l2 + 1 + l3 + 1 + l4 + 1 + l5
	if len(buf) != need {
		// Not reachable for any algorithm in this module's closed registry
		// (the RSA family's own wrapped-key length and every registered
		// enc algorithm's ciphertext/IV/tag sizes are all exact), but
		// guarded rather than assumed — e.g. an RSA key whose PublicKey()
		// isn't an *rsa.PublicKey, which encryptedKeySize reports unknown.
		buf = make([]byte, need)
	}

	pos := 0
	copy(buf[pos:pos+l1], b64Header)
	pos += l1
	buf[pos] = '.'
	pos++
	base64url.Encode(buf[pos:pos+l2], encryptedKey)
	pos += l2
	buf[pos] = '.'
	pos++
	base64url.Encode(buf[pos:pos+l3], iv)
	pos += l3
	buf[pos] = '.'
	pos++
	base64url.Encode(buf[pos:pos+l4], ciphertext)
	pos += l4
	buf[pos] = '.'
	pos++
	base64url.Encode(buf[pos:pos+l5], authTag)

	return buf, nil
}

func encodeInnerPayload(p InnerPayload) ([]byte, error) {
	switch v := p.(type) {
	case *PlaintextJweDescriptor:
		return []byte(v.Text), nil
	case *BinaryJweDescriptor:
		return v.Data, nil
	case *JwsDescriptor:
		return writeJws(v)
	default:
		return nil, fmt.Errorf("jwt: unsupported inner payload type %T", p)
	}
}
