package jwa

import "crypto"

// EncryptionAttributes describes the fixed sizes associated with a content
// encryption algorithm, so callers can size buffers without instantiating
// the algorithm's engine.
type EncryptionAttributes struct {
	CEKSize int
	IVSize  int
	TagSize int

	// BlockSize is the cipher block size for algorithms that pad the
	// plaintext (PKCS#7, RFC 7518 §5.2.3's AES_CBC_HMAC_SHA2: output is
	// always plaintextLen rounded up to the next full block, plus one
	// block if plaintextLen is already a multiple of BlockSize). Zero for
	// the unpadded GCM family, where ciphertext length equals plaintext
	// length exactly.
	BlockSize int
}

var encryptionAttributes = map[EncryptionAlgorithm]EncryptionAttributes{
	A128CBC_HS256: {CEKSize: 32, IVSize: 16, TagSize: 16, BlockSize: 16},
	A192CBC_HS384: {CEKSize: 48, IVSize: 16, TagSize: 24, BlockSize: 16},
	A256CBC_HS512: {CEKSize: 64, IVSize: 16, TagSize: 32, BlockSize: 16},
	A128GCM:       {CEKSize: 16, IVSize: 12, TagSize: 16},
	A192GCM:       {CEKSize: 24, IVSize: 12, TagSize: 16},
	A256GCM:       {CEKSize: 32, IVSize: 12, TagSize: 16},
}

// CiphertextSize returns the exact ciphertext length this algorithm
// produces for a plaintext of length plaintextLen, or (0, false) if enc is
// not recognized.
func (enc EncryptionAlgorithm) CiphertextSize(plaintextLen int) (int, bool) {
	attrs, ok := encryptionAttributes[enc]
	if !ok {
		return 0, false
	}
	if attrs.BlockSize == 0 {
		return plaintextLen, true
	}
	return (plaintextLen/attrs.BlockSize + 1) * attrs.BlockSize, true
}

// Attributes returns the fixed sizes for enc, or the zero value if enc is
// not one of the closed set of algorithms this package recognizes.
func (enc EncryptionAlgorithm) Attributes() EncryptionAttributes {
	return encryptionAttributes[enc]
}

// Recognized reports whether enc is one of the closed set of content
// encryption algorithms this package defines, whether or not an
// implementation is registered in this build.
func (enc EncryptionAlgorithm) Recognized() bool {
	_, ok := encryptionAttributes[enc]
	return ok
}

// SignatureAttributes describes the hash and minimum key size a signature
// algorithm requires.
type SignatureAttributes struct {
	Hash             crypto.Hash
	MinKeyBits       int
	IsSymmetric      bool
	SignatureIsFixed bool // fixed-size R||S encoding rather than ASN.1 DER
	SignatureSize    int  // 0 if variable (RSA depends on modulus size)
}

var signatureAttributes = map[SignatureAlgorithm]SignatureAttributes{
	HS256: {Hash: crypto.SHA256, MinKeyBits: 256, IsSymmetric: true},
	HS384: {Hash: crypto.SHA384, MinKeyBits: 384, IsSymmetric: true},
	HS512: {Hash: crypto.SHA512, MinKeyBits: 512, IsSymmetric: true},
	RS256: {Hash: crypto.SHA256, MinKeyBits: 2048},
	RS384: {Hash: crypto.SHA384, MinKeyBits: 2048},
	RS512: {Hash: crypto.SHA512, MinKeyBits: 2048},
	PS256: {Hash: crypto.SHA256, MinKeyBits: 2048},
	PS384: {Hash: crypto.SHA384, MinKeyBits: 2048},
	PS512: {Hash: crypto.SHA512, MinKeyBits: 2048},
	ES256: {Hash: crypto.SHA256, MinKeyBits: 256, SignatureIsFixed: true, SignatureSize: 64},
	ES384: {Hash: crypto.SHA384, MinKeyBits: 384, SignatureIsFixed: true, SignatureSize: 96},
	ES512: {Hash: crypto.SHA512, MinKeyBits: 521, SignatureIsFixed: true, SignatureSize: 132},
	None:  {},
}

// Attributes returns the hash/key-size requirements for alg.
func (alg SignatureAlgorithm) Attributes() SignatureAttributes {
	return signatureAttributes[alg]
}

// Recognized reports whether alg is one of the closed set of signature
// algorithms this package defines, whether or not an implementation is
// registered in this build. A recognized algorithm with no registered
// implementation is "unsupported" rather than "unknown".
func (alg SignatureAlgorithm) Recognized() bool {
	_, ok := signatureAttributes[alg]
	return ok
}

// KeyManagementAttributes describes how a key management algorithm
// produces the content encryption key, including enough information to
// size the encrypted_key segment of a compact JWE without running the
// algorithm.
type KeyManagementAttributes struct {
	ProducesWrappedKey bool // emits a non-empty encrypted_key segment
	IsKeyAgreement     bool // derives the CEK via key agreement (ECDH-ES family)
	IsPasswordBased    bool // derives the key-encryption-key via PBKDF2

	// UsesKeyModulusSize is true for the RSA family, where the wrapped
	// key's length equals the recipient RSA key's modulus size rather
	// than a function of the CEK size.
	UsesKeyModulusSize bool

	// WrapOverhead is the number of bytes ProducesWrappedKey algorithms
	// add on top of the CEK length: 8 for AES Key Wrap (RFC 3394 §2.2.1,
	// used directly by A*KW, under an ECDH-ES agreement by ECDH_ES_A*KW,
	// and under a PBES2 password-derived key by the PBES2_* family), 0
	// for AES-GCM Key Wrap (the GCM authentication tag is carried in the
	// header's "tag" parameter instead of appended to the wrapped key;
	// see jwa/agcmkw). Meaningless when UsesKeyModulusSize is true.
	WrapOverhead int
}

var keyManagementAttributes = map[KeyManagementAlgorithm]KeyManagementAttributes{
	Direct:             {},
	RSA1_5:             {ProducesWrappedKey: true, UsesKeyModulusSize: true},
	RSA_OAEP:           {ProducesWrappedKey: true, UsesKeyModulusSize: true},
	RSA_OAEP_256:       {ProducesWrappedKey: true, UsesKeyModulusSize: true},
	RSA_OAEP_384:       {ProducesWrappedKey: true, UsesKeyModulusSize: true},
	RSA_OAEP_512:       {ProducesWrappedKey: true, UsesKeyModulusSize: true},
	A128KW:             {ProducesWrappedKey: true, WrapOverhead: 8},
	A192KW:             {ProducesWrappedKey: true, WrapOverhead: 8},
	A256KW:             {ProducesWrappedKey: true, WrapOverhead: 8},
	A128GCMKW:          {ProducesWrappedKey: true, WrapOverhead: 0},
	A192GCMKW:          {ProducesWrappedKey: true, WrapOverhead: 0},
	A256GCMKW:          {ProducesWrappedKey: true, WrapOverhead: 0},
	ECDH_ES:            {IsKeyAgreement: true},
	ECDH_ES_A128KW:     {ProducesWrappedKey: true, IsKeyAgreement: true, WrapOverhead: 8},
	ECDH_ES_A192KW:     {ProducesWrappedKey: true, IsKeyAgreement: true, WrapOverhead: 8},
	ECDH_ES_A256KW:     {ProducesWrappedKey: true, IsKeyAgreement: true, WrapOverhead: 8},
	PBES2_HS256_A128KW: {ProducesWrappedKey: true, IsPasswordBased: true, WrapOverhead: 8},
	PBES2_HS384_A192KW: {ProducesWrappedKey: true, IsPasswordBased: true, WrapOverhead: 8},
	PBES2_HS512_A256KW: {ProducesWrappedKey: true, IsPasswordBased: true, WrapOverhead: 8},
}

// Attributes returns the key-management shape for alg.
func (alg KeyManagementAlgorithm) Attributes() KeyManagementAttributes {
	return keyManagementAttributes[alg]
}

// Recognized reports whether alg is one of the closed set of key
// management algorithms this package defines, whether or not an
// implementation is registered in this build.
func (alg KeyManagementAlgorithm) Recognized() bool {
	_, ok := keyManagementAttributes[alg]
	return ok
}
