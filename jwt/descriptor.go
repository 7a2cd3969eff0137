package jwt

import (
	"github.com/joseforge/jose/jwa"
	"github.com/joseforge/jose/jwe"
	"github.com/joseforge/jose/jwk"
	"github.com/joseforge/jose/jws"
)

// Descriptor is a closed, tagged variant describing a token to emit via
// WriteToken. Nested descriptor trees (JWE-of-JWS) are modeled as this
// tagged variant, never as back-references: the inner descriptor is owned
// by the outer JweDescriptor's InnerPayload field.
type Descriptor interface {
	descriptor()
}

// InnerPayload is the closed variant a JweDescriptor's payload may take: a
// BinaryJweDescriptor, a PlaintextJweDescriptor, or a nested JwsDescriptor
// (a "nested JWT", RFC 7519 §5.2).
type InnerPayload interface {
	innerPayload()
}

// JwsDescriptor describes a JWS to emit. Header.Algorithm() must already
// name the signing algorithm to use; there is no separate algorithm
// parameter.
type JwsDescriptor struct {
	_NamedFieldsRequired struct{}

	Header     *jws.Header
	Payload    []byte
	SigningKey *jwk.Key
}

func (*JwsDescriptor) descriptor()   {}
func (*JwsDescriptor) innerPayload() {}

// PlaintextJweDescriptor is a UTF-8 text payload to encrypt directly,
// without an inner signature.
type PlaintextJweDescriptor struct {
	Text string
}

func (*PlaintextJweDescriptor) innerPayload() {}

// BinaryJweDescriptor is an opaque byte payload to encrypt directly,
// without an inner signature.
type BinaryJweDescriptor struct {
	Data []byte
}

func (*BinaryJweDescriptor) innerPayload() {}

// JweDescriptor describes a JWE to emit. Header.Algorithm() must already
// name the key management algorithm, and Header.CompressionAlgorithm()
// the optional "zip", matching jwe.NewMessageWithKW's convention of
// reading those from the already-configured protected header it's given;
// Encryption is passed separately, mirroring NewMessageWithKW's own
// parameter shape, rather than read off the header.
type JweDescriptor struct {
	_NamedFieldsRequired struct{}

	Header        *jwe.Header
	InnerPayload  InnerPayload
	EncryptionKey *jwk.Key
	Encryption    jwa.EncryptionAlgorithm
}

func (*JweDescriptor) descriptor() {}
