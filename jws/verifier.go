package jws

import (
	"context"
	"errors"

	"github.com/joseforge/jose/jwa"
)

var errVerifyFailed = errors.New("jws: failed to verify the message")

// AlgorithmVerifier verifies the algorithm used for signing.
type AlgorithmVerifier interface {
	VerifyAlgorithm(ctx context.Context, alg jwa.SignatureAlgorithm) error
}

type AllowedAlgorithms []jwa.SignatureAlgorithm

func (a AllowedAlgorithms) VerifyAlgorithm(ctx context.Context, alg jwa.SignatureAlgorithm) error {
	for _, allowed := range a {
		if alg == allowed {
			return nil
		}
	}
	return errors.New("jws: signing algorithm is not allowed")
}

// UnsecureAnyAlgorithm is an AlgorithmVerifier that accepts any algorithm.
var UnsecureAnyAlgorithm = unsecureAnyAlgorithmVerifier{}

type unsecureAnyAlgorithmVerifier struct{}

func (unsecureAnyAlgorithmVerifier) VerifyAlgorithm(ctx context.Context, alg jwa.SignatureAlgorithm) error {
	return nil
}

// Verifier verifies the JWS message.
type Verifier struct {
	_NamedFieldsRequired struct{}

	AlgorithmVerifier AlgorithmVerifier
	KeyFinder         KeyFinder
}

// Verify verifies msg and returns the protected and unprotected headers of
// whichever signature validated, along with the decoded payload.
func (v *Verifier) Verify(ctx context.Context, msg *Message) (protected, unprotected *Header, payload []byte, err error) {
	return v.verify(ctx, msg, nil)
}

// VerifyContent verifies msg against content supplied out-of-band, for JWS
// messages carrying a detached/unencoded payload (RFC 7797, "b64":false)
// whose content was never serialized into msg itself.
func (v *Verifier) VerifyContent(ctx context.Context, msg *Message, content []byte) (protected, unprotected *Header, payload []byte, err error) {
	return v.verify(ctx, msg, content)
}

func (v *Verifier) verify(ctx context.Context, msg *Message, content []byte) (protected, unprotected *Header, payload []byte, err error) {
	_ = v._NamedFieldsRequired
	if v.AlgorithmVerifier == nil || v.KeyFinder == nil {
		return nil, nil, nil, errors.New("jws: verifier is not configured")
	}

	msgPayload := msg.payload
	if content != nil {
		msgPayload = content
	}

	// pre-allocate buffer
	size := 0
	for _, sig := range msg.Signatures {
		if len(sig.rawProtected) > size {
			size = len(sig.rawProtected)
		}
	}
	size += len(msgPayload) + 1 // +1 for '.'
	buf := make([]byte, size)

	for _, sig := range msg.Signatures {
		if err := v.AlgorithmVerifier.VerifyAlgorithm(ctx, sig.protected.alg); err != nil {
			continue
		}
		key, err := v.KeyFinder.FindKey(ctx, sig.protected, sig.header)
		if err != nil {
			continue
		}
		buf = buf[:0]
		buf = append(buf, sig.rawProtected...)
		buf = append(buf, '.')
		buf = append(buf, msgPayload...)
		err = key.Verify(buf, sig.signature)
		if err == nil {
			var ret []byte
			if content != nil {
				ret = content
			} else if !sig.protected.nb64 {
				ret, err = b64Decode(msgPayload)
				if err != nil {
					return nil, nil, nil, errVerifyFailed
				}
			} else {
				ret = msgPayload
			}
			return sig.protected, sig.header, ret, nil
		}
	}
	return nil, nil, nil, errVerifyFailed
}
