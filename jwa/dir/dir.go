// Package dir implements a Key Wrapping algorithm
// that is direct use of a shared symmetric key as the CEK.
package dir

import (
	"fmt"

	"github.com/joseforge/jose/jwa"
	"github.com/joseforge/jose/keymanage"
)

var alg = &Algorithm{}

func New() keymanage.Algorithm {
	return alg
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.Direct, New)
}

var _ keymanage.Algorithm = (*Algorithm)(nil)

type Algorithm struct{}

// NewKeyWrapper implements [github.com/joseforge/jose/keymanage.Algorithm].
func (alg *Algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	privateKey := key.PrivateKey()
	cek, ok := privateKey.([]byte)
	if !ok {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("dir: invalid key type: %T", privateKey))
	}
	return &KeyWrapper{
		cek: cek,
	}
}

var _ keymanage.KeyWrapper = (*KeyWrapper)(nil)

type KeyWrapper struct {
	cek []byte
}

func (w *KeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	return []byte{}, nil
}

func (w *KeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	return w.cek, nil
}

var _ keymanage.KeyDeriver = (*KeyWrapper)(nil)

// DeriveKey implements [github.com/joseforge/jose/keymanage.KeyDeriver]. The
// shared symmetric key is used directly as the CEK, so there is no
// encrypted_key segment.
func (w *KeyWrapper) DeriveKey(opts any) (cek, encryptedKey []byte, err error) {
	return w.cek, []byte{}, nil
}
