// Package agcm implements content encryption with AES GCM.
package agcm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/joseforge/jose/enc"
	"github.com/joseforge/jose/jwa"
)

const ivSize = 12

var a128gcm = &algorithm{
	keyLen: 16,
}

// New128 returns AES GCM using 128-bit key authenticated encryption algorithm.
func New128() enc.Algorithm {
	return a128gcm
}

var a192gcm = &algorithm{
	keyLen: 24,
}

// New192 returns AES GCM using 192-bit key authenticated encryption algorithm.
func New192() enc.Algorithm {
	return a192gcm
}

var a256gcm = &algorithm{
	keyLen: 32,
}

// New256 returns AES GCM using 256-bit key authenticated encryption algorithm.
func New256() enc.Algorithm {
	return a256gcm
}

func init() {
	jwa.RegisterEncryptionAlgorithm(jwa.A128GCM, New128)
	jwa.RegisterEncryptionAlgorithm(jwa.A192GCM, New192)
	jwa.RegisterEncryptionAlgorithm(jwa.A256GCM, New256)
}

var _ enc.Algorithm = (*algorithm)(nil)

type algorithm struct {
	keyLen int

	mu      sync.Mutex
	salt    []byte
	counter uint64
}

func (alg *algorithm) CEKSize() int {
	return alg.keyLen
}

func (alg *algorithm) IVSize() int {
	return ivSize
}

func (alg *algorithm) GenerateCEK() ([]byte, error) {
	cek := make([]byte, alg.keyLen)
	if _, err := rand.Read(cek); err != nil {
		return nil, err
	}
	alg.mu.Lock()
	alg.salt = nil
	alg.counter = 0
	alg.mu.Unlock()
	return cek, nil
}

// GenerateIV returns a fresh 96-bit nonce. The leading 4 bytes are a random
// salt drawn once per CEK; the trailing 8 bytes are a monotonic counter, so
// nonces never repeat for the lifetime of a single CEK.
func (alg *algorithm) GenerateIV() ([]byte, error) {
	alg.mu.Lock()
	defer alg.mu.Unlock()
	if alg.counter == math.MaxUint64 {
		return nil, errors.New("agcm: exhausted the nonce space for this content encryption key")
	}
	if alg.salt == nil {
		salt := make([]byte, 4)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		alg.salt = salt
	}
	iv := make([]byte, ivSize)
	copy(iv, alg.salt)
	binary.BigEndian.PutUint64(iv[4:], alg.counter)
	alg.counter++
	return iv, nil
}

func (alg *algorithm) Decrypt(cek, iv, aad, ciphertext, authTag []byte) (plaintext []byte, err error) {
	if len(cek) != alg.keyLen {
		return nil, errors.New("agcm: invalid content encryption key")
	}
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, errors.New("agcm: invalid size of iv")
	}
	sealed := make([]byte, 0, len(ciphertext)+len(authTag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)
	return aead.Open(nil, iv, sealed, aad)
}

func (alg *algorithm) Encrypt(cek, iv, aad, plaintext []byte) (ciphertext, authTag []byte, err error) {
	if len(cek) != alg.keyLen {
		return nil, nil, errors.New("agcm: invalid content encryption key")
	}
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) != aead.NonceSize() {
		return nil, nil, errors.New("agcm: invalid size of iv")
	}
	sealed := aead.Seal(nil, iv, plaintext, aad)
	n := len(sealed) - aead.Overhead()
	ciphertext = sealed[:n:n]
	authTag = sealed[n:]
	return ciphertext, authTag, nil
}
