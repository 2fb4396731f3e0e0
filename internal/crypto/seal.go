package crypto

import (
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrSealedTooShort is returned by Open for truncated input.
var ErrSealedTooShort = errors.New("sealed blob too short")

// Sealer encrypts small records at rest with XChaCha20-Poly1305 under a key
// derived from a secret. Output layout: salt | nonce | ciphertext.
type Sealer struct {
	secret []byte
	aad    []byte
}

// NewSealer returns a Sealer bound to secret. aad is authenticated but not
// encrypted (the profile name, so blobs cannot be swapped between profiles).
func NewSealer(secret, aad string) *Sealer {
	return &Sealer{secret: []byte(secret), aad: []byte(aad)}
}

// Seal encrypts plaintext under a fresh salt and nonce.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt, err := RandBytes(saltLen)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(deriveKey(s.secret, salt))
	if err != nil {
		return nil, err
	}
	nonce, err := RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, s.aad), nil
}

// Open decrypts a blob produced by Seal with the same secret and aad.
func (s *Sealer) Open(blob []byte) ([]byte, error) {
	if len(blob) < saltLen+chacha20poly1305.NonceSizeX {
		return nil, ErrSealedTooShort
	}
	salt := blob[:saltLen]
	nonce := blob[saltLen : saltLen+chacha20poly1305.NonceSizeX]
	ct := blob[saltLen+chacha20poly1305.NonceSizeX:]
	aead, err := chacha20poly1305.NewX(deriveKey(s.secret, salt))
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ct, s.aad)
}
