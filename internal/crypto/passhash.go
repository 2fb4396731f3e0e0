// Package crypto holds the Argon2id primitives used for password checks in
// the development API and for sealing persisted sessions.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters.
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	saltLen = 16
)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("empty password")

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

func deriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// PasswordHash is a salted Argon2id digest of a password.
type PasswordHash struct {
	Salt []byte
	Key  []byte
}

// NewPasswordHash hashes password under a fresh random salt.
func NewPasswordHash(password string) (PasswordHash, error) {
	if password == "" {
		return PasswordHash{}, ErrEmptyPassword
	}
	salt, err := RandBytes(saltLen)
	if err != nil {
		return PasswordHash{}, err
	}
	return PasswordHash{Salt: salt, Key: deriveKey([]byte(password), salt)}, nil
}

// Matches reports whether password produces the stored digest.
func (h PasswordHash) Matches(password string) bool {
	if len(h.Key) == 0 {
		return false
	}
	got := deriveKey([]byte(password), h.Salt)
	return subtle.ConstantTimeCompare(got, h.Key) == 1
}
