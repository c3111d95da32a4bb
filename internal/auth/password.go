package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the length in bytes of the random salt prefixed to every credential.
	SaltSize = 32
	// KeySize is the length in bytes of the derived key.
	KeySize = sha256.Size
	// Iterations is the PBKDF2-HMAC-SHA256 iteration count.
	Iterations = 100_000
)

// ErrMalformedCredential is returned when a stored credential cannot be decoded.
var ErrMalformedCredential = errors.New("malformed credential")

// HashPassword derives a salted PBKDF2 key from password and returns
// hex(salt || key).
func HashPassword(password string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := deriveKey(password, salt)
	return hex.EncodeToString(append(salt, key...)), nil
}

// VerifyPassword reports whether password matches the stored credential.
func VerifyPassword(credential, password string) (bool, error) {
	raw, err := hex.DecodeString(credential)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	if len(raw) != SaltSize+KeySize {
		return false, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedCredential, SaltSize+KeySize, len(raw))
	}

	salt, stored := raw[:SaltSize], raw[SaltSize:]
	return subtle.ConstantTimeCompare(deriveKey(password, salt), stored) == 1, nil
}

// CheckPassword is VerifyPassword with malformed credentials treated as a mismatch.
func CheckPassword(password, credential string) bool {
	ok, err := VerifyPassword(credential, password)
	return err == nil && ok
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}
