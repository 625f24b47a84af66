// Package credential hashes and verifies user passwords. Stored values use
// the format pbkdf2_sha256$<iterations>$<b64 salt>$<b64 key>, which the
// store treats as an opaque string. bcrypt hashes and plaintext values from
// older deployments are still accepted by Verify and reported by NeedsRehash.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Hash parameters.
const (
	Algorithm  = "pbkdf2_sha256"
	Iterations = 260_000
	SaltLen    = 16
	KeyLen     = sha256.Size

	// Stored hashes outside these bounds are rejected without deriving a key.
	MaxIterations = 10 * Iterations
	MaxKeyLen     = 4 * KeyLen
)

// ErrEmptyPassword is returned by Hash for an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hash derives a new salted hash of password.
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return encode(password, salt, Iterations), nil
}

func encode(password string, salt []byte, iter int) string {
	key := pbkdf2.Key([]byte(password), salt, iter, KeyLen, sha256.New)
	return strings.Join([]string{
		Algorithm,
		strconv.Itoa(iter),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	}, "$")
}

// Verify reports whether password matches stored. Malformed hashes, and
// hashes whose iteration count or key length exceed MaxIterations or
// MaxKeyLen, never match.
func Verify(password, stored string) bool {
	switch {
	case isPBKDF2(stored):
		parts := strings.SplitN(stored, "$", 4)
		if len(parts) != 4 {
			return false
		}
		iter, err := strconv.Atoi(parts[1])
		if err != nil || iter <= 0 || iter > MaxIterations {
			return false
		}
		salt, err := base64.StdEncoding.DecodeString(parts[2])
		if err != nil {
			return false
		}
		want, err := base64.StdEncoding.DecodeString(parts[3])
		if err != nil || len(want) == 0 || len(want) > MaxKeyLen {
			return false
		}
		got := pbkdf2.Key([]byte(password), salt, iter, len(want), sha256.New)
		return subtle.ConstantTimeCompare(got, want) == 1
	case isBcrypt(stored):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored != "" && subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

// NeedsRehash reports whether stored is not a current pbkdf2 hash.
func NeedsRehash(stored string) bool {
	if !isPBKDF2(stored) {
		return true
	}
	parts := strings.SplitN(stored, "$", 4)
	if len(parts) != 4 {
		return true
	}
	iter, err := strconv.Atoi(parts[1])
	return err != nil || iter < Iterations
}

func isPBKDF2(s string) bool { return strings.HasPrefix(s, Algorithm+"$") }

func isBcrypt(s string) bool { return strings.HasPrefix(s, "$2") }
