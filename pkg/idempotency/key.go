// Package idempotency replays the stored response of a POST that carries an
// Idempotency-Key the service has already processed.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotency-Replayed"
)

var (
	ErrKeyMissing = errors.New("idempotency key is empty")
	ErrKeyTooLong = errors.New("idempotency key exceeds maximum length")
	ErrKeyInvalid = errors.New("idempotency key may only contain letters, digits, '-' and '_'")
	ErrNotFound   = errors.New("idempotency key not found")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateKey checks key after surrounding whitespace is removed
func ValidateKey(key string, maxLength int) error {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return ErrKeyMissing
	case maxLength > 0 && len(key) > maxLength:
		return ErrKeyTooLong
	case !keyPattern.MatchString(key):
		return ErrKeyInvalid
	}
	return nil
}

// Fingerprint identifies the request a key was first used with
func Fingerprint(method, path string, body []byte) string {
	sum := sha256.New()
	for _, part := range [][]byte{[]byte(method), []byte(path), body} {
		sum.Write(part)
		sum.Write([]byte{0})
	}
	return hex.EncodeToString(sum.Sum(nil))
}
