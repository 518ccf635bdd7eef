// Package crypto implements the opaque password hashing service.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	saltLen             = 16
)

const digestPrefix = "argon2id"

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Hash derives an Argon2id digest of plaintext with a fresh random salt.
// The digest is self-contained ("argon2id$<salt>$<key>", base64 raw-std)
// so callers treat it as an opaque string.
func Hash(plaintext string) (string, error) {
	salt, err := RandBytes(saltLen)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	enc := base64.RawStdEncoding.EncodeToString
	return digestPrefix + "$" + enc(salt) + "$" + enc(key), nil
}

// Verify reports whether plaintext matches the digest produced by Hash.
// Malformed digests verify as false, never as an error the caller must map.
func Verify(plaintext, digest string) bool {
	salt, key, err := decode(digest)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, key) == 1
}

func decode(digest string) (salt, key []byte, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 3 || parts[0] != digestPrefix {
		return nil, nil, errors.New("malformed digest")
	}
	dec := base64.RawStdEncoding.DecodeString
	if salt, err = dec(parts[1]); err != nil {
		return nil, nil, err
	}
	if key, err = dec(parts[2]); err != nil {
		return nil, nil, err
	}
	return salt, key, nil
}
