package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/juju/errors"
	"golang.org/x/crypto/argon2"
)

// Constants for Argon2 parameters
const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 2
	keyLength   = 32
	saltLength  = 16
)

// HashPassword returns an argon2id hash encoded as "salt$hash".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Annotate(err, "generating salt")
	}

	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return encodedSalt + "$" + encodedHash, nil
}

// VerifyPassword reports whether password matches the stored "salt$hash".
func VerifyPassword(stored, password string) (bool, error) {
	saltPart, hashPart, ok := strings.Cut(stored, "$")
	if !ok || strings.Contains(hashPart, "$") {
		return false, errors.NotValidf("stored password format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltPart)
	if err != nil {
		return false, errors.Annotate(err, "decoding salt")
	}
	storedHash, err := base64.RawStdEncoding.DecodeString(hashPart)
	if err != nil {
		return false, errors.Annotate(err, "decoding hash")
	}
	if len(storedHash) != keyLength {
		return false, errors.NotValidf("stored hash length %d", len(storedHash))
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)
	return subtle.ConstantTimeCompare(computed, storedHash) == 1, nil
}

// ComparePasswords is VerifyPassword with malformed hashes treated as a
// mismatch.
func ComparePasswords(stored, password string) bool {
	match, err := VerifyPassword(stored, password)
	if err != nil {
		return false
	}
	return match
}

// dummyHash is verified against when a login names an unknown email so the
// response time does not reveal whether the account exists.
var dummyHash = func() string {
	h, err := HashPassword("not-a-real-password")
	if err != nil {
		panic(err)
	}
	return h
}()

// BurnPasswordCheck runs one hash verification and discards the result.
func BurnPasswordCheck(password string) {
	_ = ComparePasswords(dummyHash, password)
}
