// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. Changing them invalidates every stored hash.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltBytes    = 16
)

// MinPasswordLength applies to signup and login.
const MinPasswordLength = 8

// HashPassword derives a scrypt hash with a fresh random salt. Both are
// returned hex encoded.
func HashPassword(password string) (hash, salt string, err error) {
	rawSalt := make([]byte, saltBytes)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt = hex.EncodeToString(rawSalt)

	key, err := derive(password, salt)
	if err != nil {
		return "", "", err
	}
	return hex.EncodeToString(key), salt, nil
}

// VerifyPassword reports whether password matches hash under salt.
// Malformed or differently sized hashes compare as not equal.
func VerifyPassword(password, hash, salt string) bool {
	want, err := hex.DecodeString(hash)
	if err != nil || len(want) != scryptKeyLen {
		return false
	}
	got, err := derive(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

// derive keys on the salt's hex text, not its decoded bytes.
func derive(password, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
