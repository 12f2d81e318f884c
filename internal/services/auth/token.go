// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
)

// PendingPayload is the signup state carried by a pending token.
type PendingPayload struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Salt         string `json:"salt"`
	OTP          string `json:"otp"`
	ExpiresAt    int64  `json:"expiresAt"` // unix milliseconds
}

// NewPendingPayload copies a pending signup into a token payload.
func NewPendingPayload(p *models.PendingSignup) PendingPayload {
	return PendingPayload{
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Salt:         p.Salt,
		OTP:          p.OTP,
		ExpiresAt:    p.ExpiresAt.UnixMilli(),
	}
}

// PendingSignup converts the payload back into a pending record.
func (p PendingPayload) PendingSignup() *models.PendingSignup {
	return &models.PendingSignup{
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Salt:         p.Salt,
		OTP:          p.OTP,
		ExpiresAt:    time.UnixMilli(p.ExpiresAt).UTC(),
	}
}

func (p PendingPayload) complete() bool {
	return p.Email != "" && p.PasswordHash != "" && p.Salt != "" && p.OTP != "" && p.ExpiresAt != 0
}

// TokenCodec signs and verifies pending tokens of the form
// base64url(json) "." base64url(hmac-sha256).
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a codec keyed by secret.
func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret}
}

// b64 rejects non-canonical encodings so every token has exactly one valid
// spelling.
var b64 = base64.RawURLEncoding.Strict()

// Make encodes and signs p.
func (c *TokenCodec) Make(p PendingPayload) string {
	raw, _ := json.Marshal(p)
	data := b64.EncodeToString(raw)
	return data + "." + b64.EncodeToString(c.sign(data))
}

// Parse verifies token and returns its payload. Any malformed, tampered or
// incomplete token yields false.
func (c *TokenCodec) Parse(token string) (PendingPayload, bool) {
	data, sig, ok := strings.Cut(token, ".")
	if !ok || data == "" || sig == "" {
		return PendingPayload{}, false
	}
	gotSig, err := b64.DecodeString(sig)
	if err != nil || !hmac.Equal(gotSig, c.sign(data)) {
		return PendingPayload{}, false
	}
	raw, err := b64.DecodeString(data)
	if err != nil {
		return PendingPayload{}, false
	}
	var p PendingPayload
	if err := json.Unmarshal(raw, &p); err != nil || !p.complete() {
		return PendingPayload{}, false
	}
	return p, true
}

func (c *TokenCodec) sign(data string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
