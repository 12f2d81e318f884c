// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	// OTPLength is the number of digits in a code.
	OTPLength = 6
	// OTPTTL is how long a code stays valid after issuance.
	OTPTTL = 10 * time.Minute

	otpMin = 100000
	otpMax = 999999
)

// GenerateOTP returns a uniformly distributed code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}
