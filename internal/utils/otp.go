package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// GenerateOTPCode generates a cryptographically secure 6-digit OTP in
// the range 100000-999999
func GenerateOTPCode() (string, error) {
	// rand.Int draws from [0, 900000), shifted into the 6-digit range
	span := big.NewInt(900000)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// GenerateTransactionID returns a globally unique transaction reference
func GenerateTransactionID() string {
	return uuid.NewString()
}
