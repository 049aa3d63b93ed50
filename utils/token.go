package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns 32 random bytes hex-encoded (64 characters).
// Used for invitation tokens, refresh tokens and Family Controls
// authorization tokens.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GenerateRefreshToken is an alias kept for readability at call sites
func GenerateRefreshToken() (string, error) {
	return GenerateToken()
}
