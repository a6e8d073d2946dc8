package journey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the amount of randomness in a navigation token.
const TokenBytes = 16

// TokenLength is the length of the hex-encoded token.
const TokenLength = TokenBytes * 2

// TokenGenerator mints navigation tokens
type TokenGenerator func() (string, error)

// GenerateToken returns 16 bytes from crypto/rand as 32 lowercase hex characters.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes for token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsWellFormedToken reports whether s looks like a token GenerateToken could produce.
func IsWellFormedToken(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
