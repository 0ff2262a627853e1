package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateState returns a random 16 character hex string used as the
// OAuth state parameter.
func GenerateState() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
