// Package secrets mints API keys. Keys are shown exactly once at creation;
// only the key string itself is stored, so generation strength is the only
// defense.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const keyBytes = 48 // 64 characters after base64url encoding

// GenerateAPIKey returns a fresh random API key.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
