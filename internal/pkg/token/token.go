package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomHex returns n cryptographically random bytes, hex encoded
// (2n lowercase characters).
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
