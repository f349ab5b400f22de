package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// rawLen is the number of random bytes in every opaque token (256 bits).
const rawLen = 32

// New generates a cryptographically random, URL-safe opaque token.
// Used for access tokens, refresh tokens, and magic-link tokens alike.
func New() (string, error) {
	b := make([]byte, rawLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewCode generates a 6-digit numeric code drawn uniformly from
// 100000–999999.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
