package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashToken returns a bcrypt verifier for a refresh token.  bcrypt only
// reads 72 bytes and every JWT shares its header prefix, so the token is
// reduced to its SHA-256 hex digest first.
func HashToken(raw string, cost int) (string, error) {
	return HashPassword(tokenDigest(raw), cost)
}

// VerifyToken reports whether raw matches a verifier from HashToken.
func VerifyToken(hash, raw string) bool {
	return VerifyPassword(hash, tokenDigest(raw))
}

func tokenDigest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
