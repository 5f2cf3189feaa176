package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	// TokenLength is the length of generated opaque tokens in bytes
	TokenLength = 32

	// AccessKeyLength is the length of a generated Api access key in bytes
	AccessKeyLength = 32
)

// GenerateBearerToken generates a random opaque token.
// Returns: token (hex string), token hash (SHA256 hex), error
//
// Only the hash is persisted. Auth tokens and refresh tokens both use this.
func GenerateBearerToken() (string, string, error) {
	tokenBytes := make([]byte, TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("generate random token: %w", err)
	}

	token := hex.EncodeToString(tokenBytes)
	return token, HashBearerToken(token), nil
}

// HashBearerToken hashes an opaque token for storage/lookup
// Returns SHA256 hex hash
func HashBearerToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// GenerateAccessKey returns a fresh random Api signing key.
func GenerateAccessKey() ([]byte, error) {
	key := make([]byte, AccessKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate access key: %w", err)
	}
	return key, nil
}
