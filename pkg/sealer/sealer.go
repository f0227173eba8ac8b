package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// Sealer issues and opens opaque booking tokens. Tokens are AES-GCM sealed
// so clients cannot forge them or read the ids inside.
type Sealer struct {
	aead cipher.AEAD
}

// New builds a Sealer from a base64-encoded 256-bit key.
func New(base64Key string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("invalid sealer key encoding: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid sealer key: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aead}, nil
}

// CreateOpaqueToken seals a booking reference and user ref into a URL-safe
// token.
func (s *Sealer) CreateOpaqueToken(reference string, userRef string) (string, error) {
	plaintext := []byte(reference + ":" + userRef)

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// ParseOpaqueToken opens a token and returns the booking reference and user
// ref it was sealed with.
func (s *Sealer) ParseOpaqueToken(token string) (string, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", err
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", "", fmt.Errorf("token too short")
	}
	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]

	pt, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", "", err
	}

	parts := strings.SplitN(string(pt), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid token format")
	}

	return parts[0], parts[1], nil
}
