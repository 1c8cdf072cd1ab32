// Package cryptox implements at-rest encryption for individual sensitive
// string fields (card numbers, IBANs, recovery artifacts) using AES-GCM.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

const nonceSize = 12

var (
	ErrMissingSecret = errors.New("field cipher secret is not configured")
	ErrDecrypt       = errors.New("ciphertext cannot be decrypted")
)

// FieldCipher encrypts and decrypts single string fields. The key is derived
// once at construction time: sha256 of the configured secret, truncated to
// 128 bits. There is no in-band key versioning; changing the secret
// invalidates all previously stored ciphertext.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher derives the AES-128 key from secret and prepares the AEAD.
// An empty secret is a configuration error and the process must not start.
func NewFieldCipher(secret string) (*FieldCipher, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	sum := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(sum[:16])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	return &FieldCipher{aead: aead}, nil
}

// Encrypt returns base64(nonce || ciphertext+tag) for the given plaintext.
// A fresh 12-byte nonce is generated per call. The empty string is returned
// unchanged: absence is not encrypted.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed input or an authentication-tag
// mismatch surfaces as ErrDecrypt, never as wrong plaintext. The empty
// string is returned unchanged.
func (c *FieldCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(raw) <= nonceSize {
		return "", ErrDecrypt
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}
