// Package credential fetches per-user secret bundles and decrypts their
// payloads on demand. Plaintext never touches persistence or logs.
package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// keyLength is the AES-256 key size in bytes.
	keyLength = 32

	// aad binds every ciphertext to its purpose; decryption of payloads
	// sealed for anything else fails closed.
	aad = "braid.credential.v1"
)

var (
	ErrInvalidKeyLength    = errors.New("encryption key must be 32 bytes")
	ErrMalformedCiphertext = errors.New("malformed credential ciphertext")
	ErrDecryptionFailed    = errors.New("credential decryption failed")
)

// Cipher seals and opens credential payloads with AES-256-GCM. The wire
// format is hex(iv):hex(authTag):hex(ciphertext).
type Cipher struct {
	gcm cipher.AEAD
}

// NewCipher creates a cipher from a 32-byte secret.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != keyLength {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &Cipher{gcm: gcm}, nil
}

// Encrypt seals plaintext into the iv:authTag:ciphertext hex format.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	iv := make([]byte, c.gcm.NonceSize())

	_, err := rand.Read(iv)
	if err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	sealed := c.gcm.Seal(nil, iv, plaintext, []byte(aad))

	tagOffset := len(sealed) - c.gcm.Overhead()
	ciphertext, tag := sealed[:tagOffset], sealed[tagOffset:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens an iv:authTag:ciphertext payload. A format violation or
// auth-tag mismatch returns a distinct error, never garbage plaintext.
func (c *Cipher) Decrypt(encoded string) ([]byte, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return nil, ErrMalformedCiphertext
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != c.gcm.NonceSize() {
		return nil, ErrMalformedCiphertext
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != c.gcm.Overhead() {
		return nil, ErrMalformedCiphertext
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, ErrMalformedCiphertext
	}

	plaintext, err := c.gcm.Open(nil, iv, append(ciphertext, tag...), []byte(aad))
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
