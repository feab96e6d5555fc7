// Package credentials models supplier API credentials as an opaque
// sealed reference. The plaintext is only recoverable through a Cipher
// holding the configured key, and the sealed form redacts itself when
// printed or serialized so a stray log line cannot leak a secret.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Sealed is an encrypted credential blob. Its String and MarshalJSON
// implementations are redacted; use Cipher.Open to read the value.
type Sealed string

func (Sealed) String() string {
	return "[redacted]"
}

func (Sealed) MarshalJSON() ([]byte, error) {
	return []byte(`"[redacted]"`), nil
}

// Cipher seals and opens credentials with AES-GCM
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a cipher from a 16, 24 or 32 byte key
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts a plaintext credential
func (c *Cipher) Seal(plaintext string) (Sealed, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Sealed(base64.StdEncoding.EncodeToString(sealed)), nil
}

// Open decrypts a sealed credential
func (c *Cipher) Open(s Sealed) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return "", fmt.Errorf("malformed sealed credential: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("malformed sealed credential: too short")
	}
	nonce, ct := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed credential: %w", err)
	}
	return string(plaintext), nil
}
