// Package vault encrypts stored server passwords with AES-256-GCM under a
// per-installation key. The ciphertext envelope is base64(nonce || sealed).
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"redistics/internal/model"
)

const (
	nonceSize  = 12
	keySize    = 32
	keyFile    = ".key"
	derivation = "redistics-encryption-v1"
)

// Vault seals and opens credential blobs with a locally-held key.
type Vault struct {
	aead cipher.AEAD
}

// New loads the installation key from dataDir, generating and persisting a
// fresh one with owner-only permissions on first use.
func New(dataDir string) (*Vault, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	master, err := loadOrCreateKey(filepath.Join(dataDir, keyFile))
	if err != nil {
		return nil, err
	}
	return NewWithKey(master)
}

// NewWithKey builds a vault from an explicit 32-byte master key.
func NewWithKey(master []byte) (*Vault, error) {
	if len(master) != keySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", keySize, len(master))
	}
	// The encryption key is bound to this application's domain so a leaked
	// key file cannot be used as a raw cipher key elsewhere.
	h := sha256.New()
	h.Write(master)
	h.Write([]byte(derivation))
	key := h.Sum(nil)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init GCM: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals plaintext with a random nonce. Empty input round-trips to
// the empty string so unset passwords stay unset on disk.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Any input this
// installation's key cannot authenticate yields ErrCorruptCredential, never
// a panic: callers treat that as "stored by an incompatible or tampered
// installation" and may fall back to the raw value.
func (v *Vault) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}
	combined, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", model.ErrCorruptCredential
	}
	if len(combined) < nonceSize {
		return "", model.ErrCorruptCredential
	}
	plaintext, err := v.aead.Open(nil, combined[:nonceSize], combined[nonceSize:], nil)
	if err != nil {
		return "", model.ErrCorruptCredential
	}
	return string(plaintext), nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil && len(data) == keySize {
		return data, nil
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist master key: %w", err)
	}
	return key, nil
}
