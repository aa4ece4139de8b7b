package vault

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"redistics/internal/model"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}

	for _, password := range []string{"my_secret_password", "p@ss with spaces", "日本語"} {
		encrypted, err := v.Encrypt(password)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", password, err)
		}
		if encrypted == password {
			t.Errorf("Encrypt(%q) returned the plaintext", password)
		}
		decrypted, err := v.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if decrypted != password {
			t.Errorf("Round trip mismatch: got %q, want %q", decrypted, password)
		}
	}
}

func TestEmptyPassword(t *testing.T) {
	v, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}

	encrypted, err := v.Encrypt("")
	if err != nil || encrypted != "" {
		t.Errorf("Encrypt(\"\") = (%q, %v), want (\"\", nil)", encrypted, err)
	}
	decrypted, err := v.Decrypt("")
	if err != nil || decrypted != "" {
		t.Errorf("Decrypt(\"\") = (%q, %v), want (\"\", nil)", decrypted, err)
	}
}

func TestDecryptRejectsForeignInput(t *testing.T) {
	v, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}

	// None of these were produced by Encrypt on this installation; all must
	// fail with the recoverable sentinel, never panic.
	for _, input := range []string{
		"not base64 at all!!!",
		"YWJj",                 // valid base64, shorter than a nonce
		"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", // wrong key material
	} {
		if _, err := v.Decrypt(input); !errors.Is(err, model.ErrCorruptCredential) {
			t.Errorf("Decrypt(%q) = %v, want ErrCorruptCredential", input, err)
		}
	}
}

func TestDecryptAcrossInstallationsFails(t *testing.T) {
	v1, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create first vault: %v", err)
	}
	v2, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create second vault: %v", err)
	}

	encrypted, err := v1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := v2.Decrypt(encrypted); !errors.Is(err, model.ErrCorruptCredential) {
		t.Errorf("Decrypt with a different installation key = %v, want ErrCorruptCredential", err)
	}
}

func TestKeyFilePersistence(t *testing.T) {
	dir := t.TempDir()

	// 1. First vault generates the key file.
	v1, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, keyFile))
	if err != nil {
		t.Fatalf("Key file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Key file permissions = %o, want 600", perm)
	}

	// 2. A second vault over the same dir must reuse the key.
	encrypted, err := v1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	v2, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to reopen vault: %v", err)
	}
	decrypted, err := v2.Decrypt(encrypted)
	if err != nil || decrypted != "secret" {
		t.Errorf("Reopened vault Decrypt = (%q, %v), want (\"secret\", nil)", decrypted, err)
	}
}
