// Package security implements the per-project symmetric encryption vault
// described in spec.md §4.1: AES-256-GCM over credential fields, keyed by
// a 32-byte file living alongside the project (.secret.key), so checked-in
// YAML never carries plaintext secrets. The threat model is "credentials
// should not appear in a git diff", not server-compromise protection —
// the key lives in the same tree as the ciphertext it protects.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
)

// KeySize is the required length, in bytes, of a project's .secret.key.
const KeySize = 32

// KeyFileName is the name of the key file within a project directory.
const KeyFileName = ".secret.key"

// GenerateKey creates a fresh KeySize-byte key at path using a secure RNG
// and restricts its permissions to owner-only where the OS supports it.
func GenerateKey(path string) error {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return errs.Wrap(errs.IoFailure, "generate secret key", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.IoFailure, "create key directory", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return errs.Wrap(errs.IoFailure, "write secret key", err)
	}
	if runtime.GOOS != "windows" {
		_ = os.Chmod(path, 0o600)
	} else {
		_ = os.Chmod(path, 0o444)
	}
	return nil
}

// loadKey reads and validates the key file at path.
func loadKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidKey, fmt.Sprintf("read key file %s", path), err)
	}
	if len(data) != KeySize {
		return nil, errs.New(errs.InvalidKey, fmt.Sprintf("key file %s must be exactly %d bytes, got %d", path, KeySize, len(data)))
	}
	return data, nil
}

func gcmFor(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidKey, "construct AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidKey, "construct GCM mode", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext with the key at keyPath using AES-256-GCM with a
// fresh random nonce, and returns an Encrypted SecretField whose Value is
// base64(nonce || ciphertext || tag).
func Encrypt(plaintext string, keyPath string) (types.SecretField, error) {
	key, err := loadKey(keyPath)
	if err != nil {
		return types.SecretField{}, err
	}
	gcm, err := gcmFor(key)
	if err != nil {
		return types.SecretField{}, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return types.SecretField{}, errs.Wrap(errs.IoFailure, "generate nonce", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return types.SecretField{
		Type:  types.SecretEncrypted,
		Value: base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

// Decrypt is the inverse of Encrypt: it opens an Encrypted SecretField's
// value using the key at keyPath and returns the plaintext.
func Decrypt(field types.SecretField, keyPath string) (string, error) {
	if field.Type != types.SecretEncrypted {
		return "", errs.New(errs.NotDecrypted, "secret field is not encrypted")
	}

	key, err := loadKey(keyPath)
	if err != nil {
		return "", err
	}
	gcm, err := gcmFor(key)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(field.Value)
	if err != nil {
		return "", errs.Wrap(errs.MalformedCiphertext, "base64 decode secret value", err)
	}
	if len(raw) < gcm.NonceSize()+16 {
		return "", errs.New(errs.MalformedCiphertext, "ciphertext shorter than nonce+tag")
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errs.Wrap(errs.DecryptionFailed, "open AES-GCM ciphertext", err)
	}
	return string(plaintext), nil
}

// Load decrypts field in place using projectDir's key file, if it is
// still Encrypted. A field that is already Plain is a no-op.
func Load(field *types.SecretField, projectDir string) error {
	if field == nil || field.Type == types.SecretPlain {
		return nil
	}
	plaintext, err := Decrypt(*field, KeyPath(projectDir))
	if err != nil {
		return err
	}
	field.Type = types.SecretPlain
	field.Value = plaintext
	return nil
}

// KeyPath returns the conventional .secret.key location within a project.
func KeyPath(projectDir string) string {
	return filepath.Join(projectDir, KeyFileName)
}
