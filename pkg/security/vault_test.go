package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
)

func TestGenerateKeyLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".secret.key")
	if err := GenerateKey(path); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read key: %v", err)
	}
	if len(data) != KeySize {
		t.Fatalf("key length = %d, want %d", len(data), KeySize)
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".secret.key")
	if err := GenerateKey(path); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	cases := []string{"", "hello world", `{"a":1}`, "unicode: héllo 世界"}
	for _, plaintext := range cases {
		t.Run(plaintext, func(t *testing.T) {
			field, err := Encrypt(plaintext, path)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if field.Type != types.SecretEncrypted {
				t.Fatalf("field type = %v, want encrypted", field.Type)
			}

			got, err := Decrypt(field, path)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if got != plaintext {
				t.Fatalf("roundtrip = %q, want %q", got, plaintext)
			}
		})
	}
}

func TestEncryptNonceIsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".secret.key")
	if err := GenerateKey(path); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	a, err := Encrypt("same plaintext", path)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	b, err := Encrypt("same plaintext", path)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if a.Value == b.Value {
		t.Fatal("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestKeyWrongLengthFails(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		t.Run(string(rune(size)), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".secret.key")
			if err := os.WriteFile(path, make([]byte, size), 0o600); err != nil {
				t.Fatalf("write key: %v", err)
			}
			if _, err := Encrypt("x", path); !errs.Is(err, errs.InvalidKey) {
				t.Fatalf("Encrypt() error = %v, want InvalidKey", err)
			}
			field := types.SecretField{Type: types.SecretEncrypted, Value: "AAAA"}
			if _, err := Decrypt(field, path); !errs.Is(err, errs.InvalidKey) {
				t.Fatalf("Decrypt() error = %v, want InvalidKey", err)
			}
		})
	}
}

func TestDecryptMalformedCiphertext(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".secret.key")
	if err := GenerateKey(path); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	bad := types.SecretField{Type: types.SecretEncrypted, Value: "not-base64!!"}
	if _, err := Decrypt(bad, path); !errs.Is(err, errs.MalformedCiphertext) {
		t.Fatalf("Decrypt() error = %v, want MalformedCiphertext", err)
	}

	tooShort := types.SecretField{Type: types.SecretEncrypted, Value: "AAAA"}
	if _, err := Decrypt(tooShort, path); !errs.Is(err, errs.MalformedCiphertext) {
		t.Fatalf("Decrypt() error = %v, want MalformedCiphertext", err)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	path1 := filepath.Join(t.TempDir(), ".secret.key")
	path2 := filepath.Join(t.TempDir(), ".secret.key")
	if err := GenerateKey(path1); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if err := GenerateKey(path2); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	field, err := Encrypt("secret", path1)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if _, err := Decrypt(field, path2); !errs.Is(err, errs.DecryptionFailed) {
		t.Fatalf("Decrypt() error = %v, want DecryptionFailed", err)
	}
}

func TestLoadMutatesInPlace(t *testing.T) {
	projectDir := t.TempDir()
	if err := GenerateKey(KeyPath(projectDir)); err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	field, err := Encrypt("p@ssword", KeyPath(projectDir))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if err := Load(&field, projectDir); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if field.Type != types.SecretPlain || field.Value != "p@ssword" {
		t.Fatalf("Load() did not mutate field, got %+v", field)
	}

	// Load on an already-plain field is a no-op.
	if err := Load(&field, projectDir); err != nil {
		t.Fatalf("Load() on plain field error = %v", err)
	}
}

func TestPlaintextFailsWhenStillEncrypted(t *testing.T) {
	field := types.SecretField{Type: types.SecretEncrypted, Value: "xyz"}
	if _, err := field.Plaintext(); !errs.Is(err, errs.NotDecrypted) {
		t.Fatalf("Plaintext() error = %v, want NotDecrypted", err)
	}
}
