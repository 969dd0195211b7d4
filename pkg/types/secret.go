package types

import "github.com/cuemby/lakebox/pkg/errs"

// SecretField is a tagged union over a plaintext or encrypted credential
// value. It round-trips through YAML as:
//
//	password:
//	  type: plain
//	  value: "hunter2"
//
// or
//
//	password:
//	  type: encrypted
//	  value: "base64nonce+ciphertext+tag"
type SecretField struct {
	Type  SecretFieldType `yaml:"type" json:"type"`
	Value string          `yaml:"value" json:"value"`
}

// SecretFieldType discriminates a SecretField's storage form.
type SecretFieldType string

const (
	SecretPlain     SecretFieldType = "plain"
	SecretEncrypted SecretFieldType = "encrypted"
)

// Plaintext returns the field's inner string, failing if it has not been
// decrypted (see pkg/security.Load).
func (f SecretField) Plaintext() (string, error) {
	if f.Type != SecretPlain {
		return "", errs.New(errs.NotDecrypted, "secret field has not been decrypted")
	}
	return f.Value, nil
}

// IsEncrypted reports whether the field still holds ciphertext.
func (f SecretField) IsEncrypted() bool {
	return f.Type == SecretEncrypted
}
