// Package errs defines lakebox's error taxonomy: a small set of semantic
// kinds that every layer (config, graph, lake, adapters, pipeline) wraps
// its failures in, so the HTTP surface can map them to status codes
// without each handler re-deriving what kind of failure occurred.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a semantic error category, independent of where it originated.
type Kind string

const (
	NotFound            Kind = "not_found"
	Conflict            Kind = "conflict"
	BadRequest          Kind = "bad_request"
	SchemaMismatch      Kind = "schema_mismatch"
	ConnectionFailed    Kind = "connection_failed"
	DecryptionFailed    Kind = "decryption_failed"
	NotDecrypted        Kind = "not_decrypted"
	InvalidKey          Kind = "invalid_key"
	MalformedCiphertext Kind = "malformed_ciphertext"
	IoFailure           Kind = "io_failure"
	TaskFailed          Kind = "task_failed"
	InsertWouldCycle    Kind = "insert_would_cycle"
)

// Error wraps an underlying cause with a Kind, so callers can branch on
// errors.As without string-matching messages.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error from a message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds a Kind-tagged error around an existing cause.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Of reports the Kind of err, if any of its wrapped chain is a *Error.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := Of(err)
	return ok && k == kind
}
