package lake

import (
	"testing"
	"time"

	"github.com/cuemby/lakebox/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil is NULL", nil, "NULL"},
		{"string passthrough", "hello", "hello"},
		{"bytes become string", []byte("abc"), "abc"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"int falls through to %v", 42, "42"},
		{"float falls through to %v", 3.5, "3.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stringify(tt.value))
		})
	}
}

func TestStringifyTime(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "2026-01-02T15:04:05Z", Stringify(ts))
}

func TestSqlQuoteEscapesSingleQuote(t *testing.T) {
	assert.Equal(t, "O''Brien", sqlQuote("O'Brien"))
}

func TestQuoteIdentEscapesDoubleQuote(t *testing.T) {
	assert.Equal(t, `"my""table"`, quoteIdent(`my"table`))
}

func TestS3ConnectionOptionsLocalEndpoint(t *testing.T) {
	conn := &types.S3Connection{Endpoint: "http://localhost:9000", PathStyle: false}
	style, ssl := s3ConnectionOptions(conn)
	assert.Equal(t, "path", style)
	assert.False(t, ssl)
}

func TestS3ConnectionOptionsRemotePathStyle(t *testing.T) {
	conn := &types.S3Connection{Endpoint: "https://minio.example.com", PathStyle: true}
	style, ssl := s3ConnectionOptions(conn)
	assert.Equal(t, "path", style)
	assert.True(t, ssl)
}

func TestS3ConnectionOptionsRemoteVirtualHosted(t *testing.T) {
	conn := &types.S3Connection{PathStyle: false}
	style, ssl := s3ConnectionOptions(conn)
	assert.Equal(t, "vhost", style)
	assert.True(t, ssl)
}

func TestS3CredentialClauseExplicit(t *testing.T) {
	conn := &types.S3Connection{
		AuthMethod:      types.S3AuthExplicit,
		AccessKeyID:     types.SecretField{Type: types.SecretPlain, Value: "AKIA"},
		SecretAccessKey: types.SecretField{Type: types.SecretPlain, Value: "shh"},
	}
	clause, err := s3CredentialClause(conn)
	require.NoError(t, err)
	assert.Contains(t, clause, "KEY_ID 'AKIA'")
	assert.Contains(t, clause, "SECRET 'shh'")
}

func TestS3CredentialClauseCredentialChain(t *testing.T) {
	conn := &types.S3Connection{AuthMethod: types.S3AuthCredentialChain}
	clause, err := s3CredentialClause(conn)
	require.NoError(t, err)
	assert.Contains(t, clause, "credential_chain")
}

func TestS3CredentialClauseUnknownMethod(t *testing.T) {
	conn := &types.S3Connection{AuthMethod: "bogus"}
	_, err := s3CredentialClause(conn)
	require.Error(t, err)
}
