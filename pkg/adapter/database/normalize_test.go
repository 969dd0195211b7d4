package database

import (
	"testing"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQL(t *testing.T) {
	tests := []struct{ in, out string }{
		{"integer", "INT"},
		{"STRING", "VARCHAR"},
		{"VARCHAR(255)", "VARCHAR"},
		{"BIGINT", "BIGINT"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, normalizeMySQL(tt.in))
	}
}

func TestNormalizePostgreSQL(t *testing.T) {
	assert.Equal(t, "VARCHAR", normalizePostgreSQL("character varying(100)"))
	assert.Equal(t, "INT", normalizePostgreSQL("integer"))
}

func TestNormalizeSQLite(t *testing.T) {
	tests := []struct{ in, out string }{
		{"VARCHAR(50)", "TEXT"},
		{"CHAR", "TEXT"},
		{"STRING", "TEXT"},
		{"INTEGER", "INTEGER"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, normalizeSQLite(tt.in))
	}
}

func TestValidateSchemaMissingColumn(t *testing.T) {
	err := validateSchema("t", []types.ColumnSpec{{Name: "missing", DataType: "TEXT"}}, nil, normalizeSQLite)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.SchemaMismatch))
}

func TestValidateSchemaTypeMismatch(t *testing.T) {
	actual := []ColumnInfo{{Name: "id", DataType: "VARCHAR"}}
	err := validateSchema("t", []types.ColumnSpec{{Name: "id", DataType: "INTEGER"}}, actual, normalizeSQLite)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.SchemaMismatch))
}

func TestValidateSchemaOK(t *testing.T) {
	actual := []ColumnInfo{{Name: "id", DataType: "VARCHAR(32)"}}
	err := validateSchema("t", []types.ColumnSpec{{Name: "id", DataType: "varchar"}}, actual, normalizeSQLite)
	require.NoError(t, err)
}
