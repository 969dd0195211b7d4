package file

import (
	"testing"

	"github.com/cuemby/lakebox/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvAdapterConfig(hasHeader *bool) types.AdapterConfig {
	return types.AdapterConfig{
		ConnectionName: "local",
		Source: types.AdapterSource{
			File: &types.AdapterSourceFile{
				File:   types.FileSourceLocation{Path: "data.csv"},
				Format: types.FileSourceFormat{Type: types.FormatCSV, HasHeader: hasHeader},
			},
		},
	}
}

func TestBuildImportQuerySinglePath(t *testing.T) {
	query, err := buildImportQuery(csvAdapterConfig(nil), []string{"/data/a.csv"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM read_csv_auto('/data/a.csv', header=true)", query)
}

func TestBuildImportQueryMultiplePaths(t *testing.T) {
	query, err := buildImportQuery(csvAdapterConfig(nil), []string{"/data/a.csv", "/data/b.csv"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM read_csv_auto(['/data/a.csv', '/data/b.csv'], header=true)", query)
}

func TestBuildImportQueryRespectsHasHeaderFalse(t *testing.T) {
	noHeader := false
	query, err := buildImportQuery(csvAdapterConfig(&noHeader), []string{"/data/a.csv"})
	require.NoError(t, err)
	assert.Contains(t, query, "header=false")
}

func TestBuildImportQueryParquetAndJSON(t *testing.T) {
	cfg := csvAdapterConfig(nil)
	cfg.Source.File.Format.Type = types.FormatParquet
	query, err := buildImportQuery(cfg, []string{"/data/a.parquet"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM read_parquet('/data/a.parquet')", query)

	cfg.Source.File.Format.Type = types.FormatJSON
	query, err = buildImportQuery(cfg, []string{"/data/a.json"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM read_json_auto('/data/a.json')", query)
}

func TestBuildImportQueryEmptyFilesFails(t *testing.T) {
	_, err := buildImportQuery(csvAdapterConfig(nil), nil)
	require.Error(t, err)
}

func TestBuildImportQueryUnsupportedFormat(t *testing.T) {
	cfg := csvAdapterConfig(nil)
	cfg.Source.File.Format.Type = "xml"
	_, err := buildImportQuery(cfg, []string{"/data/a.xml"})
	require.Error(t, err)
}

func TestNormalizeFileType(t *testing.T) {
	tests := []struct{ in, out string }{
		{"integer", "BIGINT"},
		{"STRING", "VARCHAR"},
		{"float", "DOUBLE"},
		{"VARCHAR(255)", "VARCHAR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, normalizeFileType(tt.in))
	}
}

func TestLiteralPrefix(t *testing.T) {
	tests := []struct{ pattern, prefix string }{
		{"data/2024/*.csv", "data/2024/"},
		{"data/*/file.csv", "data/"},
		{"data/file.csv", "data/file.csv"},
		{"*.csv", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.prefix, literalPrefix(tt.pattern))
	}
}

func TestPatternToRegexpMatches(t *testing.T) {
	re, err := patternToRegexp("data/*.csv")
	require.NoError(t, err)
	assert.True(t, re.MatchString("data/a.csv"))
	assert.False(t, re.MatchString("data/a.json"))
	assert.False(t, re.MatchString("other/a.csv"))
}
