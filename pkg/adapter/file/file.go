// Package file implements the adapter layer's file-backed sources:
// local filesystem globs and S3-compatible object listings, both
// reduced to the same read_csv_auto/read_json_auto/read_parquet SQL
// the lake executes to materialize a table.
package file

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/lakebox/pkg/adapter/database"
	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

// Adapter is implemented by every file connection variant this package
// supports (local disk, S3).
type Adapter interface {
	ListFiles(ctx context.Context, pattern string) ([]string, error)
	ImportFiles(ctx context.Context, destTable string, files []string) error
	GetFileSchema(ctx context.Context, path string) ([]database.ColumnInfo, error)
	ValidateSchema(ctx context.Context, path string, expected []types.ColumnSpec) error
}

// New picks the variant-specific adapter for conn (LocalFile or S3),
// bound to cfg so it knows the declared format/columns.
func New(l *lake.Lake, cfg types.AdapterConfig, conn types.ConnectionConfig) (Adapter, error) {
	switch {
	case conn.LocalFile != nil:
		return &localAdapter{lake: l, cfg: cfg, basePath: conn.LocalFile.BasePath}, nil
	case conn.S3 != nil:
		return &s3Adapter{lake: l, cfg: cfg, conn: conn.S3}, nil
	default:
		return nil, errs.New(errs.BadRequest, "unsupported connection type for file adapter: "+conn.Kind())
	}
}

// buildImportQuery builds the read_csv_auto/read_json_auto/read_parquet
// SELECT that ImportFiles materializes, rendering a single path as a
// string literal or multiple paths as a list literal. Schema discovery
// builds its own single-path query with schemaQuery.
func buildImportQuery(cfg types.AdapterConfig, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", errs.New(errs.BadRequest, "no files to load")
	}
	if cfg.Source.File == nil {
		return "", errs.New(errs.BadRequest, "adapter source is not a file source")
	}

	var pathExpr string
	if len(paths) == 1 {
		pathExpr = fmt.Sprintf("'%s'", paths[0])
	} else {
		quoted := make([]string, len(paths))
		for i, p := range paths {
			quoted[i] = fmt.Sprintf("'%s'", p)
		}
		pathExpr = "[" + strings.Join(quoted, ", ") + "]"
	}

	format := cfg.Source.File.Format
	switch format.Type {
	case types.FormatCSV:
		hasHeader := true
		if format.HasHeader != nil {
			hasHeader = *format.HasHeader
		}
		return fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header=%t)", pathExpr, hasHeader), nil
	case types.FormatParquet:
		return fmt.Sprintf("SELECT * FROM read_parquet(%s)", pathExpr), nil
	case types.FormatJSON:
		return fmt.Sprintf("SELECT * FROM read_json_auto(%s)", pathExpr), nil
	default:
		return "", errs.New(errs.BadRequest, "unsupported format: "+string(format.Type))
	}
}

// validateSchema is the shared column-presence/type-match routine both
// file adapter variants' ValidateSchema delegates to.
func validateSchema(path string, expected []types.ColumnSpec, actual []database.ColumnInfo) error {
	byName := make(map[string]database.ColumnInfo, len(actual))
	for _, col := range actual {
		byName[col.Name] = col
	}
	for _, want := range expected {
		got, ok := byName[want.Name]
		if !ok {
			return errs.New(errs.SchemaMismatch, "column '"+want.Name+"' not found in file '"+path+"'")
		}
		if normalizeFileType(want.DataType) != normalizeFileType(got.DataType) {
			return errs.New(errs.SchemaMismatch, "column '"+want.Name+"' type mismatch: expected '"+want.DataType+"', found '"+got.DataType+"'")
		}
	}
	return nil
}

func normalizeFileType(t string) string {
	upper := strings.ToUpper(t)
	if i := strings.Index(upper, "("); i >= 0 {
		upper = upper[:i]
	}
	upper = strings.TrimSpace(upper)
	upper = strings.ReplaceAll(upper, "INTEGER", "BIGINT")
	upper = strings.ReplaceAll(upper, "STRING", "VARCHAR")
	upper = strings.ReplaceAll(upper, "FLOAT", "DOUBLE")
	return upper
}

func schemaQuery(format types.FileSourceFormat, path, tempTable string) (string, error) {
	switch format.Type {
	case types.FormatCSV:
		hasHeader := true
		if format.HasHeader != nil {
			hasHeader = *format.HasHeader
		}
		return fmt.Sprintf("CREATE TEMP TABLE %s AS SELECT * FROM read_csv_auto('%s', header=%t) LIMIT 0", tempTable, path, hasHeader), nil
	case types.FormatJSON:
		return fmt.Sprintf("CREATE TEMP TABLE %s AS SELECT * FROM read_json_auto('%s') LIMIT 0", tempTable, path), nil
	case types.FormatParquet:
		return fmt.Sprintf("CREATE TEMP TABLE %s AS SELECT * FROM read_parquet('%s') LIMIT 0", tempTable, path), nil
	default:
		return "", errs.New(errs.BadRequest, "unsupported file format: "+string(format.Type))
	}
}
