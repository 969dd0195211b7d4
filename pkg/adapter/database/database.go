// Package database implements the adapter layer's database-backed
// sources: sqlite, mysql, and postgresql tables pulled into the lake
// as materialized tables through the engine's scanner extensions. The
// only native Go driver used here is modernc.org/sqlite, which the
// sqlite adapter opens directly to read a table's schema.
package database

import (
	"context"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

// ColumnInfo is a single column reported by a source's schema introspection.
type ColumnInfo struct {
	Name     string
	DataType string
}

// Adapter is implemented by every database dialect this package supports.
type Adapter interface {
	Attach(ctx context.Context) error
	Detach(ctx context.Context) error
	TableExists(ctx context.Context, table string) (bool, error)
	ImportTable(ctx context.Context, sourceTable, destTable string) error
	GetTableSchema(ctx context.Context, table string) ([]ColumnInfo, error)
	ValidateSchema(ctx context.Context, table string, expected []types.ColumnSpec) error
}

// New picks the dialect-specific adapter for conn, which must be a
// Sqlite, MySql, or PostgreSql connection variant.
func New(l *lake.Lake, conn types.ConnectionConfig) (Adapter, error) {
	switch {
	case conn.Sqlite != nil:
		return &sqliteAdapter{lake: l, path: conn.Sqlite.Path}, nil
	case conn.MySql != nil:
		return &mysqlAdapter{lake: l, config: conn.MySql}, nil
	case conn.PostgreSql != nil:
		return &postgresqlAdapter{lake: l, config: conn.PostgreSql}, nil
	default:
		return nil, errs.New(errs.BadRequest, "unsupported connection type for database adapter: "+conn.Kind())
	}
}

// validateSchema is the shared column-presence/type-match routine every
// dialect's ValidateSchema delegates to, after normalizing each dialect's
// own type vocabulary via normalize.
func validateSchema(table string, expected []types.ColumnSpec, actual []ColumnInfo, normalize func(string) string) error {
	byName := make(map[string]ColumnInfo, len(actual))
	for _, col := range actual {
		byName[col.Name] = col
	}

	for _, want := range expected {
		got, ok := byName[want.Name]
		if !ok {
			return errs.New(errs.SchemaMismatch, "column '"+want.Name+"' not found in table '"+table+"'")
		}
		if normalize(want.DataType) != normalize(got.DataType) {
			return errs.New(errs.SchemaMismatch, "column '"+want.Name+"' type mismatch: expected '"+want.DataType+"', found '"+got.DataType+"'")
		}
	}
	return nil
}

func rowsToColumnInfo(rows [][]string) []ColumnInfo {
	out := make([]ColumnInfo, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		out = append(out, ColumnInfo{Name: row[0], DataType: row[1]})
	}
	return out
}
