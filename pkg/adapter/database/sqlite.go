package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

// sqliteAdapter reads a SQLite database file through the engine's
// sqlite_scanner extension; there is no ATTACH step, so Detach is a
// no-op, matching the original implementation.
type sqliteAdapter struct {
	lake *lake.Lake
	path string
}

func (a *sqliteAdapter) Attach(ctx context.Context) error {
	return a.lake.ExecuteBatch(ctx, "INSTALL sqlite_scanner; LOAD sqlite_scanner;")
}

func (a *sqliteAdapter) Detach(ctx context.Context) error {
	return nil
}

func (a *sqliteAdapter) TableExists(ctx context.Context, table string) (bool, error) {
	rows, err := a.lake.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM sqlite_scan('%s', '%s')", a.path, table))
	if err != nil {
		return false, nil
	}
	return len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] != "0", nil
}

func (a *sqliteAdapter) ImportTable(ctx context.Context, sourceTable, destTable string) error {
	query := fmt.Sprintf("SELECT * FROM sqlite_scan('%s', '%s')", a.path, sourceTable)
	return a.lake.CreateTableFromQuery(ctx, destTable, query)
}

// GetTableSchema opens the SQLite file directly (not through the lake's
// connection pool) to read PRAGMA table_info, mirroring the original's
// use of a direct driver connection rather than a lake-mediated query.
func (a *sqliteAdapter) GetTableSchema(ctx context.Context, table string) ([]ColumnInfo, error) {
	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "open sqlite database "+a.path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "prepare PRAGMA query for table "+table, err)
	}
	defer rows.Close()

	var out []ColumnInfo
	for rows.Next() {
		var cid int
		var name, dataType string
		var notNull int
		var dfltValue any
		var pk int
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return nil, errs.Wrap(errs.ConnectionFailed, "parse column info", err)
		}
		out = append(out, ColumnInfo{Name: name, DataType: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "execute PRAGMA query for table "+table, err)
	}
	if len(out) == 0 {
		return nil, errs.New(errs.NotFound, "table '"+table+"' does not exist or has no columns")
	}
	return out, nil
}

func (a *sqliteAdapter) ValidateSchema(ctx context.Context, table string, expected []types.ColumnSpec) error {
	actual, err := a.GetTableSchema(ctx, table)
	if err != nil {
		return err
	}
	return validateSchema(table, expected, actual, normalizeSQLite)
}
