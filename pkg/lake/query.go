package lake

import (
	"context"
	"fmt"

	"github.com/cuemby/lakebox/pkg/errs"
)

// ExecuteBatch runs fire-and-forget batch DDL/DML.
func (l *Lake) ExecuteBatch(ctx context.Context, sqlText string) error {
	if _, err := l.db.ExecContext(ctx, sqlText); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "execute batch", err)
	}
	return nil
}

// Query runs sqlText and returns every row with every cell stringified.
func (l *Lake) Query(ctx context.Context, sqlText string) ([][]string, error) {
	rows, err := l.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "read columns", err)
	}

	var out [][]string
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.Wrap(errs.ConnectionFailed, "scan row", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = Stringify(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "iterate rows", err)
	}
	return out, nil
}

// QueryWithColumnNames runs sqlText and returns the result set
// column-oriented, keyed by column name.
func (l *Lake) QueryWithColumnNames(ctx context.Context, sqlText string) (map[string][]string, error) {
	rows, err := l.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "read columns", err)
	}

	out := make(map[string][]string, len(cols))
	for _, c := range cols {
		out[c] = nil
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.Wrap(errs.ConnectionFailed, "scan row", err)
		}
		for i, v := range values {
			out[cols[i]] = append(out[cols[i]], Stringify(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "iterate rows", err)
	}
	return out, nil
}

// CreateTableFromQuery materializes name as CREATE OR REPLACE TABLE name
// AS (sqlText).
func (l *Lake) CreateTableFromQuery(ctx context.Context, name, sqlText string) error {
	stmt := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS (%s)", quoteIdent(name), sqlText)
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "materialize "+name, err)
	}
	return nil
}

// TableExists reports whether name exists in the lake's information schema.
func (l *Lake) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	row := l.db.QueryRowContext(ctx, "SELECT count(*) FROM information_schema.tables WHERE table_name = ?", name)
	if err := row.Scan(&count); err != nil {
		return false, errs.Wrap(errs.ConnectionFailed, "check table existence", err)
	}
	return count > 0, nil
}

// ColumnInfo is a single column of a table's schema.
type ColumnInfo struct {
	Name     string
	DataType string
}

// TableSchema returns the actual columns of name, via DESCRIBE.
func (l *Lake) TableSchema(ctx context.Context, name string) ([]ColumnInfo, error) {
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf("DESCRIBE %s", quoteIdent(name)))
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "describe "+name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "read describe columns", err)
	}

	var out []ColumnInfo
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.Wrap(errs.ConnectionFailed, "scan describe row", err)
		}
		// DuckDB's DESCRIBE always reports column_name and column_type first.
		out = append(out, ColumnInfo{Name: Stringify(values[0]), DataType: Stringify(values[1])})
	}
	return out, nil
}

func quoteIdent(name string) string {
	escaped := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			escaped = append(escaped, '"', '"')
			continue
		}
		escaped = append(escaped, name[i])
	}
	return `"` + string(escaped) + `"`
}
