package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cuemby/lakebox/pkg/adapter/database"
	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

// localAdapter resolves adapter file patterns against a base directory
// on disk.
type localAdapter struct {
	lake     *lake.Lake
	cfg      types.AdapterConfig
	basePath string
}

func (a *localAdapter) resolve(path string) string {
	if a.basePath == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.basePath, path)
}

// ListFiles expands pattern via glob if it contains a wildcard,
// otherwise returns the resolved path if it exists.
func (a *localAdapter) ListFiles(ctx context.Context, pattern string) ([]string, error) {
	resolved := a.resolve(pattern)

	if strings.ContainsAny(resolved, "*?") {
		matches, err := filepath.Glob(resolved)
		if err != nil {
			return nil, errs.Wrap(errs.BadRequest, "execute glob pattern", err)
		}
		return matches, nil
	}
	if _, err := os.Stat(resolved); err == nil {
		return []string{resolved}, nil
	}
	return nil, nil
}

// ImportFiles materializes destTable from files; an empty file list is
// a no-op.
func (a *localAdapter) ImportFiles(ctx context.Context, destTable string, files []string) error {
	if len(files) == 0 {
		return nil
	}
	query, err := buildImportQuery(a.cfg, files)
	if err != nil {
		return err
	}
	return a.lake.CreateTableFromQuery(ctx, destTable, query)
}

// GetFileSchema materializes a throwaway zero-row table from path and
// DESCRIBEs it.
func (a *localAdapter) GetFileSchema(ctx context.Context, path string) ([]database.ColumnInfo, error) {
	resolved := a.resolve(path)
	if _, err := os.Stat(resolved); err != nil {
		return nil, errs.New(errs.NotFound, "file '"+resolved+"' does not exist")
	}
	if a.cfg.Source.File == nil {
		return nil, errs.New(errs.BadRequest, "expected file source")
	}

	tempTable := "temp_schema_check_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	query, err := schemaQuery(a.cfg.Source.File.Format, resolved, tempTable)
	if err != nil {
		return nil, err
	}
	if err := a.lake.ExecuteBatch(ctx, query); err != nil {
		return nil, err
	}
	defer a.lake.ExecuteBatch(ctx, "DROP TABLE "+tempTable)

	cols, err := a.lake.TableSchema(ctx, tempTable)
	if err != nil {
		return nil, err
	}
	out := make([]database.ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = database.ColumnInfo{Name: c.Name, DataType: c.DataType}
	}
	return out, nil
}

func (a *localAdapter) ValidateSchema(ctx context.Context, path string, expected []types.ColumnSpec) error {
	actual, err := a.GetFileSchema(ctx, path)
	if err != nil {
		return err
	}
	return validateSchema(path, expected, actual)
}
