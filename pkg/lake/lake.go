// Package lake is the analytical engine façade: one handle that routes
// SQL against a warehouse backed by a pluggable metadata catalog and
// pluggable table storage. It plays the same role the teacher's pool
// package plays for containerd sockets — a single pooled handle that
// every other package borrows rather than opening its own connections.
package lake

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/log"
	"github.com/cuemby/lakebox/pkg/types"
	"github.com/rs/zerolog"
)

// Lake is a pooled handle onto one project's warehouse.
type Lake struct {
	db      *sql.DB
	workDir string
	logger  zerolog.Logger
}

// New opens a fresh engine working directory, attaches the configured
// catalog under alias "db" with storage resolved to storagePath, and
// returns a ready-to-use façade. Concurrency is bounded by a connection
// pool sized to num_cpus (spec.md §4.4).
func New(catalog types.CatalogConfig, storage types.StorageConfig, projectDir string) (*Lake, error) {
	logger := log.WithProject(projectDir)

	workDir, err := os.MkdirTemp("", "lakebox-lake-*")
	if err != nil {
		return nil, errs.Wrap(errs.IoFailure, "create lake working directory", err)
	}

	dbPath := filepath.Join(workDir, "lake.db")
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, errs.Wrap(errs.ConnectionFailed, "open analytical engine", err)
	}
	db.SetMaxOpenConns(runtime.NumCPU())

	l := &Lake{db: db, workDir: workDir, logger: logger}

	if err := l.prepareStorage(storage, projectDir); err != nil {
		l.Close()
		return nil, err
	}
	if err := l.attachCatalog(catalog, storage, projectDir); err != nil {
		l.Close()
		return nil, err
	}

	return l, nil
}

// Close releases the pool and removes the scratch working directory.
func (l *Lake) Close() error {
	var dbErr error
	if l.db != nil {
		dbErr = l.db.Close()
	}
	os.RemoveAll(l.workDir)
	return dbErr
}

// prepareStorage creates the local storage directory, or installs the
// object-store extension and registers the s3_secret credential used
// by every subsequent S3-backed attach/import.
func (l *Lake) prepareStorage(storage types.StorageConfig, projectDir string) error {
	switch {
	case storage.Local != nil:
		path := storage.Local.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectDir, path)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return errs.Wrap(errs.IoFailure, "create storage directory", err)
		}
		return nil
	case storage.S3 != nil:
		if err := l.execNoResult("INSTALL httpfs; LOAD httpfs;"); err != nil {
			return err
		}
		return l.ConfigureS3Connection(storage.S3)
	default:
		return errs.New(errs.BadRequest, "storage config has neither local nor s3 set")
	}
}

// storagePath resolves the DATA_PATH the catalog attach clause embeds,
// per spec.md §4.4 step 4.
func storagePath(storage types.StorageConfig, projectDir string) (string, error) {
	switch {
	case storage.Local != nil:
		path := storage.Local.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectDir, path)
		}
		return path, nil
	case storage.S3 != nil:
		return fmt.Sprintf("s3://%s/ducklake", storage.S3.Bucket), nil
	default:
		return "", errs.New(errs.BadRequest, "storage config has neither local nor s3 set")
	}
}

// attachCatalog installs the ducklake extension plus the per-dialect
// catalog driver, then attaches the lake under alias "db" via a
// ducklake: connection string carrying DATA_PATH — the ATTACH clause
// that actually binds the configured storage backend to the catalog.
// Remote catalogs additionally scope their metadata to a schema named
// "<database>_metadata" so it does not collide with the lake's own
// tables.
func (l *Lake) attachCatalog(catalog types.CatalogConfig, storage types.StorageConfig, projectDir string) error {
	dataPath, err := storagePath(storage, projectDir)
	if err != nil {
		return err
	}

	if err := l.execNoResult("INSTALL ducklake; LOAD ducklake;"); err != nil {
		return err
	}

	switch catalog.Kind() {
	case types.CatalogSqlite:
		path := catalog.Sqlite.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectDir, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errs.Wrap(errs.IoFailure, "create catalog directory", err)
		}
		if err := l.execNoResult("INSTALL sqlite; LOAD sqlite;"); err != nil {
			return err
		}
		stmt := fmt.Sprintf("ATTACH 'ducklake:sqlite:%s' AS db (DATA_PATH '%s');", sqlQuote(path), sqlQuote(dataPath))
		if err := l.execNoResult(stmt); err != nil {
			return err
		}
	case types.CatalogMySql:
		c := catalog.MySql
		if err := preflightMySQL(context.Background(), c); err != nil {
			return err
		}
		password, err := c.Password.Plaintext()
		if err != nil {
			return errs.Wrap(errs.ConnectionFailed, "mysql catalog password", err)
		}
		if err := l.execNoResult("INSTALL mysql; LOAD mysql;"); err != nil {
			return err
		}
		connStr := fmt.Sprintf("ducklake:mysql:db=%s host=%s port=%d user=%s password=%s", c.Db, c.Host, c.Port, c.User, password)
		stmt := fmt.Sprintf("ATTACH '%s' AS db (DATA_PATH '%s', METADATA_SCHEMA '%s_metadata');", sqlQuote(connStr), sqlQuote(dataPath), sqlQuote(c.Db))
		if err := l.execNoResult(stmt); err != nil {
			return err
		}
	case types.CatalogPostgreSql:
		c := catalog.PostgreSql
		if err := preflightPostgreSQL(context.Background(), c); err != nil {
			return err
		}
		password, err := c.Password.Plaintext()
		if err != nil {
			return errs.Wrap(errs.ConnectionFailed, "postgresql catalog password", err)
		}
		if err := l.execNoResult("INSTALL postgres; LOAD postgres;"); err != nil {
			return err
		}
		connStr := fmt.Sprintf("ducklake:postgres:dbname=%s host=%s port=%d user=%s password=%s", c.Db, c.Host, c.Port, c.User, password)
		stmt := fmt.Sprintf("ATTACH '%s' AS db (DATA_PATH '%s', METADATA_SCHEMA '%s_metadata');", sqlQuote(connStr), sqlQuote(dataPath), sqlQuote(c.Db))
		if err := l.execNoResult(stmt); err != nil {
			return err
		}
	default:
		return errs.New(errs.BadRequest, "unknown catalog kind")
	}

	return l.execNoResult("USE db;")
}

func (l *Lake) execNoResult(sqlText string) error {
	if _, err := l.db.ExecContext(context.Background(), sqlText); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "execute "+sqlText, err)
	}
	return nil
}

func sqlQuote(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
