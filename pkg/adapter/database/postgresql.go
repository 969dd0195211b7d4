package database

import (
	"context"
	"fmt"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

const postgresAlias = "postgres_db"

// postgresqlAdapter attaches a remote PostgreSQL database under alias
// postgres_db via the engine's postgres scanner extension.
type postgresqlAdapter struct {
	lake   *lake.Lake
	config *types.PostgreSqlConnection
}

func (a *postgresqlAdapter) Attach(ctx context.Context) error {
	if err := a.lake.ExecuteBatch(ctx, "INSTALL postgres; LOAD postgres;"); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "install/load postgres extension", err)
	}
	password, err := a.config.Password.Plaintext()
	if err != nil {
		return errs.Wrap(errs.ConnectionFailed, "postgresql password", err)
	}
	params := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s",
		a.config.Host, a.config.Port, a.config.Db, a.config.User, password)
	attachQuery := fmt.Sprintf("ATTACH '%s' AS %s (TYPE postgres);", params, postgresAlias)
	if err := a.lake.ExecuteBatch(ctx, attachQuery); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "attach postgresql database", err)
	}
	return nil
}

func (a *postgresqlAdapter) Detach(ctx context.Context) error {
	return a.lake.ExecuteBatch(ctx, "DETACH "+postgresAlias)
}

func (a *postgresqlAdapter) TableExists(ctx context.Context, table string) (bool, error) {
	query := fmt.Sprintf("SELECT table_name FROM information_schema.tables WHERE table_name = '%s'", table)
	rows, err := a.lake.Query(ctx, query)
	if err != nil {
		return false, errs.Wrap(errs.ConnectionFailed, "validate table existence for "+table, err)
	}
	return len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] != "0", nil
}

func (a *postgresqlAdapter) ImportTable(ctx context.Context, sourceTable, destTable string) error {
	query := fmt.Sprintf("SELECT * FROM %s.%s", postgresAlias, sourceTable)
	return a.lake.CreateTableFromQuery(ctx, destTable, query)
}

func (a *postgresqlAdapter) GetTableSchema(ctx context.Context, table string) ([]ColumnInfo, error) {
	query := fmt.Sprintf(
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = '%s' ORDER BY ordinal_position",
		table,
	)
	rows, err := a.lake.Query(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "get schema for table "+table, err)
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.NotFound, "table '"+table+"' does not exist or has no columns")
	}
	return rowsToColumnInfo(rows), nil
}

func (a *postgresqlAdapter) ValidateSchema(ctx context.Context, table string, expected []types.ColumnSpec) error {
	actual, err := a.GetTableSchema(ctx, table)
	if err != nil {
		return err
	}
	return validateSchema(table, expected, actual, normalizePostgreSQL)
}
