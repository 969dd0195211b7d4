package database

import (
	"context"
	"fmt"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

const mysqlAlias = "mysql_db"

// mysqlAdapter attaches a remote MySQL database under alias mysql_db
// via the engine's mysql scanner extension.
type mysqlAdapter struct {
	lake   *lake.Lake
	config *types.MySqlConnection
}

func (a *mysqlAdapter) Attach(ctx context.Context) error {
	if err := a.lake.ExecuteBatch(ctx, "INSTALL mysql; LOAD mysql;"); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "install/load mysql extension", err)
	}
	password, err := a.config.Password.Plaintext()
	if err != nil {
		return errs.Wrap(errs.ConnectionFailed, "mysql password", err)
	}
	params := fmt.Sprintf("host=%s port=%d database=%s user=%s password=%s",
		a.config.Host, a.config.Port, a.config.Db, a.config.User, password)
	attachQuery := fmt.Sprintf("ATTACH '%s' AS %s (TYPE mysql);", params, mysqlAlias)
	if err := a.lake.ExecuteBatch(ctx, attachQuery); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "attach mysql database", err)
	}
	return nil
}

func (a *mysqlAdapter) Detach(ctx context.Context) error {
	return a.lake.ExecuteBatch(ctx, "DETACH "+mysqlAlias)
}

func (a *mysqlAdapter) TableExists(ctx context.Context, table string) (bool, error) {
	query := fmt.Sprintf("SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = '%s'", table)
	rows, err := a.lake.Query(ctx, query)
	if err != nil {
		return false, errs.Wrap(errs.ConnectionFailed, "validate table existence for "+table, err)
	}
	return len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] != "0", nil
}

func (a *mysqlAdapter) ImportTable(ctx context.Context, sourceTable, destTable string) error {
	query := fmt.Sprintf("SELECT * FROM %s.%s", mysqlAlias, sourceTable)
	return a.lake.CreateTableFromQuery(ctx, destTable, query)
}

func (a *mysqlAdapter) GetTableSchema(ctx context.Context, table string) ([]ColumnInfo, error) {
	query := fmt.Sprintf(
		"SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = '%s' AND TABLE_SCHEMA = '%s' ORDER BY ORDINAL_POSITION",
		table, a.config.Db,
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

func (a *mysqlAdapter) ValidateSchema(ctx context.Context, table string, expected []types.ColumnSpec) error {
	actual, err := a.GetTableSchema(ctx, table)
	if err != nil {
		return err
	}
	return validateSchema(table, expected, actual, normalizeMySQL)
}
