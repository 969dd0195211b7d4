package lake

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
)

// preflightPing opens a short-lived native connection through the
// dialect's own driver and pings it, so a bad catalog credential or an
// unreachable host surfaces as ConnectionFailed before the engine's own
// ATTACH (whose error messages are far less specific) ever runs.
func preflightPing(ctx context.Context, driverName, dsn string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return errs.Wrap(errs.ConnectionFailed, "open "+driverName+" connection", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "ping "+driverName+" catalog", err)
	}
	return nil
}

func preflightMySQL(ctx context.Context, c *types.MySqlConnection) error {
	password, err := c.Password.Plaintext()
	if err != nil {
		return errs.Wrap(errs.ConnectionFailed, "mysql catalog password", err)
	}
	return preflightPing(ctx, "mysql", c.DSN(password))
}

func preflightPostgreSQL(ctx context.Context, c *types.PostgreSqlConnection) error {
	password, err := c.Password.Plaintext()
	if err != nil {
		return errs.Wrap(errs.ConnectionFailed, "postgresql catalog password", err)
	}
	return preflightPing(ctx, "pgx", c.DSN(password))
}

// PingMySQL and PingPostgreSQL expose the same preflight connectivity
// check for callers outside the package (the HTTP surface's
// connection-test endpoint), without requiring a full Lake.
func PingMySQL(ctx context.Context, c *types.MySqlConnection) error {
	return preflightMySQL(ctx, c)
}

func PingPostgreSQL(ctx context.Context, c *types.PostgreSqlConnection) error {
	return preflightPostgreSQL(ctx, c)
}
