// Package model runs a named SQL transformation against the lake,
// materializing its result as a table. Every adapter and every
// previously-materialized model is in scope, since the SQL executes
// verbatim against the shared warehouse.
package model

import (
	"context"

	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

// Transform materializes destTable as CREATE OR REPLACE TABLE destTable
// AS (cfg.Sql).
func Transform(ctx context.Context, l *lake.Lake, destTable string, cfg types.ModelConfig) error {
	return l.CreateTableFromQuery(ctx, destTable, cfg.Sql)
}
