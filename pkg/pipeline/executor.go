package pipeline

import (
	"context"

	"github.com/cuemby/lakebox/pkg/adapter/database"
	"github.com/cuemby/lakebox/pkg/adapter/file"
	"github.com/cuemby/lakebox/pkg/config"
	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/model"
	"github.com/cuemby/lakebox/pkg/types"
)

// TaskExecutor runs a single named task (an adapter import or a model
// transform) to materialize its table. A run never calls it twice for
// the same task concurrently.
type TaskExecutor interface {
	Run(ctx context.Context, name string) error
}

// Executor dispatches a task name to whichever of cfg's adapters or
// models declares it, building the matching adapter/file or
// adapter/database instance (or calling model.Transform) on demand.
type Executor struct {
	cfg  *config.Config
	lake *lake.Lake
}

// NewExecutor binds an Executor to the project's config and lake.
func NewExecutor(cfg *config.Config, l *lake.Lake) *Executor {
	return &Executor{cfg: cfg, lake: l}
}

// Run materializes the table for name: an adapter import if name names
// an adapter, a model transform if it names a model. A name that is
// neither is a not-found error — the pipeline only ever schedules
// names drawn from the config's own adapter/model maps.
func (e *Executor) Run(ctx context.Context, name string) error {
	if adapterCfg, ok := e.cfg.GetAdapter(name); ok {
		return e.runAdapter(ctx, name, adapterCfg)
	}
	if modelCfg, ok := e.cfg.GetModel(name); ok {
		return model.Transform(ctx, e.lake, name, modelCfg)
	}
	return errs.New(errs.NotFound, "task '"+name+"' is neither a known adapter nor a known model")
}

func (e *Executor) runAdapter(ctx context.Context, name string, cfg types.AdapterConfig) error {
	conn, ok := e.cfg.GetConnection(cfg.ConnectionName)
	if !ok {
		return errs.New(errs.NotFound, "connection '"+cfg.ConnectionName+"' not found for adapter '"+name+"'")
	}

	switch {
	case cfg.Source.File != nil:
		return e.runFileAdapter(ctx, name, cfg, conn)
	case cfg.Source.Database != nil:
		return e.runDatabaseAdapter(ctx, name, cfg, conn)
	default:
		return errs.New(errs.BadRequest, "adapter '"+name+"' has neither a file nor a database source")
	}
}

func (e *Executor) runFileAdapter(ctx context.Context, name string, cfg types.AdapterConfig, conn types.ConnectionConfig) error {
	adapter, err := file.New(e.lake, cfg, conn)
	if err != nil {
		return err
	}
	files, err := adapter.ListFiles(ctx, cfg.Source.File.File.Path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errs.New(errs.NotFound, "adapter '"+name+"' matched no files for pattern '"+cfg.Source.File.File.Path+"'")
	}
	return adapter.ImportFiles(ctx, name, files)
}

func (e *Executor) runDatabaseAdapter(ctx context.Context, name string, cfg types.AdapterConfig, conn types.ConnectionConfig) error {
	adapter, err := database.New(e.lake, conn)
	if err != nil {
		return err
	}
	if err := adapter.Attach(ctx); err != nil {
		return err
	}
	defer adapter.Detach(ctx)

	return adapter.ImportTable(ctx, cfg.Source.Database.TableName, name)
}
