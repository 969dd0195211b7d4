// Package config implements spec.md §4.2's config store: a typed,
// in-memory mirror of the project's YAML files, with deferred-write
// SaveHandle/DeleteHandle objects so callers can apply other invariants
// (graph updates) before committing to disk.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/log"
	"github.com/cuemby/lakebox/pkg/security"
	"github.com/cuemby/lakebox/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	adaptersDir   = "adapters"
	modelsDir     = "models"
	queriesDir    = "queries"
	dashboardsDir = "dashboards"
	projectFile   = "project.yml"
)

// Config is the in-memory mirror of a project directory's configuration.
// All HTTP handlers and the pipeline scheduler read and mutate it behind
// a single mutex (spec.md §5); long operations clone what they need and
// release the lock before doing real work.
type Config struct {
	mu sync.RWMutex

	ProjectDir string
	Project    types.ProjectConfig
	Adapters   map[string]types.AdapterConfig
	Models     map[string]types.ModelConfig
	Queries    map[string]types.QueryConfig
	Dashboards map[string]types.DashboardConfig
}

// Load implements spec.md §4.2's six-step load procedure.
func Load(projectDir string) (*Config, error) {
	logger := log.WithProject(projectDir)

	for _, dir := range []string{adaptersDir, modelsDir, queriesDir, dashboardsDir} {
		if err := os.MkdirAll(filepath.Join(projectDir, dir), 0o755); err != nil {
			return nil, errs.Wrap(errs.IoFailure, "ensure entity directory", err)
		}
	}

	projectPath := filepath.Join(projectDir, projectFile)
	raw, err := os.ReadFile(projectPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.NotFound, "project.yml not found: "+projectPath)
		}
		return nil, errs.Wrap(errs.IoFailure, "read project.yml", err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, err
	}

	var project types.ProjectConfig
	if err := yaml.Unmarshal(expanded, &project); err != nil {
		return nil, errs.Wrap(errs.BadRequest, "parse project.yml", err)
	}

	resolveProjectPaths(&project, projectDir)

	cfg := &Config{
		ProjectDir: projectDir,
		Project:    project,
		Adapters:   map[string]types.AdapterConfig{},
		Models:     map[string]types.ModelConfig{},
		Queries:    map[string]types.QueryConfig{},
		Dashboards: map[string]types.DashboardConfig{},
	}

	if err := loadSecrets(cfg); err != nil {
		return nil, err
	}

	if err := walkCategory(projectDir, adaptersDir, cfg.Adapters); err != nil {
		return nil, err
	}
	if err := walkCategory(projectDir, modelsDir, cfg.Models); err != nil {
		return nil, err
	}
	if err := walkCategory(projectDir, queriesDir, cfg.Queries); err != nil {
		return nil, err
	}
	if err := walkCategory(projectDir, dashboardsDir, cfg.Dashboards); err != nil {
		return nil, err
	}

	for _, warning := range cfg.validate() {
		logger.Warn().Msg(warning)
	}

	return cfg, nil
}

// resolveProjectPaths rewrites storage/catalog/connection paths that are
// relative to the project root into absolute paths, per spec.md §4.2
// step 4.
func resolveProjectPaths(p *types.ProjectConfig, projectDir string) {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(projectDir, path)
	}

	if p.Storage.Local != nil {
		p.Storage.Local.Path = abs(p.Storage.Local.Path)
	}
	if p.Catalog.Sqlite != nil {
		p.Catalog.Sqlite.Path = abs(p.Catalog.Sqlite.Path)
	}
	for name, conn := range p.Connections {
		if conn.LocalFile != nil {
			conn.LocalFile.BasePath = abs(conn.LocalFile.BasePath)
		}
		if conn.Sqlite != nil {
			conn.Sqlite.Path = abs(conn.Sqlite.Path)
		}
		p.Connections[name] = conn
	}
}

// loadSecrets decrypts every credential field in the project config and
// its connections, per spec.md §4.2 step 5.
func loadSecrets(cfg *Config) error {
	if cfg.Project.Storage.S3 != nil {
		for _, f := range cfg.Project.Storage.S3.SecretFields() {
			// storage's S3 block is not itself a ConnectionConfig, reuse
			// the same per-field loader directly.
			if err := security.Load(f, cfg.ProjectDir); err != nil {
				return err
			}
		}
	}
	if cfg.Project.Catalog.MySql != nil {
		if err := security.Load(&cfg.Project.Catalog.MySql.Password, cfg.ProjectDir); err != nil {
			return err
		}
	}
	if cfg.Project.Catalog.PostgreSql != nil {
		if err := security.Load(&cfg.Project.Catalog.PostgreSql.Password, cfg.ProjectDir); err != nil {
			return err
		}
	}
	for name, conn := range cfg.Project.Connections {
		for _, f := range conn.SecretFields() {
			if err := security.Load(f, cfg.ProjectDir); err != nil {
				return err
			}
		}
		cfg.Project.Connections[name] = conn
	}
	return nil
}

// walkCategory recursively reads every *.yml file under
// <projectDir>/<dir>, keying each entry by its path relative to dir with
// the .yml extension stripped (spec.md §4.2 step 6).
func walkCategory[T any](projectDir, dir string, into map[string]T) error {
	root := filepath.Join(projectDir, dir)
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errs.Wrap(errs.IoFailure, "walk "+dir, err)
		}
		if info.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errs.Wrap(errs.IoFailure, "relative path", err)
		}
		name := rel[:len(rel)-len(".yml")]
		name = filepath.ToSlash(name)

		raw, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrap(errs.IoFailure, "read "+path, err)
		}
		var entry T
		if err := yaml.Unmarshal(raw, &entry); err != nil {
			return errs.Wrap(errs.BadRequest, "parse "+path, err)
		}
		into[name] = entry
		return nil
	})
}

// AllNodeNames returns the union of adapter and model names — the
// universe of graph node names (spec.md §3 invariant: globally unique
// across adapters and models).
func (c *Config) AllNodeNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.Adapters)+len(c.Models))
	for name := range c.Adapters {
		names = append(names, name)
	}
	for name := range c.Models {
		names = append(names, name)
	}
	return names
}
