package config

import (
	"os"
	"path/filepath"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/security"
	"github.com/cuemby/lakebox/pkg/types"
	"gopkg.in/yaml.v3"
)

func encryptField(f types.SecretField, projectDir string) (types.SecretField, error) {
	plaintext, err := f.Plaintext()
	if err != nil {
		return types.SecretField{}, err
	}
	return security.Encrypt(plaintext, security.KeyPath(projectDir))
}

// SaveHandle defers the on-disk write side of an Upsert until the caller
// explicitly commits it, so other invariants (e.g. a graph node write)
// can be applied first and the whole operation abandoned without having
// already touched disk. Config persistence errors surfacing *after* the
// in-memory mutation (spec.md §7) are intentional: the in-memory map is
// already the new value by the time Save can fail.
type SaveHandle struct {
	path string
	data []byte
}

// Save commits the upsert to disk.
func (h *SaveHandle) Save() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return errs.Wrap(errs.IoFailure, "ensure parent directory", err)
	}
	if err := os.WriteFile(h.path, h.data, 0o644); err != nil {
		return errs.Wrap(errs.IoFailure, "write "+h.path, err)
	}
	return nil
}

// DeleteHandle defers the on-disk removal side of a Delete.
type DeleteHandle struct {
	path string
}

// Save commits the delete to disk.
func (h *DeleteHandle) Save() error {
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.IoFailure, "remove "+h.path, err)
	}
	return nil
}

func categoryPath(projectDir, dir, name string) string {
	return filepath.Join(projectDir, dir, filepath.FromSlash(name)+".yml")
}

func upsert[T any](projectDir, dir string, into map[string]T, name string, value T) (*SaveHandle, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return nil, errs.Wrap(errs.BadRequest, "marshal "+name, err)
	}
	into[name] = value
	return &SaveHandle{path: categoryPath(projectDir, dir, name), data: data}, nil
}

func deleteEntry[T any](dir, projectDir string, into map[string]T, name string) *DeleteHandle {
	delete(into, name)
	return &DeleteHandle{path: categoryPath(projectDir, dir, name)}
}

// UpsertAdapter stages a create-or-update of a named adapter, mutating
// the in-memory map immediately and returning a handle to flush the YAML.
func (c *Config) UpsertAdapter(name string, a types.AdapterConfig) (*SaveHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return upsert(c.ProjectDir, adaptersDir, c.Adapters, name, a)
}

// DeleteAdapter stages removal of a named adapter.
func (c *Config) DeleteAdapter(name string) *DeleteHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return deleteEntry(adaptersDir, c.ProjectDir, c.Adapters, name)
}

// UpsertModel stages a create-or-update of a named model.
func (c *Config) UpsertModel(name string, m types.ModelConfig) (*SaveHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return upsert(c.ProjectDir, modelsDir, c.Models, name, m)
}

// DeleteModel stages removal of a named model.
func (c *Config) DeleteModel(name string) *DeleteHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return deleteEntry(modelsDir, c.ProjectDir, c.Models, name)
}

// UpsertQuery stages a create-or-update of a named query.
func (c *Config) UpsertQuery(name string, q types.QueryConfig) (*SaveHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return upsert(c.ProjectDir, queriesDir, c.Queries, name, q)
}

// DeleteQuery stages removal of a named query.
func (c *Config) DeleteQuery(name string) *DeleteHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return deleteEntry(queriesDir, c.ProjectDir, c.Queries, name)
}

// UpsertDashboard stages a create-or-update of a named dashboard.
func (c *Config) UpsertDashboard(name string, d types.DashboardConfig) (*SaveHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return upsert(c.ProjectDir, dashboardsDir, c.Dashboards, name, d)
}

// DeleteDashboard stages removal of a named dashboard.
func (c *Config) DeleteDashboard(name string) *DeleteHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return deleteEntry(dashboardsDir, c.ProjectDir, c.Dashboards, name)
}

// UpsertConnection creates or updates a named connection. The on-disk
// copy has its plaintext SecretFields encrypted before Save writes it;
// the in-memory copy stored in c.Project.Connections keeps its
// plaintext — satisfying spec.md S4 ("GET returns a decrypted
// structure" while on-disk is always encrypted). onDisk is a deep copy
// of value's populated variant (via Clone), since value's variant
// sub-struct is a pointer: mutating it in place would also mutate the
// in-memory copy this function is about to store.
func (c *Config) UpsertConnection(name string, value types.ConnectionConfig) (*SaveHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	onDisk := value.Clone()
	for _, f := range onDisk.SecretFields() {
		if f.Type == types.SecretPlain {
			encrypted, err := encryptField(*f, c.ProjectDir)
			if err != nil {
				return nil, err
			}
			*f = encrypted
		}
	}

	// The in-memory copy is kept decrypted (spec.md §3 Lifecycle); only
	// the bytes destined for project.yml carry ciphertext.
	c.Project.Connections[name] = value
	return c.projectSaveHandleLocked(onDisk, name)
}

// projectSaveHandleLocked marshals the whole project.yml with the given
// connection's on-disk (encrypted) form substituted in, without
// disturbing the in-memory decrypted copies of any other connection.
// Caller must hold c.mu.
func (c *Config) projectSaveHandleLocked(onDiskConn types.ConnectionConfig, name string) (*SaveHandle, error) {
	projected := c.Project
	projected.Connections = make(map[string]types.ConnectionConfig, len(c.Project.Connections))
	for n, conn := range c.Project.Connections {
		projected.Connections[n] = conn
	}
	projected.Connections[name] = onDiskConn

	data, err := yaml.Marshal(projected)
	if err != nil {
		return nil, errs.Wrap(errs.BadRequest, "marshal project.yml", err)
	}
	return &SaveHandle{path: filepath.Join(c.ProjectDir, projectFile), data: data}, nil
}

// DeleteConnection stages removal of a named connection from project.yml.
func (c *Config) DeleteConnection(name string) (*SaveHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Project.Connections, name)

	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return nil, errs.Wrap(errs.BadRequest, "marshal project.yml", err)
	}
	return &SaveHandle{path: filepath.Join(c.ProjectDir, projectFile), data: data}, nil
}
