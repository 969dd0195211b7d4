package config

import "github.com/cuemby/lakebox/pkg/types"

// Accessors the HTTP surface and the pipeline executor use to read the
// store under its lock. They return shallow copies: the maps themselves
// are never shared, but pointer fields inside an entry (connection
// variants, adapter sources) still point at the live values.

// GetAdapter returns a copy of the named adapter, if present.
func (c *Config) GetAdapter(name string) (types.AdapterConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.Adapters[name]
	return a, ok
}

// HasAdapter reports whether name is a known adapter.
func (c *Config) HasAdapter(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.Adapters[name]
	return ok
}

// ListAdapters returns a name-sorted-by-caller snapshot of every adapter.
func (c *Config) ListAdapters() map[string]types.AdapterConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]types.AdapterConfig, len(c.Adapters))
	for k, v := range c.Adapters {
		out[k] = v
	}
	return out
}

// GetModel returns a copy of the named model, if present.
func (c *Config) GetModel(name string) (types.ModelConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.Models[name]
	return m, ok
}

// HasModel reports whether name is a known model.
func (c *Config) HasModel(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.Models[name]
	return ok
}

// ListModels returns a snapshot of every model.
func (c *Config) ListModels() map[string]types.ModelConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]types.ModelConfig, len(c.Models))
	for k, v := range c.Models {
		out[k] = v
	}
	return out
}

// GetQuery returns a copy of the named query, if present.
func (c *Config) GetQuery(name string) (types.QueryConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.Queries[name]
	return q, ok
}

// HasQuery reports whether name is a known query.
func (c *Config) HasQuery(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.Queries[name]
	return ok
}

// ListQueries returns a snapshot of every query.
func (c *Config) ListQueries() map[string]types.QueryConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]types.QueryConfig, len(c.Queries))
	for k, v := range c.Queries {
		out[k] = v
	}
	return out
}

// GetDashboard returns a copy of the named dashboard, if present.
func (c *Config) GetDashboard(name string) (types.DashboardConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.Dashboards[name]
	return d, ok
}

// HasDashboard reports whether name is a known dashboard.
func (c *Config) HasDashboard(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.Dashboards[name]
	return ok
}

// ListDashboards returns a snapshot of every dashboard.
func (c *Config) ListDashboards() map[string]types.DashboardConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]types.DashboardConfig, len(c.Dashboards))
	for k, v := range c.Dashboards {
		out[k] = v
	}
	return out
}

// GetConnection returns a copy of the named connection, if present.
func (c *Config) GetConnection(name string) (types.ConnectionConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.Project.Connections[name]
	return conn, ok
}

// HasConnection reports whether name is a known connection.
func (c *Config) HasConnection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.Project.Connections[name]
	return ok
}

// ListConnections returns a snapshot of every connection.
func (c *Config) ListConnections() map[string]types.ConnectionConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]types.ConnectionConfig, len(c.Project.Connections))
	for k, v := range c.Project.Connections {
		out[k] = v
	}
	return out
}
