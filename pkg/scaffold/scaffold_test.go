package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/lakebox/pkg/config"
	"github.com/cuemby/lakebox/pkg/graph"
	"github.com/cuemby/lakebox/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmptyConfig(dir string) *config.Config {
	return &config.Config{
		ProjectDir: dir,
		Project:    types.ProjectConfig{Connections: map[string]types.ConnectionConfig{}},
		Adapters:   map[string]types.AdapterConfig{},
		Models:     map[string]types.ModelConfig{},
		Queries:    map[string]types.QueryConfig{},
		Dashboards: map[string]types.DashboardConfig{},
	}
}

func TestCreateSampleProjectWritesDataFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := newEmptyConfig(dir)
	g := graph.New(dir)

	require.NoError(t, CreateSampleProject(cfg, g))

	for _, name := range []string{"users.csv", "app_log_1.json", "app_log_2.json", "app_log_3.json", "app.db"} {
		path := filepath.Join(dir, "sample_data", name)
		info, err := os.Stat(path)
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestCreateSampleProjectWiresConnectionsAdaptersModels(t *testing.T) {
	dir := t.TempDir()
	cfg := newEmptyConfig(dir)
	g := graph.New(dir)

	require.NoError(t, CreateSampleProject(cfg, g))

	assert.True(t, cfg.HasConnection("local_files"))
	assert.True(t, cfg.HasConnection("sample_db"))

	for _, name := range []string{"users", "app_logs", "products", "orders"} {
		assert.True(t, cfg.HasAdapter(name), name)
	}
	for _, name := range []string{"staging_app_logs", "user_activity_summary", "product_performance"} {
		assert.True(t, cfg.HasModel(name), name)
	}
	for _, name := range []string{"top_products", "active_users", "revenue_trend", "category_distribution"} {
		assert.True(t, cfg.HasQuery(name), name)
	}
	for _, name := range []string{"revenue_trend", "category_distribution"} {
		assert.True(t, cfg.HasDashboard(name), name)
	}
}

func TestCreateSampleProjectGraphDerivesModelDependencies(t *testing.T) {
	dir := t.TempDir()
	cfg := newEmptyConfig(dir)
	g := graph.New(dir)

	require.NoError(t, CreateSampleProject(cfg, g))

	node := g.GetNode("user_activity_summary")
	require.NotNil(t, node)
	assert.ElementsMatch(t, []string{"users", "staging_app_logs"}, node.Dependencies)

	usersNode := g.GetNode("users")
	require.NotNil(t, usersNode)
	assert.Empty(t, usersNode.Dependencies)
}

func TestCreateSampleProjectPersistsFilesToDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := newEmptyConfig(dir)
	g := graph.New(dir)

	require.NoError(t, CreateSampleProject(cfg, g))

	assert.FileExists(t, filepath.Join(dir, "adapters", "users.yml"))
	assert.FileExists(t, filepath.Join(dir, "models", "product_performance.yml"))
	assert.FileExists(t, filepath.Join(dir, "queries", "top_products.yml"))
	assert.FileExists(t, filepath.Join(dir, "dashboards", "revenue_trend.yml"))
	assert.FileExists(t, filepath.Join(dir, ".data", "metadata.json"))
}
