package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuemby/lakebox/pkg/config"
	"github.com/cuemby/lakebox/pkg/graph"
	"github.com/cuemby/lakebox/pkg/security"
	"github.com/cuemby/lakebox/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		ProjectDir: dir,
		Project:    types.ProjectConfig{Connections: map[string]types.ConnectionConfig{}},
		Adapters:   map[string]types.AdapterConfig{},
		Models:     map[string]types.ModelConfig{},
		Queries:    map[string]types.QueryConfig{},
		Dashboards: map[string]types.DashboardConfig{},
	}
	g := graph.New(dir)
	return NewServer(cfg, g, nil, nil), dir
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestAdapterCRUDLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	create := doJSON(t, s, http.MethodPost, "/api/adapters/", map[string]any{
		"name":            "orders",
		"connection_name": "main",
		"source": map[string]any{
			"file": map[string]any{
				"file":   map[string]any{"path": "orders.csv"},
				"format": map[string]any{"type": "csv"},
			},
		},
	})
	assert.Equal(t, http.StatusCreated, create.Code)

	dup := doJSON(t, s, http.MethodPost, "/api/adapters/", map[string]any{"name": "orders"})
	assert.Equal(t, http.StatusConflict, dup.Code)

	list := doJSON(t, s, http.MethodGet, "/api/adapters/", nil)
	assert.Equal(t, http.StatusOK, list.Code)
	var summaries []adapterSummary
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &summaries))
	assert.Len(t, summaries, 1)
	assert.Equal(t, "orders", summaries[0].Name)

	get := doJSON(t, s, http.MethodGet, "/api/adapters/orders", nil)
	assert.Equal(t, http.StatusOK, get.Code)

	missing := doJSON(t, s, http.MethodGet, "/api/adapters/missing", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	del := doJSON(t, s, http.MethodDelete, "/api/adapters/orders", nil)
	assert.Equal(t, http.StatusNoContent, del.Code)

	afterDelete := doJSON(t, s, http.MethodGet, "/api/adapters/orders", nil)
	assert.Equal(t, http.StatusNotFound, afterDelete.Code)
}

func TestModelCreateDerivesGraphDependencies(t *testing.T) {
	s, _ := newTestServer(t)
	require.NoError(t, s.graph.CreateNode("users", nil))

	create := doJSON(t, s, http.MethodPost, "/api/models/", map[string]any{
		"name": "active_users",
		"sql":  "SELECT * FROM users WHERE active = true",
	})
	assert.Equal(t, http.StatusCreated, create.Code)

	node := s.graph.GetNode("active_users")
	require.NotNil(t, node)
	assert.Equal(t, []string{"users"}, node.Dependencies)
}

func TestModelCreateBadSQLIsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/models/", map[string]any{
		"name": "broken",
		"sql":  "SELEC * FORM users",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectionCRUDAndTest(t *testing.T) {
	s, dir := newTestServer(t)

	create := doJSON(t, s, http.MethodPost, "/api/connections/", map[string]any{
		"name":      "local",
		"local_file": map[string]any{"base_path": dir},
	})
	assert.Equal(t, http.StatusCreated, create.Code)

	dup := doJSON(t, s, http.MethodPost, "/api/connections/", map[string]any{"name": "local"})
	assert.Equal(t, http.StatusConflict, dup.Code)

	test := doJSON(t, s, http.MethodPost, "/api/connections/test", map[string]any{
		"local_file": map[string]any{"base_path": dir},
	})
	assert.Equal(t, http.StatusOK, test.Code)

	testMissing := doJSON(t, s, http.MethodPost, "/api/connections/test", map[string]any{
		"local_file": map[string]any{"base_path": dir + "/does-not-exist"},
	})
	assert.Equal(t, http.StatusBadRequest, testMissing.Code)
}

func TestConnectionWithSecretStaysDecryptedInMemory(t *testing.T) {
	s, dir := newTestServer(t)
	require.NoError(t, security.GenerateKey(security.KeyPath(dir)))

	create := doJSON(t, s, http.MethodPost, "/api/connections/", map[string]any{
		"name": "warehouse",
		"mysql": map[string]any{
			"host": "db.internal",
			"port": 3306,
			"db":   "analytics",
			"user": "reader",
			"password": map[string]any{
				"type":  "plain",
				"value": "hunter2",
			},
		},
	})
	require.Equal(t, http.StatusCreated, create.Code)

	var createdConn types.ConnectionConfig
	require.NoError(t, json.Unmarshal(create.Body.Bytes(), &createdConn))
	require.NotNil(t, createdConn.MySql)
	assert.Equal(t, types.SecretPlain, createdConn.MySql.Password.Type)
	assert.Equal(t, "hunter2", createdConn.MySql.Password.Value)

	get := doJSON(t, s, http.MethodGet, "/api/connections/warehouse", nil)
	assert.Equal(t, http.StatusOK, get.Code)

	var gotConn types.ConnectionConfig
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &gotConn))
	require.NotNil(t, gotConn.MySql)
	assert.Equal(t, types.SecretPlain, gotConn.MySql.Password.Type)
	assert.Equal(t, "hunter2", gotConn.MySql.Password.Value)
}

func TestQueryCRUD(t *testing.T) {
	s, _ := newTestServer(t)

	create := doJSON(t, s, http.MethodPost, "/api/queries/", map[string]any{
		"name": "daily_totals",
		"sql":  "SELECT 1",
	})
	assert.Equal(t, http.StatusCreated, create.Code)

	get := doJSON(t, s, http.MethodGet, "/api/queries/daily_totals", nil)
	assert.Equal(t, http.StatusOK, get.Code)

	del := doJSON(t, s, http.MethodDelete, "/api/queries/daily_totals", nil)
	assert.Equal(t, http.StatusNoContent, del.Code)
}

func TestDashboardCRUD(t *testing.T) {
	s, _ := newTestServer(t)

	create := doJSON(t, s, http.MethodPost, "/api/dashboards/", map[string]any{
		"name":       "revenue",
		"query_name": "daily_totals",
		"chart":      map[string]any{"type": "line", "x_column": "day", "y_column": "total"},
	})
	assert.Equal(t, http.StatusCreated, create.Code)

	dup := doJSON(t, s, http.MethodPost, "/api/dashboards/", map[string]any{"name": "revenue"})
	assert.Equal(t, http.StatusConflict, dup.Code)

	update := doJSON(t, s, http.MethodPut, "/api/dashboards/revenue", map[string]any{
		"query_name": "daily_totals",
		"chart":      map[string]any{"type": "bar", "x_column": "day", "y_column": "total"},
	})
	assert.Equal(t, http.StatusOK, update.Code)
}

func TestDashboardDataMissingDashboardIs404(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/dashboards/missing/data", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardDataMissingQueryIs404(t *testing.T) {
	s, _ := newTestServer(t)
	create := doJSON(t, s, http.MethodPost, "/api/dashboards/", map[string]any{
		"name":       "revenue",
		"query_name": "nonexistent",
		"chart":      map[string]any{"type": "line", "x_column": "day", "y_column": "total"},
	})
	require.Equal(t, http.StatusCreated, create.Code)

	rec := doJSON(t, s, http.MethodGet, "/api/dashboards/revenue/data", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraphEndpointReflectsNodes(t *testing.T) {
	s, _ := newTestServer(t)
	require.NoError(t, s.graph.CreateNode("a", nil))
	require.NoError(t, s.graph.CreateNode("b", []string{"a"}))

	rec := doJSON(t, s, http.MethodGet, "/api/graph", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var view graphView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Nodes, 2)
	assert.True(t, view.Nodes["b"].Stale)
	assert.Equal(t, []string{"a"}, view.Nodes["b"].Dependencies)
}

func TestPipelineEndpointsWithoutScheduler(t *testing.T) {
	s, _ := newTestServer(t)

	run := doJSON(t, s, http.MethodPost, "/api/pipeline/run", nil)
	assert.Equal(t, http.StatusBadRequest, run.Code)

	latest := doJSON(t, s, http.MethodGet, "/api/pipeline", nil)
	assert.Equal(t, http.StatusOK, latest.Code)
	assert.Equal(t, "null\n", latest.Body.String())

	all := doJSON(t, s, http.MethodGet, "/api/pipelines", nil)
	assert.Equal(t, http.StatusOK, all.Code)
	assert.Equal(t, "[]\n", all.Body.String())
}
