package graph

import (
	"testing"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGraphLifecycle exercises create, save, load, traversal, invalidation
// and deletion end to end, mirroring the classic a->b->c / e->d fixture.
func TestGraphLifecycle(t *testing.T) {
	dir := t.TempDir()
	g := New(dir)

	require.NoError(t, g.CreateNode("a", nil))
	require.NoError(t, g.CreateNode("e", nil))
	require.NoError(t, g.CreateNode("b", []string{"a"}))
	require.NoError(t, g.CreateNode("c", []string{"b"}))
	require.NoError(t, g.CreateNode("d", []string{"b", "e"}))

	require.NoError(t, g.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		assert.True(t, loaded.HasNode(name), name)
	}

	assert.Equal(t, []string{"b", "c", "d"}, loaded.Downstream("a"))
	assert.Empty(t, loaded.Downstream("c"))
	assert.Equal(t, []string{"c", "d"}, loaded.Downstream("b"))
	assert.Empty(t, loaded.Downstream("d"))
	assert.Equal(t, []string{"d"}, loaded.Downstream("e"))

	assert.Empty(t, loaded.Upstream("a"))
	assert.Equal(t, []string{"a"}, loaded.Upstream("b"))
	assert.Equal(t, []string{"b", "a"}, loaded.Upstream("c"))
	assert.Equal(t, []string{"b", "a", "e"}, loaded.Upstream("d"))
	assert.Empty(t, loaded.Upstream("e"))

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		loaded.Update(name)
	}
	loaded.UpdateNode("a")

	assert.True(t, loaded.GetNode("a").Stale())
	assert.True(t, loaded.GetNode("b").Stale())
	assert.True(t, loaded.GetNode("c").Stale())
	assert.True(t, loaded.GetNode("d").Stale())
	assert.False(t, loaded.GetNode("e").Stale())

	loaded.DeleteNode("c")
	loaded.DeleteNode("d")
	require.NoError(t, loaded.Save())

	reloaded, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, reloaded.HasNode("a"))
	assert.True(t, reloaded.HasNode("b"))
	assert.False(t, reloaded.HasNode("c"))
	assert.False(t, reloaded.HasNode("d"))
	assert.True(t, reloaded.HasNode("e"))
}

func TestLoadMissingFileIsEmptyGraph(t *testing.T) {
	g, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, g.NodeNames())
}

func TestCreateNodeRejectsCycle(t *testing.T) {
	g := New(t.TempDir())
	require.NoError(t, g.CreateNode("a", nil))
	require.NoError(t, g.CreateNode("b", []string{"a"}))
	require.NoError(t, g.CreateNode("c", []string{"b"}))

	err := g.UpdateDependencies("a", []string{"c"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InsertWouldCycle))

	err = g.CreateNode("b", []string{"b"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InsertWouldCycle))
}

func TestUpdateNodeLeavesUnrelatedNodesAlone(t *testing.T) {
	g := New(t.TempDir())
	require.NoError(t, g.CreateNode("x", nil))
	require.NoError(t, g.CreateNode("y", nil))
	g.Update("x")
	g.Update("y")

	g.UpdateNode("x")

	assert.True(t, g.GetNode("x").Stale())
	assert.False(t, g.GetNode("y").Stale())
}

func TestDeleteNodeLeavesDanglingDependency(t *testing.T) {
	g := New(t.TempDir())
	require.NoError(t, g.CreateNode("a", nil))
	require.NoError(t, g.CreateNode("b", []string{"a"}))

	g.DeleteNode("a")

	assert.False(t, g.HasNode("a"))
	require.True(t, g.HasNode("b"))
	assert.Equal(t, []string{"a"}, g.GetNode("b").Dependencies)
}

func TestStaleCount(t *testing.T) {
	g := New(t.TempDir())
	require.NoError(t, g.CreateNode("a", nil))
	require.NoError(t, g.CreateNode("b", nil))
	g.Update("a")

	assert.Equal(t, 1, g.StaleCount())
}

func TestDependentTables(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []string
	}{
		{
			name:     "simple select",
			sql:      "SELECT * FROM users",
			expected: []string{"users"},
		},
		{
			name:     "non-select statement",
			sql:      "INSERT INTO users (id) VALUES (1)",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := DependentTables(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tables)
		})
	}
}

func TestDependentTablesJoin(t *testing.T) {
	tables, err := DependentTables("SELECT * FROM users JOIN orders ON users.id = orders.user_id")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users", "orders"}, tables)
}

func TestDependentTablesParseFailure(t *testing.T) {
	_, err := DependentTables("SELEC * FORM users")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.BadRequest))
}
