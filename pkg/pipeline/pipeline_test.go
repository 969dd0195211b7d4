package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/lakebox/pkg/graph"
	"github.com/cuemby/lakebox/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor fails the names in failOn, succeeds on everything else,
// and records every name it was asked to run.
type mockExecutor struct {
	mu     sync.Mutex
	failOn map[string]bool
	ran    []string
}

func (m *mockExecutor) Run(ctx context.Context, name string) error {
	m.mu.Lock()
	m.ran = append(m.ran, name)
	fail := m.failOn[name]
	m.mu.Unlock()
	if fail {
		return errors.New("boom")
	}
	return nil
}

// abGraph builds the classic a->b->c / {b,e}->d fixture.
func abGraph(t *testing.T) (*graph.Graph, string) {
	t.Helper()
	dir := t.TempDir()
	g := graph.New(dir)
	require.NoError(t, g.CreateNode("a", nil))
	require.NoError(t, g.CreateNode("e", nil))
	require.NoError(t, g.CreateNode("b", []string{"a"}))
	require.NoError(t, g.CreateNode("c", []string{"b"}))
	require.NoError(t, g.CreateNode("d", []string{"b", "e"}))
	return g, dir
}

func TestRunAllSuccess(t *testing.T) {
	g, dir := abGraph(t)
	exec := &mockExecutor{failOn: map[string]bool{}}
	sched := NewScheduler(dir, g, exec)

	names := []string{"a", "b", "c", "d", "e"}
	run, err := sched.run(context.Background(), names)
	require.NoError(t, err)

	assert.Equal(t, types.PhaseCompleted, run.Phase)
	for _, n := range names {
		assert.Equal(t, types.PhaseCompleted, run.Tasks[n].Phase, n)
	}
}

// TestRunAllUpstreamCascade mirrors the S2 scenario: e fails, d cascades
// to failed with "Upstream task failed", a/b/c still complete.
func TestRunAllUpstreamCascade(t *testing.T) {
	g, dir := abGraph(t)
	exec := &mockExecutor{failOn: map[string]bool{"e": true}}
	sched := NewScheduler(dir, g, exec)

	run, err := sched.run(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	assert.Equal(t, types.PhaseCompleted, run.Phase)
	assert.Equal(t, types.PhaseCompleted, run.Tasks["a"].Phase)
	assert.Equal(t, types.PhaseCompleted, run.Tasks["b"].Phase)
	assert.Equal(t, types.PhaseCompleted, run.Tasks["c"].Phase)
	assert.Equal(t, types.PhaseFailed, run.Tasks["e"].Phase)
	assert.Equal(t, "boom", run.Tasks["e"].Error.Message)
	assert.Equal(t, types.PhaseFailed, run.Tasks["d"].Phase)
	assert.Equal(t, "Upstream task failed", run.Tasks["d"].Error.Message)
}

// TestRunNodeScopesToUpstream mirrors the S5 scenario: a single-node run
// for c only schedules a, b, c.
func TestRunNodeScopesToUpstream(t *testing.T) {
	g, dir := abGraph(t)
	exec := &mockExecutor{failOn: map[string]bool{}}
	sched := NewScheduler(dir, g, exec)

	run, err := sched.RunNode(context.Background(), "c")
	require.NoError(t, err)

	assert.Len(t, run.Tasks, 3)
	for _, n := range []string{"a", "b", "c"} {
		assert.Equal(t, types.PhaseCompleted, run.Tasks[n].Phase, n)
	}
	assert.NotContains(t, run.Tasks, "d")
	assert.NotContains(t, run.Tasks, "e")
}

// TestRunNeverReadyTaskFails exercises a task whose dependency was
// excluded from the task-set: it can never become ready, so the run
// resolves it as failed with "unsatisfiable dependencies" instead of
// completing with it stuck in waiting.
func TestRunNeverReadyTaskFails(t *testing.T) {
	g, dir := abGraph(t)
	exec := &mockExecutor{failOn: map[string]bool{}}
	sched := NewScheduler(dir, g, exec)

	// "d" depends on "b" and "e"; omit both from the task-set.
	run, err := sched.run(context.Background(), []string{"d"})
	require.NoError(t, err)

	assert.Equal(t, types.PhaseCompleted, run.Phase)
	assert.Equal(t, types.PhaseFailed, run.Tasks["d"].Phase)
	assert.Equal(t, "unsatisfiable dependencies", run.Tasks["d"].Error.Message)
}

// TestLoadLatestAndLoadAll writes two run files directly under distinct
// timestamps, sidestepping the 1-second filename resolution documented
// for real runs, and checks load ordering.
func TestLoadLatestAndLoadAll(t *testing.T) {
	dir := t.TempDir()

	older := newRun(dir, []string{"a"}, nil)
	older.path = runPath(dir, mustParseStamp(t, "2024-01-01-00-00-00"))
	require.NoError(t, older.start())

	newer := newRun(dir, []string{"a", "b"}, nil)
	newer.path = runPath(dir, mustParseStamp(t, "2024-01-02-00-00-00"))
	require.NoError(t, newer.start())

	latest, err := LoadLatest(dir)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Len(t, latest.Tasks, 2)

	all, err := LoadAll(dir)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Len(t, all[0].Tasks, 2)
	assert.Len(t, all[1].Tasks, 1)
}

func mustParseStamp(t *testing.T, stamp string) time.Time {
	t.Helper()
	at, err := time.Parse(timestampForm, stamp)
	require.NoError(t, err)
	return at
}

func TestLoadLatestNoRunsIsNil(t *testing.T) {
	dir := t.TempDir()
	run, err := LoadLatest(dir)
	require.NoError(t, err)
	assert.Nil(t, run)
}
