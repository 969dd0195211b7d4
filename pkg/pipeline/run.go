// Package pipeline implements lakebox's scheduler: a worker pool that
// materializes a task-set in dependency order, persisting crash-safe
// status to disk on every transition and cascading a task's failure to
// its transitive downstream within the run.
package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
)

const (
	pipelinesDir  = ".data/pipelines"
	timestampForm = "2006-01-02-15-04-05"
)

// Run is one scheduled materialization over a fixed snapshot of tasks.
// Its dependency edges are captured once at construction; edits to the
// graph after a run starts do not affect it.
type Run struct {
	mu   sync.Mutex
	path string
	deps map[string][]string

	types.Run
}

// newRun builds a waiting-phase run over names, with deps captured from
// the caller's graph snapshot (nil entries are treated as dependency-free).
func newRun(projectDir string, names []string, deps map[string][]string) *Run {
	tasks := make(map[string]*types.TaskStatus, len(names))
	for _, n := range names {
		tasks[n] = &types.TaskStatus{Phase: types.PhaseWaiting}
	}

	return &Run{
		path: runPath(projectDir, time.Now().UTC()),
		deps: deps,
		Run: types.Run{
			Phase: types.PhaseWaiting,
			Tasks: tasks,
		},
	}
}

func runPath(projectDir string, at time.Time) string {
	return filepath.Join(projectDir, pipelinesDir, at.Format(timestampForm)+".json")
}

// start transitions the run into the running phase and persists it.
func (r *Run) start() error {
	r.mu.Lock()
	now := time.Now().UTC()
	r.Phase = types.PhaseRunning
	r.StartedAt = &now
	r.mu.Unlock()
	return r.Save()
}

// finish marks any task still waiting as failed with "unsatisfiable
// dependencies" (the never-ready resolution), then completes the run.
func (r *Run) finish() error {
	r.mu.Lock()
	now := time.Now().UTC()
	for _, t := range r.Tasks {
		if t.Phase == types.PhaseWaiting {
			t.Phase = types.PhaseFailed
			t.Error = &types.TaskError{Message: "unsatisfiable dependencies", At: now}
		}
	}
	r.Phase = types.PhaseCompleted
	r.CompletedAt = &now
	r.mu.Unlock()
	return r.Save()
}

// Save writes the run's current state to its fixed path, pretty-printed.
func (r *Run) Save() error {
	r.mu.Lock()
	data, err := json.MarshalIndent(r, "", "  ")
	path := r.path
	r.mu.Unlock()
	if err != nil {
		return errs.Wrap(errs.IoFailure, "marshal pipeline run", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.IoFailure, "ensure pipelines directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.IoFailure, "write "+path, err)
	}
	return nil
}

// depsCompletedLocked reports whether every dependency of name that is
// part of this run's task-set has reached the completed phase. A
// dependency outside the task-set (absent from r.Tasks) is never
// satisfied, which is precisely how a task becomes permanently
// unready — resolved by finish().
func (r *Run) depsCompletedLocked(name string) bool {
	for _, dep := range r.deps[name] {
		status, ok := r.Tasks[dep]
		if !ok || status.Phase != types.PhaseCompleted {
			return false
		}
	}
	return true
}

// popReadyTask atomically finds a waiting task whose dependencies are
// all satisfied and transitions it to running, or reports whether any
// task is still running (so the caller knows whether to keep polling
// or give up). This is the run's half of the "pick next ready task"
// critical section; the graph's dependency snapshot was already taken
// at run construction, so only r.mu needs to be held here.
func (r *Run) popReadyTask() (name string, found bool, stillRunning bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.Tasks {
		if t.Phase == types.PhaseRunning {
			stillRunning = true
		}
	}
	for n, t := range r.Tasks {
		if t.Phase == types.PhaseWaiting && r.depsCompletedLocked(n) {
			now := time.Now().UTC()
			t.Phase = types.PhaseRunning
			t.StartedAt = &now
			return n, true, stillRunning
		}
	}
	return "", false, stillRunning
}

// completeTask marks name completed.
func (r *Run) completeTask(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	r.Tasks[name].Phase = types.PhaseCompleted
	r.Tasks[name].CompletedAt = &now
}

// failTask marks name failed with message, recording the failure time.
func (r *Run) failTask(name, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	r.Tasks[name].Phase = types.PhaseFailed
	r.Tasks[name].CompletedAt = &now
	r.Tasks[name].Error = &types.TaskError{Message: message, At: now}
}

// cascadeFailed marks every name in candidates that is still waiting in
// this run as failed with "Upstream task failed", pre-empting workers
// that have not yet picked them up, and returns the names actually
// transitioned.
func (r *Run) cascadeFailed(candidates []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var marked []string
	for _, n := range candidates {
		t, ok := r.Tasks[n]
		if !ok || t.Phase != types.PhaseWaiting {
			continue
		}
		t.Phase = types.PhaseFailed
		t.CompletedAt = &now
		t.Error = &types.TaskError{Message: "Upstream task failed", At: now}
		marked = append(marked, n)
	}
	return marked
}

// LoadLatest returns the most recent run persisted under projectDir, or
// nil if none exists.
func LoadLatest(projectDir string) (*types.Run, error) {
	names, err := sortedRunFiles(projectDir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	return readRunFile(filepath.Join(projectDir, pipelinesDir, names[0]))
}

// LoadAll returns every persisted run under projectDir, newest first.
func LoadAll(projectDir string) ([]*types.Run, error) {
	names, err := sortedRunFiles(projectDir)
	if err != nil {
		return nil, err
	}
	runs := make([]*types.Run, 0, len(names))
	for _, name := range names {
		run, err := readRunFile(filepath.Join(projectDir, pipelinesDir, name))
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// sortedRunFiles lists .data/pipelines/*.json filenames, descending by
// their timestamp (the zero-padded format sorts lexicographically the
// same as chronologically).
func sortedRunFiles(projectDir string) ([]string, error) {
	dir := filepath.Join(projectDir, pipelinesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.IoFailure, "list pipeline runs", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if _, err := time.Parse(timestampForm, strings.TrimSuffix(e.Name(), ".json")); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func readRunFile(path string) (*types.Run, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.IoFailure, "read "+path, err)
	}
	var run types.Run
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, errs.Wrap(errs.BadRequest, "parse "+path, err)
	}
	return &run, nil
}
