package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/cuemby/lakebox/pkg/config"
	"github.com/cuemby/lakebox/pkg/graph"
	"github.com/cuemby/lakebox/pkg/log"
	"github.com/cuemby/lakebox/pkg/metrics"
	"github.com/cuemby/lakebox/pkg/types"
)

// pollInterval is how often an idle worker rechecks for newly-ready
// tasks while at least one sibling is still running.
const pollInterval = 5 * time.Millisecond

// Scheduler runs pipeline tasks over a worker pool sized to the host's
// CPU count, matching the teacher's own sizing of its reconcile loops.
type Scheduler struct {
	projectDir string
	graph      *graph.Graph
	executor   TaskExecutor

	// TaskDelay artificially pads every task's execution, a debug knob
	// for demoing the scheduler's concurrency; zero by default.
	TaskDelay time.Duration
}

// NewScheduler binds a Scheduler to the project's graph and a task
// executor (normally an *Executor wired to the project's config and lake).
func NewScheduler(projectDir string, g *graph.Graph, executor TaskExecutor) *Scheduler {
	return &Scheduler{projectDir: projectDir, graph: g, executor: executor}
}

// RunAll schedules every adapter and model known to cfg.
func (s *Scheduler) RunAll(ctx context.Context, cfg *config.Config) (*types.Run, error) {
	return s.run(ctx, cfg.AllNodeNames())
}

// RunNode schedules target and its full transitive upstream, so a
// single-node run still materializes everything it reads from.
func (s *Scheduler) RunNode(ctx context.Context, target string) (*types.Run, error) {
	upstream := s.graph.Upstream(target)
	seen := make(map[string]bool, len(upstream)+1)
	names := make([]string, 0, len(upstream)+1)
	for _, n := range append(upstream, target) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return s.run(ctx, names)
}

func (s *Scheduler) run(ctx context.Context, names []string) (*types.Run, error) {
	deps := make(map[string][]string, len(names))
	for _, n := range names {
		if node := s.graph.GetNode(n); node != nil {
			deps[n] = append([]string(nil), node.Dependencies...)
		}
	}

	r := newRun(s.projectDir, names, deps)
	if err := r.start(); err != nil {
		return nil, err
	}

	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()

	workers := runtime.NumCPU()
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			s.worker(ctx, r)
		}()
	}
	wg.Wait()

	if err := r.finish(); err != nil {
		return nil, err
	}
	return &r.Run, nil
}

// worker repeatedly claims and executes the next ready task until no
// task is ready and none of its siblings is still running.
func (s *Scheduler) worker(ctx context.Context, r *Run) {
	for {
		name, found, stillRunning := r.popReadyTask()
		if !found {
			if !stillRunning {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}
		s.execute(ctx, r, name)
	}
}

func (s *Scheduler) execute(ctx context.Context, r *Run, name string) {
	logger := log.WithTask(name)
	err := s.executor.Run(ctx, name)
	if s.TaskDelay > 0 {
		time.Sleep(s.TaskDelay)
	}

	if err != nil {
		logger.Error().Err(err).Msg("task failed")
		r.failTask(name, err.Error())
		metrics.TasksFailed.WithLabelValues("execution").Inc()

		marked := r.cascadeFailed(s.graph.Downstream(name))
		for range marked {
			metrics.TasksFailed.WithLabelValues("upstream_cascade").Inc()
		}
	} else {
		logger.Info().Msg("task completed")
		r.completeTask(name)
		s.graph.Update(name)
		if err := s.graph.Save(); err != nil {
			logger.Error().Err(err).Msg("persist graph after task completion")
		}
		metrics.TasksCompleted.Inc()
	}

	if err := r.Save(); err != nil {
		logger.Error().Err(err).Msg("persist pipeline run")
	}
}
