// Package graph implements lakebox's dependency DAG: which adapters and
// models feed which, and whether a node's last materialization is still
// fresh. It mirrors the teacher's reconciler state machine in spirit —
// a small in-memory graph, mutated under a lock, periodically flushed to
// disk — but the domain here is data freshness, not pod scheduling.
package graph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/metrics"
	"github.com/cuemby/lakebox/pkg/types"
)

const metadataFile = ".data/metadata.json"

// Graph is the in-memory dependency graph for one project. The zero
// value is not usable; construct via New or Load.
type Graph struct {
	mu         sync.RWMutex
	projectDir string
	nodes      map[string]*types.Node
}

// diskFormat is the exact shape persisted to metadata.json.
type diskFormat struct {
	Nodes map[string]*types.Node `json:"nodes"`
}

// New returns an empty graph rooted at projectDir.
func New(projectDir string) *Graph {
	return &Graph{projectDir: projectDir, nodes: map[string]*types.Node{}}
}

// Load reads .data/metadata.json if present; a missing file is not an
// error and yields an empty graph, matching the original's "new project
// has no graph yet" case.
func Load(projectDir string) (*Graph, error) {
	path := metadataPath(projectDir)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(projectDir), nil
		}
		return nil, errs.Wrap(errs.IoFailure, "read metadata.json", err)
	}

	var disk diskFormat
	if err := json.Unmarshal(raw, &disk); err != nil {
		return nil, errs.Wrap(errs.BadRequest, "parse metadata.json", err)
	}
	if disk.Nodes == nil {
		disk.Nodes = map[string]*types.Node{}
	}
	return &Graph{projectDir: projectDir, nodes: disk.Nodes}, nil
}

func metadataPath(projectDir string) string {
	return filepath.Join(projectDir, metadataFile)
}

// Save atomically writes the full graph to .data/metadata.json, then
// publishes the number of stale nodes to the metrics gauge.
func (g *Graph) Save() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	path := metadataPath(g.projectDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.IoFailure, "ensure .data directory", err)
	}

	data, err := json.MarshalIndent(diskFormat{Nodes: g.nodes}, "", "  ")
	if err != nil {
		return errs.Wrap(errs.IoFailure, "marshal metadata.json", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.IoFailure, "write metadata.json", err)
	}

	stale := 0
	for _, node := range g.nodes {
		if node.Stale() {
			stale++
		}
	}
	metrics.NodesStale.Set(float64(stale))
	return nil
}

// HasNode reports whether name is present in the graph.
func (g *Graph) HasNode(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[name]
	return ok
}

// GetNode returns the node for name, or nil if absent.
func (g *Graph) GetNode(name string) *types.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[name]
}

// CreateNode inserts (or overwrites) a node with the given dependency
// set, stale by construction. It rejects a dependency set that would
// introduce a cycle — the spec's recommended InsertWouldCycle guard,
// absent from the original implementation.
func (g *Graph) CreateNode(name string, deps []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.wouldCycleLocked(name, deps); err != nil {
		return err
	}
	g.nodes[name] = &types.Node{Name: name, Dependencies: append([]string(nil), deps...)}
	return nil
}

// UpdateDependencies replaces the edge set of an existing node.
// No-op if the node does not exist.
func (g *Graph) UpdateDependencies(name string, deps []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[name]
	if !ok {
		return nil
	}
	if err := g.wouldCycleLocked(name, deps); err != nil {
		return err
	}
	node.Dependencies = append([]string(nil), deps...)
	return nil
}

// wouldCycleLocked reports whether adding the edges name -> deps would
// make name reachable from itself. Caller must hold g.mu.
func (g *Graph) wouldCycleLocked(name string, deps []string) error {
	for _, dep := range deps {
		if dep == name || g.reachableLocked(dep, name) {
			return errs.New(errs.InsertWouldCycle, "dependency "+dep+" would create a cycle through "+name)
		}
	}
	return nil
}

// reachableLocked reports whether target is reachable upstream from
// start (i.e. start transitively depends on target).
func (g *Graph) reachableLocked(start, target string) bool {
	visited := map[string]bool{}
	var walk func(string) bool
	walk = func(n string) bool {
		node, ok := g.nodes[n]
		if !ok {
			return false
		}
		for _, dep := range node.Dependencies {
			if dep == target {
				return true
			}
			if !visited[dep] {
				visited[dep] = true
				if walk(dep) {
					return true
				}
			}
		}
		return false
	}
	return walk(start)
}

// UpdateNode is the invalidation primitive: it clears the freshness
// timestamp on name and every transitive downstream node. Unrelated
// nodes are untouched.
func (g *Graph) UpdateNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.resetUpdatedAtLocked(name)
	for _, n := range g.allDownstreamLocked(name, map[string]bool{}) {
		g.resetUpdatedAtLocked(n)
	}
}

func (g *Graph) resetUpdatedAtLocked(name string) {
	if node, ok := g.nodes[name]; ok {
		node.UpdatedAt = nil
	}
}

// Update is the freshness primitive: it stamps name as materialized now.
func (g *Graph) Update(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if node, ok := g.nodes[name]; ok {
		now := time.Now().UTC()
		node.UpdatedAt = &now
	}
}

// DeleteNode removes name from the graph. Downstream nodes keep the now
// dangling dependency, matching the original's behavior.
func (g *Graph) DeleteNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, name)
}

// Upstream returns the transitive parents of name in depth-first
// discovery order, each reported once.
func (g *Graph) Upstream(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.allUpstreamLocked(name, map[string]bool{})
}

func (g *Graph) allUpstreamLocked(name string, visited map[string]bool) []string {
	node, ok := g.nodes[name]
	if !ok {
		return nil
	}
	var result []string
	for _, dep := range node.Dependencies {
		if !visited[dep] {
			visited[dep] = true
			result = append(result, dep)
			result = append(result, g.allUpstreamLocked(dep, visited)...)
		}
	}
	return result
}

// Downstream returns the transitive children of name, sorted for
// determinism.
func (g *Graph) Downstream(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	result := g.allDownstreamLocked(name, map[string]bool{})
	sort.Strings(result)
	return result
}

func (g *Graph) directDownstreamLocked(name string) []string {
	var out []string
	for _, node := range g.nodes {
		for _, dep := range node.Dependencies {
			if dep == name {
				out = append(out, node.Name)
				break
			}
		}
	}
	return out
}

func (g *Graph) allDownstreamLocked(name string, visited map[string]bool) []string {
	var result []string
	for _, child := range g.directDownstreamLocked(name) {
		if !visited[child] {
			visited[child] = true
			result = append(result, child)
			result = append(result, g.allDownstreamLocked(child, visited)...)
		}
	}
	return result
}

// NodeNames returns every node name currently in the graph, sorted.
func (g *Graph) NodeNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StaleCount returns how many nodes currently have no freshness
// timestamp (the same figure Save publishes to the metrics gauge).
func (g *Graph) StaleCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, node := range g.nodes {
		if node.Stale() {
			n++
		}
	}
	return n
}
