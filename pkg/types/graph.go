package types

import "time"

// Node is a single adapter or model in the dependency graph. UpdatedAt
// is nil when the node is stale (has not been materialized since its
// last invalidation) — see spec.md §3 Invariants.
type Node struct {
	Name         string     `json:"name"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	Dependencies []string   `json:"dependencies"`
}

// Stale reports whether this node has not been rebuilt since invalidation.
func (n *Node) Stale() bool {
	return n.UpdatedAt == nil
}
