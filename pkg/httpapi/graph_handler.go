package httpapi

import "net/http"

// graphView is the whole dependency graph, keyed by node name, suited
// for a client to render as a DAG without walking Upstream/Downstream
// one node at a time.
type graphView struct {
	Nodes map[string]graphNodeView `json:"nodes"`
}

type graphNodeView struct {
	Dependencies []string `json:"dependencies"`
	Stale        bool     `json:"stale"`
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	names := s.graph.NodeNames()
	nodes := make(map[string]graphNodeView, len(names))
	for _, name := range names {
		n := s.graph.GetNode(name)
		if n == nil {
			continue
		}
		nodes[name] = graphNodeView{Dependencies: n.Dependencies, Stale: n.Stale()}
	}
	writeJSON(w, http.StatusOK, graphView{Nodes: nodes})
}
