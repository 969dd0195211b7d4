package httpapi

import (
	"net/http"
	"sort"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/graph"
	"github.com/cuemby/lakebox/pkg/types"
)

type modelSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	models := s.cfg.ListModels()
	out := make([]modelSummary, 0, len(models))
	for name, m := range models {
		out = append(out, modelSummary{Name: name, Description: m.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	m, ok := s.cfg.GetModel(name)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "model '"+name+"' not found"))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type createModelRequest struct {
	Name string `json:"name"`
	types.ModelConfig
}

// createModel derives the model's graph edges from its SQL, parsing the
// FROM clause to learn which adapters and models it reads.
func (s *Server) createModel(w http.ResponseWriter, r *http.Request) {
	var req createModelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if s.cfg.HasModel(req.Name) {
		writeError(w, errs.New(errs.Conflict, "model '"+req.Name+"' already exists"))
		return
	}

	deps, err := graph.DependentTables(req.Sql)
	if err != nil {
		writeError(w, errs.Wrap(errs.BadRequest, "failed to parse sql", err))
		return
	}

	if err := s.graph.CreateNode(req.Name, deps); err != nil {
		writeError(w, err)
		return
	}
	if err := s.graph.Save(); err != nil {
		writeError(w, err)
		return
	}

	handle, err := s.cfg.UpsertModel(req.Name, req.ModelConfig)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, req.ModelConfig)
}

func (s *Server) updateModel(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasModel(name) {
		writeError(w, errs.New(errs.NotFound, "model '"+name+"' not found"))
		return
	}

	var cfg types.ModelConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}

	deps, err := graph.DependentTables(cfg.Sql)
	if err != nil {
		writeError(w, errs.Wrap(errs.BadRequest, "failed to parse sql", err))
		return
	}
	if err := s.graph.UpdateDependencies(name, deps); err != nil {
		writeError(w, err)
		return
	}
	s.graph.UpdateNode(name)
	if err := s.graph.Save(); err != nil {
		writeError(w, err)
		return
	}

	handle, err := s.cfg.UpsertModel(name, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) deleteModel(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasModel(name) {
		writeError(w, errs.New(errs.NotFound, "model '"+name+"' not found"))
		return
	}

	s.graph.DeleteNode(name)
	if err := s.graph.Save(); err != nil {
		writeError(w, err)
		return
	}

	handle := s.cfg.DeleteModel(name)
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
