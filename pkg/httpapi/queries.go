package httpapi

import (
	"net/http"
	"sort"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
)

// queryResult mirrors the column-oriented result shape the original
// server returns: every column as a same-length slice of stringified
// cells, alongside the dimensions that let a client size a grid without
// recomputing them.
type queryResult struct {
	Data        map[string][]string `json:"data"`
	RowCount    int                 `json:"row_count"`
	ColumnCount int                 `json:"column_count"`
}

func (s *Server) executeQuery(w http.ResponseWriter, r *http.Request, sql string) {
	data, err := s.lake.QueryWithColumnNames(r.Context(), sql)
	if err != nil {
		writeError(w, errs.Wrap(errs.BadRequest, "execute query", err))
		return
	}

	rowCount := 0
	for _, col := range data {
		rowCount = len(col)
		break
	}
	writeJSON(w, http.StatusOK, queryResult{Data: data, RowCount: rowCount, ColumnCount: len(data)})
}

type adhocQueryRequest struct {
	Sql string `json:"sql"`
}

func (s *Server) runAdhocQuery(w http.ResponseWriter, r *http.Request) {
	var req adhocQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.executeQuery(w, r, req.Sql)
}

type querySummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) listQueries(w http.ResponseWriter, r *http.Request) {
	queries := s.cfg.ListQueries()
	out := make([]querySummary, 0, len(queries))
	for name, q := range queries {
		out = append(out, querySummary{Name: name, Description: q.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getQuery(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	q, ok := s.cfg.GetQuery(name)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "query '"+name+"' not found"))
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type createQueryRequest struct {
	Name string `json:"name"`
	types.QueryConfig
}

func (s *Server) createQuery(w http.ResponseWriter, r *http.Request) {
	var req createQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if s.cfg.HasQuery(req.Name) {
		writeError(w, errs.New(errs.Conflict, "query '"+req.Name+"' already exists"))
		return
	}

	handle, err := s.cfg.UpsertQuery(req.Name, req.QueryConfig)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req.QueryConfig)
}

func (s *Server) updateQuery(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasQuery(name) {
		writeError(w, errs.New(errs.NotFound, "query '"+name+"' not found"))
		return
	}

	var cfg types.QueryConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}

	handle, err := s.cfg.UpsertQuery(name, cfg)
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

func (s *Server) deleteQuery(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasQuery(name) {
		writeError(w, errs.New(errs.NotFound, "query '"+name+"' not found"))
		return
	}
	handle := s.cfg.DeleteQuery(name)
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	q, ok := s.cfg.GetQuery(name)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "query '"+name+"' not found"))
		return
	}
	s.executeQuery(w, r, q.Sql)
}
