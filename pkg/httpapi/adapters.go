package httpapi

import (
	"net/http"
	"sort"

	"github.com/cuemby/lakebox/pkg/adapter/database"
	"github.com/cuemby/lakebox/pkg/adapter/file"
	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
)

// adapterSummary is the list-view projection of an adapter: enough to
// render a table of adapters without shipping every column spec.
type adapterSummary struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	ConnectionName string `json:"connection_name"`
}

func (s *Server) listAdapters(w http.ResponseWriter, r *http.Request) {
	adapters := s.cfg.ListAdapters()
	summaries := make([]adapterSummary, 0, len(adapters))
	for name, a := range adapters {
		summaries = append(summaries, adapterSummary{Name: name, Description: a.Description, ConnectionName: a.ConnectionName})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) getAdapter(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	a, ok := s.cfg.GetAdapter(name)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "adapter '"+name+"' not found"))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// createAdapterRequest pairs the adapter's name with its config, since
// AdapterConfig itself carries no name field.
type createAdapterRequest struct {
	Name string `json:"name"`
	types.AdapterConfig
}

func (s *Server) createAdapter(w http.ResponseWriter, r *http.Request) {
	var req createAdapterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if s.cfg.HasAdapter(req.Name) {
		writeError(w, errs.New(errs.Conflict, "adapter '"+req.Name+"' already exists"))
		return
	}

	if err := s.graph.CreateNode(req.Name, nil); err != nil {
		writeError(w, err)
		return
	}
	if err := s.graph.Save(); err != nil {
		writeError(w, err)
		return
	}

	handle, err := s.cfg.UpsertAdapter(req.Name, req.AdapterConfig)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, req.AdapterConfig)
}

func (s *Server) updateAdapter(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasAdapter(name) {
		writeError(w, errs.New(errs.NotFound, "adapter '"+name+"' not found"))
		return
	}

	var cfg types.AdapterConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}

	s.graph.UpdateNode(name)
	if err := s.graph.Save(); err != nil {
		writeError(w, err)
		return
	}

	handle, err := s.cfg.UpsertAdapter(name, cfg)
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

func (s *Server) deleteAdapter(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasAdapter(name) {
		writeError(w, errs.New(errs.NotFound, "adapter '"+name+"' not found"))
		return
	}

	s.graph.DeleteNode(name)
	if err := s.graph.Save(); err != nil {
		writeError(w, err)
		return
	}

	handle := s.cfg.DeleteAdapter(name)
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// schemaRequest names the declared connection and source to probe;
// test-schema also carries the expected columns to validate against.
type schemaRequest struct {
	ConnectionName string              `json:"connection_name"`
	Source         types.AdapterSource `json:"source"`
	Columns        []types.ColumnSpec  `json:"columns,omitempty"`
}

type schemaResponse struct {
	Columns []database.ColumnInfo `json:"columns"`
}

// resolveSchemaAdapter builds the throwaway file or database adapter a
// schema probe needs, without ever registering it as a real adapter.
func (s *Server) resolveSchemaAdapter(req schemaRequest) (file.Adapter, database.Adapter, error) {
	conn, ok := s.cfg.GetConnection(req.ConnectionName)
	if !ok {
		return nil, nil, errs.New(errs.BadRequest, "connection '"+req.ConnectionName+"' not found")
	}

	switch {
	case req.Source.File != nil:
		a, err := file.New(s.lake, types.AdapterConfig{ConnectionName: req.ConnectionName, Source: req.Source, Columns: req.Columns}, conn)
		return a, nil, err
	case req.Source.Database != nil:
		a, err := database.New(s.lake, conn)
		return nil, a, err
	default:
		return nil, nil, errs.New(errs.BadRequest, "source has neither file nor database set")
	}
}

func (s *Server) testAdapterSchema(w http.ResponseWriter, r *http.Request) {
	var req schemaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fa, da, err := s.resolveSchemaAdapter(req)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	switch {
	case fa != nil:
		err = fa.ValidateSchema(ctx, req.Source.File.File.Path, req.Columns)
	case da != nil:
		if err = da.Attach(ctx); err == nil {
			defer da.Detach(ctx)
			err = da.ValidateSchema(ctx, req.Source.Database.TableName, req.Columns)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) getAdapterSchema(w http.ResponseWriter, r *http.Request) {
	var req schemaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fa, da, err := s.resolveSchemaAdapter(req)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	var columns []database.ColumnInfo
	switch {
	case fa != nil:
		columns, err = fa.GetFileSchema(ctx, req.Source.File.File.Path)
	case da != nil:
		if err = da.Attach(ctx); err == nil {
			defer da.Detach(ctx)
			columns, err = da.GetTableSchema(ctx, req.Source.Database.TableName)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{Columns: columns})
}
