package httpapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
)

type dashboardSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	QueryName   string          `json:"query"`
	ChartType   types.ChartType `json:"chart_type"`
}

func (s *Server) listDashboards(w http.ResponseWriter, r *http.Request) {
	dashboards := s.cfg.ListDashboards()
	out := make([]dashboardSummary, 0, len(dashboards))
	for name, d := range dashboards {
		out = append(out, dashboardSummary{Name: name, Description: d.Description, QueryName: d.QueryName, ChartType: d.Chart.Type})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	d, ok := s.cfg.GetDashboard(name)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "dashboard '"+name+"' not found"))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type createDashboardRequest struct {
	Name string `json:"name"`
	types.DashboardConfig
}

func (s *Server) createDashboard(w http.ResponseWriter, r *http.Request) {
	var req createDashboardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if s.cfg.HasDashboard(req.Name) {
		writeError(w, errs.New(errs.Conflict, "dashboard '"+req.Name+"' already exists"))
		return
	}

	handle, err := s.cfg.UpsertDashboard(req.Name, req.DashboardConfig)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req.DashboardConfig)
}

func (s *Server) updateDashboard(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasDashboard(name) {
		writeError(w, errs.New(errs.NotFound, "dashboard '"+name+"' not found"))
		return
	}

	var cfg types.DashboardConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}

	handle, err := s.cfg.UpsertDashboard(name, cfg)
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

func (s *Server) deleteDashboard(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasDashboard(name) {
		writeError(w, errs.New(errs.NotFound, "dashboard '"+name+"' not found"))
		return
	}
	handle := s.cfg.DeleteDashboard(name)
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dashboardPoint is one plotted point: a label from the x column, and
// either a JSON number or a JSON string for the y column, depending on
// whether the cell parses as a float. This mirrors the original
// implementation's "numbers render as numbers, everything else falls
// back to its string form" rule verbatim rather than forcing every
// series through strconv and failing on non-numeric y columns.
type dashboardPoint struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

type dashboardDataResponse struct {
	Points []dashboardPoint `json:"points"`
}

func (s *Server) getDashboardData(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	dash, ok := s.cfg.GetDashboard(name)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "dashboard '"+name+"' not found"))
		return
	}

	query, ok := s.cfg.GetQuery(dash.QueryName)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "dashboard '"+name+"' references unknown query '"+dash.QueryName+"'"))
		return
	}

	data, err := s.lake.QueryWithColumnNames(r.Context(), query.Sql)
	if err != nil {
		writeError(w, errs.Wrap(errs.BadRequest, "execute dashboard query", err))
		return
	}

	labels, ok := data[dash.Chart.XColumn]
	if !ok {
		writeError(w, errs.New(errs.BadRequest, "x column '"+dash.Chart.XColumn+"' not found in query result"))
		return
	}
	values, ok := data[dash.Chart.YColumn]
	if !ok {
		writeError(w, errs.New(errs.BadRequest, "y column '"+dash.Chart.YColumn+"' not found in query result"))
		return
	}

	points := make([]dashboardPoint, len(labels))
	for i, label := range labels {
		var value any = values[i]
		if num, err := strconv.ParseFloat(values[i], 64); err == nil {
			value = num
		}
		points[i] = dashboardPoint{Label: label, Value: value}
	}

	writeJSON(w, http.StatusOK, dashboardDataResponse{Points: points})
}
