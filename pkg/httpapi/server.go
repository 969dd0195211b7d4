// Package httpapi implements lakebox's thin CRUD HTTP surface over the
// config store, graph, lake, and pipeline scheduler: adapters,
// connections, models, queries, dashboards, ad-hoc SQL, the dependency
// graph, and pipeline runs.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cuemby/lakebox/pkg/config"
	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/graph"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/log"
	"github.com/cuemby/lakebox/pkg/metrics"
	"github.com/cuemby/lakebox/pkg/pipeline"
)

// Server wires the config store, graph, lake, and pipeline scheduler
// into a chi router. It holds the project's single pooled lake handle;
// handlers share it rather than opening their own connections.
type Server struct {
	cfg    *config.Config
	graph  *graph.Graph
	lake   *lake.Lake
	sched  *pipeline.Scheduler
	router chi.Router
}

// NewServer builds the router. sched may be nil in tests that do not
// exercise the pipeline endpoints.
func NewServer(cfg *config.Config, g *graph.Graph, l *lake.Lake, sched *pipeline.Scheduler) *Server {
	s := &Server{cfg: cfg, graph: g, lake: l, sched: sched}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP lets Server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/adapters", func(r chi.Router) {
			r.Get("/", s.listAdapters)
			r.Post("/", s.createAdapter)
			r.Post("/test-schema", s.testAdapterSchema)
			r.Post("/get-schema", s.getAdapterSchema)
			r.Get("/{name}", s.getAdapter)
			r.Put("/{name}", s.updateAdapter)
			r.Delete("/{name}", s.deleteAdapter)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", s.listConnections)
			r.Post("/", s.createConnection)
			r.Post("/test", s.testConnection)
			r.Get("/{name}", s.getConnection)
			r.Put("/{name}", s.updateConnection)
			r.Delete("/{name}", s.deleteConnection)
		})

		r.Route("/models", func(r chi.Router) {
			r.Get("/", s.listModels)
			r.Post("/", s.createModel)
			r.Get("/{name}", s.getModel)
			r.Put("/{name}", s.updateModel)
			r.Delete("/{name}", s.deleteModel)
		})

		r.Post("/query", s.runAdhocQuery)
		r.Route("/queries", func(r chi.Router) {
			r.Get("/", s.listQueries)
			r.Post("/", s.createQuery)
			r.Get("/{name}", s.getQuery)
			r.Put("/{name}", s.updateQuery)
			r.Delete("/{name}", s.deleteQuery)
			r.Post("/{name}/run", s.runQuery)
		})

		r.Route("/dashboards", func(r chi.Router) {
			r.Get("/", s.listDashboards)
			r.Post("/", s.createDashboard)
			r.Get("/{name}", s.getDashboard)
			r.Put("/{name}", s.updateDashboard)
			r.Delete("/{name}", s.deleteDashboard)
			r.Get("/{name}/data", s.getDashboardData)
		})

		r.Get("/graph", s.getGraph)

		r.Get("/pipelines", s.listPipelines)
		r.Get("/pipeline", s.getPipeline)
		r.Post("/pipeline/run", s.runPipeline)
		r.Post("/pipeline/run-node", s.runPipelineNode)
	})

	return r
}

// requestLogger logs each request at debug level with method, path,
// status, and duration, in the style of the teacher's zerolog
// middlewares rather than chi's default stdlib-backed logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithComponent("httpapi").Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// cors allows any origin, matching the original server's permissive CORS
// layer for its browser-based dashboard client.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorBody is the JSON envelope every error response carries.
type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if kind, ok := errs.Of(err); ok {
		switch kind {
		case errs.NotFound:
			status = http.StatusNotFound
		case errs.Conflict:
			status = http.StatusConflict
		case errs.BadRequest, errs.SchemaMismatch, errs.ConnectionFailed, errs.InsertWouldCycle:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, errorBody{Message: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errs.Wrap(errs.BadRequest, "decode request body", err))
		return false
	}
	return true
}

func pathName(r *http.Request) string {
	return chi.URLParam(r, "name")
}
