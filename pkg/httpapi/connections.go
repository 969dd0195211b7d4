package httpapi

import (
	"context"
	"net/http"
	"os"
	"sort"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

// connectionSummary is the list-view projection of a connection: its
// kind but never its decrypted secret values.
type connectionSummary struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) listConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.cfg.ListConnections()
	out := make([]connectionSummary, 0, len(conns))
	for name, c := range conns {
		out = append(out, connectionSummary{Name: name, Kind: c.Kind()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getConnection(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	conn, ok := s.cfg.GetConnection(name)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "connection '"+name+"' not found"))
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

type createConnectionRequest struct {
	Name string `json:"name"`
	types.ConnectionConfig
}

func (s *Server) createConnection(w http.ResponseWriter, r *http.Request) {
	var req createConnectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if s.cfg.HasConnection(req.Name) {
		writeError(w, errs.New(errs.Conflict, "connection '"+req.Name+"' already exists"))
		return
	}

	handle, err := s.cfg.UpsertConnection(req.Name, req.ConnectionConfig)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req.ConnectionConfig)
}

func (s *Server) updateConnection(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasConnection(name) {
		writeError(w, errs.New(errs.NotFound, "connection '"+name+"' not found"))
		return
	}

	var conn types.ConnectionConfig
	if !decodeJSON(w, r, &conn) {
		return
	}

	handle, err := s.cfg.UpsertConnection(name, conn)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	if !s.cfg.HasConnection(name) {
		writeError(w, errs.New(errs.NotFound, "connection '"+name+"' not found"))
		return
	}
	handle, err := s.cfg.DeleteConnection(name)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := handle.Save(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// testConnectionRequest carries an ad-hoc connection body to validate,
// never a name — a connection need not be declared to be tested.
type testConnectionRequest struct {
	types.ConnectionConfig
}

func (s *Server) testConnection(w http.ResponseWriter, r *http.Request) {
	var req testConnectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	var err error
	switch {
	case req.Sqlite != nil:
		err = testSqliteConnection(req.Sqlite.Path)
	case req.LocalFile != nil:
		err = testLocalFileConnection(req.LocalFile.BasePath)
	case req.MySql != nil:
		err = testMySQLConnection(ctx, req.MySql)
	case req.PostgreSql != nil:
		err = testPostgreSQLConnection(ctx, req.PostgreSql)
	case req.S3 != nil:
		err = testS3Connection(req.S3)
	default:
		err = errs.New(errs.BadRequest, "connection has no recognized variant set")
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func testSqliteConnection(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "sqlite path "+path+" is not reachable", err)
	}
	return nil
}

func testLocalFileConnection(basePath string) error {
	info, err := os.Stat(basePath)
	if err != nil {
		return errs.Wrap(errs.ConnectionFailed, "local path "+basePath+" does not exist", err)
	}
	if info.IsDir() {
		if _, err := os.ReadDir(basePath); err != nil {
			return errs.Wrap(errs.ConnectionFailed, "cannot list "+basePath, err)
		}
		return nil
	}
	f, err := os.Open(basePath)
	if err != nil {
		return errs.Wrap(errs.ConnectionFailed, "cannot open "+basePath, err)
	}
	return f.Close()
}

func testMySQLConnection(ctx context.Context, c *types.MySqlConnection) error {
	return lake.PingMySQL(ctx, c)
}

func testPostgreSQLConnection(ctx context.Context, c *types.PostgreSqlConnection) error {
	return lake.PingPostgreSQL(ctx, c)
}

// testS3Connection only validates that the connection declares a bucket
// and an auth method the engine understands; it does not contact the
// bucket. Reads from the bucket go through the lake's s3_secret wiring
// (pkg/lake/s3.go), which testAdapterSchema and getAdapterSchema use.
func testS3Connection(c *types.S3Connection) error {
	if c.Bucket == "" {
		return errs.New(errs.BadRequest, "s3 connection has no bucket set")
	}
	switch c.AuthMethod {
	case types.S3AuthExplicit, types.S3AuthCredentialChain:
		return nil
	default:
		return errs.New(errs.BadRequest, "unknown s3 auth method: "+string(c.AuthMethod))
	}
}
