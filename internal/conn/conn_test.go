package conn_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/tobsdb/jqldb/internal/conn"
	"github.com/tobsdb/jqldb/internal/filelock"
	"github.com/tobsdb/jqldb/internal/query"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/internal/types"
	"gotest.tools/v3/assert"
)

type testServer struct {
	*httptest.Server
	metrics *Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := schema.NewStore(t.TempDir())
	assert.NilError(t, store.CreateServer("local"))
	db, err := store.CreateDatabase("local", "app")
	assert.NilError(t, err)
	_, err = store.CreateDatabase("local", "other")
	assert.NilError(t, err)
	assert.NilError(t, db.CreateTable("users", []schema.ColumnSpec{
		{Name: "name", Type: "string", PrimaryKey: true},
		{Name: "age", Type: "int", Default: func() *types.Value { v := types.Int(0); return &v }()},
	}))
	assert.NilError(t, store.Configuration().AddUser("local", "admin", "secret"))

	metrics := NewMetrics()
	srv := httptest.NewServer(NewServer(query.NewEngine(store, filelock.New(5*time.Millisecond)), metrics).Handler())
	t.Cleanup(srv.Close)
	return &testServer{srv, metrics}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http"), nil)
	assert.NilError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, req any) map[string]any {
	t.Helper()
	assert.NilError(t, ws.WriteJSON(req))
	var res map[string]any
	assert.NilError(t, ws.ReadJSON(&res))
	return res
}

func connect(t *testing.T, s *testServer, database string) *websocket.Conn {
	t.Helper()
	ws := s.dial(t)
	res := roundTrip(t, ws, ConnRequest{Server: "local", Username: "admin", Password: "secret", Database: database})
	assert.Equal(t, res["status"], float64(http.StatusOK), res["message"])
	return ws
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	res, err := http.Get(s.URL + "/health")
	assert.NilError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	assert.NilError(t, err)
	assert.Equal(t, string(body), "ok")
}

func TestConnectAuth(t *testing.T) {
	s := newTestServer(t)

	t.Run("invalid auth", func(t *testing.T) {
		ws := s.dial(t)
		res := roundTrip(t, ws, ConnRequest{Server: "local", Username: "admin", Password: "wrong"})
		assert.Equal(t, res["status"], float64(http.StatusUnauthorized))
		assert.Equal(t, res["message"], "Invalid auth")
	})

	t.Run("unknown database", func(t *testing.T) {
		ws := s.dial(t)
		res := roundTrip(t, ws, ConnRequest{Server: "local", Username: "admin", Password: "secret", Database: "nope"})
		assert.Equal(t, res["status"], float64(http.StatusNotFound))
	})

	t.Run("too many attempts", func(t *testing.T) {
		ws := s.dial(t)
		for i := 0; i < 3; i++ {
			res := roundTrip(t, ws, ConnRequest{Server: "local", Username: "admin", Password: "wrong"})
			assert.Equal(t, res["status"], float64(http.StatusUnauthorized))
		}
		assert.NilError(t, ws.WriteJSON(ConnRequest{Server: "local", Username: "admin", Password: "secret"}))
		_, _, err := ws.ReadMessage()
		assert.Assert(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	})

	t.Run("connected", func(t *testing.T) {
		ws := s.dial(t)
		res := roundTrip(t, ws, ConnRequest{Server: "local", Username: "admin", Password: "secret"})
		assert.Equal(t, res["message"], "connected")
		data := res["data"].(map[string]any)
		assert.Equal(t, data["server"], "local")
		assert.Assert(t, data["session"] != "")
	})
}

func TestQuery(t *testing.T) {
	s := newTestServer(t)
	ws := connect(t, s, "app")

	res := roundTrip(t, ws, WsRequest{Action: RequestActionQuery, Query: "users.insert('ann', 30)", ReqId: 7})
	assert.Equal(t, res["status"], float64(http.StatusOK), res["message"])
	assert.Equal(t, res["__jql_client_req_id__"], float64(7))
	data := res["data"].(map[string]any)
	assert.Equal(t, data["error"], false)
	assert.Equal(t, data["result"], float64(1))

	res = roundTrip(t, ws, WsRequest{Action: RequestActionQuery, Query: "users.select(name, age)"})
	data = res["data"].(map[string]any)
	assert.DeepEqual(t, data["result"], []any{map[string]any{"name": "ann", "age": float64(30)}})

	res = roundTrip(t, ws, WsRequest{Action: RequestActionQuery, Query: "users.insert('ann', 31)"})
	assert.Equal(t, res["status"], float64(http.StatusConflict))
	data = res["data"].(map[string]any)
	assert.Equal(t, data["error"], true)
	assert.Equal(t, data["result"], res["message"])

	assert.Equal(t, testutil.ToFloat64(s.metrics.Queries.WithLabelValues("query", "ok")), float64(2))
	assert.Equal(t, testutil.ToFloat64(s.metrics.Queries.WithLabelValues("query", "error")), float64(1))
	assert.Equal(t, testutil.ToFloat64(s.metrics.Connections), float64(1))
}

func TestQueries(t *testing.T) {
	s := newTestServer(t)
	ws := connect(t, s, "app")

	res := roundTrip(t, ws, WsRequest{Action: RequestActionQueries, Query: "users.insert('a', 1);\nusers.count(*)"})
	assert.Equal(t, res["status"], float64(http.StatusOK), res["message"])
	results := res["data"].([]any)
	assert.Equal(t, len(results), 2)

	res = roundTrip(t, ws, WsRequest{Action: RequestActionQueries, Query: "users.count(*); users.nope()"})
	assert.Equal(t, res["status"], float64(http.StatusBadRequest))
	assert.Assert(t, strings.HasPrefix(res["message"].(string), "query 2:"), res["message"])

	// the session survives a block with nothing to run
	res = roundTrip(t, ws, WsRequest{Action: RequestActionQueries, Query: "// nothing", ReqId: 3})
	assert.Equal(t, res["status"], float64(http.StatusOK), res["message"])
	assert.Equal(t, res["__jql_client_req_id__"], float64(3))
	assert.DeepEqual(t, res["data"], []any{})

	res = roundTrip(t, ws, WsRequest{Action: RequestActionQuery, Query: "users.count(*)"})
	assert.Equal(t, res["status"], float64(http.StatusOK), res["message"])
}

func TestDatabaseActions(t *testing.T) {
	s := newTestServer(t)
	ws := connect(t, s, "")

	res := roundTrip(t, ws, WsRequest{Action: RequestActionQuery, Query: "users.select()"})
	assert.Equal(t, res["status"], float64(http.StatusBadRequest))
	assert.Equal(t, res["message"], "No database selected")

	res = roundTrip(t, ws, WsRequest{Action: RequestActionListDB})
	assert.DeepEqual(t, res["data"], []any{"app", "other"})

	res = roundTrip(t, ws, WsRequest{Action: RequestActionUseDB, Database: "app"})
	assert.Equal(t, res["message"], "Using database app")

	res = roundTrip(t, ws, WsRequest{Action: RequestActionListTables})
	assert.DeepEqual(t, res["data"], []any{"users"})

	res = roundTrip(t, ws, WsRequest{Action: "dropEverything"})
	assert.Equal(t, res["status"], float64(http.StatusBadRequest))
	assert.Equal(t, res["message"], "unknown action: dropEverything")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	ws := connect(t, s, "app")
	roundTrip(t, ws, WsRequest{Action: RequestActionQuery, Query: "users.count(*)"})

	res, err := http.Get(s.URL + "/metrics")
	assert.NilError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(body), `jql_queries_total{action="query",outcome="ok"} 1`))
	assert.Assert(t, strings.Contains(string(body), "jql_query_duration_seconds_bucket"))
}
