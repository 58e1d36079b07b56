package conn

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/query"
)

type RequestAction string

const (
	RequestActionQuery   RequestAction = "query"
	RequestActionQueries RequestAction = "queries"

	RequestActionUseDB      RequestAction = "useDatabase"
	RequestActionListDB     RequestAction = "listDatabases"
	RequestActionListTables RequestAction = "listTables"
)

// IsQuery reports whether the action goes through the query engine.
func (action RequestAction) IsQuery() bool {
	return action == RequestActionQuery || action == RequestActionQueries
}

type WsRequest struct {
	Action   RequestAction `json:"action"`
	Query    string        `json:"query"`
	Database string        `json:"database"`
	ReqId    int           `json:"__jql_client_req_id__"` // used in jql clients
}

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId int `json:"__jql_client_req_id__"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

func queryResponse(results ...query.QueryResult) Response {
	if len(results) == 0 {
		return NewResponse(http.StatusOK, "ok", []query.QueryResult{})
	}
	last := results[len(results)-1]
	status, message := http.StatusOK, "ok"
	if last.Error {
		status, message = errs.StatusOf(last.Err), last.Err.Error()
	}
	if len(results) == 1 {
		return NewResponse(status, message, results[0])
	}
	return NewResponse(status, message, results)
}

func (s *Server) ActionHandler(ctx *ConnCtx, req WsRequest) Response {
	switch req.Action {
	case RequestActionQuery:
		res := s.Engine.Execute(ctx.Context(), ctx.Conn, req.Query)
		s.Metrics.Observe(req.Action, res)
		return queryResponse(res)
	case RequestActionQueries:
		results := s.Engine.ExecuteMany(ctx.Context(), ctx.Conn, req.Query)
		for _, res := range results {
			s.Metrics.Observe(req.Action, res)
		}
		return queryResponse(results...)
	case RequestActionUseDB:
		db, err := s.Engine.Store.Database(ctx.Conn.Server, req.Database)
		if err != nil {
			return NewErrorResponse(errs.StatusOf(err), err.Error())
		}
		ctx.Conn.Database = db.Name
		return NewResponse(http.StatusOK, fmt.Sprintf("Using database %s", db.Name), nil)
	case RequestActionListDB:
		names, err := s.Engine.Store.ListDatabases(ctx.Conn.Server)
		if err != nil {
			return NewErrorResponse(errs.StatusOf(err), err.Error())
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Found %d databases", len(names)), names)
	case RequestActionListTables:
		db, err := s.Engine.Store.Database(ctx.Conn.Server, ctx.Conn.Database)
		if err != nil {
			return NewErrorResponse(errs.StatusOf(err), err.Error())
		}
		names, err := db.ListTables()
		if err != nil {
			return NewErrorResponse(errs.StatusOf(err), err.Error())
		}
		return NewResponse(http.StatusOK, fmt.Sprintf("Found %d tables", len(names)), names)
	default:
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown action: %s", req.Action))
	}
}

func parseRequest(buf []byte) (WsRequest, error) {
	var req WsRequest
	err := json.Unmarshal(buf, &req)
	return req, err
}
