// Package conn is the websocket transport of jqld: it authenticates a
// session against the users file, selects a database and forwards query text
// to the engine.
package conn

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/pkg"
)

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ConnRequest is the first message of a session.
type ConnRequest struct {
	Server   string `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`

	Database string `json:"database"`
}

type ConnResponse struct {
	Session string `json:"session"`
	Server  string `json:"server"`
}

func (s *Server) tryConnect(ctx *ConnCtx, buf []byte) error {
	var r ConnRequest
	if err := json.Unmarshal(buf, &r); err != nil {
		ctx.WriteResponse(NewErrorResponse(http.StatusBadRequest, err.Error()))
		return err
	}

	config := s.Engine.Store.Configuration()
	if r.Username == "" || !config.Authenticate(r.Server, r.Username, r.Password) {
		return ctx.WriteResponse(NewErrorResponse(http.StatusUnauthorized, "Invalid auth"))
	}

	if r.Database != "" {
		db, err := s.Engine.Store.Database(r.Server, r.Database)
		if err != nil {
			return ctx.WriteResponse(NewErrorResponse(errs.StatusOf(err), err.Error()))
		}
		ctx.Conn.Database = db.Name
		pkg.DebugLog("using database", "session", ctx.ID(), "database", db.Name)
	}
	ctx.Conn.Server = r.Server
	ctx.Username = r.Username

	ctx.SetAuthed()
	return ctx.WriteResponse(NewResponse(http.StatusOK, "connected",
		ConnResponse{Session: ctx.ID().String(), Server: r.Server}))
}

func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog("websocket upgrade", "err", err)
		return
	}
	defer ws.Close()

	ctx := NewConnCtx(r.Context(), ws)
	s.Metrics.connOpened()
	defer s.Metrics.connClosed()
	pkg.InfoLog("new connection", "session", ctx.ID(), "remote", r.RemoteAddr)
	defer pkg.InfoLog("connection closed", "session", ctx.ID())

	for {
		buf, err := ctx.Read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("unexpected close", "session", ctx.ID(), "err", err)
			} else {
				pkg.DebugLog("conn read ended", "session", ctx.ID(), "err", err)
			}
			return
		}

		if !ctx.isAuthed {
			if ctx.attempts == maxConnAttempts {
				pkg.ErrorLog("max connection attempts reached", "session", ctx.ID())
				closeWith(ws, websocket.ClosePolicyViolation, "too many attempts")
				return
			}
			err = s.tryConnect(ctx, buf)
			ctx.attempts += 1
			if err != nil {
				pkg.ErrorLog("conn attempt error", "session", ctx.ID(), "err", err)
				return
			}
			continue
		}

		req, err := parseRequest(buf)
		if err != nil {
			pkg.ErrorLog("parsing request", "session", ctx.ID(), "err", err)
			if err := ctx.WriteResponse(NewErrorResponse(http.StatusBadRequest, err.Error())); err != nil {
				return
			}
			continue
		}

		res := s.ActionHandler(ctx, req)
		res.ReqId = req.ReqId
		if err := ctx.WriteResponse(res); err != nil {
			pkg.ErrorLog("writing response", "session", ctx.ID(), "err", err)
			return
		}
	}
}

func closeWith(ws *websocket.Conn, code int, reason string) {
	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
