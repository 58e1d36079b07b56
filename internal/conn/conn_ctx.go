package conn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tobsdb/jqldb/internal/query"
)

// ConnCtx is the state of one websocket session.
type ConnCtx struct {
	context     context.Context
	ws          *websocket.Conn
	id          uuid.UUID
	attempts    int
	isAuthed    bool
	shouldClose bool

	Username string
	Conn     query.Connection
}

const (
	maxConnAttempts  = 3
	handshakeTimeout = 30 * time.Second
	shouldCloseError = "connection closed by server"
)

// New sessions must authenticate before the handshake deadline.
func NewConnCtx(parent context.Context, ws *websocket.Conn) *ConnCtx {
	ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	return &ConnCtx{context: parent, ws: ws, id: uuid.New()}
}

// Context is cancelled when the session's request ends or the server shuts
// down; queries waiting on a table lock give up with it.
func (ctx *ConnCtx) Context() context.Context { return ctx.context }

func (ctx *ConnCtx) ID() uuid.UUID { return ctx.id }

// SetAuthed marks the session as authenticated and removes the deadline.
func (ctx *ConnCtx) SetAuthed() {
	ctx.isAuthed = true
	ctx.ws.SetReadDeadline(time.Time{})
}

func (ctx *ConnCtx) Read() ([]byte, error) {
	if ctx.shouldClose {
		return nil, errors.New(shouldCloseError)
	}
	_, message, err := ctx.ws.ReadMessage()
	return message, err
}

func (ctx *ConnCtx) WriteResponse(r Response) error {
	if ctx.shouldClose {
		return errors.New(shouldCloseError)
	}
	return ctx.ws.WriteJSON(r)
}
