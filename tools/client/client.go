// Package client is the Go client of jqld.
//
// connect to a server and select a database
//
//	c, err := client.NewClient("ws://localhost:7085", client.ClientOptions{
//		Server: "local", Username: "admin", Password: "secret", Database: "app",
//	})
//	err = c.Connect()
//
// run queries
//
//	res, err := c.Query("users.select(name).where(age>18)")
//	rows := res.Result
package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	ws "github.com/gorilla/websocket"
	"github.com/tobsdb/jqldb/internal/conn"
	"github.com/tobsdb/jqldb/pkg"
)

type (
	ClientOptions struct {
		Server   string
		Username string
		Password string
		Database string
	}

	// Client is safe for use by one goroutine at a time per request; calls
	// are serialized on the underlying connection.
	Client struct {
		locker sync.RWMutex
		conn   *ws.Conn
		reqId  int
		// The websocket url of the jqld server
		Url     *url.URL
		Session string
		options ClientOptions
	}
)

func NewClient(urlStr string, options ClientOptions) (*Client, error) {
	Url, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}
	if Url.Scheme != "ws" && Url.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported url scheme %q", Url.Scheme)
	}
	return &Client{Url: Url, options: options}, nil
}

func (c *Client) GetLocker() *sync.RWMutex { return &c.locker }

// Response is a transport response whose data is decoded by the caller.
type Response struct {
	Status    int             `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestId int             `json:"__jql_client_req_id__"`
}

type ResponseError struct {
	Status  int
	Message string
}

func (e *ResponseError) Error() string { return fmt.Sprintf("jqld error %d: %s", e.Status, e.Message) }

func (r Response) err() error {
	if r.Status >= 400 {
		return &ResponseError{r.Status, r.Message}
	}
	return nil
}

// QueryResult mirrors the engine's result with the rows left undecoded.
type QueryResult struct {
	Error       bool            `json:"error"`
	Result      json.RawMessage `json:"result"`
	ElapsedTime int64           `json:"elapsed_time"`
	MemoryUsage int64           `json:"memory_usage"`
}

func (c *Client) Connect() error {
	return pkg.LockWrap(c, func() error {
		if c.conn != nil {
			return nil
		}
		wsConn, _, err := ws.DefaultDialer.Dial(c.Url.String(), nil)
		if err != nil {
			return err
		}

		res, err := roundTrip(wsConn, conn.ConnRequest{
			Server:   c.options.Server,
			Username: c.options.Username,
			Password: c.options.Password,
			Database: c.options.Database,
		})
		if err == nil {
			err = res.err()
		}
		if err != nil {
			wsConn.Close()
			return err
		}

		var session conn.ConnResponse
		if err := json.Unmarshal(res.Data, &session); err != nil {
			wsConn.Close()
			return err
		}
		c.conn, c.Session = wsConn, session.Session
		pkg.DebugLog("connected to jqld", "url", c.Url.String(), "session", c.Session)
		return nil
	})
}

func (c *Client) Disconnect() error {
	return pkg.LockWrap(c, func() error {
		if c.conn == nil {
			return nil
		}
		defer func() { c.conn = nil }()
		err := c.conn.WriteMessage(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, "Disconnect"))
		if cerr := c.conn.Close(); err == nil {
			err = cerr
		}
		return err
	})
}

func roundTrip(wsConn *ws.Conn, req any) (Response, error) {
	var res Response
	if err := wsConn.WriteJSON(req); err != nil {
		return res, err
	}
	err := wsConn.ReadJSON(&res)
	return res, err
}

func (c *Client) request(req conn.WsRequest) (Response, error) {
	if err := c.Connect(); err != nil {
		return Response{}, err
	}
	var res Response
	err := pkg.LockWrap(c, func() error {
		if c.conn == nil {
			return fmt.Errorf("not connected")
		}
		c.reqId++
		req.ReqId = c.reqId
		var err error
		res, err = roundTrip(c.conn, req)
		if err == nil && res.RequestId != req.ReqId {
			err = fmt.Errorf("response for request %d, expected %d", res.RequestId, req.ReqId)
		}
		return err
	})
	return res, err
}

// Query runs one query. A failed query is returned as both the result and a
// *ResponseError.
func (c *Client) Query(query string) (QueryResult, error) {
	var result QueryResult
	res, err := c.request(conn.WsRequest{Action: conn.RequestActionQuery, Query: query})
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(res.Data, &result); err != nil {
		return result, err
	}
	return result, res.err()
}

// Queries runs a multi-statement block; execution stops at the first failure.
func (c *Client) Queries(text string) ([]QueryResult, error) {
	res, err := c.request(conn.WsRequest{Action: conn.RequestActionQueries, Query: text})
	if err != nil {
		return nil, err
	}
	// a block of one statement answers with a single result
	var results []QueryResult
	if len(res.Data) > 0 && res.Data[0] == '{' {
		var single QueryResult
		if err := json.Unmarshal(res.Data, &single); err != nil {
			return nil, err
		}
		return []QueryResult{single}, res.err()
	}
	if err := json.Unmarshal(res.Data, &results); err != nil {
		return nil, err
	}
	return results, res.err()
}

func (c *Client) Use(database string) error {
	res, err := c.request(conn.WsRequest{Action: conn.RequestActionUseDB, Database: database})
	if err != nil {
		return err
	}
	return res.err()
}

func (c *Client) list(action conn.RequestAction) ([]string, error) {
	res, err := c.request(conn.WsRequest{Action: action})
	if err != nil {
		return nil, err
	}
	if err := res.err(); err != nil {
		return nil, err
	}
	var names []string
	err = json.Unmarshal(res.Data, &names)
	return names, err
}

func (c *Client) ListDatabases() ([]string, error) { return c.list(conn.RequestActionListDB) }
func (c *Client) ListTables() ([]string, error)    { return c.list(conn.RequestActionListTables) }
