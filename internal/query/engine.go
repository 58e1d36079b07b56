package query

import (
	"context"

	"github.com/tobsdb/jqldb/internal/bench"
	"github.com/tobsdb/jqldb/internal/cache"
	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/filelock"
	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/internal/transaction"
	"github.com/tobsdb/jqldb/internal/types"
	"github.com/tobsdb/jqldb/pkg"
)

// Connection is the authenticated server and selected database a query runs
// against.
type Connection struct {
	Server   string
	Database string
}

type QueryResult struct {
	Error       bool        `json:"error"`
	Result      types.Value `json:"result"`
	ElapsedTime int64       `json:"elapsed_time"`
	MemoryUsage int64       `json:"memory_usage"`

	Err   error        `json:"-"`
	Marks []bench.Mark `json:"-"`
}

type Engine struct {
	Store  *schema.Store
	Cache  *cache.Cache
	Locker *filelock.Locker
}

func NewEngine(store *schema.Store, locker *filelock.Locker) *Engine {
	return &Engine{Store: store, Cache: cache.New(), Locker: locker}
}

func newResult(b *bench.Benchmark, res types.Value, err error) QueryResult {
	r := QueryResult{
		Result:      res,
		ElapsedTime: b.ElapsedTime(),
		MemoryUsage: b.MemoryUsage(),
		Marks:       b.Marks(),
	}
	if err != nil {
		r.Error, r.Err, r.Result = true, err, types.String(err.Error())
	}
	return r
}

// Execute runs one query. Failures are reported in the result, never
// returned.
func (e *Engine) Execute(ctx context.Context, conn Connection, query string) QueryResult {
	b := bench.Start()
	q, err := parser.Parse(query)
	b.Mark("parse")
	if err != nil {
		return newResult(b, types.Null(), err)
	}
	res, err := e.run(ctx, conn, q)
	b.Mark("execute")
	return newResult(b, res, err)
}

// ExecuteMany runs every statement of a block in order and stops at the
// first failure, which is the last result returned. A block that does not
// parse yields a single failed result carrying the statement index.
func (e *Engine) ExecuteMany(ctx context.Context, conn Connection, text string) []QueryResult {
	b := bench.Start()
	queries, err := parser.MultilineParse(text)
	b.Mark("parse")
	if err != nil {
		return []QueryResult{newResult(b, types.Null(), err)}
	}

	results := make([]QueryResult, 0, len(queries))
	for i, q := range queries {
		qb := bench.Start()
		res, err := e.run(ctx, conn, q)
		qb.Mark("execute")
		if err != nil {
			err = &errs.MultilineError{Index: i + 1, Err: err}
		}
		results = append(results, newResult(qb, res, err))
		if err != nil {
			break
		}
	}
	return results
}

type handler func(x *execCtx) (types.Value, error)

var handlers = map[parser.Action]handler{
	parser.ActionSelect:   (*execCtx).selectRows,
	parser.ActionCount:    (*execCtx).count,
	parser.ActionMin:      (*execCtx).min,
	parser.ActionInsert:   (*execCtx).insert,
	parser.ActionUpdate:   (*execCtx).update,
	parser.ActionDelete:   (*execCtx).delete,
	parser.ActionTruncate: (*execCtx).truncate,
}

func (e *Engine) run(ctx context.Context, conn Connection, q *parser.Query) (types.Value, error) {
	handle, ok := handlers[q.Action]
	if !ok {
		return types.Null(), errs.Exec(errs.UnsupportedAction, "The query action %s is not implemented", q.Action)
	}

	if conn.Database == "" {
		return types.Null(), errs.Schema(errs.NoDatabaseSelected, "No database selected")
	}
	db, err := e.Store.Database(conn.Server, conn.Database)
	if err != nil {
		return types.Null(), err
	}
	if !db.HasTable(q.Table) {
		return types.Null(), errs.Schema(errs.NoSuchTable, "The table %s doesn't exist in the database %s", q.Table, db.Name)
	}

	tx, err := transaction.Begin(ctx, e.Locker, e.Cache, db.TablePath(q.Table))
	if err != nil {
		return types.Null(), err
	}
	defer tx.End()

	x := &execCtx{engine: e, db: db, table: q.Table, doc: tx.Doc, q: q, linked: map[string]*schema.Document{}}
	res, err := handle(x)
	if err != nil {
		tx.Rollback()
		pkg.DebugLog("query failed", "tx", tx.ID(), "table", q.Table, "action", q.Action, "err", err)
		return types.Null(), err
	}
	if !q.Action.IsReadOnly() {
		if err := tx.Commit(); err != nil {
			return types.Null(), err
		}
	}
	return res, nil
}

// execCtx is the state of one query while its table is locked.
type execCtx struct {
	engine *Engine
	db     *schema.Database
	table  string
	doc    *schema.Document
	q      *parser.Query

	// documents of linked tables, read through the cache
	linked map[string]*schema.Document
}

func (x *execCtx) linkedDocument(table string) (*schema.Document, error) {
	if table == x.table {
		return x.doc, nil
	}
	if doc, ok := x.linked[table]; ok {
		return doc, nil
	}
	if !x.db.HasTable(table) {
		return nil, errs.Schema(errs.NoSuchTable, "The linked table %s doesn't exist", table)
	}
	path := x.db.TablePath(table)
	raw, err := x.engine.Cache.Get(path)
	if err != nil {
		return nil, err
	}
	doc, err := schema.Decode([]byte(raw))
	if err != nil {
		return nil, errs.IO(errs.ReadFailed, err, "corrupt table file %s", path)
	}
	x.linked[table] = doc
	return doc, nil
}

func (x *execCtx) column(name string) (*schema.Column, error) {
	col, ok := x.doc.Column(name)
	if !ok {
		return nil, errs.Schema(errs.UnknownColumn, "The column %s doesn't exist in the table %s", name, x.table)
	}
	return col, nil
}

// checkColumn accepts schema columns and #rowid.
func (x *execCtx) checkColumn(name string) error {
	if x.doc.HasColumn(name) {
		return nil
	}
	return errs.Schema(errs.UnknownColumn, "The column %s doesn't exist in the table %s", name, x.table)
}
