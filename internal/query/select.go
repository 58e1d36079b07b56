package query

import (
	"slices"
	"strings"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/props"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/internal/types"
	"github.com/tobsdb/jqldb/pkg"
)

type projection struct {
	name string
	fn   string
	args []string
}

// alias returns the as() rename of the i-th output column, if any.
func (x *execCtx) alias(i int, name string) string {
	if as := x.q.Extensions.As; i < len(as) && as[i] != "" {
		return as[i]
	}
	return name
}

func (x *execCtx) projections(cols []string) ([]projection, error) {
	out := []projection{}
	for _, c := range cols {
		switch {
		case c == "*":
			for _, name := range x.doc.UserColumns() {
				out = append(out, projection{name: name})
			}
			continue
		case c == props.TablePropLastInsertId:
			out = append(out, projection{name: c})
			continue
		}
		if fn, args, ok := parser.ParseColumnCall(c); ok {
			out = append(out, projection{name: c, fn: fn, args: args})
			continue
		}
		if err := x.checkColumn(c); err != nil {
			return nil, err
		}
		out = append(out, projection{name: c})
	}
	return out, nil
}

func (x *execCtx) project(p projection, row *schema.Row) (types.Value, error) {
	if p.fn == "" {
		if p.name == props.TablePropLastInsertId && !x.doc.HasColumn(p.name) {
			return types.Int(x.doc.Properties.LastInsertId), nil
		}
		return row.Get(p.name), nil
	}
	args := make([]types.Value, len(p.args))
	for i, arg := range p.args {
		if x.doc.HasColumn(arg) {
			args[i] = row.Get(arg)
			continue
		}
		v, err := parser.ParseValue(arg)
		if err != nil {
			return v, err
		}
		args[i] = v
	}
	return parser.CallFunction(p.fn, args)
}

func (x *execCtx) selectRows() (types.Value, error) {
	cols := x.q.Columns()
	if len(cols) == 0 {
		cols = []string{"*"}
	}

	if len(cols) == 1 && cols[0] == props.TablePropLastInsertId {
		record := types.NewObject()
		record.Push(x.alias(0, cols[0]), types.Int(x.doc.Properties.LastInsertId))
		return types.Array(types.ObjectValue(record)), nil
	}

	projected, err := x.projections(cols)
	if err != nil {
		return types.Null(), err
	}

	entries, err := x.filterRows(x.doc.Data.Entries())
	if err != nil {
		return types.Null(), err
	}
	if err := x.orderRows(entries); err != nil {
		return types.Null(), err
	}
	entries = x.limitRows(entries)

	rows := pkg.MapSlice(entries, func(e *schema.Entry) *schema.Row {
		return e.Row.Clone()
	})
	if err := x.expandLinks(rows); err != nil {
		return types.Null(), err
	}

	// short alias lists leave the remaining columns unrenamed
	aliases := pkg.PadRight(slices.Clone(x.q.Extensions.As), len(projected), "")
	records := make([]types.Value, 0, len(rows))
	for _, row := range rows {
		record := types.NewObject()
		for i, p := range projected {
			v, err := x.project(p, row)
			if err != nil {
				return types.Null(), err
			}
			name := p.name
			if aliases[i] != "" {
				name = aliases[i]
			}
			record.Set(name, v)
		}
		records = append(records, types.ObjectValue(record))
	}
	return types.Array(records...), nil
}

func (x *execCtx) count() (types.Value, error) {
	entries, err := x.filterRows(x.doc.Data.Entries())
	if err != nil {
		return types.Null(), err
	}

	if group := x.q.Extensions.Group; group != "" {
		return x.countGroups(entries, group)
	}

	params := x.q.Columns()
	cols := params
	if len(cols) == 0 || slices.Contains(cols, "*") {
		if len(cols) == 0 {
			params = []string{"*"}
		}
		cols = x.doc.UserColumns()
	}

	var most int64
	for _, c := range cols {
		if err := x.checkColumn(c); err != nil {
			return types.Null(), err
		}
		var n int64
		for _, e := range entries {
			if !e.Row.Get(c).IsNull() {
				n++
			}
		}
		most = max(most, n)
	}

	record := types.NewObject()
	record.Push(x.alias(0, "count("+strings.Join(params, ",")+")"), types.Int(most))
	return types.Array(types.ObjectValue(record)), nil
}

type groupCount struct {
	value types.Value
	n     int64
}

// countGroups emits one {count, column} record per distinct value, in the
// order values are first seen.
func (x *execCtx) countGroups(entries []*schema.Entry, group string) (types.Value, error) {
	if err := x.checkColumn(group); err != nil {
		return types.Null(), err
	}
	groups := pkg.NewInsertSortMap[string, *groupCount]()
	for _, e := range entries {
		value := e.Row.Get(group)
		key := keyString(value)
		if g, ok := groups.Lookup(key); ok {
			g.n++
			continue
		}
		groups.Push(key, &groupCount{value: value, n: 1})
	}

	records := make([]types.Value, 0, groups.Len())
	for _, key := range groups.Sorted {
		g := groups.Get(key)
		record := types.NewObject()
		record.Push(x.alias(0, "count"), types.Int(g.n))
		record.Set(group, g.value)
		records = append(records, types.ObjectValue(record))
	}
	return types.Array(records...), nil
}

func (x *execCtx) min() (types.Value, error) {
	cols := x.q.Columns()
	if len(cols) != 1 {
		return types.Null(), errs.Constraint(errs.ArityMismatch, "min() takes exactly one column, got %d", len(cols))
	}
	col := cols[0]
	if err := x.checkColumn(col); err != nil {
		return types.Null(), err
	}

	entries, err := x.filterRows(x.doc.Data.Entries())
	if err != nil {
		return types.Null(), err
	}

	result := types.Null()
	for i, e := range entries {
		n := asInteger(e.Row.Get(col))
		if cur, _ := result.Integer(); i == 0 || n < cur {
			result = types.Int(n)
		}
	}

	record := types.NewObject()
	record.Push(x.alias(0, "min("+col+")"), result)
	return types.Array(types.ObjectValue(record)), nil
}

// asInteger reads a stored value as an integer; anything non-numeric is 0.
func asInteger(v types.Value) int64 {
	if n, ok := integer(v); ok {
		return n
	}
	if f, ok := number(v); ok {
		return int64(f)
	}
	return 0
}
