package query

import (
	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/props"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/internal/types"
)

// writable resolves the target columns of insert/update; #rowid is never
// written by queries.
func (x *execCtx) writable(names []string) ([]*schema.Column, error) {
	cols := make([]*schema.Column, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		col, err := x.column(name)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, errs.Schema(errs.DuplicateColumn, "The column %s is written twice", name)
		}
		seen[name] = true
		cols = append(cols, col)
	}
	return cols, nil
}

// store converts a written value to what the column persists.
func (x *execCtx) store(col *schema.Column, value types.Value) (types.Value, error) {
	if value.IsNull() {
		if col.NotNull {
			return value, errs.Constraint(errs.NotNull, "The column %s cannot be null", col.Name)
		}
		return value, nil
	}
	if _, _, ok := col.Link(); ok {
		return x.resolveLink(col, value)
	}
	return col.Coerce(value)
}

func (x *execCtx) fill(col *schema.Column, value types.Value, provided bool) (types.Value, error) {
	p := x.doc.Properties
	if col.AutoIncrement {
		if !provided || value.IsNull() {
			p.LastInsertId++
			return types.Int(p.LastInsertId), nil
		}
		v, err := col.Coerce(value)
		if err != nil {
			return v, err
		}
		if n, _ := v.Integer(); n > p.LastInsertId {
			p.LastInsertId = n
		}
		return v, nil
	}
	if !provided {
		if !col.HasDefault() {
			if col.NotNull {
				return value, errs.Constraint(errs.NotNull, "The column %s needs a value", col.Name)
			}
			return types.Null(), nil
		}
		value = col.Default.Clone()
	}
	return x.store(col, value)
}

func (x *execCtx) insert() (types.Value, error) {
	names := x.doc.UserColumns()
	if x.q.Extensions.Has("in") {
		names = x.q.Extensions.In
	}
	targets, err := x.writable(names)
	if err != nil {
		return types.Null(), err
	}

	value_sets := append([][]types.Value{x.q.Parameters}, x.q.Extensions.And...)
	for i, values := range value_sets {
		if len(values) != len(targets) {
			return types.Null(), errs.Constraint(errs.ArityMismatch,
				"Row %d has %d values for %d columns", i+1, len(values), len(targets))
		}
	}

	p := x.doc.Properties
	for _, values := range value_sets {
		given := make(map[string]types.Value, len(targets))
		for i, col := range targets {
			given[col.Name] = values[i]
		}

		p.LastLinkId++
		p.LastValidRowId++
		link_id := p.LastLinkId

		row := types.NewObject()
		row.Push(props.RowIdColumn, types.Int(p.LastValidRowId))
		for _, name := range x.doc.UserColumns() {
			col, _ := x.doc.Column(name)
			value, provided := given[name]
			v, err := x.fill(col, value, provided)
			if err != nil {
				return types.Null(), err
			}
			row.Push(name, v)
		}
		x.doc.Data.Insert(link_id, row)
	}

	if err := checkKeys(x.doc); err != nil {
		return types.Null(), err
	}
	return types.Int(int64(len(value_sets))), nil
}

func (x *execCtx) update() (types.Value, error) {
	if !x.q.Extensions.Has("with") {
		return types.Null(), errs.Constraint(errs.ArityMismatch, "update() needs the new values in with()")
	}
	with := x.q.Extensions.With
	targets, err := x.writable(x.q.Columns())
	if err != nil {
		return types.Null(), err
	}
	if len(with) != len(targets) {
		return types.Null(), errs.Constraint(errs.ArityMismatch,
			"update() names %d columns but with() has %d values", len(targets), len(with))
	}

	values := make([]types.Value, len(targets))
	for i, col := range targets {
		v, err := x.store(col, with[i])
		if err != nil {
			return types.Null(), err
		}
		values[i] = v
	}

	entries, err := x.filterRows(x.doc.Data.Entries())
	if err != nil {
		return types.Null(), err
	}
	for _, e := range entries {
		for i, col := range targets {
			e.Row.Set(col.Name, values[i].Clone())
		}
	}

	if err := checkKeys(x.doc); err != nil {
		return types.Null(), err
	}
	if ai := x.doc.Properties.AutoIncrement(); ai != nil {
		var last int64
		for _, e := range x.doc.Data.Entries() {
			if n, ok := e.Row.Get(ai.Name).Integer(); ok {
				last = max(last, n)
			}
		}
		x.doc.Properties.LastInsertId = last
	}
	return types.Int(int64(len(entries))), nil
}

func (x *execCtx) delete() (types.Value, error) {
	entries, err := x.filterRows(x.doc.Data.Entries())
	if err != nil {
		return types.Null(), err
	}
	for _, e := range entries {
		x.doc.Data.Delete(e.LinkID)
	}
	renumber(x.doc)
	return types.Int(int64(len(entries))), nil
}

func (x *execCtx) truncate() (types.Value, error) {
	x.doc.Truncate()
	return types.Bool(true), nil
}
