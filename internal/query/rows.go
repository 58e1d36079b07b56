package query

import (
	"slices"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/props"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/internal/types"
)

// whereValue is the value a condition sees: link columns compare against the
// key of the row they reference.
func (x *execCtx) whereValue(row *schema.Row, name string) (types.Value, error) {
	value := row.Get(name)
	col, ok := x.doc.Column(name)
	if !ok || value.IsNull() {
		return value, nil
	}
	if _, _, is_link := col.Link(); !is_link {
		return value, nil
	}
	target, err := x.dereference(col, value)
	if err != nil || target == nil {
		return types.Null(), err
	}
	_, target_column, _ := col.Link()
	return target.Get(target_column), nil
}

// filterRows applies the where() clauses: the conditions of one clause are
// chained with AND, and separate clauses are unioned. Order is kept.
func (x *execCtx) filterRows(entries []*schema.Entry) ([]*schema.Entry, error) {
	filters := x.q.Extensions.Where
	if len(filters) == 0 {
		return entries, nil
	}

	for _, filter := range filters {
		for _, cond := range filter {
			if err := x.checkColumn(cond.Field); err != nil {
				return nil, err
			}
		}
	}

	selected := make(map[int64]bool)
	for _, filter := range filters {
		pass := entries
		for _, cond := range filter {
			next := make([]*schema.Entry, 0, len(pass))
			for _, e := range pass {
				value, err := x.whereValue(e.Row, cond.Field)
				if err != nil {
					return nil, err
				}
				if matches(cond.Operator, value, cond.Value) {
					next = append(next, e)
				}
			}
			pass = next
		}
		for _, e := range pass {
			selected[e.LinkID] = true
		}
	}

	found := make([]*schema.Entry, 0, len(selected))
	for _, e := range entries {
		if selected[e.LinkID] {
			found = append(found, e)
		}
	}
	return found, nil
}

func (x *execCtx) orderRows(entries []*schema.Entry) error {
	order := x.q.Extensions.Order
	if order == nil {
		return nil
	}
	if err := x.checkColumn(order.Column); err != nil {
		return err
	}
	slices.SortStableFunc(entries, func(a, b *schema.Entry) int {
		c := compareValues(a.Row.Get(order.Column), b.Row.Get(order.Column))
		if order.Direction == parser.DirectionDesc {
			return -c
		}
		return c
	})
	return nil
}

func (x *execCtx) limitRows(entries []*schema.Entry) []*schema.Entry {
	limit := x.q.Extensions.Limit
	if limit == nil {
		return entries
	}
	n := int64(len(entries))
	start := min(limit.Offset, n)
	end := start + min(limit.Count, n-start)
	return entries[start:end]
}

// renumber makes #rowid dense again, following link-id order.
func renumber(doc *schema.Document) {
	var rowid int64
	for _, e := range doc.Data.Entries() {
		rowid++
		e.Row.Set(props.RowIdColumn, types.Int(rowid))
	}
	doc.Properties.LastValidRowId = rowid
}

// checkKeys verifies the composite primary key and every unique key over
// all rows of the document.
func checkKeys(doc *schema.Document) error {
	entries := doc.Data.Entries()

	if pks := doc.Properties.PrimaryKeys; len(pks) > 0 {
		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			parts := make([]types.Value, len(pks))
			for i, pk := range pks {
				parts[i] = e.Row.Get(pk)
			}
			key := keyString(types.Array(parts...))
			if seen[key] {
				return errs.Constraint(errs.DuplicateKey,
					"Duplicate value %s for the primary key %s", describeKey(parts), describeColumns(pks))
			}
			seen[key] = true
		}
	}

	for _, uk := range doc.Properties.UniqueKeys {
		seen := make(map[string]bool, len(entries))
		for _, e := range entries {
			value := e.Row.Get(uk)
			if value.IsNull() {
				continue
			}
			key := keyString(value)
			if seen[key] {
				return errs.Constraint(errs.DuplicateKey,
					"Duplicate value %s for the unique key %s", value.String(), uk)
			}
			seen[key] = true
		}
	}
	return nil
}

// keyString identifies a value for uniqueness; 1 and 1.0 are the same key.
func keyString(v types.Value) string {
	if f, ok := number(v); ok && v.Kind() != types.KindString {
		return types.Float(f).String()
	}
	b, _ := v.MarshalJSON()
	return string(b)
}

func describeKey(parts []types.Value) string {
	if len(parts) == 1 {
		return parts[0].String()
	}
	return types.Array(parts...).String()
}

func describeColumns(cols []string) string {
	if len(cols) == 1 {
		return cols[0]
	}
	out := "("
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out + ")"
}
