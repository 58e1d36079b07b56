package query

import (
	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/internal/types"
)

// linkTarget loads the document a link column points to and checks that the
// referenced column is still a key there.
func (x *execCtx) linkTarget(col *schema.Column) (*schema.Document, string, error) {
	table, column, ok := col.Link()
	if !ok {
		return nil, "", errs.Schema(errs.InvalidLink, "The column %s is not a link", col.Name)
	}
	doc, err := x.linkedDocument(table)
	if err != nil {
		return nil, "", err
	}
	target_col, ok := doc.Column(column)
	if !ok || !target_col.IsKey() {
		return nil, "", errs.Schema(errs.InvalidLink,
			"The link %s of column %s does not reference a primary or unique key", col.Type, col.Name)
	}
	return doc, column, nil
}

// resolveLink turns a written key value into the link-id of the target row
// holding it.
func (x *execCtx) resolveLink(col *schema.Column, value types.Value) (types.Value, error) {
	if value.IsNull() {
		return value, nil
	}
	doc, column, err := x.linkTarget(col)
	if err != nil {
		return value, err
	}
	for _, e := range doc.Data.Entries() {
		if equalValues(e.Row.Get(column), value) {
			return types.Int(e.LinkID), nil
		}
	}
	table, _, _ := col.Link()
	return value, errs.Constraint(errs.InvalidLink,
		"No row of %s has %s = %s for the link column %s", table, column, value.String(), col.Name)
}

// dereference returns the row a stored link-id points to, or nil.
func (x *execCtx) dereference(col *schema.Column, stored types.Value) (*schema.Row, error) {
	id, ok := stored.Integer()
	if !ok {
		return nil, nil
	}
	doc, _, err := x.linkTarget(col)
	if err != nil {
		return nil, err
	}
	row, ok := doc.Data.Get(id)
	if !ok {
		return nil, nil
	}
	return row, nil
}

// expandLinks applies the on(column, link(cols)) directives to result rows.
func (x *execCtx) expandLinks(rows []*schema.Row) error {
	for _, on := range x.q.Extensions.On {
		col, err := x.column(on.Column)
		if err != nil {
			return err
		}
		doc, _, err := x.linkTarget(col)
		if err != nil {
			return err
		}

		cols := []string{}
		for _, c := range on.Args {
			if c == "*" {
				cols = append(cols, doc.UserColumns()...)
				continue
			}
			if !doc.HasColumn(c) {
				table, _, _ := col.Link()
				return errs.Schema(errs.UnknownColumn, "The column %s doesn't exist in the table %s", c, table)
			}
			cols = append(cols, c)
		}
		if len(cols) == 0 {
			cols = doc.UserColumns()
		}

		for _, row := range rows {
			target, err := x.dereference(col, row.Get(on.Column))
			if err != nil {
				return err
			}
			if target == nil {
				row.Set(on.Column, types.Null())
				continue
			}
			linked := types.NewObject()
			for _, c := range cols {
				linked.Set(c, target.Get(c).Clone())
			}
			row.Set(on.Column, types.ObjectValue(linked))
		}
	}
	return nil
}
