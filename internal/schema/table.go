package schema

import (
	"fmt"
	"strconv"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/props"
	"github.com/tobsdb/jqldb/internal/types"
	"github.com/tobsdb/jqldb/pkg"
)

type ColumnSpec struct {
	Name          string
	Type          string
	Default       *types.Value
	MaxLength     *int64
	NotNull       bool
	PrimaryKey    bool
	UniqueKey     bool
	AutoIncrement bool
}

// ColumnSpecFromDecl converts a parsed `$TABLE` column line.
func ColumnSpecFromDecl(data *parser.ParserData) (ColumnSpec, error) {
	spec := ColumnSpec{Name: data.Name, Type: data.Type}

	for prop, raw := range data.Properties {
		switch prop {
		case props.FieldPropDefault:
			v, err := parser.ParseValue(raw)
			if err != nil {
				return spec, err
			}
			spec.Default = &v
		case props.FieldPropMaxLength:
			n, err := ParseMaxLength(raw)
			if err != nil {
				return spec, err
			}
			spec.MaxLength = &n
		default:
			flag, err := strconv.ParseBool(raw)
			if err != nil {
				return spec, errs.Schema(errs.InvalidSchema, "Invalid value for %s on column %s: %s", prop, data.Name, raw)
			}
			switch prop {
			case props.FieldPropNotNull:
				spec.NotNull = flag
			case props.FieldPropPrimaryKey:
				spec.PrimaryKey = flag
			case props.FieldPropUniqueKey:
				spec.UniqueKey = flag
			case props.FieldPropAutoIncrement:
				spec.AutoIncrement = flag
			}
		}
	}
	return spec, nil
}

func ColumnSpecsFromDecl(decl *parser.TableDecl) ([]ColumnSpec, error) {
	specs := make([]ColumnSpec, 0, len(decl.Columns))
	for _, data := range decl.Columns {
		spec, err := ColumnSpecFromDecl(data)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// normalize builds the stored column from its declaration.
func (spec ColumnSpec) normalize() (*Column, error) {
	if !parser.IsIdentifier(spec.Name) || props.IsReserved(spec.Name) {
		return nil, errs.Schema(errs.InvalidIdentifier, "Invalid column name %q", spec.Name)
	}

	col := &Column{
		Name:          spec.Name,
		Type:          spec.Type,
		NotNull:       spec.NotNull || spec.PrimaryKey || spec.UniqueKey,
		PrimaryKey:    spec.PrimaryKey,
		UniqueKey:     spec.UniqueKey,
		AutoIncrement: spec.AutoIncrement,
	}

	base := types.BaseType(spec.Type)
	if !base.IsValid() {
		return nil, errs.Schema(errs.UnsupportedType, "Unsupported type %s for column %s", spec.Type, spec.Name)
	}
	if base == types.FieldTypeLink {
		table, column, err := props.ParseLinkPropSafe(spec.Type)
		if err != nil {
			return nil, errs.Schema(errs.InvalidLink, "Invalid link on column %s: %s", spec.Name, err)
		}
		col.Type = props.FormatLinkProp(table, column)
	} else {
		col.Type = string(base)
	}

	if col.AutoIncrement {
		col.Type = string(types.FieldTypeInt)
		col.NotNull = true
		if !col.PrimaryKey {
			col.UniqueKey = true
		}
		return col, nil
	}

	if spec.MaxLength != nil && col.BaseType().HasMaxLength() {
		n := *spec.MaxLength
		col.MaxLength = &n
	}

	if spec.Default != nil && !spec.Default.IsNull() {
		if base == types.FieldTypeLink {
			return nil, errs.Schema(errs.InvalidSchema, "Link column %s cannot have a default", spec.Name)
		}
		def, err := col.Coerce(*spec.Default)
		if err != nil {
			return nil, errs.Schema(errs.InvalidSchema, "Invalid default for column %s: %s", spec.Name, err)
		}
		col.Default = def
	}
	return col, nil
}

// CreateTable writes a new empty table document to the database.
func (db *Database) CreateTable(name string, specs []ColumnSpec) error {
	if name == "" {
		return errs.Schema(errs.InvalidSchema, "Missing table name")
	}
	if !ValidName(name) {
		return errs.Schema(errs.InvalidIdentifier, "Invalid table name %q", name)
	}
	if db.HasTable(name) {
		return errs.Schema(errs.DuplicateTable, "Table %s already exists", name)
	}
	if len(specs) == 0 {
		return errs.Schema(errs.InvalidSchema, "Table %s has no columns", name)
	}

	doc := NewDocument()
	var auto_increment *Column

	for _, spec := range specs {
		col, err := spec.normalize()
		if err != nil {
			return err
		}
		if doc.Properties.Columns.Has(col.Name) {
			return errs.Schema(errs.DuplicateColumn, "Duplicate column %s on table %s", col.Name, name)
		}
		if col.AutoIncrement {
			if auto_increment != nil {
				return errs.Schema(errs.InvalidSchema,
					"Table %s can only have one auto_increment column, found %s and %s",
					name, auto_increment.Name, col.Name)
			}
			auto_increment = col
		}

		doc.Prototype = append(doc.Prototype, col.Name)
		doc.Properties.Columns.Push(col.Name, col)
		if col.PrimaryKey {
			doc.Properties.PrimaryKeys = append(doc.Properties.PrimaryKeys, col.Name)
		}
		if col.UniqueKey {
			doc.Properties.UniqueKeys = append(doc.Properties.UniqueKeys, col.Name)
		}
	}

	for _, col_name := range doc.Properties.Columns.Sorted {
		col := doc.Properties.Columns.Get(col_name)
		if err := db.validateLink(name, doc, col); err != nil {
			return err
		}
	}

	if err := WriteTableData(db.TablePath(name), doc); err != nil {
		return err
	}
	pkg.DebugLog("created table", "database", db.Name, "table", name, "columns", len(specs))
	return nil
}

// CreateTables creates the tables of a `$TABLE` declaration file in order, so
// a link may target any table declared before it. Tables created before a
// failing declaration are kept.
func (db *Database) CreateTables(text string) ([]string, error) {
	decls, err := parser.ParseSchema(text)
	if err != nil {
		return nil, errs.Schema(errs.InvalidSchema, "%s", err.Error())
	}
	created := make([]string, 0, len(decls))
	for _, decl := range decls {
		specs, err := ColumnSpecsFromDecl(decl)
		if err != nil {
			return created, err
		}
		if err := db.CreateTable(decl.Name, specs); err != nil {
			return created, err
		}
		created = append(created, decl.Name)
	}
	return created, nil
}

// validateLink checks that a link column targets a key column of a table in
// the same database. A table may link to itself.
func (db *Database) validateLink(table string, doc *Document, col *Column) error {
	target_table, target_column, ok := col.Link()
	if !ok {
		return nil
	}

	invalid := func(reason string) error {
		return errs.Schema(errs.InvalidLink, "Invalid link on column %s of %s: %s", col.Name, table, reason)
	}

	target := doc
	if target_table != table {
		if !db.HasTable(target_table) {
			return invalid(fmt.Sprintf("%s is not a table", target_table))
		}
		var err error
		if target, err = GetTableData(db.TablePath(target_table)); err != nil {
			return err
		}
	}

	target_col, ok := target.Column(target_column)
	if !ok {
		return invalid(fmt.Sprintf("%s is not a column of %s", target_column, target_table))
	}
	if !target_col.IsKey() {
		return invalid(fmt.Sprintf("%s.%s is not a primary or unique key", target_table, target_column))
	}
	return nil
}

// Truncate empties the document and resets its counters. last_link_id is kept
// so link-ids are never reused.
func (d *Document) Truncate() {
	d.Data = NewRows()
	d.Properties.LastInsertId = 0
	d.Properties.LastValidRowId = 0
}
