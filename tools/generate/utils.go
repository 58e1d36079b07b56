package generate

import (
	"encoding/json"
	"strings"

	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/props"
	"github.com/tobsdb/jqldb/internal/types"
)

func toPascalCase(t string) string {
	res := ""
	for _, v := range strings.Split(t, "_") {
		if v == "" {
			continue
		}
		res += strings.ToUpper(v[0:1]) + v[1:]
	}
	return res
}

type (
	ParsedTable struct {
		Name    string         `json:"name"`
		Columns []ParsedColumn `json:"columns"`
	}

	ParsedColumn struct {
		Name string          `json:"name"`
		Type types.FieldType `json:"type"`
		// table.column a link column references
		Link       string                     `json:"link,omitempty"`
		Properties map[props.FieldProp]string `json:"properties"`
	}
)

// Nullable reports whether a selected row may hold null in the column.
func (c ParsedColumn) Nullable() bool {
	for _, p := range []props.FieldProp{
		props.FieldPropNotNull, props.FieldPropPrimaryKey,
		props.FieldPropUniqueKey, props.FieldPropAutoIncrement,
	} {
		if c.Properties[p] == "true" {
			return false
		}
	}
	return true
}

func schemaDestructure(decls []*parser.TableDecl) ([]ParsedTable, error) {
	res := make([]ParsedTable, 0, len(decls))
	for _, decl := range decls {
		columns := make([]ParsedColumn, 0, len(decl.Columns))
		for _, data := range decl.Columns {
			col := ParsedColumn{
				Name:       data.Name,
				Type:       types.BaseType(data.Type),
				Properties: data.Properties,
			}
			if col.Type == types.FieldTypeLink {
				table, column, err := props.ParseLinkPropSafe(data.Type)
				if err != nil {
					return nil, err
				}
				col.Link = table + "." + column
			}
			columns = append(columns, col)
		}
		res = append(res, ParsedTable{decl.Name, columns})
	}
	return res, nil
}

func SchemaToJson(s []ParsedTable) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
