package generate

import (
	"fmt"

	"github.com/tobsdb/jqldb/internal/types"
)

func SchemaToTypescript(s []ParsedTable) []byte {
	res := "export type Schema = {\n"
	for _, t := range s {
		res += fmt.Sprintf("\t%s: {\n%s\n\t};\n", t.Name, columnsToTypescript(t.Columns))
	}
	res += "};\n"
	return []byte(res)
}

func columnsToTypescript(columns []ParsedColumn) string {
	res := ""
	for i, c := range columns {
		res += fmt.Sprintf("\t\t%s: %s;", c.Name, jqlTypeToTypescript(c))
		if c.Link != "" {
			res += " // link(" + c.Link + ")"
		}
		if i < len(columns)-1 {
			res += "\n"
		}
	}
	return res
}

func jqlTypeToTypescript(c ParsedColumn) string {
	res := ""
	switch c.Type {
	case types.FieldTypeInt, types.FieldTypeFloat, types.FieldTypeLink:
		res = "number"
	case types.FieldTypeString, types.FieldTypeChar:
		res = "string"
	case types.FieldTypeBool:
		res = "boolean"
	case types.FieldTypeArray:
		res = "unknown[]"
	}
	if c.Nullable() {
		res += " | null"
	}
	return res
}
