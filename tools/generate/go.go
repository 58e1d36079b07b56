package generate

import (
	"fmt"

	"github.com/tobsdb/jqldb/internal/types"
)

func SchemaToGo(s []ParsedTable) []byte {
	res := "package schema\n"
	for _, t := range s {
		res += fmt.Sprintf("\ntype %s struct {\n%s\n}\n",
			toPascalCase(t.Name), columnsToGo(t.Columns))
	}
	return []byte(res)
}

func columnsToGo(columns []ParsedColumn) string {
	res := ""
	for i, c := range columns {
		res += fmt.Sprintf("\t%s %s `json:\"%s\"`",
			toPascalCase(c.Name), jqlTypeToGo(c), c.Name)
		if c.Link != "" {
			res += " // link(" + c.Link + ")"
		}
		if i < len(columns)-1 {
			res += "\n"
		}
	}
	return res
}

func jqlTypeToGo(c ParsedColumn) string {
	res := ""
	switch c.Type {
	case types.FieldTypeInt, types.FieldTypeLink:
		res = "int64"
	case types.FieldTypeFloat:
		res = "float64"
	case types.FieldTypeString, types.FieldTypeChar:
		res = "string"
	case types.FieldTypeBool:
		res = "bool"
	case types.FieldTypeArray:
		// nil already stands for null
		return "[]any"
	}
	if c.Nullable() {
		res = "*" + res
	}
	return res
}
