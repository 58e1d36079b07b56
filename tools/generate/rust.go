package generate

import (
	"fmt"

	"github.com/tobsdb/jqldb/internal/types"
)

func SchemaToRust(s []ParsedTable) []byte {
	res := "use serde::{Deserialize, Serialize};\n"
	for _, t := range s {
		res += fmt.Sprintf("\n#[derive(Serialize, Deserialize)]\npub struct %s {\n%s\n}\n",
			toPascalCase(t.Name), columnsToRust(t.Columns))
	}
	return []byte(res)
}

func columnsToRust(columns []ParsedColumn) string {
	res := ""
	for i, c := range columns {
		res += fmt.Sprintf("\tpub %s: %s,", c.Name, jqlTypeToRust(c))
		if i < len(columns)-1 {
			res += "\n"
		}
	}
	return res
}

func jqlTypeToRust(c ParsedColumn) string {
	res := ""
	switch c.Type {
	case types.FieldTypeInt, types.FieldTypeLink:
		res = "i64"
	case types.FieldTypeFloat:
		res = "f64"
	case types.FieldTypeString, types.FieldTypeChar:
		res = "String"
	case types.FieldTypeBool:
		res = "bool"
	case types.FieldTypeArray:
		res = "Vec<serde_json::Value>"
	}
	if c.Nullable() {
		res = fmt.Sprintf("Option<%s>", res)
	}
	return res
}
