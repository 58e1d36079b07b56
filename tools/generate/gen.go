// Package generate renders `$TABLE` declarations as row types for client
// code.
package generate

import (
	"fmt"

	"github.com/tobsdb/jqldb/internal/parser"
)

func SchemaToLang(decls []*parser.TableDecl, lang string) ([]byte, error) {
	s, err := schemaDestructure(decls)
	if err != nil {
		return nil, err
	}
	switch lang {
	case "json":
		return SchemaToJson(s)
	case "typescript", "ts":
		return SchemaToTypescript(s), nil
	case "rust", "rs":
		return SchemaToRust(s), nil
	case "golang", "go":
		return SchemaToGo(s), nil
	default:
		return nil, fmt.Errorf("Unsupported Language: %s", lang)
	}
}
