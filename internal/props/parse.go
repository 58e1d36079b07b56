package props

import (
	"fmt"
	"strings"
)

// ParseLinkPropSafe splits a "link(table.column)" type declaration.
func ParseLinkPropSafe(declared string) (string, string, error) {
	declared = strings.TrimSpace(declared)
	inner, ok := strings.CutPrefix(strings.ToLower(declared), "link(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return "", "", fmt.Errorf("Invalid syntax: %s", declared)
	}
	// keep the original casing of names
	inner = declared[len("link(") : len(declared)-1]

	parsed_link := strings.Split(inner, ".")
	if len(parsed_link) != 2 {
		return "", "", fmt.Errorf("Invalid syntax: link(%s)", inner)
	}
	table, column := strings.TrimSpace(parsed_link[0]), strings.TrimSpace(parsed_link[1])
	if len(table) == 0 || len(column) == 0 {
		return "", "", fmt.Errorf("Invalid syntax: link(%s)", inner)
	}
	return table, column, nil
}

// FormatLinkProp is the inverse of ParseLinkPropSafe.
func FormatLinkProp(table, column string) string {
	return fmt.Sprintf("link(%s.%s)", table, column)
}
