package parser

import "strings"

// reserved characters are swapped for placeholders before splitting so that
// `\.` or `\,` inside values survive the naive splits of the query grammar.
var reservedEscapes = []struct{ seq, placeholder, literal string }{
	{`\.`, "{{jql:dot}}", "."},
	{`\,`, "{{jql:comma}}", ","},
	{`\(`, "{{jql:lparen}}", "("},
	{`\)`, "{{jql:rparen}}", ")"},
	{`\;`, "{{jql:semicolon}}", ";"},
	{`\'`, "{{jql:quote}}", "'"},
	{"\\\r\n", "{{jql:crlf}}", "\r\n"},
	{"\\\n", "{{jql:lf}}", "\n"},
	{`\n`, "{{jql:nl}}", "\n"},
	{`\r`, "{{jql:cr}}", "\r"},
}

func escapeReserved(s string) string {
	for _, e := range reservedEscapes {
		s = strings.ReplaceAll(s, e.seq, e.placeholder)
	}
	return s
}

func unescapeReserved(s string) string {
	for _, e := range reservedEscapes {
		s = strings.ReplaceAll(s, e.placeholder, e.literal)
	}
	return s
}

// splitTopLevel splits s on sep, ignoring separators nested in parentheses
// or inside single-quoted strings.
func splitTopLevel(s string, sep byte) []string {
	parts := []string{}
	depth, start := 0, 0
	in_quote := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			in_quote = !in_quote
		case in_quote:
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// splitArgs splits a parenthesised body into trimmed arguments; an empty
// body has no arguments.
func splitArgs(body string) []string {
	if strings.TrimSpace(body) == "" {
		return []string{}
	}
	args := splitTopLevel(body, ',')
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return args
}
