package parser

import (
	"strings"

	"github.com/tobsdb/jqldb/internal/errs"
)

// SplitStatements splits a block of queries into statements: `//` comment
// lines are dropped, statements end at an unescaped `;` and each statement's
// lines are trimmed and joined without separator. Blank statements are
// skipped.
func SplitStatements(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")

	statements := []string{}
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case ';':
			statements = appendStatement(statements, text[start:i])
			start = i + 1
		}
	}
	return appendStatement(statements, text[start:])
}

func appendStatement(statements []string, raw string) []string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		b.WriteString(line)
		// an escaped line break is kept for the literal parser
		if strings.HasSuffix(line, `\`) {
			b.WriteByte('\n')
		}
	}
	stmt := strings.TrimSpace(b.String())
	if stmt == "" {
		return statements
	}
	return append(statements, stmt)
}

// MultilineParse parses every statement of a block. On failure the returned
// error is an *errs.MultilineError carrying the 1-based statement index.
func MultilineParse(text string) ([]*Query, error) {
	statements := SplitStatements(text)
	queries := make([]*Query, 0, len(statements))
	for i, stmt := range statements {
		q, err := Parse(stmt)
		if err != nil {
			return nil, &errs.MultilineError{Index: i + 1, Err: err}
		}
		queries = append(queries, q)
	}
	return queries, nil
}
