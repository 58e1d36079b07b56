package parser_test

import (
	"errors"
	"testing"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/parser"
	"gotest.tools/v3/assert"
)

func TestSplitStatements(t *testing.T) {
	text := `// seed data
users.insert(
    'bob',
    20
);

// another one
users.select(*)
    .where(age>18);;
`
	assert.DeepEqual(t, parser.SplitStatements(text), []string{
		"users.insert('bob',20)",
		"users.select(*).where(age>18)",
	})
}

func TestSplitStatementsEscapedSemicolon(t *testing.T) {
	stmts := parser.SplitStatements(`t.insert('a\;b'); t.select(*)`)
	assert.DeepEqual(t, stmts, []string{`t.insert('a\;b')`, "t.select(*)"})
}

func TestMultilineParse(t *testing.T) {
	queries, err := parser.MultilineParse("a.select(x);\nb.count(*)")
	assert.NilError(t, err)
	assert.Equal(t, len(queries), 2)
	assert.Equal(t, queries[1].Table, "b")
}

func TestMultilineParseReportsStatementIndex(t *testing.T) {
	_, err := parser.MultilineParse("a.select(x); b.bogus()")

	var merr *errs.MultilineError
	assert.Assert(t, errors.As(err, &merr))
	assert.Equal(t, merr.Index, 2)
	assert.Assert(t, errs.Is(err, errs.UnsupportedAction))
}

func TestMultilineParseSkipsBlankStatements(t *testing.T) {
	_, err := parser.MultilineParse(";;\n// c\n;a.select(x);\n\n;b")

	var merr *errs.MultilineError
	assert.Assert(t, errors.As(err, &merr))
	assert.Equal(t, merr.Index, 2)
	assert.Assert(t, errs.Is(err, errs.NotAQuery))
}
