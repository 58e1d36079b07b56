package parser_test

import (
	"testing"

	. "github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/props"
	"gotest.tools/v3/assert"
)

func TestLineParser(t *testing.T) {
	t.Run("table declaration", func(t *testing.T) {
		state, data, err := LineParser("$TABLE a {")

		assert.NilError(t, err)
		assert.Equal(t, state, ParserStateTableStart)
		assert.Equal(t, data.Name, "a")
	})

	t.Run("table missing name", func(t *testing.T) {
		state, _, err := LineParser("$TABLE {")

		assert.ErrorContains(t, err, "Invalid line")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("table name with space", func(t *testing.T) {
		state, _, err := LineParser("$TABLE a b {")

		assert.ErrorContains(t, err, "Table name cannot include space")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("table name invalid character", func(t *testing.T) {
		state, _, err := LineParser("$TABLE a-b {")

		assert.ErrorContains(t, err, "Table name contains invalid characters")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("table declaration end", func(t *testing.T) {
		state, _, err := LineParser("}")

		assert.NilError(t, err)
		assert.Equal(t, state, ParserStateTableEnd)
	})

	t.Run("field declaration", func(t *testing.T) {
		state, data, err := LineParser("name string max_length(30) not_null default('a b')")

		assert.NilError(t, err)
		assert.Equal(t, state, ParserStateNewField)
		assert.Equal(t, data.Name, "name")
		assert.Equal(t, data.Type, "string")
		assert.DeepEqual(t, data.Properties, map[props.FieldProp]string{
			props.FieldPropMaxLength: "30",
			props.FieldPropNotNull:   "true",
			props.FieldPropDefault:   "'a b'",
		})
	})

	t.Run("link field", func(t *testing.T) {
		_, data, err := LineParser("author link(users.id)")
		assert.NilError(t, err)
		assert.Equal(t, data.Type, "link(users.id)")
	})

	t.Run("invalid type", func(t *testing.T) {
		_, _, err := LineParser("a date")
		assert.ErrorContains(t, err, "Invalid field type: date")
	})

	t.Run("invalid prop", func(t *testing.T) {
		_, _, err := LineParser("a int optional")
		assert.ErrorContains(t, err, "Invalid field prop: optional")
	})

	t.Run("reserved column", func(t *testing.T) {
		_, _, err := LineParser("last_insert_id int")
		assert.ErrorContains(t, err, "Invalid column name: last_insert_id")
	})
}

func TestParseSchema(t *testing.T) {
	decls, err := ParseSchema(`
// users of the app
$TABLE users {
    id int primary_key auto_increment
    name string unique_key
}

$TABLE posts {
    title string
    author link(users.id)
}`)
	assert.NilError(t, err)
	assert.Equal(t, len(decls), 2)
	assert.Equal(t, decls[0].Name, "users")
	assert.Equal(t, decls[0].Columns[1].Name, "name")
	assert.Equal(t, decls[1].Columns[1].Type, "link(users.id)")

	_, err = ParseSchema("$TABLE a {\n b int\n b int\n}")
	assert.ErrorContains(t, err, "Error parsing line 3: Duplicate field b")

	_, err = ParseSchema("$TABLE a {\n b int\n")
	assert.ErrorContains(t, err, "Table a is never closed")
}
