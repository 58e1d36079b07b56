package schema_test

import (
	"os"
	"testing"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/parser"
	. "github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/internal/types"
	"gotest.tools/v3/assert"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	store := NewStore(t.TempDir())
	assert.NilError(t, store.CreateServer("local"))
	db, err := store.CreateDatabase("local", "app")
	assert.NilError(t, err)
	return db
}

func ptr[T any](v T) *T { return &v }

func TestCreateTable(t *testing.T) {
	db := newTestDatabase(t)

	err := db.CreateTable("users", []ColumnSpec{
		{Name: "id", Type: "string", AutoIncrement: true, MaxLength: ptr(int64(3))},
		{Name: "name", Type: "String", MaxLength: ptr(int64(4)), Default: ptr(types.String("anonymous"))},
		{Name: "admin", Type: "bool", MaxLength: ptr(int64(2)), Default: ptr(types.Int(0))},
	})
	assert.NilError(t, err)

	data, err := os.ReadFile(db.TablePath("users"))
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{"prototype":["#rowid","id","name","admin"],"properties":{`+
		`"id":{"type":"int","default":null,"max_length":null,"not_null":true,"primary_key":false,"unique_key":true,"auto_increment":true},`+
		`"name":{"type":"string","default":"anon","max_length":4,"not_null":false,"primary_key":false,"unique_key":false,"auto_increment":false},`+
		`"admin":{"type":"bool","default":false,"max_length":null,"not_null":false,"primary_key":false,"unique_key":false,"auto_increment":false},`+
		`"last_insert_id":0,"last_valid_row_id":0,"last_link_id":0,"primary_keys":[],"unique_keys":["id"]},"data":{}}`)

	doc, err := GetTableData(db.TablePath("users"))
	assert.NilError(t, err)
	assert.DeepEqual(t, doc.UserColumns(), []string{"id", "name", "admin"})
	assert.Equal(t, doc.Properties.AutoIncrement().Name, "id")

	tables, err := db.ListTables()
	assert.NilError(t, err)
	assert.DeepEqual(t, tables, []string{"users"})
}

func TestCreateTableErrors(t *testing.T) {
	db := newTestDatabase(t)
	assert.NilError(t, db.CreateTable("users", []ColumnSpec{
		{Name: "id", Type: "int", PrimaryKey: true},
		{Name: "email", Type: "string"},
	}))

	cases := map[string]struct {
		table string
		specs []ColumnSpec
		code  errs.Code
	}{
		"missing name":   {"", []ColumnSpec{{Name: "a", Type: "int"}}, errs.InvalidSchema},
		"duplicate":      {"users", []ColumnSpec{{Name: "a", Type: "int"}}, errs.DuplicateTable},
		"no columns":     {"empty", nil, errs.InvalidSchema},
		"dup column":     {"t", []ColumnSpec{{Name: "a", Type: "int"}, {Name: "a", Type: "int"}}, errs.DuplicateColumn},
		"bad type":       {"t", []ColumnSpec{{Name: "a", Type: "date"}}, errs.UnsupportedType},
		"reserved":       {"t", []ColumnSpec{{Name: "#rowid", Type: "int"}}, errs.InvalidIdentifier},
		"two increments": {"t", []ColumnSpec{{Name: "a", Type: "int", AutoIncrement: true}, {Name: "b", Type: "int", AutoIncrement: true}}, errs.InvalidSchema},
		"missing target": {"t", []ColumnSpec{{Name: "a", Type: "link(posts.id)"}}, errs.InvalidLink},
		"missing column": {"t", []ColumnSpec{{Name: "a", Type: "link(users.uid)"}}, errs.InvalidLink},
		"not a key":      {"t", []ColumnSpec{{Name: "a", Type: "link(users.email)"}}, errs.InvalidLink},
		"bad link":       {"t", []ColumnSpec{{Name: "a", Type: "link(users)"}}, errs.InvalidLink},
		"bad default":    {"t", []ColumnSpec{{Name: "a", Type: "int", Default: ptr(types.String("x"))}}, errs.InvalidSchema},
		"link default":   {"t", []ColumnSpec{{Name: "a", Type: "link(users.id)", Default: ptr(types.Int(1))}}, errs.InvalidSchema},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := db.CreateTable(c.table, c.specs)
			assert.Assert(t, errs.Is(err, c.code), "got %v", err)
			assert.Assert(t, c.table == "users" || !db.HasTable(c.table))
		})
	}
}

func TestCreateTableLinks(t *testing.T) {
	db := newTestDatabase(t)
	assert.NilError(t, db.CreateTable("users", []ColumnSpec{
		{Name: "id", Type: "int", PrimaryKey: true},
	}))
	assert.NilError(t, db.CreateTable("posts", []ColumnSpec{
		{Name: "id", Type: "int", AutoIncrement: true},
		{Name: "author", Type: "LINK(users.id)", Default: ptr(types.Null())},
		{Name: "parent", Type: "link(posts.id)"},
	}))

	doc, err := GetTableData(db.TablePath("posts"))
	assert.NilError(t, err)
	author, _ := doc.Column("author")
	assert.Equal(t, author.Type, "link(users.id)")
	assert.Assert(t, !author.HasDefault())

	table, column, ok := author.Link()
	assert.Assert(t, ok)
	assert.Equal(t, table, "users")
	assert.Equal(t, column, "id")
}

func TestCreateTableFromDecl(t *testing.T) {
	db := newTestDatabase(t)
	decls, err := parser.ParseSchema(`
$TABLE users {
    id int primary_key
    name string max_length(5) default('nobody here') not_null
    score float max_length(1) default(2.25)
}`)
	assert.NilError(t, err)

	specs, err := ColumnSpecsFromDecl(decls[0])
	assert.NilError(t, err)
	assert.NilError(t, db.CreateTable(decls[0].Name, specs))

	doc, err := GetTableData(db.TablePath("users"))
	assert.NilError(t, err)
	name, _ := doc.Column("name")
	assert.Assert(t, name.NotNull)
	assert.Equal(t, name.Default.String(), "nobod")
	score, _ := doc.Column("score")
	assert.Equal(t, score.Default.String(), "2.3")
	assert.DeepEqual(t, doc.Properties.PrimaryKeys, []string{"id"})
}

func TestCreateTables(t *testing.T) {
	db := newTestDatabase(t)
	created, err := db.CreateTables(`
// accounts first, posts link to them
$TABLE accounts {
    id int auto_increment
    email string unique_key
}

$TABLE posts {
    id int primary_key
    owner link(accounts.email)
}`)
	assert.NilError(t, err)
	assert.DeepEqual(t, created, []string{"accounts", "posts"})
	tables, err := db.ListTables()
	assert.NilError(t, err)
	assert.DeepEqual(t, tables, []string{"accounts", "posts"})

	_, err = db.CreateTables("$TABLE broken {\n  id int\n")
	assert.Assert(t, errs.Is(err, errs.InvalidSchema))
	assert.ErrorContains(t, err, "Table broken is never closed")

	created, err = db.CreateTables(`
$TABLE tags {
    name string primary_key
}
$TABLE accounts {
    id int
}`)
	assert.Assert(t, errs.Is(err, errs.DuplicateTable))
	assert.DeepEqual(t, created, []string{"tags"})
}
