package schema_test

import (
	"testing"

	"github.com/tobsdb/jqldb/internal/errs"
	. "github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/internal/types"
	"gotest.tools/v3/assert"
)

func TestCoerce(t *testing.T) {
	two, wide := int64(2), int64(400)
	cases := []struct {
		col  Column
		in   types.Value
		want types.Value
	}{
		{Column{Type: "bool"}, types.String("false"), types.Bool(false)},
		{Column{Type: "bool"}, types.Int(3), types.Bool(true)},
		{Column{Type: "int"}, types.String("42"), types.Int(42)},
		{Column{Type: "int"}, types.Float(4.9), types.Int(4)},
		{Column{Type: "float"}, types.Int(3), types.Float(3)},
		{Column{Type: "float", MaxLength: &two}, types.Float(3.14159), types.Float(3.14)},
		{Column{Type: "float", MaxLength: &wide}, types.Float(3.14159), types.Float(3.14159)},
		{Column{Type: "string"}, types.Int(12), types.String("12")},
		{Column{Type: "string", MaxLength: &two}, types.String("héllo"), types.String("hé")},
		{Column{Type: "char"}, types.String("xyz"), types.String("x")},
		{Column{Type: "array"}, types.Int(1), types.Array(types.Int(1))},
		{Column{Type: "int"}, types.Null(), types.Null()},
		{Column{Type: "link(a.b)"}, types.String("k"), types.String("k")},
	}

	for _, c := range cases {
		got, err := c.col.Coerce(c.in)
		assert.NilError(t, err)
		assert.Assert(t, got.Equal(c.want) && got.Kind() == c.want.Kind(),
			"%s(%s): got %s", c.col.Type, c.in, got)
	}

	_, err := (&Column{Name: "n", Type: "float"}).Coerce(types.String("abc"))
	assert.Assert(t, errs.Is(err, errs.InvalidValue))
}
