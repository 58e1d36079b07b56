package query

import (
	"testing"

	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/types"
	"gotest.tools/v3/assert"
)

func TestCompareValues(t *testing.T) {
	assert.Equal(t, compareValues(types.Int(10), types.Int(9)), 1)
	assert.Equal(t, compareValues(types.String("10"), types.Int(9)), 1, "numeric strings compare as numbers")
	assert.Equal(t, compareValues(types.String("10"), types.String("9")), 1)
	assert.Equal(t, compareValues(types.String("b"), types.String("a")), 1)
	assert.Equal(t, compareValues(types.String("B"), types.String("a")), -1, "ordinal comparison")
	assert.Equal(t, compareValues(types.Float(1.5), types.Int(2)), -1)
	assert.Equal(t, compareValues(types.Null(), types.Int(0)), -1)
}

func TestMatches(t *testing.T) {
	cases := []struct {
		op      parser.Operator
		value   types.Value
		operand types.Value
		want    bool
	}{
		{"=", types.Int(5), types.Int(5), true},
		{"=", types.String("5"), types.Int(5), true},
		{"=", types.String("bob"), types.String("bob"), true},
		{"=", types.Null(), types.Null(), true},
		{"=", types.Null(), types.String(""), false},
		{"=", types.Bool(true), types.Int(1), true},
		{"!=", types.Int(5), types.Int(6), true},
		{"<>", types.Int(5), types.Int(5), false},
		{"<", types.Int(5), types.Int(10), true},
		{">", types.Int(5), types.Int(10), false},
		{"<=", types.Int(10), types.Int(10), true},
		{">=", types.Int(15), types.Int(10), true},
		{">=", types.Null(), types.Int(10), false},
		{"%=", types.Int(15), types.Int(5), true},
		{"%=", types.Int(12), types.Int(5), false},
		{"%=", types.Int(12), types.Int(0), false},
		{"%!", types.Int(12), types.Int(5), true},
		{"%=", types.String("x"), types.Int(5), false},
	}
	for _, c := range cases {
		assert.Equal(t, matches(c.op, c.value, c.operand), c.want, "%s %s %s", c.value, c.op, c.operand)
	}
}
