package query

import (
	"strings"

	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/types"
)

// integer reads v as an integer for comparisons; bools are not numbers here.
func integer(v types.Value) (int64, bool) {
	if v.Kind() == types.KindBool {
		return 0, false
	}
	return v.Integer()
}

func number(v types.Value) (float64, bool) {
	if v.Kind() == types.KindBool {
		return 0, false
	}
	return v.Number()
}

// compareValues orders numerically when both sides are numbers, otherwise by
// ordinal string comparison. Null sorts first.
func compareValues(a, b types.Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}
	if x, ok := integer(a); ok {
		if y, ok := integer(b); ok {
			return cmpOrdered(x, y)
		}
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmpOrdered(x, y)
		}
	}
	return strings.Compare(a.String(), b.String())
}

func cmpOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func equalValues(a, b types.Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Kind() == types.KindBool || b.Kind() == types.KindBool {
		return a.Truthy() == b.Truthy()
	}
	if a.IsArray() || b.IsArray() || a.Kind() == types.KindObject || b.Kind() == types.KindObject {
		return a.Equal(b)
	}
	return compareValues(a, b) == 0
}

func divisible(a, b types.Value) bool {
	x, ok := integer(a)
	if !ok {
		return false
	}
	y, ok := integer(b)
	if !ok || y == 0 {
		return false
	}
	return x%y == 0
}

// matches applies a where() operator with the row value on the left.
func matches(op parser.Operator, value, operand types.Value) bool {
	switch op {
	case "=":
		return equalValues(value, operand)
	case "!=", "<>":
		return !equalValues(value, operand)
	case "%=":
		return divisible(value, operand)
	case "%!":
		return !divisible(value, operand)
	}

	if value.IsNull() || operand.IsNull() {
		return false
	}
	c := compareValues(value, operand)
	switch op {
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case ">=":
		return c >= 0
	}
	return false
}
