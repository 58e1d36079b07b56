package schema

import (
	"math"
	"strconv"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/types"
)

func invalidValue(c *Column, v types.Value) error {
	return errs.Constraint(errs.InvalidValue,
		"Invalid value %s for column %s of type %s", v.String(), c.Name, c.Type)
}

// Coerce converts v to the storage shape of the column. Null passes through;
// not_null is checked by the caller. Link values are resolved by the executor.
func (c *Column) Coerce(v types.Value) (types.Value, error) {
	if v.IsNull() {
		return v, nil
	}

	switch c.BaseType() {
	case types.FieldTypeBool:
		return types.Bool(v.Truthy()), nil

	case types.FieldTypeInt:
		if i, ok := v.Integer(); ok {
			return types.Int(i), nil
		}
		if f, ok := v.Number(); ok {
			return types.Int(int64(f)), nil
		}
		return v, invalidValue(c, v)

	case types.FieldTypeFloat:
		f, ok := v.Number()
		if !ok {
			return v, invalidValue(c, v)
		}
		if c.MaxLength != nil {
			// past ~308 digits pow is +Inf and rounding would yield NaN
			if pow := math.Pow(10, float64(*c.MaxLength)); !math.IsInf(pow, 0) {
				f = math.Round(f*pow) / pow
			}
		}
		return types.Float(f), nil

	case types.FieldTypeString:
		s := []rune(v.String())
		if c.MaxLength != nil && int64(len(s)) > *c.MaxLength {
			s = s[:*c.MaxLength]
		}
		return types.String(string(s)), nil

	case types.FieldTypeChar:
		s := []rune(v.String())
		if len(s) == 0 {
			return types.String(""), nil
		}
		return types.String(string(s[0])), nil

	case types.FieldTypeArray:
		if v.IsArray() {
			return v, nil
		}
		return types.Array(v), nil
	}
	return v, nil
}

// ParseMaxLength reads a max_length declaration.
func ParseMaxLength(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, errs.Schema(errs.InvalidSchema, "Invalid max_length %q", raw)
	}
	return n, nil
}
