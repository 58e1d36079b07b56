package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/types"
)

// Markers forcing the type of a literal.
const (
	MarkerBool  = ":bool:"
	MarkerNull  = ":null:"
	MarkerArray = ":array:"
)

const trimChars = "'`"

var (
	quotedRe = regexp.MustCompile(`(?s)^'(.*)'$`)
	callRe   = regexp.MustCompile(`(?s)^(\w+)\((.*)\)$`)
)

// ParseValue parses one literal token of a query argument.
func ParseValue(raw string) (types.Value, error) {
	value := strings.TrimSpace(raw)
	lower := strings.ToLower(value)

	switch {
	case value == "":
		return types.String(""), nil
	case strings.HasPrefix(value, MarkerBool):
		rest := unescapeReserved(strings.Trim(strings.TrimPrefix(value, MarkerBool), trimChars))
		return types.Bool(types.String(rest).Truthy()), nil
	case lower == "false":
		return types.Bool(false), nil
	case lower == "true":
		return types.Bool(true), nil
	case strings.HasPrefix(value, MarkerNull) || lower == "null":
		return types.Null(), nil
	case strings.HasPrefix(value, MarkerArray):
		return parseArray(strings.TrimPrefix(value, MarkerArray))
	case quotedRe.MatchString(value):
		return types.String(unescapeReserved(strings.Trim(value, trimChars))), nil
	}

	if m := callRe.FindStringSubmatch(value); m != nil {
		return evalCall(m[1], m[2])
	}

	number := unescapeReserved(value)
	if i, err := strconv.ParseInt(number, 10, 64); err == nil {
		return types.Int(i), nil
	}
	if f, err := strconv.ParseFloat(number, 64); err == nil {
		return types.Float(f), nil
	}
	return types.Value{}, errs.Parse(errs.UnparsableValue, "Unparsable value: %s", unescapeReserved(value))
}

// ParseValues parses every raw token in order.
func ParseValues(raws []string) ([]types.Value, error) {
	values := make([]types.Value, 0, len(raws))
	for _, raw := range raws {
		v, err := ParseValue(raw)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func parseArray(rest string) (types.Value, error) {
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		items, err := ParseValues(splitArgs(rest[1 : len(rest)-1]))
		if err != nil {
			return types.Value{}, err
		}
		return types.Array(items...), nil
	}
	v, err := ParseValue(rest)
	if err != nil {
		return types.Value{}, err
	}
	if v.IsArray() {
		return v, nil
	}
	return types.Array(v), nil
}
