package parser

import (
	"regexp"
	"strings"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/types"
)

type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

type Order struct {
	Column    string
	Direction Direction
}

type Limit struct {
	Offset int64
	Count  int64
}

type Operator string

// Operators in matching precedence: longer operators win over their prefixes.
var OPERATORS = []Operator{"%!", "%=", "!=", "<>", "<=", ">=", "=", "<", ">"}

type Condition struct {
	Field    string
	Operator Operator
	Value    types.Value
}

// Filter is the AND-chain of conditions of one where() clause.
type Filter []Condition

// On is an on(column, action(args)) directive.
type On struct {
	Column string
	Action string
	Args   []string
}

// Extensions are the optional clauses chained after the action. where, and
// and on accumulate; the others keep their last occurrence.
type Extensions struct {
	Order *Order
	Where []Filter
	And   [][]types.Value
	Limit *Limit
	In    []string
	With  []types.Value
	As    []string
	Group string
	On    []On

	has map[string]bool
}

// Has reports whether the named extension occurred in the query.
func (e *Extensions) Has(name string) bool { return e.has[name] }

var identifierRe = regexp.MustCompile(`^[A-Za-z_#][A-Za-z0-9_]*$`)

func IsIdentifier(s string) bool { return identifierRe.MatchString(s) }

func parseIdentifiers(ext string, args []string) ([]string, error) {
	ids := make([]string, len(args))
	for i, arg := range args {
		arg = unescapeReserved(arg)
		if !IsIdentifier(arg) {
			return nil, errs.Parse(errs.InvalidIdentifier, "Invalid identifier %q in %s()", arg, ext)
		}
		ids[i] = arg
	}
	return ids, nil
}

func (e *Extensions) parse(name, body string) error {
	name = strings.ToLower(name)
	args := splitArgs(body)

	var err error
	switch name {
	case "order":
		e.Order, err = parseOrder(args)
	case "where":
		var f Filter
		f, err = parseWhere(args)
		e.Where = append(e.Where, f)
	case "and":
		var row []types.Value
		row, err = ParseValues(args)
		e.And = append(e.And, row)
	case "limit":
		e.Limit, err = parseLimit(args)
	case "in":
		e.In, err = parseIdentifiers(name, args)
	case "with":
		e.With, err = ParseValues(args)
	case "as":
		e.As, err = parseAliases(args)
	case "group":
		e.Group, err = parseGroup(args)
	case "on":
		var on On
		on, err = parseOn(args)
		e.On = append(e.On, on)
	default:
		return errs.Parse(errs.UnknownExtension, "The query extension %s is not supported", name)
	}
	if err != nil {
		return err
	}

	if e.has == nil {
		e.has = map[string]bool{}
	}
	e.has[name] = true
	return nil
}

func parseOrder(args []string) (*Order, error) {
	if len(args) == 0 {
		return nil, errs.Parse(errs.InvalidIdentifier, "order() needs a column")
	}
	if len(args) > 2 {
		return nil, errs.Parse(errs.TooManyArgs, "order() takes at most 2 arguments, got %d", len(args))
	}
	ids, err := parseIdentifiers("order", args[:1])
	if err != nil {
		return nil, err
	}
	order := &Order{Column: ids[0], Direction: DirectionAsc}
	if len(args) == 2 {
		switch dir := Direction(strings.ToLower(args[1])); dir {
		case DirectionAsc, DirectionDesc:
			order.Direction = dir
		default:
			return nil, errs.Parse(errs.InvalidDirection, "Invalid order direction: %s", args[1])
		}
	}
	return order, nil
}

func parseWhere(args []string) (Filter, error) {
	filter := make(Filter, 0, len(args))
	for _, arg := range args {
		c, err := parseCondition(arg)
		if err != nil {
			return nil, err
		}
		filter = append(filter, c)
	}
	return filter, nil
}

// parseCondition splits at the leftmost operator, preferring the operator
// listed first when several match at the same position.
func parseCondition(cond string) (Condition, error) {
	at, op := -1, Operator("")
	for _, candidate := range OPERATORS {
		idx := strings.Index(cond, string(candidate))
		if idx >= 0 && (at < 0 || idx < at) {
			at, op = idx, candidate
		}
	}
	if at < 0 {
		return Condition{}, errs.Parse(errs.NoOperatorFound, "No valid operator found in condition: %s", unescapeReserved(cond))
	}

	field := unescapeReserved(strings.TrimSpace(cond[:at]))
	if !IsIdentifier(field) {
		return Condition{}, errs.Parse(errs.InvalidIdentifier, "Invalid identifier %q in where()", field)
	}
	value, err := ParseValue(cond[at+len(op):])
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: field, Operator: op, Value: value}, nil
}

func parseLimit(args []string) (*Limit, error) {
	if len(args) == 0 {
		return nil, errs.Parse(errs.UnparsableValue, "limit() needs at least one argument")
	}
	if len(args) > 2 {
		return nil, errs.Parse(errs.TooManyArgs, "limit() takes at most 2 arguments, got %d", len(args))
	}
	nums := make([]int64, len(args))
	for i, arg := range args {
		v, err := ParseValue(arg)
		if err != nil {
			return nil, err
		}
		n, ok := v.Integer()
		if !ok || n < 0 {
			return nil, errs.Parse(errs.UnparsableValue, "limit() arguments must be positive integers, got %s", v)
		}
		nums[i] = n
	}
	if len(nums) == 1 {
		return &Limit{Offset: 0, Count: nums[0]}, nil
	}
	return &Limit{Offset: nums[0], Count: nums[1]}, nil
}

// aliases accept the same shapes as identifiers, plus quoted strings
func parseAliases(args []string) ([]string, error) {
	aliases := make([]string, len(args))
	for i, arg := range args {
		if quotedRe.MatchString(arg) {
			aliases[i] = unescapeReserved(strings.Trim(arg, trimChars))
			continue
		}
		ids, err := parseIdentifiers("as", []string{arg})
		if err != nil {
			return nil, err
		}
		aliases[i] = ids[0]
	}
	return aliases, nil
}

func parseGroup(args []string) (string, error) {
	if len(args) != 1 {
		return "", errs.Parse(errs.TooManyArgs, "group() takes exactly 1 argument, got %d", len(args))
	}
	ids, err := parseIdentifiers("group", args)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func parseOn(args []string) (On, error) {
	if len(args) != 2 {
		return On{}, errs.Parse(errs.TooManyArgs, "on() takes exactly 2 arguments, got %d", len(args))
	}
	ids, err := parseIdentifiers("on", args[:1])
	if err != nil {
		return On{}, err
	}
	name, body, ok := ParseCall(args[1])
	if !ok {
		return On{}, errs.Parse(errs.MalformedExtension, "Malformed on() directive: %s", unescapeReserved(args[1]))
	}
	if name = strings.ToLower(name); name != "link" {
		return On{}, errs.Parse(errs.UnknownExtension, "The on() directive %s is not supported", name)
	}
	cols := splitArgs(body)
	for i := range cols {
		cols[i] = unescapeReserved(cols[i])
	}
	return On{Column: ids[0], Action: name, Args: cols}, nil
}
