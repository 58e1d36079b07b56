// Package parser compiles JQL query strings, e.g.
//
//	users.select(name,age).where(age>18).order(age,desc)
//
// into a Query descriptor the executor can run.
package parser

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/types"
)

type Action string

const (
	ActionSelect   Action = "select"
	ActionInsert   Action = "insert"
	ActionReplace  Action = "replace"
	ActionDelete   Action = "delete"
	ActionUpdate   Action = "update"
	ActionTruncate Action = "truncate"
	ActionCount    Action = "count"
	ActionMin      Action = "min"
	ActionMax      Action = "max"
	ActionSum      Action = "sum"
	ActionAvg      Action = "avg"
)

var SUPPORTED_ACTIONS = []Action{
	ActionSelect, ActionInsert, ActionReplace, ActionDelete, ActionUpdate,
	ActionTruncate, ActionCount, ActionMin, ActionMax, ActionSum, ActionAvg,
}

func (a Action) IsValid() bool { return slices.Contains(SUPPORTED_ACTIONS, a) }

// IsReadOnly reports whether the action never writes the table back.
func (a Action) IsReadOnly() bool {
	switch a {
	case ActionSelect, ActionCount, ActionMin, ActionMax, ActionSum, ActionAvg:
		return true
	}
	return false
}

// takes literal values rather than column names
func (a Action) parsesValues() bool { return a == ActionInsert || a == ActionReplace }

type Query struct {
	Table      string
	Action     Action
	Parameters []types.Value
	Extensions Extensions

	ParseTime time.Duration
}

// Columns returns the parameters as column names.
func (q *Query) Columns() []string {
	cols := make([]string, len(q.Parameters))
	for i, p := range q.Parameters {
		cols[i] = p.String()
	}
	return cols
}

var partRe = regexp.MustCompile(`(?s)^\s*(\w+)\s*\((.*)\)\s*$`)

// Parse compiles a single query.
func Parse(query string) (*Query, error) {
	start := time.Now()

	parts := strings.Split(escapeReserved(query), ".")
	table := strings.TrimSpace(unescapeReserved(parts[0]))
	if table == "" {
		return nil, errs.Parse(errs.MissingTable, "No table name found in query: %s", query)
	}
	if len(parts) < 2 {
		return nil, errs.Parse(errs.NotAQuery, "This is not a query: %s", query)
	}

	q := &Query{Table: table}
	for i, part := range parts[1:] {
		m := partRe.FindStringSubmatch(part)
		if m == nil {
			return nil, errs.Parse(errs.MalformedExtension,
				"Malformed query part: %s", strings.TrimSpace(unescapeReserved(part)))
		}
		name, body := m[1], m[2]

		if i == 0 {
			if err := q.parseAction(name, body); err != nil {
				return nil, err
			}
			continue
		}
		if err := q.Extensions.parse(name, body); err != nil {
			return nil, err
		}
	}

	q.ParseTime = time.Since(start)
	return q, nil
}

func (q *Query) parseAction(name, body string) error {
	action := Action(strings.ToLower(name))
	if !action.IsValid() {
		return errs.Parse(errs.UnsupportedAction, "The query action %s is not supported", name)
	}
	q.Action = action

	args := splitArgs(body)
	if action.parsesValues() {
		values, err := ParseValues(args)
		if err != nil {
			return err
		}
		q.Parameters = values
		return nil
	}

	q.Parameters = make([]types.Value, len(args))
	for i, arg := range args {
		q.Parameters[i] = types.String(unescapeReserved(arg))
	}
	return nil
}
