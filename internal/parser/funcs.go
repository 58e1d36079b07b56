package parser

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/types"
)

// Now is the clock used by time() and now().
var Now = time.Now

const DefaultDateFormat = "%Y-%m-%d %H:%M:%S"

type queryFunc struct {
	min_args, max_args int
	call               func(args []types.Value) types.Value
}

var functions = map[string]queryFunc{
	"sha1": {1, 1, func(args []types.Value) types.Value {
		sum := sha1.Sum([]byte(args[0].String()))
		return types.String(hex.EncodeToString(sum[:]))
	}},
	"md5": {1, 1, func(args []types.Value) types.Value {
		sum := md5.Sum([]byte(args[0].String()))
		return types.String(hex.EncodeToString(sum[:]))
	}},
	"time": {0, 0, func([]types.Value) types.Value {
		return types.Int(Now().Unix())
	}},
	"now": {0, 1, func(args []types.Value) types.Value {
		format := DefaultDateFormat
		if len(args) == 1 {
			format = args[0].String()
		}
		return types.String(Strftime(Now(), format))
	}},
	"lowercase": {1, 1, func(args []types.Value) types.Value {
		return types.String(strings.ToLower(args[0].String()))
	}},
	"uppercase": {1, 1, func(args []types.Value) types.Value {
		return types.String(strings.ToUpper(args[0].String()))
	}},
	"ucfirst": {1, 1, func(args []types.Value) types.Value {
		s := args[0].String()
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return types.String(s)
		}
		return types.String(string(unicode.ToUpper(r)) + s[size:])
	}},
	"strlen": {1, 1, func(args []types.Value) types.Value {
		return types.Int(int64(utf8.RuneCountInString(args[0].String())))
	}},
}

// IsFunction reports whether name is in the function table.
func IsFunction(name string) bool {
	_, ok := functions[strings.ToLower(name)]
	return ok
}

// CallFunction applies a function of the query language to already parsed
// arguments.
func CallFunction(name string, args []types.Value) (types.Value, error) {
	f, ok := functions[strings.ToLower(name)]
	if !ok {
		return types.Value{}, errs.Parse(errs.UnknownFunction, "Unknown function: %s", name)
	}
	if len(args) < f.min_args || len(args) > f.max_args {
		if f.min_args == f.max_args {
			return types.Value{}, errs.Parse(errs.ArityError,
				"Function %s expects %d argument(s), got %d", name, f.min_args, len(args))
		}
		return types.Value{}, errs.Parse(errs.ArityError,
			"Function %s expects %d to %d arguments, got %d", name, f.min_args, f.max_args, len(args))
	}
	return f.call(args), nil
}

// ParseCall matches a `name(args)` expression.
func ParseCall(s string) (name string, body string, ok bool) {
	m := callRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func evalCall(name, body string) (types.Value, error) {
	args, err := ParseValues(splitArgs(body))
	if err != nil {
		return types.Value{}, err
	}
	return CallFunction(name, args)
}

// ParseColumnCall matches a projected column such as sha1(name). Arguments
// are returned raw so the caller can resolve column names before literals.
func ParseColumnCall(s string) (name string, args []string, ok bool) {
	name, body, ok := ParseCall(s)
	if !ok || !IsFunction(name) {
		return "", nil, false
	}
	args = splitArgs(body)
	for i := range args {
		args[i] = unescapeReserved(args[i])
	}
	return name, args, true
}
