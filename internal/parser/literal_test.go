package parser_test

import (
	"testing"
	"time"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/internal/types"
	"gotest.tools/v3/assert"
)

func TestParseValue(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want types.Value
	}{
		{"", types.String("")},
		{"  ", types.String("")},
		{"TRUE", types.Bool(true)},
		{"false", types.Bool(false)},
		{":bool:1", types.Bool(true)},
		{":bool:0", types.Bool(false)},
		{"null", types.Null()},
		{":null:anything", types.Null()},
		{"42", types.Int(42)},
		{"-7", types.Int(-7)},
		{"'hello'", types.String("hello")},
		{"'`quoted`'", types.String("quoted")},
		{":array:'a'", types.Array(types.String("a"))},
		{":array:(1,'b',true)", types.Array(types.Int(1), types.String("b"), types.Bool(true))},
		{"uppercase('abc')", types.String("ABC")},
		{"strlen('héllo')", types.Int(5)},
		{"ucfirst('bob')", types.String("Bob")},
		{"sha1('abc')", types.String("a9993e364706816aba3e25717850c26c9cd0d89d")},
		{"md5('abc')", types.String("900150983cd24fb0d6963f7d28e17f72")},
	} {
		got, err := parser.ParseValue(tc.raw)
		assert.NilError(t, err, tc.raw)
		assert.Assert(t, got.Kind() == tc.want.Kind(), "%q: got %s", tc.raw, got.Kind())
		assert.Assert(t, got.Equal(tc.want), "%q: got %s", tc.raw, got)
	}
}

func TestParseValueErrors(t *testing.T) {
	_, err := parser.ParseValue("abc")
	assert.Assert(t, errs.Is(err, errs.UnparsableValue))

	_, err = parser.ParseValue("sha1('a','b')")
	assert.Assert(t, errs.Is(err, errs.ArityError))

	_, err = parser.ParseValue("nope('a')")
	assert.Assert(t, errs.Is(err, errs.UnknownFunction))
}

func TestParseValueEscapes(t *testing.T) {
	q, err := parser.Parse(`t.insert('a\,b\.c\(d\)\;\'e', 1\.5)`)
	assert.NilError(t, err)
	assert.Equal(t, len(q.Parameters), 2)
	assert.Equal(t, q.Parameters[0].String(), `a,b.c(d);'e`)

	f, err := q.Parameters[1].AsFloat()
	assert.NilError(t, err)
	assert.Equal(t, f, 1.5)
}

func TestTimeFunctions(t *testing.T) {
	fixed := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)
	parser.Now = func() time.Time { return fixed }
	defer func() { parser.Now = time.Now }()

	v, err := parser.ParseValue("time()")
	assert.NilError(t, err)
	assert.Assert(t, v.Equal(types.Int(fixed.Unix())))

	v, err = parser.ParseValue("now()")
	assert.NilError(t, err)
	assert.Equal(t, v.String(), "2024-03-05 07:08:09")

	v, err = parser.ParseValue("now('%d/%m/%y')")
	assert.NilError(t, err)
	assert.Equal(t, v.String(), "05/03/24")
}

func TestStrftime(t *testing.T) {
	d := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, parser.Strftime(d, "%a %A %d %m %e %w %W %b %B %y %Y %H %k %M %S %% %q"),
		"Tue Tuesday 05 03  5 2 10 Mar March 24 2024 07  7 08 09 % %q")

	d = time.Date(2027, time.November, 21, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, parser.Strftime(d, "[%e] [%k]"), "[21] [14]")
}

func TestStrftimeMondayWeek(t *testing.T) {
	cases := map[string]string{
		"2027-01-01": "00", // Friday before the first Monday
		"2027-01-03": "00",
		"2027-01-04": "01",
		"2024-01-01": "01", // the year starts on a Monday
		"2024-12-31": "53",
	}
	for day, want := range cases {
		d, err := time.Parse("2006-01-02", day)
		assert.NilError(t, err)
		assert.Equal(t, parser.Strftime(d, "%W"), want, day)
	}
}
