package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

const notes = "$TABLE notes {\n  id int auto_increment\n  body string\n}\n"

func TestGenerateInline(t *testing.T) {
	var out strings.Builder
	assert.NilError(t, run(options{schema: notes, lang: "ts"}, nil, &out))
	assert.Equal(t, out.String(), "export type Schema = {\n"+
		"\tnotes: {\n"+
		"\t\tid: number;\n"+
		"\t\tbody: string | null;\n"+
		"\t};\n"+
		"};\n\n")
}

func TestGenerateFromFiles(t *testing.T) {
	dir := t.TempDir()
	schema_file := filepath.Join(dir, "schema.jql")
	assert.NilError(t, os.WriteFile(schema_file, []byte(notes), 0o644))

	out_file := filepath.Join(dir, "schema.json")
	var stdout strings.Builder
	assert.NilError(t, run(options{path: schema_file, out: out_file, lang: "json"}, nil, &stdout))
	assert.Equal(t, stdout.String(), "")

	data, err := os.ReadFile(out_file)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(data), `"name": "notes"`), string(data))

	// - reads declarations from stdin
	stdout.Reset()
	assert.NilError(t, run(options{path: "-", lang: "go"}, strings.NewReader(notes), &stdout))
	assert.Assert(t, strings.Contains(stdout.String(), "Notes"), stdout.String())
}

func TestGenerateErrors(t *testing.T) {
	var out strings.Builder

	assert.ErrorContains(t, run(options{lang: "json"}, nil, &out), "missing schema")
	assert.ErrorContains(t, run(options{schema: notes, lang: "cobol"}, nil, &out), "Unsupported Language: cobol")

	bad := filepath.Join(t.TempDir(), "bad.jql")
	assert.NilError(t, os.WriteFile(bad, []byte("$TABLE notes {\n  body blob\n}\n"), 0o644))
	err := run(options{path: bad, lang: "json"}, nil, &out)
	assert.ErrorContains(t, err, bad+": Error parsing line 2")
	assert.Equal(t, out.String(), "")
}
