package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tobsdb/jqldb/internal/parser"
	"github.com/tobsdb/jqldb/pkg"
	"github.com/tobsdb/jqldb/tools/generate"
)

const usage = `usage: jql-generate [-lang LANG] [-out FILE] SCHEMA_FILE
       jql-generate [-lang LANG] [-out FILE] -schema TEXT

SCHEMA_FILE may be - to read declarations from stdin.

languages:
  json
  typescript, ts
  rust, rs
  golang, go
`

type options struct {
	// inline declarations win over path
	schema string
	path   string
	out    string
	lang   string
}

func main() {
	var opts options
	flag.StringVar(&opts.schema, "schema", "", "declarations to generate from, instead of a file")
	flag.StringVar(&opts.out, "out", "", "output file; stdout when empty")
	flag.StringVar(&opts.lang, "lang", "json", "output language")
	debug := flag.Bool("debug", false, "show debug logs")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *debug {
		pkg.SetLogLevel(pkg.LogLevelDebug)
	}
	if flag.NArg() > 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	opts.path = flag.Arg(0)

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readSchema(opts options, stdin io.Reader) (string, error) {
	switch {
	case opts.schema != "":
		return opts.schema, nil
	case opts.path == "":
		return "", errors.New("missing schema: pass SCHEMA_FILE or -schema")
	case opts.path == "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(opts.path)
	return string(data), err
}

func run(opts options, stdin io.Reader, stdout io.Writer) error {
	text, err := readSchema(opts, stdin)
	if err != nil {
		return err
	}

	decls, err := parser.ParseSchema(text)
	if err != nil {
		if opts.schema == "" && opts.path != "-" {
			return fmt.Errorf("%s: %w", opts.path, err)
		}
		return err
	}

	data, err := generate.SchemaToLang(decls, opts.lang)
	if err != nil {
		return err
	}
	pkg.DebugLog("generated types", "tables", len(decls), "lang", opts.lang)

	if opts.out == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	return os.WriteFile(opts.out, data, 0644)
}
