package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/parser"
)

// Checks a file of queries, or of `$TABLE` declarations when its first
// statement declares a table.
func main() {
	args := os.Args
	var file_path string

	if len(args) > 1 {
		file_path = args[1]
	} else {
		file_path = "./queries.jql"
	}

	if !path.IsAbs(file_path) {
		cwd, _ := os.Getwd()
		file_path = path.Join(cwd, file_path)
	}

	fmt.Printf("Checking %s for errors\n", file_path)

	data, err := os.ReadFile(file_path)
	if err != nil {
		fmt.Printf("Error: %s\n", err.Error())
		os.Exit(1)
	}

	if isSchema(string(data)) {
		decls, err := parser.ParseSchema(string(data))
		if err != nil {
			fmt.Printf("Invalid schema; %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Printf("Schema checks successful: %d tables declared\n", len(decls))
		return
	}

	queries, err := parser.MultilineParse(string(data))
	if err != nil {
		var multi *errs.MultilineError
		if errors.As(err, &multi) {
			stmt := parser.SplitStatements(string(data))[multi.Index-1]
			fmt.Printf("Invalid query %d: %s\n\t%s\n", multi.Index, multi.Err.Error(), stmt)
		} else {
			fmt.Printf("Invalid queries; %s\n", err.Error())
		}
		os.Exit(1)
	}
	fmt.Printf("Query checks successful: %d queries parsed\n", len(queries))
}

func isSchema(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		return strings.HasPrefix(line, "$TABLE")
	}
	return false
}
