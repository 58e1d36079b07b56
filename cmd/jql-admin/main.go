package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/internal/filelock"
	"github.com/tobsdb/jqldb/internal/query"
	"github.com/tobsdb/jqldb/internal/schema"
	"github.com/tobsdb/jqldb/pkg"
)

const usage = `usage: jql-admin [-root DIR] COMMAND ARGS...

commands:
  create-server SERVER
  remove-server SERVER
  create-database SERVER DATABASE
  add-user SERVER USERNAME PASSWORD
  remove-user SERVER USERNAME
  list [SERVER [DATABASE]]
  create-tables SERVER DATABASE SCHEMA_FILE
  drop-table SERVER DATABASE TABLE
  unlock SERVER DATABASE TABLE
  query SERVER DATABASE QUERIES
`

func main() {
	root := flag.String("root", "./data", "servers root directory")
	debug := flag.Bool("debug", false, "show debug logs")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *debug {
		pkg.SetLogLevel(pkg.LogLevelDebug)
	}

	if err := run(schema.NewStore(*root), flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type command struct {
	args int
	run  func(store *schema.Store, args []string, out io.Writer) error
}

var commands = map[string]command{
	"create-server": {1, func(store *schema.Store, args []string, out io.Writer) error {
		return store.CreateServer(args[0])
	}},
	"remove-server": {1, func(store *schema.Store, args []string, out io.Writer) error {
		return store.RemoveServer(args[0])
	}},
	"create-database": {2, func(store *schema.Store, args []string, out io.Writer) error {
		_, err := store.CreateDatabase(args[0], args[1])
		return err
	}},
	"add-user": {3, func(store *schema.Store, args []string, out io.Writer) error {
		if !store.HasServer(args[0]) {
			return errs.Schema(errs.NoSuchServer, "No such server %s", args[0])
		}
		return store.Configuration().AddUser(args[0], args[1], args[2])
	}},
	"remove-user": {2, func(store *schema.Store, args []string, out io.Writer) error {
		return store.Configuration().RemoveUser(args[0], args[1])
	}},
	"create-tables": {3, func(store *schema.Store, args []string, out io.Writer) error {
		db, err := store.Database(args[0], args[1])
		if err != nil {
			return err
		}
		text, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		created, err := db.CreateTables(string(text))
		for _, name := range created {
			fmt.Fprintf(out, "created %s\n", name)
		}
		return err
	}},
	"drop-table": {3, func(store *schema.Store, args []string, out io.Writer) error {
		db, err := store.Database(args[0], args[1])
		if err != nil {
			return err
		}
		return db.DropTable(args[2])
	}},
	"unlock": {3, func(store *schema.Store, args []string, out io.Writer) error {
		db, err := store.Database(args[0], args[1])
		if err != nil {
			return err
		}
		if !db.HasTable(args[2]) {
			return errs.Schema(errs.NoSuchTable, "No such table %s", args[2])
		}
		path := db.TablePath(args[2])
		if !filelock.IsLocked(path) {
			fmt.Fprintf(out, "%s is not locked\n", args[2])
			return nil
		}
		if err := filelock.Break(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "unlocked %s\n", args[2])
		return nil
	}},
	"query": {3, func(store *schema.Store, args []string, out io.Writer) error {
		engine := query.NewEngine(store, filelock.New(filelock.DefaultPollInterval))
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		results := engine.ExecuteMany(ctx, query.Connection{Server: args[0], Database: args[1]}, args[2])
		enc := json.NewEncoder(out)
		for _, res := range results {
			if err := enc.Encode(res); err != nil {
				return err
			}
		}
		if len(results) > 0 && results[len(results)-1].Error {
			return results[len(results)-1].Err
		}
		return nil
	}},
}

func list(store *schema.Store, args []string, out io.Writer) error {
	var names []string
	var err error
	switch len(args) {
	case 0:
		names, err = store.ListServers()
	case 1:
		names, err = store.ListDatabases(args[0])
	case 2:
		var db *schema.Database
		if db, err = store.Database(args[0], args[1]); err == nil {
			names, err = db.ListTables()
		}
	default:
		return fmt.Errorf("list takes at most 2 arguments, got %d", len(args))
	}
	if err != nil {
		return err
	}
	if len(names) > 0 {
		fmt.Fprintln(out, strings.Join(names, "\n"))
	}
	return nil
}

func run(store *schema.Store, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	name, args := args[0], args[1:]
	if name == "list" {
		return list(store, args, out)
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}
	if len(args) != cmd.args {
		return fmt.Errorf("%s takes %d arguments, got %d", name, cmd.args, len(args))
	}
	return cmd.run(store, args, out)
}
