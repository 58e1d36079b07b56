package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/tobsdb/jqldb/tools/client"
)

func main() {
	url := flag.String("url", "ws://localhost:7085", "jqld websocket url")
	server := flag.String("server", "local", "server to authenticate against")
	username := flag.String("u", os.Getenv("JQL_USER"), "username")
	password := flag.String("p", os.Getenv("JQL_PASS"), "password")
	database := flag.String("db", "", "database to use")
	exec := flag.String("e", "", "run the given queries and exit")

	flag.Parse()

	c, err := client.NewClient(*url, client.ClientOptions{
		Server: *server, Username: *username, Password: *password, Database: *database,
	})
	if err == nil {
		err = c.Connect()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Disconnect()

	if *exec != "" {
		if err := runBlock(c, *exec, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if err := repl(c, os.Stdin, os.Stdout, interactive); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBlock(c *client.Client, text string, out io.Writer) error {
	results, err := c.Queries(text)
	for _, res := range results {
		printResult(out, res)
	}
	return err
}

func printResult(out io.Writer, res client.QueryResult) {
	var v any
	if err := json.Unmarshal(res.Result, &v); err != nil {
		fmt.Fprintln(out, string(res.Result))
		return
	}
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintf(out, "%s\n(%dµs, %d bytes)\n", pretty, res.ElapsedTime, res.MemoryUsage)
}

// repl reads statements terminated by `;`. Lines starting with `\` are shell
// commands: \use DB, \dbs, \tables, \q.
func repl(c *client.Client, in io.Reader, out io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(in)
	var pending strings.Builder
	prompt := func() {
		if !interactive {
			return
		}
		if pending.Len() == 0 {
			fmt.Fprint(out, "jql> ")
		} else {
			fmt.Fprint(out, "...> ")
		}
	}

	prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if pending.Len() == 0 && strings.HasPrefix(line, `\`) {
			if quit := shellCommand(c, line, out); quit {
				return nil
			}
			prompt()
			continue
		}

		pending.WriteString(line)
		pending.WriteByte('\n')
		if strings.HasSuffix(line, ";") && !strings.HasSuffix(line, `\;`) {
			err := runBlock(c, pending.String(), out)
			pending.Reset()
			var res_err *client.ResponseError
			if err != nil && !errors.As(err, &res_err) {
				return err
			}
			if err != nil {
				fmt.Fprintln(out, err)
			}
		}
		prompt()
	}
	if strings.TrimSpace(pending.String()) != "" {
		return runBlock(c, pending.String(), out)
	}
	return scanner.Err()
}

func shellCommand(c *client.Client, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	var err error
	switch fields[0] {
	case `\q`:
		return true
	case `\use`:
		if len(fields) != 2 {
			err = errors.New(`usage: \use DATABASE`)
			break
		}
		if err = c.Use(fields[1]); err == nil {
			fmt.Fprintf(out, "using %s\n", fields[1])
		}
	case `\dbs`, `\tables`:
		var names []string
		if fields[0] == `\dbs` {
			names, err = c.ListDatabases()
		} else {
			names, err = c.ListTables()
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
	default:
		err = fmt.Errorf("unknown command %s", fields[0])
	}
	if err != nil {
		fmt.Fprintln(out, err)
	}
	return false
}
