// Command dsql_dump writes the tables, data, constraints and indexes of one
// Aurora DSQL schema as a SQL script, in the layout pg_dump uses.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		printError(a.stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	if isTerminal(w) {
		red.EnableColor()
	} else {
		red.DisableColor()
	}
	red.Fprint(w, "Error:")
	fmt.Fprintf(w, " %v\n", err)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
