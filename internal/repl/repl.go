// Package repl provides an in-process REPL for interacting with a running
// queryengine.Engine. The REPL is a client of the engine, not its owner: it
// only compiles and evaluates queries and drives ticks through the engine's
// exported operations.
//
// The REPL does not start the engine, stop it, or own its scheduler.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JoeHowarth/piql/internal/eval"
	"github.com/JoeHowarth/piql/internal/queryengine"
)

// REPL is an interactive read-eval-print loop over a live engine.
type REPL struct {
	engine *queryengine.Engine

	in  *bufio.Scanner
	out io.Writer
}

// New creates a REPL attached to an already-running engine.
func New(engine *queryengine.Engine, in io.Reader, out io.Writer) *REPL {
	return &REPL{engine: engine, in: bufio.NewScanner(in), out: out}
}

// Run starts the REPL loop. It blocks until the user exits or input ends.
func (r *REPL) Run() error {
	r.printf("piql REPL. Type 'help' for commands.\n")
	r.printf("> ")

	for r.in.Scan() {
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			r.printf("> ")
			continue
		}
		if exit := r.execute(line); exit {
			return nil
		}
		r.printf("> ")
	}
	return r.in.Err()
}

// execute parses and runs a single command. Returns true if the REPL should exit.
func (r *REPL) execute(line string) bool {
	cmd, rest := splitCommand(line)

	switch cmd {
	case "help":
		r.cmdHelp()
	case "tick":
		r.cmdTick(rest)
	case "materialize", "mat":
		r.cmdMaterialize(rest)
	case "subscribe", "sub":
		r.cmdSubscribe(rest)
	case "unsubscribe", "unsub":
		r.engine.Unsubscribe(strings.TrimSpace(rest))
		r.printf("unsubscribed %q\n", strings.TrimSpace(rest))
	case "exit", "quit":
		return true
	default:
		// Anything else is treated as a query expression against the
		// current catalog state, e.g. "events.filter(...).select(...)".
		r.cmdQuery(line)
	}
	return false
}

func (r *REPL) cmdHelp() {
	r.printf(`Commands:
  help                        Show this help
  tick [n]                    Advance the engine by n ticks (default 1),
                               recomputing materialized views and subscriptions
  materialize NAME QUERY      Register a materialized view
  subscribe NAME QUERY        Register a subscription, evaluated on each tick
  unsubscribe NAME            Remove a subscription
  exit                        Exit the REPL

Anything else is evaluated immediately as a query against the current
catalog, e.g.:
  entities.filter(pl.col("gold") > 100).select(pl.col("entity_id"))
`)
}

func (r *REPL) cmdQuery(src string) {
	cq, err := eval.Compile(r.engine.Context(), src)
	if err != nil {
		r.printf("parse error: %v\n", err)
		return
	}
	v, err := cq.Eval(r.engine.Context())
	if err != nil {
		r.printf("error: %v\n", err)
		return
	}
	r.printValue(v)
}

func (r *REPL) printValue(v eval.Value) {
	switch v.Kind {
	case eval.VTable:
		df, err := v.Table.Plan.Collect()
		if err != nil {
			r.printf("error: %v\n", err)
			return
		}
		printTable(r.out, df)
	case eval.VScalar:
		r.printf("%s\n", v.Scalar.String())
	default:
		r.printf("(non-tabular result)\n")
	}
}

func (r *REPL) cmdTick(rest string) {
	n := 1
	if s := strings.TrimSpace(rest); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			r.printf("invalid tick count %q: %v\n", s, err)
			return
		}
		n = parsed
	}
	for i := 0; i < n; i++ {
		next := r.engine.Tick() + 1
		results, err := r.engine.OnTick(context.Background(), next)
		if err != nil {
			r.printf("tick %d failed: %v\n", next, err)
			return
		}
		r.printf("tick %d: %d subscriptions updated\n", next, len(results))
	}
}

func (r *REPL) cmdMaterialize(rest string) {
	name, query, ok := strings.Cut(strings.TrimSpace(rest), " ")
	if !ok {
		r.printf("usage: materialize NAME QUERY\n")
		return
	}
	if err := r.engine.Materialize(name, strings.TrimSpace(query)); err != nil {
		r.printf("error: %v\n", err)
		return
	}
	r.printf("materialized %q\n", name)
}

func (r *REPL) cmdSubscribe(rest string) {
	name, query, ok := strings.Cut(strings.TrimSpace(rest), " ")
	if !ok {
		r.printf("usage: subscribe NAME QUERY\n")
		return
	}
	if err := r.engine.Subscribe(name, strings.TrimSpace(query)); err != nil {
		r.printf("error: %v\n", err)
		return
	}
	r.printf("subscribed %q\n", name)
}

func (r *REPL) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// splitCommand splits the first whitespace-delimited token from the rest of
// the line.
func splitCommand(line string) (cmd, rest string) {
	cmd, rest, _ = strings.Cut(line, " ")
	return cmd, rest
}
