// Package cli implements the piql command line tool: a REPL for exercising
// a QueryEngine locally, plus a small tick smoke-test command. It is
// ambient test tooling, not a network-facing server.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	piqlconfig "github.com/JoeHowarth/piql/internal/config"
	"github.com/JoeHowarth/piql/internal/obslog"
	"github.com/JoeHowarth/piql/internal/queryengine"
	"github.com/JoeHowarth/piql/internal/repl"
)

// NewRootCommand returns the "piql" root command with all subcommands wired in.
func NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "piql",
		Short:   "Embeddable query language and tick-driven live query engine",
		Version: version,
	}
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newReplCmd(),
		newTickCmd(),
	)
	return cmd
}

// loggerFromCmd builds a dependency-injected logger from the --log-level flag,
// using obslog's ComponentFilterHandler so individual components can have
// their level adjusted at runtime without reconfiguring the whole tree.
func loggerFromCmd(cmd *cobra.Command) *slog.Logger {
	levelStr, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(obslog.NewComponentFilterHandler(base, level))
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive REPL over a fresh in-memory engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromCmd(cmd)
			engine, err := queryengine.New(&piqlconfig.Config{}, logger)
			if err != nil {
				return fmt.Errorf("starting engine: %w", err)
			}
			r := repl.New(engine, os.Stdin, os.Stdout)
			return r.Run()
		},
	}
}

func newTickCmd() *cobra.Command {
	var interval time.Duration
	var count int
	c := &cobra.Command{
		Use:   "tick",
		Short: "Advance a fresh empty engine by a fixed number of ticks and exit",
		Long:  "Mostly a smoke test for the engine's tick loop: starts an empty engine with no base tables or views and calls OnTick count times, sleeping interval between each.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromCmd(cmd)
			engine, err := queryengine.New(nil, logger)
			if err != nil {
				return fmt.Errorf("starting engine: %w", err)
			}
			ctx := context.Background()
			for i := 0; i < count; i++ {
				next := engine.Tick() + 1
				if _, err := engine.OnTick(ctx, next); err != nil {
					return fmt.Errorf("tick %d: %w", next, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tick %d complete\n", next)
				if i < count-1 {
					time.Sleep(interval)
				}
			}
			return nil
		},
	}
	c.Flags().DurationVar(&interval, "interval", time.Second, "delay between ticks")
	c.Flags().IntVar(&count, "count", 1, "number of ticks to run")
	return c
}
