package queryengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// TickScheduler drives an Engine's OnTick on a fixed interval, publishing
// each tick's subscription results on a channel for push subscribers.
// Constructing one is optional; callers that prefer to drive ticks manually
// (e.g. in tests, or lockstep with an external clock) never build one.
type TickScheduler struct {
	engine    *Engine
	scheduler gocron.Scheduler
	results   chan TickResult
	logger    *slog.Logger
}

// TickResult is one tick's outcome, published on TickScheduler.Results.
type TickResult struct {
	Tick    int64
	Results map[string]any
	Err     error
}

// NewTickScheduler starts a recurring job that advances engine one tick
// every interval, publishing each outcome on Results. The returned channel
// is buffered; a slow consumer causes publishing to drop the result rather
// than block the scheduler (best-effort, matching the engine's
// at-most-one-pending notification semantics).
func NewTickScheduler(engine *Engine, interval time.Duration, logger *slog.Logger) (*TickScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	ts := &TickScheduler{
		engine:    engine,
		scheduler: s,
		results:   make(chan TickResult, 1),
		logger:    engine.logger,
	}
	if logger != nil {
		ts.logger = logger.With("component", "tickscheduler")
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(ts.runOnce),
	)
	if err != nil {
		return nil, err
	}
	s.Start()
	return ts, nil
}

func (ts *TickScheduler) runOnce() {
	ctx := context.Background()
	next := ts.engine.Tick() + 1
	results, err := ts.engine.OnTick(ctx, next)
	out := TickResult{Tick: next, Err: err}
	if err == nil {
		out.Results = make(map[string]any, len(results))
		for name, v := range results {
			out.Results[name] = v
		}
	}
	select {
	case ts.results <- out:
	default:
		ts.logger.Warn("dropping tick result, consumer is behind", "tick", next)
	}
}

// Results returns the channel tick outcomes are published on.
func (ts *TickScheduler) Results() <-chan TickResult { return ts.results }

// Stop halts the scheduler. Safe to call once.
func (ts *TickScheduler) Stop() error {
	return ts.scheduler.Shutdown()
}
