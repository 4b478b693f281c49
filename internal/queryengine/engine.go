// Package queryengine wraps an eval.EvalContext in a tick-driven state
// machine: registered base tables roll forward on append_tick, materialized
// views recompute in declaration order, and subscriptions are evaluated
// against the resulting catalog — all on each call to OnTick.
//
// Engine does not contain query semantics of its own; it only schedules
// compile/eval calls against internal/eval and internal/frame.
package queryengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	piqlconfig "github.com/JoeHowarth/piql/internal/config"
	"github.com/JoeHowarth/piql/internal/eval"
	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/obslog"
	"github.com/JoeHowarth/piql/internal/sugar"
)

// viewEntry is one materialized view: its compiled query plus declaration
// position, recomputed in that order on every tick.
type viewEntry struct {
	name  string
	query *eval.CompiledQuery
}

// Engine is a tick-driven query engine over an eval.EvalContext.
//
// Concurrency model (§4.14, §5):
//   - Register*/Materialize/Subscribe are expected at setup time or between
//     ticks; a mutex still guards the views slice and subscriptions map
//     since OnTick and Subscribe/Unsubscribe may race in practice.
//   - OnTick runs materialized views strictly sequentially (declaration-order
//     dependency), then evaluates all subscriptions concurrently via
//     errgroup, since subscriptions are unordered and independent.
//   - EvalContext itself serializes catalog writes under its own RWMutex.
type Engine struct {
	mu sync.Mutex

	ctx      *eval.EvalContext
	registry *sugar.Registry
	logger   *slog.Logger

	views []viewEntry
	subs  map[string]*eval.CompiledQuery
}

// New builds an Engine from cfg (may be nil for an empty engine), wiring
// logger (nil becomes a discard logger, per obslog.Default). Base tables
// named in cfg are registered as empty slots; materialized views named in
// cfg are compiled and evaluated immediately, same as a runtime Materialize
// call.
func New(cfg *piqlconfig.Config, logger *slog.Logger) (*Engine, error) {
	logger = obslog.Default(logger)
	registry := sugar.NewRegistry()
	e := &Engine{
		ctx:      eval.NewEvalContext(registry),
		registry: registry,
		logger:   logger.With("component", "queryengine"),
		subs:     make(map[string]*eval.CompiledQuery),
	}
	if cfg == nil {
		return e, nil
	}
	e.ctx.SetDefaultTickColumn(cfg.DefaultTickColumn)
	e.ctx.SetDefaultPartitionKey(cfg.DefaultPartitionKey)
	for _, bt := range cfg.BaseTables {
		e.RegisterBase(bt.Name, eval.TimeSeriesConfig{TickColumn: bt.TickColumn, PartitionKey: bt.PartitionKey}, bt.TickColumn != "")
	}
	for _, mv := range cfg.MaterializedViews {
		if err := e.Materialize(mv.Name, mv.Query); err != nil {
			return nil, fmt.Errorf("queryengine.New: materializing %q: %w", mv.Name, err)
		}
	}
	return e, nil
}

// Sugar returns the mutable sugar registry consulted by Compile.
func (e *Engine) Sugar() *sugar.Registry { return e.registry }

// Context returns the underlying evaluation context, for callers that need
// direct catalog access (e.g. the run registry).
func (e *Engine) Context() *eval.EvalContext { return e.ctx }

// Tick returns the engine's current tick.
func (e *Engine) Tick() int64 { return e.ctx.Tick() }

// SetTick sets the engine's current tick without running a tick cycle.
func (e *Engine) SetTick(t int64) { e.ctx.SetTick(t) }

// SetDefaultTickColumn sets the fallback tick column for scope methods.
func (e *Engine) SetDefaultTickColumn(col string) { e.ctx.SetDefaultTickColumn(col) }

// SetDefaultPartitionKey sets the fallback partition key for sugar directives.
func (e *Engine) SetDefaultPartitionKey(key string) { e.ctx.SetDefaultPartitionKey(key) }

// RegisterBase creates an empty base-table slot with the given time-series
// configuration (hasConfig=false for an untimed table).
func (e *Engine) RegisterBase(name string, cfg eval.TimeSeriesConfig, hasConfig bool) {
	e.ctx.RegisterBase(name, cfg, hasConfig)
}

// AddBaseDF registers a non-time-series base table from a one-shot DataFrame.
func (e *Engine) AddBaseDF(name string, df *frame.DataFrame) error {
	return e.ctx.AddBaseDF(name, df)
}

// AddTimeSeriesDF registers a time-series base table from a one-shot
// DataFrame.
func (e *Engine) AddTimeSeriesDF(name string, df *frame.DataFrame, tickColumn, partitionKey string) error {
	return e.ctx.AddTimeSeriesDF(name, df, tickColumn, partitionKey)
}

// AppendTick rolls rows into a registered base table: now := rows,
// all := prev_all ++ rows. Fails if name is not a registered base table.
func (e *Engine) AppendTick(name string, rows *frame.DataFrame) error {
	return e.ctx.AppendTick(name, rows)
}

// Materialize compiles query, evaluates it once immediately, stores the
// result in the catalog under name, and remembers (name, query) for
// recomputation on every subsequent tick. Re-materializing an existing name
// replaces its query in place, keeping its original declaration order.
func (e *Engine) Materialize(name string, query string) error {
	cq, err := eval.Compile(e.ctx, query)
	if err != nil {
		return fmt.Errorf("materialize %q: %w", name, err)
	}
	if err := e.runView(name, cq); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, v := range e.views {
		if v.name == name {
			e.views[i].query = cq
			return nil
		}
	}
	e.views = append(e.views, viewEntry{name: name, query: cq})
	return nil
}

// Subscribe compiles query and adds it to the unordered subscription set
// evaluated on every tick. Re-subscribing under an existing name replaces
// its query.
func (e *Engine) Subscribe(name string, query string) error {
	cq, err := eval.Compile(e.ctx, query)
	if err != nil {
		return fmt.Errorf("subscribe %q: %w", name, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs[name] = cq
	return nil
}

// Unsubscribe removes a subscription. A no-op if name was not subscribed.
func (e *Engine) Unsubscribe(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, name)
}

// runView evaluates cq and overwrites name's catalog entry with the result,
// which must be a table.
func (e *Engine) runView(name string, cq *eval.CompiledQuery) error {
	v, err := cq.Eval(e.ctx)
	if err != nil {
		return fmt.Errorf("materialized view %q: %w", name, err)
	}
	if v.Kind != eval.VTable {
		return fmt.Errorf("materialized view %q: query must evaluate to a table", name)
	}
	df, err := v.Table.Plan.Collect()
	if err != nil {
		return fmt.Errorf("materialized view %q: collect: %w", name, err)
	}
	e.ctx.Materialize(name, df, eval.TimeSeriesConfig{}, false)
	return nil
}

// OnTick advances the context tick to t, recomputes materialized views in
// declaration order, then evaluates every subscription concurrently,
// returning a mapping from subscription name to result. The failure of any
// single view or subscription aborts the tick and returns that error;
// results already committed to the catalog by earlier views are not rolled
// back (§4.8).
func (e *Engine) OnTick(ctx context.Context, t int64) (map[string]eval.Value, error) {
	e.ctx.SetTick(t)

	e.mu.Lock()
	views := make([]viewEntry, len(e.views))
	copy(views, e.views)
	subs := make(map[string]*eval.CompiledQuery, len(e.subs))
	for name, cq := range e.subs {
		subs[name] = cq
	}
	e.mu.Unlock()

	for _, v := range views {
		if err := e.runView(v.name, v.query); err != nil {
			e.logger.ErrorContext(ctx, "materialized view failed", "name", v.name, "tick", t, "error", err)
			return nil, err
		}
	}
	e.logger.DebugContext(ctx, "materialized views recomputed", "tick", t, "count", len(views))

	results := make(map[string]eval.Value, len(subs))
	var resultsMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	_ = gctx
	for name, cq := range subs {
		name, cq := name, cq
		g.Go(func() error {
			v, err := cq.Eval(e.ctx)
			if err != nil {
				return fmt.Errorf("subscription %q: %w", name, err)
			}
			resultsMu.Lock()
			results[name] = v
			resultsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "subscription failed", "tick", t, "error", err)
		return nil, err
	}
	e.logger.DebugContext(ctx, "tick complete", "tick", t, "subscriptions", len(results))
	return results, nil
}
