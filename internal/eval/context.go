package eval

import (
	"fmt"
	"sync"

	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/lang"
)

// TimeSeriesConfig names the tick column and default partition key used by
// scope methods (all/window/since/at) and by sugar directives evaluated
// against a given table.
type TimeSeriesConfig struct {
	TickColumn   string
	PartitionKey string
}

// baseTableState holds the "now" (current tick's appended rows) and "all"
// (full accumulated history) snapshots of a registered base table.
type baseTableState struct {
	all       *frame.LazyFrame
	now       *frame.LazyFrame
	config    TimeSeriesConfig
	hasConfig bool
}

// catalogEntry holds a materialized-view snapshot plus its optional
// time-series configuration.
type catalogEntry struct {
	snapshot  *frame.LazyFrame
	config    TimeSeriesConfig
	hasConfig bool
}

// EvalContext is the evaluator's mutable environment: the base-table and
// catalog maps, the current tick, context-wide defaults, and the sugar
// registry consulted at compile time. All methods are safe for concurrent
// use; readers take RLock, writers take Lock, matching the engine's
// concurrency model (materialized views recompute strictly sequentially,
// subscriptions run concurrently as readers).
type EvalContext struct {
	mu sync.RWMutex

	baseTables map[string]*baseTableState
	catalog    map[string]*catalogEntry

	tick                 int64
	defaultTickColumn    string
	defaultPartitionKey  string
	registry             lang.Registry

	notify chan struct{}
}

// NewEvalContext returns an empty context wired to the given sugar registry.
func NewEvalContext(reg lang.Registry) *EvalContext {
	return &EvalContext{
		baseTables: make(map[string]*baseTableState),
		catalog:    make(map[string]*catalogEntry),
		registry:   reg,
		notify:     make(chan struct{}, 1),
	}
}

// Tick returns the current tick value.
func (ctx *EvalContext) Tick() int64 {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.tick
}

// SetTick advances the context's notion of "now".
func (ctx *EvalContext) SetTick(t int64) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.tick = t
}

// SetDefaultTickColumn sets the fallback tick column used by scope methods
// on tables without their own time-series configuration.
func (ctx *EvalContext) SetDefaultTickColumn(col string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.defaultTickColumn = col
}

// SetDefaultPartitionKey sets the fallback partition key handed to sugar
// directives when a table has no per-table configuration.
func (ctx *EvalContext) SetDefaultPartitionKey(key string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.defaultPartitionKey = key
}

func (ctx *EvalContext) touch() {
	select {
	case ctx.notify <- struct{}{}:
	default:
	}
}

// Notifications returns a channel that receives a coalesced signal whenever
// the catalog or a base table changes. At most one pending signal is ever
// buffered; callers should drain and re-check state rather than count
// sends.
func (ctx *EvalContext) Notifications() <-chan struct{} { return ctx.notify }

// RegisterBase registers name as a base table with the given time-series
// configuration (may be zero-value / hasConfig=false for untimed tables).
func (ctx *EvalContext) RegisterBase(name string, cfg TimeSeriesConfig, hasConfig bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	empty := frame.EmptyDataFrame()
	ctx.baseTables[name] = &baseTableState{
		all:       frame.FromDataFrame(empty),
		now:       frame.FromDataFrame(empty),
		config:    cfg,
		hasConfig: hasConfig,
	}
	ctx.touch()
}

// AddBaseDF seeds (or replaces) a base table's accumulated history from a
// one-shot DataFrame, used for non-tick-driven base tables.
func (ctx *EvalContext) AddBaseDF(name string, df *frame.DataFrame) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	st, ok := ctx.baseTables[name]
	if !ok {
		st = &baseTableState{}
		ctx.baseTables[name] = st
	}
	st.all = frame.FromDataFrame(df)
	st.now = frame.FromDataFrame(df)
	ctx.touch()
	return nil
}

// AddTimeSeriesDF registers name as a tick-driven base table backed by df,
// with the given tick column and partition key.
func (ctx *EvalContext) AddTimeSeriesDF(name string, df *frame.DataFrame, tickColumn, partitionKey string) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.baseTables[name] = &baseTableState{
		all:       frame.FromDataFrame(df),
		now:       frame.FromDataFrame(df),
		config:    TimeSeriesConfig{TickColumn: tickColumn, PartitionKey: partitionKey},
		hasConfig: true,
	}
	ctx.touch()
	return nil
}

// AppendTick appends rows to a registered base table's "all" history and
// replaces its "now" snapshot with exactly those rows, matching on_tick's
// rollover semantics (§4.8).
func (ctx *EvalContext) AppendTick(name string, rows *frame.DataFrame) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	st, ok := ctx.baseTables[name]
	if !ok {
		return fmt.Errorf("append_tick: base table %q is not registered", name)
	}
	allDF, err := st.all.Collect()
	if err != nil {
		return err
	}
	merged, err := allDF.Concat(rows)
	if err != nil {
		return err
	}
	st.all = frame.FromDataFrame(merged)
	st.now = frame.FromDataFrame(rows)
	ctx.touch()
	return nil
}

// Materialize inserts or replaces a named catalog entry (a materialized
// view's recomputed snapshot).
func (ctx *EvalContext) Materialize(name string, df *frame.DataFrame, cfg TimeSeriesConfig, hasConfig bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.catalog[name] = &catalogEntry{snapshot: frame.FromDataFrame(df), config: cfg, hasConfig: hasConfig}
	ctx.touch()
}

// Remove drops a catalog entry or base table by name.
func (ctx *EvalContext) Remove(name string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	delete(ctx.catalog, name)
	delete(ctx.baseTables, name)
	ctx.touch()
}

func (ctx *EvalContext) lookupBaseTable(name string) (*baseTableState, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	st, ok := ctx.baseTables[name]
	return st, ok
}

func (ctx *EvalContext) lookupCatalog(name string) (*catalogEntry, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	e, ok := ctx.catalog[name]
	return e, ok
}

func (ctx *EvalContext) defaultPartitionKeyValue() string {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.defaultPartitionKey
}

// tableConfig returns the time-series configuration registered for name,
// whether it's a base table or a materialized catalog entry.
func (ctx *EvalContext) tableConfig(name string) (TimeSeriesConfig, bool) {
	if st, ok := ctx.lookupBaseTable(name); ok && st.hasConfig {
		return st.config, true
	}
	if e, ok := ctx.lookupCatalog(name); ok && e.hasConfig {
		return e.config, true
	}
	return TimeSeriesConfig{}, false
}
