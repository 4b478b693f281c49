// Package runregistry implements the engine's "run" contract: a named
// bundle of tables loaded together, published into the engine's catalog as
// three views per table — the bare name (latest run), a per-run-qualified
// name, and an all-runs concatenation labeled by run.
//
// Registry does not itself hold query semantics; it only computes catalog
// entries and pushes them through queryengine.Engine.Context().Materialize.
package runregistry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/JoeHowarth/piql/internal/eval"
	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/queryengine"
)

// ErrReservedRunName is returned when a run is registered under the
// reserved name "_all".
var ErrReservedRunName = errors.New("runregistry: \"_all\" is reserved and cannot be used as a run name")

// ErrLabelColumnConflict is returned by AddRun when a loaded table already
// contains the label column and WithDropExistingLabel was not given.
var ErrLabelColumnConflict = errors.New("runregistry: table already has the label column")

const defaultLabelColumn = "_run"

type addOptions struct {
	dropExistingLabel bool
}

// Option configures a single AddRun call.
type Option func(*addOptions)

// WithDropExistingLabel opts in to silently dropping a pre-existing label
// column on a loaded table, rather than failing with ErrLabelColumnConflict.
func WithDropExistingLabel() Option {
	return func(o *addOptions) { o.dropExistingLabel = true }
}

// Registry tracks loaded runs and republishes three catalog views per table
// into engine whenever the run set changes.
type Registry struct {
	mu          sync.Mutex
	engine      *queryengine.Engine
	labelColumn string

	order int
	runs  map[string]runEntry
	// published is the set of catalog names this registry last wrote, so a
	// rebuild can remove entries that no longer apply (e.g. a table that
	// existed in a now-removed run and nowhere else).
	published map[string]bool
}

type runEntry struct {
	seq    int // insertion order, used to decide which run is "latest" per table
	tables map[string]*frame.DataFrame
}

// NewRegistry returns a run registry publishing into engine's catalog.
// labelColumn defaults to "_run" when empty.
func NewRegistry(engine *queryengine.Engine, labelColumn string) *Registry {
	if labelColumn == "" {
		labelColumn = defaultLabelColumn
	}
	return &Registry{
		engine:      engine,
		labelColumn: labelColumn,
		runs:        make(map[string]runEntry),
		published:   make(map[string]bool),
	}
}

// AddRun registers name as a run over tables, labeling every row with the
// run name under the registry's label column, then republishes the bare,
// run-qualified, and all-runs catalog views for every affected table.
func (r *Registry) AddRun(name string, tables map[string]*frame.DataFrame, opts ...Option) error {
	if name == "_all" {
		return ErrReservedRunName
	}
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	labeled := make(map[string]*frame.DataFrame, len(tables))
	for tname, df := range tables {
		if _, ok := df.Column(r.labelColumn); ok {
			if !o.dropExistingLabel {
				return fmt.Errorf("%w: run %q, table %q, column %q", ErrLabelColumnConflict, name, tname, r.labelColumn)
			}
			df = df.DropColumns([]string{r.labelColumn})
		}
		label := make([]frame.Value, df.NumRows())
		for i := range label {
			label[i] = frame.Str(name)
		}
		withLabel, err := df.WithColumn(frame.NewSeries(r.labelColumn, label))
		if err != nil {
			return fmt.Errorf("runregistry: labeling %q: %w", tname, err)
		}
		labeled[tname] = withLabel
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.order++
	r.runs[name] = runEntry{seq: r.order, tables: labeled}
	r.rebuild()
	return nil
}

// RemoveRun drops a previously added run and rebuilds the bare and
// all-runs views from the remaining runs. A no-op if name was not
// registered.
func (r *Registry) RemoveRun(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[name]; !ok {
		return
	}
	delete(r.runs, name)
	r.rebuild()
}

// rebuild recomputes every published catalog entry from the current run
// set. Called with r.mu held.
func (r *Registry) rebuild() {
	ctx := r.engine.Context()

	tableNames := make(map[string]bool)
	for _, run := range r.runs {
		for tname := range run.tables {
			tableNames[tname] = true
		}
	}

	next := make(map[string]bool)
	for tname := range tableNames {
		var (
			latestSeq int
			latestDF  *frame.DataFrame
			parts     []*frame.DataFrame
		)
		for runName, run := range r.runs {
			df, ok := run.tables[tname]
			if !ok {
				continue
			}
			qualified := runName + "::" + tname
			ctx.Materialize(qualified, df, eval.TimeSeriesConfig{}, false)
			next[qualified] = true
			parts = append(parts, df)
			if run.seq >= latestSeq {
				latestSeq, latestDF = run.seq, df
			}
		}
		if latestDF == nil {
			continue
		}
		ctx.Materialize(tname, latestDF, eval.TimeSeriesConfig{}, false)
		next[tname] = true

		all := parts[0]
		for _, p := range parts[1:] {
			merged, err := all.Concat(p)
			if err != nil {
				// Columns across runs for the same table name are expected
				// to agree; a mismatch here means the caller loaded
				// incompatible schemas under one table name.
				continue
			}
			all = merged
		}
		allName := "_all::" + tname
		ctx.Materialize(allName, all, eval.TimeSeriesConfig{}, false)
		next[allName] = true
	}

	for name := range r.published {
		if !next[name] {
			ctx.Remove(name)
		}
	}
	r.published = next
}
