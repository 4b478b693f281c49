package eval

import (
	"github.com/google/uuid"

	"github.com/JoeHowarth/piql/internal/lang"
)

// CompiledQuery is a parsed and sugar-expanded query: its Core tree is fixed
// at compile time and re-evaluated, unchanged, on every subsequent Eval
// call (e.g. once per tick for a subscription), so directive/col-method
// expansion happens exactly once per query text (§4.8, invariant 4).
type CompiledQuery struct {
	ID     uuid.UUID
	Source string
	Core   lang.CoreExpr
}

// Compile parses src, infers its root table (if any) to resolve a
// per-table partition key, and expands sugar against ctx's registry and
// current tick, producing a query ready for repeated evaluation.
func Compile(ctx *EvalContext, src string) (*CompiledQuery, error) {
	surface, err := lang.Parse(src)
	if err != nil {
		return nil, err
	}
	partitionKey := ctx.defaultPartitionKeyValue()
	if root, ok := lang.RootTableName(surface); ok {
		if cfg, ok := ctx.tableConfig(root); ok && cfg.PartitionKey != "" {
			partitionKey = cfg.PartitionKey
		}
	}
	sugarCtx := lang.SugarContext{Tick: ctx.Tick(), PartitionKey: partitionKey}
	core := lang.Transform(surface, ctx.registry, sugarCtx)
	return &CompiledQuery{ID: uuid.New(), Source: src, Core: core}, nil
}

// Eval evaluates the compiled query against ctx's current catalog state.
func (cq *CompiledQuery) Eval(ctx *EvalContext) (Value, error) {
	return Eval(cq.Core, ctx)
}
