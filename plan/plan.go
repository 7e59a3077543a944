// Package plan is the Plan ADT and its uniform dispatch: the closed sum of
// relational operators this compiler knows how to lower into a dataflow
// graph, plus the handful of stub shapes (aggregate, antijoin, pull, ...)
// that round out the sum type without being implemented here.
package plan

import (
	"github.com/wbrown/diffplan/binding"
	"github.com/wbrown/diffplan/carrier"
	"github.com/wbrown/diffplan/catalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/depset"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/trace"
)

// LocalArrangements holds the scope-local collection each rule compiled so
// far in the current fixed-point iteration has produced, keyed by rule
// name. NameExpr's underconstrained branch reads from this map instead of
// importing a global arrangement (spec §4.2).
type LocalArrangements map[string]carrier.CollectionRelation

// Plan is the closed sum of relational operators. Every node implements the
// four uniform operations spec §4.2 calls for; recursive children are owned
// (no sharing) — two parents referencing the same sub-plan must instead
// name it and go through NameExpr.
type Plan interface {
	// Variables is the positional variable list this plan binds, computed
	// structurally without touching the dataflow.
	Variables() []ident.Var
	// Dependencies is the monoidal union of child dependencies plus any
	// attribute/name leaves this node itself references.
	Dependencies() depset.Set
	// IntoBindings is the flat list of logical bindings this plan offers
	// the worst-case-optimal evaluator (out of scope here beyond shape).
	IntoBindings() []binding.Binding
	// Implement lowers this node into scope, consulting locals for
	// already-compiled sibling rules and ctx for the trace catalog.
	Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error)
}
