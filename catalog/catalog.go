// Package catalog defines ImplContext (here named Context): the
// compilation-time façade over the trace catalog that Plan.Implement
// consults for rule definitions, named arrangements, and the six
// per-attribute indexed traces (spec §4.1).
package catalog

import (
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/ident"
)

// RuleDef is an opaque rule definition. Context never needs to know its
// concrete type — the plan package, which does know it's a plan.Plan,
// performs the type assertion. Keeping Context ignorant of plan.Plan is
// what lets plan import catalog without a dependency cycle the other way.
type RuleDef = any

// GlobalArrangement is a materialised named relation, addressable without
// going through a rule's Plan tree again.
type GlobalArrangement interface {
	// Variables are the positional columns this arrangement is keyed on.
	Variables() []ident.Var
	// Recollect re-emits every row currently in the arrangement as an
	// ordinary stream inside scope (spec §4.2 NameExpr default branch:
	// "imports the global arrangement and re-collects it").
	Recollect(scope dataflow.Scope) dataflow.Stream
}

// Context is the ImplContext of spec §4.1: every lookup Plan.Implement
// needs from the catalog. Every accessor returns ok=false rather than an
// error for a missing entry — spec draws the line between "absent" (a
// normal lookup-miss the compiler turns into a CompileError with context
// the catalog doesn't have) and the compile-time CompileError type itself,
// which callers in package plan construct.
type Context interface {
	Rule(name string) (RuleDef, bool)
	GlobalArrangement(name string) (GlobalArrangement, bool)
	HasAttribute(a ident.Aid) bool

	ForwardCount(a ident.Aid) (dataflow.TraceValHandle, bool)
	ReverseCount(a ident.Aid) (dataflow.TraceValHandle, bool)
	ForwardPropose(a ident.Aid) (dataflow.TraceValHandle, bool)
	ReversePropose(a ident.Aid) (dataflow.TraceValHandle, bool)
	ForwardValidate(a ident.Aid) (dataflow.TraceKeyHandle, bool)
	ReverseValidate(a ident.Aid) (dataflow.TraceKeyHandle, bool)

	// IsUnderconstrained reports whether a named rule has too few joining
	// constraints to be safely reused as a standalone arrangement (spec
	// §4.2).
	IsUnderconstrained(name string) bool
}
