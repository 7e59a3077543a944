package plan

import (
	"github.com/wbrown/diffplan/binding"
	"github.com/wbrown/diffplan/carrier"
	"github.com/wbrown/diffplan/catalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/depset"
	"github.com/wbrown/diffplan/diffplanerr"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/trace"
)

// The node types below round out the Plan sum type to match the full
// enumeration spec §4.2 lists (Project, Aggregate, Union, Join, Hector,
// Antijoin, Negate, Filter, Transform, MatchA, MatchEA, MatchAV, NameExpr,
// Pull, PullLevel, PullAll). Their bodies are explicitly out of scope here
// (spec.md §1's Non-goals), but each still answers variables/dependencies/
// into_bindings structurally and fails loudly, rather than silently, on
// Implement — the closed sum stays exhaustive and every unimplemented case
// has one clear failure mode instead of a missing switch arm.

// Aggregate reduces a child's tuples by group-by variables; not
// implemented here.
type Aggregate struct {
	Child Plan
	Vars  []ident.Var
}

func (a Aggregate) Variables() []ident.Var   { return a.Vars }
func (a Aggregate) Dependencies() depset.Set { return a.Child.Dependencies() }
func (a Aggregate) IntoBindings() []binding.Binding {
	return a.Child.IntoBindings()
}
func (a Aggregate) Implement(dataflow.IterativeScope, LocalArrangements, catalog.Context, *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("Aggregate", diffplanerr.ErrUnimplementedShape, "aggregate plans are not implemented by this compiler")
}

// Antijoin removes tuples of Positive that match Negative on the shared
// variables; not implemented here.
type Antijoin struct {
	Positive, Negative Plan
	Vars               []ident.Var
}

func (a Antijoin) Variables() []ident.Var { return a.Vars }
func (a Antijoin) Dependencies() depset.Set {
	return depset.Union(a.Positive.Dependencies(), a.Negative.Dependencies())
}
func (a Antijoin) IntoBindings() []binding.Binding {
	return append(append([]binding.Binding{}, a.Positive.IntoBindings()...), a.Negative.IntoBindings()...)
}
func (a Antijoin) Implement(dataflow.IterativeScope, LocalArrangements, catalog.Context, *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("Antijoin", diffplanerr.ErrUnimplementedShape, "antijoin plans are not implemented by this compiler")
}

// Filter drops tuples failing a predicate; not implemented here.
type Filter struct {
	Child Plan
}

func (f Filter) Variables() []ident.Var     { return f.Child.Variables() }
func (f Filter) Dependencies() depset.Set   { return f.Child.Dependencies() }
func (f Filter) IntoBindings() []binding.Binding {
	return f.Child.IntoBindings()
}
func (f Filter) Implement(dataflow.IterativeScope, LocalArrangements, catalog.Context, *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("Filter", diffplanerr.ErrUnimplementedShape, "filter plans are not implemented by this compiler")
}

// Transform maps tuples through an arbitrary function; not implemented
// here.
type Transform struct {
	Child Plan
	Vars  []ident.Var
}

func (t Transform) Variables() []ident.Var   { return t.Vars }
func (t Transform) Dependencies() depset.Set { return t.Child.Dependencies() }
func (t Transform) IntoBindings() []binding.Binding {
	return t.Child.IntoBindings()
}
func (t Transform) Implement(dataflow.IterativeScope, LocalArrangements, catalog.Context, *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("Transform", diffplanerr.ErrUnimplementedShape, "transform plans are not implemented by this compiler")
}

// Hector is the worst-case-optimal join evaluator over Children's bindings;
// a sibling operator to Join, not implemented here (spec §1, GLOSSARY).
type Hector struct {
	Children []Plan
	Vars     []ident.Var
}

func (h Hector) Variables() []ident.Var { return h.Vars }
func (h Hector) Dependencies() depset.Set {
	sets := make([]depset.Set, len(h.Children))
	for i, c := range h.Children {
		sets[i] = c.Dependencies()
	}
	return depset.Union(sets...)
}
func (h Hector) IntoBindings() []binding.Binding {
	var out []binding.Binding
	for _, c := range h.Children {
		out = append(out, c.IntoBindings()...)
	}
	return out
}
func (h Hector) Implement(dataflow.IterativeScope, LocalArrangements, catalog.Context, *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("Hector", diffplanerr.ErrUnimplementedShape, "hector plans are not implemented by this compiler")
}

// Pull, PullLevel, and PullAll realize graph-shaped pull queries; not
// implemented here.
type Pull struct{ Vars []ident.Var }

func (p Pull) Variables() []ident.Var           { return p.Vars }
func (p Pull) Dependencies() depset.Set         { return depset.Empty() }
func (p Pull) IntoBindings() []binding.Binding   { return nil }
func (p Pull) Implement(dataflow.IterativeScope, LocalArrangements, catalog.Context, *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("Pull", diffplanerr.ErrUnimplementedShape, "pull plans are not implemented by this compiler")
}

type PullLevel struct{ Vars []ident.Var }

func (p PullLevel) Variables() []ident.Var         { return p.Vars }
func (p PullLevel) Dependencies() depset.Set       { return depset.Empty() }
func (p PullLevel) IntoBindings() []binding.Binding { return nil }
func (p PullLevel) Implement(dataflow.IterativeScope, LocalArrangements, catalog.Context, *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("PullLevel", diffplanerr.ErrUnimplementedShape, "pull-level plans are not implemented by this compiler")
}

type PullAll struct{ Vars []ident.Var }

func (p PullAll) Variables() []ident.Var         { return p.Vars }
func (p PullAll) Dependencies() depset.Set       { return depset.Empty() }
func (p PullAll) IntoBindings() []binding.Binding { return nil }
func (p PullAll) Implement(dataflow.IterativeScope, LocalArrangements, catalog.Context, *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("PullAll", diffplanerr.ErrUnimplementedShape, "pull-all plans are not implemented by this compiler")
}
