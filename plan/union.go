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

// Union concatenates union-compatible children (same variables, same
// order — enforced by the front-end, assumed here) and optionally applies
// distinct. Set-vs-multiset semantics is a compile-time flag, not a
// per-query decision (spec §4.4).
type Union struct {
	Children     []Plan
	SetSemantics bool
}

func (u Union) Variables() []ident.Var {
	if len(u.Children) == 0 {
		return nil
	}
	return u.Children[0].Variables()
}

func (u Union) Dependencies() depset.Set {
	sets := make([]depset.Set, len(u.Children))
	for i, c := range u.Children {
		sets[i] = c.Dependencies()
	}
	return depset.Union(sets...)
}

func (u Union) IntoBindings() []binding.Binding {
	var out []binding.Binding
	for _, c := range u.Children {
		out = append(out, c.IntoBindings()...)
	}
	return out
}

func (u Union) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	var shutdown carrier.ShutdownHandle
	var streams []dataflow.Stream
	var vars []ident.Var

	for _, child := range u.Children {
		impl, sh, err := child.Implement(scope, locals, ctx, tr)
		shutdown.MergeWith(sh)
		if err != nil {
			return nil, shutdown, err
		}
		rel, matSh, err := implementedToCollection(impl, scope, ctx)
		shutdown.MergeWith(matSh)
		if err != nil {
			return nil, shutdown, err
		}
		if vars == nil {
			vars = rel.Vars
		}
		streams = append(streams, rel.Tuples)
	}

	concatenated := scope.Concatenate(streams...)
	var result dataflow.Stream = concatenated
	if u.SetSemantics {
		result = scope.Distinct(concatenated)
	}
	return carrier.CollectionRelation{Vars: vars, Tuples: result}, shutdown, nil
}
