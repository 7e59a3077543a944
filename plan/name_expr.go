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

// NameExpr references a named rule by its declared variable order. Spec
// §4.2: an underconstrained rule is consumed from the scope-local
// collection already compiled this fixed-point iteration; otherwise the
// global arrangement is imported and re-collected.
type NameExpr struct {
	Vars []ident.Var
	Name string
}

func (n NameExpr) Variables() []ident.Var { return n.Vars }
func (n NameExpr) Dependencies() depset.Set {
	return depset.OfName(n.Name)
}
func (n NameExpr) IntoBindings() []binding.Binding { return nil }

func (n NameExpr) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	if ctx.IsUnderconstrained(n.Name) {
		rel, ok := locals[n.Name]
		if !ok {
			return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("NameExpr", diffplanerr.ErrUnknownRule, n.Name)
		}
		tr.Add(trace.Event{Name: trace.NameExprLocal, Data: map[string]any{"rule": n.Name}})
		return rel, carrier.ShutdownHandle{}, nil
	}

	ga, ok := ctx.GlobalArrangement(n.Name)
	if !ok {
		return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("NameExpr", diffplanerr.ErrUnknownArrangement, n.Name)
	}

	stream := ga.Recollect(scope)
	remapped := sameVarOrder(ga.Variables(), n.Vars)
	if !remapped {
		idx, ok := columnIndices(ga.Variables(), n.Vars)
		if !ok {
			return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("NameExpr", diffplanerr.ErrUnboundJoinTarget, n.Name)
		}
		stream = mappedStream{src: stream, fn: selectColumns(idx)}
	}
	tr.Add(trace.Event{Name: trace.NameExprGlobal, Data: map[string]any{"rule": n.Name, "remapped": !remapped}})
	return carrier.CollectionRelation{Vars: n.Vars, Tuples: stream}, carrier.ShutdownHandle{}, nil
}

// sameVarOrder reports whether a and b name the same variables in the same
// positions — the cheap-reuse test for design decision (b) of spec §9:
// when the global arrangement is already keyed the way this NameExpr site
// needs it, no re-projection is inserted.
func sameVarOrder(a, b []ident.Var) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
