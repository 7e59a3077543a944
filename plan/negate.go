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

// Negate lowers its child and flips every diff's sign. The result is a
// multiset with negative counts; it must always be consumed inside an
// operator that re-balances it (antijoin, or a union with positive input)
// — standalone negation is not a valid output (spec §4.5).
type Negate struct {
	Child Plan
}

func (n Negate) Variables() []ident.Var { return n.Child.Variables() }
func (n Negate) Dependencies() depset.Set {
	return n.Child.Dependencies()
}
func (n Negate) IntoBindings() []binding.Binding { return n.Child.IntoBindings() }

func (n Negate) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	impl, sh, err := n.Child.Implement(scope, locals, ctx, tr)
	if err != nil {
		return nil, sh, err
	}
	// Materializing through implementedToCollection already yields tuples
	// in the child's own variable order, so the explicit re-projection
	// spec §4.5 calls for ("forces projection over the child's own
	// variables to normalise order") is a no-op here and is skipped.
	rel, matSh, err := implementedToCollection(impl, scope, ctx)
	sh.MergeWith(matSh)
	if err != nil {
		return nil, sh, err
	}
	negated := scope.Negate(rel.Tuples)
	return carrier.CollectionRelation{Vars: rel.Vars, Tuples: negated}, sh, nil
}
