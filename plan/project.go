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

// Project permutes/subsets a child's tuples down to Target. Projection does
// not deduplicate: semantics are multiset-preserving (spec §4.3).
type Project struct {
	Child  Plan
	Target []ident.Var
}

func (p Project) Variables() []ident.Var { return p.Target }
func (p Project) Dependencies() depset.Set {
	return p.Child.Dependencies()
}
func (p Project) IntoBindings() []binding.Binding { return p.Child.IntoBindings() }

func (p Project) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	childImpl, sh, err := p.Child.Implement(scope, locals, ctx, tr)
	if err != nil {
		return nil, sh, err
	}
	rel, matSh, err := implementedToCollection(childImpl, scope, ctx)
	sh.MergeWith(matSh)
	if err != nil {
		return nil, sh, err
	}

	idx, ok := columnIndices(rel.Vars, p.Target)
	if !ok {
		return nil, sh, diffplanerr.Fatal("Project", diffplanerr.ErrUnboundJoinTarget, "target variable not bound by child")
	}
	stream := mappedStream{src: rel.Tuples, fn: selectColumns(idx)}
	return carrier.CollectionRelation{Vars: p.Target, Tuples: stream}, sh, nil
}
