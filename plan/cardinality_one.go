package plan

import (
	"fmt"

	"github.com/wbrown/diffplan/binding"
	"github.com/wbrown/diffplan/carrier"
	"github.com/wbrown/diffplan/catalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/depset"
	"github.com/wbrown/diffplan/diffplanerr"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/trace"
	"github.com/wbrown/diffplan/value"
)

// CardinalityOne is the attribute-level constraint operator: at most one
// (e, v) pair survives per entity at any timestamp, a new value implicitly
// retracting the prior one (spec §4.7).
type CardinalityOne struct {
	Child Plan
}

func (c CardinalityOne) Variables() []ident.Var { return c.Child.Variables() }

func (c CardinalityOne) Dependencies() depset.Set {
	return c.Child.Dependencies()
}
func (c CardinalityOne) IntoBindings() []binding.Binding { return c.Child.IntoBindings() }

func (c CardinalityOne) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	impl, sh, err := c.Child.Implement(scope, locals, ctx, tr)
	if err != nil {
		return nil, sh, err
	}
	rel, matSh, err := implementedToCollection(impl, scope, ctx)
	sh.MergeWith(matSh)
	if err != nil {
		return nil, sh, err
	}
	if len(rel.Vars) != 2 {
		return nil, sh, diffplanerr.Fatal("CardinalityOne", diffplanerr.ErrUnimplementedShape, "child must bind exactly (entity, value)")
	}

	keyOf := func(row dataflow.Row) value.Value { return row[0] }
	result := scope.StateMachine(rel.Tuples, keyOf, stateMachineFn(tr))
	return carrier.CollectionRelation{Vars: rel.Vars, Tuples: result}, sh, nil
}

// stateMachineFn implements the per-key Option<Value> transition table of
// spec §4.7. The group it receives is already sorted ascending by time
// (the runtime's state_machine primitive's contract — memdataflow.Scope
// sorts before calling, as the reference behavior for "sort-by-time within
// a batch is required").
func stateMachineFn(tr *trace.Collector) dataflow.StateMachineFunc {
	return func(key value.Value, group []dataflow.Update) []dataflow.Update {
		var state *value.Value
		var out []dataflow.Update
		for _, u := range group {
			v := u.Row[1]
			switch {
			case u.Diff > 0:
				if state != nil {
					out = append(out, dataflow.Update{Row: dataflow.Row{key, *state}, Time: u.Time, Diff: -1})
				}
				out = append(out, dataflow.Update{Row: dataflow.Row{key, v}, Time: u.Time, Diff: 1})
				vv := v
				state = &vv
			case u.Diff < 0:
				if state == nil {
					tr.Add(trace.Event{Name: trace.CardinalityOneRetraction, Data: map[string]any{"key": key.String(), "missing": true}})
					diffplanerr.Raise(diffplanerr.CardinalityOneRetractionOfMissingKey, fmt.Sprintf("entity %s", key))
				}
				out = append(out, dataflow.Update{Row: dataflow.Row{key, *state}, Time: u.Time, Diff: -1})
				state = nil
			}
		}
		return out
	}
}
