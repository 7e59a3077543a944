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

// Join is an equijoin on a non-empty target variable list. The compiler
// branches on the carrier variants of its two children (spec §4.6): this
// three-way split is the principal source of the engine's asymptotic
// advantage over naive relational evaluation, since it lets attribute
// leaves stay in native indexed form through as many layers as possible.
type Join struct {
	Target      []ident.Var
	Left, Right Plan
}

func (j Join) Variables() []ident.Var {
	leftRem := remainder(j.Left.Variables(), j.Target)
	rightRem := remainder(j.Right.Variables(), j.Target)
	out := make([]ident.Var, 0, len(j.Target)+len(leftRem)+len(rightRem))
	out = append(out, j.Target...)
	out = append(out, leftRem...)
	out = append(out, rightRem...)
	return out
}

func (j Join) Dependencies() depset.Set {
	return depset.Union(j.Left.Dependencies(), j.Right.Dependencies())
}

func (j Join) IntoBindings() []binding.Binding {
	return append(append([]binding.Binding{}, j.Left.IntoBindings()...), j.Right.IntoBindings()...)
}

func (j Join) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	if len(j.Target) == 0 {
		return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("Join", diffplanerr.ErrUnboundJoinTarget, "join target list must be non-empty")
	}
	for _, t := range j.Target {
		if indexOfVar(j.Left.Variables(), t) < 0 || indexOfVar(j.Right.Variables(), t) < 0 {
			return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("Join", diffplanerr.ErrUnboundJoinTarget, fmt.Sprintf("%s not bound by both children", t))
		}
	}

	leftImpl, leftSh, err := j.Left.Implement(scope, locals, ctx, tr)
	var shutdown carrier.ShutdownHandle
	shutdown.MergeWith(leftSh)
	if err != nil {
		return nil, shutdown, err
	}
	rightImpl, rightSh, err := j.Right.Implement(scope, locals, ctx, tr)
	shutdown.MergeWith(rightSh)
	if err != nil {
		return nil, shutdown, err
	}

	leftAB, leftIsAttr := leftImpl.(carrier.AttributeBinding)
	rightAB, rightIsAttr := rightImpl.(carrier.AttributeBinding)

	switch {
	case leftIsAttr && rightIsAttr:
		tr.Add(trace.Event{Name: trace.JoinModeChosen, Data: map[string]any{"mode": "attribute-attribute"}})
		return j.implementAttrAttr(scope, ctx, leftAB, rightAB, shutdown)
	case leftIsAttr && !rightIsAttr:
		tr.Add(trace.Event{Name: trace.JoinModeChosen, Data: map[string]any{"mode": "attribute-collection"}})
		leftRel, matSh, err := implementedToCollection(leftImpl, scope, ctx)
		shutdown.MergeWith(matSh)
		if err != nil {
			return nil, shutdown, err
		}
		return j.implementCollCollection(scope, leftRel, rightImpl.(carrier.CollectionRelation), shutdown)
	case !leftIsAttr && rightIsAttr:
		tr.Add(trace.Event{Name: trace.JoinModeChosen, Data: map[string]any{"mode": "collection-attribute"}})
		rightRel, matSh, err := implementedToCollection(rightImpl, scope, ctx)
		shutdown.MergeWith(matSh)
		if err != nil {
			return nil, shutdown, err
		}
		return j.implementCollCollection(scope, leftImpl.(carrier.CollectionRelation), rightRel, shutdown)
	default:
		tr.Add(trace.Event{Name: trace.JoinModeChosen, Data: map[string]any{"mode": "collection-collection"}})
		return j.implementCollCollection(scope, leftImpl.(carrier.CollectionRelation), rightImpl.(carrier.CollectionRelation), shutdown)
	}
}

// implementAttrAttr handles spec §4.6 case (a): |T| = 1, both children
// still unmaterialized attribute edges. Each handle's ImportCore is
// responsible for entering the nested scope at its trace's advanced
// frontier (spec's "(advanced_outer, 0)" packaging) — that responsibility
// lives in the catalog.Context implementation (memcatalog, badgercatalog),
// not here.
func (j Join) implementAttrAttr(scope dataflow.IterativeScope, ctx catalog.Context, left, right carrier.AttributeBinding, shutdown carrier.ShutdownHandle) (carrier.Implemented, carrier.ShutdownHandle, error) {
	if len(j.Target) > 2 {
		return nil, shutdown, diffplanerr.Fatal("Join", diffplanerr.ErrJoinArityExceeded, fmt.Sprintf("%d targets", len(j.Target)))
	}
	if len(j.Target) == 2 {
		return nil, shutdown, diffplanerr.Fatal("Join", diffplanerr.ErrUnimplementedShape, "attribute x attribute join over two targets (intersection semantics not yet chosen, spec §9)")
	}

	t := j.Target[0]
	leftOther, leftHandle, err := pickPropose(ctx, left, t)
	if err != nil {
		return nil, shutdown, err
	}
	rightOther, rightHandle, err := pickPropose(ctx, right, t)
	if err != nil {
		return nil, shutdown, err
	}

	leftArr, leftBtn := leftHandle.ImportCore(scope)
	rightArr, rightBtn := rightHandle.ImportCore(scope)
	shutdown.AddButton(leftBtn)
	shutdown.AddButton(rightBtn)

	keyOf := func(row dataflow.Row) value.Value { return row[0] }
	combine := func(l, r dataflow.Row) dataflow.Row {
		return dataflow.Row{l[0], l[1], r[1]}
	}
	joined := scope.JoinByKey(leftArr.AsStream(), keyOf, rightArr.AsStream(), keyOf, combine)
	return carrier.CollectionRelation{Vars: []ident.Var{t, leftOther, rightOther}, Tuples: joined}, shutdown, nil
}

// pickPropose picks forward- or reverse-propose for ab depending on which
// of ab's two variables is the join target, returning the other variable
// alongside the chosen handle (spec §4.6 case (a)).
func pickPropose(ctx catalog.Context, ab carrier.AttributeBinding, target ident.Var) (ident.Var, dataflow.TraceValHandle, error) {
	switch target {
	case ab.EntityVar:
		h, ok := ctx.ForwardPropose(ab.SourceAttribute)
		if !ok {
			return 0, nil, diffplanerr.Fatal("Join", diffplanerr.ErrMissingAttribute, string(ab.SourceAttribute))
		}
		return ab.ValueVar, h, nil
	case ab.ValueVar:
		h, ok := ctx.ReversePropose(ab.SourceAttribute)
		if !ok {
			return 0, nil, diffplanerr.Fatal("Join", diffplanerr.ErrMissingAttribute, string(ab.SourceAttribute))
		}
		return ab.EntityVar, h, nil
	default:
		return 0, nil, diffplanerr.Fatal("Join", diffplanerr.ErrUnboundJoinTarget, fmt.Sprintf("%s not bound by attribute %s", target, ab.SourceAttribute))
	}
}

// implementCollCollection handles spec §4.6 case (c): each side is
// re-arranged by the target variable list via TuplesByVariables, then
// joined by key. Output schema is T ++ left.vars\T ++ right.vars\T.
func (j Join) implementCollCollection(scope dataflow.IterativeScope, left, right carrier.CollectionRelation, shutdown carrier.ShutdownHandle) (carrier.Implemented, carrier.ShutdownHandle, error) {
	for _, t := range j.Target {
		if indexOfVar(left.Vars, t) < 0 || indexOfVar(right.Vars, t) < 0 {
			return nil, shutdown, diffplanerr.Fatal("Join", diffplanerr.ErrUnboundJoinTarget, fmt.Sprintf("%s not bound by both children", t))
		}
	}

	leftArr := left.TuplesByVariables(scope, j.Target)
	rightArr := right.TuplesByVariables(scope, j.Target)

	leftRemVars, leftProject := left.Remainder(j.Target)
	rightRemVars, rightProject := right.Remainder(j.Target)

	leftKeyOf := keyOfTarget(left.Vars, j.Target)
	rightKeyOf := keyOfTarget(right.Vars, j.Target)

	combine := func(l, r dataflow.Row) dataflow.Row {
		out := make(dataflow.Row, 0, len(j.Target)+len(leftRemVars)+len(rightRemVars))
		for _, t := range j.Target {
			out = append(out, l[indexOfVar(left.Vars, t)])
		}
		out = append(out, leftProject(l)...)
		out = append(out, rightProject(r)...)
		return out
	}

	joined := scope.JoinByKey(leftArr.AsStream(), leftKeyOf, rightArr.AsStream(), rightKeyOf, combine)

	outVars := make([]ident.Var, 0, len(j.Target)+len(leftRemVars)+len(rightRemVars))
	outVars = append(outVars, j.Target...)
	outVars = append(outVars, leftRemVars...)
	outVars = append(outVars, rightRemVars...)
	return carrier.CollectionRelation{Vars: outVars, Tuples: joined}, shutdown, nil
}

func keyOfTarget(vars []ident.Var, target []ident.Var) func(dataflow.Row) value.Value {
	idx, _ := columnIndices(vars, target)
	return func(row dataflow.Row) value.Value {
		key := make(value.Tuple, len(idx))
		for i, pos := range idx {
			key[i] = row[pos]
		}
		return key
	}
}
