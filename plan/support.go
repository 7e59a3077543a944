package plan

import (
	"github.com/wbrown/diffplan/carrier"
	"github.com/wbrown/diffplan/catalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/diffplanerr"
	"github.com/wbrown/diffplan/ident"
)

// mappedStream lazily applies fn to a source stream's updates every time
// Updates is called — used for the column-selecting and key-filtering
// projections pattern leaves and Project need, without requiring the
// dataflow.Scope contract to expose a generic map/filter primitive.
type mappedStream struct {
	src dataflow.Stream
	fn  func(dataflow.Update) (dataflow.Update, bool)
}

func (m mappedStream) Updates() []dataflow.Update {
	src := m.src.Updates()
	out := make([]dataflow.Update, 0, len(src))
	for _, u := range src {
		if nu, keep := m.fn(u); keep {
			out = append(out, nu)
		}
	}
	return out
}

func selectColumns(idx []int) func(dataflow.Update) (dataflow.Update, bool) {
	return func(u dataflow.Update) (dataflow.Update, bool) {
		row := make(dataflow.Row, len(idx))
		for i, pos := range idx {
			row[i] = u.Row[pos]
		}
		return dataflow.Update{Row: row, Time: u.Time, Diff: u.Diff}, true
	}
}

func indexOfVar(vars []ident.Var, v ident.Var) int {
	for i, x := range vars {
		if x == v {
			return i
		}
	}
	return -1
}

func columnIndices(vars []ident.Var, target []ident.Var) ([]int, bool) {
	idx := make([]int, len(target))
	for i, t := range target {
		pos := indexOfVar(vars, t)
		if pos < 0 {
			return nil, false
		}
		idx[i] = pos
	}
	return idx, true
}

// remainder returns vars \ target, preserving vars' original order (spec
// §4.6 case (c): "left.vars \ T").
func remainder(vars []ident.Var, target []ident.Var) []ident.Var {
	inTarget := make(map[ident.Var]bool, len(target))
	for _, t := range target {
		inTarget[t] = true
	}
	var out []ident.Var
	for _, v := range vars {
		if !inTarget[v] {
			out = append(out, v)
		}
	}
	return out
}

// implementedToCollection forces an Implemented carrier into a
// CollectionRelation, importing and materializing an AttributeBinding's
// forward-propose trace when one is given. Structural operators that
// genuinely need a full tuple stream (Project, Union, Negate,
// CardinalityOne, and the Join carrier-split's case (b)) call this instead
// of duplicating the materialization logic.
func implementedToCollection(impl carrier.Implemented, scope dataflow.IterativeScope, ctx catalog.Context) (carrier.CollectionRelation, carrier.ShutdownHandle, error) {
	switch v := impl.(type) {
	case carrier.CollectionRelation:
		return v, carrier.ShutdownHandle{}, nil
	case carrier.AttributeBinding:
		h, ok := ctx.ForwardPropose(v.SourceAttribute)
		if !ok {
			return carrier.CollectionRelation{}, carrier.ShutdownHandle{}, diffplanerr.Fatal("materialize", diffplanerr.ErrMissingAttribute, string(v.SourceAttribute))
		}
		arr, btn := h.ImportCore(scope)
		var sh carrier.ShutdownHandle
		sh.AddButton(btn)
		rows := mappedStream{src: arr.AsStream(), fn: func(u dataflow.Update) (dataflow.Update, bool) {
			return dataflow.Update{Row: dataflow.Row{u.Row[0], u.Row[1]}, Time: u.Time, Diff: u.Diff}, true
		}}
		return carrier.CollectionRelation{Vars: []ident.Var{v.EntityVar, v.ValueVar}, Tuples: rows}, sh, nil
	default:
		panic("plan: unknown Implemented variant")
	}
}
