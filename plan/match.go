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
	"github.com/wbrown/diffplan/value"
)

// MatchA is the unmaterialized pattern leaf: it binds a whole attribute's
// (entity, value) pairs to a pair of variables without importing anything
// — consumers decide whether and how to materialize it (spec §4.2).
type MatchA struct {
	Entity, Value ident.Var
	Attribute     ident.Aid
}

func (m MatchA) Variables() []ident.Var { return []ident.Var{m.Entity, m.Value} }
func (m MatchA) Dependencies() depset.Set {
	return depset.OfAttribute(m.Attribute)
}
func (m MatchA) IntoBindings() []binding.Binding {
	return []binding.Binding{binding.Attribute{Entity: m.Entity, Value: m.Value, Source: m.Attribute}}
}
func (m MatchA) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	if !ctx.HasAttribute(m.Attribute) {
		return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("MatchA", diffplanerr.ErrMissingAttribute, string(m.Attribute))
	}
	return carrier.AttributeBinding{EntityVar: m.Entity, ValueVar: m.Value, SourceAttribute: m.Attribute}, carrier.ShutdownHandle{}, nil
}

// MatchEA binds a single variable to the values a named attribute holds for
// one concrete entity: forward-propose filtered to key == Entity, then
// projected to a one-column tuple.
type MatchEA struct {
	Entity    ident.Eid
	Attribute ident.Aid
	Value     ident.Var
}

func (m MatchEA) Variables() []ident.Var { return []ident.Var{m.Value} }
func (m MatchEA) Dependencies() depset.Set {
	return depset.OfAttribute(m.Attribute)
}

// IntoBindings returns no bindings: a concrete-entity scan doesn't fit
// either binding.Attribute (which needs two variables) or binding.Constant
// (whose variable, not value, is the known quantity here). The
// worst-case-optimal evaluator this feeds is out of scope (spec §1), so
// this is a documented simplification rather than a load-bearing contract.
func (m MatchEA) IntoBindings() []binding.Binding { return nil }

func (m MatchEA) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	h, ok := ctx.ForwardPropose(m.Attribute)
	if !ok {
		return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("MatchEA", diffplanerr.ErrMissingAttribute, string(m.Attribute))
	}
	arr, btn := h.ImportCore(scope)
	var sh carrier.ShutdownHandle
	sh.AddButton(btn)
	want := value.Eid(m.Entity)
	filtered := mappedStream{src: arr.AsStream(), fn: func(u dataflow.Update) (dataflow.Update, bool) {
		if !u.Row[0].Equal(want) {
			return u, false
		}
		return dataflow.Update{Row: dataflow.Row{u.Row[1]}, Time: u.Time, Diff: u.Diff}, true
	}}
	return carrier.CollectionRelation{Vars: []ident.Var{m.Value}, Tuples: filtered}, sh, nil
}

// MatchAV binds a single variable to the entities holding one concrete
// value for a named attribute: forward-propose filtered to value == Value,
// then projected to a one-column tuple of the key.
type MatchAV struct {
	Symbol    ident.Var
	Attribute ident.Aid
	Value     value.Value
}

func (m MatchAV) Variables() []ident.Var { return []ident.Var{m.Symbol} }
func (m MatchAV) Dependencies() depset.Set {
	return depset.OfAttribute(m.Attribute)
}

// IntoBindings returns no bindings, for the same reason as MatchEA.
func (m MatchAV) IntoBindings() []binding.Binding { return nil }

func (m MatchAV) Implement(scope dataflow.IterativeScope, locals LocalArrangements, ctx catalog.Context, tr *trace.Collector) (carrier.Implemented, carrier.ShutdownHandle, error) {
	h, ok := ctx.ForwardPropose(m.Attribute)
	if !ok {
		return nil, carrier.ShutdownHandle{}, diffplanerr.Fatal("MatchAV", diffplanerr.ErrMissingAttribute, string(m.Attribute))
	}
	arr, btn := h.ImportCore(scope)
	var sh carrier.ShutdownHandle
	sh.AddButton(btn)
	filtered := mappedStream{src: arr.AsStream(), fn: func(u dataflow.Update) (dataflow.Update, bool) {
		if !u.Row[1].Equal(m.Value) {
			return u, false
		}
		return dataflow.Update{Row: dataflow.Row{u.Row[0]}, Time: u.Time, Diff: u.Diff}, true
	}}
	return carrier.CollectionRelation{Vars: []ident.Var{m.Symbol}, Tuples: filtered}, sh, nil
}
