package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/diffplan/carrier"
	"github.com/wbrown/diffplan/catalog/memcatalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/plan"
	"github.com/wbrown/diffplan/value"
)

// TestNameExprUnderconstrainedReusesLocal covers NameExpr's underconstrained
// branch (spec §4.2): a rule already known to the registry as
// underconstrained is consumed from the scope-local map built by the rules
// that ran earlier this fixed-point iteration, never re-imported from a
// global arrangement.
func TestNameExprUnderconstrainedReusesLocal(t *testing.T) {
	cat := memcatalog.New()
	cat.AddRule("ancestor", "(opaque)", true)

	g := ident.NewVarGen()
	e := g.FreshUser()
	local := carrier.CollectionRelation{
		Vars: []ident.Var{e},
		Tuples: fixedStream{
			{Row: dataflow.Row{value.Eid(1)}, Time: dataflow.Moment(0), Diff: 1},
		},
	}

	_, scope := newScope()
	n := plan.NameExpr{Name: "ancestor", Vars: []ident.Var{e}}
	impl, sh, err := n.Implement(scope, plan.LocalArrangements{"ancestor": local}, cat, nil)
	require.NoError(t, err)
	defer sh.Press()

	rel := impl.(carrier.CollectionRelation)
	require.Equal(t, []ident.Var{e}, rel.Vars)
	got := rows(t, rel.Tuples)
	require.Len(t, got, 1)
	require.True(t, got[0].Row[0].Equal(value.Eid(1)))
}

// TestNameExprUnderconstrainedMissingLocalErrors covers the case where the
// registry marks a rule underconstrained but the caller never populated its
// entry in locals — a compiler bug, reported as ErrUnknownRule rather than
// a nil-map panic.
func TestNameExprUnderconstrainedMissingLocalErrors(t *testing.T) {
	cat := memcatalog.New()
	cat.AddRule("ancestor", "(opaque)", true)

	_, scope := newScope()
	n := plan.NameExpr{Name: "ancestor", Vars: []ident.Var{ident.NewVarGen().FreshUser()}}
	_, _, err := n.Implement(scope, nil, cat, nil)
	require.Error(t, err)
}

// TestNameExprGlobalSameOrderSkipsRemap covers the global-arrangement branch
// when the call site's variable order already matches the arrangement's —
// design decision (b) of spec §9: no projection operator is inserted.
func TestNameExprGlobalSameOrderSkipsRemap(t *testing.T) {
	cat := memcatalog.New()
	g := ident.NewVarGen()
	e, v := g.FreshUser(), g.FreshUser()

	cat.AddGlobalArrangement("person", []ident.Var{e, v}, []dataflow.Row{
		{value.Eid(1), value.Str("alice")},
	}, dataflow.Moment(0))

	_, scope := newScope()
	n := plan.NameExpr{Name: "person", Vars: []ident.Var{e, v}}
	impl, sh, err := n.Implement(scope, nil, cat, nil)
	require.NoError(t, err)
	defer sh.Press()

	rel := impl.(carrier.CollectionRelation)
	got := rows(t, rel.Tuples)
	require.Len(t, got, 1)
	require.True(t, got[0].Row[0].Equal(value.Eid(1)))
	require.True(t, got[0].Row[1].Equal(value.Str("alice")))
}

// TestNameExprGlobalReorderedRemaps covers the global-arrangement branch
// when the call site wants a different column order than the arrangement
// was materialized in — NameExpr must insert a column-selecting remap
// rather than handing back the arrangement's native order.
func TestNameExprGlobalReorderedRemaps(t *testing.T) {
	cat := memcatalog.New()
	g := ident.NewVarGen()
	e, v := g.FreshUser(), g.FreshUser()

	cat.AddGlobalArrangement("person", []ident.Var{e, v}, []dataflow.Row{
		{value.Eid(1), value.Str("alice")},
	}, dataflow.Moment(0))

	_, scope := newScope()
	n := plan.NameExpr{Name: "person", Vars: []ident.Var{v, e}}
	impl, sh, err := n.Implement(scope, nil, cat, nil)
	require.NoError(t, err)
	defer sh.Press()

	rel := impl.(carrier.CollectionRelation)
	require.Equal(t, []ident.Var{v, e}, rel.Vars)
	got := rows(t, rel.Tuples)
	require.Len(t, got, 1)
	require.True(t, got[0].Row[0].Equal(value.Str("alice")))
	require.True(t, got[0].Row[1].Equal(value.Eid(1)))
}

// TestNameExprUnknownGlobalArrangementErrors covers the not-underconstrained
// branch when no rule of that name was ever registered.
func TestNameExprUnknownGlobalArrangementErrors(t *testing.T) {
	cat := memcatalog.New()
	_, scope := newScope()
	n := plan.NameExpr{Name: "no-such-rule", Vars: nil}
	_, _, err := n.Implement(scope, nil, cat, nil)
	require.Error(t, err)
}
