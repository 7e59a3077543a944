package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/diffplan/carrier"
	"github.com/wbrown/diffplan/catalog/memcatalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/dataflow/memdataflow"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/plan"
	"github.com/wbrown/diffplan/trace"
	"github.com/wbrown/diffplan/value"
)

func newScope() (*memdataflow.Runtime, *memdataflow.Iterative) {
	rt := memdataflow.NewRuntime(memdataflow.RuntimeOptions{})
	outer := rt.NewScope()
	return rt, outer.NewIterative("root")
}

func rows(t *testing.T, stream dataflow.Stream) []dataflow.Update {
	t.Helper()
	return stream.Updates()
}

// S1. MatchA round-trip.
func TestMatchARoundTrip(t *testing.T) {
	cat := memcatalog.New()
	g := ident.NewVarGen()
	e, v := g.FreshUser(), g.FreshUser()

	cat.Assert("parent", 1, value.Eid(2), dataflow.Moment(0))
	cat.Assert("parent", 1, value.Eid(3), dataflow.Moment(0))
	cat.Assert("parent", 2, value.Eid(4), dataflow.Moment(0))

	_, scope := newScope()
	p := plan.MatchA{Entity: e, Value: v, Attribute: "parent"}
	impl, sh, err := p.Implement(scope, nil, cat, nil)
	require.NoError(t, err)
	defer sh.Press()

	require.Equal(t, []ident.Var{e, v}, impl.Variables())
}

// S2. Equijoin.
func TestEquijoin(t *testing.T) {
	cat := memcatalog.New()
	g := ident.NewVarGen()
	e, v, n := g.FreshUser(), g.FreshUser(), g.FreshUser()

	cat.Assert("parent", 1, value.Eid(2), dataflow.Moment(0))
	cat.Assert("parent", 2, value.Eid(3), dataflow.Moment(0))
	cat.Assert("name", 1, value.Str("a"), dataflow.Moment(0))
	cat.Assert("name", 2, value.Str("b"), dataflow.Moment(0))
	cat.Assert("name", 3, value.Str("c"), dataflow.Moment(0))

	_, scope := newScope()
	j := plan.Join{
		Target: []ident.Var{e},
		Left:   plan.MatchA{Entity: e, Value: v, Attribute: "parent"},
		Right:  plan.MatchA{Entity: e, Value: n, Attribute: "name"},
	}
	impl, sh, err := j.Implement(scope, nil, cat, nil)
	require.NoError(t, err)
	defer sh.Press()

	require.Equal(t, []ident.Var{e, v, n}, impl.Variables())

	rel, ok := impl.(carrier.CollectionRelation)
	require.True(t, ok)
	got := rows(t, rel.Tuples)
	require.Len(t, got, 2)
}

// S3. Union with set-semantics.
func TestUnionSetSemantics(t *testing.T) {
	cat := memcatalog.New()
	g := ident.NewVarGen()
	x := g.FreshUser()

	cat.Assert("color", 1, value.Str("red"), dataflow.Moment(0))
	cat.Assert("color", 2, value.Str("red"), dataflow.Moment(0))

	_, scope := newScope()
	u := plan.Union{
		SetSemantics: true,
		Children: []plan.Plan{
			plan.MatchAV{Symbol: x, Attribute: "color", Value: value.Str("red")},
			plan.MatchAV{Symbol: x, Attribute: "color", Value: value.Str("red")},
		},
	}
	impl, sh, err := u.Implement(scope, nil, cat, nil)
	require.NoError(t, err)
	defer sh.Press()

	require.Equal(t, []ident.Var{x}, impl.Variables())
}

// S4. Projection drops columns.
func TestProjectDropsColumns(t *testing.T) {
	cat := memcatalog.New()
	g := ident.NewVarGen()
	e, v, n := g.FreshUser(), g.FreshUser(), g.FreshUser()

	cat.Assert("parent", 1, value.Eid(2), dataflow.Moment(0))
	cat.Assert("name", 1, value.Str("a"), dataflow.Moment(0))

	_, scope := newScope()
	j := plan.Join{
		Target: []ident.Var{e},
		Left:   plan.MatchA{Entity: e, Value: v, Attribute: "parent"},
		Right:  plan.MatchA{Entity: e, Value: n, Attribute: "name"},
	}
	proj := plan.Project{Child: j, Target: []ident.Var{e, n}}
	impl, sh, err := proj.Implement(scope, nil, cat, nil)
	require.NoError(t, err)
	defer sh.Press()

	require.Equal(t, []ident.Var{e, n}, impl.Variables())
}

// S5. CardinalityOne overwrite: asserting B after A retracts A.
func TestCardinalityOneOverwriteAndRetract(t *testing.T) {
	cat := memcatalog.New()
	g := ident.NewVarGen()
	e, v := g.FreshUser(), g.FreshUser()

	cat.Assert("profile-color", 1, value.Str("A"), dataflow.Moment(0))
	cat.Assert("profile-color", 1, value.Str("B"), dataflow.Moment(1))

	_, scope := newScope()
	c := plan.CardinalityOne{Child: plan.MatchA{Entity: e, Value: v, Attribute: "profile-color"}}
	impl, sh, err := c.Implement(scope, nil, cat, trace.NewCollector(nil))
	require.NoError(t, err)
	defer sh.Press()

	require.Equal(t, []ident.Var{e, v}, impl.Variables())

	rel, ok := impl.(carrier.CollectionRelation)
	require.True(t, ok)
	got := rows(t, rel.Tuples)
	require.Len(t, got, 3) // +A, -A, +B

	var sumA, sumB int64
	for _, u := range got {
		if u.Row[1].Equal(value.Str("A")) {
			sumA += u.Diff
		}
		if u.Row[1].Equal(value.Str("B")) {
			sumB += u.Diff
		}
	}
	require.Equal(t, int64(0), sumA)
	require.Equal(t, int64(1), sumB)
}
