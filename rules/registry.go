package rules

import (
	"github.com/wbrown/diffplan/catalog"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/plan"
)

// Registry is the parsed, analysed contents of a rule file: every named
// rule's Plan tree plus the per-rule underconstrained flag catalog.Context
// needs for NameExpr's branch (spec §4.2, SPEC_FULL §4.9).
type Registry struct {
	order            []string
	plans            map[string]plan.Plan
	underconstrained map[string]bool
}

// Load parses src (a sequence of top-level (rule ...) forms) and runs the
// underconstrained analysis over each.
func Load(src string, gen *ident.VarGen, interner *ident.Interner) (*Registry, error) {
	decls, err := parseSource(src, gen, interner)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		plans:            map[string]plan.Plan{},
		underconstrained: map[string]bool{},
	}
	for _, d := range decls {
		r.order = append(r.order, d.name)
		r.plans[d.name] = d.body
		r.underconstrained[d.name] = isUnderconstrained(d.vars, d.body)
	}
	return r, nil
}

// Names returns every rule name in file order.
func (r *Registry) Names() []string { return r.order }

// Rule returns the named rule's Plan.
func (r *Registry) Rule(name string) (plan.Plan, bool) {
	p, ok := r.plans[name]
	return p, ok
}

// IsUnderconstrained reports whether name was found underconstrained.
func (r *Registry) IsUnderconstrained(name string) bool {
	return r.underconstrained[name]
}

// catalogTarget is the subset of catalog population every backing
// catalog.Context implementation (memcatalog.Catalog, badgercatalog.Catalog)
// exposes for registering parsed rules, letting Populate stay agnostic of
// which concrete catalog it's filling in.
type catalogTarget interface {
	AddRule(name string, def catalog.RuleDef, underconstrained bool)
}

// Populate registers every rule in the registry with cat.
func (r *Registry) Populate(cat catalogTarget) {
	for _, name := range r.order {
		cat.AddRule(name, r.plans[name], r.underconstrained[name])
	}
}

// isUnderconstrained implements SPEC_FULL §4.9: a rule is underconstrained
// iff fewer than 2 of its leaf patterns jointly constrain each of its
// top-level bound variables.
func isUnderconstrained(boundVars []ident.Var, body plan.Plan) bool {
	counts := map[ident.Var]int{}
	countLeafBindings(body, counts)
	for _, v := range boundVars {
		if counts[v] < 2 {
			return true
		}
	}
	return false
}

// countLeafBindings walks p, incrementing counts for every variable a leaf
// pattern (MatchA, MatchEA, MatchAV) or an imported NameExpr binds —
// adapted from the teacher's planner BoundMask/selectivity walk, not
// copied: that walk works over the teacher's own pattern AST, this one
// over plan.Plan's closed sum.
func countLeafBindings(p plan.Plan, counts map[ident.Var]int) {
	switch n := p.(type) {
	case plan.MatchA:
		counts[n.Entity]++
		counts[n.Value]++
	case plan.MatchEA:
		counts[n.Value]++
	case plan.MatchAV:
		counts[n.Symbol]++
	case plan.NameExpr:
		for _, v := range n.Vars {
			counts[v]++
		}
	case plan.Join:
		countLeafBindings(n.Left, counts)
		countLeafBindings(n.Right, counts)
	case plan.Union:
		for _, c := range n.Children {
			countLeafBindings(c, counts)
		}
	case plan.Project:
		countLeafBindings(n.Child, counts)
	case plan.Negate:
		countLeafBindings(n.Child, counts)
	case plan.CardinalityOne:
		countLeafBindings(n.Child, counts)
	}
}
