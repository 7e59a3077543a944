// Package carrier defines Implemented, the sum type every Plan.Implement
// call returns, and ShutdownHandle, the composable teardown token that
// travels alongside it. Keeping the attribute/collection split explicit
// in the type of every Implement return value is what lets the join
// compiler defer arrangement until something actually demands one (spec
// §4.6, §9 "Carrier dichotomy").
package carrier

import (
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/value"
)

// Implemented is the compiled form of a Plan subtree: either a logical
// attribute edge that has not yet been materialized (AttributeBinding),
// or an actual dataflow collection (CollectionRelation).
type Implemented interface {
	// Variables returns the positional variable list this carrier binds.
	Variables() []ident.Var
	implemented()
}

// AttributeBinding represents a logical (e, v) edge over a named
// attribute that the compiler has not yet turned into an arrangement.
// Consumers that only ever need one side of the pair (e.g. a join
// targeting v) can import just the propose index they need instead of
// paying for a full two-column materialization.
type AttributeBinding struct {
	// EntityVar, ValueVar are the (e, v) pair of variables this edge
	// binds, in that order.
	EntityVar, ValueVar ident.Var
	SourceAttribute     ident.Aid
}

func (AttributeBinding) implemented() {}

func (a AttributeBinding) Variables() []ident.Var {
	return []ident.Var{a.EntityVar, a.ValueVar}
}

// CollectionRelation is a materialized, timestamped, multiset-differenced
// stream of tuples whose positional schema is Variables.
type CollectionRelation struct {
	Vars   []ident.Var
	Tuples dataflow.Stream
}

func (CollectionRelation) implemented() {}

func (c CollectionRelation) Variables() []ident.Var {
	return c.Vars
}

// indexOf returns the position of v in c.Vars, or -1.
func (c CollectionRelation) indexOf(v ident.Var) int {
	for i, cv := range c.Vars {
		if cv == v {
			return i
		}
	}
	return -1
}

// TuplesByVariables re-arranges the relation by the given target
// variable list, keyed on a packed value.Tuple of those columns — the
// "tuples_by_variables" service spec §4.6 case (c) names. Panics (a
// programmer error, not a data error) if a requested variable isn't
// actually bound by this relation; callers are expected to have already
// validated that via the Join compiler's UnboundJoinTarget check.
func (c CollectionRelation) TuplesByVariables(scope dataflow.Scope, target []ident.Var) dataflow.Arrangement {
	idx := make([]int, len(target))
	for i, v := range target {
		pos := c.indexOf(v)
		if pos < 0 {
			panic("carrier: TuplesByVariables called with an unbound variable")
		}
		idx[i] = pos
	}
	keyOf := func(row dataflow.Row) value.Value {
		key := make(value.Tuple, len(idx))
		for i, pos := range idx {
			key[i] = row[pos]
		}
		return key
	}
	return scope.ArrangeByKey(c.Tuples, keyOf)
}

// Remainder returns the variables and a row-projection function for every
// column of c NOT in target, in c's original order — the "left.vars \ T"
// /"right.vars \ T" piece of the Join schema (spec §4.6 case (c)).
func (c CollectionRelation) Remainder(target []ident.Var) (vars []ident.Var, project func(dataflow.Row) dataflow.Row) {
	inTarget := make(map[ident.Var]bool, len(target))
	for _, v := range target {
		inTarget[v] = true
	}
	var idx []int
	for i, v := range c.Vars {
		if !inTarget[v] {
			vars = append(vars, v)
			idx = append(idx, i)
		}
	}
	project = func(row dataflow.Row) dataflow.Row {
		out := make(dataflow.Row, len(idx))
		for i, pos := range idx {
			out[i] = row[pos]
		}
		return out
	}
	return vars, project
}

// ShutdownHandle is an unordered collection of per-arrangement shutdown
// buttons. Composition is associative and pressing a composite handle
// presses every constituent exactly once, even if the same button was
// merged in from two different subtrees — a join's two operands can
// each hold a handle onto the same imported arrangement, so dedup is by
// button identity, not by merge path.
type ShutdownHandle struct {
	buttons []dataflow.ShutdownButton
	seen    map[dataflow.ShutdownButton]bool
	pressed bool
}

// AddButton adds a single button to the handle. A button already present
// (by identity) is skipped, so merging the same import in along two
// different paths still presses it only once.
func (h *ShutdownHandle) AddButton(b dataflow.ShutdownButton) {
	if b == nil {
		return
	}
	if h.seen == nil {
		h.seen = make(map[dataflow.ShutdownButton]bool)
	}
	if h.seen[b] {
		return
	}
	h.seen[b] = true
	h.buttons = append(h.buttons, b)
}

// MergeWith unions other's buttons into h, deduplicated by identity.
func (h *ShutdownHandle) MergeWith(other ShutdownHandle) {
	for _, b := range other.buttons {
		h.AddButton(b)
	}
}

// Press deactivates every referenced import. Idempotent: a second Press
// is a no-op, matching the runtime's double-press contract (spec §5).
func (h *ShutdownHandle) Press() {
	if h.pressed {
		return
	}
	h.pressed = true
	for _, b := range h.buttons {
		b.Press()
	}
}
