// Package dataflow declares the contracts the compiler consumes from the
// external incremental dataflow runtime (spec §6): scopes, timestamps,
// arrangements, and the handful of stream primitives (concatenate,
// negate, distinct, join-by-key, state-machine) every operator in plan/
// wires against. Nothing in this package runs a dataflow; it only pins
// down the shape a real runtime (or the in-memory reference runtime in
// dataflow/memdataflow) must have for the compiler to target it.
package dataflow

import "github.com/wbrown/diffplan/value"

// Diff is the signed change in multiplicity of a row at a timestamp.
type Diff = int64

// Row is one positional tuple of values flowing through the dataflow.
type Row = []value.Value

// Timestamp is a point in the lattice the runtime's progress tracking is
// built on: a partial order with joins. Both a plain outer timestamp and
// a nested-scope ProductTimestamp implement it.
type Timestamp interface {
	// LessEqual is the partial order test timestamps must support.
	LessEqual(other Timestamp) bool
	// Join is the lattice join (least upper bound) of two timestamps.
	Join(other Timestamp) Timestamp
	Equal(other Timestamp) bool
	String() string
}

// Frontier is an antichain of timestamps beyond which no further updates
// will appear on a stream.
type Frontier []Timestamp

// Dominates reports whether every timestamp in f is less-equal some
// timestamp in other — i.e. other has advanced at least as far as f.
func (f Frontier) Dominates(other Frontier) bool {
	for _, t := range f {
		covered := false
		for _, o := range other {
			if t.LessEqual(o) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

// Empty reports whether the frontier has advanced to the empty antichain,
// the terminal state a pressed subgraph drains to.
func (f Frontier) Empty() bool {
	return len(f) == 0
}

// ProductTimestamp is the timestamp domain inside a nested (Iterative)
// scope: the outer timestamp paired with an inner loop counter.
type ProductTimestamp struct {
	Outer Timestamp
	Inner int64
}

func NewProductTimestamp(outer Timestamp, inner int64) ProductTimestamp {
	return ProductTimestamp{Outer: outer, Inner: inner}
}

func (p ProductTimestamp) LessEqual(other Timestamp) bool {
	o, ok := other.(ProductTimestamp)
	if !ok {
		return false
	}
	return p.Outer.LessEqual(o.Outer) && p.Inner <= o.Inner
}

func (p ProductTimestamp) Join(other Timestamp) Timestamp {
	o, ok := other.(ProductTimestamp)
	if !ok {
		return p
	}
	inner := p.Inner
	if o.Inner > inner {
		inner = o.Inner
	}
	return ProductTimestamp{Outer: p.Outer.Join(o.Outer), Inner: inner}
}

func (p ProductTimestamp) Equal(other Timestamp) bool {
	o, ok := other.(ProductTimestamp)
	return ok && p.Outer.Equal(o.Outer) && p.Inner == o.Inner
}

func (p ProductTimestamp) String() string {
	return p.Outer.String() + "." + itoa(p.Inner)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Update is a single (row, timestamp, diff) triple flowing on a Stream.
type Update struct {
	Row  Row
	Time Timestamp
	Diff Diff
}

// Stream is a handle to a (possibly still-growing) collection of Updates
// inside some Scope. Operators consume and produce Streams; the compiler
// never inspects a Stream's contents directly except through the Scope
// primitives below.
type Stream interface {
	// Updates returns every update currently materialized on the stream.
	// The in-memory reference runtime returns the full backlog; a real
	// streaming runtime would instead expose a subscription, which the
	// compiler never needs because it only wires graphs, never drives
	// them.
	Updates() []Update
}

// ShutdownButton deactivates one imported arrangement. Pressing is
// idempotent: double-press is a no-op (spec §5).
type ShutdownButton interface {
	Press()
}

// Arrangement is an imported, shared index over a trace, keyed for the
// scope it was imported into.
type Arrangement interface {
	// AsStream realizes every (key, value) pair currently in the
	// arrangement as a two-column Stream — used when a consumer needs a
	// materialized collection rather than the index itself (spec §4.6
	// case (b): "the attribute side is first materialised").
	AsStream() Stream
}

// TraceKeyHandle is a set trace: key -> presence, with no associated
// value column (validate traces).
type TraceKeyHandle interface {
	ImportCore(scope IterativeScope) (Arrangement, ShutdownButton)
	ImportFrontier(scope IterativeScope) (Arrangement, ShutdownButton)
	AdvanceFrontier() Frontier
}

// TraceValHandle is a keyed trace with an associated value column
// (propose and count traces).
type TraceValHandle interface {
	ImportCore(scope IterativeScope) (Arrangement, ShutdownButton)
	ImportFrontier(scope IterativeScope) (Arrangement, ShutdownButton)
	AdvanceFrontier() Frontier
}

// StateMachineFunc is applied once per key, per batch, to the time-sorted
// group of updates observed for that key. It returns the Updates to
// publish downstream and is the only extension point CardinalityOne
// needs from the runtime's "state_machine" primitive (spec §6).
type StateMachineFunc func(key value.Value, group []Update) []Update

// Scope is the dataflow region operators wire into: a set of stream
// combinators plus a nested-scope constructor. Both the outer (top-level)
// scope and any IterativeScope satisfy it.
type Scope interface {
	// Concatenate unions several streams into one (spec §6 "concatenate").
	Concatenate(streams ...Stream) Stream
	// Negate flips the sign of every diff on s (spec §6 "negate").
	Negate(s Stream) Stream
	// Distinct consolidates s to at most one positive unit per distinct
	// row per timestamp (spec §6 "distinct").
	Distinct(s Stream) Stream
	// JoinByKey is the join-by-key primitive over two streams, each keyed
	// by the given projection, combined row-wise on a match.
	JoinByKey(left Stream, leftKey func(Row) value.Value, right Stream, rightKey func(Row) value.Value, combine func(left, right Row) Row) Stream
	// StateMachine is the stateful-by-key primitive CardinalityOne rides:
	// fn runs once per key per batch over the time-sorted updates that
	// batch carries for that key.
	StateMachine(s Stream, keyOf func(Row) value.Value, fn StateMachineFunc) Stream
	// ArrangeByKey builds an Arrangement over s keyed by keyOf — the
	// "tuples_by_variables" service spec §4.6 case (c) calls for.
	ArrangeByKey(s Stream, keyOf func(Row) value.Value) Arrangement
}

// IterativeScope is a nested sub-region whose timestamps are products of
// the outer timestamp with an inner iteration counter (spec §6, "Nested
// scope" in the glossary).
type IterativeScope interface {
	Scope
	// EnterAt returns the product timestamp (outer, 0) used as the entry
	// capability for an import into this nested scope — the "advanced
	// outer" packaging spec §4.6 describes for Attribute x Attribute
	// joins.
	EnterAt(outer Timestamp) Timestamp
}
