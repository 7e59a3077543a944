// Package memcatalog is an in-memory catalog.Context implementation: a
// reference ImplContext that needs no external storage, used by the
// compiler's own test suite and by the reference dataflow runtime. It
// stores each attribute's forward/reverse propose and validate traces as
// plain Go slices rather than the Badger-backed indices
// catalog/badgercatalog persists, trading durability for simplicity. The
// forward/reverse count traces exist per attribute but Assert never writes
// to them, so ForwardCount and ReverseCount always import an empty trace.
package memcatalog

import (
	"sort"

	"github.com/wbrown/diffplan/catalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/value"
)

// pair is one (key, value) fact in a trace.
type pair struct {
	Key, Val value.Value
}

// staticStream is a fixed Stream over a slice of updates — the reference
// catalog's traces have no further incoming batches once ImportCore has
// been called, so "the full backlog" (dataflow.Stream's contract) is
// simply everything asserted so far.
type staticStream []dataflow.Update

func (s staticStream) Updates() []dataflow.Update { return s }

type staticArrangement struct {
	stream staticStream
}

func (a *staticArrangement) AsStream() dataflow.Stream { return a.stream }

// button is the in-memory ShutdownButton: pressing just flips a flag.
// There is no real resource to release, but Pressed() lets tests confirm
// idempotence and that every expected button was pressed (spec §8
// property 5, "shutdown soundness").
type button struct {
	pressed bool
}

func (b *button) Press()        { b.pressed = true }
func (b *button) Pressed() bool  { return b.pressed }

// trace is shared storage for both TraceValHandle and TraceKeyHandle: a
// set of facts plus the frontier they're currently known up to.
type trace struct {
	facts    []pair
	frontier dataflow.Frontier
}

func newTrace() *trace {
	return &trace{frontier: dataflow.Frontier{dataflow.Moment(0)}}
}

func (t *trace) assert(key, val value.Value, ts dataflow.Timestamp) {
	t.facts = append(t.facts, pair{Key: key, Val: val})
	t.advanceTo(ts)
}

func (t *trace) advanceTo(ts dataflow.Timestamp) {
	m, ok := ts.(dataflow.Moment)
	if !ok {
		return
	}
	next := m + 1
	if len(t.frontier) == 0 {
		t.frontier = dataflow.Frontier{next}
		return
	}
	if cur, ok := t.frontier[0].(dataflow.Moment); ok && next > cur {
		t.frontier = dataflow.Frontier{next}
	}
}

func (t *trace) outer() dataflow.Timestamp {
	var result dataflow.Timestamp = dataflow.Moment(0)
	for _, f := range t.frontier {
		result = result.Join(f)
	}
	return result
}

func (t *trace) importInto(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	ts := scope.EnterAt(t.outer())
	rows := make(staticStream, len(t.facts))
	for i, p := range t.facts {
		rows[i] = dataflow.Update{Row: dataflow.Row{p.Key, p.Val}, Time: ts, Diff: 1}
	}
	return &staticArrangement{stream: rows}, &button{}
}

// valHandle adapts *trace to dataflow.TraceValHandle (propose and count
// indices — every key maps to potentially many values).
type valHandle struct{ t *trace }

func (h valHandle) ImportCore(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	return h.t.importInto(scope)
}
func (h valHandle) ImportFrontier(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	return h.t.importInto(scope)
}
func (h valHandle) AdvanceFrontier() dataflow.Frontier { return h.t.frontier }

// keyHandle adapts *trace to dataflow.TraceKeyHandle (validate indices —
// presence of a (key, value) pair, no further payload).
type keyHandle struct{ t *trace }

func (h keyHandle) ImportCore(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	return h.t.importInto(scope)
}
func (h keyHandle) ImportFrontier(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	return h.t.importInto(scope)
}
func (h keyHandle) AdvanceFrontier() dataflow.Frontier { return h.t.frontier }

// attributeTraces is the six indices spec §3 requires per attribute.
type attributeTraces struct {
	forwardPropose, reversePropose *trace
	forwardValidate, reverseValidate *trace
	forwardCount, reverseCount *trace
}

func newAttributeTraces() *attributeTraces {
	return &attributeTraces{
		forwardPropose:    newTrace(),
		reversePropose:    newTrace(),
		forwardValidate:   newTrace(),
		reverseValidate:   newTrace(),
		forwardCount:      newTrace(),
		reverseCount:      newTrace(),
	}
}

// globalArrangement is the in-memory catalog.GlobalArrangement: a named,
// already-materialized relation the catalog can re-collect on demand.
type globalArrangement struct {
	vars []ident.Var
	rows []dataflow.Row
	ts   dataflow.Timestamp
}

func (g *globalArrangement) Variables() []ident.Var { return g.vars }

func (g *globalArrangement) Recollect(scope dataflow.Scope) dataflow.Stream {
	rows := make(staticStream, len(g.rows))
	for i, r := range g.rows {
		rows[i] = dataflow.Update{Row: r, Time: g.ts, Diff: 1}
	}
	return rows
}

// Catalog is the in-memory catalog.Context.
type Catalog struct {
	attrs             map[ident.Aid]*attributeTraces
	rules             map[string]catalog.RuleDef
	underconstrained  map[string]bool
	globals           map[string]catalog.GlobalArrangement
}

var _ catalog.Context = (*Catalog)(nil)

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		attrs:            map[ident.Aid]*attributeTraces{},
		rules:            map[string]catalog.RuleDef{},
		underconstrained: map[string]bool{},
		globals:          map[string]catalog.GlobalArrangement{},
	}
}

// DefineAttribute registers a (initially empty) attribute so HasAttribute
// and the trace accessors recognize it.
func (c *Catalog) DefineAttribute(a ident.Aid) {
	if _, ok := c.attrs[a]; !ok {
		c.attrs[a] = newAttributeTraces()
	}
}

// Assert adds one (e, v) fact to attribute a at timestamp ts, updating
// forward/reverse propose and validate. diff is not separately tracked in
// this reference implementation beyond presence — retraction support for
// the catalog's own storage is out of scope for the compiler core (the
// catalog merely has to hand back the facts; consolidating diffs is the
// runtime's job once the facts flow through a real collection).
func (c *Catalog) Assert(a ident.Aid, e ident.Eid, v value.Value, ts dataflow.Timestamp) {
	c.DefineAttribute(a)
	t := c.attrs[a]
	ev := value.Eid(e)
	t.forwardPropose.assert(ev, v, ts)
	t.reversePropose.assert(v, ev, ts)
	t.forwardValidate.assert(ev, v, ts)
	t.reverseValidate.assert(v, ev, ts)
}

func (c *Catalog) HasAttribute(a ident.Aid) bool {
	_, ok := c.attrs[a]
	return ok
}

func (c *Catalog) ForwardCount(a ident.Aid) (dataflow.TraceValHandle, bool) {
	t, ok := c.attrs[a]
	if !ok {
		return nil, false
	}
	return valHandle{t.forwardCount}, true
}

func (c *Catalog) ReverseCount(a ident.Aid) (dataflow.TraceValHandle, bool) {
	t, ok := c.attrs[a]
	if !ok {
		return nil, false
	}
	return valHandle{t.reverseCount}, true
}

func (c *Catalog) ForwardPropose(a ident.Aid) (dataflow.TraceValHandle, bool) {
	t, ok := c.attrs[a]
	if !ok {
		return nil, false
	}
	return valHandle{t.forwardPropose}, true
}

func (c *Catalog) ReversePropose(a ident.Aid) (dataflow.TraceValHandle, bool) {
	t, ok := c.attrs[a]
	if !ok {
		return nil, false
	}
	return valHandle{t.reversePropose}, true
}

func (c *Catalog) ForwardValidate(a ident.Aid) (dataflow.TraceKeyHandle, bool) {
	t, ok := c.attrs[a]
	if !ok {
		return nil, false
	}
	return keyHandle{t.forwardValidate}, true
}

func (c *Catalog) ReverseValidate(a ident.Aid) (dataflow.TraceKeyHandle, bool) {
	t, ok := c.attrs[a]
	if !ok {
		return nil, false
	}
	return keyHandle{t.reverseValidate}, true
}

// AddRule registers a named rule definition (a plan.Plan, though the
// catalog package stays ignorant of that concrete type) and whether it is
// underconstrained.
func (c *Catalog) AddRule(name string, def catalog.RuleDef, underconstrained bool) {
	c.rules[name] = def
	c.underconstrained[name] = underconstrained
}

func (c *Catalog) Rule(name string) (catalog.RuleDef, bool) {
	d, ok := c.rules[name]
	return d, ok
}

func (c *Catalog) IsUnderconstrained(name string) bool {
	return c.underconstrained[name]
}

// AddGlobalArrangement registers a materialized named relation.
func (c *Catalog) AddGlobalArrangement(name string, vars []ident.Var, rows []dataflow.Row, ts dataflow.Timestamp) {
	c.globals[name] = &globalArrangement{vars: vars, rows: rows, ts: ts}
}

func (c *Catalog) GlobalArrangement(name string) (catalog.GlobalArrangement, bool) {
	g, ok := c.globals[name]
	return g, ok
}

// AttributeNames returns every defined attribute, sorted, for display.
func (c *Catalog) AttributeNames() []ident.Aid {
	out := make([]ident.Aid, 0, len(c.attrs))
	for a := range c.attrs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
