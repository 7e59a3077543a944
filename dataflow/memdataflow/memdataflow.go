// Package memdataflow is the in-memory reference implementation of the
// dataflow contracts in package dataflow. It exists so the compiler's own
// test suite (and the diffplan CLI) can run a compiled plan end to end
// without a production differential-dataflow engine. Every stream is a
// lazily-computed cell wrapping a fixed update list: this runtime doesn't
// model ongoing incremental batches across many distinct calls, only the
// single-shot "compile, then observe everything asserted so far" flow the
// compiler's own tests need (spec §5's bounded-fuel cooperative scheduling
// is modeled at the Runtime.Drive level for the CLI, not inside every
// operator).
package memdataflow

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/value"
)

// RuntimeOptions configures the reference runtime.
type RuntimeOptions struct {
	// FuelPerActivation is the record budget a Runtime.Drive step uses
	// when it is called with a non-positive fuel, echoing the "256
	// records per activation" example spec §5 gives for source adapters.
	FuelPerActivation int
	// MaxWorkers bounds how many cells are forced concurrently by
	// operators that fan out over multiple inputs (Concatenate). 0 means
	// use a small fixed default.
	MaxWorkers int
}

// DefaultFuelPerActivation matches the source-adapter example in spec §5.
const DefaultFuelPerActivation = 256

// Runtime owns the worker pool and cell registry shared by every Scope it
// creates.
type Runtime struct {
	opts    RuntimeOptions
	mu      sync.Mutex
	pending []*cell
}

// NewRuntime returns a Runtime ready to build scopes from.
func NewRuntime(opts RuntimeOptions) *Runtime {
	if opts.FuelPerActivation <= 0 {
		opts.FuelPerActivation = DefaultFuelPerActivation
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	return &Runtime{opts: opts}
}

// NewScope returns a fresh outer Scope.
func (r *Runtime) NewScope() *Scope {
	return &Scope{rt: r}
}

// Drive forces the cells registered so far, in FIFO order, and stops
// starting new ones once fuel output records have been produced (the last
// cell forced may take the count past fuel). A non-positive fuel means
// RuntimeOptions.FuelPerActivation. It reports whether any cell remains
// unforced. Call it repeatedly until it returns false to run a compiled
// plan to quiescence — the cooperative, bounded-fuel loop spec §5
// describes, made concrete for this reference runtime.
func (r *Runtime) Drive(fuel int) (more bool) {
	if fuel <= 0 {
		fuel = r.opts.FuelPerActivation
	}
	r.mu.Lock()
	queue := r.pending
	r.pending = nil
	r.mu.Unlock()

	spent := 0
	var leftover []*cell
	for _, c := range queue {
		if spent >= fuel {
			leftover = append(leftover, c)
			continue
		}
		spent += len(c.Updates())
	}

	r.mu.Lock()
	r.pending = append(leftover, r.pending...)
	more = len(r.pending) > 0
	r.mu.Unlock()
	return more
}

func (r *Runtime) register(c *cell) {
	r.mu.Lock()
	r.pending = append(r.pending, c)
	r.mu.Unlock()
}

// cell is a lazily-computed, memoized Stream.
type cell struct {
	mu       sync.Mutex
	computed bool
	updates  []dataflow.Update
	compute  func() []dataflow.Update
}

func (c *cell) Updates() []dataflow.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.computed {
		c.updates = c.compute()
		c.computed = true
	}
	return c.updates
}

func newCell(rt *Runtime, compute func() []dataflow.Update) *cell {
	c := &cell{compute: compute}
	rt.register(c)
	return c
}

// Scope is the in-memory dataflow.Scope.
type Scope struct {
	rt *Runtime
}

var _ dataflow.Scope = (*Scope)(nil)

func (s *Scope) forceAll(streams []dataflow.Stream) ([][]dataflow.Update, error) {
	out := make([][]dataflow.Update, len(streams))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(s.rt.opts.MaxWorkers)
	for i, st := range streams {
		i, st := i, st
		g.Go(func() error {
			out[i] = st.Updates()
			return nil
		})
	}
	return out, g.Wait()
}

func (s *Scope) Concatenate(streams ...dataflow.Stream) dataflow.Stream {
	return newCell(s.rt, func() []dataflow.Update {
		forced, _ := s.forceAll(streams)
		var out []dataflow.Update
		for _, u := range forced {
			out = append(out, u...)
		}
		return out
	})
}

func (s *Scope) Negate(in dataflow.Stream) dataflow.Stream {
	return newCell(s.rt, func() []dataflow.Update {
		src := in.Updates()
		out := make([]dataflow.Update, len(src))
		for i, u := range src {
			out[i] = dataflow.Update{Row: u.Row, Time: u.Time, Diff: -u.Diff}
		}
		return out
	})
}

func (s *Scope) Distinct(in dataflow.Stream) dataflow.Stream {
	return newCell(s.rt, func() []dataflow.Update {
		type key struct {
			row  string
			time string
		}
		sums := map[key]dataflow.Diff{}
		rep := map[key]dataflow.Update{}
		for _, u := range in.Updates() {
			k := key{row: rowKey(u.Row), time: u.Time.String()}
			sums[k] += u.Diff
			rep[k] = u
		}
		var out []dataflow.Update
		for k, sum := range sums {
			if sum > 0 {
				u := rep[k]
				out = append(out, dataflow.Update{Row: u.Row, Time: u.Time, Diff: 1})
			}
		}
		sortUpdates(out)
		return out
	})
}

func (s *Scope) JoinByKey(left dataflow.Stream, leftKey func(dataflow.Row) value.Value, right dataflow.Stream, rightKey func(dataflow.Row) value.Value, combine func(left, right dataflow.Row) dataflow.Row) dataflow.Stream {
	return newCell(s.rt, func() []dataflow.Update {
		forced, _ := s.forceAll([]dataflow.Stream{left, right})
		leftUpdates, rightUpdates := forced[0], forced[1]

		byKey := map[string][]dataflow.Update{}
		for _, u := range rightUpdates {
			k := rightKey(u.Row).String()
			byKey[k] = append(byKey[k], u)
		}

		var out []dataflow.Update
		for _, lu := range leftUpdates {
			k := leftKey(lu.Row).String()
			for _, ru := range byKey[k] {
				out = append(out, dataflow.Update{
					Row:  combine(lu.Row, ru.Row),
					Time: lu.Time.Join(ru.Time),
					Diff: lu.Diff * ru.Diff,
				})
			}
		}
		sortUpdates(out)
		return out
	})
}

func (s *Scope) StateMachine(in dataflow.Stream, keyOf func(dataflow.Row) value.Value, fn dataflow.StateMachineFunc) dataflow.Stream {
	return newCell(s.rt, func() []dataflow.Update {
		groups := map[string][]dataflow.Update{}
		var order []string
		for _, u := range in.Updates() {
			k := keyOf(u.Row).String()
			if _, ok := groups[k]; !ok {
				order = append(order, k)
			}
			groups[k] = append(groups[k], u)
		}
		sort.Strings(order)

		// Reconstruct the key value (not just its string form) for fn.
		keyVals := map[string]value.Value{}
		for _, u := range in.Updates() {
			keyVals[keyOf(u.Row).String()] = keyOf(u.Row)
		}

		var out []dataflow.Update
		for _, k := range order {
			group := groups[k]
			sort.SliceStable(group, func(i, j int) bool {
				return group[i].Time.LessEqual(group[j].Time) && !group[j].Time.LessEqual(group[i].Time)
			})
			out = append(out, fn(keyVals[k], group)...)
		}
		return out
	})
}

func (s *Scope) ArrangeByKey(in dataflow.Stream, keyOf func(dataflow.Row) value.Value) dataflow.Arrangement {
	return &arrangement{stream: in}
}

type arrangement struct {
	stream dataflow.Stream
}

func (a *arrangement) AsStream() dataflow.Stream { return a.stream }

// Iterative is the in-memory dataflow.IterativeScope.
type Iterative struct {
	Scope
	name string
}

var _ dataflow.IterativeScope = (*Iterative)(nil)

// NewIterative returns a nested scope named name (purely for
// diagnostics/trace output — it plays no role in the timestamp algebra).
func (s *Scope) NewIterative(name string) *Iterative {
	return &Iterative{Scope: Scope{rt: s.rt}, name: name}
}

func (it *Iterative) EnterAt(outer dataflow.Timestamp) dataflow.Timestamp {
	return dataflow.NewProductTimestamp(outer, 0)
}

// button is the in-memory dataflow.ShutdownButton.
type button struct {
	mu      sync.Mutex
	pressed bool
}

func NewButton() *button { return &button{} }

func (b *button) Press() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pressed = true
}

func (b *button) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

func rowKey(row dataflow.Row) string {
	t := value.Tuple(row)
	return t.String()
}

func sortUpdates(us []dataflow.Update) {
	sort.SliceStable(us, func(i, j int) bool {
		return rowKey(us[i].Row) < rowKey(us[j].Row)
	})
}
