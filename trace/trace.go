// Package trace provides a low-overhead event collector for compilation
// decisions — which join mode a Join node resolved to, whether a NameExpr
// consumed a local or global arrangement, when CardinalityOne saw a
// retraction of a missing key. It never affects compilation outcomes; the
// compiler runs identically with or without a Collector attached.
package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event names, grouped the way compilation decisions naturally group.
const (
	PlanImplementBegin    = "plan/implement.begin"
	PlanImplementComplete = "plan/implement.complete"

	JoinModeChosen = "join/mode.chosen"

	NameExprLocal  = "name-expr/local"
	NameExprGlobal = "name-expr/global"

	ShutdownPressed = "shutdown/pressed"

	CardinalityOneRetraction = "cardinality-one/retraction"
)

// Event is a single annotation emitted during compilation.
type Event struct {
	Name    string
	Span    uuid.UUID // identifies one top-level Implement call's subtree
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]any
}

// Handler processes events as they occur.
type Handler func(Event)

// Collector accumulates events during one compilation. A nil *Collector is
// valid and a no-op, so Implement call sites never need a nil check before
// using one.
type Collector struct {
	mu      sync.Mutex
	enabled bool
	handler Handler
	span    uuid.UUID
	events  []Event
}

// NewCollector returns a Collector scoped to one compilation span. handler
// may be nil to just accumulate Events() without a live callback.
func NewCollector(handler Handler) *Collector {
	return &Collector{enabled: true, handler: handler, span: uuid.New()}
}

// Span returns the identifier grouping every event this Collector records.
func (c *Collector) Span() uuid.UUID {
	if c == nil {
		return uuid.Nil
	}
	return c.span
}

// Add records event, filling in Span if unset.
func (c *Collector) Add(event Event) {
	if c == nil || !c.enabled {
		return
	}
	if event.Span == uuid.Nil {
		event.Span = c.span
	}
	c.mu.Lock()
	c.events = append(c.events, event)
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

// Timed records name with start..now as its interval and data as its
// payload. Convenience for the common "time a compilation step" case.
func (c *Collector) Timed(name string, start time.Time, data map[string]any) {
	if c == nil || !c.enabled {
		return
	}
	end := time.Now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// Events returns a copy of every event recorded so far.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
