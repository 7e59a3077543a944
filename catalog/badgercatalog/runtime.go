package badgercatalog

import "github.com/wbrown/diffplan/dataflow"

// staticStream is a fixed Stream over a slice of updates — a scan of the
// database has no further incoming batches once ImportCore has run, so
// "the full backlog" (dataflow.Stream's contract) is simply every row the
// scan found (memcatalog uses the identical shape over an in-memory
// slice instead of a Badger scan).
type staticStream []dataflow.Update

func (s staticStream) Updates() []dataflow.Update { return s }

type staticArrangement struct {
	stream staticStream
}

func (a *staticArrangement) AsStream() dataflow.Stream { return a.stream }

// button is the ShutdownButton returned by every import in this package.
// Pressing it releases no Badger resource of its own — the underlying
// iterator is already closed by the time ImportCore returns — but it
// keeps the catalog.Context contract uniform with memcatalog's.
type button struct {
	pressed bool
}

func (b *button) Press()       { b.pressed = true }
func (b *button) Pressed() bool { return b.pressed }
