package dataflow

import "fmt"

// Moment is a plain monotone integer timestamp — the simplest Timestamp
// implementation satisfying the lattice/partial-order contract, used as
// the outer timestamp domain by the in-memory reference runtime and by
// tests that don't need a richer progress-tracking domain.
type Moment int64

func (m Moment) LessEqual(other Timestamp) bool {
	o, ok := other.(Moment)
	return ok && m <= o
}

func (m Moment) Join(other Timestamp) Timestamp {
	o, ok := other.(Moment)
	if !ok {
		return m
	}
	if o > m {
		return o
	}
	return m
}

func (m Moment) Equal(other Timestamp) bool {
	o, ok := other.(Moment)
	return ok && m == o
}

func (m Moment) String() string {
	return fmt.Sprintf("t%d", int64(m))
}
