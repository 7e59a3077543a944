package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/value"
)

// fixedStream is a dataflow.Stream over a literal, caller-ordered update
// list — used here to hand the runtime a batch whose updates arrive out of
// time order within a single key, the case CardinalityOne's state machine
// must sort before its transition table runs (SPEC_FULL §8, supplementing
// S5/S6: "sort-by-time within a batch is required").
type fixedStream []dataflow.Update

func (s fixedStream) Updates() []dataflow.Update { return s }

// TestStateMachineSortsBeforeTransition feeds the runtime's StateMachine
// primitive a single-key batch with a later retraction appearing before its
// matching earlier assertion in slice order. If the runtime didn't sort by
// time first, the retraction would run against an empty state and panic via
// diffplanerr.Raise; sorting first makes it observe assert-then-retract.
func TestStateMachineSortsBeforeTransition(t *testing.T) {
	_, scope := newScope()

	key := value.Eid(1)
	in := fixedStream{
		{Row: dataflow.Row{key, value.Str("A")}, Time: dataflow.Moment(1), Diff: -1},
		{Row: dataflow.Row{key, value.Str("A")}, Time: dataflow.Moment(0), Diff: 1},
	}

	keyOf := func(row dataflow.Row) value.Value { return row[0] }

	var sawBeforeRetract bool
	fn := func(k value.Value, group []dataflow.Update) []dataflow.Update {
		require.Len(t, group, 2)
		require.Equal(t, int64(1), group[0].Diff)
		require.Equal(t, int64(-1), group[1].Diff)
		sawBeforeRetract = true
		return group
	}

	out := scope.StateMachine(in, keyOf, fn)
	require.NotNil(t, out.Updates())
	require.True(t, sawBeforeRetract)
}
