package carrier_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/diffplan/carrier"
)

// countingButton records how many times Press was called, letting a test
// distinguish "pressed once" from "pressed on every merge/double-press".
type countingButton struct{ presses int }

func (b *countingButton) Press() { b.presses++ }

// Property 5 (spec §8): shutdown soundness — after pressing a composite
// handle, every constituent import is deactivated exactly once, even one
// merged in from two different subtrees and even under a repeated Press.
func TestShutdownHandlePressesEveryButtonExactlyOnce(t *testing.T) {
	a := &countingButton{}
	b := &countingButton{}
	shared := &countingButton{}

	var left carrier.ShutdownHandle
	left.AddButton(a)
	left.AddButton(shared)

	var right carrier.ShutdownHandle
	right.AddButton(b)
	right.AddButton(shared)

	var composite carrier.ShutdownHandle
	composite.MergeWith(left)
	composite.MergeWith(right)

	composite.Press()
	composite.Press() // idempotent: must not re-press anything

	require.Equal(t, 1, a.presses)
	require.Equal(t, 1, b.presses)
	require.Equal(t, 1, shared.presses, "shared button was merged in from two subtrees but is the same button by identity, so it presses exactly once")
}

func TestAddButtonIgnoresNil(t *testing.T) {
	var h carrier.ShutdownHandle
	h.AddButton(nil)
	require.NotPanics(t, func() { h.Press() })
}
