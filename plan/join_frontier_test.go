package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/diffplan/catalog/badgercatalog"
	"github.com/wbrown/diffplan/catalog/memcatalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/value"
)

// TestForwardProposeImportReflectsAdvancedFrontier scripts two sequential
// ImportCore calls against the same trace handle, with an Assert advancing
// the catalog's frontier in between (SPEC_FULL §8, supplementing S2): the
// first import must see only the facts asserted before it, entered at the
// scope's (outer, 0) capability for that frontier, and the second — called
// after the frontier has moved — must see the newly asserted fact too.
func TestForwardProposeImportReflectsAdvancedFrontier(t *testing.T) {
	cat := memcatalog.New()
	cat.Assert("parent", 1, value.Eid(2), dataflow.Moment(0))

	_, scope := newScope()
	h, ok := cat.ForwardPropose("parent")
	require.True(t, ok)

	arr1, btn1 := h.ImportCore(scope)
	defer btn1.Press()
	first := arr1.AsStream().Updates()
	require.Len(t, first, 1)

	cat.Assert("parent", 3, value.Eid(4), dataflow.Moment(1))

	arr2, btn2 := h.ImportCore(scope)
	defer btn2.Press()
	second := arr2.AsStream().Updates()
	require.Len(t, second, 2)

	require.False(t, first[0].Time.Equal(second[0].Time),
		"second import's entry capability should reflect the advanced frontier")
}

// TestBadgerForwardProposeImportReflectsAdvancedFrontier is the same script
// against the persisted catalog, confirming Assert's frontier advance (the
// fix that made badgercatalog track frontiers at all, not just write facts)
// is actually observed by a subsequent ImportCore.
func TestBadgerForwardProposeImportReflectsAdvancedFrontier(t *testing.T) {
	cat, err := badgercatalog.Open(t.TempDir())
	require.NoError(t, err)
	defer cat.Close()

	require.NoError(t, cat.Assert("parent", 1, value.Eid(2), dataflow.Moment(0)))

	_, scope := newScope()
	h, ok := cat.ForwardPropose("parent")
	require.True(t, ok)

	arr1, btn1 := h.ImportCore(scope)
	defer btn1.Press()
	first := arr1.AsStream().Updates()
	require.Len(t, first, 1)

	require.NoError(t, cat.Assert("parent", 3, value.Eid(4), dataflow.Moment(1)))

	arr2, btn2 := h.ImportCore(scope)
	defer btn2.Press()
	second := arr2.AsStream().Updates()
	require.Len(t, second, 2)

	require.False(t, first[0].Time.Equal(second[0].Time))
}
