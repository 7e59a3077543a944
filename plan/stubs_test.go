package plan_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/diffplan/catalog/memcatalog"
	"github.com/wbrown/diffplan/diffplanerr"
	"github.com/wbrown/diffplan/plan"
)

// TestStubShapesFailLoudlyOnImplement confirms every out-of-scope Plan
// shape (spec.md §1 Non-goals) still answers Variables/Dependencies/
// IntoBindings structurally but reports ErrUnimplementedShape from
// Implement, rather than panicking or silently returning a zero value.
func TestStubShapesFailLoudlyOnImplement(t *testing.T) {
	cat := memcatalog.New()
	_, scope := newScope()
	leaf := plan.MatchAV{Attribute: "x"}

	stubs := []plan.Plan{
		plan.Aggregate{Child: leaf},
		plan.Antijoin{Positive: leaf, Negative: leaf},
		plan.Filter{Child: leaf},
		plan.Transform{Child: leaf},
		plan.Hector{Children: []plan.Plan{leaf}},
		plan.Pull{},
		plan.PullLevel{},
		plan.PullAll{},
	}

	for _, s := range stubs {
		s := s
		_, _, err := s.Implement(scope, nil, cat, nil)
		require.Error(t, err)
		require.True(t, errors.Is(err, diffplanerr.ErrUnimplementedShape), "%T", s)
	}
}
