// Package binding defines the logical binding algebra Plan.IntoBindings
// produces for the worst-case-optimal (Hector) evaluator. These are
// distinct from carrier.AttributeBinding/CollectionRelation: a Binding
// describes what a plan logically offers a WCO join before any dataflow
// is wired, while a carrier.Implemented is what compilation actually
// produced.
package binding

import (
	"fmt"

	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/value"
)

// Binding is one fact a plan contributes to the WCO evaluator's variable
// binding order: either an attribute edge or a constant.
type Binding interface {
	binding()
	String() string
}

// Attribute binds a pair of variables (e, v) to every (e, v) pair of a
// named attribute.
type Attribute struct {
	Entity, Value ident.Var
	Source        ident.Aid
}

func (Attribute) binding() {}
func (a Attribute) String() string {
	return fmt.Sprintf("(%s %s) <- %s", a.Entity, a.Value, a.Source)
}

// Constant binds a single variable to a literal Value — produced for the
// bound positions of a pattern leaf (spec §4.2 "pattern leaves produce
// one attribute binding plus optional constant bindings for bound
// positions").
type Constant struct {
	Var   ident.Var
	Value value.Value
}

func (Constant) binding() {}
func (c Constant) String() string {
	return fmt.Sprintf("%s = %s", c.Var, c.Value)
}
