// Package ident provides the identifier domains the compiler threads
// through every plan node: entity ids, interned attribute ids, and the
// logical variable numbering shared between plan nodes to declare
// equalities.
package ident

import (
	"fmt"
	"sync"
)

// Eid is an entity identifier.
type Eid uint64

// Aid is an interned attribute name. Two Aid values naming the same
// attribute always compare equal and, once interned, share the same
// backing string — attribute names are repeated on the order of millions
// of times across a trace, so interning avoids the repeated allocation a
// plain string comparison would otherwise force on every pattern match.
type Aid string

// Interner deduplicates attribute-name strings. The zero value is not
// usable; construct with NewInterner. Reads are lock-free once a name has
// been seen (sync.Map), matching the fast-path/slow-path split the teacher
// repo's keyword interner uses.
type Interner struct {
	cache sync.Map // map[string]Aid
}

// NewInterner returns a ready-to-use Interner.
func NewInterner() *Interner {
	return &Interner{}
}

// Intern returns the canonical Aid for s.
func (in *Interner) Intern(s string) Aid {
	if v, ok := in.cache.Load(s); ok {
		return v.(Aid)
	}
	a := Aid(s)
	actual, _ := in.cache.LoadOrStore(s, a)
	return actual.(Aid)
}

// Var is a logical variable identifier shared between plan nodes. Fresh
// user variables and gensym variables are drawn from opposite ends of the
// Var space so the two families can never collide, provided neither
// counter wraps (spec invariant).
type Var int64

func (v Var) String() string {
	return fmt.Sprintf("?v%d", int64(v))
}

// VarGen is the compilation context's monotone variable/entity generator.
// Spec §9 calls out that determinism across runs requires these counters
// to be threaded explicitly rather than kept as global state; VarGen is
// that explicit thread.
type VarGen struct {
	mu        sync.Mutex
	nextUser  int64 // next fresh user variable, counts up from 0
	nextGensym int64 // next fresh gensym variable, counts down from MaxInt64
	nextEid   uint64
}

// NewVarGen returns a VarGen with its counters at their initial positions.
func NewVarGen() *VarGen {
	return &VarGen{nextGensym: int64(^uint64(0) >> 1)}
}

// FreshUser returns the next user-facing variable.
func (g *VarGen) FreshUser() Var {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.nextUser
	g.nextUser++
	return Var(v)
}

// FreshGensym returns the next compiler-internal variable.
func (g *VarGen) FreshGensym() Var {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.nextGensym
	g.nextGensym--
	return Var(v)
}

// FreshEid returns the next entity identifier.
func (g *VarGen) FreshEid() Eid {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.nextEid
	g.nextEid++
	return Eid(e)
}
