// Package depset is the transitive set of named rules and attributes a
// plan needs before it can be materialised (spec §3 "Dependencies").
package depset

import "github.com/wbrown/diffplan/ident"

// Set holds the two disjoint string sets a Plan.Dependencies call
// accumulates: named rules referenced via NameExpr, and attributes
// referenced by pattern leaves.
type Set struct {
	Names      map[string]struct{}
	Attributes map[ident.Aid]struct{}
}

// Empty returns a zero-valued, ready-to-use Set.
func Empty() Set {
	return Set{Names: map[string]struct{}{}, Attributes: map[ident.Aid]struct{}{}}
}

// OfName returns a Set containing a single rule name.
func OfName(name string) Set {
	s := Empty()
	s.Names[name] = struct{}{}
	return s
}

// OfAttribute returns a Set containing a single attribute.
func OfAttribute(a ident.Aid) Set {
	s := Empty()
	s.Attributes[a] = struct{}{}
	return s
}

// Union is the monoidal combination spec §3 calls for: the pointwise
// union of both component sets. Union never mutates its arguments.
func Union(sets ...Set) Set {
	out := Empty()
	for _, s := range sets {
		for n := range s.Names {
			out.Names[n] = struct{}{}
		}
		for a := range s.Attributes {
			out.Attributes[a] = struct{}{}
		}
	}
	return out
}

// HasName reports whether name is in the set.
func (s Set) HasName(name string) bool {
	_, ok := s.Names[name]
	return ok
}

// HasAttribute reports whether a is in the set.
func (s Set) HasAttribute(a ident.Aid) bool {
	_, ok := s.Attributes[a]
	return ok
}

// NameList and AttributeList return sorted-by-insertion-independent, but
// deterministic-order, slices for display and testing. Order is not
// semantically meaningful — Dependencies is a set — but deterministic
// output makes tests and CLI rendering reproducible.
func (s Set) NameList() []string {
	out := make([]string, 0, len(s.Names))
	for n := range s.Names {
		out = append(out, n)
	}
	return sortedStrings(out)
}

func (s Set) AttributeList() []ident.Aid {
	out := make([]ident.Aid, 0, len(s.Attributes))
	for a := range s.Attributes {
		out = append(out, a)
	}
	return sortedAids(out)
}

func sortedStrings(in []string) []string {
	for i := 1; i < len(in); i++ {
		for j := i; j > 0 && in[j-1] > in[j]; j-- {
			in[j-1], in[j] = in[j], in[j-1]
		}
	}
	return in
}

func sortedAids(in []ident.Aid) []ident.Aid {
	for i := 1; i < len(in); i++ {
		for j := i; j > 0 && in[j-1] > in[j]; j-- {
			in[j-1], in[j] = in[j], in[j-1]
		}
	}
	return in
}
