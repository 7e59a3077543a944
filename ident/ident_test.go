package ident

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Intern(":person/name")
	b := in.Intern(":person/name")
	require.Equal(t, a, b)
	require.Equal(t, Aid(":person/name"), a)
}

func TestVarGenUserAndGensymNeverCollide(t *testing.T) {
	g := NewVarGen()
	user := g.FreshUser()
	gensym := g.FreshGensym()
	require.NotEqual(t, user, gensym)
	require.Less(t, int64(user), int64(gensym))
}

func TestVarGenMonotone(t *testing.T) {
	g := NewVarGen()
	v1 := g.FreshUser()
	v2 := g.FreshUser()
	require.Less(t, int64(v1), int64(v2))

	g1 := g.FreshGensym()
	g2 := g.FreshGensym()
	require.Greater(t, int64(g1), int64(g2))
}

func TestFreshEidMonotone(t *testing.T) {
	g := NewVarGen()
	e1 := g.FreshEid()
	e2 := g.FreshEid()
	require.Equal(t, e1+1, e2)
}
