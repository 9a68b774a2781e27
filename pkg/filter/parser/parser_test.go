package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gralok/postingcore/pkg/filter/ast"
)

func TestParseSimpleEquality(t *testing.T) {
	n, err := Parse("status:active")
	require.NoError(t, err)
	leaf, ok := n.(*ast.Leaf)
	require.True(t, ok)
	assert.Equal(t, "status", leaf.Field)
	assert.Equal(t, ast.EQ, leaf.Op)
	assert.Equal(t, []string{"active"}, leaf.Values)
}

func TestParseComparators(t *testing.T) {
	cases := map[string]ast.Op{
		"age:>18":  ast.GT,
		"age:>=18": ast.GE,
		"age:<65":  ast.LT,
		"age:<=65": ast.LE,
		"age:!=0":  ast.NEQ,
	}
	for filter, want := range cases {
		n, err := Parse(filter)
		require.NoError(t, err, filter)
		leaf := n.(*ast.Leaf)
		assert.Equal(t, want, leaf.Op, filter)
	}
}

func TestParseRange(t *testing.T) {
	n, err := Parse("age:[18..65]")
	require.NoError(t, err)
	leaf := n.(*ast.Leaf)
	assert.Equal(t, ast.Range, leaf.Op)
	assert.Equal(t, []string{"18", "65"}, leaf.Values)
}

func TestParseIN(t *testing.T) {
	n, err := Parse("category:[books,movies,games]")
	require.NoError(t, err)
	leaf := n.(*ast.Leaf)
	assert.Equal(t, ast.IN, leaf.Op)
	assert.Equal(t, []string{"books", "movies", "games"}, leaf.Values)
}

func TestParseAndOrPrecedence(t *testing.T) {
	n, err := Parse("a:1 && b:2 || c:3")
	require.NoError(t, err)
	compound, ok := n.(*ast.Compound)
	require.True(t, ok)
	assert.Equal(t, ast.Or, compound.Op)
	require.Len(t, compound.Children, 2)
	left, ok := compound.Children[0].(*ast.Compound)
	require.True(t, ok)
	assert.Equal(t, ast.And, left.Op)
}

func TestParseParens(t *testing.T) {
	n, err := Parse("(a:1 || b:2) && c:3")
	require.NoError(t, err)
	compound := n.(*ast.Compound)
	assert.Equal(t, ast.And, compound.Op)
	inner := compound.Children[0].(*ast.Compound)
	assert.Equal(t, ast.Or, inner.Op)
}

func TestParseNegation(t *testing.T) {
	n, err := Parse("!status:active")
	require.NoError(t, err)
	leaf := n.(*ast.Leaf)
	assert.Equal(t, ast.NEQ, leaf.Op)
}

func TestParseReferenceJoin(t *testing.T) {
	n, err := Parse("$Orders(status:shipped)")
	require.NoError(t, err)
	leaf := n.(*ast.Leaf)
	assert.Equal(t, ast.ReferenceJoin, leaf.Op)
	assert.Equal(t, "Orders", leaf.Collection)
	inner := leaf.Inner.(*ast.Leaf)
	assert.Equal(t, "status", inner.Field)

	n, err = Parse("!$Orders(status:shipped)")
	require.NoError(t, err)
	leaf = n.(*ast.Leaf)
	assert.True(t, leaf.Negate)
}

func TestParseIsCached(t *testing.T) {
	n1, err := Parse("cache_test_field:1")
	require.NoError(t, err)
	n2, err := Parse("cache_test_field:1")
	require.NoError(t, err)
	assert.Same(t, n1, n2)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("&&&")
	assert.Error(t, err)
}
