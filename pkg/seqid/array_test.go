package seqid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedArrayAppendKeepsOrder(t *testing.T) {
	a := NewSortedArray()
	for _, id := range []ID{5, 1, 3, 3, 9, 0} {
		a.Append(id)
	}
	require.Equal(t, []ID{0, 1, 3, 5, 9}, a.Uncompress())
	assert.Equal(t, 5, a.GetLength())
	assert.Equal(t, ID(0), a.First())
	assert.Equal(t, ID(9), a.Last())
}

func TestSortedArrayContainsAndIndexOf(t *testing.T) {
	a := NewSortedArrayFromIDs([]ID{2, 4, 6, 8})
	assert.True(t, a.Contains(4))
	assert.False(t, a.Contains(5))

	idx, ok := a.IndexOf(6)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = a.IndexOf(5)
	assert.False(t, ok)
	assert.Equal(t, 2, idx)
}

func TestSortedArrayRemoveValue(t *testing.T) {
	a := NewSortedArrayFromIDs([]ID{1, 2, 3, 4, 5})
	assert.True(t, a.RemoveValue(3))
	assert.False(t, a.RemoveValue(3))
	assert.Equal(t, []ID{1, 2, 4, 5}, a.Uncompress())
}

func TestSortedArraySplitAt(t *testing.T) {
	a := NewSortedArrayFromIDs([]ID{1, 2, 3, 4, 5, 6})
	upper := a.SplitAt(3)
	assert.Equal(t, []ID{1, 2, 3}, a.Uncompress())
	assert.Equal(t, []ID{4, 5, 6}, upper.Uncompress())
}

func TestSortedArrayExtend(t *testing.T) {
	a := NewSortedArrayFromIDs([]ID{1, 2, 3})
	b := NewSortedArrayFromIDs([]ID{4, 5})
	a.Extend(b)
	assert.Equal(t, []ID{1, 2, 3, 4, 5}, a.Uncompress())
}
