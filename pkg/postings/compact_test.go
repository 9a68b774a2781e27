package postings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gralok/postingcore/pkg/seqid"
)

func TestCompactPostingSetUpsertGrowsOnDemand(t *testing.T) {
	c := NewCompactPostingSet()
	extra := c.Upsert(5)
	require.Greater(t, extra, 0, "empty set has zero capacity, must ask caller to grow")

	c.grow(extra)
	require.Equal(t, 0, c.Upsert(5))
	assert.Equal(t, []seqid.ID{5}, c.Uncompress())

	assert.Equal(t, 0, c.Upsert(5), "duplicate upsert is a no-op")
	assert.Equal(t, 1, c.NumIDs())
}

func TestCompactPostingSetOrderingAndErase(t *testing.T) {
	c := NewCompactPostingSet()
	for _, id := range []seqid.ID{9, 1, 5, 3, 7} {
		if extra := c.Upsert(id); extra > 0 {
			c.grow(c.capacity() + extra)
			c.Upsert(id)
		}
	}
	require.Equal(t, []seqid.ID{1, 3, 5, 7, 9}, c.Uncompress())

	c.Erase(5)
	assert.Equal(t, []seqid.ID{1, 3, 7, 9}, c.Uncompress())
	assert.False(t, c.Contains(5))
	assert.True(t, c.Contains(9))
	assert.Equal(t, seqid.ID(1), c.FirstID())
	assert.Equal(t, seqid.ID(9), c.LastID())
}

func TestCompactPostingSetIntersectCount(t *testing.T) {
	c := newCompactPostingSetFromIDs([]seqid.ID{1, 2, 3, 4, 5})
	assert.Equal(t, 3, c.IntersectCount([]seqid.ID{2, 4, 5, 6}))
}
