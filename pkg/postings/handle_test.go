package postings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gralok/postingcore/pkg/seqid"
)

// TestHandlePromotesAndDemotes checks that a handle stays compact at
// CompactThreshold ids, promotes on the next upsert, demotes again after
// erases, and keeps NumIDs and Contains right across both transitions.
func TestHandlePromotesAndDemotes(t *testing.T) {
	h := NewHandle()
	require.True(t, h.IsCompact())

	for i := seqid.ID(0); i < CompactThreshold; i++ {
		h.Upsert(i * 2)
	}
	require.True(t, h.IsCompact(), "should stay compact at the threshold")

	h.Upsert(9999)
	assert.False(t, h.IsCompact(), "should promote once past the threshold")
	assert.Equal(t, CompactThreshold+1, h.NumIDs())

	for i := seqid.ID(0); i < CompactThreshold-2; i++ {
		h.Erase(i * 2)
	}
	assert.True(t, h.IsCompact(), "should demote once collapsed back under the threshold")
	assert.True(t, h.Contains(9999))
}

func TestHandleRoundTrip(t *testing.T) {
	h := NewHandle()
	ids := []seqid.ID{4, 2, 7, 1, 9, 3}
	for _, id := range ids {
		h.Upsert(id)
	}
	before := h.Uncompress()
	beforeContains := h.Contains(42)

	h.Upsert(42)
	h.Erase(42)

	assert.Equal(t, before, h.Uncompress())
	assert.Equal(t, beforeContains, h.Contains(42))
}

func TestMergeAndIntersectHandles(t *testing.T) {
	a := NewHandle()
	b := NewHandle()
	for i := seqid.ID(0); i < 10; i++ {
		a.Upsert(i)
	}
	for i := seqid.ID(0); i < 300; i += 3 {
		b.Upsert(i) // forces b to promote to block-backed
	}
	require.False(t, b.IsCompact())

	inter := IntersectHandles([]*Handle{a, b})
	assert.Equal(t, []seqid.ID{0, 3, 6, 9}, inter)

	union := MergeHandles([]*Handle{a, b})
	assert.Contains(t, union, seqid.ID(1))
	assert.Contains(t, union, seqid.ID(297))
}
