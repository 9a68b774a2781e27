package postings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gralok/postingcore/pkg/seqid"
)

// TestBlockSplit mirrors spec.md §8 scenario 4: with BLOCK_MAX=4, inserting
// 1..8 in order splits into two blocks of size 4 with summary keys {4,8}.
func TestBlockSplit(t *testing.T) {
	l := NewBlockPostingList(4)
	for _, id := range []seqid.ID{1, 2, 3, 4, 5, 6, 7, 8} {
		l.Upsert(id)
	}
	require.Equal(t, []seqid.ID{1, 2, 3, 4, 5, 6, 7, 8}, l.Uncompress())
	assert.Equal(t, 2, l.NumBlocks())
	assert.ElementsMatch(t, []seqid.ID{4, 8}, l.summary.keys())
}

// TestBlockEraseToMerge mirrors spec.md §8 scenario 5: after scenario 4,
// erasing 5,6,7 leaves [1,2,3,4,8]. The tail block shrinks to [8] and,
// having no successor, is not merged into the root.
func TestBlockEraseToMerge(t *testing.T) {
	l := NewBlockPostingList(4)
	for _, id := range []seqid.ID{1, 2, 3, 4, 5, 6, 7, 8} {
		l.Upsert(id)
	}
	for _, id := range []seqid.ID{5, 6, 7} {
		l.Erase(id)
	}
	require.Equal(t, []seqid.ID{1, 2, 3, 4, 8}, l.Uncompress())
	assertBlockInvariants(t, l)
}

func TestBlockPostingListRoundTrip(t *testing.T) {
	l := NewBlockPostingList(8)
	ids := []seqid.ID{3, 1, 4, 1, 5, 9, 2, 6, 8, 7, 0}
	for _, id := range ids {
		l.Upsert(id)
	}
	require.Equal(t, []seqid.ID{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, l.Uncompress())
	assertBlockInvariants(t, l)

	for _, id := range []seqid.ID{0, 9, 4} {
		l.Erase(id)
	}
	require.Equal(t, []seqid.ID{1, 2, 3, 5, 6, 7, 8}, l.Uncompress())
	assertBlockInvariants(t, l)
}

// TestUpsertEraseRoundTrip is spec.md §8 property P8.
func TestUpsertEraseRoundTrip(t *testing.T) {
	l := NewBlockPostingList(4)
	for _, id := range []seqid.ID{10, 20, 30, 40, 50, 60} {
		l.Upsert(id)
	}
	before := l.Uncompress()
	beforeContains := l.Contains(25)

	l.Upsert(25)
	l.Erase(25)

	assert.Equal(t, before, l.Uncompress())
	assert.Equal(t, beforeContains, l.Contains(25))
}

func TestForwardIteratorSkipTo(t *testing.T) {
	l := NewBlockPostingList(4)
	for i := seqid.ID(0); i < 20; i++ {
		l.Upsert(i * 2)
	}
	it := l.NewIterator(nil, nil)
	require.True(t, it.SkipTo(11))
	assert.Equal(t, seqid.ID(12), it.ID())
	require.True(t, it.SkipTo(12))
	assert.Equal(t, seqid.ID(12), it.ID())
	require.True(t, it.Next())
	assert.Equal(t, seqid.ID(14), it.ID())
}

func TestReverseIterator(t *testing.T) {
	l := NewBlockPostingList(4)
	for _, id := range []seqid.ID{1, 2, 3, 4, 5, 6, 7, 8} {
		l.Upsert(id)
	}
	it := l.NewReverseIterator()
	var got []seqid.ID
	for it.Valid() {
		got = append(got, it.ID())
		it.Next()
	}
	assert.Equal(t, []seqid.ID{8, 7, 6, 5, 4, 3, 2, 1}, got)
}

func TestIntersectAndMerge(t *testing.T) {
	a := NewBlockPostingList(4)
	b := NewBlockPostingList(4)
	for i := seqid.ID(0); i < 20; i++ {
		a.Upsert(i)
	}
	for i := seqid.ID(0); i < 20; i += 2 {
		b.Upsert(i)
	}

	inter := Intersect([]*BlockPostingList{a, b})
	var want []seqid.ID
	for i := seqid.ID(0); i < 20; i += 2 {
		want = append(want, i)
	}
	assert.Equal(t, want, inter)

	union := Merge([]*BlockPostingList{a, b})
	assert.Equal(t, a.Uncompress(), union)
}

func TestIntersectThreeWay(t *testing.T) {
	lists := make([]*BlockPostingList, 3)
	lists[0] = NewBlockPostingList(4)
	lists[1] = NewBlockPostingList(4)
	lists[2] = NewBlockPostingList(4)
	for i := seqid.ID(0); i < 30; i++ {
		lists[0].Upsert(i)
	}
	for i := seqid.ID(0); i < 30; i += 3 {
		lists[1].Upsert(i)
	}
	for i := seqid.ID(0); i < 30; i += 2 {
		lists[2].Upsert(i)
	}
	got := Intersect(lists)
	var want []seqid.ID
	for i := seqid.ID(0); i < 30; i++ {
		if i%6 == 0 {
			want = append(want, i)
		}
	}
	assert.Equal(t, want, got)
}

// assertBlockInvariants checks spec.md §8 P1-P3 over the reachable state of
// l.
func assertBlockInvariants(t *testing.T, l *BlockPostingList) {
	t.Helper()
	count := 0
	var last seqid.ID
	first := true
	for b := l.root; b != nil; b = b.next {
		if b != l.root && b.next != nil {
			require.GreaterOrEqualf(t, b.size(), l.blockMax/2, "block size underflow")
		}
		require.LessOrEqual(t, b.size(), l.blockMax)
		if b.size() > 0 {
			if !first {
				require.Less(t, last, b.first(), "chain order violated (P2)")
			}
			last = b.last()
			first = false
		}
		count += b.size()
	}
	require.Equal(t, l.idsLen, count)

	seen := map[seqid.ID]*block{}
	for b := l.root; b != nil; b = b.next {
		if b.size() > 0 {
			seen[b.last()] = b
		}
	}
	require.Equal(t, len(seen), l.summary.len())
	for k, b := range seen {
		idx, ok := l.summary.lowerBound(k)
		require.True(t, ok)
		require.Equal(t, b, l.summary.blocks[idx])
	}
}
