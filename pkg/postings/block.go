package postings

import "github.com/gralok/postingcore/pkg/seqid"

// block is one fixed-capacity, compressed, sorted chunk of a
// BlockPostingList chain (spec.md §3 Block).
type block struct {
	ids  *seqid.SortedArray
	next *block
}

func newBlock() *block {
	return &block{ids: seqid.NewSortedArray()}
}

func (b *block) size() int       { return b.ids.GetLength() }
func (b *block) last() seqid.ID  { return b.ids.Last() }
func (b *block) first() seqid.ID { return b.ids.First() }

// BlockPostingList is a sorted, distinct set of u32 ids represented as a
// singly-linked chain of fixed-capacity blocks plus the summaryMap index —
// spec.md §4.2.
type BlockPostingList struct {
	blockMax int
	root     *block
	summary  summaryMap
	idsLen   int
}

// NewBlockPostingList returns an empty block posting list with the given
// per-block capacity (spec.md's BLOCK_MAX).
func NewBlockPostingList(blockMax int) *BlockPostingList {
	if blockMax < 2 {
		blockMax = BlockMax
	}
	return &BlockPostingList{blockMax: blockMax, root: newBlock()}
}

// NewBlockPostingListFromIDs builds a populated list from a sorted,
// duplicate-free slice (used by PostingSetHandle promotion).
func NewBlockPostingListFromIDs(blockMax int, ids []seqid.ID) *BlockPostingList {
	l := NewBlockPostingList(blockMax)
	for _, id := range ids {
		l.Upsert(id)
	}
	return l
}

// locate returns the block that contains id or would contain it.
func (l *BlockPostingList) locate(id seqid.ID) *block {
	if l.summary.len() == 0 {
		return l.root
	}
	if b := l.summary.blockAt(id); b != nil {
		return b
	}
	return l.root
}

// refreshKey updates the summary entry for b if its last id changed from
// before, and inserts a fresh entry if the block was previously absent
// (wasEmpty) and is now non-empty.
func (l *BlockPostingList) refreshKey(b *block, before seqid.ID, wasEmpty bool) {
	now := b.size()
	if now == 0 {
		if !wasEmpty {
			l.summary.remove(before)
		}
		return
	}
	newLast := b.last()
	if wasEmpty {
		l.summary.insert(newLast, b)
		return
	}
	if newLast != before {
		l.summary.rebind(before, newLast, b)
	}
}

// NumBlocks returns the number of blocks currently in the chain (the root
// is always counted, even when the list is empty).
func (l *BlockPostingList) NumBlocks() int {
	n := 0
	for b := l.root; b != nil; b = b.next {
		if b.size() > 0 || b == l.root {
			n++
		}
	}
	return n
}

// NumIDs returns the total id count across the chain.
func (l *BlockPostingList) NumIDs() int { return l.idsLen }

// FirstID returns the smallest id in the list, or 0 if empty.
func (l *BlockPostingList) FirstID() seqid.ID {
	return l.root.first()
}

// Contains reports whether id is present anywhere in the chain.
func (l *BlockPostingList) Contains(id seqid.ID) bool {
	b := l.locate(id)
	return b != nil && b.ids.Contains(id)
}

// ContainsAtLeastOne reports whether any of targetIDs (sorted, distinct) is
// present in the list; short-circuits on the first hit.
func (l *BlockPostingList) ContainsAtLeastOne(targetIDs []seqid.ID) bool {
	it := l.NewIterator(nil, nil)
	for _, id := range targetIDs {
		if !it.SkipTo(id) {
			return false
		}
		if it.ID() == id {
			return true
		}
	}
	return false
}

// BlockOf exposes the block bracketing id, for PostingSetIntersector's
// block-parallel window construction (spec.md §4.5 step 3).
func (l *BlockPostingList) BlockOf(id seqid.ID) *block {
	return l.locate(id)
}

// Upsert inserts id into the chain, splitting the target block if it is
// full (spec.md §4.2 upsert).
func (l *BlockPostingList) Upsert(id seqid.ID) {
	b := l.locate(id)
	wasEmpty := b.size() == 0
	before := b.last()

	if b.size() < l.blockMax {
		if b.ids.Append(id) {
			l.idsLen++
		}
		l.refreshKey(b, before, wasEmpty)
		return
	}

	// Block full: allocate a new block and either append directly (fast
	// tail-append path) or overflow-then-split.
	n := newBlock()
	if b.next == nil && id > b.last() {
		n.ids.Append(id)
		n.next = nil
		b.next = n
		l.idsLen++
		l.summary.insert(n.last(), n)
		return
	}

	all := b.ids.Uncompress()
	pos := 0
	for pos < len(all) && all[pos] < id {
		pos++
	}
	if pos < len(all) && all[pos] == id {
		// already present; nothing to split
		return
	}
	merged := make([]seqid.ID, 0, len(all)+1)
	merged = append(merged, all[:pos]...)
	merged = append(merged, id)
	merged = append(merged, all[pos:]...)
	l.idsLen++

	mid := len(merged) / 2
	lowerIDs, upperIDs := merged[:mid], merged[mid:]

	b.ids = seqid.NewSortedArrayFromIDs(lowerIDs)
	n.ids = seqid.NewSortedArrayFromIDs(upperIDs)
	n.next = b.next
	b.next = n

	l.refreshKey(b, before, wasEmpty)
	l.summary.insert(n.last(), n)
}

// Erase removes id from the chain, merging or rebalancing underflowed
// blocks (spec.md §4.2 erase).
func (l *BlockPostingList) Erase(id seqid.ID) {
	b := l.locate(id)
	before := b.last()
	wasEmpty := b.size() == 0

	if !b.ids.RemoveValue(id) {
		return
	}
	l.idsLen--

	if b.size() == 0 {
		if b != l.root {
			pred := l.summary.predecessorOf(b)
			if pred != nil {
				pred.next = b.next
			}
			l.summary.remove(before)
			return
		}
		// Root emptied out.
		l.summary.remove(before)
		if b.next != nil {
			s := b.next
			half := s.size() / 2
			if half == 0 {
				half = s.size()
			}
			sAll := s.ids.Uncompress()
			moved := append([]seqid.ID(nil), sAll[:half]...)
			remain := sAll[half:]

			b.ids = seqid.NewSortedArrayFromIDs(moved)
			if len(remain) == 0 {
				b.next = s.next
			} else {
				s.ids = seqid.NewSortedArrayFromIDs(remain)
			}
			if b.size() > 0 {
				l.summary.insert(b.last(), b)
			}
		}
		return
	}

	if b.size() >= l.blockMax/2 || b.next == nil {
		l.refreshKey(b, before, wasEmpty)
		return
	}

	// Underflow with a successor: merge or partially rebalance.
	s := b.next
	if b.size()+s.size() <= l.blockMax {
		sLast := s.last()
		b.ids.Extend(s.ids)
		b.next = s.next
		l.summary.remove(sLast)
		l.refreshKey(b, before, wasEmpty)
		return
	}

	half := l.blockMax / 2
	sAll := s.ids.Uncompress()
	moved := append([]seqid.ID(nil), sAll[:half]...)
	remain := sAll[half:]
	b.ids.Extend(seqid.NewSortedArrayFromIDs(moved))
	s.ids = seqid.NewSortedArrayFromIDs(remain)
	// s.last() is unchanged by construction (we only removed from its
	// head), so its summary key stays valid — only refresh b's.
	l.refreshKey(b, before, wasEmpty)
}

// Uncompress returns every id in ascending order.
func (l *BlockPostingList) Uncompress() []seqid.ID {
	out := make([]seqid.ID, 0, l.idsLen)
	for b := l.root; b != nil; b = b.next {
		out = append(out, b.ids.Uncompress()...)
	}
	return out
}

// IntersectCount merges the list against resultIDs (sorted, distinct),
// optionally sampling every sampleInterval-th element on both sides and
// extrapolating by sampleInterval^2 — spec.md §4.2 intersect_count, used
// for approximate facet counts.
func (l *BlockPostingList) IntersectCount(resultIDs []seqid.ID, sampleInterval int) int {
	if sampleInterval < 1 {
		sampleInterval = 1
	}
	it := l.NewIterator(nil, nil)
	count := 0
	j := 0
	for it.Valid() && j < len(resultIDs) {
		a, bID := it.ID(), resultIDs[j]
		switch {
		case a == bID:
			count++
			for k := 0; k < sampleInterval && it.Valid(); k++ {
				it.Next()
			}
			j += sampleInterval
		case a < bID:
			it.SkipTo(bID)
		default:
			j++
		}
	}
	if sampleInterval > 1 {
		return count * sampleInterval * sampleInterval
	}
	return count
}
