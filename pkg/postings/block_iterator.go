package postings

import "github.com/gralok/postingcore/pkg/seqid"

// forwardIterator walks a BlockPostingList chain in ascending order,
// caching each block's decompressed ids as it crosses into it — spec.md
// §4.2 "Forward iterator".
type forwardIterator struct {
	cur   *block
	end   *block // exclusive; nil means "to the end of the chain"
	cache []seqid.ID
	pos   int
}

// NewIterator returns a forward iterator over [start, end). A nil start
// begins at the root; a nil end runs to the end of the chain. This is the
// primitive PostingSetIntersector uses to build per-partition iterator
// windows (spec.md §4.5).
func (l *BlockPostingList) NewIterator(start, end *block) Iterator {
	if start == nil {
		start = l.root
	}
	it := &forwardIterator{cur: start, end: end, pos: -1}
	if it.cur != nil && it.cur != it.end {
		it.cache = it.cur.ids.Uncompress()
	} else {
		it.cur = nil
	}
	return it
}

func (it *forwardIterator) Valid() bool {
	return it.cur != nil && it.pos >= 0 && it.pos < len(it.cache)
}

func (it *forwardIterator) ID() seqid.ID {
	return it.cache[it.pos]
}

// advanceBlock moves to the next non-empty block within bounds, or
// invalidates the iterator if the chain (or window) is exhausted.
func (it *forwardIterator) advanceBlock() bool {
	for {
		it.cur = it.cur.next
		if it.cur == nil || it.cur == it.end {
			it.cur = nil
			it.cache = nil
			it.pos = -1
			return false
		}
		it.cache = it.cur.ids.Uncompress()
		it.pos = 0
		if len(it.cache) > 0 {
			return true
		}
	}
}

func (it *forwardIterator) Next() bool {
	if it.cur == nil {
		return false
	}
	it.pos++
	if it.pos < len(it.cache) {
		return true
	}
	return it.advanceBlock()
}

func binarySearchIDs(ids []seqid.ID, target seqid.ID) int {
	lo, hi := 0, len(ids)
	for lo < hi {
		mid := (lo + hi) / 2
		if ids[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// SkipTo advances to the first id >= target. Per spec.md §4.2: if target is
// within the current block's range, scan locally; otherwise walk forward
// block by block (bounded by the iterator's end) until the bracketing
// block is reached.
func (it *forwardIterator) SkipTo(target seqid.ID) bool {
	for it.cur != nil {
		if len(it.cache) == 0 {
			if !it.advanceBlock() {
				return false
			}
			continue
		}
		if target <= it.cur.last() {
			it.pos = binarySearchIDs(it.cache, target)
			if it.pos < len(it.cache) {
				return true
			}
		}
		if !it.advanceBlock() {
			return false
		}
	}
	return false
}

// reverseIterator walks a BlockPostingList chain in descending order,
// stepping to the predecessor block through the summary map since blocks
// carry no back pointer (spec.md §4.2 "Reverse iterator").
type reverseIterator struct {
	list *BlockPostingList
	cur  *block
	cache []seqid.ID
	pos   int
}

// NewReverseIterator returns an iterator starting at the last id and
// walking backwards.
func (l *BlockPostingList) NewReverseIterator() Iterator {
	it := &reverseIterator{list: l}
	last := l.summary.last()
	if last == nil {
		last = l.root
	}
	it.cur = last
	if it.cur != nil {
		it.cache = it.cur.ids.Uncompress()
		it.pos = len(it.cache) - 1
	} else {
		it.pos = -1
	}
	if it.pos < 0 {
		it.cur = nil
	}
	return it
}

func (it *reverseIterator) Valid() bool {
	return it.cur != nil && it.pos >= 0 && it.pos < len(it.cache)
}

func (it *reverseIterator) ID() seqid.ID { return it.cache[it.pos] }

func (it *reverseIterator) Next() bool {
	it.pos--
	if it.pos >= 0 {
		return true
	}
	pred := it.list.summary.predecessorOf(it.cur)
	if pred == nil {
		it.cur = nil
		return false
	}
	it.cur = pred
	it.cache = pred.ids.Uncompress()
	it.pos = len(it.cache) - 1
	return it.Valid()
}

// SkipTo for the reverse iterator advances towards id from above (id <=
// current). Provided for interface completeness; the engine's primary
// consumer of reverse iteration (top-k walks) uses Next exclusively.
func (it *reverseIterator) SkipTo(target seqid.ID) bool {
	for it.Valid() && it.ID() > target {
		it.Next()
	}
	return it.Valid()
}
