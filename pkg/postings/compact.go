package postings

import "github.com/gralok/postingcore/pkg/seqid"

// CompactPostingSet is an inline posting set of up to CompactThreshold
// distinct, sorted ids — spec.md §4.1. Go has no realloc, so "capacity" is
// tracked as len(ids) and growth is modeled by reslicing a freshly allocated
// backing array; the observable contract (linear scan, grow-and-retry on
// Upsert, geometric growth capped at CompactThreshold) is unchanged from the
// source.
type CompactPostingSet struct {
	ids    []seqid.ID // ids[:length] holds the live, sorted, distinct set
	length int
}

// NewCompactPostingSet returns an empty compact posting set.
func NewCompactPostingSet() *CompactPostingSet {
	return &CompactPostingSet{}
}

// newCompactPostingSetFromIDs builds a compact set from an already sorted,
// duplicate-free slice, sized exactly to hold it (used by demotion).
func newCompactPostingSetFromIDs(ids []seqid.ID) *CompactPostingSet {
	c := &CompactPostingSet{ids: make([]seqid.ID, len(ids)), length: len(ids)}
	copy(c.ids, ids)
	return c
}

func (c *CompactPostingSet) capacity() int { return len(c.ids) }

// grow reallocates the backing array to newCap, which must be >= length.
func (c *CompactPostingSet) grow(newCap int) {
	next := make([]seqid.ID, newCap)
	copy(next, c.ids[:c.length])
	c.ids = next
}

// Upsert finds id's insertion position by linear scan. If already present,
// it returns 0 and makes no change. If inserting would overflow capacity,
// it returns the extra capacity needed without mutating (caller grows and
// retries). Otherwise it shifts the tail right by one and writes id.
func (c *CompactPostingSet) Upsert(id seqid.ID) (extraCapacityNeeded int) {
	pos := 0
	for pos < c.length && c.ids[pos] < id {
		pos++
	}
	if pos < c.length && c.ids[pos] == id {
		return 0
	}
	if c.length+1 > c.capacity() {
		return c.length + 1 - c.capacity()
	}
	copy(c.ids[pos+1:c.length+1], c.ids[pos:c.length])
	c.ids[pos] = id
	c.length++
	return 0
}

// Erase removes id if present; no-op otherwise.
func (c *CompactPostingSet) Erase(id seqid.ID) {
	pos := 0
	for pos < c.length && c.ids[pos] < id {
		pos++
	}
	if pos == c.length || c.ids[pos] != id {
		return
	}
	copy(c.ids[pos:c.length-1], c.ids[pos+1:c.length])
	c.length--
}

// Contains reports whether id is present.
func (c *CompactPostingSet) Contains(id seqid.ID) bool {
	for i := 0; i < c.length; i++ {
		if c.ids[i] == id {
			return true
		}
		if c.ids[i] > id {
			break
		}
	}
	return false
}

// FirstID returns the smallest id, or 0 if empty.
func (c *CompactPostingSet) FirstID() seqid.ID {
	if c.length == 0 {
		return 0
	}
	return c.ids[0]
}

// LastID returns the largest id, or 0 if empty.
func (c *CompactPostingSet) LastID() seqid.ID {
	if c.length == 0 {
		return 0
	}
	return c.ids[c.length-1]
}

// NumIDs returns the number of ids stored.
func (c *CompactPostingSet) NumIDs() int {
	return c.length
}

// Uncompress returns a copy of the live ids.
func (c *CompactPostingSet) Uncompress() []seqid.ID {
	out := make([]seqid.ID, c.length)
	copy(out, c.ids[:c.length])
	return out
}

// IntersectCount merges this set against other (both sorted, distinct) and
// returns the size of their intersection without allocating the result.
func (c *CompactPostingSet) IntersectCount(other []seqid.ID) int {
	count, i, j := 0, 0, 0
	for i < c.length && j < len(other) {
		switch {
		case c.ids[i] == other[j]:
			count++
			i++
			j++
		case c.ids[i] < other[j]:
			i++
		default:
			j++
		}
	}
	return count
}

func (c *CompactPostingSet) iterator() Iterator {
	return newSliceIterator(c.Uncompress())
}
