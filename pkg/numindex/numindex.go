// Package numindex implements NumericIndex, the ordered int64 -> posting
// handle map used for equality, comparator and range queries over numeric
// fields — spec.md §4.4.
package numindex

import (
	"sort"

	"github.com/axiomhq/hyperloglog"

	"github.com/gralok/postingcore/pkg/postings"
	"github.com/gralok/postingcore/pkg/seqid"
)

// Op is a numeric comparison operator for Search.
type Op int

const (
	EQ Op = iota
	GT
	GE
	LT
	LE
)

// entry is one value's posting handle plus a lazily-filled hyperloglog
// sketch of the ids it has seen, used for approx_search_count without
// decompressing the handle (spec.md §4.4, SPEC_FULL.md §4.10).
type entry struct {
	value  int64
	handle *postings.Handle
	sketch *hyperloglog.Sketch
}

// NumericIndex is an ordered map int64 -> PostingSetHandle (spec.md §4.4).
// Entries are kept in a sorted slice: range/lower_bound queries dominate
// the access pattern and a slice with binary search gives O(log n) lookup
// with none of the pointer-chasing a balanced tree would add, the same
// tradeoff pkg/postings.summaryMap makes for its block chain.
type NumericIndex struct {
	entries []*entry
}

// New returns an empty NumericIndex.
func New() *NumericIndex {
	return &NumericIndex{}
}

func (idx *NumericIndex) search(value int64) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].value >= value
	})
}

func (idx *NumericIndex) find(value int64) (*entry, bool) {
	i := idx.search(value)
	if i < len(idx.entries) && idx.entries[i].value == value {
		return idx.entries[i], true
	}
	return nil, false
}

func newSketch() *hyperloglog.Sketch {
	return hyperloglog.New()
}

func sketchInsert(s *hyperloglog.Sketch, id seqid.ID) {
	var buf [4]byte
	buf[0] = byte(id)
	buf[1] = byte(id >> 8)
	buf[2] = byte(id >> 16)
	buf[3] = byte(id >> 24)
	s.Insert(buf[:])
}

// Insert is idempotent: if value's handle does not already contain id, it
// is upserted (spec.md §4.4 insert).
func (idx *NumericIndex) Insert(value int64, id seqid.ID) {
	e, ok := idx.find(value)
	if !ok {
		e = &entry{value: value, handle: postings.NewHandle(), sketch: newSketch()}
		i := idx.search(value)
		idx.entries = append(idx.entries, nil)
		copy(idx.entries[i+1:], idx.entries[i:len(idx.entries)-1])
		idx.entries[i] = e
	}
	if !e.handle.Contains(id) {
		e.handle.Upsert(id)
		sketchInsert(e.sketch, id)
	}
}

// Remove erases id from value's handle, dropping the map entry entirely
// once the handle becomes empty (spec.md §4.4 remove).
func (idx *NumericIndex) Remove(value int64, id seqid.ID) {
	i := idx.search(value)
	if i >= len(idx.entries) || idx.entries[i].value != value {
		return
	}
	e := idx.entries[i]
	e.handle.Erase(id)
	if e.handle.NumIDs() == 0 {
		idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
	}
}

// Search returns the sorted union of every value-posting-set matching
// value under op (spec.md §4.4 search).
func (idx *NumericIndex) Search(op Op, value int64) []seqid.ID {
	switch op {
	case EQ:
		e, ok := idx.find(value)
		if !ok {
			return nil
		}
		return e.handle.Uncompress()
	case GT, GE:
		i := idx.search(value)
		if op == GT && i < len(idx.entries) && idx.entries[i].value == value {
			i++
		}
		return idx.unionFrom(i, len(idx.entries))
	case LT, LE:
		i := idx.search(value)
		if op == LE && i < len(idx.entries) && idx.entries[i].value == value {
			i++
		}
		return idx.unionFrom(0, i)
	default:
		return nil
	}
}

// RangeInclusiveSearch unions every value-posting-set with lo <= value <=
// hi (spec.md §4.4 range_inclusive_search).
func (idx *NumericIndex) RangeInclusiveSearch(lo, hi int64) []seqid.ID {
	start := idx.search(lo)
	end := start
	for end < len(idx.entries) && idx.entries[end].value <= hi {
		end++
	}
	return idx.unionFrom(start, end)
}

func (idx *NumericIndex) unionFrom(start, end int) []seqid.ID {
	if start >= end {
		return nil
	}
	handles := make([]*postings.Handle, 0, end-start)
	for _, e := range idx.entries[start:end] {
		handles = append(handles, e.handle)
	}
	return postings.MergeHandles(handles)
}

// ApproxSearchCount estimates the number of distinct ids across the
// matching entries by merging their hyperloglog sketches, without
// decompressing any block (spec.md §4.4 approx_search_count).
func (idx *NumericIndex) ApproxSearchCount(op Op, value int64) uint64 {
	switch op {
	case EQ:
		e, ok := idx.find(value)
		if !ok {
			return 0
		}
		return e.sketch.Estimate()
	case GT, GE:
		i := idx.search(value)
		if op == GT && i < len(idx.entries) && idx.entries[i].value == value {
			i++
		}
		return idx.approxSumFrom(i, len(idx.entries))
	case LT, LE:
		i := idx.search(value)
		if op == LE && i < len(idx.entries) && idx.entries[i].value == value {
			i++
		}
		return idx.approxSumFrom(0, i)
	default:
		return 0
	}
}

// ApproxRangeInclusiveSearchCount is ApproxSearchCount's range counterpart
// (spec.md §4.4 approx_range_inclusive_search_count).
func (idx *NumericIndex) ApproxRangeInclusiveSearchCount(lo, hi int64) uint64 {
	start := idx.search(lo)
	end := start
	for end < len(idx.entries) && idx.entries[end].value <= hi {
		end++
	}
	return idx.approxSumFrom(start, end)
}

func (idx *NumericIndex) approxSumFrom(start, end int) uint64 {
	if start >= end {
		return 0
	}
	sketch := newSketch()
	for _, e := range idx.entries[start:end] {
		if err := sketch.Merge(e.sketch); err != nil {
			// Sketches are always created with matching precision by
			// newSketch, so a merge can only fail on programmer error.
			panic("numindex: incompatible hyperloglog sketch: " + err.Error())
		}
	}
	return sketch.Estimate()
}

// RangeInclusiveContains filters ctxIDs down to those present in any
// handle with lo <= value <= hi, probing entries in range order until a
// match is found per id (spec.md §4.4 range_inclusive_contains).
func (idx *NumericIndex) RangeInclusiveContains(lo, hi int64, ctxIDs []seqid.ID) []seqid.ID {
	start := idx.search(lo)
	end := start
	for end < len(idx.entries) && idx.entries[end].value <= hi {
		end++
	}
	var out []seqid.ID
	for _, id := range ctxIDs {
		for _, e := range idx.entries[start:end] {
			if e.handle.Contains(id) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// SeqIDsOutsideTopK walks entries in descending key order, skips the first
// k seq_ids seen across all entries, and returns the rest in the order
// encountered (ties within a value broken by the handle's own ascending
// iteration order) — spec.md §4.4 seq_ids_outside_top_k.
func (idx *NumericIndex) SeqIDsOutsideTopK(k int) []seqid.ID {
	var out []seqid.ID
	skipped := 0
	for i := len(idx.entries) - 1; i >= 0; i-- {
		for _, id := range idx.entries[i].handle.Uncompress() {
			if skipped < k {
				skipped++
				continue
			}
			out = append(out, id)
		}
	}
	return out
}

// GetMinMax finds the smallest and largest values whose handle intersects
// resultIDs, scanning ascending for the min and descending for the max and
// stopping at the first hit on each side (spec.md §4.4 get_min_max).
func (idx *NumericIndex) GetMinMax(resultIDs []seqid.ID) (min, max int64, ok bool) {
	var minOK, maxOK bool
	for i := 0; i < len(idx.entries); i++ {
		if idx.entries[i].handle.IntersectCount(resultIDs) > 0 {
			min = idx.entries[i].value
			minOK = true
			break
		}
	}
	for i := len(idx.entries) - 1; i >= 0; i-- {
		if idx.entries[i].handle.IntersectCount(resultIDs) > 0 {
			max = idx.entries[i].value
			maxOK = true
			break
		}
	}
	return min, max, minOK && maxOK
}
