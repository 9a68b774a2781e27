package intersect

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/gralok/postingcore/pkg/seqid"
)

// idSet answers id membership for result_iter_state_t's excluded_ids and
// filter_ids (spec.md §4.5). Two backends share this interface: a sorted
// array (binary search) for sparse sets, and a bitset for dense ones,
// matching SPEC_FULL.md §4.10's "switches ... when the id range is dense
// enough to make a bitset cheaper".
type idSet interface {
	contains(id seqid.ID) bool
}

// sortedIDSet answers membership by binary search over a sorted, distinct
// slice — cheap to build, cheap to query when ids are sparse.
type sortedIDSet struct {
	ids []seqid.ID
}

func (s sortedIDSet) contains(id seqid.ID) bool {
	lo, hi := 0, len(s.ids)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.ids[mid] < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(s.ids) && s.ids[lo] == id
}

// bitsetIDSet answers membership with a dense bitset spanning [min, max].
type bitsetIDSet struct {
	min seqid.ID
	bs  *bitset.BitSet
}

func (s bitsetIDSet) contains(id seqid.ID) bool {
	if id < s.min {
		return false
	}
	offset := uint(id - s.min)
	if offset >= s.bs.Len() {
		return false
	}
	return s.bs.Test(offset)
}

// denseThreshold bounds the id-range/count ratio above which a sorted
// array stays cheaper than materializing a bitset.
const denseThreshold = 8

// newIDSet picks a backend for ids (sorted, distinct, non-empty).
func newIDSet(ids []seqid.ID) idSet {
	if len(ids) == 0 {
		return sortedIDSet{}
	}
	span := uint64(ids[len(ids)-1]-ids[0]) + 1
	if span/uint64(len(ids)) > denseThreshold {
		return sortedIDSet{ids: ids}
	}
	bs := bitset.New(uint(span))
	min := ids[0]
	for _, id := range ids {
		bs.Set(uint(id - min))
	}
	return bitsetIDSet{min: min, bs: bs}
}
