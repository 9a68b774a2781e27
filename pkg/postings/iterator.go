package postings

import "github.com/gralok/postingcore/pkg/seqid"

// Iterator walks a posting set's ids in strictly ascending order. It is the
// common contract implemented by BlockPostingList's forward iterator, the
// compact set's slice iterator, and (in pkg/filter/exec) materialized-array
// and compound filter leaves — P5 in spec.md §8 requires every implementer
// to emit strictly increasing ids.
type Iterator interface {
	// Valid reports whether the iterator currently sits on an id.
	Valid() bool
	// ID returns the id at the current position. Only meaningful if Valid.
	ID() seqid.ID
	// Next advances to the next id, returning whether the result is valid.
	Next() bool
	// SkipTo advances to the first id >= target, returning whether the
	// result is valid.
	SkipTo(target seqid.ID) bool
}

// sliceIterator is the simplest possible Iterator, walking an in-memory
// slice of ids. CompactPostingSet and materialized filter-leaf arrays both
// use it.
type sliceIterator struct {
	ids []seqid.ID
	pos int
}

func newSliceIterator(ids []seqid.ID) *sliceIterator {
	return &sliceIterator{ids: ids, pos: -1}
}

func (it *sliceIterator) Valid() bool {
	return it.pos >= 0 && it.pos < len(it.ids)
}

func (it *sliceIterator) ID() seqid.ID {
	return it.ids[it.pos]
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.Valid()
}

func (it *sliceIterator) SkipTo(target seqid.ID) bool {
	if it.Valid() && it.ids[it.pos] >= target {
		return true
	}
	lo := it.pos + 1
	if lo < 0 {
		lo = 0
	}
	hi := len(it.ids)
	for lo < hi {
		mid := (lo + hi) / 2
		if it.ids[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	it.pos = lo
	return it.Valid()
}
