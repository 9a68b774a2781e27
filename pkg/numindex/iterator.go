package numindex

import (
	"github.com/gralok/postingcore/pkg/postings"
	"github.com/gralok/postingcore/pkg/seqid"
)

// Validity is the tri-state an Iterator reports for the current position
// (spec.md §4.4 iterator_t.is_id_valid).
type Validity int

const (
	// End means the iterator is exhausted.
	End Validity = -1
	// NotValid means the iterator has a current id but it does not match.
	NotValid Validity = 0
	// Valid means the current id matches.
	Valid Validity = 1
)

// Iterator is the numeric iterator bound to an EQ predicate (spec.md §4.4
// "Numeric iterator"). It wraps the matched value's posting handle
// iterator and reports an approx_filter_ids_length upper bound equal to
// that handle's cardinality.
type Iterator struct {
	inner postings.Iterator
	approx int
}

// NewIterator binds an EQ predicate against idx, returning an Iterator
// positioned before the first matching id.
func NewIterator(idx *NumericIndex, value int64) *Iterator {
	e, ok := idx.find(value)
	if !ok {
		return &Iterator{inner: emptyIterator{}}
	}
	return &Iterator{inner: e.handle.Iterator(), approx: e.handle.NumIDs()}
}

// IsIDValid reports the tri-state validity of id relative to the
// iterator's current position.
func (it *Iterator) IsIDValid(id seqid.ID) Validity {
	if !it.inner.Valid() {
		return End
	}
	if it.inner.ID() == id {
		return Valid
	}
	return NotValid
}

// Next advances to the next matching id, reporting whether one exists.
func (it *Iterator) Next() bool { return it.inner.Next() }

// SkipTo advances to the first id >= target.
func (it *Iterator) SkipTo(target seqid.ID) bool { return it.inner.SkipTo(target) }

// Reset rewinds the iterator to its initial, pre-first-id position.
func (it *Iterator) Reset(idx *NumericIndex, value int64) {
	*it = *NewIterator(idx, value)
}

// Valid reports whether the iterator currently sits on an id.
func (it *Iterator) Valid() bool { return it.inner.Valid() }

// ID returns the current id. Only meaningful while Valid.
func (it *Iterator) ID() seqid.ID { return it.inner.ID() }

// ApproxFilterIDsLength is the upper bound on matches (spec.md §4.4).
func (it *Iterator) ApproxFilterIDsLength() int { return it.approx }

type emptyIterator struct{}

func (emptyIterator) Valid() bool                    { return false }
func (emptyIterator) ID() seqid.ID                   { return 0 }
func (emptyIterator) Next() bool                     { return false }
func (emptyIterator) SkipTo(seqid.ID) bool           { return false }
