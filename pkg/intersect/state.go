package intersect

import "github.com/gralok/postingcore/pkg/seqid"

// State is result_iter_state_t (spec.md §4.5): an optional excluded-ids
// set and an optional filter-ids set consulted before a candidate id is
// allowed through.
type State struct {
	excluded idSet
	filter   idSet
	hasExcl  bool
	hasFilt  bool
}

// NewState builds a State from optional excluded/filter id slices (sorted,
// distinct; pass nil to omit either).
func NewState(excludedIDs, filterIDs []seqid.ID) *State {
	s := &State{}
	if len(excludedIDs) > 0 {
		s.excluded = newIDSet(excludedIDs)
		s.hasExcl = true
	}
	if len(filterIDs) > 0 {
		s.filter = newIDSet(filterIDs)
		s.hasFilt = true
	}
	return s
}

// TakeID reports whether candidate id c should be emitted: false if it is
// excluded, otherwise the filter-set membership result if a filter set is
// present, otherwise true (spec.md §4.5 take_id).
func (s *State) TakeID(c seqid.ID) bool {
	if s == nil {
		return true
	}
	if s.hasExcl && s.excluded.contains(c) {
		return false
	}
	if s.hasFilt {
		return s.filter.contains(c)
	}
	return true
}
