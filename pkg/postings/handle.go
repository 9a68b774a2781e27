// Package postings implements the compressed block-chained posting list,
// its compact inline variant, and the handle that hides which
// representation backs a given (field, value) key — spec.md §4.1–§4.3.
package postings

import "github.com/gralok/postingcore/pkg/seqid"

// Handle is a uniform reference to a posting set that hides whether it is
// compact or block-backed (spec.md §4.3). The source used a tagged
// pointer; here the tag is simply "which field is non-nil", which is the
// idiomatic sum-type substitute spec.md §9's Design Notes call out as an
// acceptable replacement.
//
// Handle methods that can promote or demote take a pointer receiver so the
// replacement is visible to the caller, matching "Handle mutates through a
// by-reference parameter" in spec.md §3.
type Handle struct {
	compact *CompactPostingSet
	block   *BlockPostingList
}

// NewHandle returns an empty handle backed by a compact set.
func NewHandle() *Handle {
	return &Handle{compact: NewCompactPostingSet()}
}

// IsCompact reports whether the handle is currently compact-backed.
func (h *Handle) IsCompact() bool { return h.compact != nil }

// Upsert inserts id, promoting to a BlockPostingList if the compact
// representation would grow past CompactThreshold (spec.md §4.3
// Promotion).
func (h *Handle) Upsert(id seqid.ID) {
	if h.block != nil {
		h.block.Upsert(id)
		return
	}

	extra := h.compact.Upsert(id)
	if extra == 0 {
		return
	}

	// required is the minimal capacity that would let this id fit.
	required := h.compact.capacity() + extra
	if required > CompactThreshold {
		// Promote: the compact set can no longer hold the new id within
		// the threshold, so rebuild as a block posting list.
		ids := h.compact.Uncompress()
		h.block = NewBlockPostingListFromIDs(BlockMax, ids)
		h.compact = nil
		h.block.Upsert(id)
		return
	}

	grown := h.compact.capacity() + h.compact.capacity()*3/10
	newCap := required
	if grown > newCap {
		newCap = grown
	}
	if newCap > CompactThreshold {
		newCap = CompactThreshold
	}
	h.compact.grow(newCap)
	h.compact.Upsert(id)
}

// Erase removes id, demoting a BlockPostingList that has collapsed to a
// single small block back to compact (spec.md §4.3 Demotion).
func (h *Handle) Erase(id seqid.ID) {
	if h.compact != nil {
		h.compact.Erase(id)
		return
	}

	h.block.Erase(id)
	if h.block.NumBlocks() == 1 && h.block.NumIDs() <= CompactThreshold {
		ids := h.block.Uncompress()
		h.compact = newCompactPostingSetFromIDs(ids)
		h.block = nil
	}
}

// Contains reports whether id is present.
func (h *Handle) Contains(id seqid.ID) bool {
	if h.compact != nil {
		return h.compact.Contains(id)
	}
	return h.block.Contains(id)
}

// NumIDs returns the number of ids stored.
func (h *Handle) NumIDs() int {
	if h.compact != nil {
		return h.compact.NumIDs()
	}
	return h.block.NumIDs()
}

// FirstID returns the smallest id, or 0 if empty.
func (h *Handle) FirstID() seqid.ID {
	if h.compact != nil {
		return h.compact.FirstID()
	}
	return h.block.FirstID()
}

// Uncompress returns every id in ascending order.
func (h *Handle) Uncompress() []seqid.ID {
	if h.compact != nil {
		return h.compact.Uncompress()
	}
	return h.block.Uncompress()
}

// IntersectCount counts ids shared with other (sorted, distinct).
func (h *Handle) IntersectCount(other []seqid.ID) int {
	if h.compact != nil {
		return h.compact.IntersectCount(other)
	}
	return h.block.IntersectCount(other, 1)
}

// Destroy drops the handle's backing storage. Go's GC reclaims the memory;
// this exists so callers mirror the source's explicit lifecycle (spec.md
// §5 "Destroying the handle frees all blocks and the summary map").
func (h *Handle) Destroy() {
	h.compact = nil
	h.block = nil
}

// Iterator returns an Iterator over the handle's ids in ascending order.
func (h *Handle) Iterator() Iterator {
	if h.compact != nil {
		return h.compact.iterator()
	}
	return h.block.NewIterator(nil, nil)
}

// asBlockList expands a compact handle into a standalone BlockPostingList
// so mixed-representation handles can be fed to the multi-way routines
// (spec.md §4.3 "merge/intersect of mixed handles"). Handles already
// block-backed are returned as-is.
func (h *Handle) asBlockList() *BlockPostingList {
	if h.block != nil {
		return h.block
	}
	return NewBlockPostingListFromIDs(BlockMax, h.compact.Uncompress())
}

// MergeHandles returns the sorted union of several handles, expanding any
// compact handles to temporary block lists for the call (spec.md §4.3).
func MergeHandles(handles []*Handle) []seqid.ID {
	lists := make([]*BlockPostingList, len(handles))
	for i, h := range handles {
		lists[i] = h.asBlockList()
	}
	return Merge(lists)
}

// IntersectHandles returns the sorted intersection of several handles
// (spec.md §4.3, §8 P6).
func IntersectHandles(handles []*Handle) []seqid.ID {
	lists := make([]*BlockPostingList, len(handles))
	for i, h := range handles {
		lists[i] = h.asBlockList()
	}
	return Intersect(lists)
}
