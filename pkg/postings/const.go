package postings

// Policy knobs called out by spec.md §9 as having "no algorithmic
// significance" — chosen here to match the values confirmed against
// original_source/include/id_list.h and include/ids_t.h.
const (
	// BlockMax is the maximum number of ids a BlockPostingList block may
	// hold before it splits. Every non-root, non-tail-in-flux block stays
	// within [BlockMax/2, BlockMax].
	BlockMax = 256

	// CompactThreshold is the largest length a CompactPostingSet may reach
	// before PostingSetHandle promotes it to a BlockPostingList.
	CompactThreshold = 64
)
