package exec

import (
	"sort"

	"github.com/gralok/postingcore/pkg/seqid"
)

// sortIDs sorts ids in place in ascending order.
func sortIDs(ids []seqid.ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// mergeSorted k-way merges already-sorted, distinct arrays into a single
// sorted, distinct array, the same shape as postings.MergeIterators but
// over plain slices rather than posting-list iterators.
func mergeSorted(arrays [][]seqid.ID) []seqid.ID {
	switch len(arrays) {
	case 0:
		return nil
	case 1:
		return arrays[0]
	}
	idx := make([]int, len(arrays))
	var out []seqid.ID
	for {
		best := -1
		var bestID seqid.ID
		for i, arr := range arrays {
			if idx[i] >= len(arr) {
				continue
			}
			if best == -1 || arr[idx[i]] < bestID {
				best = i
				bestID = arr[idx[i]]
			}
		}
		if best == -1 {
			break
		}
		if len(out) == 0 || out[len(out)-1] != bestID {
			out = append(out, bestID)
		}
		idx[best]++
	}
	return out
}
