// Package intersect implements PostingSetIntersector, the multi-way AND
// primitive with a block-parallel split over a worker pool — spec.md §4.5.
package intersect

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/gralok/postingcore/pkg/postings"
	"github.com/gralok/postingcore/pkg/seqid"
)

// Options configures block-parallel partitioning (spec.md §4.5 steps 1-2).
type Options struct {
	// ParallelizeMinIDs is the driving list size below which Intersect
	// always runs sequentially.
	ParallelizeMinIDs int
	// Concurrency bounds the number of partitions (and worker goroutines)
	// used when the driving list crosses ParallelizeMinIDs.
	Concurrency int
	// State, if non-nil, filters every candidate id through
	// State.TakeID before it is returned (spec.md §4.5 result_iter_state_t).
	State *State
}

// DefaultOptions mirrors the source's defaults: a few thousand ids before
// bothering to split, modest fan-out beyond that.
func DefaultOptions() Options {
	return Options{ParallelizeMinIDs: 4096, Concurrency: 4}
}

// Intersector wraps the multi-way posting-set intersection with the
// block-parallel split described in spec.md §4.5.
type Intersector struct {
	opts Options
}

// New returns an Intersector configured with opts.
func New(opts Options) *Intersector {
	return &Intersector{opts: opts}
}

// Intersect returns the sorted intersection of handles' ids (spec.md §4.5
// steps 1-5, §8 property P6/P7).
func (ix *Intersector) Intersect(handles []*postings.Handle) []seqid.ID {
	if len(handles) == 0 {
		return nil
	}

	lists := make([]*postings.BlockPostingList, len(handles))
	for i, h := range handles {
		lists[i] = postings.ExpandHandle(h)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].NumBlocks() < lists[j].NumBlocks() })

	if len(lists) == 1 {
		return ix.filter(lists[0].Uncompress())
	}

	driving := lists[0]
	if driving.NumIDs() < ix.opts.ParallelizeMinIDs || ix.opts.Concurrency <= 1 {
		return ix.filter(postings.Intersect(lists))
	}
	return ix.intersectParallel(lists)
}

// intersectParallel runs step 2-5 of spec.md §4.5: partition the driving
// list's blocks into windows, fan each window out to a worker, and
// concatenate results in block order (already sorted since windows never
// overlap along the driving list).
func (ix *Intersector) intersectParallel(lists []*postings.BlockPostingList) []seqid.ID {
	windows := postings.BuildWindows(lists, ix.opts.Concurrency)
	if len(windows) == 0 {
		return nil
	}

	results := make([][]seqid.ID, len(windows))
	var g errgroup.Group
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			results[i] = postings.IntersectIterators(w.Iters)
			return nil
		})
	}
	_ = g.Wait() // workers never return an error; nothing to propagate.

	var out []seqid.ID
	for _, part := range results {
		out = append(out, ix.filter(part)...)
	}
	return out
}

func (ix *Intersector) filter(ids []seqid.ID) []seqid.ID {
	if ix.opts.State == nil {
		return ids
	}
	out := make([]seqid.ID, 0, len(ids))
	for _, id := range ids {
		if ix.opts.State.TakeID(id) {
			out = append(out, id)
		}
	}
	return out
}
