package postings

// Window is one block-aligned partition of a multi-way intersection: one
// iterator per input list, index 0 always the driving (smallest) list's
// slice of the partition (spec.md §4.5 steps 3-4).
type Window struct {
	Iters []Iterator
}

// ExpandHandle returns h's contents as a standalone BlockPostingList,
// expanding a compact handle into a temporary chain exactly as
// MergeHandles/IntersectHandles do internally (spec.md §4.3).
func ExpandHandle(h *Handle) *BlockPostingList {
	return h.asBlockList()
}

// BuildWindows partitions lists[0] — assumed already the list with the
// fewest blocks, the "driving" list per spec.md §4.5 step 1 — into
// ceil(NumBlocks/concurrency)-sized windows and, for each window, builds
// one iterator per list bracketing that block range (spec.md §4.5 step 3).
func BuildWindows(lists []*BlockPostingList, concurrency int) []Window {
	if len(lists) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	driving := lists[0]
	numBlocks := driving.NumBlocks()
	if numBlocks == 0 {
		return nil
	}
	windowSize := (numBlocks + concurrency - 1) / concurrency
	if windowSize < 1 {
		windowSize = 1
	}

	var windows []Window
	count := 0
	windowStart := driving.root
	for b := driving.root; b != nil; b = b.next {
		count++
		if count == windowSize || b.next == nil {
			windows = append(windows, buildWindow(lists, windowStart, b))
			count = 0
			windowStart = b.next
		}
	}
	return windows
}

// buildWindow constructs the iterator vector for one partition: the
// driving list's own slice, plus for each other list the blocks bracketing
// [startBlock.first_id(), lastBlock.last_id()], expanded by one block if
// the located start and end collapse to the same block (spec.md §4.5
// step 3).
func buildWindow(lists []*BlockPostingList, startBlock, lastBlock *block) Window {
	iters := make([]Iterator, len(lists))
	iters[0] = lists[0].NewIterator(startBlock, lastBlock.next)

	firstID := startBlock.first()
	lastID := lastBlock.last()
	for i := 1; i < len(lists); i++ {
		l := lists[i]
		ws := l.BlockOf(firstID)
		we := l.BlockOf(lastID)
		end := we.next
		if ws == we {
			end = ws.next
		}
		iters[i] = l.NewIterator(ws, end)
	}
	return Window{Iters: iters}
}
