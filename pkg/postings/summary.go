package postings

import "github.com/gralok/postingcore/pkg/seqid"

// summaryMap is the ordered last_id -> *block index described in spec.md
// §3/§4.2 ("any ordered-map supporting lower_bound in O(log n)... a
// skiplist or B+-tree is equally valid; the design only depends on the
// operation set, not the layout" — spec.md §9). Chains rarely exceed a few
// dozen blocks (each holds up to BlockMax ids), so a sorted slice with
// binary search gives O(log n) lookup with none of the pointer-chasing
// overhead a tree would add at this scale.
type summaryMap struct {
	lastIDs []seqid.ID
	blocks  []*block
}

func (m *summaryMap) len() int { return len(m.lastIDs) }

func (m *summaryMap) search(key seqid.ID) int {
	lo, hi := 0, len(m.lastIDs)
	for lo < hi {
		mid := (lo + hi) / 2
		if m.lastIDs[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// lowerBound returns the index of the first entry whose key is >= target,
// or len(m.lastIDs) if none. The accompanying block, if any, is the block
// that contains or would contain target.
func (m *summaryMap) lowerBound(target seqid.ID) (idx int, ok bool) {
	idx = m.search(target)
	return idx, idx < len(m.lastIDs)
}

func (m *summaryMap) insert(key seqid.ID, b *block) {
	idx := m.search(key)
	if idx < len(m.lastIDs) && m.lastIDs[idx] == key {
		m.blocks[idx] = b
		return
	}
	m.lastIDs = append(m.lastIDs, 0)
	m.blocks = append(m.blocks, nil)
	copy(m.lastIDs[idx+1:], m.lastIDs[idx:len(m.lastIDs)-1])
	copy(m.blocks[idx+1:], m.blocks[idx:len(m.blocks)-1])
	m.lastIDs[idx] = key
	m.blocks[idx] = b
}

func (m *summaryMap) remove(key seqid.ID) {
	idx := m.search(key)
	if idx >= len(m.lastIDs) || m.lastIDs[idx] != key {
		return
	}
	m.lastIDs = append(m.lastIDs[:idx], m.lastIDs[idx+1:]...)
	m.blocks = append(m.blocks[:idx], m.blocks[idx+1:]...)
}

// rebind moves the entry at oldKey to newKey (no-op if the block didn't
// change last id).
func (m *summaryMap) rebind(oldKey, newKey seqid.ID, b *block) {
	if oldKey == newKey {
		m.insert(newKey, b)
		return
	}
	m.remove(oldKey)
	m.insert(newKey, b)
}

// blockAt returns the block bracketing target, or nil if the map is empty.
func (m *summaryMap) blockAt(target seqid.ID) *block {
	idx, ok := m.lowerBound(target)
	if !ok {
		if len(m.blocks) == 0 {
			return nil
		}
		return m.blocks[len(m.blocks)-1]
	}
	return m.blocks[idx]
}

// indexOfBlock returns the summary index of b by pointer identity, or -1.
func (m *summaryMap) indexOfBlock(b *block) int {
	for i, bb := range m.blocks {
		if bb == b {
			return i
		}
	}
	return -1
}

// predecessorOf returns the block preceding b in chain order, or nil if b
// is first (or not found).
func (m *summaryMap) predecessorOf(b *block) *block {
	idx := m.indexOfBlock(b)
	if idx <= 0 {
		return nil
	}
	return m.blocks[idx-1]
}

func (m *summaryMap) last() *block {
	if len(m.blocks) == 0 {
		return nil
	}
	return m.blocks[len(m.blocks)-1]
}

func (m *summaryMap) keys() []seqid.ID {
	return m.lastIDs
}
