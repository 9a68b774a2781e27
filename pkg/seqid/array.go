package seqid

import (
	"encoding/binary"

	"github.com/klauspost/compress/s2"
)

// SortedArray is an ordered sequence of distinct u32 ids, held compressed at
// rest. Encoding is opaque: callers treat it as a black-box compact
// container and only ever observe it through append/indexOf/removeValue/
// contains/at/last/getLength/uncompress, exactly as spec.md's §3 sorted_array
// contract requires.
//
// The bytes are a delta-encoded varint stream (first id absolute, every
// subsequent id the delta from its predecessor) further compressed with
// s2 (klauspost/compress), the same family of block compressor the teacher's
// chunk store reaches for. Every mutating method decodes, mutates the plain
// slice, and re-encodes; blocks are capped at a few hundred elements (see
// postings.BlockMax) so this round trip stays cheap.
type SortedArray struct {
	packed []byte
	length int
}

// NewSortedArray returns an empty sorted array.
func NewSortedArray() *SortedArray {
	return &SortedArray{}
}

// NewSortedArrayFromIDs builds a sorted array from an already sorted,
// duplicate-free slice of ids. The caller retains ownership of ids.
func NewSortedArrayFromIDs(ids []ID) *SortedArray {
	a := &SortedArray{}
	a.encode(ids)
	return a
}

func (a *SortedArray) encode(ids []ID) {
	if len(ids) == 0 {
		a.packed = nil
		a.length = 0
		return
	}
	buf := make([]byte, 0, len(ids)*2)
	var scratch [binary.MaxVarintLen64]byte
	prev := ID(0)
	for i, id := range ids {
		var delta uint64
		if i == 0 {
			delta = uint64(id)
		} else {
			delta = uint64(id - prev)
		}
		n := binary.PutUvarint(scratch[:], delta)
		buf = append(buf, scratch[:n]...)
		prev = id
	}
	a.packed = s2.Encode(nil, buf)
	a.length = len(ids)
}

func (a *SortedArray) decode() []ID {
	if a.length == 0 {
		return nil
	}
	raw, err := s2.Decode(nil, a.packed)
	if err != nil {
		// The only way this can fail is internal memory corruption; the
		// engine never hands out the packed bytes to callers.
		panic("seqid: corrupt sorted array: " + err.Error())
	}
	ids := make([]ID, 0, a.length)
	var cur ID
	off := 0
	for i := 0; i < a.length; i++ {
		delta, n := binary.Uvarint(raw[off:])
		off += n
		if i == 0 {
			cur = ID(delta)
		} else {
			cur += ID(delta)
		}
		ids = append(ids, cur)
	}
	return ids
}

// GetLength returns the number of ids stored.
func (a *SortedArray) GetLength() int {
	return a.length
}

// Uncompress decodes the full array into a freshly allocated slice.
func (a *SortedArray) Uncompress() []ID {
	return a.decode()
}

// At returns the id at position i. Panics if i is out of range, mirroring
// the teacher's use of direct slice indexing at call sites that already
// range-check against GetLength.
func (a *SortedArray) At(i int) ID {
	return a.decode()[i]
}

// Last returns the final id, or 0 if the array is empty.
func (a *SortedArray) Last() ID {
	if a.length == 0 {
		return 0
	}
	return a.At(a.length - 1)
}

// First returns the first id, or 0 if the array is empty.
func (a *SortedArray) First() ID {
	if a.length == 0 {
		return 0
	}
	return a.At(0)
}

// IndexOf returns the position of id and true if present, else the
// insertion point it would occupy and false.
func (a *SortedArray) IndexOf(id ID) (int, bool) {
	ids := a.decode()
	lo, hi := 0, len(ids)
	for lo < hi {
		mid := (lo + hi) / 2
		if ids[mid] < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(ids) && ids[lo] == id {
		return lo, true
	}
	return lo, false
}

// Contains reports whether id is present.
func (a *SortedArray) Contains(id ID) bool {
	_, ok := a.IndexOf(id)
	return ok
}

// Append inserts id in sorted position if absent. Returns true if the array
// was modified.
func (a *SortedArray) Append(id ID) bool {
	ids := a.decode()
	pos, found := a.IndexOf(id)
	if found {
		return false
	}
	ids = append(ids, 0)
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = id
	a.encode(ids)
	return true
}

// RemoveValue removes id if present. Returns true if the array was
// modified.
func (a *SortedArray) RemoveValue(id ID) bool {
	pos, found := a.IndexOf(id)
	if !found {
		return false
	}
	ids := a.decode()
	ids = append(ids[:pos], ids[pos+1:]...)
	a.encode(ids)
	return true
}

// SplitAt divides the array into [0,at) and [at,length), returning the
// second half as a new SortedArray. Used by block splitting/merging.
func (a *SortedArray) SplitAt(at int) *SortedArray {
	ids := a.decode()
	upper := append([]ID(nil), ids[at:]...)
	a.encode(ids[:at])
	return NewSortedArrayFromIDs(upper)
}

// Extend appends another array's ids onto this one in place. The caller
// must guarantee the result stays sorted (i.e. other's ids are all greater
// than this array's last id).
func (a *SortedArray) Extend(other *SortedArray) {
	ids := a.decode()
	ids = append(ids, other.decode()...)
	a.encode(ids)
}
