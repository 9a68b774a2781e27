package postings

import "github.com/gralok/postingcore/pkg/seqid"

// MergeIterators returns the sorted union of k iterators — spec.md §4.2
// "merge, intersect (multi-way)". The k==1 and k==2 cases are special
// cased for the two-pointer walk the source uses; k>=3 falls back to the
// general min-of-heads form.
func MergeIterators(its []Iterator) []seqid.ID {
	for _, it := range its {
		it.Next()
	}
	var out []seqid.ID
	switch len(its) {
	case 0:
		return nil
	case 1:
		for its[0].Valid() {
			out = append(out, its[0].ID())
			its[0].Next()
		}
	case 2:
		a, b := its[0], its[1]
		for a.Valid() || b.Valid() {
			switch {
			case !b.Valid() || (a.Valid() && a.ID() < b.ID()):
				out = append(out, a.ID())
				a.Next()
			case !a.Valid() || (b.Valid() && b.ID() < a.ID()):
				out = append(out, b.ID())
				b.Next()
			default:
				out = append(out, a.ID())
				a.Next()
				b.Next()
			}
		}
	default:
		for anyValid(its) {
			min := minID(its)
			out = append(out, min)
			for _, it := range its {
				if it.Valid() && it.ID() == min {
					it.Next()
				}
			}
		}
	}
	return out
}

// IntersectIterators returns the sorted intersection of k iterators —
// spec.md §4.2/§4.5, and §8 property P6.
func IntersectIterators(its []Iterator) []seqid.ID {
	for _, it := range its {
		if !it.Next() {
			return nil
		}
	}
	var out []seqid.ID
	switch len(its) {
	case 0:
		return nil
	case 1:
		for its[0].Valid() {
			out = append(out, its[0].ID())
			its[0].Next()
		}
	case 2:
		a, b := its[0], its[1]
		for a.Valid() && b.Valid() {
			switch {
			case a.ID() == b.ID():
				out = append(out, a.ID())
				a.Next()
				b.Next()
			case a.ID() < b.ID():
				if !a.SkipTo(b.ID()) {
					return out
				}
			default:
				if !b.SkipTo(a.ID()) {
					return out
				}
			}
		}
	default:
		for allValid(its) {
			if allEqual(its) {
				out = append(out, its[0].ID())
				for _, it := range its {
					it.Next()
				}
				continue
			}
			advanceNonLargest(its)
		}
	}
	return out
}

func anyValid(its []Iterator) bool {
	for _, it := range its {
		if it.Valid() {
			return true
		}
	}
	return false
}

func allValid(its []Iterator) bool {
	for _, it := range its {
		if !it.Valid() {
			return false
		}
	}
	return true
}

func allEqual(its []Iterator) bool {
	first := its[0].ID()
	for _, it := range its[1:] {
		if it.ID() != first {
			return false
		}
	}
	return true
}

func minID(its []Iterator) seqid.ID {
	var min seqid.ID
	found := false
	for _, it := range its {
		if !it.Valid() {
			continue
		}
		if !found || it.ID() < min {
			min = it.ID()
			found = true
		}
	}
	return min
}

func maxID(its []Iterator) seqid.ID {
	var max seqid.ID
	for _, it := range its {
		if it.Valid() && it.ID() > max {
			max = it.ID()
		}
	}
	return max
}

// advanceNonLargest skips every iterator not already at the running
// maximum forward to it (spec.md §4.2's general intersect form).
func advanceNonLargest(its []Iterator) {
	m := maxID(its)
	for _, it := range its {
		if it.Valid() && it.ID() < m {
			it.SkipTo(m)
		}
	}
}

// Merge returns the sorted union of several block posting lists —
// spec.md §4.2's static `merge`.
func Merge(lists []*BlockPostingList) []seqid.ID {
	its := make([]Iterator, 0, len(lists))
	for _, l := range lists {
		its = append(its, l.NewIterator(nil, nil))
	}
	return MergeIterators(its)
}

// Intersect returns the sorted intersection of several block posting
// lists — spec.md §4.2's static `intersect`, §8 property P6.
func Intersect(lists []*BlockPostingList) []seqid.ID {
	its := make([]Iterator, 0, len(lists))
	for _, l := range lists {
		its = append(its, l.NewIterator(nil, nil))
	}
	return IntersectIterators(its)
}
