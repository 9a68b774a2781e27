package exec

import "github.com/gralok/postingcore/pkg/seqid"

// andIter is an AND compound node: advance all children to the maximum of
// their current ids; when all agree, emit; else set the laggards to
// skip_to(max). Short-circuits on any child becoming invalid (spec.md
// §4.6 "AND").
type andIter struct {
	children []Iter
	cur      seqid.ID
	valid    bool
	timedOut bool
	started  bool
}

func newAndIter(children []Iter) *andIter {
	return &andIter{children: children}
}

func (n *andIter) Validity() Validity {
	if n.timedOut {
		return TimedOutState
	}
	if n.valid {
		return ValidState
	}
	return InvalidState
}

func (n *andIter) SeqID() seqid.ID { return n.cur }

func (n *andIter) Next() bool {
	if n.timedOut {
		return false
	}
	if !n.started {
		n.started = true
		for _, c := range n.children {
			if !c.Next() {
				return n.settleFromChild(c)
			}
		}
	} else {
		for _, c := range n.children {
			if !c.SkipTo(n.cur + 1) {
				return n.settleFromChild(c)
			}
		}
	}
	return n.align()
}

func (n *andIter) SkipTo(target seqid.ID) bool {
	if n.timedOut {
		return false
	}
	n.started = true
	for _, c := range n.children {
		if !c.SkipTo(target) {
			return n.settleFromChild(c)
		}
	}
	return n.align()
}

// align repeatedly advances the laggards to the running maximum until
// every child agrees, or one goes invalid/timed-out.
func (n *andIter) align() bool {
	for {
		max := n.children[0].SeqID()
		for _, c := range n.children[1:] {
			if c.SeqID() > max {
				max = c.SeqID()
			}
		}
		allEqual := true
		for _, c := range n.children {
			if c.SeqID() != max {
				allEqual = false
				if !c.SkipTo(max) {
					return n.settleFromChild(c)
				}
			}
		}
		if allEqual {
			n.cur = max
			n.valid = true
			return true
		}
	}
}

func (n *andIter) settleFromChild(c Iter) bool {
	if c.Validity() == TimedOutState {
		n.timedOut = true
	}
	n.valid = false
	return false
}

func (n *andIter) IsValid(id seqid.ID) int {
	if n.timedOut {
		return -1
	}
	allValid := true
	for _, c := range n.children {
		switch c.IsValid(id) {
		case -1:
			return -1
		case 0:
			allValid = false
		}
	}
	if allValid {
		return 1
	}
	return 0
}

func (n *andIter) ApproxFilterIDsLength() int {
	min := -1
	for _, c := range n.children {
		l := c.ApproxFilterIDsLength()
		if min == -1 || l < min {
			min = l
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

func (n *andIter) Reset() {
	n.valid = false
	n.started = false
	for _, c := range n.children {
		c.Reset()
	}
}

// orIter is an OR compound node: emit the minimum current id across
// children, then advance all children that matched it. Ends when all
// children are invalid (spec.md §4.6 "OR").
type orIter struct {
	children []Iter
	cur      seqid.ID
	valid    bool
	timedOut bool
	started  bool
}

func newOrIter(children []Iter) *orIter {
	return &orIter{children: children}
}

func (n *orIter) Validity() Validity {
	if n.timedOut {
		return TimedOutState
	}
	if n.valid {
		return ValidState
	}
	return InvalidState
}

func (n *orIter) SeqID() seqid.ID { return n.cur }

func (n *orIter) Next() bool {
	if n.timedOut {
		return false
	}
	if !n.started {
		n.started = true
		for _, c := range n.children {
			c.Next()
		}
	} else {
		for _, c := range n.children {
			if c.Validity() == ValidState && c.SeqID() == n.cur {
				c.Next()
			}
		}
	}
	return n.settle()
}

func (n *orIter) SkipTo(target seqid.ID) bool {
	if n.timedOut {
		return false
	}
	n.started = true
	for _, c := range n.children {
		if c.Validity() != TimedOutState {
			c.SkipTo(target)
		}
	}
	return n.settle()
}

func (n *orIter) settle() bool {
	found := false
	var min seqid.ID
	for _, c := range n.children {
		if c.Validity() == TimedOutState {
			n.timedOut = true
			n.valid = false
			return false
		}
		if c.Validity() != ValidState {
			continue
		}
		if !found || c.SeqID() < min {
			min = c.SeqID()
			found = true
		}
	}
	n.valid = found
	if found {
		n.cur = min
	}
	return found
}

func (n *orIter) IsValid(id seqid.ID) int {
	if n.timedOut {
		return -1
	}
	allEnd := true
	for _, c := range n.children {
		switch c.IsValid(id) {
		case 1:
			return 1
		case 0:
			allEnd = false
		}
	}
	if allEnd {
		return -1
	}
	return 0
}

func (n *orIter) ApproxFilterIDsLength() int {
	sum := 0
	for _, c := range n.children {
		sum += c.ApproxFilterIDsLength()
	}
	return sum
}

func (n *orIter) Reset() {
	n.valid = false
	n.started = false
	for _, c := range n.children {
		c.Reset()
	}
}
