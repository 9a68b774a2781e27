// Package exec implements FilterResultIterator: a lazy, composable
// evaluator over a parsed filter AST that yields seq_ids in ascending
// order, with skip-to, timeout and cancellation semantics — spec.md §4.6.
package exec

import (
	"sort"

	"github.com/gralok/postingcore/pkg/engineutil"
	"github.com/gralok/postingcore/pkg/seqid"
)

// Validity is the iterator tri-state spec.md §4.6 names: `valid` = seq_id
// is current; `invalid` = exhausted or no match; `timed_out` = search
// budget exceeded.
type Validity int

const (
	ValidState Validity = iota
	InvalidState
	TimedOutState
)

// Iter is the shared contract every node in a FilterResultIterator tree
// implements (spec.md §4.6 Advance/skip_to/is_valid).
type Iter interface {
	Validity() Validity
	SeqID() seqid.ID
	Next() bool
	SkipTo(target seqid.ID) bool
	// IsValid reports whether SkipTo(id) would land validity=valid with
	// seq_id=id: 1 yes, 0 not but work remains, -1 exhausted (spec.md §4.6
	// is_valid, §8 P9).
	IsValid(id seqid.ID) int
	ApproxFilterIDsLength() int
	Reset()
}

// budgeted is embedded by every concrete iterator to implement the
// budget check shared across Next/SkipTo (spec.md §5 "Cancellation").
// Once latched, TimedOutState never clears, not even via Reset (spec.md
// §8 P10) — callers must construct a fresh iterator to resume.
type budgeted struct {
	budget   *engineutil.Budget
	timedOut bool
}

func (b *budgeted) checkBudget() bool {
	if b.timedOut {
		return true
	}
	if b.budget != nil && b.budget.Exceeded() {
		b.timedOut = true
	}
	return b.timedOut
}

// arrayIter walks an eagerly materialized, sorted, distinct seq_id slice
// — spec.md §4.6 "the iterator may additionally own an eagerly
// materialized u32 array". Used for token equality/IN results, numeric
// range results, phrase ids, and reference-join translations.
type arrayIter struct {
	budgeted
	ids []seqid.ID
	pos int
}

func newArrayIter(budget *engineutil.Budget, ids []seqid.ID) *arrayIter {
	return &arrayIter{budgeted: budgeted{budget: budget}, ids: ids, pos: -1}
}

func (a *arrayIter) Validity() Validity {
	if a.timedOut {
		return TimedOutState
	}
	if a.pos >= 0 && a.pos < len(a.ids) {
		return ValidState
	}
	return InvalidState
}

func (a *arrayIter) SeqID() seqid.ID {
	if a.pos < 0 || a.pos >= len(a.ids) {
		return 0
	}
	return a.ids[a.pos]
}

func (a *arrayIter) Next() bool {
	if a.checkBudget() {
		return false
	}
	a.pos++
	return a.pos < len(a.ids)
}

func (a *arrayIter) SkipTo(target seqid.ID) bool {
	if a.checkBudget() {
		return false
	}
	if a.pos < 0 {
		a.pos = 0
	}
	a.pos += sort.Search(len(a.ids)-a.pos, func(i int) bool { return a.ids[a.pos+i] >= target })
	return a.pos < len(a.ids)
}

func (a *arrayIter) IsValid(id seqid.ID) int {
	if a.timedOut {
		return -1
	}
	i := sort.Search(len(a.ids), func(i int) bool { return a.ids[i] >= id })
	if i >= len(a.ids) {
		return -1
	}
	if a.ids[i] == id {
		return 1
	}
	return 0
}

func (a *arrayIter) ApproxFilterIDsLength() int { return len(a.ids) }

func (a *arrayIter) Reset() { a.pos = -1 }

// negIter is leaf NEQ, "universe minus matched" (spec.md §4.6 "Leaf
// negation"): a monotonically increasing cursor over [0, universe) that
// skips every id present in the positive (matched) set.
type negIter struct {
	budgeted
	matched  []seqid.ID
	universe seqid.ID // exclusive upper bound
	cur      seqid.ID
	mi       int
	valid    bool
	started  bool
}

func newNegIter(budget *engineutil.Budget, matched []seqid.ID, universe seqid.ID) *negIter {
	return &negIter{budgeted: budgeted{budget: budget}, matched: matched, universe: universe}
}

func (n *negIter) Validity() Validity {
	if n.timedOut {
		return TimedOutState
	}
	if n.valid {
		return ValidState
	}
	return InvalidState
}

func (n *negIter) SeqID() seqid.ID { return n.cur }

// advanceFrom scans forward from c (inclusive) for the first id < universe
// not present in matched.
func (n *negIter) advanceFrom(c seqid.ID) bool {
	for n.mi < len(n.matched) && n.matched[n.mi] < c {
		n.mi++
	}
	for c < n.universe {
		if n.mi < len(n.matched) && n.matched[n.mi] == c {
			c++
			n.mi++
			continue
		}
		n.cur = c
		n.valid = true
		return true
	}
	n.valid = false
	return false
}

func (n *negIter) Next() bool {
	if n.checkBudget() {
		return false
	}
	start := seqid.ID(0)
	if n.started {
		start = n.cur + 1
	}
	n.started = true
	return n.advanceFrom(start)
}

func (n *negIter) SkipTo(target seqid.ID) bool {
	if n.checkBudget() {
		return false
	}
	n.started = true
	if n.valid && target <= n.cur {
		return true
	}
	n.mi = 0
	return n.advanceFrom(target)
}

func (n *negIter) IsValid(id seqid.ID) int {
	if n.timedOut {
		return -1
	}
	if id >= n.universe {
		return -1
	}
	i := sort.Search(len(n.matched), func(i int) bool { return n.matched[i] >= id })
	if i < len(n.matched) && n.matched[i] == id {
		return 0
	}
	return 1
}

func (n *negIter) ApproxFilterIDsLength() int {
	if int(n.universe) > len(n.matched) {
		return int(n.universe) - len(n.matched)
	}
	return 0
}

func (n *negIter) Reset() {
	n.cur = 0
	n.mi = 0
	n.valid = false
	n.started = false
}
