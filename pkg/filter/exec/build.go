package exec

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gralok/postingcore/pkg/engineutil"
	"github.com/gralok/postingcore/pkg/filter/ast"
	"github.com/gralok/postingcore/pkg/numindex"
	"github.com/gralok/postingcore/pkg/postings"
	"github.com/gralok/postingcore/pkg/schema"
	"github.com/gralok/postingcore/pkg/seqid"
)

// CollectionResolver looks up a collection by name for REFERENCE_JOIN
// leaves (spec.md §4.8 "running inner_filter against C's index").
type CollectionResolver func(name string) (*schema.Schema, *schema.Collection, bool)

// Options configures a FilterResultIterator's construction (spec.md §6
// `new(filter_ast, schema, index, timeout_us)`).
type Options struct {
	Clock        engineutil.Clock
	BudgetMicros int64
	// Universe is the exclusive upper bound of valid seq_ids, used by NEQ
	// leaves' "universe minus matched" walk (spec.md §4.6).
	Universe seqid.ID
	Resolve  CollectionResolver
	// JoinCache memoizes REFERENCE_JOIN translation arrays within a query
	// batch (SPEC_FULL.md §4.10 hashicorp/golang-lru/v2 wiring).
	JoinCache *lru.Cache[string, []seqid.ID]
}

// FilterResultIterator evaluates a parsed filter AST lazily, yielding
// seq_ids in ascending order (spec.md §4.6).
type FilterResultIterator struct {
	root   Iter
	budget *engineutil.Budget
}

// New builds a FilterResultIterator for node against schema/collection
// (spec.md §6 `new`).
func New(node ast.Node, sch *schema.Schema, col *schema.Collection, opts Options) (*FilterResultIterator, error) {
	budget := engineutil.NewBudget(opts.Clock, opts.BudgetMicros)
	b := &builder{sch: sch, col: col, opts: &opts, budget: budget}
	root, err := b.build(node)
	if err != nil {
		return nil, err
	}
	return &FilterResultIterator{root: root, budget: budget}, nil
}

func (f *FilterResultIterator) Validity() Validity           { return f.root.Validity() }
func (f *FilterResultIterator) SeqID() seqid.ID               { return f.root.SeqID() }
func (f *FilterResultIterator) Next() bool                    { return f.root.Next() }
func (f *FilterResultIterator) SkipTo(id seqid.ID) bool        { return f.root.SkipTo(id) }
func (f *FilterResultIterator) IsValid(id seqid.ID) int        { return f.root.IsValid(id) }
func (f *FilterResultIterator) ApproxFilterIDsLength() int     { return f.root.ApproxFilterIDsLength() }
func (f *FilterResultIterator) Reset()                         { f.root.Reset() }

// ContainsAtLeastOne reports whether any of ids is reachable by the
// iterator (spec.md §6 contains_atleast_one).
func (f *FilterResultIterator) ContainsAtLeastOne(ids []seqid.ID) bool {
	for _, id := range ids {
		if f.root.IsValid(id) == 1 {
			return true
		}
	}
	return false
}

// AndScalar intersects the iterator's results with externally supplied
// sorted ids (spec.md §6 and_scalar).
func (f *FilterResultIterator) AndScalar(externalIDs []seqid.ID) []seqid.ID {
	var out []seqid.ID
	if f.root.Validity() != ValidState && f.root.Validity() != TimedOutState {
		f.root.Next()
	}
	i := 0
	for f.root.Validity() == ValidState && i < len(externalIDs) {
		a, b := f.root.SeqID(), externalIDs[i]
		switch {
		case a == b:
			out = append(out, a)
			f.root.Next()
			i++
		case a < b:
			f.root.SkipTo(b)
		default:
			i++
		}
	}
	return out
}

// ToFilterIDArray materializes every remaining id (spec.md §6
// to_filter_id_array).
func (f *FilterResultIterator) ToFilterIDArray() []seqid.ID {
	return f.GetNIDs(-1, false)
}

// GetNIDs materializes up to n ids (n<0 means unbounded), optionally
// bypassing the timeout latch to still return whatever is cached so far
// (spec.md §6 get_n_ids, override_timeout).
func (f *FilterResultIterator) GetNIDs(n int, overrideTimeout bool) []seqid.ID {
	var out []seqid.ID
	if f.root.Validity() == TimedOutState {
		return out
	}
	// Prime the root if it hasn't been advanced yet.
	if f.root.Validity() != ValidState {
		if !f.root.Next() {
			return out
		}
	}
	for f.root.Validity() == ValidState {
		out = append(out, f.root.SeqID())
		if n >= 0 && len(out) >= n {
			return out
		}
		f.root.Next()
	}
	if f.root.Validity() == TimedOutState && !overrideTimeout {
		return nil
	}
	return out
}

// AddPhraseIDs ANDs iter with a materialized phrase-candidate array,
// replacing it with an AND node whose right child is the array leaf
// (spec.md §4.6 "Phrase ids injection").
func AddPhraseIDs(iter *FilterResultIterator, ids []seqid.ID) *FilterResultIterator {
	phrase := newArrayIter(iter.budget, ids)
	iter.root = newAndIter([]Iter{iter.root, phrase})
	return iter
}

type builder struct {
	sch    *schema.Schema
	col    *schema.Collection
	opts   *Options
	budget *engineutil.Budget
}

func (b *builder) build(node ast.Node) (Iter, error) {
	switch n := node.(type) {
	case *ast.Compound:
		children := make([]Iter, 0, len(n.Children))
		for _, child := range n.Children {
			c, err := b.build(child)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		if n.Op == ast.And {
			return newAndIter(children), nil
		}
		return newOrIter(children), nil
	case *ast.Leaf:
		if n.Op == ast.ReferenceJoin {
			return b.buildReferenceJoin(n)
		}
		return b.buildLeaf(n)
	default:
		return nil, engineutil.NewFilterParseError("", "unknown AST node type")
	}
}

func (b *builder) buildLeaf(leaf *ast.Leaf) (Iter, error) {
	field, ok := b.sch.Field(leaf.Field)
	if !ok {
		return nil, engineutil.NewFilterParseError(leaf.Field, "unknown field")
	}
	numeric := schema.IsNumeric(field.Type)

	switch leaf.Op {
	case ast.EQ:
		ids, err := b.matchValues(field.Name, numeric, leaf.Values)
		if err != nil {
			return nil, err
		}
		return newArrayIter(b.budget, ids), nil
	case ast.IN:
		ids, err := b.matchValues(field.Name, numeric, leaf.Values)
		if err != nil {
			return nil, err
		}
		return newArrayIter(b.budget, ids), nil
	case ast.NEQ:
		ids, err := b.matchValues(field.Name, numeric, leaf.Values)
		if err != nil {
			return nil, err
		}
		return newNegIter(b.budget, ids, b.opts.Universe), nil
	case ast.NotIn:
		ids, err := b.matchValues(field.Name, numeric, leaf.Values)
		if err != nil {
			return nil, err
		}
		return newNegIter(b.budget, ids, b.opts.Universe), nil
	case ast.LT, ast.LE, ast.GT, ast.GE:
		if !numeric {
			return nil, engineutil.NewFilterParseError(leaf.Field, "comparator requires a numeric field")
		}
		v, err := parseInt(leaf.Values[0])
		if err != nil {
			return nil, err
		}
		idx := b.col.NumericIndexFor(field.Name)
		ids := idx.Search(toNumOp(leaf.Op), v)
		return newArrayIter(b.budget, ids), nil
	case ast.Range:
		if !numeric {
			return nil, engineutil.NewFilterParseError(leaf.Field, "range requires a numeric field")
		}
		lo, err := parseInt(leaf.Values[0])
		if err != nil {
			return nil, err
		}
		hi, err := parseInt(leaf.Values[1])
		if err != nil {
			return nil, err
		}
		idx := b.col.NumericIndexFor(field.Name)
		ids := idx.RangeInclusiveSearch(lo, hi)
		return newArrayIter(b.budget, ids), nil
	default:
		return nil, engineutil.NewFilterParseError(leaf.Field, "unsupported operator")
	}
}

// matchValues unions the posting sets for one or more literal values
// against field, dispatching to the numeric index or the token
// directory depending on the field's declared type.
func (b *builder) matchValues(field string, numeric bool, values []string) ([]seqid.ID, error) {
	var handles []*postings.Handle
	var arrays [][]seqid.ID
	for _, v := range values {
		if numeric {
			iv, err := parseInt(v)
			if err != nil {
				return nil, err
			}
			idx := b.col.NumericIndexFor(field)
			arrays = append(arrays, idx.Search(numindex.EQ, iv))
			continue
		}
		if h, ok := b.col.TokenHandle(field, v); ok {
			handles = append(handles, h)
		}
	}
	if len(handles) > 0 {
		arrays = append(arrays, postings.MergeHandles(handles))
	}
	return mergeSorted(arrays), nil
}

func (b *builder) buildReferenceJoin(leaf *ast.Leaf) (Iter, error) {
	if b.opts.Resolve == nil {
		return nil, engineutil.NewReferenceError(leaf.Collection, "", "no collection resolver configured")
	}
	refField := b.findReferenceField(leaf.Collection)
	if refField == "" {
		return nil, engineutil.NewReferenceError(leaf.Collection, "", "no field in this schema references that collection")
	}
	targetSchema, targetCol, ok := b.opts.Resolve(leaf.Collection)
	if !ok {
		return nil, engineutil.NewReferenceError(leaf.Collection, "", "referenced collection not found")
	}

	innerOpts := *b.opts
	innerIter, err := New(leaf.Inner, targetSchema, targetCol, innerOpts)
	if err != nil {
		return nil, err
	}
	targetIDs := innerIter.ToFilterIDArray()

	selfIDs := b.translateThroughReferenceHelper(refField, targetIDs)
	if leaf.Negate {
		return newNegIter(b.budget, selfIDs, b.opts.Universe), nil
	}
	return newArrayIter(b.budget, selfIDs), nil
}

// findReferenceField returns the name of the field in this collection's
// schema declared as a reference to collection (spec.md §4.8).
func (b *builder) findReferenceField(collection string) string {
	for _, f := range b.sch.Fields {
		if f.Reference != "" && referenceCollection(f.Reference) == collection {
			return f.Name
		}
	}
	return ""
}

func referenceCollection(reference string) string {
	for i := 0; i < len(reference); i++ {
		if reference[i] == '.' {
			return reference[:i]
		}
	}
	return reference
}

// translateThroughReferenceHelper maps target-collection seq_ids to this
// collection's seq_ids via the reference-helper field's own numeric index
// (spec.md §4.8 "mapping through the persisted reference-helper field
// index"), with a small LRU of per-target-id translations (SPEC_FULL.md
// §4.10).
func (b *builder) translateThroughReferenceHelper(refField string, targetIDs []seqid.ID) []seqid.ID {
	idx := b.col.NumericIndexFor(refField + "$REF")
	seen := make(map[seqid.ID]struct{})
	var out []seqid.ID
	for _, t := range targetIDs {
		var ids []seqid.ID
		cacheKey := refField + "$REF:" + strconv.FormatUint(uint64(t), 10)
		if b.opts.JoinCache != nil {
			if cached, ok := b.opts.JoinCache.Get(cacheKey); ok {
				ids = cached
			}
		}
		if ids == nil {
			ids = idx.Search(numindex.EQ, int64(t))
			if b.opts.JoinCache != nil {
				b.opts.JoinCache.Add(cacheKey, ids)
			}
		}
		for _, id := range ids {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	sortIDs(out)
	return out
}

func toNumOp(op ast.Op) numindex.Op {
	switch op {
	case ast.GT:
		return numindex.GT
	case ast.GE:
		return numindex.GE
	case ast.LT:
		return numindex.LT
	case ast.LE:
		return numindex.LE
	default:
		return numindex.EQ
	}
}

func parseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, engineutil.NewFilterParseError(s, "expected an integer value")
	}
	return v, nil
}
