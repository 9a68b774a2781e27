package schema

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dolthub/swiss"

	"github.com/gralok/postingcore/pkg/numindex"
	"github.com/gralok/postingcore/pkg/postings"
	"github.com/gralok/postingcore/pkg/seqid"
)

// tokenDirectory maps a field's hashed token strings to the posting
// handle carrying every seq_id that produced that token (spec.md §3,
// "per indexed token ... a posting-set"). Tokens are hashed with
// cespare/xxhash/v2 before insertion (SPEC_FULL.md §4.10), trading an
// extremely small collision risk at this engine's scale for avoiding a
// full string comparison on every directory hit.
type tokenDirectory struct {
	hashes *swiss.Map[uint64, *postings.Handle]
}

func newTokenDirectory() *tokenDirectory {
	return &tokenDirectory{hashes: swiss.NewMap[uint64, *postings.Handle](8)}
}

func hashToken(token string) uint64 {
	return xxhash.Sum64String(token)
}

// Collection is the per-collection in-memory index: one token directory
// or NumericIndex per indexed field, keyed by field name via a
// dolthub/swiss backing map (SPEC_FULL.md §4.10 — "Swiss-table backing
// map for the per-collection field→token→handle directory").
type Collection struct {
	Schema *Schema

	tokenFields   *swiss.Map[string, *tokenDirectory]
	numericFields *swiss.Map[string, *numindex.NumericIndex]

	// referenceHelpers stores the persisted F$REF value(s) per document,
	// keyed by reference field name then seq_id (spec.md §4.8).
	referenceHelpers *swiss.Map[string, map[seqid.ID][]seqid.ID]
}

// NewCollection returns an empty Collection over s.
func NewCollection(s *Schema) *Collection {
	return &Collection{
		Schema:           s,
		tokenFields:      swiss.NewMap[string, *tokenDirectory](8),
		numericFields:    swiss.NewMap[string, *numindex.NumericIndex](8),
		referenceHelpers: swiss.NewMap[string, map[seqid.ID][]seqid.ID](8),
	}
}

func (c *Collection) tokenDirFor(field string) *tokenDirectory {
	d, ok := c.tokenFields.Get(field)
	if !ok {
		d = newTokenDirectory()
		c.tokenFields.Put(field, d)
	}
	return d
}

// UpsertToken adds id to the posting set for field's token value.
func (c *Collection) UpsertToken(field, token string, id seqid.ID) {
	d := c.tokenDirFor(field)
	key := hashToken(token)
	h, ok := d.hashes.Get(key)
	if !ok {
		h = postings.NewHandle()
		d.hashes.Put(key, h)
	}
	h.Upsert(id)
}

// EraseToken removes id from field's token value posting set.
func (c *Collection) EraseToken(field, token string, id seqid.ID) {
	d, ok := c.tokenFields.Get(field)
	if !ok {
		return
	}
	key := hashToken(token)
	h, ok := d.hashes.Get(key)
	if !ok {
		return
	}
	h.Erase(id)
	if h.NumIDs() == 0 {
		d.hashes.Delete(key)
	}
}

// TokenHandle returns the posting handle for field's token value, if any.
func (c *Collection) TokenHandle(field, token string) (*postings.Handle, bool) {
	d, ok := c.tokenFields.Get(field)
	if !ok {
		return nil, false
	}
	return d.hashes.Get(hashToken(token))
}

// NumericIndexFor returns (creating if necessary) field's NumericIndex.
func (c *Collection) NumericIndexFor(field string) *numindex.NumericIndex {
	idx, ok := c.numericFields.Get(field)
	if !ok {
		idx = numindex.New()
		c.numericFields.Put(field, idx)
	}
	return idx
}

// SetReference persists targetIDs as the reference-helper value for
// field's doc id (spec.md §4.8 "persist it into the reference-helper
// field F$REF").
func (c *Collection) SetReference(field string, id seqid.ID, targetIDs []seqid.ID) {
	m, ok := c.referenceHelpers.Get(field)
	if !ok {
		m = make(map[seqid.ID][]seqid.ID)
		c.referenceHelpers.Put(field, m)
	}
	m[id] = targetIDs
}

// Reference returns field's persisted reference-helper value for id.
func (c *Collection) Reference(field string, id seqid.ID) ([]seqid.ID, bool) {
	m, ok := c.referenceHelpers.Get(field)
	if !ok {
		return nil, false
	}
	v, ok := m[id]
	return v, ok
}
