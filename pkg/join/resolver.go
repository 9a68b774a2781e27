// Package join implements JoinResolver: resolving a declared reference
// field to its target collection's seq_id and persisting that into the
// reference-helper field F$REF (spec.md §4.8).
package join

import (
	"fmt"
	"strconv"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/gralok/postingcore/pkg/engineutil"
	"github.com/gralok/postingcore/pkg/numindex"
	"github.com/gralok/postingcore/pkg/schema"
	"github.com/gralok/postingcore/pkg/seqid"
)

// CollectionResolver looks up a collection's schema/index pair by name,
// the same shape pkg/filter/exec uses for REFERENCE_JOIN leaves.
type CollectionResolver func(name string) (*schema.Schema, *schema.Collection, bool)

const (
	bloomExpectedKeys = 100_000
	bloomFalsePositive = 0.01
)

// Resolver resolves reference fields across collections, keeping a
// per-(collection,field) bloom filter of known key values so an
// against-a-not-yet-loaded (or genuinely absent) target short-circuits
// without an index scan (SPEC_FULL.md §4.10, `bits-and-blooms/bloom/v3`).
type Resolver struct {
	resolve CollectionResolver
	blooms  map[string]*bloom.BloomFilter
}

// New returns a Resolver that looks up target collections via resolve.
func New(resolve CollectionResolver) *Resolver {
	return &Resolver{resolve: resolve, blooms: make(map[string]*bloom.BloomFilter)}
}

func bloomKey(collection, field string) string { return collection + "." + field }

func (r *Resolver) filterFor(collection, field string) *bloom.BloomFilter {
	key := bloomKey(collection, field)
	bf, ok := r.blooms[key]
	if !ok {
		bf = bloom.NewWithEstimates(bloomExpectedKeys, bloomFalsePositive)
		r.blooms[key] = bf
	}
	return bf
}

// IndexKey registers value as a present key of collection.field, so later
// Resolve calls against it are not bloom-filtered out. Callers index a
// key field the same moment they index it as a token/numeric field.
func (r *Resolver) IndexKey(collection, field string, value interface{}) {
	r.filterFor(collection, field).Add(keyBytes(value))
}

// Resolve resolves field (declared on the source collection's schema,
// `field.Reference` of shape "collection.field") for sourceID in
// sourceCol, given value — the incoming document's raw value for field
// (spec.md §4.8).
func (r *Resolver) Resolve(field schema.Field, value interface{}, sourceID seqid.ID, sourceCol *schema.Collection) error {
	collection, keyField := splitReference(field.Reference)
	if keyField == "" {
		return engineutil.NewReferenceError(collection, field.Name, "reference field has no target key component")
	}

	if !r.filterFor(collection, keyField).Test(keyBytes(value)) {
		return r.handleAbsent(field, collection, sourceID, sourceCol)
	}

	targetSchema, targetCol, ok := r.resolve(collection)
	if !ok {
		return r.handleAbsent(field, collection, sourceID, sourceCol)
	}

	ids := lookupKey(targetSchema, targetCol, keyField, value)
	switch len(ids) {
	case 0:
		return r.handleAbsent(field, collection, sourceID, sourceCol)
	case 1:
		target := ids[0]
		sourceCol.SetReference(field.Name, sourceID, []seqid.ID{target})
		// Persisted on the SOURCE collection's own index, keyed by
		// (value=target seq_id, id=source doc id) — this is what lets
		// pkg/filter/exec's REFERENCE_JOIN leaf translate a target-side
		// result set back to this collection without a separate reverse
		// index (spec.md §4.8, DESIGN.md "REFERENCE_JOIN resolution
		// strategy").
		sourceCol.NumericIndexFor(field.Name + "$REF").Insert(int64(target), sourceID)
		return nil
	default:
		return engineutil.NewReferenceError(collection, field.Name, "foreign-key constraint violated: reference resolved to more than one target")
	}
}

func (r *Resolver) handleAbsent(field schema.Field, collection string, sourceID seqid.ID, sourceCol *schema.Collection) error {
	if field.Async {
		sourceCol.SetReference(field.Name, sourceID, []seqid.ID{seqid.NotResolved})
		return nil
	}
	return engineutil.NewReferenceError(collection, field.Name, "reference target not found")
}

func splitReference(reference string) (collection, field string) {
	for i := 0; i < len(reference); i++ {
		if reference[i] == '.' {
			return reference[:i], reference[i+1:]
		}
	}
	return reference, ""
}

// lookupKey runs the equivalent of C.filter(F' == value) against the
// target collection's own index (spec.md §4.8).
func lookupKey(targetSchema *schema.Schema, targetCol *schema.Collection, keyField string, value interface{}) []seqid.ID {
	f, ok := targetSchema.Field(keyField)
	if !ok {
		return nil
	}
	if schema.IsNumeric(f.Type) {
		v, ok := toInt64(value)
		if !ok {
			return nil
		}
		return targetCol.NumericIndexFor(keyField).Search(numindex.EQ, v)
	}
	token, ok := value.(string)
	if !ok {
		return nil
	}
	h, ok := targetCol.TokenHandle(keyField, token)
	if !ok {
		return nil
	}
	return h.Uncompress()
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func keyBytes(value interface{}) []byte {
	switch v := value.(type) {
	case string:
		return []byte(v)
	case int64:
		return []byte(strconv.FormatInt(v, 10))
	case int32:
		return []byte(strconv.FormatInt(int64(v), 10))
	case int:
		return []byte(strconv.Itoa(v))
	case float64:
		return []byte(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		return []byte(strconv.FormatBool(v))
	default:
		return []byte(fmt.Sprint(v))
	}
}
