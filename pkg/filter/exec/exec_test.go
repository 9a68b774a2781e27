package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gralok/postingcore/pkg/engineutil"
	"github.com/gralok/postingcore/pkg/filter/ast"
	"github.com/gralok/postingcore/pkg/filter/parser"
	"github.com/gralok/postingcore/pkg/schema"
	"github.com/gralok/postingcore/pkg/seqid"
)

func productsSchema() *schema.Schema {
	return schema.New("products", []schema.Field{
		{Name: "status", Type: schema.String, Index: true},
		{Name: "price", Type: schema.Int64, Index: true},
	})
}

func seedProducts(col *schema.Collection) {
	// id -> status, price
	docs := []struct {
		id     seqid.ID
		status string
		price  int64
	}{
		{1, "active", 10},
		{2, "active", 50},
		{3, "inactive", 20},
		{4, "active", 100},
		{5, "inactive", 75},
		{6, "active", 30},
	}
	for _, d := range docs {
		col.UpsertToken("status", d.status, d.id)
		col.NumericIndexFor("price").Insert(d.price, d.id)
	}
}

func parseAndBuild(t *testing.T, filter string, sch *schema.Schema, col *schema.Collection, opts Options) *FilterResultIterator {
	t.Helper()
	node, err := parser.Parse(filter)
	require.NoError(t, err)
	it, err := New(node, sch, col, opts)
	require.NoError(t, err)
	return it
}

// TestBasicFilterAND covers scenario 1: AND of a token leaf and a numeric
// comparator leaf.
func TestBasicFilterAND(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	it := parseAndBuild(t, "status:active && price:>20", sch, col, Options{Universe: 100})
	got := it.ToFilterIDArray()
	assert.Equal(t, []seqid.ID{2, 4, 6}, got)
}

// TestORWithDeletes covers scenario 2: an OR over two token leaves where
// one matching id has since been erased from its posting set (a
// tombstoned delete), and must not appear in the result.
func TestORWithDeletes(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	// id 3 is deleted: erase it from every posting set it belonged to.
	col.EraseToken("status", "inactive", 3)

	it := parseAndBuild(t, "status:active || status:inactive", sch, col, Options{Universe: 100})
	got := it.ToFilterIDArray()
	assert.Equal(t, []seqid.ID{1, 2, 4, 5, 6}, got)
	assert.NotContains(t, got, seqid.ID(3))
}

// TestRangeFilter covers scenario 3: an inclusive numeric range leaf.
func TestRangeFilter(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	it := parseAndBuild(t, "price:[20..75]", sch, col, Options{Universe: 100})
	got := it.ToFilterIDArray()
	assert.Equal(t, []seqid.ID{2, 3, 5, 6}, got)
}

// TestNegationLeaf covers a single negated leaf, grounding the
// "universe minus matched" negIter against a token field.
func TestNegationLeaf(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	it := parseAndBuild(t, "!status:active", sch, col, Options{Universe: 7})
	got := it.ToFilterIDArray()
	// Universe spans [0,7); id 0 was never seeded so it counts as an
	// unmatched (hence NEQ-true) id alongside the genuinely inactive ones.
	assert.Equal(t, []seqid.ID{0, 3, 5}, got)
}

// TestIsValidAgreesWithSkipTo is property P9: for every candidate id,
// IsValid(id) == 1 iff SkipTo(id) lands exactly on id.
func TestIsValidAgreesWithSkipTo(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	node, err := parser.Parse("status:active || price:[15..80]")
	require.NoError(t, err)
	it, err := New(node, sch, col, Options{Universe: 100})
	require.NoError(t, err)

	for id := seqid.ID(0); id < 10; id++ {
		fresh, err := New(node, sch, col, Options{Universe: 100})
		require.NoError(t, err)
		want := it.IsValid(id)
		landed := fresh.SkipTo(id) && fresh.SeqID() == id
		if want == 1 {
			assert.True(t, landed, "IsValid said 1 for id %d but SkipTo did not land on it", id)
		}
		if !landed {
			assert.NotEqual(t, 1, want, "SkipTo did not land on id %d but IsValid said 1", id)
		}
	}
}

// TestTimeoutLatchSurvivesReset is property P10: once a budget trips
// timed_out, Reset must not clear it.
func TestTimeoutLatchSurvivesReset(t *testing.T) {
	clock := engineutil.NewFakeClock(0)
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	node, err := parser.Parse("status:active")
	require.NoError(t, err)
	it, err := New(node, sch, col, Options{Universe: 100, Clock: clock, BudgetMicros: 10})
	require.NoError(t, err)

	clock.Advance(100)
	it.Next()
	require.Equal(t, TimedOutState, it.Validity())

	it.Reset()
	assert.Equal(t, TimedOutState, it.Validity(), "timed_out must survive Reset per spec")
}

// TestAndScalarIntersectsExternal exercises the FilterResultIterator
// "scalar"-facet intersection entry point.
func TestAndScalarIntersectsExternal(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	it := parseAndBuild(t, "status:active", sch, col, Options{Universe: 100})
	got := it.AndScalar([]seqid.ID{1, 3, 4, 6})
	assert.Equal(t, []seqid.ID{1, 4, 6}, got)
}

// TestContainsAtLeastOne checks the short-circuit membership probe used
// by spec.md §6 contains_atleast_one.
func TestContainsAtLeastOne(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	it := parseAndBuild(t, "status:inactive", sch, col, Options{Universe: 100})
	assert.True(t, it.ContainsAtLeastOne([]seqid.ID{1, 2, 3}))

	it2 := parseAndBuild(t, "status:inactive", sch, col, Options{Universe: 100})
	assert.False(t, it2.ContainsAtLeastOne([]seqid.ID{1, 2, 4}))
}

// TestAddPhraseIDs checks that AND-composing a materialized phrase id
// array narrows the result the way spec.md §4.6 describes.
func TestAddPhraseIDs(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	it := parseAndBuild(t, "status:active", sch, col, Options{Universe: 100})
	it = AddPhraseIDs(it, []seqid.ID{2, 4, 99})
	got := it.ToFilterIDArray()
	assert.Equal(t, []seqid.ID{2, 4}, got)
}

// TestReferenceJoinResolvesAcrossCollections exercises the
// REFERENCE_JOIN leaf builder end to end: a "reviews" collection whose
// "product_id" field references "products", filtering reviews whose
// product is active.
func TestReferenceJoinResolvesAcrossCollections(t *testing.T) {
	productSchema := productsSchema()
	productCol := schema.NewCollection(productSchema)
	seedProducts(productCol)

	reviewSchema := schema.New("reviews", []schema.Field{
		{Name: "product_id", Type: schema.Int64, Reference: "products.id"},
	})
	reviewCol := schema.NewCollection(reviewSchema)

	// review 101 -> product 1 (active), review 102 -> product 3 (inactive)
	reviewCol.NumericIndexFor("product_id$REF").Insert(1, 101)
	reviewCol.NumericIndexFor("product_id$REF").Insert(3, 102)

	resolve := func(name string) (*schema.Schema, *schema.Collection, bool) {
		if name == "products" {
			return productSchema, productCol, true
		}
		return nil, nil, false
	}

	node, err := parser.Parse("$products(status:active)")
	require.NoError(t, err)
	it, err := New(node, reviewSchema, reviewCol, Options{Universe: 1000, Resolve: resolve})
	require.NoError(t, err)
	got := it.ToFilterIDArray()
	assert.Equal(t, []seqid.ID{101}, got)
}

// TestParenthesizedCompoundBuildsCorrectTree covers AND/OR precedence
// surviving all the way through to FilterResultIterator evaluation.
func TestParenthesizedCompoundBuildsCorrectTree(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	seedProducts(col)

	it := parseAndBuild(t, "(status:inactive || price:<15) && price:<=75", sch, col, Options{Universe: 100})
	got := it.ToFilterIDArray()
	assert.Equal(t, []seqid.ID{1, 3, 5}, got)
}

func TestUnknownFieldIsRejected(t *testing.T) {
	sch := productsSchema()
	col := schema.NewCollection(sch)
	node := &ast.Leaf{Field: "nope", Op: ast.EQ, Values: []string{"x"}}
	_, err := New(node, sch, col, Options{Universe: 10})
	assert.Error(t, err)
}
