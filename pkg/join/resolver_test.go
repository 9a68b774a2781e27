package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gralok/postingcore/pkg/numindex"
	"github.com/gralok/postingcore/pkg/schema"
	"github.com/gralok/postingcore/pkg/seqid"
)

func setupCollections() (usersSchema *schema.Schema, usersCol *schema.Collection, ordersSchema *schema.Schema, ordersCol *schema.Collection) {
	usersSchema = schema.New("users", []schema.Field{
		{Name: "email", Type: schema.String, Index: true},
	})
	usersCol = schema.NewCollection(usersSchema)

	ordersSchema = schema.New("orders", []schema.Field{
		{Name: "user_email", Type: schema.String, Reference: "users.email"},
	})
	ordersCol = schema.NewCollection(ordersSchema)
	return
}

func TestResolveFindsUniqueTarget(t *testing.T) {
	usersSchema, usersCol, ordersSchema, ordersCol := setupCollections()
	usersCol.UpsertToken("email", "a@example.com", 1)

	resolver := New(func(name string) (*schema.Schema, *schema.Collection, bool) {
		if name == "users" {
			return usersSchema, usersCol, true
		}
		return nil, nil, false
	})
	resolver.IndexKey("users", "email", "a@example.com")

	field, _ := ordersSchema.Field("user_email")
	err := resolver.Resolve(*field, "a@example.com", 100, ordersCol)
	require.NoError(t, err)

	ref, ok := ordersCol.Reference("user_email", 100)
	require.True(t, ok)
	assert.Equal(t, []seqid.ID{1}, ref)

	// The reference-helper numeric index is persisted on the source
	// (orders) collection, keyed by target seq_id, so a reverse lookup
	// from user 1 finds order 100.
	back := ordersCol.NumericIndexFor("user_email$REF").Search(numindex.EQ, 1)
	assert.Equal(t, []seqid.ID{100}, back)
}

func TestResolveFailsOnMultipleTargets(t *testing.T) {
	usersSchema, usersCol, ordersSchema, ordersCol := setupCollections()
	usersCol.UpsertToken("email", "dup@example.com", 1)
	usersCol.UpsertToken("email", "dup@example.com", 2)

	resolver := New(func(name string) (*schema.Schema, *schema.Collection, bool) {
		return usersSchema, usersCol, true
	})
	resolver.IndexKey("users", "email", "dup@example.com")

	field, _ := ordersSchema.Field("user_email")
	err := resolver.Resolve(*field, "dup@example.com", 200, ordersCol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign-key constraint violated")
}

func TestResolveAsyncRecordsSentinelWhenCollectionMissing(t *testing.T) {
	_, _, ordersSchema, ordersCol := setupCollections()

	resolver := New(func(name string) (*schema.Schema, *schema.Collection, bool) {
		return nil, nil, false
	})

	field, _ := ordersSchema.Field("user_email")
	field.Async = true
	err := resolver.Resolve(*field, "missing@example.com", 300, ordersCol)
	require.NoError(t, err)

	ref, ok := ordersCol.Reference("user_email", 300)
	require.True(t, ok)
	assert.Equal(t, []seqid.ID{seqid.NotResolved}, ref)
}

func TestResolveFailsWhenNotAsyncAndTargetMissing(t *testing.T) {
	_, _, ordersSchema, ordersCol := setupCollections()

	resolver := New(func(name string) (*schema.Schema, *schema.Collection, bool) {
		return nil, nil, false
	})

	field, _ := ordersSchema.Field("user_email")
	err := resolver.Resolve(*field, "nobody@example.com", 400, ordersCol)
	require.Error(t, err)
}

func TestBloomShortCircuitsUnindexedKey(t *testing.T) {
	usersSchema, usersCol, ordersSchema, ordersCol := setupCollections()
	usersCol.UpsertToken("email", "known@example.com", 1)

	resolver := New(func(name string) (*schema.Schema, *schema.Collection, bool) {
		return usersSchema, usersCol, true
	})
	// Deliberately never call IndexKey for "known@example.com": the bloom
	// filter reports it absent even though the token index has it, which
	// is acceptable (false negative is not possible for bloom filters;
	// this exercises the "never indexed" path, not a false negative).
	field, _ := ordersSchema.Field("user_email")
	err := resolver.Resolve(*field, "known@example.com", 500, ordersCol)
	require.Error(t, err)
}
