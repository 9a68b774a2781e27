package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gralok/postingcore/pkg/schema"
)

func productSchema() *schema.Schema {
	return schema.New("products", []schema.Field{
		{Name: "name", Type: schema.String},
		{Name: "price", Type: schema.Int64},
		{Name: "in_stock", Type: schema.Bool},
		{Name: "rating", Type: schema.Float, Optional: true},
		{Name: "tags", Type: schema.StringArray, Optional: true},
	})
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	sch := productSchema()
	doc := map[string]interface{}{"name": "widget", "in_stock": true}
	_, err := Validate(doc, sch, Create, schema.Reject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
}

func TestValidateRejectRejectsTypeMismatch(t *testing.T) {
	sch := productSchema()
	doc := map[string]interface{}{"name": "widget", "price": "9.99", "in_stock": true}
	_, err := Validate(doc, sch, Create, schema.Reject)
	require.Error(t, err)
}

func TestValidateCoerceOrRejectStringToInt(t *testing.T) {
	sch := productSchema()
	doc := map[string]interface{}{"name": "widget", "price": "42", "in_stock": true}
	coerced, err := Validate(doc, sch, Create, schema.CoerceOrReject)
	require.NoError(t, err)
	assert.Equal(t, int64(42), coerced["price"])
}

func TestValidateCoerceBoolFromString(t *testing.T) {
	sch := productSchema()
	doc := map[string]interface{}{"name": "widget", "price": int64(10), "in_stock": "TRUE"}
	coerced, err := Validate(doc, sch, Create, schema.CoerceOrReject)
	require.NoError(t, err)
	assert.Equal(t, true, coerced["in_stock"])
}

func TestValidateDropsOptionalOnMismatch(t *testing.T) {
	sch := productSchema()
	doc := map[string]interface{}{"name": "widget", "price": int64(10), "in_stock": true, "rating": "not-a-number"}
	coerced, err := Validate(doc, sch, Create, schema.Drop)
	require.NoError(t, err)
	_, present := coerced["rating"]
	assert.False(t, present)
}

func TestValidateInt32RangeViolation(t *testing.T) {
	sch := schema.New("s", []schema.Field{{Name: "v", Type: schema.Int32}})
	doc := map[string]interface{}{"v": float64(1 << 40)}
	_, err := Validate(doc, sch, Create, schema.CoerceOrReject)
	require.Error(t, err)
}

func TestValidateGeopoint(t *testing.T) {
	sch := schema.New("s", []schema.Field{{Name: "loc", Type: schema.Geopoint}})
	doc := map[string]interface{}{"loc": []interface{}{"12.5", 45.0}}
	coerced, err := Validate(doc, sch, Create, schema.CoerceOrReject)
	require.NoError(t, err)
	pt := coerced["loc"].([2]float64)
	assert.InDelta(t, 12.5, pt[0], 0.0001)
	assert.InDelta(t, 45.0, pt[1], 0.0001)
}

func TestValidateFloatVectorDimensionMismatch(t *testing.T) {
	sch := schema.New("s", []schema.Field{{Name: "emb", Type: schema.FloatVector, NumDim: 3}})
	doc := map[string]interface{}{"emb": []interface{}{1.0, 2.0}}
	_, err := Validate(doc, sch, Create, schema.CoerceOrReject)
	require.Error(t, err)
}

func TestValidateStringArrayElementCoercion(t *testing.T) {
	sch := productSchema()
	doc := map[string]interface{}{
		"name": "widget", "price": int64(10), "in_stock": true,
		"tags": []interface{}{"a", 5.0},
	}
	coerced, err := Validate(doc, sch, Create, schema.CoerceOrReject)
	require.NoError(t, err)
	tags := coerced["tags"].([]interface{})
	assert.Equal(t, "a", tags[0])
	assert.Equal(t, "5", tags[1])
}

func TestValidateUpdateAllowsMissingFields(t *testing.T) {
	sch := productSchema()
	doc := map[string]interface{}{"name": "widget"}
	_, err := Validate(doc, sch, Update, schema.Reject)
	require.NoError(t, err)
}

func TestParseJSONThenValidate(t *testing.T) {
	sch := productSchema()
	raw := []byte(`{"name":"widget","price":"10","in_stock":true}`)
	doc, err := ParseJSON(raw)
	require.NoError(t, err)
	coerced, err := Validate(doc, sch, Create, schema.CoerceOrReject)
	require.NoError(t, err)
	assert.Equal(t, int64(10), coerced["price"])
}
