// Package document implements DocumentValidator: converting an incoming
// JSON object into typed per-field values consumable by the index, per
// each field's dirty-value policy — spec.md §4.7.
package document

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/gralok/postingcore/pkg/engineutil"
	"github.com/gralok/postingcore/pkg/schema"
)

// Op is the write operation kind a document is validated for; it affects
// whether a missing field is tolerated (spec.md §4.7 "honor ... the
// operation kind").
type Op int

const (
	Create Op = iota
	Update
	Upsert
	Emplace
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseJSON decodes raw JSON bytes into the loosely-typed map Validate
// expects, the way the teacher's pkg/logproto/compat.go leans on
// json-iterator rather than encoding/json for hot-path decoding.
func ParseJSON(raw []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, engineutil.NewValidationError("<document>", "object", err.Error())
	}
	return doc, nil
}

// Validate checks doc against sch under op and policy, mutating doc in
// place with any coerced values and returning it (spec.md §4.7, §6
// "validate(doc, schema, op, dirty_values) -> (coerced_doc, Result)").
func Validate(doc map[string]interface{}, sch *schema.Schema, op Op, policy schema.DirtyValues) (map[string]interface{}, error) {
	for _, field := range sch.Fields {
		raw, present := doc[field.Name]
		if !present {
			if field.Optional || op == Update {
				continue
			}
			return doc, engineutil.NewValidationError(field.Name, typeName(field.Type), "missing required field")
		}
		if raw == nil {
			if field.Optional {
				delete(doc, field.Name)
				continue
			}
			return doc, engineutil.NewValidationError(field.Name, typeName(field.Type), "missing required field")
		}

		coerced, err := coerceField(raw, field, policy)
		if err != nil {
			switch policy {
			case schema.Drop, schema.CoerceOrDrop:
				if field.Optional {
					delete(doc, field.Name)
					continue
				}
			}
			return doc, err
		}
		doc[field.Name] = coerced
	}
	return doc, nil
}

func typeName(t schema.Type) string {
	switch t {
	case schema.String:
		return "string"
	case schema.Int32:
		return "int32"
	case schema.Int64:
		return "int64"
	case schema.Float:
		return "float"
	case schema.Bool:
		return "bool"
	case schema.Geopoint:
		return "geopoint"
	case schema.StringArray:
		return "string[]"
	case schema.Int32Array:
		return "int32[]"
	case schema.Int64Array:
		return "int64[]"
	case schema.FloatArray:
		return "float[]"
	case schema.BoolArray:
		return "bool[]"
	case schema.GeopointArray:
		return "geopoint[]"
	case schema.FloatVector:
		return "float_vector"
	case schema.ObjectArray:
		return "object[]"
	default:
		return "unknown"
	}
}
