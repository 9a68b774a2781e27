package document

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/gralok/postingcore/pkg/engineutil"
	"github.com/gralok/postingcore/pkg/schema"
)

// coercionHook implements the canonical coercions of spec.md §4.7 as a
// mapstructure.DecodeHookFuncKind: string<-number/bool, int<-float/
// bool/string(numeric), float<-string(numeric)/bool,
// bool<-int(0|1)/string("true"/"false").
func coercionHook(from, to reflect.Kind, data interface{}) (interface{}, error) {
	if from == to {
		return data, nil
	}
	switch to {
	case reflect.String:
		if n, ok := toFloat64(data); ok {
			if n == math.Trunc(n) {
				return strconv.FormatInt(int64(n), 10), nil
			}
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		}
		if b, ok := data.(bool); ok {
			return strconv.FormatBool(b), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, ok := toFloat64(data); ok {
			return int64(n), nil
		}
		if b, ok := data.(bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
		if s, ok := data.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to integer", s)
			}
			return int64(f), nil
		}
	case reflect.Float32, reflect.Float64:
		if n, ok := toFloat64(data); ok {
			return n, nil
		}
		if b, ok := data.(bool); ok {
			if b {
				return 1.0, nil
			}
			return 0.0, nil
		}
		if s, ok := data.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot coerce %q to float", s)
			}
			return f, nil
		}
	case reflect.Bool:
		if n, ok := toFloat64(data); ok {
			switch n {
			case 0:
				return false, nil
			case 1:
				return true, nil
			}
			return nil, fmt.Errorf("cannot coerce %v to bool", data)
		}
		if s, ok := data.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
			return nil, fmt.Errorf("cannot coerce %q to bool", s)
		}
	}
	return data, nil
}

func toFloat64(data interface{}) (float64, bool) {
	switch v := data.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func decodeTo(raw interface{}, out interface{}) error {
	cfg := &mapstructure.DecoderConfig{DecodeHook: coercionHook, Result: out}
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// coerceField dispatches raw to field's declared type, applying the
// coercion rules permitted by policy (spec.md §4.7).
func coerceField(raw interface{}, field schema.Field, policy schema.DirtyValues) (interface{}, error) {
	if schema.IsArray(field.Type) {
		return coerceArrayField(raw, field, policy)
	}

	matches := scalarAlreadyMatches(raw, field.Type)
	if !matches && (policy == schema.Reject || policy == schema.Drop) {
		return nil, engineutil.NewValidationError(field.Name, typeName(field.Type), "type mismatch")
	}

	switch field.Type {
	case schema.String:
		if matches {
			return raw, nil
		}
		var s string
		if err := decodeTo(raw, &s); err != nil {
			return nil, engineutil.NewValidationError(field.Name, "string", err.Error())
		}
		return s, nil
	case schema.Int32, schema.Int64:
		var v int64
		if matches {
			v = raw.(int64)
		} else if err := decodeTo(raw, &v); err != nil {
			return nil, engineutil.NewValidationError(field.Name, typeName(field.Type), err.Error())
		}
		if field.Type == schema.Int32 && (v > math.MaxInt32 || v < math.MinInt32) {
			return nil, engineutil.NewValidationError(field.Name, "int32", "value out of int32 range")
		}
		return v, nil
	case schema.Float:
		if matches {
			return raw.(float64), nil
		}
		var f float64
		if err := decodeTo(raw, &f); err != nil {
			return nil, engineutil.NewValidationError(field.Name, "float", err.Error())
		}
		return f, nil
	case schema.Bool:
		if matches {
			return raw.(bool), nil
		}
		var b bool
		if err := decodeTo(raw, &b); err != nil {
			return nil, engineutil.NewValidationError(field.Name, "bool", err.Error())
		}
		return b, nil
	case schema.Geopoint:
		return coerceGeopoint(raw, field)
	default:
		return raw, nil
	}
}

// scalarAlreadyMatches reports whether raw is already the canonical Go
// representation for t, so no coercion attempt (and its policy gating) is
// needed.
func scalarAlreadyMatches(raw interface{}, t schema.Type) bool {
	switch t {
	case schema.String:
		_, ok := raw.(string)
		return ok
	case schema.Int32, schema.Int64:
		_, ok := raw.(int64)
		return ok
	case schema.Float:
		_, ok := raw.(float64)
		return ok
	case schema.Bool:
		_, ok := raw.(bool)
		return ok
	default:
		return false
	}
}

// coerceGeopoint validates/coerces a `[lat, lng]` pair, promoting
// string-numeric elements to float (spec.md §4.7).
func coerceGeopoint(raw interface{}, field schema.Field) ([2]float64, error) {
	var out [2]float64
	arr, ok := raw.([]interface{})
	if !ok || len(arr) != 2 {
		return out, engineutil.NewValidationError(field.Name, "geopoint", "expected a [lat, lng] pair")
	}
	for i, el := range arr {
		f, ok := toFloat64(el)
		if !ok {
			if s, ok2 := el.(string); ok2 {
				var err error
				f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					return out, engineutil.NewValidationError(field.Name, "geopoint", "element is not numeric")
				}
			} else {
				return out, engineutil.NewValidationError(field.Name, "geopoint", "element is not numeric")
			}
		}
		out[i] = f
	}
	return out, nil
}

// coerceArrayField validates array shape and coerces each element
// (spec.md §4.7 "Array fields require array shape; each element
// undergoes the same per-element coercion").
func coerceArrayField(raw interface{}, field schema.Field, policy schema.DirtyValues) (interface{}, error) {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil, engineutil.NewValidationError(field.Name, typeName(field.Type), "expected an array")
	}

	switch field.Type {
	case schema.FloatVector:
		if field.NumDim > 0 && len(arr) != field.NumDim {
			return nil, engineutil.NewValidationError(field.Name, "float_vector", fmt.Sprintf("expected %d dimensions, got %d", field.NumDim, len(arr)))
		}
		out := make([]float64, len(arr))
		for i, el := range arr {
			f, ok := toFloat64(el)
			if !ok {
				return nil, engineutil.NewValidationError(field.Name, "float_vector", "element is not numeric")
			}
			out[i] = f
		}
		return out, nil
	case schema.GeopointArray:
		// Flat [lat1, lng1, lat2, lng2, ...] of even length (spec.md §4.7).
		if len(arr)%2 != 0 {
			return nil, engineutil.NewValidationError(field.Name, "geopoint[]", "expected an even-length flat lat/lng array")
		}
		out := make([]float64, len(arr))
		for i, el := range arr {
			f, ok := toFloat64(el)
			if !ok {
				if s, ok2 := el.(string); ok2 {
					var err error
					f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil {
						return nil, engineutil.NewValidationError(field.Name, "geopoint[]", "element is not numeric")
					}
				} else {
					return nil, engineutil.NewValidationError(field.Name, "geopoint[]", "element is not numeric")
				}
			}
			out[i] = f
		}
		return out, nil
	case schema.ObjectArray:
		for _, el := range arr {
			if _, ok := el.(map[string]interface{}); !ok {
				return nil, engineutil.NewValidationError(field.Name, "object[]", "element is not an object")
			}
		}
		return arr, nil
	}

	elemType := elementType(field.Type)
	elemField := schema.Field{Name: field.Name, Type: elemType}
	out := make([]interface{}, len(arr))
	for i, el := range arr {
		coerced, err := coerceField(el, elemField, policy)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}

func elementType(arrayType schema.Type) schema.Type {
	switch arrayType {
	case schema.StringArray:
		return schema.String
	case schema.Int32Array:
		return schema.Int32
	case schema.Int64Array:
		return schema.Int64
	case schema.FloatArray:
		return schema.Float
	case schema.BoolArray:
		return schema.Bool
	default:
		return schema.String
	}
}
