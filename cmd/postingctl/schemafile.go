package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gralok/postingcore/pkg/schema"
)

// schemaFile is the on-disk shape of a --collection schema document: a
// named set of fields, decoded into schema.Field via its Type string.
type schemaFile struct {
	Name   string       `json:"name"`
	Fields []fieldEntry `json:"fields"`
}

type fieldEntry struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Optional  bool   `json:"optional"`
	Facet     bool   `json:"facet"`
	Index     bool   `json:"index"`
	NumDim    int    `json:"num_dim"`
	Reference string `json:"reference"`
	Async     bool   `json:"async"`
}

var fieldTypeNames = map[string]schema.Type{
	"string":         schema.String,
	"int32":          schema.Int32,
	"int64":          schema.Int64,
	"float":          schema.Float,
	"bool":           schema.Bool,
	"geopoint":       schema.Geopoint,
	"string[]":       schema.StringArray,
	"int32[]":        schema.Int32Array,
	"int64[]":        schema.Int64Array,
	"float[]":        schema.FloatArray,
	"bool[]":         schema.BoolArray,
	"geopoint[]":     schema.GeopointArray,
	"float_vector":   schema.FloatVector,
	"object[]":       schema.ObjectArray,
}

func loadSchemaFile(path string) (*schema.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %q: %w", path, err)
	}
	var sf schemaFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parsing schema file %q: %w", path, err)
	}
	if sf.Name == "" {
		return nil, fmt.Errorf("schema file %q: missing collection \"name\"", path)
	}
	fields := make([]schema.Field, 0, len(sf.Fields))
	for _, fe := range sf.Fields {
		t, ok := fieldTypeNames[fe.Type]
		if !ok {
			return nil, fmt.Errorf("schema file %q: field %q has unknown type %q", path, fe.Name, fe.Type)
		}
		fields = append(fields, schema.Field{
			Name:      fe.Name,
			Type:      t,
			Optional:  fe.Optional,
			Facet:     fe.Facet,
			Index:     fe.Index,
			NumDim:    fe.NumDim,
			Reference: fe.Reference,
			Async:     fe.Async,
		})
	}
	return schema.New(sf.Name, fields), nil
}

var policyNames = map[string]schema.DirtyValues{
	"reject":           schema.Reject,
	"drop":             schema.Drop,
	"coerce_or_reject": schema.CoerceOrReject,
	"coerce_or_drop":   schema.CoerceOrDrop,
}

func parsePolicy(s string) (schema.DirtyValues, error) {
	p, ok := policyNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown dirty-values policy %q (want reject, drop, coerce_or_reject, or coerce_or_drop)", s)
	}
	return p, nil
}
