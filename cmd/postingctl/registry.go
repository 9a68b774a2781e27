package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/gralok/postingcore/pkg/document"
	"github.com/gralok/postingcore/pkg/join"
	"github.com/gralok/postingcore/pkg/schema"
	"github.com/gralok/postingcore/pkg/seqid"
)

// collectionEntry is one loaded collection: its schema, its in-memory
// index, and the next seq_id to assign on load (SPEC_FULL.md §4.10 —
// postingctl is the only place in this module that owns id assignment;
// every other package takes seq_ids as given).
type collectionEntry struct {
	schema *schema.Schema
	col    *schema.Collection
	nextID seqid.ID
}

// registry is the process-lifetime set of loaded collections, keyed by
// name, and doubles as the CollectionResolver both pkg/join and
// pkg/filter/exec need for REFERENCE_JOIN.
type registry struct {
	entries  map[string]*collectionEntry
	resolver *join.Resolver
}

func newRegistry() *registry {
	r := &registry{entries: make(map[string]*collectionEntry)}
	r.resolver = join.New(r.resolve)
	return r
}

func (r *registry) resolve(name string) (*schema.Schema, *schema.Collection, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, nil, false
	}
	return e.schema, e.col, true
}

func (r *registry) universe(name string) seqid.ID {
	e, ok := r.entries[name]
	if !ok {
		return 0
	}
	return e.nextID
}

// collectionSpec is one parsed "--collection name=schema.json,docs.jsonl"
// flag value.
type collectionSpec struct {
	name       string
	schemaPath string
	docsPath   string
}

func parseCollectionSpec(raw string) (collectionSpec, error) {
	nameRest := strings.SplitN(raw, "=", 2)
	if len(nameRest) != 2 {
		return collectionSpec{}, fmt.Errorf("malformed --collection %q: want name=schema.json,docs.jsonl", raw)
	}
	paths := strings.SplitN(nameRest[1], ",", 2)
	if len(paths) != 2 {
		return collectionSpec{}, fmt.Errorf("malformed --collection %q: want name=schema.json,docs.jsonl", raw)
	}
	return collectionSpec{name: nameRest[0], schemaPath: paths[0], docsPath: paths[1]}, nil
}

// load reads spec's schema and newline-delimited JSON documents, validates
// and indexes each one, and registers the result under spec.name. Reference
// fields are resolved against whatever collections are already loaded, so
// --collection flags that are the target of a reference must precede the
// ones that reference them.
func (r *registry) load(spec collectionSpec, policy schema.DirtyValues, logger log.Logger) error {
	sch, err := loadSchemaFile(spec.schemaPath)
	if err != nil {
		return err
	}
	entry := &collectionEntry{schema: sch, col: schema.NewCollection(sch)}
	r.entries[spec.name] = entry

	f, err := os.Open(spec.docsPath)
	if err != nil {
		return fmt.Errorf("opening docs file %q: %w", spec.docsPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		doc, err := document.ParseJSON([]byte(line))
		if err != nil {
			return fmt.Errorf("%s:%d: %w", spec.docsPath, lineNo, err)
		}
		doc, err = document.Validate(doc, sch, document.Create, policy)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", spec.docsPath, lineNo, err)
		}
		id := entry.nextID
		entry.nextID++
		if err := r.indexDoc(spec.name, entry, doc, id); err != nil {
			return fmt.Errorf("%s:%d: %w", spec.docsPath, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading docs file %q: %w", spec.docsPath, err)
	}
	level.Info(logger).Log("msg", "collection loaded", "collection", spec.name, "docs", entry.nextID)
	return nil
}

// indexDoc upserts doc's fields into entry's token/numeric directories and
// resolves any reference fields through r.resolver.
func (r *registry) indexDoc(name string, entry *collectionEntry, doc map[string]interface{}, id seqid.ID) error {
	for _, field := range entry.schema.Fields {
		raw, ok := doc[field.Name]
		if !ok {
			continue
		}
		if field.Reference != "" {
			if err := r.resolver.Resolve(field, raw, id, entry.col); err != nil {
				return err
			}
			continue
		}
		if !field.Index {
			continue
		}
		if err := indexField(entry.col, r.resolver, name, field, raw, id); err != nil {
			return err
		}
	}
	return nil
}

func indexField(col *schema.Collection, resolver *join.Resolver, collection string, field schema.Field, raw interface{}, id seqid.ID) error {
	if schema.IsArray(field.Type) {
		values, ok := raw.([]interface{})
		if !ok {
			return fmt.Errorf("field %q: expected array value to index, got %T", field.Name, raw)
		}
		for _, v := range values {
			if err := indexScalar(col, resolver, collection, field, v, id); err != nil {
				return err
			}
		}
		return nil
	}
	return indexScalar(col, resolver, collection, field, raw, id)
}

func indexScalar(col *schema.Collection, resolver *join.Resolver, collection string, field schema.Field, raw interface{}, id seqid.ID) error {
	if schema.IsNumeric(field.Type) {
		v, ok := toInt64(raw)
		if !ok {
			return fmt.Errorf("field %q: cannot index non-numeric value %v", field.Name, raw)
		}
		col.NumericIndexFor(field.Name).Insert(v, id)
		resolver.IndexKey(collection, field.Name, v)
		return nil
	}
	token := fmt.Sprint(raw)
	col.UpsertToken(field.Name, token, id)
	resolver.IndexKey(collection, field.Name, token)
	return nil
}

// loadAll parses and loads every --collection spec in cfg, in order, into
// a fresh registry.
func loadAll(cfg *config, logger log.Logger) (*registry, error) {
	policy, err := parsePolicy(cfg.policy)
	if err != nil {
		return nil, err
	}
	if len(cfg.collections) == 0 {
		return nil, fmt.Errorf("at least one --collection is required")
	}
	reg := newRegistry()
	for _, raw := range cfg.collections {
		spec, err := parseCollectionSpec(raw)
		if err != nil {
			return nil, err
		}
		if err := reg.load(spec, policy, logger); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func toInt64(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
