package parser

import (
	"sync"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/gralok/postingcore/pkg/filter/ast"
)

// parseCache memoizes Parse results keyed by a fasthash/fnv1a digest of
// the filter string (SPEC_FULL.md §4.10 — "Hashing parsed filter ASTs for
// a small parse-result memoization cache keyed by filter string"). The
// same filter string is typically re-parsed many times across a query
// batch (pagination, faceting re-runs); this avoids re-lexing it.
type cacheEntry struct {
	filter string
	node   ast.Node
}

var (
	cacheMu      sync.RWMutex
	cacheByHash  = make(map[uint64][]cacheEntry)
	cacheMaxSize = 4096
)

func cacheGet(filter string) (ast.Node, bool) {
	h := fnv1a.HashString64(filter)
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	for _, e := range cacheByHash[h] {
		if e.filter == filter {
			return e.node, true
		}
	}
	return nil, false
}

func cachePut(filter string, node ast.Node) {
	h := fnv1a.HashString64(filter)
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if len(cacheByHash) >= cacheMaxSize {
		// Simplest possible bound: drop everything rather than track LRU
		// order for what is meant to be a cheap re-parse avoidance, not a
		// correctness-critical cache.
		cacheByHash = make(map[uint64][]cacheEntry)
	}
	cacheByHash[h] = append(cacheByHash[h], cacheEntry{filter: filter, node: node})
}
