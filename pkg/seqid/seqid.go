// Package seqid defines the document identifier type shared across the
// posting-set engine and the compact, block-opaque sorted container used to
// store them.
package seqid

// ID is a 32-bit, monotonically assigned document identifier.
type ID = uint32

// NotResolved is the sentinel value used by reference-helper fields to mean
// "not yet resolved" (for async references whose target collection hasn't
// loaded yet). It is never a valid ID.
const NotResolved ID = 1<<32 - 1

// Max is an alias of NotResolved kept for readability at call sites that
// reason about the sentinel as a bound rather than as "unresolved".
const Max ID = NotResolved
