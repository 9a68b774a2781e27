package engineutil

import "github.com/pkg/errors"

// ValidationError is a DocumentValidator failure: type mismatch, missing
// required field, or a range violation (spec.md §7).
type ValidationError struct {
	Field    string
	Expected string
	msg      string
}

func (e *ValidationError) Error() string { return e.msg }

// NewValidationError builds a ValidationError reporting field and the
// expected type/shape.
func NewValidationError(field, expected, reason string) *ValidationError {
	return &ValidationError{
		Field:    field,
		Expected: expected,
		msg:      errors.Errorf("field %q: %s (expected %s)", field, reason, expected).Error(),
	}
}

// ReferenceError is a JoinResolver failure: a reference resolved to zero
// or more than one target, or the referenced collection is missing and
// not async (spec.md §7, §4.8).
type ReferenceError struct {
	Collection string
	Filter     string
	msg        string
}

func (e *ReferenceError) Error() string { return e.msg }

// NewReferenceError builds a ReferenceError reporting the computed filter
// string and referenced collection.
func NewReferenceError(collection, filter, reason string) *ReferenceError {
	return &ReferenceError{
		Collection: collection,
		Filter:     filter,
		msg:        errors.Errorf("reference join on %q (filter %q): %s", collection, filter, reason).Error(),
	}
}

// FilterParseError is a malformed filter string, unknown field, or range
// facet continuity violation (spec.md §7).
type FilterParseError struct {
	Token string
	msg   string
}

func (e *FilterParseError) Error() string { return e.msg }

// NewFilterParseError builds a FilterParseError pointing at the offending
// token.
func NewFilterParseError(token, reason string) *FilterParseError {
	return &FilterParseError{
		Token: token,
		msg:   errors.Errorf("filter parse error near %q: %s", token, reason).Error(),
	}
}

// ResourceError is an allocation failure during block split or compact
// grow; the only valid response is to abort the mutation and leave the
// posting set unchanged (spec.md §7).
type ResourceError struct {
	Operation string
	msg       string
}

func (e *ResourceError) Error() string { return e.msg }

// NewResourceError builds a ResourceError naming the failed operation.
func NewResourceError(operation string, cause error) *ResourceError {
	return &ResourceError{
		Operation: operation,
		msg:       errors.Wrapf(cause, "resource error during %s", operation).Error(),
	}
}
