package engineutil

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// NewTraceID returns a fresh per-query trace id (SPEC_FULL.md §4.10 —
// "Per-query trace id threaded through log lines, for correlating a
// FilterResultIterator's timeout/cancellation across log lines").
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID returns logger with a "trace_id" key bound, the way
// pkg/logql/engine.go threads a log.Logger through its constructors and
// decorates it with request-scoped context.
func WithTraceID(logger log.Logger, traceID string) log.Logger {
	return log.With(logger, "trace_id", traceID)
}

// LogTimeout emits a debug line when a FilterResultIterator's budget is
// exceeded, mirroring the level.Debug(logger).Log(...) call sites in
// pkg/logql/engine.go.
func LogTimeout(logger log.Logger, traceID string) {
	level.Debug(logger).Log("msg", "filter iterator budget exceeded", "trace_id", traceID)
}

// LogPromotion emits a debug line when a posting handle promotes from
// compact to block-backed.
func LogPromotion(logger log.Logger, field string, numIDs int) {
	level.Debug(logger).Log("msg", "posting handle promoted to block list", "field", field, "num_ids", numIDs)
}

// LogDemotion emits a debug line when a posting handle demotes from
// block-backed to compact.
func LogDemotion(logger log.Logger, field string, numIDs int) {
	level.Debug(logger).Log("msg", "posting handle demoted to compact", "field", field, "num_ids", numIDs)
}
