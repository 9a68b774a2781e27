package main

import (
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/gralok/postingcore/pkg/engineutil"
)

// config bundles the process-wide flags every subcommand reads: the
// collections to load, the dirty-value policy to validate them under, and
// the engine's policy knobs (spec.md §9). Of the knobs, only
// --filter-budget changes behavior; the others are parsed into cfg.engine
// and not read by any command.
type config struct {
	collections     []string
	policy          string
	logLevel        string
	maxResultBuffer string
	engine          engineutil.EngineOpts
}

// registerGlobalFlags wires cfg's shared flags onto app, the way the
// teacher's tools/querycomparator commands share a package-level Config.
func registerGlobalFlags(app *kingpin.Application, cfg *config) {
	app.Flag("collection", "Collection to load, as name=schema.json,docs.jsonl. Repeatable; order matters for reference resolution.").
		StringsVar(&cfg.collections)
	app.Flag("dirty-values", "Dirty-value policy applied while loading documents: reject, drop, coerce_or_reject, or coerce_or_drop.").
		Default("coerce_or_reject").StringVar(&cfg.policy)
	app.Flag("log-level", "Log level: debug, info, warn, or error.").
		Default("info").StringVar(&cfg.logLevel)

	app.Flag("block-max", "Maximum id count per posting-list block before a split. Parsed only: posting lists always use 256.").
		Default("256").IntVar(&cfg.engine.BlockMax)
	app.Flag("compact-threshold", "Id count at which a compact posting set promotes to a block-backed list. Parsed only: handles always use 64.").
		Default("64").IntVar(&cfg.engine.CompactThreshold)
	app.Flag("parallelize-min-ids", "Minimum driving-list id count before intersection parallelizes across blocks. Parsed only: no command runs the block-parallel intersect.").
		Default("4096").IntVar(&cfg.engine.ParallelizeMinIDs)
	app.Flag("intersect-concurrency", "Maximum concurrent windows dispatched by the block-parallel intersect. Parsed only: no command runs the block-parallel intersect.").
		Default("4").IntVar(&cfg.engine.IntersectConcurrency)
	app.Flag("filter-budget", "Default FilterResultIterator cancellation budget.").
		Default("500ms").DurationVar(&cfg.engine.FilterBudget)
	app.Flag("max-result-buffer", "Maximum size of a single materialized filter result buffer (e.g. \"64MB\"). Parsed only: results are not bounded by it.").
		Default("64MB").StringVar(&cfg.maxResultBuffer)
}

// resolveMaxResultBuffer parses cfg.maxResultBuffer into cfg.engine's
// datasize.ByteSize field. Done as a second pass, separate from kingpin
// flag registration, since datasize.ByteSize's only documented parser is
// UnmarshalText, not a flag.Value-shaped Set(string) error.
func (cfg *config) resolveMaxResultBuffer() error {
	return cfg.engine.MaxResultBuffer.UnmarshalText([]byte(cfg.maxResultBuffer))
}

func budgetMicros(d time.Duration) int64 {
	return d.Microseconds()
}
