package engineutil

import (
	"flag"
	"time"

	"github.com/c2h5oh/datasize"
)

// EngineOpts bundles the engine's policy knobs (spec.md §9 "Policy
// knobs"), registered the way the teacher's pkg/logql/engine.go
// EngineOpts.RegisterFlagsWithPrefix wires flags with defaults.
//
// Only FilterBudget is read anywhere in this module (by cmd/postingctl's
// query command). pkg/postings uses its own BlockMax and CompactThreshold
// constants, pkg/intersect is configured through intersect.Options, and
// nothing reads MaxResultBuffer.
type EngineOpts struct {
	// BlockMax is the maximum id count per BlockPostingList block before a
	// split (spec.md §4.2).
	BlockMax int `yaml:"block_max"`
	// CompactThreshold is the id count at which a CompactPostingSet
	// promotes to a BlockPostingList (spec.md §4.3).
	CompactThreshold int `yaml:"compact_threshold"`
	// ParallelizeMinIDs is the minimum driving-list id count before
	// PostingSetIntersector dispatches block-parallel work (spec.md §4.5).
	ParallelizeMinIDs int `yaml:"parallelize_min_ids"`
	// IntersectConcurrency bounds the number of windows dispatched
	// concurrently by the block-parallel intersect.
	IntersectConcurrency int `yaml:"intersect_concurrency"`
	// FilterBudget is the default FilterResultIterator cancellation
	// budget (spec.md §4.6 "Timeout and cancellation").
	FilterBudget time.Duration `yaml:"filter_budget"`
	// MaxResultBuffer is the configured size limit for a single
	// materialized result array (e.g. to_filter_id_array). It is parsed
	// and defaulted only: no materialization checks it, and no
	// ResourceError is raised when a result grows past it.
	MaxResultBuffer datasize.ByteSize `yaml:"max_result_buffer"`
}

// RegisterFlagsWithPrefix registers opts' flags on f, each name prefixed
// by prefix, mirroring pkg/logql/engine.go's flag registration shape.
func (opts *EngineOpts) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.IntVar(&opts.BlockMax, prefix+"block-max", 256, "Maximum id count per posting-list block before a split.")
	f.IntVar(&opts.CompactThreshold, prefix+"compact-threshold", 64, "Id count at which a compact posting set promotes to a block-backed list.")
	f.IntVar(&opts.ParallelizeMinIDs, prefix+"parallelize-min-ids", 4096, "Minimum driving-list id count before intersection parallelizes across blocks.")
	f.IntVar(&opts.IntersectConcurrency, prefix+"intersect-concurrency", 4, "Maximum concurrent windows dispatched by the block-parallel intersect.")
	f.DurationVar(&opts.FilterBudget, prefix+"filter-budget", 500*time.Millisecond, "Default FilterResultIterator cancellation budget.")
	_ = opts.MaxResultBuffer.UnmarshalText([]byte("64MB"))
	f.Func(prefix+"max-result-buffer", "Maximum size of a single materialized filter result buffer (e.g. \"64MB\").", func(s string) error {
		return opts.MaxResultBuffer.UnmarshalText([]byte(s))
	})
}

// ApplyDefaults fills any zero-valued field with its default, the way
// EngineOpts.applyDefault does in the teacher — useful when opts is built
// programmatically (e.g. in tests) rather than via flags.
func (opts *EngineOpts) ApplyDefaults() {
	if opts.BlockMax == 0 {
		opts.BlockMax = 256
	}
	if opts.CompactThreshold == 0 {
		opts.CompactThreshold = 64
	}
	if opts.ParallelizeMinIDs == 0 {
		opts.ParallelizeMinIDs = 4096
	}
	if opts.IntersectConcurrency == 0 {
		opts.IntersectConcurrency = 4
	}
	if opts.FilterBudget == 0 {
		opts.FilterBudget = 500 * time.Millisecond
	}
	if opts.MaxResultBuffer == 0 {
		opts.MaxResultBuffer = 64 * datasize.MB
	}
}
