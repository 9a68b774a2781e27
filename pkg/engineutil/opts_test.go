package engineutil

import (
	"flag"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineOptsApplyDefaults(t *testing.T) {
	var opts EngineOpts
	opts.ApplyDefaults()
	assert.Equal(t, 256, opts.BlockMax)
	assert.Equal(t, 64, opts.CompactThreshold)
	assert.Equal(t, 4096, opts.ParallelizeMinIDs)
	assert.Equal(t, 4, opts.IntersectConcurrency)
	assert.Equal(t, 500*time.Millisecond, opts.FilterBudget)
	assert.Equal(t, 64*datasize.MB, opts.MaxResultBuffer)
}

func TestEngineOptsApplyDefaultsPreservesSetFields(t *testing.T) {
	opts := EngineOpts{BlockMax: 512}
	opts.ApplyDefaults()
	assert.Equal(t, 512, opts.BlockMax)
	assert.Equal(t, 64, opts.CompactThreshold)
}

func TestEngineOptsRegisterFlagsWithPrefix(t *testing.T) {
	var opts EngineOpts
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts.RegisterFlagsWithPrefix("engine.", fs)

	require.NoError(t, fs.Parse([]string{
		"-engine.block-max", "128",
		"-engine.filter-budget", "1s",
		"-engine.max-result-buffer", "10MB",
	}))

	assert.Equal(t, 128, opts.BlockMax)
	assert.Equal(t, time.Second, opts.FilterBudget)
	assert.Equal(t, 10*datasize.MB, opts.MaxResultBuffer)
}
