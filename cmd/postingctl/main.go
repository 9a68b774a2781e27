// Command postingctl is a standalone driver for the posting-set engine:
// it loads one or more collections from a schema file and a newline
// delimited JSON document file, then either validates those documents or
// evaluates a filter string against the resulting in-memory index
// (spec.md §6 surface, exercised end to end).
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gralok/postingcore/pkg/metrics"
)

func main() {
	app := kingpin.New("postingctl", "Load and query an in-memory posting-set index.")
	cfg := &config{}
	registerGlobalFlags(app, cfg)

	addQueryCommand(app, cfg)
	addValidateCommand(app, cfg)

	if _, err := app.Parse(os.Args[1:]); err != nil {
		kingpin.Fatalf("%s", err)
	}
}

// runtime bundles the per-invocation dependencies an Action callback
// needs, built once flags are parsed (spec.md §5/§9 ambient stack).
type runtime struct {
	logger  log.Logger
	metrics *metrics.Metrics
}

// newRuntime resolves cfg's derived fields and builds the logger/metrics
// an Action needs, the way pkg/logql/engine.go's constructors take a
// parsed EngineOpts plus a logger and registerer.
func newRuntime(cfg *config) (*runtime, error) {
	if err := cfg.resolveMaxResultBuffer(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg.logLevel)
	return &runtime{
		logger:  logger,
		metrics: metrics.New(prometheus.NewRegistry()),
	}, nil
}

// newLogger builds a go-kit logfmt logger filtered to levelName, the way
// pkg/logql/engine.go's call sites build their logger from a configured
// level string.
func newLogger(levelName string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	var lv level.Option
	switch levelName {
	case "debug":
		lv = level.AllowDebug()
	case "warn":
		lv = level.AllowWarn()
	case "error":
		lv = level.AllowError()
	default:
		lv = level.AllowInfo()
	}
	return level.NewFilter(logger, lv)
}
