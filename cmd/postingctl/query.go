package main

import (
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gralok/postingcore/pkg/engineutil"
	exec "github.com/gralok/postingcore/pkg/filter/exec"
	"github.com/gralok/postingcore/pkg/filter/parser"
	"github.com/gralok/postingcore/pkg/seqid"
)

type queryArgs struct {
	against         string
	filter          string
	limit           int
	overrideTimeout bool
}

// addQueryCommand registers `postingctl query --against=<collection>
// '<filter>'`, the way the teacher's addMetastoreCommand registers a
// kingpin subcommand closing over a package-level Config.
func addQueryCommand(app *kingpin.Application, cfg *config) {
	qa := &queryArgs{}
	cmd := app.Command("query", "Evaluate a filter string against a loaded collection and print matching seq_ids.")
	cmd.Flag("against", "Name of the loaded collection to evaluate the filter against.").Required().StringVar(&qa.against)
	cmd.Flag("limit", "Stop after this many results (-1 for unlimited).").Default("-1").IntVar(&qa.limit)
	cmd.Flag("override-timeout", "Return partial results even if the filter budget was exceeded.").BoolVar(&qa.overrideTimeout)
	cmd.Arg("filter", "Filter string, e.g. `status:active && price:>20`.").Required().StringVar(&qa.filter)

	cmd.Action(func(_ *kingpin.ParseContext) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		reg, err := loadAll(cfg, rt.logger)
		if err != nil {
			return err
		}
		return runQuery(reg, cfg, qa, rt)
	})
}

func runQuery(reg *registry, cfg *config, qa *queryArgs, rt *runtime) error {
	sch, col, ok := reg.resolve(qa.against)
	if !ok {
		return fmt.Errorf("unknown collection %q; pass it via --collection", qa.against)
	}

	node, err := parser.Parse(qa.filter)
	if err != nil {
		return err
	}

	joinCache, err := lru.New[string, []seqid.ID](1024)
	if err != nil {
		return err
	}

	opts := exec.Options{
		Clock:        engineutil.SystemClock,
		BudgetMicros: budgetMicros(cfg.engine.FilterBudget),
		Universe:     reg.universe(qa.against),
		Resolve:      reg.resolve,
		JoinCache:    joinCache,
	}

	start := time.Now()
	it, err := exec.New(node, sch, col, opts)
	if err != nil {
		return err
	}

	approx := it.ApproxFilterIDsLength()
	ids := it.GetNIDs(qa.limit, qa.overrideTimeout)
	elapsed := time.Since(start)

	if it.Validity() == exec.TimedOutState {
		rt.metrics.FilterTimeouts.Inc()
	}
	rt.metrics.FilterLatency.Observe(elapsed.Seconds())

	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Printf("# %d results, approx_filter_ids_length=%d, elapsed=%s, timed_out=%t\n",
		len(ids), approx, elapsed, it.Validity() == exec.TimedOutState)
	return nil
}
