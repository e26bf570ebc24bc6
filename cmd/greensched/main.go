package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type opts struct {
	configPath string
	strategy   string
	seed       uint64
	workers    int
	threshold  float64
	policy     string
	withSearch bool
	logLevel   string

	// outputs
	csvPath  string
	jsonPath string
	htmlPath string
	quiet    bool

	// observability
	metricsAddr string
	metricsHold time.Duration
	trace       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o opts

	root := &cobra.Command{
		Use:   "greensched",
		Short: "Energy-aware metaheuristic job placement",
		Long: `greensched places a batch of deadline-bound jobs on a pool of
power-scalable hosts with an ant colony or a genetic algorithm, then lowers
host power states one at a time until deadline violations become
unacceptable.

Examples:
  greensched run --strategy ga --seed 7
  greensched search --config experiment.yaml --threshold 0.05 --html report.html
  greensched sweep --workers 4 --csv sweep.csv`,
		SilenceUsage: true,
	}

	bindRootFlags(root.PersistentFlags(), &o)

	run := &cobra.Command{
		Use:   "run",
		Short: "Place the workload once with one strategy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, o, runOnce)
		},
	}

	srch := &cobra.Command{
		Use:   "search",
		Short: "Lower host power states until SLA violations become unacceptable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, o, runSearch)
		},
	}
	bindSearchFlags(srch.Flags(), &o)

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Compare strategies on the same workload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, o, runSweep)
		},
	}
	bindSearchFlags(sweep.Flags(), &o)
	sweep.Flags().BoolVar(&o.withSearch, "search", false, "run the energy-aware search for every strategy")

	root.AddCommand(run, srch, sweep)
	return root
}

func bindRootFlags(fs *pflag.FlagSet, o *opts) {
	fs.StringVarP(&o.configPath, "config", "c", "", "YAML config file (defaults apply to missing keys)")
	fs.StringVarP(&o.strategy, "strategy", "s", "", "placement strategy (aco, ga, fcfs, round-robin)")
	fs.Uint64Var(&o.seed, "seed", 0, "root random seed (0 = random)")
	fs.IntVarP(&o.workers, "workers", "w", 0, "concurrent ants or individuals (0 = GOMAXPROCS)")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	fs.StringVar(&o.csvPath, "csv", "", "write result rows to CSV file")
	fs.StringVar(&o.jsonPath, "json", "", "write the report to JSON file")
	fs.StringVar(&o.htmlPath, "html", "", "write the report to HTML file")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "do not print the result table")

	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :2112)")
	fs.DurationVar(&o.metricsHold, "metrics-hold", 0, "keep serving metrics this long after the run")
	fs.BoolVar(&o.trace, "trace", false, "print OpenTelemetry spans to stderr")
}

func bindSearchFlags(fs *pflag.FlagSet, o *opts) {
	fs.Float64Var(&o.threshold, "threshold", 0, "acceptable SLA violation ratio [0..1]")
	fs.StringVar(&o.policy, "policy", "", "downgrade policy (lowest-utilization, highest-power)")
}
