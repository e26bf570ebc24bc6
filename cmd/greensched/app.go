package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ja7ad/greensched/pkg/config"
	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/metrics"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/search"
	"github.com/ja7ad/greensched/pkg/sim"
	"github.com/ja7ad/greensched/pkg/strategy"
	"github.com/ja7ad/greensched/pkg/sweep"
	"github.com/ja7ad/greensched/pkg/workload"
)

// app is everything one command needs, built from config and flags.
type app struct {
	o        opts
	cfg      *config.Config
	log      *slog.Logger
	metrics  *metrics.Metrics
	registry *strategy.Registry

	jobs      []model.Job
	resources []model.Resource
	hosts     []model.Host
}

func withApp(cmd *cobra.Command, o opts, fn func(context.Context, *app) (*report, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}

	log, err := newLogger(o.logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	a := &app{o: o, cfg: cfg, log: log, registry: strategy.NewRegistry()}

	if o.trace {
		shutdown, err := setupTracing(ctx, os.Stderr)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("tracing shutdown", "err", err)
			}
		}()
	}

	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if a.metrics, err = metrics.New(reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		srv := serveMetrics(o.metricsAddr, reg)
		defer func() {
			hold(ctx, o.metricsHold)
			_ = srv.Shutdown(context.Background())
		}()
	}

	if err := a.buildWorkload(); err != nil {
		return err
	}

	fmt.Printf(_console, cfg.Strategy, describe(a.jobs), len(a.hosts), cfg.Pool.Ladder, time.Now().Format("2006-01-02 15:04:05"))

	rep, err := fn(ctx, a)
	if err != nil {
		return err
	}
	rep.Workload = workload.Describe(a.jobs)
	return a.write(rep)
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, o opts) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Strategy = o.strategy
	}
	if flags.Changed("seed") {
		cfg.Engine.Seed = o.seed
	}
	if flags.Changed("workers") {
		cfg.Engine.Workers = o.workers
		cfg.Sweep.Workers = o.workers
	}
	if flags.Changed("threshold") {
		cfg.Search.AcceptableViolationRatio = o.threshold
	}
	if flags.Changed("policy") {
		cfg.Search.Policy = o.policy
	}
	if flags.Changed("search") {
		cfg.Sweep.Search = o.withSearch
	}
	if cfg.Workload.Seed == 0 {
		cfg.Workload.Seed = cfg.Engine.Seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server", "err", err)
		}
	}()
	return srv
}

func hold(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	slog.Info("holding metrics endpoint", "for", d)
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (a *app) buildWorkload() error {
	var err error
	if a.jobs, err = workload.Jobs(a.cfg.Workload); err != nil {
		return fmt.Errorf("workload: %w", err)
	}
	if a.hosts, a.resources, err = workload.Pool(a.cfg.Pool); err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	return nil
}

func (a *app) settings() strategy.Settings {
	opts := engine.Options{
		Simulator:        sim.New(&a.cfg.Sim),
		Workers:          a.cfg.Engine.Workers,
		Seed:             a.cfg.Engine.Seed,
		ThroughputWeight: a.cfg.Engine.ThroughputWeight,
		Energy:           &a.cfg.Energy,
		Logger:           a.log,
	}
	if a.metrics != nil {
		opts.Observer = a.metrics
	}
	acoCfg, gaCfg := a.cfg.ACO, a.cfg.GA
	return strategy.Settings{Options: opts, ACO: &acoCfg, GA: &gaCfg}
}

func (a *app) searchConfig() search.Config {
	sc := a.cfg.Search
	sc.Logger = a.log
	if a.metrics != nil {
		sc.Observer = a.metrics
	}
	return sc
}

func runOnce(ctx context.Context, a *app) (*report, error) {
	eng, err := a.registry.New(a.cfg.Strategy, a.settings())
	if err != nil {
		return nil, err
	}
	start := time.Now()
	tr, err := eng.Run(ctx, a.jobs, a.resources, a.hosts)
	if err != nil {
		return nil, err
	}
	return &report{
		Command:  "run",
		Strategy: a.cfg.Strategy,
		Rows:     []row{newRow(eng.Name(), -1, tr, time.Since(start))},
	}, nil
}

func runSearch(ctx context.Context, a *app) (*report, error) {
	eng, err := a.registry.New(a.cfg.Strategy, a.settings())
	if err != nil {
		return nil, err
	}
	res, err := search.Search(ctx, eng, a.jobs, a.resources, a.hosts, a.searchConfig())
	if err != nil {
		return nil, err
	}

	rep := &report{
		Command:    "search",
		Strategy:   a.cfg.Strategy,
		Threshold:  a.cfg.Search.AcceptableViolationRatio,
		Stop:       res.Stop.String(),
		Downgrades: res.Downgrades,
	}
	op := res.OperatingPoint()
	for i, tr := range res.History {
		r := newRow(eng.Name(), i, tr, 0)
		r.Operating = tr == op
		rep.Rows = append(rep.Rows, r)
	}
	return rep, nil
}

func runSweep(ctx context.Context, a *app) (*report, error) {
	s := a.settings()
	var sc *search.Config
	if a.cfg.Sweep.Search {
		c := a.searchConfig()
		sc = &c
	}

	trials := make([]sweep.Trial, 0, len(a.cfg.Sweep.Strategies))
	for _, name := range a.cfg.Sweep.Strategies {
		eng, err := a.registry.New(name, s)
		if err != nil {
			return nil, err
		}
		trials = append(trials, sweep.Trial{
			Name:      name,
			Engine:    eng,
			Jobs:      a.jobs,
			Resources: a.resources,
			Hosts:     a.hosts,
			Search:    sc,
		})
	}

	reports, err := sweep.Run(ctx, trials, a.cfg.Sweep.Workers)
	if err != nil {
		return nil, err
	}

	rep := &report{Command: "sweep", Strategy: strings.Join(a.cfg.Sweep.Strategies, ",")}
	if sc != nil {
		rep.Threshold = sc.AcceptableViolationRatio
	}
	for _, r := range reports {
		if r.Result == nil {
			continue
		}
		rep.Rows = append(rep.Rows, sweepRow(r))
	}
	return rep, nil
}

// sweepRow marks the row as an operating point only when the search found
// one; a fallback to the first round stays unmarked.
func sweepRow(r sweep.Report) row {
	rw := newRow(r.Name, -1, r.Result, r.Elapsed)
	if r.Search == nil {
		return rw
	}
	op := r.Search.OperatingPoint()
	for i, tr := range r.Search.History {
		if tr == r.Result {
			rw.Round = i
		}
	}
	rw.Operating = op != nil && op == r.Result
	return rw
}

func describe(jobs []model.Job) string {
	s := workload.Describe(jobs)
	return fmt.Sprintf("%d (mean %.0f MI, mean slack %.1fs)", s.Count, s.MeanLength, s.MeanSlack)
}

const _console = `greensched - energy-aware job placement

       Strategy: %s
       Jobs: %s
       Hosts: %d (%s)

Placement report as of %s:

`
