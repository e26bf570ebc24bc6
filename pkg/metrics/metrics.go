// Package metrics exports engine and search progress as Prometheus
// collectors. A Metrics value is both an engine.Observer and a
// search.Observer.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/search"
)

const namespace = "greensched"

type Metrics struct {
	iterations     *prometheus.CounterVec
	bestFitness    *prometheus.GaugeVec
	bestViolations *prometheus.GaugeVec
	trials         *prometheus.CounterVec
	trialDuration  *prometheus.HistogramVec
	violationRatio *prometheus.GaugeVec
	energy         *prometheus.GaugeVec
	makespan       *prometheus.GaugeVec
	rounds         prometheus.Counter
	downgrades     *prometheus.CounterVec
	hostState      *prometheus.GaugeVec
}

var (
	_ engine.Observer = (*Metrics)(nil)
	_ search.Observer = (*Metrics)(nil)
)

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_iterations_total",
			Help:      "Completed engine iterations (ACO iterations, GA generations).",
		}, []string{"engine"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_best_fitness",
			Help:      "Fitness of the best candidate of the latest iteration.",
		}, []string{"engine"}),
		bestViolations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_best_violations",
			Help:      "SLA violations of the best candidate of the latest iteration.",
		}, []string{"engine"}),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Completed engine runs.",
		}, []string{"engine"}),
		trialDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trial_duration_seconds",
			Help:      "Wall time of one engine run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"engine"}),
		violationRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trial_violation_ratio",
			Help:      "Violated over finished jobs of the latest run.",
		}, []string{"engine"}),
		energy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trial_energy_joules",
			Help:      "Energy of the latest run.",
		}, []string{"engine"}),
		makespan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trial_makespan_seconds",
			Help:      "Makespan of the latest run.",
		}, []string{"engine"}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_rounds_total",
			Help:      "Completed energy-aware search rounds.",
		}),
		downgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_downgrades_total",
			Help:      "Power-state downgrades per host.",
		}, []string{"host"}),
		hostState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_power_state",
			Help:      "Current power-state index per host.",
		}, []string{"host"}),
	}

	for _, c := range []prometheus.Collector{
		m.iterations, m.bestFitness, m.bestViolations, m.trials, m.trialDuration,
		m.violationRatio, m.energy, m.makespan, m.rounds, m.downgrades, m.hostState,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Iteration(name string, _ int, best engine.Candidate) {
	m.iterations.WithLabelValues(name).Inc()
	m.bestFitness.WithLabelValues(name).Set(best.Fitness)
	m.bestViolations.WithLabelValues(name).Set(float64(best.Violations))
}

func (m *Metrics) Trial(name string, tr *model.TrialResult, elapsed time.Duration) {
	m.trials.WithLabelValues(name).Inc()
	m.trialDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	m.violationRatio.WithLabelValues(name).Set(tr.ViolationRatio)
	m.energy.WithLabelValues(name).Set(float64(tr.Energy))
	m.makespan.WithLabelValues(name).Set(tr.Makespan)
}

func (m *Metrics) Round(_ int, tr *model.TrialResult) {
	m.rounds.Inc()
	for i, h := range tr.Hosts {
		if i < len(tr.HostStates) {
			m.hostState.WithLabelValues(strconv.Itoa(h.ID)).Set(float64(tr.HostStates[i]))
		}
	}
}

func (m *Metrics) Downgraded(d search.Downgrade) {
	host := strconv.Itoa(d.HostID)
	m.downgrades.WithLabelValues(host).Inc()
	m.hostState.WithLabelValues(host).Set(float64(d.To))
}
