// Package search trades capacity for energy one power state at a time.
//
// Each round runs the engine on the current pool and checks the SLA
// violation ratio of the trial. Below the acceptable ratio, one host chosen by
// the downgrade policy moves one state lower, its MIPS and the MIPS of its
// resources scale by newFraction/oldFraction, and the next round starts. The
// loop stops when the ratio reaches the threshold or no host can go lower.
//
//	RunEngine -> Evaluate -> ThresholdReached
//	                      -> Downgrade -> RunEngine
//	                      -> GaveUp
//
// Rounds are strictly sequential. The caller's templates are never mutated.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/model"
)

// Stop tells why the loop ended.
type Stop int

const (
	// ThresholdReached means the last trial's violation ratio reached the
	// acceptable ratio.
	ThresholdReached Stop = iota + 1
	// GaveUp means every host sits at its bottom state.
	GaveUp
	// RoundLimit means MaxRounds trials ran.
	RoundLimit
)

func (s Stop) String() string {
	switch s {
	case ThresholdReached:
		return "threshold-reached"
	case GaveUp:
		return "gave-up"
	case RoundLimit:
		return "round-limit"
	default:
		return "unknown"
	}
}

// Config drives one search.
//   - AcceptableViolationRatio: stop once a trial's ratio is >= this value
//   - Policy: downgrade policy name, empty means LowestUtilization
//   - MaxRounds: cap on trials, 0 means unbounded
type Config struct {
	AcceptableViolationRatio float64 `yaml:"acceptable_violation_ratio" json:"acceptable_violation_ratio"`
	Policy                   string  `yaml:"policy" json:"policy"`
	MaxRounds                int     `yaml:"max_rounds" json:"max_rounds"`

	Logger   *slog.Logger `yaml:"-" json:"-"`
	Observer Observer     `yaml:"-" json:"-"`
}

// Observer receives search progress.
type Observer interface {
	Round(round int, tr *model.TrialResult)
	Downgraded(d Downgrade)
}

type nopObserver struct{}

func (nopObserver) Round(int, *model.TrialResult) {}
func (nopObserver) Downgraded(Downgrade)          {}

// Downgrade records one host moving one state lower.
type Downgrade struct {
	Round        int     `json:"round"`
	HostID       int     `json:"host_id"`
	From         int     `json:"from"`
	To           int     `json:"to"`
	FromFraction float64 `json:"from_fraction"`
	ToFraction   float64 `json:"to_fraction"`
}

// Result is the full trail of one search.
type Result struct {
	History    []*model.TrialResult `json:"history"`
	Downgrades []Downgrade          `json:"downgrades"`
	Stop       Stop                 `json:"-"`
}

// OperatingPoint is the last trial before degradation became unacceptable:
// the second-to-last one when the threshold was reached, the last one
// otherwise. It is nil when the very first trial already hit the threshold.
func (r *Result) OperatingPoint() *model.TrialResult {
	n := len(r.History)
	if n == 0 {
		return nil
	}
	if r.Stop == ThresholdReached {
		if n < 2 {
			return nil
		}
		return r.History[n-2]
	}
	return r.History[n-1]
}

// Search runs eng on jobs over a private copy of resources and hosts until
// one of the stop conditions holds.
func Search(ctx context.Context, eng engine.Engine, jobs []model.Job, resources []model.Resource, hosts []model.Host, cfg Config) (res *Result, err error) {
	if cfg.AcceptableViolationRatio < 0 || cfg.AcceptableViolationRatio > 1 {
		return nil, fmt.Errorf("%w: %.3f", ErrInvalidThreshold, cfg.AcceptableViolationRatio)
	}
	policy, err := PolicyByName(cfg.Policy)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	ctx, span := engine.StartSpan(ctx, "search.Search",
		attribute.String("engine", eng.Name()),
		attribute.Float64("threshold", cfg.AcceptableViolationRatio),
	)
	defer func() { engine.EndSpan(span, err) }()

	rs := model.CloneResources(resources)
	hs := model.CloneHosts(hosts)
	res = &Result{}

	for round := 0; ; round++ {
		tr, err := runRound(ctx, eng, round, jobs, rs, hs)
		if err != nil {
			return nil, err
		}
		res.History = append(res.History, tr)
		obs.Round(round, tr)

		ratio := model.ViolationRatio(tr.Jobs)
		log.Info("search round",
			"round", round,
			"engine", eng.Name(),
			"violation_ratio", ratio,
			"energy", tr.Energy.Humanized(),
			"makespan", tr.Makespan,
		)

		if ratio >= cfg.AcceptableViolationRatio {
			res.Stop = ThresholdReached
			break
		}
		if cfg.MaxRounds > 0 && round+1 >= cfg.MaxRounds {
			res.Stop = RoundLimit
			break
		}

		idx := policy(tr, hs)
		if idx < 0 {
			res.Stop = GaveUp
			break
		}
		d, err := downgrade(hs, rs, idx)
		if err != nil {
			return nil, fmt.Errorf("search: round %d: %w", round, err)
		}
		d.Round = round
		res.Downgrades = append(res.Downgrades, d)
		obs.Downgraded(d)
		log.Debug("host downgraded", "host", d.HostID, "from", d.From, "to", d.To, "fraction", d.ToFraction)
	}

	span.SetAttributes(
		attribute.Int("rounds", len(res.History)),
		attribute.String("stop", res.Stop.String()),
	)
	log.Info("search done", "rounds", len(res.History), "stop", res.Stop.String())
	return res, nil
}

func runRound(ctx context.Context, eng engine.Engine, round int, jobs []model.Job, rs []model.Resource, hs []model.Host) (tr *model.TrialResult, err error) {
	ctx, span := engine.StartSpan(ctx, "search.Round", attribute.Int("round", round))
	defer func() { engine.EndSpan(span, err) }()

	tr, err = eng.Run(ctx, jobs, rs, hs)
	if err != nil {
		return nil, fmt.Errorf("search: round %d: %w", round, err)
	}
	span.SetAttributes(engine.TrialAttributes(tr.Violations, tr.ViolationRatio, tr.Makespan, float64(tr.Energy))...)
	return tr, nil
}

// downgrade moves hosts[idx] one state lower and rescales the host and every
// resource it owns by the ratio of the two processing fractions.
func downgrade(hosts []model.Host, resources []model.Resource, idx int) (Downgrade, error) {
	h := &hosts[idx]
	from := h.Power.State()
	prev, next, err := h.Power.Downgrade()
	if err != nil {
		return Downgrade{}, err
	}

	scale := next.Fraction / prev.Fraction
	h.MIPS *= scale
	for i := range resources {
		if resources[i].HostID == h.ID {
			resources[i].MIPS *= scale
		}
	}

	return Downgrade{
		HostID:       h.ID,
		From:         from,
		To:           h.Power.State(),
		FromFraction: prev.Fraction,
		ToFraction:   next.Fraction,
	}, nil
}
