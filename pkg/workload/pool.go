package workload

import (
	"fmt"

	"github.com/ja7ad/greensched/pkg/model"
	"github.com/ja7ad/greensched/pkg/power"
)

// PoolConfig describes a heterogeneous pool. Host i gets
// MIPSMax - i*(MIPSMax-MIPSMin)/(Hosts-1) MIPS and one resource of the same
// speed. Every host starts at the top of its ladder, with wattages scaled by
// its share of MIPSMax.
type PoolConfig struct {
	Hosts   int     `yaml:"hosts" json:"hosts"`
	MIPSMax float64 `yaml:"mips_max" json:"mips_max"`
	MIPSMin float64 `yaml:"mips_min" json:"mips_min"`
	Ladder  string  `yaml:"ladder" json:"ladder"`
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Hosts:   5,
		MIPSMax: 5000,
		MIPSMin: 2000,
		Ladder:  "amd-opteron",
	}
}

func (c PoolConfig) Merge(base PoolConfig) PoolConfig {
	if c.Hosts <= 0 {
		c.Hosts = base.Hosts
	}
	if c.MIPSMax <= 0 {
		c.MIPSMax = base.MIPSMax
	}
	if c.MIPSMin <= 0 {
		c.MIPSMin = base.MIPSMin
	}
	if c.Ladder == "" {
		c.Ladder = base.Ladder
	}
	return c
}

func (c PoolConfig) Validate() error {
	if c.Hosts <= 0 || c.MIPSMin <= 0 || c.MIPSMax < c.MIPSMin {
		return fmt.Errorf("%w: hosts=%d mips=[%.0f, %.0f]", ErrInvalidConfig, c.Hosts, c.MIPSMin, c.MIPSMax)
	}
	if power.Ladder(c.Ladder) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownLadder, c.Ladder)
	}
	return nil
}

// Pool builds the hosts and their resources.
func Pool(cfg PoolConfig) ([]model.Host, []model.Resource, error) {
	cfg = cfg.Merge(DefaultPoolConfig())
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	ladder := power.Ladder(cfg.Ladder)

	step := 0.0
	if cfg.Hosts > 1 {
		step = (cfg.MIPSMax - cfg.MIPSMin) / float64(cfg.Hosts-1)
	}

	hosts := make([]model.Host, cfg.Hosts)
	resources := make([]model.Resource, cfg.Hosts)
	for i := range hosts {
		mips := cfg.MIPSMax - float64(i)*step
		pm, err := power.New(power.Scaled(ladder, mips/cfg.MIPSMax), len(ladder)-1)
		if err != nil {
			return nil, nil, fmt.Errorf("workload: host %d: %w", i, err)
		}
		hosts[i] = model.Host{ID: i, MIPS: mips, PEs: 1, Power: pm}
		resources[i] = model.Resource{ID: i, MIPS: mips, PEs: 1, HostID: i}
	}
	return hosts, resources, nil
}
