// Package strategy maps strategy names to engine constructors so that callers
// pick an engine by name from configuration or flags.
package strategy

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ja7ad/greensched/pkg/engine"
	"github.com/ja7ad/greensched/pkg/engine/aco"
	"github.com/ja7ad/greensched/pkg/engine/baseline"
	"github.com/ja7ad/greensched/pkg/engine/ga"
)

// Settings carries everything a constructor may need. Each constructor reads
// only its own section.
type Settings struct {
	Options engine.Options
	ACO     *aco.Config
	GA      *ga.Config
}

// Constructor builds one engine.
type Constructor func(Settings) (engine.Engine, error)

// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a registry with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.ctors[aco.Name] = func(s Settings) (engine.Engine, error) { return aco.New(s.ACO, s.Options) }
	r.ctors[ga.Name] = func(s Settings) (engine.Engine, error) { return ga.New(s.GA, s.Options) }
	r.ctors[baseline.FCFSName] = func(s Settings) (engine.Engine, error) { return baseline.NewFCFS(s.Options), nil }
	r.ctors[baseline.RoundRobinName] = func(s Settings) (engine.Engine, error) { return baseline.NewRoundRobin(s.Options), nil }
	return r
}

// Register adds a strategy under name.
func (r *Registry) Register(name string, c Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.ctors[name] = c
	return nil
}

// New builds the strategy registered under name.
func (r *Registry) New(name string, s Settings) (engine.Engine, error) {
	r.mu.RLock()
	c, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownStrategy, name, r.Names())
	}
	return c(s)
}

// Names lists the registered strategies in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ctors))
	for n := range r.ctors {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
