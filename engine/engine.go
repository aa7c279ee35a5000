// Package engine ties the dialogue graph, response cache, and world-state
// stores together. The Engine itself is stateless and reentrant: one
// instance serves any number of concurrent sessions, each owning its own
// state store, against a shared read-only graph.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/nathoo/dialoguecore/engine/cache"
	"github.com/nathoo/dialoguecore/engine/graph"
	"github.com/nathoo/dialoguecore/engine/resolve"
	"github.com/nathoo/dialoguecore/engine/state"
	"github.com/nathoo/dialoguecore/logging"
	"github.com/nathoo/dialoguecore/types"
	"github.com/prometheus/client_golang/prometheus"
)

// TieBreakFirstDeclared is the only recognized tie-break policy: among
// matching rules of equal priority, the earliest-declared wins.
const TieBreakFirstDeclared = "first-declared"

// Config holds the engine options surfaced to callers.
type Config struct {
	// MaxCacheEntries bounds the response cache (LRU eviction past the
	// bound). Zero means the default; negative disables caching entirely.
	MaxCacheEntries int
	// TieBreak names the rule tie-break policy. Only "first-declared" is
	// recognized; the option exists so the policy is explicit in configs.
	TieBreak string
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MaxCacheEntries: cache.DefaultMaxEntries, TieBreak: TieBreakFirstDeclared}
}

// Engine resolves dialogue steps against a validated graph.
type Engine struct {
	Graph  *graph.Graph
	Cache  *cache.Cache // nil when caching is disabled
	Logger *slog.Logger

	cfg        Config
	metricsReg prometheus.Registerer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithCacheMetrics registers cache counters with the given registerer.
func WithCacheMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metricsReg = reg }
}

// New creates an engine over a graph. The graph is validated here if the
// caller has not already done so — an engine never exists over a graph
// that failed validation.
func New(g *graph.Graph, opts ...Option) (*Engine, error) {
	e := &Engine{
		Graph:  g,
		Logger: logging.NewNop(),
		cfg:    DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cfg.TieBreak == "" {
		e.cfg.TieBreak = TieBreakFirstDeclared
	}
	if e.cfg.TieBreak != TieBreakFirstDeclared {
		return nil, fmt.Errorf("unsupported tie_break policy %q (only %q is recognized)",
			e.cfg.TieBreak, TieBreakFirstDeclared)
	}

	if !g.Validated() {
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}

	if e.cfg.MaxCacheEntries >= 0 {
		var copts []cache.Option
		if e.metricsReg != nil {
			copts = append(copts, cache.WithMetrics(cache.NewMetrics(e.metricsReg)))
		}
		e.Cache = cache.New(e.cfg.MaxCacheEntries, copts...)
	}

	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Resolve performs one dialogue step for the given store at the given
// node. Misses against absent or mismatched fact keys are logged at
// warning level — authored content frequently references keys not yet set
// in early states, so these are observability events, not errors.
func (e *Engine) Resolve(store *state.Store, nodeID string) (resolve.Resolution, error) {
	obs := func(key string) {
		e.Logger.Warn("condition referenced absent or mismatched fact",
			"node", nodeID, "key", key)
	}

	res, err := resolve.Resolve(e.Graph, nodeID, store, resolve.Options{
		Cache:    e.Cache,
		Observer: obs,
	})
	if err != nil {
		return res, err
	}

	e.invalidateDependents(res.Applied)
	return res, nil
}

// invalidateDependents drops cached responses for every node whose
// dependency keys were touched by a committed batch.
func (e *Engine) invalidateDependents(records []types.MutationRecord) {
	if e.Cache == nil || len(records) == 0 {
		return
	}
	seen := map[string]bool{}
	for _, rec := range records {
		for _, nodeID := range e.Graph.Dependents(rec.Key) {
			if !seen[nodeID] {
				seen[nodeID] = true
				e.Cache.Invalidate(nodeID)
			}
		}
	}
}
