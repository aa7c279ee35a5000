// Package resolve implements one dialogue step: rule selection, staged
// mutation commit, and response materialization.
package resolve

import (
	"fmt"

	"github.com/nathoo/dialoguecore/engine/cache"
	"github.com/nathoo/dialoguecore/engine/cond"
	"github.com/nathoo/dialoguecore/engine/graph"
	"github.com/nathoo/dialoguecore/engine/render"
	"github.com/nathoo/dialoguecore/engine/state"
	"github.com/nathoo/dialoguecore/types"
)

// Resolution is the outcome of resolving one node against world state.
type Resolution struct {
	NodeID  string
	RuleID  string
	Next    string // target node id
	Applied []types.MutationRecord
	Text    string
}

// DeadEndError reports a resolve call against a node id the graph does not
// contain. Caller-side misuse — surfaced, never retried.
type DeadEndError struct {
	NodeID string
}

func (e *DeadEndError) Error() string {
	return fmt.Sprintf("dead end: unknown dialogue node %q", e.NodeID)
}

// Options tunes a single resolve call. The zero value disables caching and
// miss reporting.
type Options struct {
	Cache    *cache.Cache  // nil disables memoization; output is identical either way
	Observer cond.Observer // receives keys whose absence forced a predicate false
}

// Resolve evaluates the node's rules against a snapshot of the store,
// selects the winner, commits its mutations as one atomic batch, and
// returns the rendered response.
//
// Selection is deterministic: the matching rule with the highest priority
// wins, and among equal priorities the earliest-declared rule wins (first
// match, not last). When no conditioned rule matches, the fallback —
// validated to exist on every node — is selected, so a resolve against a
// known node always produces a result.
func Resolve(g *graph.Graph, nodeID string, store *state.Store, opts Options) (Resolution, error) {
	node, err := g.Node(nodeID)
	if err != nil {
		return Resolution{}, &DeadEndError{NodeID: nodeID}
	}

	snap := store.Snapshot()
	rule := selectRule(node, snap, opts.Observer)

	records := stage(rule.Mutations, snap)
	store.Commit(records)

	// Render against the post-mutation view so the response reflects the
	// state this rule just produced.
	view := snap.With(records)
	text := materialize(g, node, rule, view, opts.Cache)

	return Resolution{
		NodeID:  node.ID,
		RuleID:  rule.ID,
		Next:    rule.Target,
		Applied: records,
		Text:    text,
	}, nil
}

// selectRule walks the conditioned rules in declaration order, keeping the
// first rule that matches at a strictly higher priority than the current
// best. Strictly higher is what makes ties stable: an equal-priority rule
// declared later never displaces an earlier winner.
func selectRule(node *types.NodeDef, snap state.Snapshot, obs cond.Observer) *types.Rule {
	var best *types.Rule
	for i := range node.Rules {
		r := &node.Rules[i]
		if r.Condition != nil && !cond.Observe(*r.Condition, snap, obs) {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}
	if best == nil {
		best = node.Fallback
	}
	return best
}

// stage computes the mutation batch against the snapshot without touching
// the store. Later mutations in the batch observe earlier ones, and each
// audit record carries the value it actually replaced.
func stage(muts []types.Mutation, snap state.Snapshot) []types.MutationRecord {
	if len(muts) == 0 {
		return nil
	}

	staged := map[string]types.Value{}
	current := func(key string) types.Value {
		if v, ok := staged[key]; ok {
			return v
		}
		return snap.Get(key)
	}

	records := make([]types.MutationRecord, 0, len(muts))
	for _, m := range muts {
		old := current(m.Key)
		var next types.Value
		switch m.Op {
		case types.MutSet:
			next = m.Value
		case types.MutInc:
			next = increment(old, m.Value)
		case types.MutToggle:
			next = toggle(old)
		default:
			// Rejected at validation; unreachable after a clean Validate.
			continue
		}
		staged[m.Key] = next
		records = append(records, types.MutationRecord{Key: m.Key, Old: old, New: next})
	}
	return records
}

// increment adds a numeric amount to a fact. An absent (or non-numeric)
// current value is treated as a 0 baseline — incrementing an unset counter
// twice by 1 yields 2, never 1. The result stays an int unless either side
// is a float.
func increment(old, amount types.Value) types.Value {
	oldInt, oldIsInt := old.AsInt()
	amtInt, amtIsInt := amount.AsInt()
	if amtIsInt && (oldIsInt || !old.IsNumeric()) {
		return types.Int(oldInt + amtInt)
	}
	oldF, ok := old.AsFloat()
	if !ok {
		oldF = 0
	}
	amtF, ok := amount.AsFloat()
	if !ok {
		amtF = 0
	}
	return types.Float(oldF + amtF)
}

// toggle flips a boolean fact. Absent (or non-bool) is treated as a false
// baseline, so the first toggle of an unset flag produces true.
func toggle(old types.Value) types.Value {
	b, _ := old.AsBool()
	return types.Bool(!b)
}

// materialize renders the selected rule's template, consulting the cache
// when one is configured. The cache key fingerprints only the state slice
// the node's conditions read and its templates render, so unrelated facts
// never fragment it.
func materialize(g *graph.Graph, node *types.NodeDef, rule *types.Rule, view state.Snapshot, c *cache.Cache) string {
	tmpl, ok := g.Template(rule.Template)
	if !ok {
		// Graphs without a template table carry literal text on the rule.
		tmpl = rule.Template
	}

	if c == nil {
		return render.Render(tmpl, view)
	}

	key := cache.Key{
		Node:        node.ID,
		Template:    rule.Template,
		Fingerprint: view.Fingerprint(g.Deps(node.ID)),
	}
	entry := c.GetOrRender(key, func() cache.Entry {
		return cache.Entry{Text: render.Render(tmpl, view), Target: rule.Target}
	})
	return entry.Text
}
