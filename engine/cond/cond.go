// Package cond implements total, side-effect-free evaluation of condition
// trees against world-state snapshots.
//
// Evaluation never errors: every condition is true or false for any state.
// The absence policy is deliberate and load-bearing — a leaf comparison
// against an absent key is false, for every leaf operator including ne.
// Absence never satisfies a predicate against a concrete literal. Authored
// content routinely references keys not yet set in early states, so these
// misses are reported through an Observer (logged as warnings upstream)
// rather than raised.
package cond

import (
	"sort"

	"github.com/nathoo/dialoguecore/engine/state"
	"github.com/nathoo/dialoguecore/types"
)

// Observer is notified of fact keys whose absence or kind mismatch forced
// a leaf predicate false.
type Observer func(key string)

// Evaluate tests a condition against a snapshot. Pure, total, no side
// effects. all/any short-circuit at the first decisive child.
func Evaluate(c types.Condition, snap state.Snapshot) bool {
	return eval(c, snap, nil)
}

// Observe is Evaluate with miss reporting.
func Observe(c types.Condition, snap state.Snapshot, obs Observer) bool {
	return eval(c, snap, obs)
}

func eval(c types.Condition, snap state.Snapshot, obs Observer) bool {
	switch c.Op {
	case types.OpAll:
		for _, child := range c.Children {
			if !eval(child, snap, obs) {
				return false
			}
		}
		return true

	case types.OpAny:
		for _, child := range c.Children {
			if eval(child, snap, obs) {
				return true
			}
		}
		return false

	case types.OpNot:
		if len(c.Children) == 0 {
			return false
		}
		return !eval(c.Children[0], snap, obs)

	case types.OpEq, types.OpNe, types.OpGt, types.OpGte, types.OpLt, types.OpLte, types.OpIn:
		return leaf(c, snap, obs)

	default:
		// Unsupported operators are rejected at validation; if one slips
		// through on an unvalidated graph it evaluates false, not a panic.
		return false
	}
}

func leaf(c types.Condition, snap state.Snapshot, obs Observer) bool {
	fact := snap.Get(c.Key)
	if fact.IsAbsent() {
		miss(obs, c.Key)
		return false
	}

	switch c.Op {
	case types.OpEq:
		if !fact.Comparable(c.Value) {
			miss(obs, c.Key)
			return false
		}
		return fact.Equal(c.Value)

	case types.OpNe:
		if !fact.Comparable(c.Value) {
			miss(obs, c.Key)
			return false
		}
		return !fact.Equal(c.Value)

	case types.OpIn:
		for _, v := range c.Values {
			if fact.Comparable(v) && fact.Equal(v) {
				return true
			}
		}
		return false

	default: // gt, gte, lt, lte
		cmp, ok := fact.Compare(c.Value)
		if !ok {
			miss(obs, c.Key)
			return false
		}
		switch c.Op {
		case types.OpGt:
			return cmp > 0
		case types.OpGte:
			return cmp >= 0
		case types.OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	}
}

func miss(obs Observer, key string) {
	if obs != nil {
		obs(key)
	}
}

// Keys returns the sorted, deduplicated set of fact keys a condition
// reads. The graph computes these once per node to key cache fingerprints.
func Keys(c types.Condition) []string {
	set := map[string]struct{}{}
	collectKeys(c, set)
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectKeys(c types.Condition, set map[string]struct{}) {
	if c.Key != "" {
		set[c.Key] = struct{}{}
	}
	for _, child := range c.Children {
		collectKeys(child, set)
	}
}

// SupportedOp reports whether op belongs to the closed operator set.
func SupportedOp(op types.Op) bool {
	switch op {
	case types.OpEq, types.OpNe, types.OpGt, types.OpGte, types.OpLt, types.OpLte,
		types.OpIn, types.OpAll, types.OpAny, types.OpNot:
		return true
	default:
		return false
	}
}
