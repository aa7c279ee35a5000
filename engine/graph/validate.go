package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/dialoguecore/engine/cond"
	"github.com/nathoo/dialoguecore/engine/render"
	"github.com/nathoo/dialoguecore/types"
)

// ValidationError collects every structural error found by Validate, so
// authors fix a batch per load instead of one per attempt.
type ValidationError struct {
	Errors   []*Error
	Warnings []string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Error()
	}
	return fmt.Sprintf("graph validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(msgs, "\n  "))
}

// Validate checks the whole graph for structural problems: a missing or
// unknown entry node, rules targeting undefined nodes, nodes unreachable
// from the entry, nodes without a fallback, unsupported condition
// operators or mutation ops, and dangling template references. It runs
// once at construction time — a clean pass seals the graph read-only and
// precomputes per-node dependency keys so the resolve path stays
// allocation-free. Callers must not resolve against a graph that failed
// validation.
func (g *Graph) Validate() error {
	ve := &ValidationError{}

	if g.def.Entry == "" {
		ve.Errors = append(ve.Errors, &Error{Kind: KindBadEntry, Detail: "entry node id is required"})
	} else if _, ok := g.nodes[g.def.Entry]; !ok {
		ve.Errors = append(ve.Errors, &Error{
			Kind: KindBadEntry, Detail: fmt.Sprintf("entry node %q is not defined", g.def.Entry)})
	}

	ruleIDs := map[string]string{}
	for _, id := range g.order {
		node := g.nodes[id]
		for i := range node.Rules {
			g.validateRule(id, &node.Rules[i], ruleIDs, ve)
		}
		if node.Fallback == nil {
			ve.Errors = append(ve.Errors, &Error{Kind: KindMissingFallback, NodeID: id})
			continue
		}
		if node.Fallback.Condition != nil {
			ve.Errors = append(ve.Errors, &Error{
				Kind: KindBadFallback, NodeID: id, RuleID: node.Fallback.ID,
				Detail: "fallback rules must not carry a condition"})
		}
		g.validateRule(id, node.Fallback, ruleIDs, ve)
	}

	g.checkReachability(ve)

	if len(ve.Errors) > 0 {
		return ve
	}

	g.warnings = ve.Warnings
	g.computeDeps()
	g.validated = true
	return nil
}

func (g *Graph) validateRule(nodeID string, r *types.Rule, ruleIDs map[string]string, ve *ValidationError) {
	if r.ID != "" {
		if prev, dup := ruleIDs[r.ID]; dup {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"rule id %q appears on both node %q and node %q", r.ID, prev, nodeID))
		} else {
			ruleIDs[r.ID] = nodeID
		}
	}

	if _, ok := g.nodes[r.Target]; !ok {
		ve.Errors = append(ve.Errors, &Error{
			Kind: KindUnknownTarget, NodeID: nodeID, RuleID: r.ID,
			Detail: fmt.Sprintf("target node %q is not defined", r.Target)})
	}

	if r.Condition != nil {
		validateCondition(nodeID, r.ID, *r.Condition, ve)
	}

	for _, m := range r.Mutations {
		switch m.Op {
		case types.MutSet:
			if m.Value.IsAbsent() {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"rule %q sets %q to absent, which deletes the fact", r.ID, m.Key))
			}
		case types.MutInc:
			if !m.Value.IsNumeric() {
				ve.Errors = append(ve.Errors, &Error{
					Kind: KindBadMutation, NodeID: nodeID, RuleID: r.ID,
					Detail: fmt.Sprintf("inc %q requires a numeric amount", m.Key)})
			}
		case types.MutToggle:
			// No payload.
		default:
			ve.Errors = append(ve.Errors, &Error{
				Kind: KindBadMutation, NodeID: nodeID, RuleID: r.ID,
				Detail: fmt.Sprintf("unknown mutation op %q", m.Op)})
		}
		if m.Key == "" {
			ve.Errors = append(ve.Errors, &Error{
				Kind: KindBadMutation, NodeID: nodeID, RuleID: r.ID,
				Detail: "mutation key is required"})
		}
	}

	// Template references are checked only when a template table exists;
	// hand-built graphs carry literal text in Rule.Template instead.
	if g.HasTemplates() && r.Template != "" {
		if _, ok := g.templates[r.Template]; !ok {
			ve.Errors = append(ve.Errors, &Error{
				Kind: KindUnknownTemplate, NodeID: nodeID, RuleID: r.ID,
				Detail: fmt.Sprintf("template %q is not defined", r.Template)})
		}
	}
}

func validateCondition(nodeID, ruleID string, c types.Condition, ve *ValidationError) {
	if !cond.SupportedOp(c.Op) {
		ve.Errors = append(ve.Errors, &Error{
			Kind: KindBadOperator, NodeID: nodeID, RuleID: ruleID,
			Detail: fmt.Sprintf("operator %q", c.Op)})
		return
	}
	switch c.Op {
	case types.OpAll, types.OpAny:
		if len(c.Children) == 0 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"rule %q has an empty %s combinator", ruleID, c.Op))
		}
	case types.OpNot:
		if len(c.Children) != 1 {
			ve.Errors = append(ve.Errors, &Error{
				Kind: KindBadOperator, NodeID: nodeID, RuleID: ruleID,
				Detail: "not requires exactly one child"})
		}
	case types.OpIn:
		if len(c.Values) == 0 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"rule %q has an in condition with an empty value set", ruleID))
		}
	}
	if c.Key == "" && c.Op != types.OpAll && c.Op != types.OpAny && c.Op != types.OpNot {
		ve.Errors = append(ve.Errors, &Error{
			Kind: KindBadOperator, NodeID: nodeID, RuleID: ruleID,
			Detail: fmt.Sprintf("%s requires a fact key", c.Op)})
	}
	for _, child := range c.Children {
		validateCondition(nodeID, ruleID, child, ve)
	}
}

// checkReachability walks rule targets from the entry node and reports
// every node the walk never touches.
func (g *Graph) checkReachability(ve *ValidationError) {
	if _, ok := g.nodes[g.def.Entry]; !ok {
		return // already reported as a bad entry
	}

	seen := map[string]bool{g.def.Entry: true}
	queue := []string{g.def.Entry}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		node := g.nodes[id]

		targets := make([]string, 0, len(node.Rules)+1)
		for _, r := range node.Rules {
			targets = append(targets, r.Target)
		}
		if node.Fallback != nil {
			targets = append(targets, node.Fallback.Target)
		}
		for _, t := range targets {
			if _, ok := g.nodes[t]; ok && !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}

	for _, id := range g.order {
		if !seen[id] {
			ve.Errors = append(ve.Errors, &Error{Kind: KindUnreachable, NodeID: id})
		}
	}
}

// computeDeps builds the per-node dependency key sets and the reverse
// index (fact key → dependent nodes) used for cache invalidation. A
// node's dependencies are every key its conditions read plus every
// placeholder key its templates render — together, the full state slice
// that can change the node's resolved output.
func (g *Graph) computeDeps() {
	g.deps = make(map[string][]string, len(g.nodes))
	g.rdeps = map[string][]string{}

	for _, id := range g.order {
		node := g.nodes[id]
		set := map[string]struct{}{}
		rules := node.Rules
		if node.Fallback != nil {
			rules = append(rules[:len(rules):len(rules)], *node.Fallback)
		}
		for _, r := range rules {
			if r.Condition != nil {
				for _, k := range cond.Keys(*r.Condition) {
					set[k] = struct{}{}
				}
			}
			tmpl, ok := g.templates[r.Template]
			if !ok {
				tmpl = r.Template
			}
			for _, k := range render.Keys(tmpl) {
				set[k] = struct{}{}
			}
		}
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		g.deps[id] = keys
		for _, k := range keys {
			g.rdeps[k] = append(g.rdeps[k], id)
		}
	}
}
