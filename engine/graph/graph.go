// Package graph owns the dialogue nodes, transition rules, and response
// templates, and validates the whole structure once before resolution.
//
// Nodes reference each other by id only, resolved through the graph at
// traversal time — cyclic branches (conversations looping back to earlier
// nodes) carry no owning links between nodes. After a clean Validate the
// graph is read-only and may be shared across concurrent sessions.
package graph

import (
	"fmt"

	"github.com/nathoo/dialoguecore/types"
)

// ErrorKind classifies a structural problem in a graph.
type ErrorKind int

const (
	KindUnknownNode ErrorKind = iota
	KindDuplicateNode
	KindUnknownTarget
	KindUnreachable
	KindMissingFallback
	KindBadFallback
	KindBadOperator
	KindBadMutation
	KindUnknownTemplate
	KindBadEntry
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownNode:
		return "unknown node"
	case KindDuplicateNode:
		return "duplicate node"
	case KindUnknownTarget:
		return "unknown target"
	case KindUnreachable:
		return "unreachable node"
	case KindMissingFallback:
		return "missing fallback"
	case KindBadFallback:
		return "bad fallback"
	case KindBadOperator:
		return "unsupported operator"
	case KindBadMutation:
		return "bad mutation"
	case KindUnknownTemplate:
		return "unknown template"
	case KindBadEntry:
		return "bad entry node"
	default:
		return "graph error"
	}
}

// Error is one structural problem found in a graph.
type Error struct {
	Kind   ErrorKind
	NodeID string
	RuleID string
	Detail string
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.NodeID != "" {
		msg += fmt.Sprintf(" (node %q", e.NodeID)
		if e.RuleID != "" {
			msg += fmt.Sprintf(", rule %q", e.RuleID)
		}
		msg += ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Graph is the sole owner of all dialogue nodes and templates.
type Graph struct {
	def       types.DialogueDef
	nodes     map[string]*types.NodeDef
	order     []string // node insertion order, for deterministic validation output
	templates map[string]string
	deps      map[string][]string // node id → sorted condition keys, computed by Validate
	rdeps     map[string][]string // fact key → node ids depending on it
	warnings  []string
	validated bool
}

// New creates an empty graph with the given metadata. def.Entry names the
// node every new session starts at.
func New(def types.DialogueDef) *Graph {
	return &Graph{
		def:       def,
		nodes:     map[string]*types.NodeDef{},
		templates: map[string]string{},
	}
}

// Def returns the graph metadata.
func (g *Graph) Def() types.DialogueDef { return g.def }

// Entry returns the entry node id.
func (g *Graph) Entry() string { return g.def.Entry }

// AddNode registers an empty node. Duplicate ids are an error.
func (g *Graph) AddNode(id string) error {
	if _, ok := g.nodes[id]; ok {
		return &Error{Kind: KindDuplicateNode, NodeID: id}
	}
	g.nodes[id] = &types.NodeDef{ID: id}
	g.order = append(g.order, id)
	g.validated = false
	return nil
}

// AddRule appends a conditioned rule to a node, stamping its declaration
// order. Rule order is what breaks priority ties, so append order matters.
func (g *Graph) AddRule(nodeID string, r types.Rule) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return &Error{Kind: KindUnknownNode, NodeID: nodeID, RuleID: r.ID}
	}
	r.SourceOrder = len(node.Rules)
	node.Rules = append(node.Rules, r)
	g.validated = false
	return nil
}

// SetFallback installs the node's unconditioned fallback rule.
func (g *Graph) SetFallback(nodeID string, r types.Rule) error {
	node, ok := g.nodes[nodeID]
	if !ok {
		return &Error{Kind: KindUnknownNode, NodeID: nodeID, RuleID: r.ID}
	}
	node.Fallback = &r
	g.validated = false
	return nil
}

// AddTemplate registers a response template. Later registrations of the
// same id overwrite earlier ones.
func (g *Graph) AddTemplate(id, text string) {
	g.templates[id] = text
}

// Node returns a node by id, or *Error{KindUnknownNode} when absent.
func (g *Graph) Node(id string) (*types.NodeDef, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, &Error{Kind: KindUnknownNode, NodeID: id}
	}
	return node, nil
}

// Nodes returns all node ids in insertion order.
func (g *Graph) Nodes() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Template returns the text for a template id.
func (g *Graph) Template(id string) (string, bool) {
	text, ok := g.templates[id]
	return text, ok
}

// HasTemplates reports whether any templates are registered. Graphs built
// without a template table carry literal text in Rule.Template instead.
func (g *Graph) HasTemplates() bool { return len(g.templates) > 0 }

// Deps returns the sorted fact keys a node's conditions read. Only valid
// after Validate; the slice is shared and must not be modified.
func (g *Graph) Deps(nodeID string) []string {
	return g.deps[nodeID]
}

// Dependents returns the ids of nodes whose conditions read the given fact
// key. Only valid after Validate.
func (g *Graph) Dependents(key string) []string {
	return g.rdeps[key]
}

// Validated reports whether the graph passed Validate since its last
// structural change.
func (g *Graph) Validated() bool { return g.validated }

// Warnings returns the non-fatal findings from the last successful
// Validate (duplicate rule ids, empty combinators, and the like).
func (g *Graph) Warnings() []string { return g.warnings }
