// Package types defines the shared data structures for the DialogueCore
// engine: fact values, condition trees, rules, and dialogue nodes.
package types

// Op is a condition operator. The set is closed — graph validation rejects
// anything else before it can reach the resolver.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
	OpAll Op = "all"
	OpAny Op = "any"
	OpNot Op = "not"
)

// Condition is a predicate tree over world-state facts.
// Leaf operators (eq, ne, gt, gte, lt, lte) use Key and Value; in uses Key
// and Values; the combinators (all, any, not) use Children.
type Condition struct {
	Op       Op
	Key      string
	Value    Value
	Values   []Value
	Children []Condition
}

// MutationOp is a state-mutation operator declared by a rule.
type MutationOp string

const (
	MutSet    MutationOp = "set"
	MutInc    MutationOp = "inc"
	MutToggle MutationOp = "toggle"
)

// Mutation is a single declared state change. For set, Value is the new
// value; for inc, Value is the numeric amount; toggle ignores Value.
type Mutation struct {
	Op    MutationOp
	Key   string
	Value Value
}

// MutationRecord is the audit entry for one applied mutation.
type MutationRecord struct {
	Key string
	Old Value
	New Value
}

// Rule is a guarded transition out of a dialogue node. Target names the
// next node by id only — the reference is resolved through the owning
// graph at traversal time.
type Rule struct {
	ID          string
	Condition   *Condition // nil on fallback rules
	Priority    int        // higher wins; ties go to earliest declaration
	Target      string
	Mutations   []Mutation
	Template    string // response template id
	SourceOrder int
}

// NodeDef is a dialogue node: an ordered list of conditioned rules plus a
// mandatory fallback that matches when nothing else does.
type NodeDef struct {
	ID       string
	Rules    []Rule
	Fallback *Rule
}

// DialogueDef holds graph metadata from the loader.
type DialogueDef struct {
	Title   string
	NPC     string
	Author  string
	Version string
	Entry   string // entry node id
	Intro   string
}
