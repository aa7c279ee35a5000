package loader

import (
	"fmt"
	"os"
	"sort"

	"github.com/nathoo/dialoguecore/engine/graph"
	"github.com/nathoo/dialoguecore/types"
	"gopkg.in/yaml.v3"
)

// yamlFile is the declarative dialogue schema. It is a direct mapping of
// the graph model: metadata, a template table, and nodes with ordered
// rules plus a fallback.
type yamlFile struct {
	Dialogue  yamlDialogue        `yaml:"dialogue"`
	Templates map[string]string   `yaml:"templates"`
	Nodes     map[string]yamlNode `yaml:"nodes"`
}

type yamlDialogue struct {
	Title   string `yaml:"title"`
	NPC     string `yaml:"npc"`
	Author  string `yaml:"author"`
	Version string `yaml:"version"`
	Entry   string `yaml:"entry"`
	Intro   string `yaml:"intro"`
}

type yamlNode struct {
	Rules    []yamlRule `yaml:"rules"`
	Fallback *yamlRule  `yaml:"fallback"`
}

type yamlRule struct {
	ID       string       `yaml:"id"`
	Priority int          `yaml:"priority"`
	Target   string       `yaml:"target"`
	Template string       `yaml:"template"`
	When     *yamlCond    `yaml:"when"`
	Effects  []yamlEffect `yaml:"effects"`
}

// yamlCond is one condition level. Leaf comparisons use op/key/value
// (or values for in); combinators use the all/any/not shorthands.
type yamlCond struct {
	Op     string     `yaml:"op"`
	Key    string     `yaml:"key"`
	Value  any        `yaml:"value"`
	Values []any      `yaml:"values"`
	All    []yamlCond `yaml:"all"`
	Any    []yamlCond `yaml:"any"`
	Not    *yamlCond  `yaml:"not"`
}

type yamlEffect struct {
	Op     string `yaml:"op"`
	Key    string `yaml:"key"`
	Value  any    `yaml:"value"`
	Amount *int64 `yaml:"amount"`
}

// LoadYAML reads a single YAML dialogue file and returns a validated
// graph.
func LoadYAML(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	g, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return g, nil
}

// ParseYAML compiles YAML dialogue bytes into a validated graph.
func ParseYAML(data []byte) (*graph.Graph, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	def := types.DialogueDef{
		Title:   f.Dialogue.Title,
		NPC:     f.Dialogue.NPC,
		Author:  f.Dialogue.Author,
		Version: f.Dialogue.Version,
		Entry:   f.Dialogue.Entry,
		Intro:   f.Dialogue.Intro,
	}

	g := graph.New(def)
	for id, text := range f.Templates {
		g.AddTemplate(id, text)
	}

	// Node maps have no document order; sort ids so validation output is
	// stable. Rule order within a node is the list order, which is what
	// resolution depends on.
	ids := make([]string, 0, len(f.Nodes))
	for id := range f.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := f.Nodes[id]
		if err := g.AddNode(id); err != nil {
			return nil, err
		}
		for _, yr := range node.Rules {
			rule, err := yamlToRule(id, yr)
			if err != nil {
				return nil, err
			}
			if err := g.AddRule(id, rule); err != nil {
				return nil, err
			}
		}
		if node.Fallback != nil {
			rule, err := yamlToRule(id, *node.Fallback)
			if err != nil {
				return nil, err
			}
			if err := g.SetFallback(id, rule); err != nil {
				return nil, err
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func yamlToRule(nodeID string, yr yamlRule) (types.Rule, error) {
	rule := types.Rule{
		ID:       yr.ID,
		Priority: yr.Priority,
		Target:   yr.Target,
		Template: yr.Template,
	}

	if yr.When != nil {
		c, err := yamlToCondition(nodeID, *yr.When)
		if err != nil {
			return rule, err
		}
		rule.Condition = &c
	}

	for _, ye := range yr.Effects {
		m := types.Mutation{Op: types.MutationOp(ye.Op), Key: ye.Key}
		switch m.Op {
		case types.MutInc:
			amount := int64(1)
			if ye.Amount != nil {
				amount = *ye.Amount
			}
			m.Value = types.Int(amount)
		default:
			m.Value = anyToValue(ye.Value)
		}
		rule.Mutations = append(rule.Mutations, m)
	}
	return rule, nil
}

func yamlToCondition(nodeID string, yc yamlCond) (types.Condition, error) {
	// Combinator shorthands take precedence over an explicit op field.
	switch {
	case len(yc.All) > 0:
		return yamlCombinator(nodeID, types.OpAll, yc.All)
	case len(yc.Any) > 0:
		return yamlCombinator(nodeID, types.OpAny, yc.Any)
	case yc.Not != nil:
		child, err := yamlToCondition(nodeID, *yc.Not)
		if err != nil {
			return types.Condition{}, err
		}
		return types.Condition{Op: types.OpNot, Children: []types.Condition{child}}, nil
	}

	c := types.Condition{Op: types.Op(yc.Op), Key: yc.Key}
	if yc.Value != nil {
		c.Value = anyToValue(yc.Value)
	}
	for _, v := range yc.Values {
		c.Values = append(c.Values, anyToValue(v))
	}
	if c.Op == "" {
		return c, fmt.Errorf("node %q: condition needs an op or a combinator", nodeID)
	}
	return c, nil
}

func yamlCombinator(nodeID string, op types.Op, children []yamlCond) (types.Condition, error) {
	c := types.Condition{Op: op}
	for _, yc := range children {
		child, err := yamlToCondition(nodeID, yc)
		if err != nil {
			return c, err
		}
		c.Children = append(c.Children, child)
	}
	return c, nil
}

// anyToValue converts a decoded YAML scalar to a fact value.
func anyToValue(v any) types.Value {
	switch x := v.(type) {
	case bool:
		return types.Bool(x)
	case int:
		return types.Int(int64(x))
	case int64:
		return types.Int(x)
	case float64:
		return types.Float(x)
	case string:
		return types.String(x)
	default:
		return types.Absent()
	}
}
