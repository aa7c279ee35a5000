package loader

import (
	"fmt"
	"math"

	"github.com/nathoo/dialoguecore/engine/graph"
	"github.com/nathoo/dialoguecore/types"
	lua "github.com/yuin/gopher-lua"
)

// compile converts collected Lua tables into a graph. Structural checks
// (targets, reachability, fallbacks) are left to graph.Validate; compile
// only rejects tables it cannot shape into definitions at all.
func compile(coll *collector) (*graph.Graph, error) {
	if coll.dialogue == nil {
		return nil, fmt.Errorf("no Dialogue {} declaration found")
	}

	def := types.DialogueDef{
		Title:   getString(coll.dialogue, "title"),
		NPC:     getString(coll.dialogue, "npc"),
		Author:  getString(coll.dialogue, "author"),
		Version: getString(coll.dialogue, "version"),
		Entry:   getString(coll.dialogue, "entry"),
		Intro:   getString(coll.dialogue, "intro"),
	}

	g := graph.New(def)

	for _, t := range coll.templates {
		g.AddTemplate(t.id, t.text)
	}

	for _, n := range coll.nodes {
		if err := g.AddNode(n.id); err != nil {
			return nil, err
		}
		if err := compileNode(g, n); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func compileNode(g *graph.Graph, n rawNode) error {
	if rules, ok := n.table.RawGetString("rules").(*lua.LTable); ok {
		var err error
		rules.ForEach(func(_, v lua.LValue) {
			if err != nil {
				return
			}
			ruleTbl, ok := v.(*lua.LTable)
			if !ok {
				err = fmt.Errorf("node %q: rules must be Rule(...) entries", n.id)
				return
			}
			var rule types.Rule
			rule, err = compileRule(n.id, ruleTbl)
			if err != nil {
				return
			}
			err = g.AddRule(n.id, rule)
		})
		if err != nil {
			return err
		}
	}

	if fb, ok := n.table.RawGetString("fallback").(*lua.LTable); ok {
		rule, err := compileRule(n.id, fb)
		if err != nil {
			return err
		}
		if err := g.SetFallback(n.id, rule); err != nil {
			return err
		}
	}
	return nil
}

func compileRule(nodeID string, tbl *lua.LTable) (types.Rule, error) {
	rule := types.Rule{
		ID:       getString(tbl, "id"),
		Priority: int(getNumber(tbl, "priority")),
		Target:   getString(tbl, "target"),
		Template: getString(tbl, "template"),
	}

	if condTbl, ok := tbl.RawGetString("condition").(*lua.LTable); ok {
		c, err := compileCondition(nodeID, condTbl)
		if err != nil {
			return rule, err
		}
		rule.Condition = &c
	}

	if effects, ok := tbl.RawGetString("effects").(*lua.LTable); ok {
		var err error
		effects.ForEach(func(_, v lua.LValue) {
			if err != nil {
				return
			}
			effTbl, ok := v.(*lua.LTable)
			if !ok {
				err = fmt.Errorf("node %q rule %q: effects must be Set/Inc/Toggle entries", nodeID, rule.ID)
				return
			}
			var m types.Mutation
			m, err = compileMutation(nodeID, rule.ID, effTbl)
			if err != nil {
				return
			}
			rule.Mutations = append(rule.Mutations, m)
		})
		if err != nil {
			return rule, err
		}
	}
	return rule, nil
}

func compileCondition(nodeID string, tbl *lua.LTable) (types.Condition, error) {
	c := types.Condition{
		Op:  types.Op(getString(tbl, "op")),
		Key: getString(tbl, "key"),
	}

	if v := tbl.RawGetString("value"); v != lua.LNil {
		c.Value = luaToValue(v)
	}

	if values, ok := tbl.RawGetString("values").(*lua.LTable); ok {
		values.ForEach(func(_, v lua.LValue) {
			c.Values = append(c.Values, luaToValue(v))
		})
	}

	if children, ok := tbl.RawGetString("children").(*lua.LTable); ok {
		var err error
		children.ForEach(func(_, v lua.LValue) {
			if err != nil {
				return
			}
			childTbl, ok := v.(*lua.LTable)
			if !ok {
				err = fmt.Errorf("node %q: combinator children must be condition tables", nodeID)
				return
			}
			var child types.Condition
			child, err = compileCondition(nodeID, childTbl)
			if err != nil {
				return
			}
			c.Children = append(c.Children, child)
		})
		if err != nil {
			return c, err
		}
	}
	return c, nil
}

func compileMutation(nodeID, ruleID string, tbl *lua.LTable) (types.Mutation, error) {
	m := types.Mutation{
		Op:  types.MutationOp(getString(tbl, "op")),
		Key: getString(tbl, "key"),
	}
	if v := tbl.RawGetString("value"); v != lua.LNil {
		m.Value = luaToValue(v)
	}
	if m.Op == "" || m.Key == "" {
		return m, fmt.Errorf("node %q rule %q: malformed effect table", nodeID, ruleID)
	}
	return m, nil
}

// luaToValue converts a Lua scalar to a fact value. Whole Lua numbers
// become ints — dialogue counters are the common case; fractional numbers
// stay floats. Anything non-scalar is treated as absent.
func luaToValue(v lua.LValue) types.Value {
	switch lv := v.(type) {
	case lua.LBool:
		return types.Bool(bool(lv))
	case lua.LNumber:
		f := float64(lv)
		if f == math.Trunc(f) {
			return types.Int(int64(f))
		}
		return types.Float(f)
	case lua.LString:
		return types.String(string(lv))
	default:
		return types.Absent()
	}
}

// getString reads a string field, returning "" when missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber reads a numeric field, returning 0 when missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}
