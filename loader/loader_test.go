package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/dialoguecore/types"
)

func TestLoad_GuardDialogue(t *testing.T) {
	g, err := Load("testdata/guard")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	def := g.Def()
	if def.Title != "Gate Guard" {
		t.Errorf("Title = %q", def.Title)
	}
	if def.NPC != "guard" {
		t.Errorf("NPC = %q", def.NPC)
	}
	if g.Entry() != "greet" {
		t.Errorf("Entry = %q", g.Entry())
	}
	if !g.Validated() {
		t.Error("loaded graph is not validated")
	}

	if nodes := g.Nodes(); len(nodes) != 3 {
		t.Errorf("got %d nodes: %v", len(nodes), nodes)
	}

	greet, err := g.Node("greet")
	if err != nil {
		t.Fatal(err)
	}
	if len(greet.Rules) != 2 {
		t.Fatalf("greet has %d rules", len(greet.Rules))
	}

	first := greet.Rules[0]
	if first.ID != "friendly_greeting" || first.Priority != 10 || first.Target != "friendly" {
		t.Errorf("first rule = %+v", first)
	}
	if first.SourceOrder != 0 || greet.Rules[1].SourceOrder != 1 {
		t.Error("source order not stamped in declaration order")
	}

	// Gte("reputation", 50) compiles to a numeric leaf with an int literal.
	c := first.Condition
	if c == nil || c.Op != types.OpGte || c.Key != "reputation" {
		t.Fatalf("condition = %+v", c)
	}
	if c.Value.Kind() != types.KindInt || !c.Value.Equal(types.Int(50)) {
		t.Errorf("condition value = %s (kind %v)", c.Value, c.Value.Kind())
	}

	// Inc("visits") defaults its amount to 1.
	if len(first.Mutations) != 1 {
		t.Fatalf("mutations = %+v", first.Mutations)
	}
	if m := first.Mutations[0]; m.Op != types.MutInc || m.Key != "visits" || !m.Value.Equal(types.Int(1)) {
		t.Errorf("mutation = %+v", m)
	}

	// All{ Lt(...), Not(Eq(...)) } compiles into a nested tree.
	second := greet.Rules[1].Condition
	if second == nil || second.Op != types.OpAll || len(second.Children) != 2 {
		t.Fatalf("combinator = %+v", second)
	}
	not := second.Children[1]
	if not.Op != types.OpNot || len(not.Children) != 1 || not.Children[0].Op != types.OpEq {
		t.Errorf("not branch = %+v", not)
	}

	if greet.Fallback == nil || greet.Fallback.ID != "neutral_greeting" {
		t.Errorf("fallback = %+v", greet.Fallback)
	}
	if greet.Fallback.Condition != nil {
		t.Error("fallback carries a condition")
	}

	if text, ok := g.Template("greet_friendly"); !ok || !strings.Contains(text, "{visits}") {
		t.Errorf("template greet_friendly = %q, %v", text, ok)
	}
}

func TestLoad_BrokenDialogueFailsValidation(t *testing.T) {
	_, err := Load("testdata/broken")
	if err == nil {
		t.Fatal("Load accepted a graph with a dangling target")
	}
	if !strings.Contains(err.Error(), "no_such_node") {
		t.Errorf("error does not name the dangling target: %v", err)
	}
}

func TestLoad_SandboxBlocksDofile(t *testing.T) {
	_, err := Load("testdata/unsafe")
	if err == nil {
		t.Fatal("Load executed a script that calls dofile")
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load("testdata/no_such_dir"); err == nil {
		t.Fatal("Load accepted a missing directory")
	}
}
