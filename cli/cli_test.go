package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nathoo/dialoguecore/engine"
	"github.com/nathoo/dialoguecore/engine/graph"
	"github.com/nathoo/dialoguecore/types"
)

func testCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	g := graph.New(types.DialogueDef{Title: "Gate Guard", NPC: "guard", Entry: "greet",
		Intro: "A guard blocks the gate."})
	for _, id := range []string{"greet", "friendly"} {
		if err := g.AddNode(id); err != nil {
			t.Fatal(err)
		}
	}
	g.AddRule("greet", types.Rule{
		ID: "warm", Priority: 10, Target: "friendly",
		Template: "The guard smiles. 'Welcome back.'",
		Condition: &types.Condition{
			Op: types.OpGte, Key: "reputation", Value: types.Int(50)},
	})
	g.SetFallback("greet", types.Rule{
		ID: "flat", Target: "greet", Template: "The guard grunts. 'Move along.'"})
	g.SetFallback("friendly", types.Rule{
		Target: "greet", Template: "The guard nods you through."})

	eng, err := engine.New(g)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	c := New(eng)
	c.In = strings.NewReader(input)
	c.Out = &out
	return c, &out
}

func TestRunPrintsIntroAndOpeningLine(t *testing.T) {
	c, out := testCLI(t, "/quit\n")
	c.Run()

	got := out.String()
	for _, want := range []string{
		"A guard blocks the gate.",
		"The guard grunts. 'Move along.'", // reputation unset → fallback
		"[Goodbye.]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestSetFactChangesRouting(t *testing.T) {
	c, out := testCLI(t, "/set reputation 60\nhello\n/quit\n")
	c.Run()

	got := out.String()
	if !strings.Contains(got, "[Set reputation = 60.]") {
		t.Errorf("missing /set confirmation:\n%s", got)
	}
	if !strings.Contains(got, "The guard smiles. 'Welcome back.'") {
		t.Errorf("raised reputation did not route to the friendly rule:\n%s", got)
	}
}

func TestStateDumpAndComments(t *testing.T) {
	c, out := testCLI(t, "# just a comment\n/set mood warm\n/state\n/quit\n")
	c.Run()

	got := out.String()
	if strings.Contains(got, "just a comment") {
		t.Error("comment line was processed")
	}
	for _, want := range []string{"[Node: greet]", "[  mood = warm]"} {
		if !strings.Contains(got, want) {
			t.Errorf("state dump missing %q:\n%s", want, got)
		}
	}
}

func TestTraceOutput(t *testing.T) {
	c, out := testCLI(t, "/trace\nhello\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "[trace]") {
		t.Errorf("no trace lines after /trace:\n%s", out.String())
	}
}

func TestUnknownMetaCommand(t *testing.T) {
	c, out := testCLI(t, "/frobnicate\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Unknown command: /frobnicate") {
		t.Errorf("missing unknown-command message:\n%s", out.String())
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want types.Value
	}{
		{"true", types.Bool(true)},
		{"false", types.Bool(false)},
		{"absent", types.Absent()},
		{"42", types.Int(42)},
		{"-7", types.Int(-7)},
		{"2.5", types.Float(2.5)},
		{"warm", types.String("warm")},
		{"60s", types.String("60s")},
	}
	for _, tt := range tests {
		got := ParseValue(tt.in)
		if got.Kind() != tt.want.Kind() || got != tt.want {
			t.Errorf("ParseValue(%q) = %s (kind %v), want %s", tt.in, got, got.Kind(), tt.want)
		}
	}
}
