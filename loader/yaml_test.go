package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/dialoguecore/types"
)

const guardYAML = `
dialogue:
  title: Gate Guard
  npc: guard
  entry: greet
templates:
  greet_friendly: "The guard smiles. 'That makes {visits} visits.'"
  greet_neutral: "The guard looks you over. 'State your business.'"
  farewell: "The guard waves you off."
nodes:
  greet:
    rules:
      - id: friendly_greeting
        priority: 10
        target: friendly
        template: greet_friendly
        when: { op: gte, key: reputation, value: 50 }
        effects:
          - { op: inc, key: visits }
      - id: wary_greeting
        priority: 20
        target: neutral
        template: greet_neutral
        when:
          all:
            - { op: lt, key: reputation, value: 0 }
            - not: { op: eq, key: met_player, value: true }
    fallback:
      id: neutral_greeting
      target: neutral
      template: greet_neutral
  friendly:
    fallback:
      target: greet
      template: farewell
      effects:
        - { op: set, key: met_player, value: true }
  neutral:
    fallback:
      target: greet
      template: farewell
`

func TestParseYAML(t *testing.T) {
	g, err := ParseYAML([]byte(guardYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}

	if g.Def().Title != "Gate Guard" || g.Entry() != "greet" {
		t.Errorf("metadata = %+v", g.Def())
	}
	if !g.Validated() {
		t.Error("parsed graph is not validated")
	}

	greet, err := g.Node("greet")
	if err != nil {
		t.Fatal(err)
	}
	if len(greet.Rules) != 2 {
		t.Fatalf("greet has %d rules", len(greet.Rules))
	}

	first := greet.Rules[0]
	if first.Condition == nil || first.Condition.Op != types.OpGte {
		t.Errorf("condition = %+v", first.Condition)
	}
	if !first.Condition.Value.Equal(types.Int(50)) {
		t.Errorf("threshold = %s", first.Condition.Value)
	}
	if m := first.Mutations[0]; m.Op != types.MutInc || !m.Value.Equal(types.Int(1)) {
		t.Errorf("inc defaulted to %+v", m)
	}

	second := greet.Rules[1].Condition
	if second == nil || second.Op != types.OpAll || len(second.Children) != 2 {
		t.Fatalf("combinator = %+v", second)
	}
	if second.Children[1].Op != types.OpNot {
		t.Errorf("second child = %+v", second.Children[1])
	}

	if greet.Fallback == nil || greet.Fallback.Target != "neutral" {
		t.Errorf("fallback = %+v", greet.Fallback)
	}
}

func TestParseYAMLRejectsDanglingTemplate(t *testing.T) {
	bad := strings.Replace(guardYAML, "template: greet_friendly", "template: no_such_template", 1)
	_, err := ParseYAML([]byte(bad))
	if err == nil {
		t.Fatal("ParseYAML accepted a dangling template reference")
	}
	if !strings.Contains(err.Error(), "no_such_template") {
		t.Errorf("error does not name the template: %v", err)
	}
}

func TestParseYAMLRejectsConditionWithoutOp(t *testing.T) {
	bad := strings.Replace(guardYAML,
		"when: { op: gte, key: reputation, value: 50 }",
		"when: { key: reputation, value: 50 }", 1)
	if _, err := ParseYAML([]byte(bad)); err == nil {
		t.Fatal("ParseYAML accepted a condition without an op")
	}
}
