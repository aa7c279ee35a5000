package save

import (
	"testing"

	"github.com/nathoo/dialoguecore/engine"
	"github.com/nathoo/dialoguecore/engine/graph"
	"github.com/nathoo/dialoguecore/types"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	g := graph.New(types.DialogueDef{Title: "Gate Guard", Version: "1.0", Entry: "greet"})
	for _, id := range []string{"greet", "friendly"} {
		if err := g.AddNode(id); err != nil {
			t.Fatal(err)
		}
	}
	g.AddRule("greet", types.Rule{
		ID: "warm", Priority: 1, Target: "friendly", Template: "'Welcome.'",
		Condition: &types.Condition{Op: types.OpGte, Key: "reputation", Value: types.Int(50)},
	})
	g.SetFallback("greet", types.Rule{Target: "greet", Template: "'Hm.'"})
	g.SetFallback("friendly", types.Rule{Target: "greet", Template: "'Bye.'"})

	eng, err := engine.New(g)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestSaveLoadRoundTrip(t *testing.T) {
	eng := testEngine(t)
	sess := eng.NewSession()
	sess.Store.Set("reputation", types.Int(60))
	sess.Store.Set("mood", types.String("warm"))
	sess.Store.Set("gold", types.Float(12.5))

	if _, err := sess.Step("hello"); err != nil {
		t.Fatal(err)
	}

	data, err := Save(sess)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sd.Dialogue != "Gate Guard" || sd.Version != "1.0" {
		t.Errorf("metadata = %q v%q", sd.Dialogue, sd.Version)
	}
	if sd.Current != "friendly" || sd.Turns != 1 {
		t.Errorf("cursor = %q turn %d", sd.Current, sd.Turns)
	}

	restored := eng.NewSession()
	if err := Apply(restored, sd); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if restored.ID != sess.ID {
		t.Errorf("session id not restored: %q vs %q", restored.ID, sess.ID)
	}
	if restored.Current != "friendly" || restored.Turns != 1 {
		t.Errorf("restored cursor = %q turn %d", restored.Current, restored.Turns)
	}
	// Kinds survive the trip: gold stays a float, reputation stays an int.
	if v := restored.Store.Get("gold"); v.Kind() != types.KindFloat || !v.Equal(types.Float(12.5)) {
		t.Errorf("gold = %s (kind %v)", v, v.Kind())
	}
	if v := restored.Store.Get("reputation"); v.Kind() != types.KindInt {
		t.Errorf("reputation came back as kind %v", v.Kind())
	}
	if len(restored.SignalLog) != 1 || restored.SignalLog[0] != "hello" {
		t.Errorf("SignalLog = %v", restored.SignalLog)
	}
}

func TestLoadNormalizesNils(t *testing.T) {
	sd, err := Load([]byte(`{"current":"greet"}`))
	if err != nil {
		t.Fatal(err)
	}
	if sd.Facts == nil || sd.SignalLog == nil {
		t.Error("Load left nil collections")
	}
}

func TestApplyRejectsUnknownNode(t *testing.T) {
	eng := testEngine(t)
	sess := eng.NewSession()
	sd := &SaveData{Current: "removed_node"}
	if err := Apply(sess, sd); err == nil {
		t.Fatal("Apply accepted a node the graph does not contain")
	}
}
