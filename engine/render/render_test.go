package render

import (
	"reflect"
	"testing"

	"github.com/nathoo/dialoguecore/engine/state"
	"github.com/nathoo/dialoguecore/types"
)

func TestRender(t *testing.T) {
	snap := state.FromMap(map[string]types.Value{
		"name":   types.String("Brennan"),
		"visits": types.Int(2),
		"gold":   types.Float(12.5),
		"ally":   types.Bool(true),
	}).Snapshot()

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "The guard waves.", "The guard waves."},
		{"string fact", "'Well met, {name}.'", "'Well met, Brennan.'"},
		{"int fact", "'That makes {visits} visits.'", "'That makes 2 visits.'"},
		{"float fact", "'You owe {gold} gold.'", "'You owe 12.5 gold.'"},
		{"bool fact", "ally={ally}", "ally=true"},
		{"absent renders empty", "'Ah, {stranger}.'", "'Ah, .'"},
		{"repeated key", "{name}, {name}!", "Brennan, Brennan!"},
		{"unclosed brace passes through", "a { b", "a { b"},
		{"braced whitespace passes through", "a {not a key} b", "a {not a key} b"},
		{"empty braces pass through", "{} ok", "{} ok"},
	}
	for _, tt := range tests {
		if got := Render(tt.template, snap); got != tt.want {
			t.Errorf("%s: Render(%q) = %q, want %q", tt.name, tt.template, got, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		template string
		want     []string
	}{
		{"plain text", nil},
		{"'Well met, {name}.'", []string{"name"}},
		{"{a} and {b} and {a}", []string{"a", "b"}},
		{"{} {not a key} {real}", []string{"real"}},
		{"dangling {", nil},
	}
	for _, tt := range tests {
		if got := Keys(tt.template); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Keys(%q) = %v, want %v", tt.template, got, tt.want)
		}
	}
}
