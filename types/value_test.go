package types

import (
	"encoding/json"
	"testing"
)

func TestValueKinds(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"absent", Absent(), KindAbsent},
		{"zero value is absent", Value{}, KindAbsent},
		{"bool", Bool(true), KindBool},
		{"int", Int(7), KindInt},
		{"float", Float(2.5), KindFloat},
		{"string", String("hostile"), KindString},
	}
	for _, tt := range tests {
		if got := tt.v.Kind(); got != tt.kind {
			t.Errorf("%s: Kind() = %v, want %v", tt.name, got, tt.kind)
		}
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int == int", Int(3), Int(3), true},
		{"int != int", Int(3), Int(4), false},
		{"int == float numerically", Int(3), Float(3.0), true},
		{"float != int numerically", Float(3.5), Int(3), false},
		{"bool == bool", Bool(true), Bool(true), true},
		{"string == string", String("ally"), String("ally"), true},
		{"string != bool", String("true"), Bool(true), false},
		{"absent == absent", Absent(), Absent(), true},
		{"absent != int", Absent(), Int(0), false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValueComparable(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int with float", Int(1), Float(2), true},
		{"string with string", String("a"), String("b"), true},
		{"string with int", String("5"), Int(5), false},
		{"bool with int", Bool(true), Int(1), false},
		{"absent with anything", Absent(), Int(1), false},
		{"anything with absent", Int(1), Absent(), false},
		{"absent with absent", Absent(), Absent(), false},
	}
	for _, tt := range tests {
		if got := tt.a.Comparable(tt.b); got != tt.want {
			t.Errorf("%s: Comparable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValueCompare(t *testing.T) {
	if cmp, ok := Int(2).Compare(Float(2.5)); !ok || cmp != -1 {
		t.Errorf("Int(2).Compare(Float(2.5)) = %d, %v; want -1, true", cmp, ok)
	}
	if cmp, ok := Float(3).Compare(Int(3)); !ok || cmp != 0 {
		t.Errorf("Float(3).Compare(Int(3)) = %d, %v; want 0, true", cmp, ok)
	}
	if _, ok := String("9").Compare(Int(1)); ok {
		t.Error("string Compare should not be ok")
	}
	if _, ok := Absent().Compare(Int(1)); ok {
		t.Error("absent Compare should not be ok")
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	values := []Value{
		Absent(),
		Bool(false),
		Int(-42),
		Float(0.25),
		String("reputation"),
	}
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", v, err)
		}
		var got Value
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got.Kind() != v.Kind() || got != v {
			t.Errorf("round trip %s: got %s (kind %v)", v, got, got.Kind())
		}
	}
}

func TestValueJSONKeepsIntDistinctFromFloat(t *testing.T) {
	data, err := json.Marshal(Int(3))
	if err != nil {
		t.Fatal(err)
	}
	var got Value
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Kind() != KindInt {
		t.Errorf("Int(3) came back as kind %v", got.Kind())
	}
}
