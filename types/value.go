package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the concrete type held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "absent"
	}
}

// Value is a typed world-state fact. The zero value is Absent — a queried
// but unset fact, which is representable and never an error.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Absent returns the "no such fact" sentinel.
func Absent() Value { return Value{} }

// Bool wraps a boolean fact value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer fact value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating-point fact value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps an enumerated string fact value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind reports the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is the absent sentinel.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsBool returns the boolean payload. ok is false for non-bool values.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns the integer payload. ok is false for non-int values.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the numeric payload as a float64. Both int and float
// values qualify; ok is false otherwise.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// AsString returns the string payload. ok is false for non-string values.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// IsNumeric reports whether the value is an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Comparable reports whether two values can be meaningfully compared:
// same kind, or both numeric. Absent is comparable to nothing.
func (v Value) Comparable(o Value) bool {
	if v.kind == KindAbsent || o.kind == KindAbsent {
		return false
	}
	if v.IsNumeric() && o.IsNumeric() {
		return true
	}
	return v.kind == o.kind
}

// Equal reports semantic equality. Int and float compare numerically, so
// Int(3) equals Float(3.0). Absent equals only Absent.
func (v Value) Equal(o Value) bool {
	if v.kind == KindAbsent || o.kind == KindAbsent {
		return v.kind == o.kind
	}
	if v.IsNumeric() && o.IsNumeric() {
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	}
	return false
}

// Compare orders two numeric values: -1, 0, or +1. ok is false when either
// side is non-numeric, including absent.
func (v Value) Compare(o Value) (int, bool) {
	a, okA := v.AsFloat()
	b, okB := o.AsFloat()
	if !okA || !okB {
		return 0, false
	}
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	default:
		return 0, true
	}
}

// String renders the value for display and fingerprinting.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return "<absent>"
	}
}

// jsonValue is the tagged wire form, so int and float survive a round trip.
type jsonValue struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

// MarshalJSON encodes the value with an explicit kind tag.
func (v Value) MarshalJSON() ([]byte, error) {
	jv := jsonValue{T: v.kind.String()}
	switch v.kind {
	case KindAbsent:
		return json.Marshal(jv)
	case KindBool:
		raw, _ := json.Marshal(v.b)
		jv.V = raw
	case KindInt:
		raw, _ := json.Marshal(v.i)
		jv.V = raw
	case KindFloat:
		raw, _ := json.Marshal(v.f)
		jv.V = raw
	case KindString:
		raw, _ := json.Marshal(v.s)
		jv.V = raw
	}
	return json.Marshal(jv)
}

// UnmarshalJSON decodes the tagged wire form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.T {
	case "absent", "":
		*v = Absent()
	case "bool":
		var b bool
		if err := json.Unmarshal(jv.V, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case "int":
		var i int64
		if err := json.Unmarshal(jv.V, &i); err != nil {
			return err
		}
		*v = Int(i)
	case "float":
		var f float64
		if err := json.Unmarshal(jv.V, &f); err != nil {
			return err
		}
		*v = Float(f)
	case "string":
		var s string
		if err := json.Unmarshal(jv.V, &s); err != nil {
			return err
		}
		*v = String(s)
	default:
		return fmt.Errorf("unknown value kind %q", jv.T)
	}
	return nil
}
