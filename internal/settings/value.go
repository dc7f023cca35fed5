package settings

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindString
	KindSize
	KindEnum
	KindStringList
)

var kindNames = map[Kind]string{
	KindNull:       "null",
	KindBool:       "bool",
	KindInt:        "int",
	KindString:     "string",
	KindSize:       "size",
	KindEnum:       "enum",
	KindStringList: "strings",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func parseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindNull, false
}

// Dimensions is a width×height pair, used for window geometry.
type Dimensions struct {
	Width  int `json:"w"`
	Height int `json:"h"`
}

func (d Dimensions) String() string { return fmt.Sprintf("%dx%d", d.Width, d.Height) }

// Value is a tagged setting value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	s    string
	size Dimensions
	list []string
}

func Null() Value                 { return Value{} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func String(s string) Value       { return Value{kind: KindString, s: s} }
func Size(w, h int) Value         { return Value{kind: KindSize, size: Dimensions{Width: w, Height: h}} }
func Enum(ordinal int) Value      { return Value{kind: KindEnum, i: int64(ordinal)} }
func StringList(l []string) Value { return Value{kind: KindStringList, list: slices.Clone(nonNil(l))} }

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool reports the value as a boolean. Strings "true"/"1" are true.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt, KindEnum:
		return v.i != 0
	case KindString:
		b, _ := strconv.ParseBool(v.s)
		return b
	}
	return false
}

// AsInt reports the value as an integer. Numeric strings are converted,
// since mirrored desktop values arrive as text.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt, KindEnum:
		return v.i, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt, KindEnum:
		return strconv.FormatInt(v.i, 10)
	case KindSize:
		return v.size.String()
	case KindStringList:
		return strings.Join(v.list, ",")
	}
	return ""
}

func (v Value) AsSize() (Dimensions, bool) {
	return v.size, v.kind == KindSize
}

func (v Value) AsStringList() []string {
	if v.kind != KindStringList {
		return nil
	}
	return slices.Clone(v.list)
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt, KindEnum:
		return v.i == o.i
	case KindString:
		return v.s == o.s
	case KindSize:
		return v.size == o.size
	case KindStringList:
		return slices.Equal(v.list, o.list)
	}
	return true
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.AsString()
}

type wireValue struct {
	Kind string          `json:"kind"`
	V    json.RawMessage `json:"v,omitempty"`
}

// MarshalJSON encodes the value as {"kind":"int","v":25}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindNull:
		return json.Marshal(wireValue{Kind: v.kind.String()})
	case KindBool:
		payload = v.b
	case KindInt, KindEnum:
		payload = v.i
	case KindString:
		payload = v.s
	case KindSize:
		payload = v.size
	case KindStringList:
		payload = nonNil(v.list)
	default:
		return nil, fmt.Errorf("settings: cannot encode kind %d", v.kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Kind: v.kind.String(), V: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, ok := parseKind(w.Kind)
	if !ok {
		return fmt.Errorf("settings: unknown value kind %q", w.Kind)
	}
	out := Value{kind: kind}
	var err error
	switch kind {
	case KindNull:
	case KindBool:
		err = json.Unmarshal(w.V, &out.b)
	case KindInt, KindEnum:
		err = json.Unmarshal(w.V, &out.i)
	case KindString:
		err = json.Unmarshal(w.V, &out.s)
	case KindSize:
		err = json.Unmarshal(w.V, &out.size)
	case KindStringList:
		err = json.Unmarshal(w.V, &out.list)
		out.list = nonNil(out.list)
	}
	if err != nil {
		return fmt.Errorf("settings: decode %s value: %w", kind, err)
	}
	*v = out
	return nil
}

// ParseValue reads either the JSON wire form or a bare literal. Bare
// literals become Int, Bool, or String in that order of preference.
func ParseValue(s string) Value {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") {
		var v Value
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return Int(i)
	}
	switch trimmed {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return String(s)
}
