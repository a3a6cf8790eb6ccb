package toolspec

import (
	"encoding/json"
	"fmt"

	"github.com/ollamabot/agentcore/pkg/apperrors"
)

// Value is the tagged-value argument bag described in spec §9: the
// source represents tool call arguments as an untyped string->Any map;
// here that becomes a closed sum type parsed once at the tool-call
// boundary, with typed extractors that centralise coercion (notably the
// "string that contains an int" case the source tolerated).
type Value struct {
	kind   valueKind
	str    string
	num    float64
	boolv  bool
	list   []Value
	object map[string]Value
}

type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindInt
	kindBool
	kindList
	kindObject
)

func NullValue() Value                  { return Value{kind: kindNull} }
func StringValue(s string) Value        { return Value{kind: kindString, str: s} }
func IntValue(n int) Value              { return Value{kind: kindInt, num: float64(n)} }
func BoolValue(b bool) Value            { return Value{kind: kindBool, boolv: b} }
func ListValue(items []Value) Value     { return Value{kind: kindList, list: items} }
func ObjectValue(m map[string]Value) Value {
	return Value{kind: kindObject, object: m}
}

// Args is the decoded argument bag of a ToolCall: name -> Value.
type Args map[string]Value

// FromAny parses an arbitrary decoded-JSON value (as produced by
// encoding/json's map[string]any) into a Value, recursively.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case float64:
		return Value{kind: kindInt, num: t}
	case int:
		return IntValue(t)
	case []any:
		items := make([]Value, 0, len(t))
		for _, it := range t {
			items = append(items, FromAny(it))
		}
		return ListValue(items)
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, vv := range t {
			obj[k] = FromAny(vv)
		}
		return ObjectValue(obj)
	default:
		b, _ := json.Marshal(t)
		return StringValue(string(b))
	}
}

// ArgsFromMap builds an Args bag from a decoded-JSON map[string]any.
func ArgsFromMap(m map[string]any) Args {
	args := make(Args, len(m))
	for k, v := range m {
		args[k] = FromAny(v)
	}
	return args
}

// GetString extracts a string argument, accepting a JSON number or bool
// coerced to its textual form (the source's "stringly typed" leniency).
func (a Args) GetString(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", apperrors.New(apperrors.KindArgMissing, fmt.Sprintf("missing required argument %q", name))
	}
	switch v.kind {
	case kindString:
		return v.str, nil
	case kindInt:
		return fmt.Sprintf("%v", v.num), nil
	case kindBool:
		return fmt.Sprintf("%v", v.boolv), nil
	default:
		return "", apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("argument %q is not a string", name))
	}
}

// GetStringOr is GetString with a default when the key is absent.
func (a Args) GetStringOr(name, fallback string) string {
	s, err := a.GetString(name)
	if err != nil {
		return fallback
	}
	return s
}

// GetInt extracts an integer argument, accepting a numeric string (the
// source's "string that contains an int" case).
func (a Args) GetInt(name string) (int, error) {
	v, ok := a[name]
	if !ok {
		return 0, apperrors.New(apperrors.KindArgMissing, fmt.Sprintf("missing required argument %q", name))
	}
	switch v.kind {
	case kindInt:
		return int(v.num), nil
	case kindString:
		var n int
		if _, err := fmt.Sscanf(v.str, "%d", &n); err != nil {
			return 0, apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("argument %q is not an integer", name))
		}
		return n, nil
	default:
		return 0, apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("argument %q is not an integer", name))
	}
}

// GetIntOr is GetInt with a default when the key is absent or unparseable.
func (a Args) GetIntOr(name string, fallback int) int {
	n, err := a.GetInt(name)
	if err != nil {
		return fallback
	}
	return n
}

// GetBool extracts a boolean argument, accepting "true"/"false" strings.
func (a Args) GetBool(name string) (bool, error) {
	v, ok := a[name]
	if !ok {
		return false, apperrors.New(apperrors.KindArgMissing, fmt.Sprintf("missing required argument %q", name))
	}
	switch v.kind {
	case kindBool:
		return v.boolv, nil
	case kindString:
		switch v.str {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("argument %q is not a boolean", name))
}

// GetBoolOr is GetBool with a default when the key is absent or unparseable.
func (a Args) GetBoolOr(name string, fallback bool) bool {
	b, err := a.GetBool(name)
	if err != nil {
		return fallback
	}
	return b
}

// GetObjectList extracts a list-of-objects argument (e.g. multi_edit's
// edits array).
func (a Args) GetObjectList(name string) ([]Args, error) {
	v, ok := a[name]
	if !ok {
		return nil, apperrors.New(apperrors.KindArgMissing, fmt.Sprintf("missing required argument %q", name))
	}
	if v.kind != kindList {
		return nil, apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("argument %q is not a list", name))
	}
	out := make([]Args, 0, len(v.list))
	for _, item := range v.list {
		if item.kind != kindObject {
			return nil, apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("argument %q contains a non-object element", name))
		}
		out = append(out, Args(item.object))
	}
	return out, nil
}

// GetStringList extracts a list-of-strings argument (e.g. batch_read's
// paths array).
func (a Args) GetStringList(name string) ([]string, error) {
	v, ok := a[name]
	if !ok {
		return nil, apperrors.New(apperrors.KindArgMissing, fmt.Sprintf("missing required argument %q", name))
	}
	if v.kind != kindList {
		return nil, apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("argument %q is not a list", name))
	}
	out := make([]string, 0, len(v.list))
	for _, item := range v.list {
		if item.kind != kindString {
			return nil, apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("argument %q contains a non-string element", name))
		}
		out = append(out, item.str)
	}
	return out, nil
}

// Raw returns the Value unwrapped into a plain `any` for serialisation.
func (v Value) Raw() any {
	switch v.kind {
	case kindString:
		return v.str
	case kindInt:
		return v.num
	case kindBool:
		return v.boolv
	case kindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Raw()
		}
		return out
	case kindObject:
		out := make(map[string]any, len(v.object))
		for k, item := range v.object {
			out[k] = item.Raw()
		}
		return out
	default:
		return nil
	}
}

// RawMap converts an Args bag into map[string]any, e.g. for JSON encoding
// of the executor's canonical cache key.
func (a Args) RawMap() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v.Raw()
	}
	return out
}
