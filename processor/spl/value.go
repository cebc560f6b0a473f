package spl

import "strconv"

// Kind tags the dynamic type of a Value, the tagged-variant design spec.md
// §9 calls for so coercion to a content-key string is explicit and
// one-directional.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindJSON // raw JSON text, e.g. the result of json_extract on an object/array
)

// Value is an SPL expression's runtime result.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

func nullValue() Value           { return Value{Kind: KindNull} }
func stringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func intValue(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func boolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func jsonValue(s string) Value   { return Value{Kind: KindJSON, Str: s} }

// AsString coerces v to its content-key string representation. This is the
// only direction coercion goes, and it is lossy: every Value maps to exactly
// one string, but distinct Values can share one (null and "" both give "",
// int 1 and string "1" both give "1"), and the reverse (string -> typed
// Value) is not attempted.
func (v Value) AsString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString, KindJSON:
		return v.Str
	default:
		return ""
	}
}

// Truthy reports whether v counts as true in a `where`/boolean context.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString, KindJSON:
		return v.Str != ""
	default:
		return false
	}
}

// Equal reports whether v and other compare equal as SPL's `=` operator
// defines it: same-kind-equivalent values compare by value; numeric kinds
// compare across Int/Float; everything else compares by string
// representation, which keeps `content = 'literal'` working regardless of
// whether content happens to be stored as a JSON or plain string Value.
func (v Value) Equal(other Value) bool {
	if v.Kind == KindInt && other.Kind == KindFloat {
		return float64(v.Int) == other.Float
	}
	if v.Kind == KindFloat && other.Kind == KindInt {
		return v.Float == float64(other.Int)
	}
	return v.AsString() == other.AsString()
}
