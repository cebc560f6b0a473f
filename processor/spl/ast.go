package spl

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ilogtail/core/model"
)

// evalEnv is the per-event environment an expression evaluates against.
// stats is optional and, when set, receives failure counts from calls like
// json_extract that can miss.
type evalEnv struct {
	event *model.LogEvent
	group *model.EventGroup
	stats *Stats
}

func (e *evalEnv) lookup(name string) Value {
	if strings.HasPrefix(name, model.TagPrefix) {
		key := strings.TrimPrefix(name, model.TagPrefix)
		if v, ok := e.group.GetTag(key); ok {
			return stringValue(v)
		}
		return nullValue()
	}
	if v, ok := e.event.Get(name); ok {
		return stringValue(v.String())
	}
	return nullValue()
}

// expr is an SPL expression-language node.
type expr interface {
	eval(env *evalEnv) Value
}

type colRef struct{ name string }

func (c colRef) eval(env *evalEnv) Value { return env.lookup(c.name) }

type stringLit struct{ value string }

func (s stringLit) eval(*evalEnv) Value { return stringValue(s.value) }

type intLit struct{ value int64 }

func (n intLit) eval(*evalEnv) Value { return intValue(n.value) }

type binOp struct {
	op          tokenKind // tokEq, tokNeq, tokAnd, tokOr
	left, right expr
}

func (b binOp) eval(env *evalEnv) Value {
	switch b.op {
	case tokAnd:
		return boolValue(b.left.eval(env).Truthy() && b.right.eval(env).Truthy())
	case tokOr:
		return boolValue(b.left.eval(env).Truthy() || b.right.eval(env).Truthy())
	case tokEq:
		return boolValue(b.left.eval(env).Equal(b.right.eval(env)))
	case tokNeq:
		return boolValue(!b.left.eval(env).Equal(b.right.eval(env)))
	}
	return nullValue()
}

type notOp struct{ inner expr }

func (n notOp) eval(env *evalEnv) Value {
	return boolValue(!n.inner.eval(env).Truthy())
}

// jsonExtractCall implements json_extract(expr, '$.path'): on a missing
// path or a type that can't be navigated, it returns an empty string and
// bumps env.stats.ParseFailures, matching spec.md §4.E.
type jsonExtractCall struct {
	arg  expr
	path string
}

func (j jsonExtractCall) eval(env *evalEnv) Value {
	input := j.arg.eval(env).AsString()
	path := strings.TrimPrefix(j.path, "$.")
	path = strings.TrimPrefix(path, "$")
	res := gjson.Get(input, path)
	if !res.Exists() {
		if env.stats != nil {
			env.stats.ParseFailures++
		}
		return stringValue("")
	}
	if res.IsObject() || res.IsArray() {
		return jsonValue(res.Raw)
	}
	return stringValue(res.String())
}

// toJSONCall implements to_json(col): it re-serializes the current event's
// entire content map as a JSON object. This is the decision recorded in
// DESIGN.md for spec.md §8's round-trip property, where `content` has
// already been flattened into top-level keys by an earlier parse-json
// stage and to_json reconstructs the original object from those keys.
type toJSONCall struct{}

func (toJSONCall) eval(env *evalEnv) Value {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for _, k := range env.event.Keys() {
		v, _ := env.event.Get(k)
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(jsonQuote(k))
		b.WriteByte(':')
		b.WriteString(jsonQuote(v.String()))
	}
	b.WriteByte('}')
	return jsonValue(b.String())
}

func jsonQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
