package model

import (
	"github.com/ilogtail/core/sourcebuffer"
)

// DefaultContentKey is the content key the history importer writes a raw
// log record under.
const DefaultContentKey = "content"

// TagPrefix marks a key, in either content or SPL rename targets, as
// belonging to the group's tag set rather than its per-event content.
const TagPrefix = "__tag__:"

// EventMeta records where in the source file an event's bytes came from.
type EventMeta struct {
	ReadOffset int64
	ReadLength int64
}

// LogEvent is a single parsed log record: an ordered content mapping plus
// timing and source-position metadata. Insertion order of Contents is
// preserved so processors that round-trip content back to JSON/CSV keep a
// stable field order.
type LogEvent struct {
	Timestamp   int64 // seconds
	TimestampNs int64

	keys   []string
	values map[string]sourcebuffer.StringView

	Meta EventMeta
}

// NewLogEvent returns an event with no content set.
func NewLogEvent() *LogEvent {
	return &LogEvent{values: make(map[string]sourcebuffer.StringView)}
}

// Clone returns a deep-enough copy of the event: the key order and value
// views are copied, but the underlying SourceBuffer bytes are shared.
func (e *LogEvent) Clone() *LogEvent {
	c := &LogEvent{
		Timestamp:   e.Timestamp,
		TimestampNs: e.TimestampNs,
		Meta:        e.Meta,
		keys:        append([]string(nil), e.keys...),
		values:      make(map[string]sourcebuffer.StringView, len(e.values)),
	}
	for k, v := range e.values {
		c.values[k] = v
	}
	return c
}

// Get returns the view stored under key, if any.
func (e *LogEvent) Get(key string) (sourcebuffer.StringView, bool) {
	v, ok := e.values[key]
	return v, ok
}

// GetContent returns the string content for key, or "" if absent.
func (e *LogEvent) GetContent(key string) string {
	if v, ok := e.values[key]; ok {
		return v.String()
	}
	return ""
}

// Set stores a view under key, appending it to the insertion order the
// first time the key is seen.
func (e *LogEvent) Set(key string, value sourcebuffer.StringView) {
	if e.values == nil {
		e.values = make(map[string]sourcebuffer.StringView)
	}
	if _, exists := e.values[key]; !exists {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

// SetString is a convenience wrapper that appends str to buf and stores the
// resulting view under key.
func (e *LogEvent) SetString(buf *sourcebuffer.SourceBuffer, key, str string) {
	e.Set(key, buf.AppendString(str))
}

// Delete removes key from the event, if present.
func (e *LogEvent) Delete(key string) {
	if _, ok := e.values[key]; !ok {
		return
	}
	delete(e.values, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the content keys in insertion order.
func (e *LogEvent) Keys() []string {
	return e.keys
}

// Rename moves the value stored under from to to, preserving to's position
// if it already existed, or from's position otherwise. It is a no-op if
// from is absent.
func (e *LogEvent) Rename(from, to string) bool {
	v, ok := e.values[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	if _, exists := e.values[to]; exists {
		e.Delete(from)
		e.values[to] = v
		return true
	}
	for i, k := range e.keys {
		if k == from {
			e.keys[i] = to
			break
		}
	}
	delete(e.values, from)
	e.values[to] = v
	return true
}
