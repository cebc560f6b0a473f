package model

import (
	"github.com/ilogtail/core/sourcebuffer"
)

// MetaKey enumerates the closed set of group-level metadata keys. Unlike
// tags, this set cannot be extended by user configuration.
type MetaKey int

const (
	LogFilePath MetaKey = iota
	LogFilePathResolved
	LogFileInode
	SourceID
	Topic
	LogGroupKey
)

var metaKeyNames = map[MetaKey]string{
	LogFilePath:         "LOG_FILE_PATH",
	LogFilePathResolved: "LOG_FILE_PATH_RESOLVED",
	LogFileInode:        "LOG_FILE_INODE",
	SourceID:            "SOURCE_ID",
	Topic:               "TOPIC",
	LogGroupKey:         "LOGGROUP_KEY",
}

func (k MetaKey) String() string {
	if s, ok := metaKeyNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// EventGroup is a batch of events that share one SourceBuffer along with
// group-level metadata and tags. Every StringView reachable from the
// group's events, Metadata, or Tags must point into Buffer.
type EventGroup struct {
	Buffer *sourcebuffer.SourceBuffer

	Events []*LogEvent

	metadata map[MetaKey]sourcebuffer.StringView
	tagKeys  []string
	tags     map[string]sourcebuffer.StringView
}

// NewEventGroup creates an empty group owning buf. The caller transfers one
// reference to buf to the group; the group releases it when Close is
// called.
func NewEventGroup(buf *sourcebuffer.SourceBuffer) *EventGroup {
	return &EventGroup{
		Buffer:   buf,
		metadata: make(map[MetaKey]sourcebuffer.StringView),
		tags:     make(map[string]sourcebuffer.StringView),
	}
}

// Derive returns a new, empty-of-events group that shares g's SourceBuffer
// (retaining it) and starts with a copy of g's metadata and tags. SPL
// stages use this to avoid mutating a group that another `.let` consumer
// still needs to read from.
func (g *EventGroup) Derive() *EventGroup {
	out := NewEventGroup(g.Buffer)
	g.Buffer.Retain()
	for k, v := range g.metadata {
		out.metadata[k] = v
	}
	out.CloneTagsFrom(g)
	return out
}

// Close releases the group's reference on its SourceBuffer. Groups built by
// SPL stages that reuse the input's buffer must not call Close more than
// once per Retain.
func (g *EventGroup) Close() {
	if g.Buffer != nil {
		g.Buffer.Release()
	}
}

// AddEvent appends ev to the group.
func (g *EventGroup) AddEvent(ev *LogEvent) {
	g.Events = append(g.Events, ev)
}

// SetMetadata stores a string under key, copying it into the group's
// buffer.
func (g *EventGroup) SetMetadata(key MetaKey, value string) {
	g.metadata[key] = g.Buffer.AppendString(value)
}

// GetMetadata returns the string stored under key, or "" if absent.
func (g *EventGroup) GetMetadata(key MetaKey) string {
	if v, ok := g.metadata[key]; ok {
		return v.String()
	}
	return ""
}

// SetTag stores a string tag, copying it into the group's buffer. Tag keys
// conventionally carrying the TagPrefix are user-defined; all others are
// reserved for the importer/processors.
func (g *EventGroup) SetTag(key, value string) {
	if _, exists := g.tags[key]; !exists {
		g.tagKeys = append(g.tagKeys, key)
	}
	g.tags[key] = g.Buffer.AppendString(value)
}

// GetTag returns a tag's string value and whether it was present.
func (g *EventGroup) GetTag(key string) (string, bool) {
	v, ok := g.tags[key]
	if !ok {
		return "", false
	}
	return v.String(), true
}

// DeleteTag removes a tag, if present.
func (g *EventGroup) DeleteTag(key string) {
	if _, ok := g.tags[key]; !ok {
		return
	}
	delete(g.tags, key)
	for i, k := range g.tagKeys {
		if k == key {
			g.tagKeys = append(g.tagKeys[:i], g.tagKeys[i+1:]...)
			break
		}
	}
}

// TagKeys returns tag keys in insertion order.
func (g *EventGroup) TagKeys() []string {
	return g.tagKeys
}

// CloneTagsFrom copies every tag from src into g, sharing src's buffer
// bytes directly if the two groups share a buffer, or re-appending the
// bytes into g's own buffer otherwise.
func (g *EventGroup) CloneTagsFrom(src *EventGroup) {
	for _, k := range src.tagKeys {
		v := src.tags[k]
		if src.Buffer == g.Buffer {
			g.tagKeys = append(g.tagKeys, k)
			g.tags[k] = v
		} else {
			g.SetTag(k, v.String())
		}
	}
}
