// Package sourcebuffer implements the arena that backs zero-copy string
// views held by pipeline events.
package sourcebuffer

import (
	"sync/atomic"
)

// defaultChunkSize is the size of each arena segment. Appends larger than
// this get their own dedicated chunk so a single oversized record never
// wastes the rest of a segment.
const defaultChunkSize = 64 * 1024

// SourceBuffer is an append-only byte arena. It hands out StringViews that
// stay valid for the arena's lifetime: chunks are never relocated once
// allocated, so a view issued by Append remains valid no matter how much
// more data the arena later accumulates.
//
// Ownership is reference counted. NewSourceBuffer starts the count at one;
// every EventGroup (or other holder) that keeps the buffer alive calls
// Retain, and releases it with Release when done. The last Release clears
// the underlying chunks so they become eligible for collection immediately
// rather than waiting on a GC cycle to notice the arena is unreachable.
type SourceBuffer struct {
	chunks   [][]byte
	refcount int32
}

// NewSourceBuffer creates an empty arena with a refcount of one.
func NewSourceBuffer() *SourceBuffer {
	return &SourceBuffer{refcount: 1}
}

// StringView is a stable, zero-copy reference into a SourceBuffer. It is
// valid for as long as the issuing buffer has not reached a zero refcount.
type StringView struct {
	buf  *SourceBuffer
	data []byte
}

// Append copies b into the arena and returns a StringView over the copy.
// The returned view's bytes are immutable: nothing in this package ever
// mutates a chunk after Append returns.
func (s *SourceBuffer) Append(b []byte) StringView {
	if len(b) == 0 {
		return StringView{buf: s}
	}

	last := len(s.chunks) - 1
	if last >= 0 && cap(s.chunks[last])-len(s.chunks[last]) >= len(b) {
		chunk := s.chunks[last]
		start := len(chunk)
		chunk = append(chunk, b...)
		s.chunks[last] = chunk
		return StringView{buf: s, data: chunk[start:len(chunk):len(chunk)]}
	}

	size := defaultChunkSize
	if len(b) > size {
		size = len(b)
	}
	chunk := make([]byte, 0, size)
	chunk = append(chunk, b...)
	s.chunks = append(s.chunks, chunk)
	return StringView{buf: s, data: chunk[:len(chunk):len(chunk)]}
}

// AppendString is a convenience wrapper around Append for string input.
func (s *SourceBuffer) AppendString(str string) StringView {
	return s.Append([]byte(str))
}

// Retain increments the arena's refcount. Call once per additional holder
// (e.g. each EventGroup sharing this buffer beyond the one returned by
// NewSourceBuffer).
func (s *SourceBuffer) Retain() {
	atomic.AddInt32(&s.refcount, 1)
}

// Release decrements the arena's refcount, freeing the underlying chunks
// once the last holder releases it. Calling Release more times than the
// buffer was retained is a caller bug and panics, matching the fatal
// behavior of misused shared_ptr in the original implementation.
func (s *SourceBuffer) Release() {
	n := atomic.AddInt32(&s.refcount, -1)
	if n < 0 {
		panic("sourcebuffer: Release called more times than Retain")
	}
	if n == 0 {
		s.chunks = nil
	}
}

// Bytes returns the view's bytes. The slice must not be mutated by callers.
func (v StringView) Bytes() []byte {
	return v.data
}

// String returns a copy of the view's bytes as a string.
func (v StringView) String() string {
	if len(v.data) == 0 {
		return ""
	}
	return string(v.data)
}

// Len returns the number of bytes in the view.
func (v StringView) Len() int {
	return len(v.data)
}

// Empty reports whether the view carries no bytes.
func (v StringView) Empty() bool {
	return len(v.data) == 0
}

// Buffer returns the arena the view was issued from.
func (v StringView) Buffer() *SourceBuffer {
	return v.buf
}
