package pipeline

import "sync/atomic"

// ProcessProfile holds the per-pipeline counters that reset between flush
// windows. All fields are updated only by the processor goroutine servicing
// this pipeline (see spec.md §5), so plain int64s with atomic access are
// enough: no cross-thread writers, but atomics let status-reporting code
// read them from another goroutine without a data race.
type ProcessProfile struct {
	ReadBytes          int64
	SkipBytes          int64
	FeedLines          int64
	SplitLines         int64
	ParseFailures      int64
	RegexMatchFailures int64
	ParseTimeFailures  int64
	HistoryFailures    int64
	LogGroupSize       int64
}

// AddReadBytes atomically adds n to ReadBytes.
func (p *ProcessProfile) AddReadBytes(n int64) { atomic.AddInt64(&p.ReadBytes, n) }

// AddSkipBytes atomically adds n to SkipBytes.
func (p *ProcessProfile) AddSkipBytes(n int64) { atomic.AddInt64(&p.SkipBytes, n) }

// AddFeedLines atomically adds n to FeedLines.
func (p *ProcessProfile) AddFeedLines(n int64) { atomic.AddInt64(&p.FeedLines, n) }

// AddSplitLines atomically adds n to SplitLines.
func (p *ProcessProfile) AddSplitLines(n int64) { atomic.AddInt64(&p.SplitLines, n) }

// AddParseFailures atomically adds n to ParseFailures.
func (p *ProcessProfile) AddParseFailures(n int64) { atomic.AddInt64(&p.ParseFailures, n) }

// AddRegexMatchFailures atomically adds n to RegexMatchFailures.
func (p *ProcessProfile) AddRegexMatchFailures(n int64) {
	atomic.AddInt64(&p.RegexMatchFailures, n)
}

// AddParseTimeFailures atomically adds n to ParseTimeFailures.
func (p *ProcessProfile) AddParseTimeFailures(n int64) {
	atomic.AddInt64(&p.ParseTimeFailures, n)
}

// AddHistoryFailures atomically adds n to HistoryFailures.
func (p *ProcessProfile) AddHistoryFailures(n int64) {
	atomic.AddInt64(&p.HistoryFailures, n)
}

// AddLogGroupSize atomically adds n to LogGroupSize.
func (p *ProcessProfile) AddLogGroupSize(n int64) { atomic.AddInt64(&p.LogGroupSize, n) }

// Reset zeroes every counter, called between flush windows.
func (p *ProcessProfile) Reset() {
	atomic.StoreInt64(&p.ReadBytes, 0)
	atomic.StoreInt64(&p.SkipBytes, 0)
	atomic.StoreInt64(&p.FeedLines, 0)
	atomic.StoreInt64(&p.SplitLines, 0)
	atomic.StoreInt64(&p.ParseFailures, 0)
	atomic.StoreInt64(&p.RegexMatchFailures, 0)
	atomic.StoreInt64(&p.ParseTimeFailures, 0)
	atomic.StoreInt64(&p.HistoryFailures, 0)
	atomic.StoreInt64(&p.LogGroupSize, 0)
}
