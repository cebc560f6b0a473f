// Package alarm is a stand-in for LogtailAlarm: a keyed counter of
// critical, user-visible errors. The real alarm transport (paging,
// dashboards) is out of scope; this package only tracks counts and logs
// through the caller's logger so tests can assert on what would have
// alarmed.
package alarm

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Key identifies an alarm series the way LogtailAlarm keys on
// (project, logstore, category).
type Key struct {
	Project  string
	Logstore string
	Category string
}

// Counter is a process-wide registry of alarm counts.
type Counter struct {
	mu     sync.Mutex
	counts map[Key]int64
}

// NewCounter returns an empty alarm registry.
func NewCounter() *Counter {
	return &Counter{counts: make(map[Key]int64)}
}

// Raise increments the counter for key and logs a critical line through
// logger.
func (c *Counter) Raise(logger logrus.FieldLogger, key Key, reason string) {
	c.mu.Lock()
	c.counts[key]++
	n := c.counts[key]
	c.mu.Unlock()

	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"project":  key.Project,
		"logstore": key.Logstore,
		"category": key.Category,
		"count":    n,
	}).Error(reason)
}

// Count returns the current count for key.
func (c *Counter) Count(key Key) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}
