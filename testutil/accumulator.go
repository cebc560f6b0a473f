// Package testutil provides a mock downstream collector for tests that
// exercise a processor.Processor end to end, the way telegraf's own
// testutil.Accumulator stands in for a real output in plugin tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ilogtail/core/model"
)

// Accumulator collects every EventGroup a processor under test emits.
type Accumulator struct {
	mu     sync.Mutex
	Groups []*model.EventGroup
}

// Add appends one or more output groups, the shape Processor.Process
// produces.
func (a *Accumulator) Add(groups ...*model.EventGroup) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Groups = append(a.Groups, groups...)
}

// NEvents returns the total number of events across every accumulated
// group.
func (a *Accumulator) NEvents() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, g := range a.Groups {
		n += len(g.Events)
	}
	return n
}

// AllContents returns every event's value for key, across every
// accumulated group, in group/event order.
func (a *Accumulator) AllContents(key string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, g := range a.Groups {
		for _, ev := range g.Events {
			if v, ok := ev.Get(key); ok {
				out = append(out, v.String())
			}
		}
	}
	return out
}

// AssertContainsContent fails t unless some accumulated event has want as
// its value for key.
func (a *Accumulator) AssertContainsContent(t *testing.T, key, want string) {
	t.Helper()
	for _, v := range a.AllContents(key) {
		if v == want {
			return
		}
	}
	assert.Fail(t, fmt.Sprintf("no event found with %s=%q", key, want))
}

// AssertNumGroups fails t unless exactly n groups were accumulated.
func (a *Accumulator) AssertNumGroups(t *testing.T, n int) {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Len(t, a.Groups, n)
}
