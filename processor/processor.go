// Package processor defines the plugin contract pipeline stages implement:
// a one-time Init against a per-pipeline Context, followed by any number of
// synchronous, non-blocking Process calls.
package processor

import (
	"github.com/ilogtail/core/model"
	"github.com/ilogtail/core/pipeline"
)

// Processor transforms one EventGroup into zero or more output groups. A
// Processor instance is initialized once per pipeline and then invoked
// repeatedly on the caller's goroutine; Process must never block on I/O.
type Processor interface {
	// Name returns a stable plugin identifier.
	Name() string
	// Init performs one-time compilation/validation against component
	// config and the owning pipeline's context. It returns false on any
	// configuration error; callers must not call Process after a false
	// return.
	Init(config map[string]interface{}, ctx *pipeline.Context) bool
	// Process appends zero or more transformed groups to out.
	Process(in *model.EventGroup, out *[]*model.EventGroup)
}
