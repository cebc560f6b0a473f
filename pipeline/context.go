// Package pipeline implements the per-pipeline runtime context that every
// reader and processor instance is handed a reference to at init time.
package pipeline

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/ilogtail/core/alarm"
	"github.com/ilogtail/core/config"
)

// LogstoreKey is the opaque 64-bit destination-queue identifier derived
// from a pipeline's (project, logstore, region).
type LogstoreKey uint64

// keySeparator matches the "#$#" delimiter telegraf's own metric/tag
// serialization helpers use to join composite string keys, reused here so
// the hashed key has no ambiguity between e.g. ("ab", "c") and ("a", "bc").
const keySeparator = "#$#"

// ComputeLogstoreKey hashes project, logstore and region into a stable
// 64-bit destination key.
func ComputeLogstoreKey(project, logstore, region string) LogstoreKey {
	h := xxhash.New()
	_, _ = h.WriteString(project)
	_, _ = h.WriteString(keySeparator)
	_, _ = h.WriteString(logstore)
	_, _ = h.WriteString(keySeparator)
	_, _ = h.WriteString(region)
	return LogstoreKey(h.Sum64())
}

// Context is the per-pipeline handle described in spec.md §4.F. It is
// non-copyable by convention: always pass *Context, never Context, and
// never retain it past the pipeline's teardown.
type Context struct {
	ConfigName string
	CreateTime time.Time

	Project  string
	Logstore string
	Region   string

	GlobalConfig config.GlobalConfig

	// FirstProcessorIsJSON records whether the pipeline's first processor
	// is a JSON-shaped one, mirroring mIsFirstProcessorJson in the
	// original; some downstream sinks use it to skip a redundant parse.
	FirstProcessorIsJSON bool

	profile ProcessProfile
	logger  logrus.FieldLogger
	alarm   *alarm.Counter
}

// NewContext builds a Context, wiring a default logger and alarm counter if
// none are supplied.
func NewContext(configName, project, logstore, region string, logger logrus.FieldLogger, alarmCounter *alarm.Counter) *Context {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if alarmCounter == nil {
		alarmCounter = alarm.NewCounter()
	}
	ctx := &Context{
		ConfigName: configName,
		CreateTime: time.Now(),
		Project:    project,
		Logstore:   logstore,
		Region:     region,
		alarm:      alarmCounter,
	}
	ctx.logger = logger.WithFields(logrus.Fields{
		"config_name": configName,
		"project":     project,
		"logstore":    logstore,
		"region":      region,
	})
	return ctx
}

// LogstoreKey returns this pipeline's destination-queue key.
func (c *Context) LogstoreKey() LogstoreKey {
	return ComputeLogstoreKey(c.Project, c.Logstore, c.Region)
}

// Profile returns the pipeline's mutable counter block.
func (c *Context) Profile() *ProcessProfile {
	return &c.profile
}

// Logger returns the pipeline's attributed logger.
func (c *Context) Logger() logrus.FieldLogger {
	return c.logger
}

// Alarm returns the pipeline's alarm counter.
func (c *Context) Alarm() *alarm.Counter {
	return c.alarm
}

// RaiseAlarm is a convenience wrapper around Alarm().Raise using this
// context's project/logstore.
func (c *Context) RaiseAlarm(category, reason string) {
	c.alarm.Raise(c.logger, alarm.Key{
		Project:  c.Project,
		Logstore: c.Logstore,
		Category: category,
	}, reason)
}
