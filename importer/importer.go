// Package importer implements HistoryFileImporter: a single-worker
// consumer that discovers files matching a HistoryFileEvent, reads each one
// sequentially from its last checkpoint (or configured start offset) to
// EOF, and feeds the resulting EventGroups into a feedback.Queue.
package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ilogtail/core/config"
	"github.com/ilogtail/core/discovery"
	"github.com/ilogtail/core/feedback"
	"github.com/ilogtail/core/model"
	"github.com/ilogtail/core/pipeline"
	"github.com/ilogtail/core/reader"
)

// pollInterval is how long the importer sleeps between IsValidToReadLog
// probes while the downstream queue is at its high watermark.
const pollInterval = 10 * time.Millisecond

// defaultCacheSize bounds the number of open Readers the importer keeps
// around across events referencing overlapping files.
const defaultCacheSize = 128

// defaultPushTimeout bounds a single PushBuffer attempt. It is long enough
// that history import yields to a slow sink rather than losing data; a
// timed-out attempt is retried rather than treated as failure.
const defaultPushTimeout = 100 * time.Second

// pushTimeoutLogInterval rate-limits the warning logged while an importer
// is stalled retrying PushBuffer against one destination.
const pushTimeoutLogInterval = time.Minute

// defaultInboxSize bounds how many pending HistoryFileEvents PushEvent can
// enqueue before it blocks the caller.
const defaultInboxSize = 64

// Importer is a single-worker MPSC consumer of HistoryFileEvents: multiple
// goroutines may call PushEvent concurrently, but Run drains the inbox and
// reads every file from exactly one goroutine.
type Importer struct {
	ctx   *pipeline.Context
	queue feedback.Queue

	checkpoints *checkpointStore
	cache       *lru.Cache[model.DevInode, *reader.Reader]

	inbox       chan config.HistoryFileEvent
	pushTimeout time.Duration

	// lastPushTimeoutLog rate-limits the stall warning per destination key.
	// Only ever touched from the single worker goroutine driving Run, so it
	// needs no lock of its own.
	lastPushTimeoutLog map[pipeline.LogstoreKey]time.Time
}

// New builds an Importer. processDir is where the checkpoint file lives;
// it is created (along with any parents) on first Flush.
func New(ctx *pipeline.Context, queue feedback.Queue, processDir string) (*Importer, error) {
	checkpoints, err := loadCheckpointStore(processDir)
	if err != nil {
		return nil, fmt.Errorf("importer: loading checkpoint: %w", err)
	}
	cache, err := lru.NewWithEvict[model.DevInode, *reader.Reader](defaultCacheSize, func(_ model.DevInode, r *reader.Reader) {
		r.Close()
	})
	if err != nil {
		return nil, err
	}
	return &Importer{
		ctx:                ctx,
		queue:              queue,
		checkpoints:        checkpoints,
		cache:              cache,
		inbox:              make(chan config.HistoryFileEvent, defaultInboxSize),
		pushTimeout:        defaultPushTimeout,
		lastPushTimeoutLog: make(map[pipeline.LogstoreKey]time.Time),
	}, nil
}

// PushEvent enqueues a HistoryFileEvent for processing. It blocks if the
// inbox is full, naturally applying backpressure to whatever config-reload
// path is submitting events.
func (im *Importer) PushEvent(ev config.HistoryFileEvent) {
	im.inbox <- ev
}

// Run drains the inbox until ctx is cancelled, processing one
// HistoryFileEvent at a time. It returns ctx.Err() on cancellation.
func (im *Importer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-im.inbox:
			if err := im.processEvent(ctx, ev); err != nil {
				im.ctx.Logger().WithError(err).WithField("event", ev.String()).
					Error("history file import finished with errors")
				im.ctx.Profile().AddHistoryFailures(1)
			}
			if err := im.checkpoints.flush(); err != nil {
				im.ctx.Logger().WithError(err).Warn("failed to flush history checkpoint")
			}
		}
	}
}

// processEvent discovers every file matching ev and reads each one in
// turn, accumulating per-file failures rather than aborting the whole
// event on the first one.
func (im *Importer) processEvent(ctx context.Context, ev config.HistoryFileEvent) error {
	files, err := discovery.Discover(ev.DirName, ev.FileNamePattern, ev.DiscoveryConfig.Recursive)
	if err != nil {
		return errors.Wrapf(err, "discovering files for %s", ev.String())
	}

	var result *multierror.Error
	start := time.Now()
	for i, path := range files {
		fileStart := time.Now()
		if err := im.processFile(ctx, ev, path); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "file %s", path))
			im.ctx.RaiseAlarm("history_import_alarm", fmt.Sprintf("failed to import %s: %v", path, err))
			continue
		}
		im.ctx.Logger().WithFields(logrus.Fields{
			"progress": fmt.Sprintf("%d/%d", i+1, len(files)),
			"file":     path,
			"time_ms":  time.Since(fileStart).Milliseconds(),
		}).Info("done")
	}
	im.ctx.Logger().WithFields(logrus.Fields{
		"event":      ev.String(),
		"file_count": len(files),
		"time_ms":    time.Since(start).Milliseconds(),
	}).Info("history file import event complete")

	return result.ErrorOrNil()
}

// processFile reads one file from its checkpoint (or ev.StartOffset) to
// EOF, pushing one EventGroup per logical record read.
func (im *Importer) processFile(ctx context.Context, ev config.HistoryFileEvent, path string) error {
	devInode, err := reader.DevInodeFromPath(path)
	if err != nil {
		return errors.Wrap(err, "stat")
	}

	r, ok := im.cache.Get(devInode)
	if !ok {
		dir, name := filepath.Split(path)
		r, err = reader.New(reader.Options{
			Dir:             dir,
			Name:            name,
			DevInode:        devInode,
			ReaderConfig:    ev.ReaderConfig,
			MultilineConfig: ev.MultilineConfig,
			DiscoveryConfig: ev.DiscoveryConfig,
			ConcurrencyHint: ev.ConcurrencyHint,
			IsHistory:       true,
			ConfigName:      ev.ConfigName,
			LogstoreKey:     im.ctx.LogstoreKey(),
		})
		if err != nil {
			return errors.Wrap(err, "constructing reader")
		}
		im.cache.Add(devInode, r)
	}

	if !r.UpdateFilePtr() {
		return errors.New("file no longer matches expected identity or cannot be opened")
	}

	startOffset := ev.StartOffset
	if off, ok := im.checkpoints.get(devInode.String()); ok {
		startOffset = off
	}
	r.SetLastFilePos(startOffset)

	if err := r.CheckFileSignatureAndOffset(false); err != nil {
		return errors.Wrap(err, "checking file signature")
	}

	profile := im.ctx.Profile()
	consecutiveEmpty := 0
	key := im.ctx.LogstoreKey()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !im.queue.IsValidToReadLog(key) {
			time.Sleep(pollInterval)
			continue
		}

		buf, err := r.ReadLog(profile)
		if err != nil {
			return errors.Wrap(err, "reading log")
		}
		if buf.Empty() {
			consecutiveEmpty++
			if consecutiveEmpty >= 2 {
				break
			}
			continue
		}
		consecutiveEmpty = 0

		group := im.buildEventGroup(path, devInode, r, buf)
		for !im.queue.PushBuffer(ctx, key, ev.ConfigName, 0, group, im.pushTimeout) {
			if ctx.Err() != nil {
				group.Close()
				return ctx.Err()
			}
			im.logPushTimeout(key, path)
		}

		im.checkpoints.set(devInode.String(), r.GetLastFilePos())
	}

	im.cache.Remove(devInode)
	return nil
}

// logPushTimeout warns that PushBuffer timed out and is being retried,
// rate-limited to once per destination per minute per spec.md §7.
func (im *Importer) logPushTimeout(key pipeline.LogstoreKey, path string) {
	now := time.Now()
	if last, ok := im.lastPushTimeoutLog[key]; ok && now.Sub(last) < pushTimeoutLogInterval {
		return
	}
	im.lastPushTimeoutLog[key] = now
	im.ctx.Logger().WithFields(logrus.Fields{
		"file": path,
	}).Warn("push to destination queue timed out, retrying")
}

// buildEventGroup wraps a single read record into an EventGroup carrying
// the six closed metadata keys plus any configured extra tags.
func (im *Importer) buildEventGroup(path string, devInode model.DevInode, r *reader.Reader, buf reader.LogBuffer) *model.EventGroup {
	group := model.NewEventGroup(buf.RawBuffer.Buffer())

	group.SetMetadata(model.LogFilePath, path)
	group.SetMetadata(model.LogFilePathResolved, r.GetConvertedPath())
	group.SetMetadata(model.LogFileInode, devInode.String())
	group.SetMetadata(model.SourceID, r.GetSourceId())
	group.SetMetadata(model.Topic, r.GetTopicName())
	group.SetMetadata(model.LogGroupKey, r.GetLogGroupKey())

	for k, v := range r.GetExtraTags() {
		group.SetTag(k, v)
	}

	logEvent := model.NewLogEvent()
	logEvent.Set(model.DefaultContentKey, buf.RawBuffer)
	logEvent.Meta = model.EventMeta{ReadOffset: buf.ReadOffset, ReadLength: buf.ReadLength}

	now := time.Now()
	if im.ctx.GlobalConfig.EnableLogTimeAutoAdjust {
		now = now.Add(config.TimeDelta)
	}
	logEvent.Timestamp = now.Unix()
	logEvent.TimestampNs = int64(now.Nanosecond())

	group.AddEvent(logEvent)
	im.ctx.Profile().AddLogGroupSize(1)
	return group
}
