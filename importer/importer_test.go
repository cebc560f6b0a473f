package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilogtail/core/config"
	"github.com/ilogtail/core/feedback"
	"github.com/ilogtail/core/model"
	"github.com/ilogtail/core/pipeline"
)

func newTestContext() *pipeline.Context {
	return pipeline.NewContext("test-config", "test-project", "test-logstore", "test-region", nil, nil)
}

func TestImporterReadsFileToEOFAndPushesGroups(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("line one\nline two\n"), 0o644))

	ctx := newTestContext()
	queue := feedback.NewMemQueue(16, 16)
	im, err := New(ctx, queue, t.TempDir())
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go im.Run(runCtx)

	im.PushEvent(config.HistoryFileEvent{
		DirName:         dir,
		FileNamePattern: "*.log",
		ConfigName:      "test-config",
	})

	key := ctx.LogstoreKey()
	popCtx, popCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer popCancel()

	item1, ok := queue.Pop(popCtx, key)
	require.True(t, ok)
	assert.Equal(t, "test-config", item1.ConfigName)
	require.Len(t, item1.Group.Events, 1)
	assert.Equal(t, "line one", item1.Group.Events[0].GetContent(model.DefaultContentKey))

	item2, ok := queue.Pop(popCtx, key)
	require.True(t, ok)
	assert.Equal(t, "line two", item2.Group.Events[0].GetContent(model.DefaultContentKey))
}

// timeoutThenAcceptQueue always reports IsValidToReadLog true but fails the
// first failUntil PushBuffer calls, simulating a sink that stalls briefly
// without ever backpressuring the reader gate.
type timeoutThenAcceptQueue struct {
	failUntil int
	attempts  int
	accepted  []*model.EventGroup
}

func (q *timeoutThenAcceptQueue) IsValidToReadLog(pipeline.LogstoreKey) bool { return true }

func (q *timeoutThenAcceptQueue) PushBuffer(_ context.Context, _ pipeline.LogstoreKey, _ string, _ int, group *model.EventGroup, _ time.Duration) bool {
	q.attempts++
	if q.attempts <= q.failUntil {
		return false
	}
	q.accepted = append(q.accepted, group)
	return true
}

func TestImporterRetriesPushOnTimeoutInsteadOfAbortingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("line one\nline two\n"), 0o644))

	ctx := newTestContext()
	queue := &timeoutThenAcceptQueue{failUntil: 2}
	im, err := New(ctx, queue, t.TempDir())
	require.NoError(t, err)
	im.pushTimeout = time.Millisecond

	runCtx, cancel := context.WithCancel(context.Background())
	im.PushEvent(config.HistoryFileEvent{
		DirName:         dir,
		FileNamePattern: "*.log",
		ConfigName:      "test-config",
	})
	require.NoError(t, im.processEvent(runCtx, <-im.inbox))
	cancel()

	require.Len(t, queue.accepted, 2)
	assert.Equal(t, "line one", queue.accepted[0].Events[0].GetContent(model.DefaultContentKey))
	assert.Equal(t, "line two", queue.accepted[1].Events[0].GetContent(model.DefaultContentKey))
	assert.Greater(t, queue.attempts, 2)
}

func TestImporterPersistsCheckpointAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	processDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("line one\nline two\n"), 0o644))

	ctx := newTestContext()
	queue := feedback.NewMemQueue(16, 16)
	im, err := New(ctx, queue, processDir)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	im.PushEvent(config.HistoryFileEvent{DirName: dir, FileNamePattern: "*.log", ConfigName: "c"})
	go im.Run(runCtx)

	popCtx, popCancel := context.WithTimeout(context.Background(), 2*time.Second)
	_, ok := queue.Pop(popCtx, ctx.LogstoreKey())
	require.True(t, ok)
	_, ok = queue.Pop(popCtx, ctx.LogstoreKey())
	require.True(t, ok)
	popCancel()
	cancel()

	// Give Run's post-event flush a moment to land before inspecting the
	// checkpoint file directly.
	time.Sleep(50 * time.Millisecond)

	store, err := loadCheckpointStore(processDir)
	require.NoError(t, err)
	assert.Greater(t, len(store.offset), 0)
}
