package spl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilogtail/core/model"
	"github.com/ilogtail/core/sourcebuffer"
)

func newGroup(t *testing.T, contents ...string) *model.EventGroup {
	t.Helper()
	buf := sourcebuffer.NewSourceBuffer()
	g := model.NewEventGroup(buf)
	for _, c := range contents {
		ev := model.NewLogEvent()
		ev.SetString(buf, model.DefaultContentKey, c)
		g.AddEvent(ev)
	}
	return g
}

func TestWhereFiltersEvents(t *testing.T) {
	g := newGroup(t, "keep", "drop")
	q, err := Compile(`* | where content = 'keep'`)
	require.NoError(t, err)

	out, err := q.Process(g, &Stats{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Events, 1)
	assert.Equal(t, "keep", out[0].Events[0].GetContent(model.DefaultContentKey))
}

func TestExtendJSONExtract(t *testing.T) {
	g := newGroup(t, `{"a":{"b":1}}`)
	q, err := Compile(`* | extend b = json_extract(content, '$.a.b')`)
	require.NoError(t, err)

	out, err := q.Process(g, &Stats{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Events, 1)
	assert.Equal(t, "1", out[0].Events[0].GetContent("b"))
	// the original content key is untouched by extend
	assert.Equal(t, `{"a":{"b":1}}`, out[0].Events[0].GetContent(model.DefaultContentKey))
}

func TestParseJSONFlattensFields(t *testing.T) {
	g := newGroup(t, `{"type":"kv","msg":"a=1 b=2"}`, `{"type":"csv","msg":"x,y,z"}`)
	q, err := Compile(`* | parse-json content`)
	require.NoError(t, err)

	out, err := q.Process(g, &Stats{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Events, 2)
	assert.Equal(t, "kv", out[0].Events[0].GetContent("type"))
	assert.Equal(t, "a=1 b=2", out[0].Events[0].GetContent("msg"))
}

func TestParseKVWithDelims(t *testing.T) {
	g := newGroup(t, "a=1,b=2,c=3")
	g.Events[0].SetString(g.Buffer, "msg", "a=1,b=2,c=3")
	q, err := Compile(`* | parse-kv -delims="=," msg`)
	require.NoError(t, err)

	out, err := q.Process(g, &Stats{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].Events[0].GetContent("a"))
	assert.Equal(t, "2", out[0].Events[0].GetContent("b"))
	assert.Equal(t, "3", out[0].Events[0].GetContent("c"))
}

func TestProjectRenamePromotesToTag(t *testing.T) {
	g := newGroup(t, "v")
	g.Events[0].SetString(g.Buffer, "a1", "taiye2value")
	q, err := Compile(`* | project-rename __tag__:taiye2=a1`)
	require.NoError(t, err)

	out, err := q.Process(g, &Stats{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	tagVal, ok := out[0].GetTag("taiye2")
	require.True(t, ok)
	assert.Equal(t, "taiye2value", tagVal)
	_, ok = out[0].Events[0].Get("a1")
	assert.False(t, ok)
}

func TestMultiPipelineWithLetSharesSourceOnce(t *testing.T) {
	g := newGroup(t, `{"type":"kv","msg":"a=1 b=2"}`, `{"type":"csv","msg":"x,y,z"}`)
	query := `.let src = * | parse-json content;
.let ds1 = $src | where type = 'kv' | parse-kv -delims="= " msg;
$ds1;
.let ds2 = $src | where type = 'csv' | parse-csv msg as x, y, z;
$ds2`

	q, err := Compile(query)
	require.NoError(t, err)

	out, err := q.Process(g, &Stats{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.Len(t, out[0].Events, 1)
	assert.Equal(t, "1", out[0].Events[0].GetContent("a"))
	assert.Equal(t, "2", out[0].Events[0].GetContent("b"))

	require.Len(t, out[1].Events, 1)
	assert.Equal(t, "x", out[1].Events[0].GetContent("x"))
	assert.Equal(t, "y", out[1].Events[0].GetContent("y"))
	assert.Equal(t, "z", out[1].Events[0].GetContent("z"))
}

func TestParseRegexpZeroCaptureGroupsFailsCompile(t *testing.T) {
	_, err := Compile(`* | parse-regexp content, '^no-captures$' as field`)
	assert.Error(t, err)
}

func TestParseKVRejectsWrongLengthDelimsAtCompile(t *testing.T) {
	_, err := Compile(`* | parse-kv -delims="=" msg`)
	assert.Error(t, err)
}

func TestParseRegexpNoMatchForwardsAndCountsRegexFailure(t *testing.T) {
	g := newGroup(t, "no digits here")
	q, err := Compile(`* | parse-regexp content, '(\d+)' as n`)
	require.NoError(t, err)

	stats := &Stats{}
	out, err := q.Process(g, stats)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Events, 1)
	assert.Equal(t, int64(1), stats.RegexMatchFailures)
	assert.Equal(t, int64(0), stats.ParseFailures)
}

func TestParseRegexpNoMatchDropsWhenDiscardUnmatch(t *testing.T) {
	g := newGroup(t, "no digits here", "42 here")
	q, err := Compile(`* | parse-regexp content, '(\d+)' as n`)
	require.NoError(t, err)
	q.DiscardUnmatch = true

	stats := &Stats{}
	out, err := q.Process(g, stats)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Events, 1)
	assert.Equal(t, "42", out[0].Events[0].GetContent("n"))
	assert.Equal(t, int64(1), stats.RegexMatchFailures)
	assert.Equal(t, int64(1), stats.DiscardedEvents)
}

func TestParseJSONNonObjectDropsWhenDiscardUnmatch(t *testing.T) {
	g := newGroup(t, `not-json`, `{"a":"1"}`)
	q, err := Compile(`* | parse-json content`)
	require.NoError(t, err)
	q.DiscardUnmatch = true

	stats := &Stats{}
	out, err := q.Process(g, stats)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Events, 1)
	assert.Equal(t, "1", out[0].Events[0].GetContent("a"))
	assert.Equal(t, int64(1), stats.ParseFailures)
	assert.Equal(t, int64(1), stats.DiscardedEvents)
}

func TestJSONExtractMissCountsParseFailure(t *testing.T) {
	g := newGroup(t, `{"a":1}`)
	q, err := Compile(`* | extend b = json_extract(content, '$.missing')`)
	require.NoError(t, err)

	stats := &Stats{}
	out, err := q.Process(g, stats)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "", out[0].Events[0].GetContent("b"))
	assert.Equal(t, int64(1), stats.ParseFailures)
}

func TestParseCSVFewerFieldsThanNames(t *testing.T) {
	g := newGroup(t, "only,two")
	g.Events[0].SetString(g.Buffer, "msg", "only,two")
	q, err := Compile(`* | parse-csv msg as a, b, c`)
	require.NoError(t, err)

	out, err := q.Process(g, &Stats{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "only", out[0].Events[0].GetContent("a"))
	assert.Equal(t, "two", out[0].Events[0].GetContent("b"))
	_, ok := out[0].Events[0].Get("c")
	assert.False(t, ok)
}
