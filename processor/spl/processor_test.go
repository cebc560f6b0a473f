package spl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilogtail/core/model"
	"github.com/ilogtail/core/pipeline"
	"github.com/ilogtail/core/testutil"
)

func TestProcessorInitRejectsInvalidQuery(t *testing.T) {
	p := &Processor{}
	ctx := pipeline.NewContext("c", "proj", "store", "region", nil, nil)
	ok := p.Init(map[string]interface{}{"Query": `* | where (`}, ctx)
	assert.False(t, ok)
}

func TestProcessorDiscardUnmatchOption(t *testing.T) {
	p := &Processor{}
	ctx := pipeline.NewContext("c", "proj", "store", "region", nil, nil)
	require.True(t, p.Init(map[string]interface{}{
		"Query":          `* | parse-regexp content, '(\d+)' as n`,
		"DiscardUnmatch": true,
	}, ctx))

	g := newGroup(t, "no digits", "99 here")

	var out []*model.EventGroup
	p.Process(g, &out)

	require.Len(t, out, 1)
	require.Len(t, out[0].Events, 1)
	assert.Equal(t, "99", out[0].Events[0].GetContent("n"))
	assert.Equal(t, int64(1), ctx.Profile().RegexMatchFailures)
}

func TestProcessorEndToEnd(t *testing.T) {
	p := &Processor{}
	ctx := pipeline.NewContext("c", "proj", "store", "region", nil, nil)
	require.True(t, p.Init(map[string]interface{}{"Query": `* | where content != 'drop'`}, ctx))

	g := newGroup(t, "keep", "drop")

	acc := &testutil.Accumulator{}
	var out []*model.EventGroup
	p.Process(g, &out)
	acc.Add(out...)

	acc.AssertNumGroups(t, 1)
	assert.Equal(t, 1, acc.NEvents())
	acc.AssertContainsContent(t, model.DefaultContentKey, "keep")
}
