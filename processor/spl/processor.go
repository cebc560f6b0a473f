// Package spl implements the structured query language processor stage: a
// small pipe-delimited language (sources, where/extend/parse-*/project-rename
// stages, and a boolean/string expression language) compiled once at Init
// and evaluated against every incoming EventGroup.
package spl

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/ilogtail/core/model"
	"github.com/ilogtail/core/pipeline"
)

// Processor is the SPL processor plugin: it compiles a query string once at
// Init and evaluates it against every group handed to Process.
type Processor struct {
	Query          string
	DiscardUnmatch bool

	query *Query
	ctx   *pipeline.Context
}

// options mirrors the fields Init accepts out of a component's generic
// config map, decoded with mapstructure the way pipeline component config
// arrives as map[string]interface{} rather than a typed struct.
type options struct {
	Query          string `mapstructure:"Query"`
	DiscardUnmatch bool   `mapstructure:"DiscardUnmatch"`
}

// Name implements processor.Processor.
func (p *Processor) Name() string { return "processor_spl" }

// Init compiles Query, returning false (and raising a pipeline alarm) if it
// fails to parse.
func (p *Processor) Init(config map[string]interface{}, ctx *pipeline.Context) bool {
	p.ctx = ctx
	var opts options
	if err := mapstructure.Decode(config, &opts); err != nil {
		if ctx != nil {
			ctx.RaiseAlarm("spl_init_alarm", fmt.Sprintf("failed to decode processor config: %v", err))
		}
		return false
	}
	p.Query = opts.Query
	p.DiscardUnmatch = opts.DiscardUnmatch
	q, err := Compile(p.Query)
	if err != nil {
		if ctx != nil {
			ctx.RaiseAlarm("spl_init_alarm", fmt.Sprintf("failed to compile SPL query: %v", err))
		}
		return false
	}
	q.DiscardUnmatch = p.DiscardUnmatch
	p.query = q
	return true
}

// Process evaluates the compiled query against in, appending one output
// group per top-level pipeline to out.
func (p *Processor) Process(in *model.EventGroup, out *[]*model.EventGroup) {
	stats := &Stats{}
	groups, err := p.query.Process(in, stats)
	if err != nil {
		if p.ctx != nil {
			p.ctx.RaiseAlarm("spl_process_alarm", fmt.Sprintf("SPL evaluation failed: %v", err))
			p.ctx.Profile().AddParseFailures(1)
		}
		return
	}
	if p.ctx != nil {
		p.ctx.Profile().AddParseFailures(stats.ParseFailures)
		p.ctx.Profile().AddRegexMatchFailures(stats.RegexMatchFailures)
	}
	*out = append(*out, groups...)
}
