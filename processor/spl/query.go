package spl

import (
	"fmt"

	"github.com/ilogtail/core/model"
)

// queryAST is the parsed form of `query := pipeline {';' pipeline}`: a set
// of lazily-evaluated `.let` bindings plus the pipelines that actually emit
// an output EventGroup.
type queryAST struct {
	lets   map[string]*pipelineAST
	finals []*pipelineAST
}

type pipelineAST struct {
	source sourceAST
	stages []stageAST
}

// sourceAST is either `*` (the input group) or `$name` (a reference to a
// `.let` binding).
type sourceAST interface{ isSource() }

type starSource struct{}

func (starSource) isSource() {}

type refSource struct{ name string }

func (refSource) isSource() {}

// stageAST is a single `| stage` in a pipeline.
type stageAST interface {
	apply(g *model.EventGroup, rt *runtime) (*model.EventGroup, error)
}

type assignAST struct {
	name string
	expr expr
}

type renameAST struct {
	target string
	source string
}

// Query is a compiled SPL query, ready to run against successive input
// EventGroups via Process.
type Query struct {
	ast *queryAST

	// DiscardUnmatch controls every parse-* stage's behavior on a miss: drop
	// the event when true, otherwise forward it unchanged. Set after
	// Compile, from the owning Processor's config.
	DiscardUnmatch bool
}

// Compile parses src into a reusable Query.
func Compile(src string) (*Query, error) {
	ast, err := parseQuery(src)
	if err != nil {
		return nil, err
	}
	return &Query{ast: ast}, nil
}

// runtime holds the per-Process memoization state for a single input
// EventGroup: every `.let` source is evaluated at most once, however many
// pipelines reference it.
type runtime struct {
	query          *queryAST
	input          *model.EventGroup
	memo           map[string]*model.EventGroup
	stats          *Stats
	discardUnmatch bool
}

// Stats counts parse failures across a single Process call, mirroring the
// profile counters the importer keeps for reads (pipeline.ProcessProfile).
type Stats struct {
	ParseFailures      int64
	RegexMatchFailures int64
	DiscardedEvents    int64
}

// Process evaluates q against in, returning one output EventGroup per
// top-level pipeline (in source order). `.let` bindings never emit on
// their own.
func (q *Query) Process(in *model.EventGroup, stats *Stats) ([]*model.EventGroup, error) {
	rt := &runtime{
		query:          q.ast,
		input:          in,
		memo:           make(map[string]*model.EventGroup),
		stats:          stats,
		discardUnmatch: q.DiscardUnmatch,
	}

	out := make([]*model.EventGroup, 0, len(q.ast.finals))
	for _, pipe := range q.ast.finals {
		g, err := rt.evalPipeline(pipe)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (rt *runtime) evalPipeline(pipe *pipelineAST) (*model.EventGroup, error) {
	g, err := rt.evalSource(pipe.source)
	if err != nil {
		return nil, err
	}
	for _, st := range pipe.stages {
		g, err = st.apply(g, rt)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (rt *runtime) evalSource(src sourceAST) (*model.EventGroup, error) {
	switch s := src.(type) {
	case starSource:
		g := rt.input.Derive()
		g.Events = append(g.Events, rt.input.Events...)
		return g, nil
	case refSource:
		return rt.resolve(s.name)
	default:
		return nil, fmt.Errorf("spl: unknown source type %T", src)
	}
}

// resolve evaluates a `.let` binding on first reference and caches the
// result for the remainder of this Process call, so sharing one source
// across multiple downstream pipelines does the work exactly once.
func (rt *runtime) resolve(name string) (*model.EventGroup, error) {
	if g, ok := rt.memo[name]; ok {
		return g, nil
	}
	pipe, ok := rt.query.lets[name]
	if !ok {
		return nil, fmt.Errorf("spl: undefined source $%s", name)
	}
	g, err := rt.evalPipeline(pipe)
	if err != nil {
		return nil, err
	}
	rt.memo[name] = g
	return g, nil
}
