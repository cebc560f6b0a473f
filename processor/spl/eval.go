package spl

import (
	"encoding/csv"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ilogtail/core/model"
)

// whereAST keeps events whose expr evaluates truthy.
type whereAST struct{ expr expr }

func (w whereAST) apply(g *model.EventGroup, rt *runtime) (*model.EventGroup, error) {
	out := g.Derive()
	env := &evalEnv{group: g, stats: rt.stats}
	for _, ev := range g.Events {
		env.event = ev
		if w.expr.eval(env).Truthy() {
			out.Events = append(out.Events, ev)
		} else if rt.stats != nil {
			rt.stats.DiscardedEvents++
		}
	}
	return out, nil
}

// extendAST adds or overwrites content keys from evaluated expressions.
type extendAST struct{ assigns []assignAST }

func (x extendAST) apply(g *model.EventGroup, rt *runtime) (*model.EventGroup, error) {
	out := g.Derive()
	env := &evalEnv{group: g, stats: rt.stats}
	for _, ev := range g.Events {
		clone := ev.Clone()
		env.event = ev
		for _, a := range x.assigns {
			clone.SetString(out.Buffer, a.name, a.expr.eval(env).AsString())
		}
		out.Events = append(out.Events, clone)
	}
	return out, nil
}

// parseJSONAST flattens a top-level JSON object found in column into
// sibling content keys.
type parseJSONAST struct{ column string }

func (p parseJSONAST) apply(g *model.EventGroup, rt *runtime) (*model.EventGroup, error) {
	out := g.Derive()
	for _, ev := range g.Events {
		raw, ok := ev.Get(p.column)
		if !ok {
			out.Events = append(out.Events, ev)
			continue
		}
		res := gjson.Parse(raw.String())
		if !res.IsObject() {
			if rt.stats != nil {
				rt.stats.ParseFailures++
			}
			if rt.discardUnmatch {
				if rt.stats != nil {
					rt.stats.DiscardedEvents++
				}
				continue
			}
			out.Events = append(out.Events, ev)
			continue
		}
		clone := ev.Clone()
		res.ForEach(func(key, value gjson.Result) bool {
			clone.SetString(out.Buffer, key.String(), value.String())
			return true
		})
		out.Events = append(out.Events, clone)
	}
	return out, nil
}

// parseRegexpAST extracts named fields from column using a precompiled
// regular expression; its capture-group count was checked against names
// at Compile time.
type parseRegexpAST struct {
	column string
	re     *regexp.Regexp
	names  []string
}

func (p parseRegexpAST) apply(g *model.EventGroup, rt *runtime) (*model.EventGroup, error) {
	out := g.Derive()
	for _, ev := range g.Events {
		raw, ok := ev.Get(p.column)
		if !ok {
			out.Events = append(out.Events, ev)
			continue
		}
		m := p.re.FindStringSubmatch(raw.String())
		if m == nil {
			if rt.stats != nil {
				rt.stats.RegexMatchFailures++
			}
			if rt.discardUnmatch {
				if rt.stats != nil {
					rt.stats.DiscardedEvents++
				}
				continue
			}
			out.Events = append(out.Events, ev)
			continue
		}
		clone := ev.Clone()
		for i, name := range p.names {
			clone.SetString(out.Buffer, name, m[i+1])
		}
		out.Events = append(out.Events, clone)
	}
	return out, nil
}

// parseCSVAST splits column on a single RFC4180 record, assigning fields
// to names positionally. A record with fewer fields than names leaves the
// extra names unset rather than failing the whole event.
type parseCSVAST struct {
	column string
	names  []string
}

func (p parseCSVAST) apply(g *model.EventGroup, rt *runtime) (*model.EventGroup, error) {
	out := g.Derive()
	for _, ev := range g.Events {
		raw, ok := ev.Get(p.column)
		if !ok {
			out.Events = append(out.Events, ev)
			continue
		}
		r := csv.NewReader(strings.NewReader(raw.String()))
		fields, err := r.Read()
		if err != nil {
			if rt.stats != nil {
				rt.stats.ParseFailures++
			}
			if rt.discardUnmatch {
				if rt.stats != nil {
					rt.stats.DiscardedEvents++
				}
				continue
			}
			out.Events = append(out.Events, ev)
			continue
		}
		clone := ev.Clone()
		for i, name := range p.names {
			if i >= len(fields) {
				break
			}
			clone.SetString(out.Buffer, name, fields[i])
		}
		out.Events = append(out.Events, clone)
	}
	return out, nil
}

// parseKVAST splits column into key/value pairs. delims is a two-character
// string: delims[0] separates a key from its value, delims[1] separates
// pairs from each other. An empty delims defaults to "= ", e.g.
// "a=1 b=2".
type parseKVAST struct {
	column string
	delims string
}

func (p parseKVAST) apply(g *model.EventGroup, rt *runtime) (*model.EventGroup, error) {
	delims := p.delims
	if delims == "" {
		delims = "= "
	}
	kvSep, pairSep := string(delims[0]), string(delims[1])

	out := g.Derive()
	for _, ev := range g.Events {
		raw, ok := ev.Get(p.column)
		if !ok {
			out.Events = append(out.Events, ev)
			continue
		}
		clone := ev.Clone()
		matched := false
		for _, pair := range strings.Split(raw.String(), pairSep) {
			if pair == "" {
				continue
			}
			kv := strings.SplitN(pair, kvSep, 2)
			if len(kv) != 2 {
				continue
			}
			clone.SetString(out.Buffer, kv[0], kv[1])
			matched = true
		}
		if !matched {
			if rt.stats != nil {
				rt.stats.ParseFailures++
			}
			if rt.discardUnmatch {
				if rt.stats != nil {
					rt.stats.DiscardedEvents++
				}
				continue
			}
		}
		out.Events = append(out.Events, clone)
	}
	return out, nil
}

// projectRenameAST renames or promotes/demotes fields between an event's
// content map and its group-level tags, following `target=source`: source
// is read (and removed), target is where it ends up. Either side may carry
// the __tag__: prefix to address the tag namespace instead of content.
type projectRenameAST struct{ renames []renameAST }

func (p projectRenameAST) apply(g *model.EventGroup, rt *runtime) (*model.EventGroup, error) {
	out := g.Derive()
	out.Events = append(out.Events, g.Events...)

	var contentRenames []renameAST
	for _, r := range p.renames {
		sourceIsTag := strings.HasPrefix(r.source, model.TagPrefix)
		targetIsTag := strings.HasPrefix(r.target, model.TagPrefix)
		if !sourceIsTag {
			contentRenames = append(contentRenames, r)
			continue
		}
		// Tag-sourced renames operate once at the group level: tags are
		// shared across every event in the group.
		val, ok := out.GetTag(strings.TrimPrefix(r.source, model.TagPrefix))
		if !ok {
			continue
		}
		out.DeleteTag(strings.TrimPrefix(r.source, model.TagPrefix))
		if targetIsTag {
			out.SetTag(strings.TrimPrefix(r.target, model.TagPrefix), val)
			continue
		}
		for i, ev := range out.Events {
			clone := ev.Clone()
			clone.SetString(out.Buffer, r.target, val)
			out.Events[i] = clone
		}
	}

	if len(contentRenames) == 0 {
		return out, nil
	}
	for i, ev := range out.Events {
		clone := ev.Clone()
		for _, r := range contentRenames {
			v, ok := clone.Get(r.source)
			if !ok {
				continue
			}
			targetIsTag := strings.HasPrefix(r.target, model.TagPrefix)
			clone.Delete(r.source)
			if targetIsTag {
				out.SetTag(strings.TrimPrefix(r.target, model.TagPrefix), v.String())
				continue
			}
			clone.SetString(out.Buffer, r.target, v.String())
		}
		out.Events[i] = clone
	}
	return out, nil
}
