package reader

import (
	"regexp"

	"github.com/ilogtail/core/config"
)

// multiline assembles logical multiline records from a regex-bounded
// start/continuation pair, the same shape plugins/inputs/logparser uses
// for its previous/next grouping, generalized here to an explicit start
// pattern that marks where a new record begins.
type multiline struct {
	cfg   config.MultilineConfig
	start *regexp.Regexp
	cont  *regexp.Regexp
}

func newMultiline(cfg config.MultilineConfig) (*multiline, error) {
	if !cfg.Enabled() {
		return &multiline{cfg: cfg}, nil
	}
	start, err := regexp.Compile(cfg.StartPattern)
	if err != nil {
		return nil, err
	}
	m := &multiline{cfg: cfg, start: start}
	if cfg.ContinuePattern != "" {
		cont, err := regexp.Compile(cfg.ContinuePattern)
		if err != nil {
			return nil, err
		}
		m.cont = cont
	}
	return m, nil
}

func (m *multiline) enabled() bool {
	return m.cfg.Enabled()
}

// isStart reports whether line begins a new logical record.
func (m *multiline) isStart(line string) bool {
	return m.start.MatchString(line)
}

// isContinuation reports whether line should be appended to the record
// currently being assembled, given it was already determined not to be a
// start line. With no ContinuePattern configured, every non-start line is
// a continuation of the current record.
func (m *multiline) isContinuation(line string) bool {
	if m.cont == nil {
		return true
	}
	return m.cont.MatchString(line)
}
