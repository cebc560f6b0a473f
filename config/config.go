// Package config defines the TOML-decodable configuration shapes consumed
// by the reader and the history-file importer, and loads them with
// BurntSushi/toml the way the teacher agent loads its own plugin configs.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// defaultSignatureWindowBytes is the size of the fingerprint window read
// from the start of a file to detect rotation/truncation.
const defaultSignatureWindowBytes = 1024

// ReaderConfig controls how a LogFileReader reads a single file.
type ReaderConfig struct {
	SignatureWindowBytes int `toml:"signature_window_bytes"`
}

// WithDefaults returns a copy of c with zero-valued fields replaced by
// their defaults.
func (c ReaderConfig) WithDefaults() ReaderConfig {
	if c.SignatureWindowBytes <= 0 {
		c.SignatureWindowBytes = defaultSignatureWindowBytes
	}
	return c
}

// MultilineConfig controls multiline record assembly. An empty
// StartPattern means line-per-event: every line is its own record.
type MultilineConfig struct {
	StartPattern    string `toml:"start_pattern"`
	ContinuePattern string `toml:"continue_pattern"`
}

// Enabled reports whether multiline assembly is configured at all.
func (c MultilineConfig) Enabled() bool {
	return c.StartPattern != ""
}

// DiscoveryConfig controls how HistoryFileImporter enumerates files for an
// event.
type DiscoveryConfig struct {
	Recursive bool `toml:"recursive"`
}

// HistoryFileEvent is the command envelope the importer's inbox carries.
type HistoryFileEvent struct {
	DirName         string          `toml:"dir_name"`
	FileNamePattern string          `toml:"file_name_pattern"`
	StartOffset     int64           `toml:"start_offset"`
	ReaderConfig    ReaderConfig    `toml:"reader_config"`
	MultilineConfig MultilineConfig `toml:"multiline_config"`
	DiscoveryConfig DiscoveryConfig `toml:"discovery_config"`
	ConcurrencyHint int             `toml:"concurrency_hint"`

	// ConfigName identifies the pipeline config this history event feeds,
	// used as the PushBuffer config_name argument.
	ConfigName string `toml:"config_name"`
}

// String renders a compact description of the event for logging, mirroring
// HistoryFileEvent::String() in the original.
func (e HistoryFileEvent) String() string {
	return e.DirName + "/" + e.FileNamePattern +
		" start_offset=" + itoa(e.StartOffset) +
		" config=" + e.ConfigName
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// LoadHistoryFileEvent decodes a single TOML-encoded HistoryFileEvent from
// path.
func LoadHistoryFileEvent(path string) (HistoryFileEvent, error) {
	var ev HistoryFileEvent
	_, err := toml.DecodeFile(path, &ev)
	return ev, err
}

// GlobalConfig carries process-wide knobs that are not specific to any one
// pipeline.
type GlobalConfig struct {
	// EnableLogTimeAutoAdjust adds the monotonic-to-wall skew delta,
	// computed by TimeDelta, to history-imported event timestamps.
	EnableLogTimeAutoAdjust bool `toml:"enable_log_time_auto_adjust"`
}

// TimeDelta is the process-wide clock-skew correction applied to
// timestamps when EnableLogTimeAutoAdjust is set. It defaults to zero and
// is updated by whatever monotonic-clock-sync facility the host process
// runs; that facility is out of scope for this module.
var TimeDelta time.Duration
