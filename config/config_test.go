package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderConfigWithDefaults(t *testing.T) {
	var c ReaderConfig
	c = c.WithDefaults()
	assert.Equal(t, defaultSignatureWindowBytes, c.SignatureWindowBytes)

	explicit := ReaderConfig{SignatureWindowBytes: 4096}.WithDefaults()
	assert.Equal(t, 4096, explicit.SignatureWindowBytes)
}

func TestMultilineConfigEnabled(t *testing.T) {
	assert.False(t, MultilineConfig{}.Enabled())
	assert.True(t, MultilineConfig{StartPattern: `^\d{4}`}.Enabled())
}

func TestLoadHistoryFileEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "event.toml")
	toml := `
dir_name = "/var/log/app"
file_name_pattern = "*.log"
start_offset = 100
config_name = "app-config"

[reader_config]
signature_window_bytes = 2048

[multiline_config]
start_pattern = "^\\d{4}-\\d{2}-\\d{2}"

[discovery_config]
recursive = true
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	ev, err := LoadHistoryFileEvent(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/app", ev.DirName)
	assert.Equal(t, "*.log", ev.FileNamePattern)
	assert.Equal(t, int64(100), ev.StartOffset)
	assert.Equal(t, "app-config", ev.ConfigName)
	assert.Equal(t, 2048, ev.ReaderConfig.SignatureWindowBytes)
	assert.True(t, ev.DiscoveryConfig.Recursive)
	assert.True(t, ev.MultilineConfig.Enabled())
}

func TestHistoryFileEventString(t *testing.T) {
	ev := HistoryFileEvent{DirName: "/var/log", FileNamePattern: "*.log", StartOffset: 42, ConfigName: "c1"}
	assert.Equal(t, "/var/log/*.log start_offset=42 config=c1", ev.String())
}
