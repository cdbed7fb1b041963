package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sizefs.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestParseKeepsDefaultsForOmittedKeys(t *testing.T) {
	cfg, err := Parse([]byte(`
node_id: bench-1
mount:
  mountpoint: /mnt/sizefs
  attr_timeout: 2s
remote:
  communicator: HTTP
  metrics_address: 127.0.0.1:9100
content:
  stable_content_cache: 0
directories:
  - name: abc
    attributes:
      filler: abc
      user.suffix: END
      max_random: "4"
    files: [10B, 1K]
`))
	require.NoError(t, err)

	assert.Equal(t, "bench-1", cfg.NodeID)
	assert.Equal(t, LogBackendZap, cfg.Log.Backend)
	assert.Equal(t, "/mnt/sizefs", cfg.Mount.Mountpoint)
	assert.Equal(t, 2*time.Second, cfg.Mount.AttrTimeout)
	assert.Equal(t, CommunicatorHTTP, cfg.Remote.Communicator)
	assert.Equal(t, "127.0.0.1:7070", cfg.Remote.Listen)
	assert.Equal(t, cs.DefaultMaxRandom, cfg.Content.DefaultMaxRandom)
	assert.Equal(t, 0, cfg.Content.StableContentCache)

	dirs := cfg.MetadataDirectories()
	require.Len(t, dirs, 1)
	assert.Equal(t, "abc", dirs[0].Name)
	assert.Equal(t, map[string]string{
		cs.AttrFiller:    "abc",
		cs.AttrSuffix:    "END",
		cs.AttrMaxRandom: "4",
	}, dirs[0].Attributes)
	assert.Equal(t, []string{"10B", "1K"}, dirs[0].Files)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"log backend", "log: {backend: syslog}"},
		{"localdisc without dir", "log: {backend: localdisc}"},
		{"communicator", "remote: {communicator: carrier-pigeon}"},
		{"max random", "content: {default_max_random: 70000}"},
		{"cache", "content: {stable_content_cache: -1}"},
		{"dir name", "directories: [{name: a/b}]"},
		{"duplicate dir", "directories: [{name: a}, {name: a}]"},
		{"bad pattern", "directories: [{name: a, attributes: {filler: '(ab'}}]"},
		{"nested repeats", "directories: [{name: a, attributes: {filler: '((a{65536}){65536}){65536}'}}]"},
		{"expansion with max random", "directories: [{name: a, attributes: {filler: '(a{65536})*', max_random: '1024'}}]"},
		{"expansion with default max random", "content: {default_max_random: 1024}\ndirectories: [{name: a, attributes: {filler: '(a{65536})*'}}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Parse([]byte("node_id: [unterminated"))
	assert.Error(t, err)
}
