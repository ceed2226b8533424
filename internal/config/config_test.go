package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "ws://localhost:8765", cfg.ServerURL)
	assert.Equal(t, "absolute", cfg.TimeMode)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := Config{
		ServerURL:     "ws://rift.example.com:9000",
		TimeMode:      "delta",
		IncludeFilter: "UART",
		ExcludeFilter: "heartbeat",
	}
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("time_mode: delta\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "delta", cfg.TimeMode)
	assert.Equal(t, Default().ServerURL, cfg.ServerURL, "unset keys keep their defaults")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg, "a broken file still yields usable defaults")
}
