package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[spotify]
client_id = "abc"

[playback]
volume = 80
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Spotify.ClientID != "abc" {
		t.Errorf("Spotify.ClientID = %q, want %q", cfg.Spotify.ClientID, "abc")
	}
	if cfg.Playback.Volume != 80 {
		t.Errorf("Playback.Volume = %d, want 80", cfg.Playback.Volume)
	}
	if !cfg.YouTube.Enabled {
		t.Error("YouTube.Enabled = false, want default true when section is omitted")
	}
	if cfg.Spotify.PollInterval != 1000 {
		t.Errorf("Spotify.PollInterval = %d, want 1000", cfg.Spotify.PollInterval)
	}
	if got := cfg.Playback.InitialVolume(); got != 0.8 {
		t.Errorf("InitialVolume() = %v, want 0.8", got)
	}
}

func TestLoadFromDisablesBackend(t *testing.T) {
	path := writeConfig(t, `
[soundcloud]
enabled = false
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.SoundCloud.Enabled {
		t.Error("SoundCloud.Enabled = true, want false")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KORD_LOG_LEVEL", "debug")
	t.Setenv("KORD_PLAYBACK_VOLUME", "25")
	t.Setenv("KORD_METRICS_ADDR", "127.0.0.1:9999")

	path := writeConfig(t, "")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Playback.Volume != 25 {
		t.Errorf("Playback.Volume = %d, want 25", cfg.Playback.Volume)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != "127.0.0.1:9999" {
		t.Errorf("Metrics = %+v, want enabled on 127.0.0.1:9999", cfg.Metrics)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}

	cfg.Playback.Volume = 120
	cfg.Log.Level = "loud"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "nope"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{"playback:", "log:", "metrics:"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q missing %q", err, want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Spotify.DeviceName = "Kitchen"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Spotify.DeviceName != "Kitchen" {
		t.Errorf("Spotify.DeviceName = %q, want Kitchen", loaded.Spotify.DeviceName)
	}
}
