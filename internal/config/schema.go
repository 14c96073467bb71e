package config

// Config is the root configuration structure.
type Config struct {
	Spotify    SpotifyConfig    `toml:"spotify"`
	YouTube    YouTubeConfig    `toml:"youtube"`
	SoundCloud SoundCloudConfig `toml:"soundcloud"`
	Playback   PlaybackConfig   `toml:"playback"`
	Tail       TailConfig       `toml:"tail"`
	TUI        TUIConfig        `toml:"tui"`
	Log        LogConfig        `toml:"log"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// SpotifyConfig holds Spotify Connect settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenFile    string `toml:"token_file"`
	DeviceName   string `toml:"device_name"`
	PollInterval int    `toml:"poll_interval"`
}

// Enabled reports whether enough is configured to build a Spotify backend.
func (c *SpotifyConfig) Enabled() bool {
	return c.ClientID != ""
}

// YouTubeConfig holds YouTube backend settings.
type YouTubeConfig struct {
	Enabled    bool   `toml:"enabled"`
	YTDLFormat string `toml:"ytdl_format"`
}

// SoundCloudConfig holds SoundCloud backend settings.
type SoundCloudConfig struct {
	Enabled bool `toml:"enabled"`
}

// PlaybackConfig holds default playback settings.
type PlaybackConfig struct {
	Volume   int  `toml:"volume"`
	Autoplay bool `toml:"autoplay"`
}

// InitialVolume returns the configured volume on the canonical 0..1 scale.
func (c *PlaybackConfig) InitialVolume() float64 {
	return float64(c.Volume) / 100
}

// TailConfig holds settings for the event printer.
type TailConfig struct {
	Emoji     bool `toml:"emoji"`
	Timestamp bool `toml:"timestamp"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	RefreshInterval int `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Format string `toml:"format"`
}

// MetricsConfig holds the observability endpoint settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}
