package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI:  "http://127.0.0.1:8888/callback",
			PollInterval: 1000,
		},
		YouTube: YouTubeConfig{
			Enabled:    true,
			YTDLFormat: "bestaudio/best",
		},
		SoundCloud: SoundCloudConfig{
			Enabled: true,
		},
		Playback: PlaybackConfig{
			Volume:   50,
			Autoplay: true,
		},
		Tail: TailConfig{
			Emoji: true,
		},
		TUI: TUIConfig{
			RefreshInterval: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Spotify
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}
	if c.Spotify.PollInterval == 0 {
		c.Spotify.PollInterval = d.Spotify.PollInterval
	}

	// YouTube
	if c.YouTube.YTDLFormat == "" {
		c.YouTube.YTDLFormat = d.YouTube.YTDLFormat
	}

	// Playback
	if c.Playback.Volume == 0 {
		c.Playback.Volume = d.Playback.Volume
	}

	// TUI
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}

	// Metrics
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = d.Metrics.Addr
	}
}
