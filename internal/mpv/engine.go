// Package mpv wraps libmpv as an audio-only stream engine. The YouTube and
// SoundCloud players are built on it, with yt-dlp resolving page URLs.
//
// libmpv is linked only when building with -tags libmpv; otherwise New
// returns an error wrapping errors.ErrBackendDisabled.
package mpv

import "time"

// Engine is one libmpv instance playing one stream at a time.
type Engine interface {
	// Load replaces the current stream with url, paused.
	Load(url string) error
	Play() error
	Pause() error
	Seek(position time.Duration) error
	// SetVolume sets the volume on mpv's 0-100 scale.
	SetVolume(percent int) error
	SetCallbacks(cb Callbacks)
	Close() error
}

// Callbacks are invoked from the engine's event goroutine.
type Callbacks struct {
	FileLoaded func()
	Progress   func(position time.Duration)
	EOF        func()
	Error      func(err error)
}

// Options configures a new engine.
type Options struct {
	// YTDLFormat is passed to mpv's ytdl-format option.
	YTDLFormat string
	// ProgressInterval is how often Progress fires while a stream plays.
	ProgressInterval time.Duration
}

const (
	pauseProperty    = "pause"
	positionProperty = "time-pos"
	volumeProperty   = "volume"
)

func (o Options) progressInterval() time.Duration {
	if o.ProgressInterval <= 0 {
		return 500 * time.Millisecond
	}
	return o.ProgressInterval
}
