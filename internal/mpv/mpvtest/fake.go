// Package mpvtest provides an in-memory mpv engine for player tests.
package mpvtest

import (
	"fmt"
	"time"

	"github.com/dalimagaadi/kord-app/internal/mpv"
)

// Engine records calls and lets tests fire callbacks.
type Engine struct {
	Calls     []string
	Callbacks mpv.Callbacks
	Closed    bool
	Fail      map[string]error
}

var _ mpv.Engine = (*Engine)(nil)

// New returns a constructor matching mpv.New that always yields e.
func New(e *Engine) func(mpv.Options) (mpv.Engine, error) {
	return func(mpv.Options) (mpv.Engine, error) { return e, nil }
}

func (e *Engine) record(name, call string) error {
	e.Calls = append(e.Calls, call)
	if e.Fail != nil {
		return e.Fail[name]
	}
	return nil
}

func (e *Engine) Load(url string) error { return e.record("load", "load "+url) }
func (e *Engine) Play() error { return e.record("play", "play") }
func (e *Engine) Pause() error { return e.record("pause", "pause") }

func (e *Engine) Seek(position time.Duration) error {
	return e.record("seek", "seek "+position.String())
}

func (e *Engine) SetVolume(percent int) error {
	return e.record("volume", fmt.Sprintf("volume %d", percent))
}

func (e *Engine) SetCallbacks(cb mpv.Callbacks) {
	e.Callbacks = cb
}

func (e *Engine) Close() error {
	e.Closed = true
	return e.record("close", "close")
}
