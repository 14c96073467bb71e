// Package soundcloud adapts a player with the SoundCloud Widget API's shape
// to the uniform backend contract.
package soundcloud

import "context"

// Event mirrors SC.Widget.Events.
type Event string

const (
	EventReady        Event = "ready"
	EventPlay         Event = "play"
	EventPause        Event = "pause"
	EventFinish       Event = "finish"
	EventSeek         Event = "seek"
	EventPlayProgress Event = "playProgress"
	EventError        Event = "error"
)

// EventData is the payload passed to bound listeners. Positions are in
// milliseconds.
type EventData struct {
	CurrentPosition  float64
	RelativePosition float64
}

// LoadOptions mirrors the options accepted by widget.load.
type LoadOptions struct {
	AutoPlay bool
}

// Widget is the subset of the widget API the adapter drives. Volume is on
// the widget's 0-100 scale.
type Widget interface {
	Bind(event Event, fn func(EventData))
	Load(url string, opts LoadOptions) error
	Play() error
	Pause() error
	SeekTo(milliseconds float64) error
	SetVolume(volume float64) error
	Close() error
}

// Factory creates a widget. It corresponds to SC.Widget(iframe).
type Factory func(ctx context.Context) (Widget, error)
