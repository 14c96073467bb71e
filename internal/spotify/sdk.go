// Package spotify adapts a player with the Spotify Web Playback SDK's shape
// to the uniform backend contract. The concrete player drives a Spotify
// Connect device through the Web API.
package spotify

import (
	"context"
	"time"
)

// Error kinds mirror the SDK's error events.
const (
	ErrorInitialization = "initialization_error"
	ErrorAuthentication = "authentication_error"
	ErrorAccount        = "account_error"
	ErrorPlayback       = "playback_error"
	ErrorNotReady       = "not_ready"
)

// State is the subset of the SDK's WebPlaybackState the adapter reads.
type State struct {
	TrackURI string
	Paused   bool
	Position time.Duration
	Duration time.Duration
}

// Listener carries the player's event callbacks.
type Listener struct {
	OnReady    func(deviceID string)
	OnNotReady func(deviceID string)
	// OnStateChanged receives nil when playback is no longer on this device.
	OnStateChanged func(state *State)
	OnError        func(kind, message string)
}

// Player is the control surface of one connected device. Volume is 0..1.
type Player interface {
	// Play starts uri from the beginning on this device.
	Play(uri string) error
	Resume() error
	Pause() error
	Seek(position time.Duration) error
	SetVolume(volume float64) error
	Disconnect() error
}

// Factory creates and connects a player. It corresponds to
// new Spotify.Player followed by connect.
type Factory func(ctx context.Context, l Listener) (Player, error)
