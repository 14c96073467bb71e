package core

import (
	"context"
	"time"
)

// Adapter defines the uniform control surface every streaming backend
// exposes to the playback synchronizer.
//
// Control calls never fail across this boundary: calls made while the
// vendor handle is not ready, or while the adapter is not the active
// output, are swallowed and logged. Runtime failures are reported through
// OnError instead.
type Adapter interface {
	Source() Source
	IsApplicable(track Track) bool

	// Lifecycle
	Mount(ctx context.Context)
	Activate(volume float64)
	Deactivate()
	Close() error

	// Playback control
	Load(track Track)
	Play()
	Pause()
	SeekTo(position time.Duration)
	SetVolume(volume float64)

	// State queries
	IsReady() bool
	IsActive() bool
	Observed() ObservedState

	// Event bridges. Callbacks run on the engine's event loop.
	OnReady(fn func())
	OnEnded(fn func())
	OnError(fn func(ErrorInfo))
	OnStateChange(fn func())
}
