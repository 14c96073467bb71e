package tail

import (
	"context"
	"time"

	"github.com/dalimagaadi/kord-app/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventVolumeChange
	EventSourceChange
	EventError
)

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.PlaybackState
	Current   *core.PlaybackState
}

// Watcher turns a stream of playback states into events.
type Watcher struct {
	states <-chan core.PlaybackState
	events chan Event
	done   chan struct{}
	now    func() time.Time
}

// NewWatcher creates a watcher reading from states, typically a
// synchronizer subscription.
func NewWatcher(states <-chan core.PlaybackState) *Watcher {
	return &Watcher{
		states: states,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start diffs consecutive states until ctx is done, Stop is called or the
// state stream closes.
func (w *Watcher) Start(ctx context.Context) error {
	defer close(w.events)

	var prev *core.PlaybackState
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case st, ok := <-w.states:
			if !ok {
				return nil
			}
			curr := st
			for _, e := range diffStates(prev, &curr, w.now()) {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}
			prev = &curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// diffStates compares two states and returns detected events.
func diffStates(prev, curr *core.PlaybackState, now time.Time) []Event {
	if curr == nil {
		return nil
	}

	var events []Event
	add := func(t EventType) {
		events = append(events, Event{Type: t, Timestamp: now, Previous: prev, Current: curr})
	}

	// First state - no previous state
	if prev == nil {
		if curr.HasTrack() {
			add(EventTrackChange)
		}
		return events
	}

	changed := trackChanged(prev, curr)
	if changed {
		if prev.HasTrack() && !prev.Ended {
			add(EventTrackSkip)
		}
		if curr.HasTrack() {
			add(EventTrackChange)
		}
		if sourceChanged(prev, curr) {
			add(EventSourceChange)
		}
	} else if curr.Ended && !prev.Ended {
		add(EventTrackComplete)
	}

	// Pause/Resume only within a running session; starts and stops around
	// track changes are covered above.
	if !changed && !curr.Ended && curr.Error == nil {
		if prev.IsPlaying && !curr.IsPlaying {
			add(EventPause)
		} else if !prev.IsPlaying && curr.IsPlaying && prev.Phase == core.PhaseSynced && !prev.Ended {
			add(EventResume)
		}
	}

	if prev.VolumePercent() != curr.VolumePercent() {
		add(EventVolumeChange)
	}

	if errorChanged(prev, curr) {
		add(EventError)
	}

	return events
}

// trackChanged returns true if the track changed.
func trackChanged(prev, curr *core.PlaybackState) bool {
	if prev.Track == nil && curr.Track == nil {
		return false
	}
	if prev.Track == nil || curr.Track == nil {
		return true
	}
	return !prev.Track.Same(*curr.Track)
}

// sourceChanged returns true if playback moved to another backend.
func sourceChanged(prev, curr *core.PlaybackState) bool {
	if prev.Track == nil || curr.Track == nil {
		return false
	}
	return prev.Track.Source != curr.Track.Source
}

func errorChanged(prev, curr *core.PlaybackState) bool {
	if curr.Error == nil {
		return false
	}
	return prev.Error == nil || prev.Error.Message != curr.Error.Message || trackChanged(prev, curr)
}
