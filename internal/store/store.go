// Package store holds the canonical playback intent. The transport UI writes
// desired changes; the synchronizer writes corrections. Every accepted write
// is broadcast to subscribers.
package store

import (
	"sync"
	"time"

	"github.com/dalimagaadi/kord-app/internal/core"
)

// Reason records who made a change.
type Reason string

const (
	ReasonUser       Reason = "user"
	ReasonTrackEnded  Reason = "track_ended"
	ReasonTrackFailed Reason = "track_failed"
	ReasonCorrection  Reason = "correction"
)

// Change is delivered to subscribers after each accepted write.
type Change struct {
	Intent   core.Intent
	Previous core.Intent
	Reason   Reason
}

// Store is safe for concurrent use. Subscribers are called outside the lock,
// on the writer's goroutine.
type Store struct {
	mu     sync.Mutex
	intent core.Intent
	subs   map[int]func(Change)
	nextID int
}

// New creates a store with no track selected, paused, at the given volume.
func New(volume float64) *Store {
	return &Store{
		intent: core.Intent{Volume: core.ClampVolume(volume)},
		subs:   make(map[int]func(Change)),
	}
}

// Intent returns a copy of the current intent.
func (s *Store) Intent() core.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneIntent(s.intent)
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Select makes track the current track. With autoplay the intent also
// switches to playing. Selecting the current track again starts it over.
func (s *Store) Select(track core.Track, autoplay bool) {
	s.update(ReasonUser, func(i *core.Intent) {
		t := track
		i.Track = &t
		i.Selection++
		if autoplay {
			i.IsPlaying = true
		}
	})
}

// Clear removes the current track and stops playback.
func (s *Store) Clear() {
	s.update(ReasonUser, func(i *core.Intent) {
		i.Track = nil
		i.IsPlaying = false
	})
}

// Play sets the intent to playing.
func (s *Store) Play() {
	s.update(ReasonUser, func(i *core.Intent) { i.IsPlaying = true })
}

// Pause sets the intent to paused.
func (s *Store) Pause() {
	s.update(ReasonUser, func(i *core.Intent) { i.IsPlaying = false })
}

// Toggle flips between playing and paused.
func (s *Store) Toggle() {
	s.update(ReasonUser, func(i *core.Intent) { i.IsPlaying = !i.IsPlaying })
}

// SetVolume sets the volume, clamped to [0,1].
func (s *Store) SetVolume(volume float64) {
	s.update(ReasonUser, func(i *core.Intent) { i.Volume = core.ClampVolume(volume) })
}

// AdjustVolume changes the volume by delta, clamped to [0,1].
func (s *Store) AdjustVolume(delta float64) {
	s.update(ReasonUser, func(i *core.Intent) { i.Volume = core.ClampVolume(i.Volume + delta) })
}

// Seek requests a one-shot jump to position in the current track. Negative
// positions are treated as zero.
func (s *Store) Seek(position time.Duration) {
	if position < 0 {
		position = 0
	}
	s.update(ReasonUser, func(i *core.Intent) {
		if i.Track == nil {
			return
		}
		i.Seek = core.SeekRequest{Seq: i.Seek.Seq + 1, Position: position}
	})
}

// MarkEnded records that track finished playing. It only applies if track is
// still the current track and returns false otherwise. Subscribers are always
// notified of an accepted end, even if the intent was already paused, so
// queue logic can advance.
func (s *Store) MarkEnded(track core.Track) bool {
	return s.finish(track, ReasonTrackEnded)
}

// MarkFailed records that track cannot be played by its backend. Like
// MarkEnded it pauses the intent and always notifies, so a queue can move on.
func (s *Store) MarkFailed(track core.Track) bool {
	return s.finish(track, ReasonTrackFailed)
}

func (s *Store) finish(track core.Track, reason Reason) bool {
	s.mu.Lock()
	if s.intent.Track == nil || !s.intent.Track.Same(track) {
		s.mu.Unlock()
		return false
	}
	prev := cloneIntent(s.intent)
	s.intent.IsPlaying = false
	change := Change{Intent: cloneIntent(s.intent), Previous: prev, Reason: reason}
	subs := s.snapshot()
	s.mu.Unlock()

	notify(subs, change)
	return true
}

// Halt stops playback as a correction from the engine, for example when the
// selected track cannot be played by any backend.
func (s *Store) Halt() {
	s.update(ReasonCorrection, func(i *core.Intent) { i.IsPlaying = false })
}

func (s *Store) update(reason Reason, mutate func(*core.Intent)) {
	s.mu.Lock()
	prev := cloneIntent(s.intent)
	mutate(&s.intent)
	if equalIntent(prev, s.intent) {
		s.mu.Unlock()
		return
	}
	change := Change{Intent: cloneIntent(s.intent), Previous: prev, Reason: reason}
	subs := s.snapshot()
	s.mu.Unlock()

	notify(subs, change)
}

func (s *Store) snapshot() []func(Change) {
	subs := make([]func(Change), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func notify(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}

func cloneIntent(i core.Intent) core.Intent {
	if i.Track != nil {
		t := *i.Track
		i.Track = &t
	}
	return i
}

func equalIntent(a, b core.Intent) bool {
	if (a.Track == nil) != (b.Track == nil) {
		return false
	}
	if a.Track != nil && *a.Track != *b.Track {
		return false
	}
	return a.Selection == b.Selection && a.IsPlaying == b.IsPlaying &&
		a.Volume == b.Volume && a.Seek == b.Seek
}
