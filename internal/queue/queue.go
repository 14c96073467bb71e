// Package queue plays an ordered list of tracks through the store, moving to
// the next track whenever the synchronizer reports the current one ended or
// failed.
package queue

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/core"
	"github.com/dalimagaadi/kord-app/internal/store"
)

// Queue is safe for concurrent use.
type Queue struct {
	store  *store.Store
	logger *zap.Logger
	unsub  func()

	mu       sync.Mutex
	q        core.Queue
	done     chan struct{}
	finished bool
}

// New creates an empty queue attached to st.
func New(st *store.Store, logger *zap.Logger) *Queue {
	q := &Queue{
		store:  st,
		logger: logger,
		done:   make(chan struct{}),
	}
	q.unsub = st.Subscribe(q.onChange)
	return q
}

// Load replaces the queue with tracks and selects the first one.
func (q *Queue) Load(tracks []core.Track, autoplay bool) {
	q.mu.Lock()
	q.q = core.Queue{Tracks: append([]core.Track(nil), tracks...)}
	if q.finished {
		q.done = make(chan struct{})
		q.finished = false
	}
	first := q.q.Current()
	if first == nil {
		q.finishLocked()
	}
	q.mu.Unlock()

	if first == nil {
		q.store.Clear()
		return
	}
	q.logger.Info("Queue loaded", zap.Int("tracks", len(tracks)))
	q.store.Select(*first, autoplay)
}

// Append adds tracks to the end of the queue. An empty queue starts playing
// the first appended track.
func (q *Queue) Append(tracks ...core.Track) {
	if len(tracks) == 0 {
		return
	}
	q.mu.Lock()
	if q.q.IsEmpty() {
		q.mu.Unlock()
		q.Load(tracks, true)
		return
	}
	q.q.Tracks = append(q.q.Tracks, tracks...)
	if q.finished {
		q.done = make(chan struct{})
		q.finished = false
	}
	q.mu.Unlock()
}

// Next selects the following track. It returns false at the end of the queue.
func (q *Queue) Next() bool {
	q.mu.Lock()
	if !q.q.Advance() {
		q.mu.Unlock()
		return false
	}
	track := *q.q.Current()
	q.mu.Unlock()

	q.store.Select(track, true)
	return true
}

// Previous selects the preceding track. At the start of the queue it
// restarts the current track instead and returns false.
func (q *Queue) Previous() bool {
	q.mu.Lock()
	if !q.q.Retreat() {
		q.mu.Unlock()
		q.store.Seek(0)
		return false
	}
	track := *q.q.Current()
	q.mu.Unlock()

	q.store.Select(track, true)
	return true
}

// Snapshot returns a copy of the queue.
func (q *Queue) Snapshot() core.Queue {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.q.Clone()
}

// Done is closed once the last track has ended or failed.
func (q *Queue) Done() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

// Close detaches the queue from the store.
func (q *Queue) Close() {
	q.unsub()
}

func (q *Queue) onChange(change store.Change) {
	if change.Previous.Track == nil {
		return
	}
	if change.Reason != store.ReasonTrackEnded && change.Reason != store.ReasonTrackFailed {
		return
	}

	q.mu.Lock()
	current := q.q.Current()
	if current == nil || !current.Same(*change.Previous.Track) {
		q.mu.Unlock()
		return
	}
	if !q.q.Advance() {
		q.finishLocked()
		q.mu.Unlock()
		q.logger.Info("Queue finished")
		return
	}
	next := *q.q.Current()
	q.mu.Unlock()

	q.logger.Debug("Advancing queue", zap.String("track", next.Key()), zap.String("reason", string(change.Reason)))
	q.store.Select(next, true)
}

func (q *Queue) finishLocked() {
	if !q.finished {
		q.finished = true
		close(q.done)
	}
}
