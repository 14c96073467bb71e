package playback

import (
	"context"
	"time"

	"github.com/dalimagaadi/kord-app/internal/core"
)

// publish recomputes the effective status and fans it out. It runs on the
// event loop after every reconciliation pass and adapter event.
func (s *Synchronizer) publish(intent core.Intent) {
	now := s.now()
	st := core.PlaybackState{
		Phase:     s.phase,
		Volume:    core.ClampVolume(intent.Volume),
		UpdatedAt: now,
	}

	if sess := s.session; sess != nil {
		track := sess.track
		st.Session = sess.id
		st.Track = &track
		st.Ended = sess.ended
		st.Error = sess.err
		st.IsPlaying = s.phase == core.PhaseSynced && sess.applied.playing && !sess.ended
		if sess.applied.volumeSet {
			st.Volume = sess.applied.volume
		}

		// The vendor's report wins unless a cue or seek was sent after it.
		obs := sess.adapter.Observed()
		pos, at := sess.position, sess.positionAt
		if !obs.ReportedAt.IsZero() && !obs.ReportedAt.Before(sess.positionAt) {
			pos, at = obs.Position, obs.ReportedAt
		}
		st.Progress = pos
		if st.IsPlaying && obs.Playing && !at.IsZero() {
			st.Progress += now.Sub(at)
		}
		st.Progress = clampProgress(st.Progress, track.Duration)
	} else if s.rejected != nil {
		track := s.rejected.track
		info := s.rejected.info
		st.Track = &track
		st.Error = &info
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = st
	for _, ch := range s.subs {
		send(ch, st)
	}
}

// send delivers st, discarding the oldest queued state if ch is full.
func send(ch chan core.PlaybackState, st core.PlaybackState) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

func clampProgress(p, duration time.Duration) time.Duration {
	if p < 0 {
		return 0
	}
	if duration > 0 && p > duration {
		return duration
	}
	return p
}

// State returns the latest effective status with the position extrapolated
// to now while playing. Safe to call from any goroutine.
func (s *Synchronizer) State() core.PlaybackState {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	if st.IsPlaying {
		var duration time.Duration
		if st.Track != nil {
			duration = st.Track.Duration
		}
		st.Progress = clampProgress(st.Progress+s.now().Sub(st.UpdatedAt), duration)
	}
	return st
}

// Subscribe returns a channel receiving every published status, and a
// function that cancels the subscription. Slow readers miss intermediate
// states, never the latest one.
func (s *Synchronizer) Subscribe() (<-chan core.PlaybackState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan core.PlaybackState, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.state

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

// SourceStatus describes one registered backend.
type SourceStatus struct {
	Source  core.Source `json:"source"`
	Ready   bool        `json:"ready"`
	Active  bool        `json:"active"`
	Playing bool        `json:"playing"`
	Error   string      `json:"error,omitempty"`
}

// Sources reports the state of every registered backend. The adapters are
// read on the event loop, so this blocks until the loop gets to it or ctx
// is done.
func (s *Synchronizer) Sources(ctx context.Context) ([]SourceStatus, error) {
	ch := make(chan []SourceStatus, 1)
	s.loop.Dispatch(func() {
		adapters := s.registry.Adapters()
		out := make([]SourceStatus, 0, len(adapters))
		for _, a := range adapters {
			obs := a.Observed()
			st := SourceStatus{
				Source:  a.Source(),
				Ready:   a.IsReady(),
				Active:  a.IsActive(),
				Playing: obs.Playing,
			}
			if obs.LastError != nil {
				st.Error = obs.LastError.Message
			}
			out = append(out, st)
		}
		ch <- out
	})

	select {
	case out := <-ch:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
