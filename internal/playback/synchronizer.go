// Package playback reconciles the canonical playback intent with whichever
// backend adapter is responsible for the current track.
//
// Reconciliation is level-triggered: every intent change and every adapter
// event schedules a pass on the event loop that recomputes what the active
// adapter should be doing and issues only the difference from what has
// already been applied.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
	"github.com/dalimagaadi/kord-app/internal/metrics"
	"github.com/dalimagaadi/kord-app/internal/registry"
	"github.com/dalimagaadi/kord-app/internal/store"
)

const subscriberBuffer = 16

// applied is what has been sent to the session's adapter.
type applied struct {
	volume    float64
	volumeSet bool
	playing   bool
	seekSeq   uint64
}

// session pairs one selection of a track with the adapter playing it.
type session struct {
	id        string
	selection uint64
	track     core.Track
	adapter   core.Adapter
	applied   applied
	ended     bool
	// err is the latest failure, kept for the status until the session
	// ends or playback is started again.
	err *core.ErrorInfo

	// position is where the session was last cued or seeked to. It stands
	// in for the vendor's position until the vendor reports a newer one.
	position   time.Duration
	positionAt time.Time
}

// rejection remembers a selection no adapter could take, so it is reported
// once.
type rejection struct {
	selection uint64
	track     core.Track
	info      core.ErrorInfo
}

// Synchronizer owns the single active session. All of its state except the
// published snapshot is confined to the event loop.
type Synchronizer struct {
	store    *store.Store
	registry *registry.Registry
	loop     eventloop.Dispatcher
	logger   *zap.Logger
	metrics  *metrics.Metrics
	sink     ErrorSink
	now      func() time.Time

	ctx        context.Context
	unsubStore func()

	session  *session
	rejected *rejection
	phase    core.Phase

	mu     sync.Mutex
	state  core.PlaybackState
	subs   map[int]chan core.PlaybackState
	nextID int
	closed bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithMetrics records sessions, phases and corrections on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

// WithErrorSink sets where backend errors are reported. The default logs.
func WithErrorSink(sink ErrorSink) Option {
	return func(s *Synchronizer) { s.sink = sink }
}

// WithClock overrides the clock used for position estimates.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// New creates a synchronizer. Call Start to begin reconciling.
func New(st *store.Store, reg *registry.Registry, loop eventloop.Dispatcher, logger *zap.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:    st,
		registry: reg,
		loop:     loop,
		logger:   logger,
		now:      time.Now,
		phase:    core.PhaseIdle,
		subs:     make(map[int]chan core.PlaybackState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = LogSink{Logger: logger}
	}
	s.state = core.PlaybackState{Phase: core.PhaseIdle, Volume: st.Intent().Volume, UpdatedAt: s.now()}
	return s
}

// Start wires adapter events and store changes to the event loop. ctx bounds
// every vendor handle mounted by the synchronizer.
func (s *Synchronizer) Start(ctx context.Context) {
	s.ctx = ctx
	for _, a := range s.registry.Adapters() {
		a := a
		a.OnReady(func() { s.handleReady(a) })
		a.OnEnded(func() { s.handleEnded(a) })
		a.OnError(func(info core.ErrorInfo) { s.handleError(a, info) })
		a.OnStateChange(func() { s.publish(s.store.Intent()) })
	}
	s.unsubStore = s.store.Subscribe(func(store.Change) {
		s.loop.Dispatch(s.reconcile)
	})
	s.metrics.SetPhase(core.PhaseIdle)
	s.loop.Dispatch(s.reconcile)
}

// Stop detaches from the store and closes every subscription.
func (s *Synchronizer) Stop() {
	if s.unsubStore != nil {
		s.unsubStore()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// reconcile applies the rules in order: no track, session change, wait for
// ready, then deltas.
func (s *Synchronizer) reconcile() {
	intent := s.store.Intent()
	defer s.publish(intent)

	if intent.Track == nil {
		if s.session != nil {
			s.endSession()
		}
		s.rejected = nil
		s.setPhase(core.PhaseIdle)
		return
	}

	if s.session == nil || s.session.selection != intent.Selection || !s.session.track.Same(*intent.Track) {
		if s.rejected != nil && s.rejected.selection == intent.Selection {
			return
		}
		if !s.begin(intent) {
			return
		}
	}

	sess := s.session
	if !sess.adapter.IsReady() {
		if intent.IsPlaying {
			// Remounts a handle whose mount failed; no-op while one exists.
			sess.adapter.Mount(s.mountContext())
		}
		s.setPhase(core.PhaseAwaitingReady)
		return
	}
	if sess.ended {
		if !intent.IsPlaying {
			return
		}
		// Play after the end starts the track over.
		sess.ended = false
		sess.applied.playing = false
		s.cue(sess, 0)
		sess.adapter.Load(sess.track)
	}

	s.apply(sess, intent)
}

// begin replaces the current session with one for intent's track. It
// returns false if no adapter accepts the track.
func (s *Synchronizer) begin(intent core.Intent) bool {
	track := *intent.Track
	a, err := s.registry.Resolve(track)
	if err != nil {
		if s.session != nil {
			s.endSession()
		}
		info := core.ErrorInfo{Source: track.Source, Message: err.Error(), Terminal: true, Err: err}
		s.rejected = &rejection{selection: intent.Selection, track: track, info: info}
		s.logger.Warn("No adapter for track", zap.String("track", track.Key()), zap.Error(err))
		s.sink.Report(info)
		s.setPhase(core.PhaseIdle)
		s.metrics.Correction(string(store.ReasonCorrection))
		s.store.Halt()
		return false
	}

	prev := s.session
	if prev != nil && prev.adapter != a {
		prev.adapter.Deactivate()
	}

	s.rejected = nil
	s.session = &session{
		id:         uuid.NewString(),
		selection:  intent.Selection,
		track:      track,
		adapter:    a,
		applied:    applied{seekSeq: intent.Seek.Seq},
		positionAt: s.now(),
	}
	s.metrics.SessionStarted(a.Source())
	s.logger.Info("Session started",
		zap.String("session", s.session.id),
		zap.String("track", track.Key()),
		zap.Bool("switched_backend", prev == nil || prev.adapter != a))

	a.Activate(intent.Volume)
	a.Load(track)
	a.Mount(s.mountContext())
	return true
}

func (s *Synchronizer) endSession() {
	sess := s.session
	s.session = nil
	sess.adapter.Deactivate()
	s.logger.Debug("Session ended", zap.String("session", sess.id))
}

// apply issues volume, then seek, then play or pause, skipping anything
// already applied.
func (s *Synchronizer) apply(sess *session, intent core.Intent) {
	a := sess.adapter
	volume := core.ClampVolume(intent.Volume)
	needVolume := !sess.applied.volumeSet || sess.applied.volume != volume
	needSeek := intent.Seek.Seq > sess.applied.seekSeq
	needPlay := intent.IsPlaying != sess.applied.playing

	if needVolume || needSeek || needPlay {
		s.setPhase(core.PhaseCorrecting)
	}

	if needVolume {
		a.SetVolume(volume)
		sess.applied.volume = volume
		sess.applied.volumeSet = true
	}
	if needSeek {
		a.SeekTo(intent.Seek.Position)
		sess.applied.seekSeq = intent.Seek.Seq
		s.cue(sess, intent.Seek.Position)
	}
	if needPlay {
		if intent.IsPlaying {
			sess.err = nil
			a.Play()
		} else {
			a.Pause()
		}
		sess.applied.playing = intent.IsPlaying
	}

	s.setPhase(core.PhaseSynced)
}

// cue records where the session's track was sent to.
func (s *Synchronizer) cue(sess *session, position time.Duration) {
	sess.position = position
	sess.positionAt = s.now()
}

func (s *Synchronizer) handleReady(a core.Adapter) {
	if s.session == nil || s.session.adapter != a {
		s.metrics.StaleEvent(a.Source(), "ready")
		s.logger.Debug("Ignoring ready from superseded session",
			zap.String("source", string(a.Source())), zap.Error(kerrors.ErrStaleSession))
		return
	}
	s.reconcile()
}

func (s *Synchronizer) handleEnded(a core.Adapter) {
	sess := s.session
	if sess == nil || sess.adapter != a {
		s.metrics.StaleEvent(a.Source(), "ended")
		s.logger.Debug("Ignoring ended from superseded session",
			zap.String("source", string(a.Source())), zap.Error(kerrors.ErrStaleSession))
		return
	}
	sess.applied.playing = false
	sess.ended = true
	s.logger.Info("Track ended", zap.String("session", sess.id), zap.String("track", sess.track.Key()))

	if s.store.MarkEnded(sess.track) {
		s.metrics.Correction(string(store.ReasonTrackEnded))
	}
	s.publish(s.store.Intent())
}

// handleError reports info and records it on the session it belongs to. A
// failed call leaves the session running; later intent changes are still
// applied but the call is not retried. A terminal error stops the track and
// tells the store, so a queue can move on.
func (s *Synchronizer) handleError(a core.Adapter, info core.ErrorInfo) {
	s.sink.Report(info)

	sess := s.session
	if sess == nil || sess.adapter != a {
		s.logger.Debug("Error from inactive adapter",
			zap.String("source", string(a.Source())),
			zap.String("message", info.Message),
			zap.Error(kerrors.ErrStaleSession))
		return
	}
	e := info
	sess.err = &e
	s.logger.Warn("Session errored",
		zap.String("session", sess.id),
		zap.String("message", info.Message),
		zap.Bool("terminal", info.Terminal))

	if info.Terminal {
		sess.applied.playing = false
		if s.store.MarkFailed(sess.track) {
			s.metrics.Correction(string(store.ReasonTrackFailed))
		}
	}
	s.publish(s.store.Intent())
}

func (s *Synchronizer) setPhase(phase core.Phase) {
	if s.phase == phase {
		return
	}
	s.logger.Debug("Phase changed", zap.String("from", string(s.phase)), zap.String("to", string(phase)))
	s.phase = phase
	s.metrics.SetPhase(phase)
}

func (s *Synchronizer) mountContext() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}
