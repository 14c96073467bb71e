// Package adapter implements the uniform backend contract on top of a
// vendor-specific Driver. It owns the handle lifecycle, gates control calls
// on readiness and activity, and bridges vendor events onto the event loop.
package adapter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
	"github.com/dalimagaadi/kord-app/internal/metrics"
)

// Driver is one mounted vendor player instance. Volumes are in [0,1]; each
// driver scales to its vendor's range. Methods are only called after the
// driver has signalled Ready, and always from the event loop.
type Driver interface {
	Load(track core.Track) error
	Play() error
	Pause() error
	Seek(position time.Duration) error
	SetVolume(volume float64) error
	Close() error
}

// Events receives vendor callbacks for one driver. It may be called from any
// goroutine.
type Events interface {
	Ready()
	Playing(playing bool)
	Progress(position time.Duration)
	Ended()
	Error(err error)
}

// MountFunc creates a driver. It may block; it runs off the event loop.
type MountFunc func(ctx context.Context, events Events) (Driver, error)

type command int

const (
	commandNone command = iota
	commandPlay
	commandPause
)

// mountAttempt hands a driver from the mounting goroutine to the event loop.
// Whoever abandons or claims it first decides who closes the driver.
type mountAttempt struct {
	gen    uint64
	cancel context.CancelFunc

	mu        sync.Mutex
	driver    Driver
	claimed   bool
	abandoned bool
}

// deliver stores d for the event loop. It returns false if the attempt was
// abandoned, in which case the caller owns d.
func (m *mountAttempt) deliver(d Driver) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.abandoned {
		return false
	}
	m.driver = d
	return true
}

// claim takes the delivered driver. It returns false if the attempt was
// abandoned first.
func (m *mountAttempt) claim() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.abandoned {
		return false
	}
	m.claimed = true
	m.driver = nil
	return true
}

// abandon cancels the mount and returns a driver that was delivered but
// never claimed.
func (m *mountAttempt) abandon() Driver {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed {
		return nil
	}
	m.abandoned = true
	d := m.driver
	m.driver = nil
	return d
}

// Adapter is not safe for concurrent use. Every method must be called on
// the event loop the adapter was created with.
type Adapter struct {
	source   core.Source
	mount    MountFunc
	loop     eventloop.Dispatcher
	logger   *zap.Logger
	metrics  *metrics.Metrics
	spawn    func(func())
	now      func() time.Time
	accepted func(core.Track) bool

	// gen identifies the current handle. Events carrying an older
	// generation belong to a torn down handle and are dropped.
	gen           uint64
	driver        Driver
	attempt       *mountAttempt
	release       context.CancelFunc
	readySignaled bool
	readyFired    bool
	active        bool

	knownVolume   float64
	driverVolume  float64
	volumeApplied bool

	pending     *core.Track
	loaded      *core.Track
	needsRewind bool
	// commanded is the last play state sent to the driver since the vendor
	// last reported one. observed is written by vendor events only.
	commanded command
	observed  core.ObservedState

	onReady       func()
	onEnded       func()
	onError       func(core.ErrorInfo)
	onStateChange func()
}

var _ core.Adapter = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithMetrics records calls and events on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithSpawn replaces the function used to run MountFunc. Tests pass a
// function that runs it inline.
func WithSpawn(spawn func(func())) Option {
	return func(a *Adapter) { a.spawn = spawn }
}

// WithClock overrides the clock used to timestamp observed progress.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// WithAccepts narrows IsApplicable beyond a source match.
func WithAccepts(fn func(core.Track) bool) Option {
	return func(a *Adapter) { a.accepted = fn }
}

// New creates an adapter for source.
func New(source core.Source, mount MountFunc, loop eventloop.Dispatcher, logger *zap.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		source: source,
		mount:  mount,
		loop:   loop,
		logger: logger.With(zap.String("source", string(source))),
		spawn:  func(f func()) { go f() },
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Source() core.Source {
	return a.source
}

func (a *Adapter) IsApplicable(track core.Track) bool {
	if track.Source != a.source {
		return false
	}
	return a.accepted == nil || a.accepted(track)
}

func (a *Adapter) OnReady(fn func()) { a.onReady = fn }
func (a *Adapter) OnEnded(fn func()) { a.onEnded = fn }
func (a *Adapter) OnError(fn func(core.ErrorInfo)) { a.onError = fn }
func (a *Adapter) OnStateChange(fn func()) { a.onStateChange = fn }
func (a *Adapter) IsActive() bool { return a.active }
func (a *Adapter) IsReady() bool { return a.driver != nil && a.readyFired }
func (a *Adapter) Observed() core.ObservedState { return a.observed }

// Mount creates the vendor handle if there is none. Readiness is reported
// later through OnReady. Close cancels a mount still in flight.
func (a *Adapter) Mount(ctx context.Context) {
	if a.driver != nil || a.attempt != nil {
		return
	}
	a.gen++
	ctx, cancel := context.WithCancel(ctx)
	attempt := &mountAttempt{gen: a.gen, cancel: cancel}
	a.attempt = attempt
	events := &handleEvents{a: a, gen: a.gen}

	a.logger.Debug("Mounting player", zap.Uint64("handle", attempt.gen))
	a.spawn(func() {
		d, err := a.mount(ctx, events)
		if d != nil && !attempt.deliver(d) {
			a.metrics.StaleEvent(a.source, "mount")
			_ = d.Close()
			return
		}
		a.loop.Dispatch(func() { a.mounted(attempt, d, err) })
	})
}

func (a *Adapter) mounted(attempt *mountAttempt, d Driver, err error) {
	if !attempt.claim() {
		a.metrics.StaleEvent(a.source, "mount")
		a.logger.Debug("Ignoring mount of closed handle", zap.Uint64("handle", attempt.gen), zap.Error(kerrors.ErrStaleSession))
		return
	}
	a.attempt = nil
	if err != nil {
		attempt.cancel()
		a.logger.Warn("Failed to mount player", zap.Error(err))
		a.fail(err, true)
		return
	}
	a.driver = d
	a.release = attempt.cancel
	a.maybeReady()
}

// maybeReady fires the ready transition once both the driver is installed
// and the vendor has signalled readiness, in whichever order they arrive.
func (a *Adapter) maybeReady() {
	if a.driver == nil || !a.readySignaled || a.readyFired {
		return
	}
	a.readyFired = true
	a.observed.Ready = true
	a.logger.Debug("Player ready", zap.Uint64("handle", a.gen), zap.Bool("active", a.active))

	if a.active {
		a.applyVolume(a.knownVolume)
		if a.pending != nil {
			a.loadNow(*a.pending)
		}
	} else {
		a.call("pause", a.driver.Pause)
		a.commanded = commandPause
	}

	if a.onReady != nil {
		a.onReady()
	}
	a.changed()
}

// Activate makes this adapter the audio output. volume is the currently
// known volume, applied as soon as the handle is ready.
func (a *Adapter) Activate(volume float64) {
	a.active = true
	a.knownVolume = core.ClampVolume(volume)
}

// Deactivate pauses the vendor player if it may be producing audio, then
// stops accepting control calls.
func (a *Adapter) Deactivate() {
	if !a.active {
		return
	}
	if a.IsReady() && (a.commanded == commandPlay || (a.commanded == commandNone && a.observed.Playing)) {
		a.call("pause", a.driver.Pause)
		a.commanded = commandPause
	}
	a.active = false
	a.pending = nil
	a.logger.Debug("Adapter deactivated")
}

// Close tears down the handle, including one still mounting. Events from it
// are ignored afterwards.
func (a *Adapter) Close() error {
	a.gen++
	var err error
	if a.attempt != nil {
		if d := a.attempt.abandon(); d != nil {
			err = d.Close()
		}
		a.attempt = nil
	}
	if a.driver != nil {
		err = a.driver.Close()
	}
	if a.release != nil {
		a.release()
		a.release = nil
	}
	a.driver = nil
	a.readySignaled = false
	a.readyFired = false
	a.active = false
	a.volumeApplied = false
	a.pending = nil
	a.loaded = nil
	a.needsRewind = false
	a.commanded = commandNone
	a.observed = core.ObservedState{}
	return err
}

// Load cues track. Before the handle is ready the track is held and loaded
// on ready.
func (a *Adapter) Load(track core.Track) {
	if !a.IsReady() || !a.active {
		t := track
		a.pending = &t
		return
	}
	a.loadNow(track)
}

func (a *Adapter) loadNow(track core.Track) {
	// A handle that already played something resumes from its cached
	// position unless rewound before the next play.
	if a.loaded != nil {
		a.needsRewind = true
	}
	t := track
	a.loaded = &t
	a.pending = nil
	// A freshly loaded track is cued, not playing.
	a.commanded = commandPause
	a.call("load", func() error { return a.driver.Load(track) })
}

func (a *Adapter) Play() {
	if !a.controllable("play") {
		return
	}
	if a.commanded == commandPlay || (a.commanded == commandNone && a.observed.Playing) {
		return
	}
	if a.needsRewind {
		a.rewind()
	}
	a.call("play", a.driver.Play)
	a.commanded = commandPlay
}

func (a *Adapter) Pause() {
	if !a.controllable("pause") {
		return
	}
	if a.commanded == commandPause || (a.commanded == commandNone && !a.observed.Playing) {
		return
	}
	a.call("pause", a.driver.Pause)
	a.commanded = commandPause
}

func (a *Adapter) SeekTo(position time.Duration) {
	if !a.controllable("seek") {
		return
	}
	if position < 0 {
		position = 0
	}
	a.needsRewind = false
	a.call("seek", func() error { return a.driver.Seek(position) })
}

// SetVolume records volume as the known volume and applies it if the
// adapter is ready and active.
func (a *Adapter) SetVolume(volume float64) {
	a.knownVolume = core.ClampVolume(volume)
	if !a.controllable("volume") {
		return
	}
	a.applyVolume(a.knownVolume)
}

func (a *Adapter) rewind() {
	a.needsRewind = false
	a.call("seek", func() error { return a.driver.Seek(0) })
}

func (a *Adapter) applyVolume(volume float64) {
	if a.volumeApplied && a.driverVolume == volume {
		return
	}
	a.call("volume", func() error { return a.driver.SetVolume(volume) })
	a.driverVolume = volume
	a.volumeApplied = true
}

// controllable reports whether control calls reach the driver. Swallowed
// calls are logged and counted, never returned as errors.
func (a *Adapter) controllable(call string) bool {
	var reason error
	switch {
	case !a.IsReady():
		reason = kerrors.ErrAdapterNotReady
	case !a.active:
		reason = kerrors.ErrAdapterInactive
	default:
		return true
	}

	label := "not_ready"
	if reason == kerrors.ErrAdapterInactive {
		label = "inactive"
	}
	a.metrics.Swallowed(a.source, call, label)
	a.logger.Debug("Ignoring control call", zap.String("call", call), zap.Error(reason))
	return false
}

func (a *Adapter) call(name string, fn func() error) {
	a.metrics.VendorCall(a.source, name)
	if err := fn(); err != nil {
		a.logger.Warn("Player call failed", zap.String("call", name), zap.Error(err))
		a.fail(err, false)
	}
}

func (a *Adapter) fail(err error, terminal bool) {
	info := core.ErrorInfo{Source: a.source, Message: err.Error(), Terminal: terminal, Err: err}
	a.observed.LastError = &info
	a.metrics.VendorError(a.source)
	if a.onError != nil {
		a.onError(info)
	}
	a.changed()
}

func (a *Adapter) changed() {
	if a.onStateChange != nil {
		a.onStateChange()
	}
}

// handleEvents binds vendor callbacks to the handle generation they were
// created for.
type handleEvents struct {
	a   *Adapter
	gen uint64
}

func (h *handleEvents) dispatch(event string, fn func()) {
	h.a.loop.Dispatch(func() {
		if h.gen != h.a.gen {
			h.a.metrics.StaleEvent(h.a.source, event)
			h.a.logger.Debug("Ignoring event from closed handle", zap.String("event", event), zap.Error(kerrors.ErrStaleSession))
			return
		}
		fn()
	})
}

func (h *handleEvents) Ready() {
	h.dispatch("ready", func() {
		h.a.readySignaled = true
		h.a.maybeReady()
	})
}

func (h *handleEvents) Playing(playing bool) {
	h.dispatch("playing", func() {
		a := h.a
		a.observed.Playing = playing
		a.observed.ReportedAt = a.now()
		a.commanded = commandNone
		a.changed()
	})
}

func (h *handleEvents) Progress(position time.Duration) {
	h.dispatch("progress", func() {
		a := h.a
		a.observed.Position = position
		a.observed.ReportedAt = a.now()
		a.changed()
	})
}

func (h *handleEvents) Ended() {
	h.dispatch("ended", func() {
		a := h.a
		a.observed.Playing = false
		a.commanded = commandNone
		if !a.active {
			a.metrics.StaleEvent(a.source, "ended")
			a.logger.Debug("Ignoring ended event from inactive player", zap.Error(kerrors.ErrStaleSession))
			return
		}
		if a.onEnded != nil {
			a.onEnded()
		}
		a.changed()
	})
}

func (h *handleEvents) Error(err error) {
	if err == nil {
		return
	}
	h.dispatch("error", func() {
		a := h.a
		a.logger.Warn("Player reported error", zap.Error(err))
		a.observed.Playing = false
		a.observed.ReportedAt = a.now()
		a.commanded = commandNone
		a.fail(err, true)
	})
}
