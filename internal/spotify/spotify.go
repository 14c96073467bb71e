package spotify

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/adapter"
	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
)

var trackIDRegex = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// TrackURI returns the spotify:track URI for a track id.
func TrackURI(id string) string {
	return "spotify:track:" + id
}

// New creates the Spotify adapter. Players are created through factory.
func New(factory Factory, loop eventloop.Dispatcher, logger *zap.Logger, opts ...adapter.Option) *adapter.Adapter {
	opts = append([]adapter.Option{adapter.WithAccepts(func(t core.Track) bool {
		return trackIDRegex.MatchString(t.ID)
	})}, opts...)
	return adapter.New(core.SourceSpotify, Mount(factory), loop, logger, opts...)
}

// Mount returns a mount function that creates players with factory.
func Mount(factory Factory) adapter.MountFunc {
	return func(ctx context.Context, events adapter.Events) (adapter.Driver, error) {
		tracker := &stateTracker{events: events}
		player, err := factory(ctx, tracker.listener())
		if err != nil {
			return nil, fmt.Errorf("connect spotify player: %w", err)
		}
		return &driver{player: player, tracker: tracker}, nil
	}
}

func vendorError(kind, message string) error {
	return &kerrors.VendorError{Source: "spotify", Code: kind, Message: message}
}

// stateTracker turns the SDK's state snapshots into edge events. The SDK
// has no ended event: a track has ended when the state for the track we
// started goes from playing to paused at position zero, or when the device
// moves on to another track.
type stateTracker struct {
	events adapter.Events

	mu       sync.Mutex
	expected string
	last     *State
}

func (t *stateTracker) listener() Listener {
	return Listener{
		OnReady: func(string) { t.events.Ready() },
		OnNotReady: func(deviceID string) {
			t.events.Error(vendorError(ErrorNotReady, fmt.Sprintf("device %s went offline", deviceID)))
		},
		OnStateChanged: t.changed,
		OnError: func(kind, message string) {
			t.events.Error(vendorError(kind, message))
		},
	}
}

// expect records uri as the track this device was told to play.
func (t *stateTracker) expect(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expected = uri
	t.last = nil
}

func (t *stateTracker) changed(s *State) {
	t.mu.Lock()
	expected, last := t.expected, t.last
	if s != nil {
		copied := *s
		t.last = &copied
	} else {
		t.last = nil
	}
	ended := false
	if s != nil && expected != "" && last != nil && last.TrackURI == expected && !last.Paused {
		ended = s.TrackURI != expected || (s.Paused && s.Position == 0)
	}
	if ended {
		t.expected = ""
	}
	t.mu.Unlock()

	switch {
	case ended:
		t.events.Ended()
	case s == nil:
		if last != nil && !last.Paused {
			t.events.Playing(false)
		}
	case s.TrackURI != expected:
		// A state for a track we did not start: a previous session or the
		// play request has not landed yet.
	default:
		if last == nil || last.TrackURI != expected || last.Paused != s.Paused {
			t.events.Playing(!s.Paused)
		}
		t.events.Progress(s.Position)
	}
}

// driver cues tracks locally: the Web API cannot load a track without
// starting it, so the first Play after Load starts the cued URI.
type driver struct {
	player  Player
	tracker *stateTracker
	started bool
	playing bool

	cued   string
	cuePos time.Duration
}

func (d *driver) Load(track core.Track) error {
	d.cued = TrackURI(track.ID)
	d.cuePos = 0
	d.started = false
	d.tracker.expect("")
	if d.playing {
		d.playing = false
		return d.player.Pause()
	}
	return nil
}

func (d *driver) Play() error {
	if d.cued != "" {
		uri, pos := d.cued, d.cuePos
		d.cued = ""
		d.tracker.expect(uri)
		if err := d.player.Play(uri); err != nil {
			return err
		}
		d.started = true
		d.playing = true
		if pos > 0 {
			return d.player.Seek(pos)
		}
		return nil
	}
	if !d.started {
		return nil
	}
	if err := d.player.Resume(); err != nil {
		return err
	}
	d.playing = true
	return nil
}

func (d *driver) Pause() error {
	if !d.started || !d.playing {
		return nil
	}
	if err := d.player.Pause(); err != nil {
		return err
	}
	d.playing = false
	return nil
}

func (d *driver) Seek(position time.Duration) error {
	if d.cued != "" {
		d.cuePos = position
		return nil
	}
	if !d.started {
		return nil
	}
	return d.player.Seek(position)
}

func (d *driver) SetVolume(volume float64) error {
	return d.player.SetVolume(core.ClampVolume(volume))
}

func (d *driver) Close() error {
	return d.player.Disconnect()
}
