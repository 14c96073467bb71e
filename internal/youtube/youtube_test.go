package youtube

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/adapter"
	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
	"github.com/dalimagaadi/kord-app/internal/mpv"
	"github.com/dalimagaadi/kord-app/internal/mpv/mpvtest"
)

type fakePlayer struct {
	calls []string
	cued  string
	vol   int
	seek  float64
}

func (p *fakePlayer) CueVideoByID(id string, _ float64) error {
	p.calls = append(p.calls, "cue")
	p.cued = id
	return nil
}

func (p *fakePlayer) PlayVideo() error {
	p.calls = append(p.calls, "play")
	return nil
}

func (p *fakePlayer) PauseVideo() error {
	p.calls = append(p.calls, "pause")
	return nil
}

func (p *fakePlayer) SeekTo(seconds float64, _ bool) error {
	p.calls = append(p.calls, "seek")
	p.seek = seconds
	return nil
}

func (p *fakePlayer) SetVolume(v int) error {
	p.calls = append(p.calls, "volume")
	p.vol = v
	return nil
}

func (p *fakePlayer) Destroy() error {
	p.calls = append(p.calls, "destroy")
	return nil
}

type recordedEvents struct {
	names    []string
	progress time.Duration
	err      error
}

func (e *recordedEvents) Ready() { e.names = append(e.names, "ready") }
func (e *recordedEvents) Playing(p bool) {
	if p {
		e.names = append(e.names, "playing")
	} else {
		e.names = append(e.names, "paused")
	}
}
func (e *recordedEvents) Progress(d time.Duration) {
	e.names = append(e.names, "progress")
	e.progress = d
}
func (e *recordedEvents) Ended() { e.names = append(e.names, "ended") }
func (e *recordedEvents) Error(err error) {
	e.names = append(e.names, "error")
	e.err = err
}

var _ adapter.Events = (*recordedEvents)(nil)

func TestIsVideoID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"dQw4w9WgXcQ", true},
		{"abc-_123XYZ", true},
		{"short", false},
		{"dQw4w9WgXcQx", false},
		{"dQw4w9WgXc!", false},
	}
	for _, tt := range tests {
		if got := IsVideoID(tt.id); got != tt.want {
			t.Errorf("IsVideoID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestDriverScalesToVendorUnits(t *testing.T) {
	p := &fakePlayer{}
	d := &driver{player: p}

	if err := d.SetVolume(0.456); err != nil {
		t.Fatal(err)
	}
	if p.vol != 46 {
		t.Errorf("volume = %d, want 46", p.vol)
	}
	if err := d.Seek(90 * time.Second); err != nil {
		t.Fatal(err)
	}
	if p.seek != 90 {
		t.Errorf("seek = %v seconds, want 90", p.seek)
	}
	if err := d.Load(core.Track{ID: "dQw4w9WgXcQ", Source: core.SourceYouTube}); err != nil {
		t.Fatal(err)
	}
	if p.cued != "dQw4w9WgXcQ" {
		t.Errorf("cued = %q, want dQw4w9WgXcQ", p.cued)
	}
}

func TestListenerMapsPlayerStates(t *testing.T) {
	ev := &recordedEvents{}
	l := listenerFor(ev)

	l.OnReady()
	l.OnStateChange(StateBuffering)
	l.OnStateChange(StatePlaying)
	l.OnProgress(1.5)
	l.OnStateChange(StatePaused)
	l.OnStateChange(StateCued)
	l.OnStateChange(StateEnded)

	want := []string{"ready", "playing", "progress", "paused", "ended"}
	if !reflect.DeepEqual(ev.names, want) {
		t.Errorf("events = %v, want %v", ev.names, want)
	}
	if ev.progress != 1500*time.Millisecond {
		t.Errorf("progress = %v, want 1.5s", ev.progress)
	}
}

func TestErrorCodes(t *testing.T) {
	ev := &recordedEvents{}
	listenerFor(ev).OnError(ErrorEmbedNotAllowedAlt)

	if !errors.Is(ev.err, kerrors.ErrVendorPlayback) {
		t.Fatalf("error %v should match ErrVendorPlayback", ev.err)
	}
	var vendorErr *kerrors.VendorError
	if !errors.As(ev.err, &vendorErr) || vendorErr.Code != "150" {
		t.Errorf("error = %v, want code 150", ev.err)
	}
	if ErrorEmbedNotAllowed.String() != ErrorEmbedNotAllowedAlt.String() {
		t.Error("101 and 150 should share a description")
	}
}

func TestAdapterAppliesVolumeOnReady(t *testing.T) {
	p := &fakePlayer{}
	var listener Listener
	factory := func(_ context.Context, l Listener) (Player, error) {
		listener = l
		return p, nil
	}
	loop := &eventloop.Manual{}
	a := New(factory, loop, zap.NewNop(), adapter.WithSpawn(func(f func()) { f() }))

	a.Activate(0.25)
	a.Load(core.Track{ID: "dQw4w9WgXcQ", Source: core.SourceYouTube})
	a.Mount(context.Background())
	loop.Drain()
	if len(p.calls) != 0 {
		t.Fatalf("calls before ready = %v, want none", p.calls)
	}

	listener.OnReady()
	loop.Drain()

	if want := []string{"volume", "cue"}; !reflect.DeepEqual(p.calls, want) {
		t.Errorf("calls = %v, want %v", p.calls, want)
	}
	if p.vol != 25 {
		t.Errorf("volume = %d, want 25", p.vol)
	}
	if a.IsApplicable(core.Track{ID: "nope", Source: core.SourceYouTube}) {
		t.Error("IsApplicable() accepted an invalid video id")
	}
}

func TestMPVPlayer(t *testing.T) {
	engine := &mpvtest.Engine{}
	ev := &recordedEvents{}
	factory := engineFactory(mpvtest.New(engine), mpv.Options{})

	player, err := factory(context.Background(), listenerFor(ev))
	if err != nil {
		t.Fatalf("factory() error = %v", err)
	}

	_ = player.CueVideoByID("dQw4w9WgXcQ", 0)
	_ = player.PlayVideo()
	_ = player.SetVolume(30)
	_ = player.SeekTo(2, true)
	engine.Callbacks.EOF()
	engine.Callbacks.Error(errors.New("stream failed"))
	_ = player.Destroy()

	wantCalls := []string{
		"load https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"play",
		"volume 30",
		"seek 2s",
		"close",
	}
	if !reflect.DeepEqual(engine.Calls, wantCalls) {
		t.Errorf("engine calls = %v, want %v", engine.Calls, wantCalls)
	}
	wantEvents := []string{"ready", "playing", "ended", "error"}
	if !reflect.DeepEqual(ev.names, wantEvents) {
		t.Errorf("events = %v, want %v", ev.names, wantEvents)
	}
}

func TestMPVPlayerRejectsInvalidID(t *testing.T) {
	engine := &mpvtest.Engine{}
	ev := &recordedEvents{}
	player, err := engineFactory(mpvtest.New(engine), mpv.Options{})(context.Background(), listenerFor(ev))
	if err != nil {
		t.Fatal(err)
	}

	if err := player.CueVideoByID("bad", 0); err != nil {
		t.Fatalf("CueVideoByID() error = %v", err)
	}
	if len(engine.Calls) != 0 {
		t.Errorf("engine calls = %v, want none", engine.Calls)
	}
	var vendorErr *kerrors.VendorError
	if !errors.As(ev.err, &vendorErr) || vendorErr.Code != "2" {
		t.Errorf("error = %v, want code 2", ev.err)
	}
}
