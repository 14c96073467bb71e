package soundcloud

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/adapter"
	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
)

var (
	permalinkRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+/[A-Za-z0-9_-]+$`)
	trackIDRegex   = regexp.MustCompile(`^[0-9]+$`)
)

// TrackURL returns the URL the widget loads for a track id. Ids are either
// "user/slug" permalinks or numeric API ids.
func TrackURL(id string) (string, bool) {
	switch {
	case permalinkRegex.MatchString(id):
		return "https://soundcloud.com/" + id, true
	case trackIDRegex.MatchString(id):
		return "https://api.soundcloud.com/tracks/" + id, true
	default:
		return "", false
	}
}

// New creates the SoundCloud adapter. Widgets are created through factory.
func New(factory Factory, loop eventloop.Dispatcher, logger *zap.Logger, opts ...adapter.Option) *adapter.Adapter {
	opts = append([]adapter.Option{adapter.WithAccepts(func(t core.Track) bool {
		_, ok := TrackURL(t.ID)
		return ok
	})}, opts...)
	return adapter.New(core.SourceSoundCloud, Mount(factory), loop, logger, opts...)
}

// Mount returns a mount function that creates widgets with factory.
func Mount(factory Factory) adapter.MountFunc {
	return func(ctx context.Context, events adapter.Events) (adapter.Driver, error) {
		w, err := factory(ctx)
		if err != nil {
			return nil, fmt.Errorf("create soundcloud widget: %w", err)
		}
		bind(w, events)
		return &driver{widget: w}, nil
	}
}

func bind(w Widget, events adapter.Events) {
	w.Bind(EventPlay, func(EventData) { events.Playing(true) })
	w.Bind(EventPause, func(EventData) { events.Playing(false) })
	w.Bind(EventFinish, func(EventData) { events.Ended() })
	w.Bind(EventPlayProgress, func(d EventData) {
		events.Progress(time.Duration(d.CurrentPosition * float64(time.Millisecond)))
	})
	w.Bind(EventError, func(EventData) {
		events.Error(&kerrors.VendorError{Source: "soundcloud", Message: "the widget could not play this track"})
	})
	// READY is bound last; an initialized widget may fire it immediately.
	w.Bind(EventReady, func(EventData) { events.Ready() })
}

type driver struct {
	widget Widget
}

func (d *driver) Load(track core.Track) error {
	url, ok := TrackURL(track.ID)
	if !ok {
		return &kerrors.VendorError{Source: "soundcloud", Message: fmt.Sprintf("invalid track id %q", track.ID)}
	}
	return d.widget.Load(url, LoadOptions{AutoPlay: false})
}

func (d *driver) Play() error {
	return d.widget.Play()
}

func (d *driver) Pause() error {
	return d.widget.Pause()
}

func (d *driver) Seek(position time.Duration) error {
	return d.widget.SeekTo(float64(position.Milliseconds()))
}

func (d *driver) SetVolume(volume float64) error {
	return d.widget.SetVolume(core.ClampVolume(volume) * 100)
}

func (d *driver) Close() error {
	return d.widget.Close()
}
