package youtube

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/adapter"
	"github.com/dalimagaadi/kord-app/internal/core"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
)

var videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// IsVideoID reports whether id has the shape of a YouTube video id.
func IsVideoID(id string) bool {
	return videoIDRegex.MatchString(id)
}

// New creates the YouTube adapter. Players are created through factory.
func New(factory Factory, loop eventloop.Dispatcher, logger *zap.Logger, opts ...adapter.Option) *adapter.Adapter {
	opts = append([]adapter.Option{adapter.WithAccepts(func(t core.Track) bool { return IsVideoID(t.ID) })}, opts...)
	return adapter.New(core.SourceYouTube, Mount(factory), loop, logger, opts...)
}

// Mount returns a mount function that creates players with factory.
func Mount(factory Factory) adapter.MountFunc {
	return func(ctx context.Context, events adapter.Events) (adapter.Driver, error) {
		player, err := factory(ctx, listenerFor(events))
		if err != nil {
			return nil, fmt.Errorf("create youtube player: %w", err)
		}
		return &driver{player: player}, nil
	}
}

func listenerFor(events adapter.Events) Listener {
	return Listener{
		OnReady: events.Ready,
		OnStateChange: func(state PlayerState) {
			switch state {
			case StatePlaying:
				events.Playing(true)
			case StatePaused:
				events.Playing(false)
			case StateEnded:
				events.Ended()
			}
		},
		OnError: func(code ErrorCode) {
			events.Error(code.Err())
		},
		OnProgress: func(seconds float64) {
			events.Progress(time.Duration(seconds * float64(time.Second)))
		},
	}
}

type driver struct {
	player Player
}

// Load cues without starting playback.
func (d *driver) Load(track core.Track) error {
	return d.player.CueVideoByID(track.ID, 0)
}

func (d *driver) Play() error {
	return d.player.PlayVideo()
}

func (d *driver) Pause() error {
	return d.player.PauseVideo()
}

func (d *driver) Seek(position time.Duration) error {
	return d.player.SeekTo(position.Seconds(), true)
}

func (d *driver) SetVolume(volume float64) error {
	return d.player.SetVolume(int(math.Round(core.ClampVolume(volume) * 100)))
}

func (d *driver) Close() error {
	return d.player.Destroy()
}
