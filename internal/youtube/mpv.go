package youtube

import (
	"context"
	"time"

	"github.com/dalimagaadi/kord-app/internal/mpv"
)

const watchURL = "https://www.youtube.com/watch?v="

// MPVFactory creates players that stream audio through libmpv and yt-dlp.
func MPVFactory(opts mpv.Options) Factory {
	return engineFactory(mpv.New, opts)
}

func engineFactory(newEngine func(mpv.Options) (mpv.Engine, error), opts mpv.Options) Factory {
	return func(_ context.Context, l Listener) (Player, error) {
		engine, err := newEngine(opts)
		if err != nil {
			return nil, err
		}
		p := &mpvPlayer{engine: engine, listener: l}
		engine.SetCallbacks(mpv.Callbacks{
			FileLoaded: func() { p.state(StateCued) },
			Progress: func(position time.Duration) {
				if l.OnProgress != nil {
					l.OnProgress(position.Seconds())
				}
			},
			EOF: func() { p.state(StateEnded) },
			Error: func(error) {
				if l.OnError != nil {
					l.OnError(ErrorHTML5)
				}
			},
		})
		if l.OnReady != nil {
			l.OnReady()
		}
		return p, nil
	}
}

// mpvPlayer presents an mpv engine as an IFrame player.
type mpvPlayer struct {
	engine   mpv.Engine
	listener Listener
}

func (p *mpvPlayer) state(s PlayerState) {
	if p.listener.OnStateChange != nil {
		p.listener.OnStateChange(s)
	}
}

func (p *mpvPlayer) CueVideoByID(videoID string, startSeconds float64) error {
	if !IsVideoID(videoID) {
		if p.listener.OnError != nil {
			p.listener.OnError(ErrorInvalidParam)
		}
		return nil
	}
	if err := p.engine.Load(watchURL + videoID); err != nil {
		return err
	}
	if startSeconds > 0 {
		return p.engine.Seek(time.Duration(startSeconds * float64(time.Second)))
	}
	return nil
}

func (p *mpvPlayer) PlayVideo() error {
	if err := p.engine.Play(); err != nil {
		return err
	}
	p.state(StatePlaying)
	return nil
}

func (p *mpvPlayer) PauseVideo() error {
	if err := p.engine.Pause(); err != nil {
		return err
	}
	p.state(StatePaused)
	return nil
}

func (p *mpvPlayer) SeekTo(seconds float64, _ bool) error {
	return p.engine.Seek(time.Duration(seconds * float64(time.Second)))
}

func (p *mpvPlayer) SetVolume(volume int) error {
	return p.engine.SetVolume(volume)
}

func (p *mpvPlayer) Destroy() error {
	return p.engine.Close()
}
