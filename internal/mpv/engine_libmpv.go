//go:build libmpv

package mpv

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	mpv "github.com/gen2brain/go-mpv"
)

// Available reports whether this binary can play through libmpv.
const Available = true

type engine struct {
	mu          sync.Mutex
	client      *mpv.Mpv
	cb          Callbacks
	paused      bool
	interval    time.Duration
	closeOnce   sync.Once
	closed      chan struct{}
	eventLoopWG sync.WaitGroup
}

// New creates and initializes a libmpv instance with video disabled.
func New(opts Options) (Engine, error) {
	client := mpv.New()
	if client == nil {
		return nil, errors.New("create libmpv instance")
	}

	setOptionString(client, "terminal", "no")
	setOptionString(client, "video", "no")
	setOptionString(client, "audio-display", "no")
	setOptionString(client, "keep-open", "no")
	setOptionString(client, "idle", "yes")
	setOptionString(client, "ytdl", "yes")
	if opts.YTDLFormat != "" {
		setOptionString(client, "ytdl-format", opts.YTDLFormat)
	}

	if err := client.Initialize(); err != nil {
		client.TerminateDestroy()
		return nil, fmt.Errorf("initialize libmpv: %w", err)
	}

	e := &engine{
		client:   client,
		paused:   true,
		interval: opts.progressInterval(),
		closed:   make(chan struct{}),
	}

	_ = client.RequestEvent(mpv.EventEnd, true)
	_ = client.RequestEvent(mpv.EventFileLoaded, true)

	e.eventLoopWG.Add(1)
	go e.eventLoop()

	return e, nil
}

func (e *engine) SetCallbacks(cb Callbacks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cb = cb
}

func (e *engine) Load(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetPropertyString(pauseProperty, "yes"); err != nil {
		return fmt.Errorf("set pause before load: %w", err)
	}
	e.paused = true

	if err := e.client.Command([]string{"loadfile", url, "replace"}); err != nil {
		return fmt.Errorf("load %q: %w", url, err)
	}
	return nil
}

func (e *engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetPropertyString(pauseProperty, "no"); err != nil {
		return fmt.Errorf("resume playback: %w", err)
	}
	e.paused = false
	return nil
}

func (e *engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetPropertyString(pauseProperty, "yes"); err != nil {
		return fmt.Errorf("pause playback: %w", err)
	}
	e.paused = true
	return nil
}

func (e *engine) Seek(position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetProperty(positionProperty, mpv.FormatDouble, position.Seconds()); err != nil {
		return fmt.Errorf("seek playback: %w", err)
	}
	return nil
}

func (e *engine) SetVolume(percent int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetProperty(volumeProperty, mpv.FormatDouble, float64(percent)); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

func (e *engine) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		client := e.client
		e.mu.Unlock()

		if client != nil {
			client.Wakeup()
			client.TerminateDestroy()
		}

		e.eventLoopWG.Wait()
		close(e.closed)
	})

	<-e.closed
	return nil
}

func (e *engine) eventLoop() {
	defer e.eventLoopWG.Done()

	lastProgress := time.Now()
	for {
		event := e.client.WaitEvent(e.interval.Seconds())
		if event != nil {
			switch event.EventID {
			case mpv.EventShutdown:
				return
			case mpv.EventFileLoaded:
				if cb := e.callbacks(); cb.FileLoaded != nil {
					cb.FileLoaded()
				}
			case mpv.EventEnd:
				end := event.EndFile()
				switch end.Reason {
				case mpv.EndFileEOF:
					e.handleEOF()
				case mpv.EndFileError:
					if cb := e.callbacks(); cb.Error != nil {
						cb.Error(errors.New("mpv could not play the stream"))
					}
				}
			}
		}

		if time.Since(lastProgress) >= e.interval {
			lastProgress = time.Now()
			e.reportProgress()
		}
	}
}

func (e *engine) handleEOF() {
	e.mu.Lock()
	e.paused = true
	cb := e.cb
	e.mu.Unlock()
	if cb.EOF != nil {
		cb.EOF()
	}
}

func (e *engine) reportProgress() {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	position, ok := e.positionLocked()
	cb := e.cb
	e.mu.Unlock()

	if ok && cb.Progress != nil {
		cb.Progress(position)
	}
}

func (e *engine) positionLocked() (time.Duration, bool) {
	value, err := e.client.GetProperty(positionProperty, mpv.FormatDouble)
	if err != nil {
		return 0, false
	}
	seconds, ok := value.(float64)
	if !ok || math.IsNaN(seconds) || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func (e *engine) callbacks() Callbacks {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cb
}

func setOptionString(client *mpv.Mpv, name string, value string) {
	_ = client.SetOptionString(name, value)
}
