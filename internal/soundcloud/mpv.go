package soundcloud

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dalimagaadi/kord-app/internal/mpv"
)

// MPVFactory creates widgets that stream audio through libmpv and yt-dlp.
func MPVFactory(opts mpv.Options) Factory {
	return engineFactory(mpv.New, opts)
}

func engineFactory(newEngine func(mpv.Options) (mpv.Engine, error), opts mpv.Options) Factory {
	return func(context.Context) (Widget, error) {
		engine, err := newEngine(opts)
		if err != nil {
			return nil, err
		}
		w := &mpvWidget{engine: engine, listeners: make(map[Event][]func(EventData))}
		engine.SetCallbacks(mpv.Callbacks{
			Progress: func(position time.Duration) {
				w.emit(EventPlayProgress, EventData{CurrentPosition: float64(position.Milliseconds())})
			},
			EOF:   func() { w.emit(EventFinish, EventData{}) },
			Error: func(error) { w.emit(EventError, EventData{}) },
		})
		return w, nil
	}
}

// mpvWidget presents an mpv engine as a widget. It is ready as soon as it
// exists, so binding READY fires the listener immediately.
type mpvWidget struct {
	engine mpv.Engine

	mu        sync.Mutex
	listeners map[Event][]func(EventData)
}

func (w *mpvWidget) Bind(event Event, fn func(EventData)) {
	w.mu.Lock()
	w.listeners[event] = append(w.listeners[event], fn)
	w.mu.Unlock()

	if event == EventReady {
		fn(EventData{})
	}
}

func (w *mpvWidget) emit(event Event, data EventData) {
	w.mu.Lock()
	fns := append([]func(EventData){}, w.listeners[event]...)
	w.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

func (w *mpvWidget) Load(url string, _ LoadOptions) error {
	return w.engine.Load(url)
}

func (w *mpvWidget) Play() error {
	if err := w.engine.Play(); err != nil {
		return err
	}
	w.emit(EventPlay, EventData{})
	return nil
}

func (w *mpvWidget) Pause() error {
	if err := w.engine.Pause(); err != nil {
		return err
	}
	w.emit(EventPause, EventData{})
	return nil
}

func (w *mpvWidget) SeekTo(milliseconds float64) error {
	if err := w.engine.Seek(time.Duration(milliseconds * float64(time.Millisecond))); err != nil {
		return err
	}
	w.emit(EventSeek, EventData{CurrentPosition: milliseconds})
	return nil
}

func (w *mpvWidget) SetVolume(volume float64) error {
	return w.engine.SetVolume(int(math.Round(volume)))
}

func (w *mpvWidget) Close() error {
	return w.engine.Close()
}
