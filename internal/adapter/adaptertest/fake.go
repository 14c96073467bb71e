// Package adaptertest provides a recording fake driver for tests that need
// to observe the exact sequence of vendor calls across several backends.
package adaptertest

import (
	"context"
	"time"

	"github.com/dalimagaadi/kord-app/internal/adapter"
	"github.com/dalimagaadi/kord-app/internal/core"
)

// Call is one recorded driver call.
type Call struct {
	Source   core.Source
	Name     string
	TrackID  string
	Volume   float64
	Position time.Duration
}

// Recorder collects calls from every driver sharing it, in call order.
type Recorder struct {
	Calls []Call
}

func (r *Recorder) add(c Call) {
	r.Calls = append(r.Calls, c)
}

// For returns the calls made on source's drivers.
func (r *Recorder) For(source core.Source) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Source == source {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the call names made on source's drivers.
func (r *Recorder) Names(source core.Source) []string {
	var out []string
	for _, c := range r.For(source) {
		out = append(out, c.Name)
	}
	return out
}

// Count returns how many calls named name were made on source's drivers.
func (r *Recorder) Count(source core.Source, name string) int {
	n := 0
	for _, c := range r.For(source) {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Reset forgets every recorded call.
func (r *Recorder) Reset() {
	r.Calls = nil
}

// Driver records every call. Errors in Fail are returned by the named call.
type Driver struct {
	source core.Source
	rec    *Recorder
	Fail   map[string]error
	Closed bool
}

func (d *Driver) record(c Call) error {
	c.Source = d.source
	d.rec.add(c)
	return d.Fail[c.Name]
}

func (d *Driver) Load(track core.Track) error {
	return d.record(Call{Name: "load", TrackID: track.ID})
}

func (d *Driver) Play() error { return d.record(Call{Name: "play"}) }
func (d *Driver) Pause() error { return d.record(Call{Name: "pause"}) }

func (d *Driver) Seek(position time.Duration) error {
	return d.record(Call{Name: "seek", Position: position})
}

func (d *Driver) SetVolume(volume float64) error {
	return d.record(Call{Name: "volume", Volume: volume})
}

func (d *Driver) Close() error {
	d.Closed = true
	return d.record(Call{Name: "close"})
}

// Backend is a mount function that keeps hold of the latest driver and its
// event sink so tests can play the vendor's part.
type Backend struct {
	Source   core.Source
	Recorder *Recorder
	MountErr error

	Mounts int
	Events adapter.Events
	Driver *Driver
}

// NewBackend creates a backend for source recording into rec.
func NewBackend(source core.Source, rec *Recorder) *Backend {
	return &Backend{Source: source, Recorder: rec}
}

// Mount implements adapter.MountFunc.
func (b *Backend) Mount(_ context.Context, events adapter.Events) (adapter.Driver, error) {
	b.Mounts++
	b.Events = events
	if b.MountErr != nil {
		return nil, b.MountErr
	}
	b.Driver = &Driver{source: b.Source, rec: b.Recorder, Fail: map[string]error{}}
	return b.Driver, nil
}

// Inline runs spawned work on the calling goroutine.
func Inline(f func()) {
	f()
}
