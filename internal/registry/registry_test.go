package registry

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/adapter"
	"github.com/dalimagaadi/kord-app/internal/adapter/adaptertest"
	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
)

func newAdapter(source core.Source, opts ...adapter.Option) *adapter.Adapter {
	backend := adaptertest.NewBackend(source, &adaptertest.Recorder{})
	return adapter.New(source, backend.Mount, &eventloop.Manual{}, zap.NewNop(), opts...)
}

func TestResolve(t *testing.T) {
	yt := newAdapter(core.SourceYouTube)
	sp := newAdapter(core.SourceSpotify)
	r, err := New(yt, sp)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := r.Resolve(core.Track{ID: "42", Source: core.SourceSpotify})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != sp {
		t.Errorf("Resolve() = %v, want the spotify adapter", got.Source())
	}

	_, err = r.Resolve(core.Track{ID: "x", Source: core.SourceSoundCloud})
	if !errors.Is(err, kerrors.ErrUnknownSource) {
		t.Errorf("Resolve(soundcloud) error = %v, want ErrUnknownSource", err)
	}
	if !strings.Contains(err.Error(), "soundcloud") {
		t.Errorf("error %q should name the source", err)
	}
}

func TestResolveRespectsApplicability(t *testing.T) {
	yt := newAdapter(core.SourceYouTube, adapter.WithAccepts(func(t core.Track) bool { return t.ID != "blocked" }))
	r, err := New(yt)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Resolve(core.Track{ID: "blocked", Source: core.SourceYouTube}); !errors.Is(err, kerrors.ErrUnknownSource) {
		t.Errorf("Resolve() error = %v, want ErrUnknownSource", err)
	}
}

func TestDuplicateSource(t *testing.T) {
	_, err := New(newAdapter(core.SourceYouTube), newAdapter(core.SourceYouTube))
	if err == nil {
		t.Fatal("New() error = nil, want duplicate error")
	}
}

func TestSourcesAndClose(t *testing.T) {
	r, err := New(newAdapter(core.SourceSpotify), newAdapter(core.SourceYouTube))
	if err != nil {
		t.Fatal(err)
	}

	sources := r.Sources()
	if len(sources) != 2 || sources[0] != core.SourceSpotify || sources[1] != core.SourceYouTube {
		t.Errorf("Sources() = %v", sources)
	}
	if len(r.Adapters()) != 2 {
		t.Errorf("Adapters() len = %d, want 2", len(r.Adapters()))
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
