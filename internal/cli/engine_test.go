package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/config"
	"github.com/dalimagaadi/kord-app/internal/core"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/eventloop"
	"github.com/dalimagaadi/kord-app/internal/mpv"
)

func TestPlayable(t *testing.T) {
	tracks := []core.Track{
		{ID: "dQw4w9WgXcQ", Source: core.SourceYouTube},
		{ID: "abc", Source: core.SourceSpotify},
		{ID: "forss/flickermood", Source: core.SourceSoundCloud},
	}

	got := playable(tracks, []core.Source{core.SourceYouTube, core.SourceSoundCloud})

	if len(got.Data) != 2 {
		t.Fatalf("playable() kept %d tracks, want 2", len(got.Data))
	}
	if got.Data[1].Source != core.SourceSoundCloud {
		t.Errorf("second track source = %q, want soundcloud", got.Data[1].Source)
	}
	if len(got.Errors) != 1 || !errors.Is(got.Errors[0], kerrors.ErrBackendDisabled) {
		t.Errorf("errors = %v, want one ErrBackendDisabled", got.Errors)
	}
}

func TestBuildAdaptersWithoutLibMPV(t *testing.T) {
	if mpv.Available {
		t.Skip("built with libmpv")
	}

	c := config.Default()
	built, _ := buildAdapters(context.Background(), c, &eventloop.Manual{}, zap.NewNop(), nil)

	if len(built.Data) != 0 {
		t.Errorf("built %d adapters, want 0", len(built.Data))
	}
	if len(built.Errors) != 1 || !errors.Is(built.Errors[0], kerrors.ErrBackendDisabled) {
		t.Errorf("errors = %v, want one ErrBackendDisabled", built.Errors)
	}
}

func TestBuildAdaptersSpotifyWithoutToken(t *testing.T) {
	c := config.Default()
	c.YouTube.Enabled = false
	c.SoundCloud.Enabled = false
	c.Spotify.ClientID = "client"
	c.Spotify.TokenFile = filepath.Join(t.TempDir(), "missing.json")

	built, _ := buildAdapters(context.Background(), c, &eventloop.Manual{}, zap.NewNop(), nil)

	if len(built.Data) != 0 {
		t.Errorf("built %d adapters, want 0", len(built.Data))
	}
	if len(built.Errors) != 1 || !errors.Is(built.Errors[0], kerrors.ErrNotAuthenticated) {
		t.Errorf("errors = %v, want one ErrNotAuthenticated", built.Errors)
	}
}

func TestBuildAdaptersNothingEnabled(t *testing.T) {
	c := config.Default()
	c.YouTube.Enabled = false
	c.SoundCloud.Enabled = false

	built, _ := buildAdapters(context.Background(), c, &eventloop.Manual{}, zap.NewNop(), nil)
	if len(built.Data) != 0 || built.HasErrors() {
		t.Errorf("buildAdapters() = %d adapters, %v; want none", len(built.Data), built.Errors)
	}

	if _, err := newEngine(context.Background(), c, zap.NewNop()); err == nil {
		t.Error("newEngine() error = nil, want an error with no backends")
	}
}

func TestParseRefs(t *testing.T) {
	tracks, err := parseRefs([]string{"youtube:dQw4w9WgXcQ", "nope"})
	if err != nil {
		t.Fatalf("parseRefs() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "dQw4w9WgXcQ" {
		t.Errorf("parseRefs() = %+v, want the youtube track", tracks)
	}

	_, err = parseRefs([]string{"nope"})
	if !errors.Is(err, kerrors.ErrUnknownSource) {
		t.Errorf("parseRefs(bad) error = %v, want ErrUnknownSource", err)
	}
}
