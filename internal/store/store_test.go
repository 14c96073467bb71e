package store

import (
	"testing"
	"time"

	"github.com/dalimagaadi/kord-app/internal/core"
)

func collect(s *Store) *[]Change {
	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })
	return &changes
}

func TestSelectAndPlay(t *testing.T) {
	s := New(0.5)
	changes := collect(s)

	s.Select(core.Track{ID: "42", Source: core.SourceSpotify}, false)
	s.Play()

	got := s.Intent()
	if got.Track == nil || got.Track.ID != "42" {
		t.Fatalf("Track = %+v, want id 42", got.Track)
	}
	if !got.IsPlaying {
		t.Error("IsPlaying = false, want true")
	}
	if got.Volume != 0.5 {
		t.Errorf("Volume = %v, want 0.5", got.Volume)
	}
	if len(*changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(*changes))
	}
	if (*changes)[1].Previous.IsPlaying {
		t.Error("Previous.IsPlaying = true, want false")
	}
	if (*changes)[0].Reason != ReasonUser {
		t.Errorf("Reason = %q, want %q", (*changes)[0].Reason, ReasonUser)
	}
}

func TestNoOpWritesAreNotBroadcast(t *testing.T) {
	s := New(0.5)
	changes := collect(s)

	s.Pause()
	s.SetVolume(0.5)
	s.Clear()

	if len(*changes) != 0 {
		t.Errorf("got %d changes, want 0", len(*changes))
	}
}

func TestVolumeIsClamped(t *testing.T) {
	s := New(3)
	if got := s.Intent().Volume; got != 1 {
		t.Errorf("New(3) volume = %v, want 1", got)
	}

	s.SetVolume(-1)
	if got := s.Intent().Volume; got != 0 {
		t.Errorf("SetVolume(-1) volume = %v, want 0", got)
	}

	s.AdjustVolume(0.25)
	s.AdjustVolume(2)
	if got := s.Intent().Volume; got != 1 {
		t.Errorf("AdjustVolume() volume = %v, want 1", got)
	}
}

func TestSeekIncrementsSequence(t *testing.T) {
	s := New(0.5)
	s.Seek(time.Second)
	if s.Intent().Seek.Seq != 0 {
		t.Error("Seek without a track should be ignored")
	}

	s.Select(core.Track{ID: "a", Source: core.SourceYouTube}, true)
	s.Seek(10 * time.Second)
	s.Seek(10 * time.Second)
	s.Seek(-time.Second)

	seek := s.Intent().Seek
	if seek.Seq != 3 {
		t.Errorf("Seek.Seq = %d, want 3", seek.Seq)
	}
	if seek.Position != 0 {
		t.Errorf("Seek.Position = %v, want 0", seek.Position)
	}
}

func TestMarkEnded(t *testing.T) {
	s := New(0.5)
	track := core.Track{ID: "a", Source: core.SourceYouTube}
	s.Select(track, true)
	changes := collect(s)

	if s.MarkEnded(core.Track{ID: "b", Source: core.SourceYouTube}) {
		t.Error("MarkEnded() for another track = true, want false")
	}
	if !s.MarkEnded(track) {
		t.Fatal("MarkEnded() = false, want true")
	}
	if s.Intent().IsPlaying {
		t.Error("IsPlaying = true after MarkEnded")
	}
	if len(*changes) != 1 || (*changes)[0].Reason != ReasonTrackEnded {
		t.Fatalf("changes = %+v, want one track_ended change", *changes)
	}

	// Already paused: still reported so listeners can advance.
	if !s.MarkEnded(track) {
		t.Error("second MarkEnded() = false, want true")
	}
	if len(*changes) != 2 {
		t.Errorf("got %d changes, want 2", len(*changes))
	}
}

func TestIntentIsACopy(t *testing.T) {
	s := New(0.5)
	s.Select(core.Track{ID: "a", Source: core.SourceSpotify, Title: "A"}, false)

	got := s.Intent()
	got.Track.Title = "changed"

	if s.Intent().Track.Title != "A" {
		t.Error("Intent() returned a track shared with the store")
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New(0.5)
	calls := 0
	unsubscribe := s.Subscribe(func(Change) { calls++ })

	s.Play()
	unsubscribe()
	s.Pause()

	if calls != 1 {
		t.Errorf("subscriber called %d times, want 1", calls)
	}
}

func TestHaltIsACorrection(t *testing.T) {
	s := New(0.5)
	s.Select(core.Track{ID: "a", Source: core.SourceSpotify}, true)
	changes := collect(s)

	s.Halt()

	if len(*changes) != 1 || (*changes)[0].Reason != ReasonCorrection {
		t.Fatalf("changes = %+v, want one correction", *changes)
	}
}

func TestReselectIsAChange(t *testing.T) {
	s := New(0.5)
	track := core.Track{ID: "a", Source: core.SourceYouTube}
	s.Select(track, true)
	changes := collect(s)

	s.Select(track, true)

	if len(*changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(*changes))
	}
	c := (*changes)[0]
	if c.Intent.Selection != c.Previous.Selection+1 {
		t.Errorf("Selection = %d after %d, want incremented", c.Intent.Selection, c.Previous.Selection)
	}
}

func TestMarkFailed(t *testing.T) {
	s := New(0.5)
	track := core.Track{ID: "a", Source: core.SourceYouTube}
	s.Select(track, true)
	changes := collect(s)

	if s.MarkFailed(core.Track{ID: "b", Source: core.SourceYouTube}) {
		t.Error("MarkFailed() for another track = true, want false")
	}
	if !s.MarkFailed(track) {
		t.Fatal("MarkFailed() = false, want true")
	}
	if s.Intent().IsPlaying {
		t.Error("IsPlaying = true after MarkFailed")
	}
	if len(*changes) != 1 || (*changes)[0].Reason != ReasonTrackFailed {
		t.Errorf("changes = %+v, want one track_failed change", *changes)
	}
}
