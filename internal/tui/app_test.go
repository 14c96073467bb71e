package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/core"
	"github.com/dalimagaadi/kord-app/internal/playback"
	"github.com/dalimagaadi/kord-app/internal/queue"
	"github.com/dalimagaadi/kord-app/internal/store"
)

type fakeEngine struct {
	state   core.PlaybackState
	sources []playback.SourceStatus
}

func (f *fakeEngine) State() core.PlaybackState { return f.state }

func (f *fakeEngine) Sources(context.Context) ([]playback.SourceStatus, error) {
	return f.sources, nil
}

var (
	first  = core.Track{ID: "aaaaaaaaaaa", Source: core.SourceYouTube, Title: "First"}
	second = core.Track{ID: "42", Source: core.SourceSpotify, Title: "Second"}
)

func newTestModel(t *testing.T) (Model, *store.Store, *queue.Queue, *fakeEngine) {
	t.Helper()
	st := store.New(0.5)
	q := queue.New(st, zap.NewNop())
	t.Cleanup(q.Close)
	engine := &fakeEngine{}
	return NewModel(NewApp(st, q, engine, time.Second)), st, q, engine
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestTransportKeysWriteIntent(t *testing.T) {
	m, st, q, _ := newTestModel(t)
	q.Load([]core.Track{first, second}, false)

	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if !st.Intent().IsPlaying {
		t.Error("space did not start playback")
	}

	m = press(m, runes("+"), runes("+"))
	if got := st.Intent().Volume; got < 0.599 || got > 0.601 {
		t.Errorf("Volume = %v, want 0.6", got)
	}
	m = press(m, runes("-"))
	if got := st.Intent().Volume; got < 0.549 || got > 0.551 {
		t.Errorf("Volume = %v, want 0.55", got)
	}

	m = press(m, runes("n"))
	if got := st.Intent().Track; got == nil || got.ID != "42" {
		t.Errorf("track after next = %v, want 42", got)
	}
	press(m, runes("p"))
	if got := st.Intent().Track; got == nil || got.ID != first.ID {
		t.Errorf("track after prev = %v, want %s", got, first.ID)
	}
}

func TestSeekKeysUseEstimatedPosition(t *testing.T) {
	m, st, _, engine := newTestModel(t)
	st.Select(first, true)
	engine.state = core.PlaybackState{Track: &first, IsPlaying: true, Progress: 30 * time.Second}
	m = press(m, stateMsg(engine.state))

	press(m, tea.KeyMsg{Type: tea.KeyRight})
	if got := st.Intent().Seek.Position; got != 40*time.Second {
		t.Errorf("Seek.Position = %v, want 40s", got)
	}

	engine.state.Progress = 5 * time.Second
	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if got := st.Intent().Seek.Position; got != 0 {
		t.Errorf("Seek.Position = %v, want 0", got)
	}
}

func TestOpenTrackPrompt(t *testing.T) {
	m, st, q, _ := newTestModel(t)

	m = press(m, runes("/"))
	if !m.showOpen {
		t.Fatal("/ did not open the prompt")
	}
	m = press(m, runes("youtube:dQw4w9WgXcQ"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.showOpen {
		t.Error("prompt still open after enter")
	}
	got := st.Intent()
	if got.Track == nil || got.Track.ID != "dQw4w9WgXcQ" || !got.IsPlaying {
		t.Errorf("intent = %+v, want youtube track playing", got)
	}

	m = press(m, runes("a"), runes("spotify:track:abc123"), tea.KeyMsg{Type: tea.KeyEnter})
	snap := q.Snapshot()
	if n := snap.Len(); n != 1 {
		t.Errorf("queue length = %d, want 1", n)
	}

	m = press(m, runes("/"), runes("nonsense"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.lastError == nil {
		t.Error("invalid reference did not set an error")
	}
}

func TestHistoryTracksChanges(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	m = press(m,
		stateMsg(core.PlaybackState{Track: &first, IsPlaying: true}),
		stateMsg(core.PlaybackState{Track: &first}),
		stateMsg(core.PlaybackState{Track: &second}),
	)

	if len(m.history) != 2 {
		t.Fatalf("history len = %d, want 2", len(m.history))
	}
	if m.history[0].Track.ID != second.ID {
		t.Errorf("newest entry = %q, want %q", m.history[0].Track.ID, second.ID)
	}
	if !m.history[1].Skipped {
		t.Error("track left before it ended should be marked skipped")
	}

	m = press(m,
		stateMsg(core.PlaybackState{Track: &second, Ended: true}),
		stateMsg(core.PlaybackState{Track: &first}),
	)
	if m.history[1].Skipped {
		t.Error("ended track marked skipped")
	}
}

func TestQuitAndView(t *testing.T) {
	m, _, _, engine := newTestModel(t)
	engine.sources = []playback.SourceStatus{{Source: core.SourceSpotify, Ready: true, Active: true}}

	if got := m.View(); got != "Loading..." {
		t.Errorf("View() before size = %q", got)
	}

	m = press(m,
		tea.WindowSizeMsg{Width: 120, Height: 40},
		stateMsg(core.PlaybackState{Track: &first, Phase: core.PhaseSynced, IsPlaying: true, Volume: 0.5}),
		sourcesMsg(engine.sources),
	)
	view := m.View()
	for _, want := range []string{"Now Playing", "First", "Sources", "spotify"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	next, cmd := m.Update(runes("q"))
	if cmd == nil || !next.(Model).quitting {
		t.Error("q did not quit")
	}
}
