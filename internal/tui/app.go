package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dalimagaadi/kord-app/internal/core"
	"github.com/dalimagaadi/kord-app/internal/playback"
	"github.com/dalimagaadi/kord-app/internal/queue"
	"github.com/dalimagaadi/kord-app/internal/store"
	"github.com/dalimagaadi/kord-app/internal/tui/components"
	"github.com/dalimagaadi/kord-app/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelQueue
	PanelSources
	PanelHistory
	panelCount
)

const (
	volumeStep = 0.05
	seekStep   = 10 * time.Second
	maxHistory = 50
)

// Engine is the part of the playback synchronizer the UI reads.
type Engine interface {
	State() core.PlaybackState
	Sources(ctx context.Context) ([]playback.SourceStatus, error)
}

// App holds the handles the TUI drives. Every transport control is a write
// to the store; the UI never talks to a backend directly.
type App struct {
	store       *store.Store
	queue       *queue.Queue
	engine      Engine
	refreshRate time.Duration
}

// NewApp creates a new TUI application
func NewApp(st *store.Store, q *queue.Queue, engine Engine, refreshRate time.Duration) *App {
	if refreshRate <= 0 {
		refreshRate = time.Second
	}
	return &App{
		store:       st,
		queue:       q,
		engine:      engine,
		refreshRate: refreshRate,
	}
}

// Model is the main TUI model
type Model struct {
	app          *App
	width        int
	height       int
	focusedPanel Panel
	keys         keyMap
	help         help.Model

	state   *core.PlaybackState
	queue   core.Queue
	sources []playback.SourceStatus
	history []components.HistoryEntry

	nowPlaying  *components.NowPlaying
	queueView   *components.Queue
	sourcesView *components.Sources
	historyView *components.History

	showHelp bool

	// Track reference prompt
	showOpen  bool
	openInput textinput.Model
	enqueue   bool

	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(app *App) Model {
	ti := textinput.New()
	ti.Placeholder = "spotify:track:…, youtube:…, soundcloud URL"
	ti.CharLimit = 200
	ti.Width = 50

	return Model{
		app:          app,
		focusedPanel: PanelNowPlaying,
		keys:         newKeyMap(),
		help:         help.New(),
		nowPlaying:   components.NewNowPlaying(),
		queueView:    components.NewQueue(),
		sourcesView:  components.NewSources(),
		historyView:  components.NewHistory(),
		openInput:    ti,
	}
}

// Messages
type tickMsg time.Time
type stateMsg core.PlaybackState
type queueMsg core.Queue
type sourcesMsg []playback.SourceStatus
type errMsg error

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(m.app.engine.State())
	}
}

func (m Model) fetchQueue() tea.Cmd {
	return func() tea.Msg {
		return queueMsg(m.app.queue.Snapshot())
	}
}

func (m Model) fetchSources() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		sources, err := m.app.engine.Sources(ctx)
		if err != nil {
			return errMsg(err)
		}
		return sourcesMsg(sources)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.fetchState(),
		m.fetchQueue(),
		m.fetchSources(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		return m, tea.Batch(m.tick(), m.fetchState(), m.fetchQueue(), m.fetchSources())

	case stateMsg:
		st := core.PlaybackState(msg)
		m.recordHistory(m.state, &st)
		m.state = &st
		return m, nil

	case queueMsg:
		m.queue = core.Queue(msg)
		return m, nil

	case sourcesMsg:
		m.sources = msg
		return m, nil

	case errMsg:
		m.setError(msg)
		return m, nil
	}

	if m.showOpen {
		var cmd tea.Cmd
		m.openInput, cmd = m.openInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) setError(err error) {
	m.lastError = err
	m.errorExpiry = time.Now().Add(5 * time.Second)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showOpen {
		return m.handleOpenKeyPress(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.open), key.Matches(msg, m.keys.enqueue):
		m.showOpen = true
		m.enqueue = key.Matches(msg, m.keys.enqueue)
		m.openInput.SetValue("")
		m.openInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.panel):
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil

	case key.Matches(msg, m.keys.toggle):
		m.app.store.Toggle()
	case key.Matches(msg, m.keys.next):
		m.app.queue.Next()
	case key.Matches(msg, m.keys.prev):
		m.app.queue.Previous()
	case key.Matches(msg, m.keys.volumeUp):
		m.app.store.AdjustVolume(volumeStep)
	case key.Matches(msg, m.keys.volumeDown):
		m.app.store.AdjustVolume(-volumeStep)
	case key.Matches(msg, m.keys.seekBack):
		m.app.store.Seek(m.position() - seekStep)
	case key.Matches(msg, m.keys.seekFwd):
		m.app.store.Seek(m.position() + seekStep)

	case key.Matches(msg, m.keys.scrollDown):
		if m.focusedPanel == PanelQueue {
			m.queueView.ScrollDown()
		}
		return m, nil
	case key.Matches(msg, m.keys.scrollUp):
		if m.focusedPanel == PanelQueue {
			m.queueView.ScrollUp()
		}
		return m, nil

	default:
		return m, nil
	}

	return m, tea.Batch(m.fetchState(), m.fetchQueue())
}

func (m Model) handleOpenKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showOpen = false
		m.openInput.Blur()
		return m, nil

	case "enter":
		m.showOpen = false
		m.openInput.Blur()

		track, err := core.ParseTrackRef(m.openInput.Value())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if m.enqueue {
			m.app.queue.Append(track)
		} else {
			m.app.store.Select(track, true)
		}
		return m, tea.Batch(m.fetchState(), m.fetchQueue())
	}

	var cmd tea.Cmd
	m.openInput, cmd = m.openInput.Update(msg)
	return m, cmd
}

// position is the estimated playback position of the current track.
func (m Model) position() time.Duration {
	if m.state == nil {
		return 0
	}
	return m.app.engine.State().Progress
}

// recordHistory adds an entry when the track changes. The previous entry is
// marked skipped if it was left before it ended.
func (m *Model) recordHistory(prev, curr *core.PlaybackState) {
	if !curr.HasTrack() {
		return
	}
	if prev.HasTrack() && prev.Track.Same(*curr.Track) {
		return
	}
	if len(m.history) > 0 && prev.HasTrack() && !prev.Ended {
		m.history[0].Skipped = true
	}

	entry := components.HistoryEntry{Track: *curr.Track, PlayedAt: time.Now()}
	m.history = append([]components.HistoryEntry{entry}, m.history...)
	if len(m.history) > maxHistory {
		m.history = m.history[:maxHistory]
	}
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.showOpen {
		return m.renderOpen()
	}

	// Left: Now Playing (top), Queue (bottom)
	// Right: Sources (top), History (bottom)
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	topHeight := m.height * 40 / 100
	bottomHeight := m.height - topHeight - 2

	nowPlaying := m.nowPlaying.Render(m.state, leftWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	queueView := m.queueView.Render(&m.queue, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelQueue)
	sourcesView := m.sourcesView.Render(m.sources, rightWidth-2, topHeight-2, m.focusedPanel == PanelSources)
	historyView := m.historyView.Render(m.history, rightWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, queueView)
	rightCol := lipgloss.JoinVertical(lipgloss.Left, sourcesView, historyView)
	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := m.help.ShortHelpView(m.keys.ShortHelp())

	if m.lastError != nil {
		status = styles.Failed.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := styles.Title.Render("kord - Keyboard Shortcuts")
	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		styles.Dim.Render("Press ? or Esc to close"),
	)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Padding(1, 2).Render(body))
}

func (m Model) renderOpen() string {
	heading := "Play track"
	if m.enqueue {
		heading = "Add to queue"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.Highlight.Render(heading),
		"",
		m.openInput.View(),
		"",
		styles.Dim.Render("Enter:confirm  Esc:cancel"),
	)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Padding(1, 2).Render(content))
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, app *App) error {
	p := tea.NewProgram(NewModel(app), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
