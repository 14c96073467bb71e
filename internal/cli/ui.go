package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
	"github.com/dalimagaadi/kord-app/internal/logging"
	"github.com/dalimagaadi/kord-app/internal/tui"
)

var uiRefresh int

var uiCmd = &cobra.Command{
	Use:     "ui [track]...",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive player",
	Long: `Launch the interactive terminal player, optionally queueing tracks.

Panels:
  • Now Playing - current track, backend, progress and volume
  • Queue - loaded tracks, current one highlighted
  • Sources - configured backends and their readiness
  • History - tracks played this session

Keyboard shortcuts:
  Space        Play/Pause
  n / p        Next / previous track
  ← / →        Seek back / forward
  + / -        Volume up/down
  /            Open a track reference
  a            Add a track to the queue
  Tab          Switch panel
  ?            Help
  q, Ctrl+C    Quit

Logs are discarded unless log.file is set.`,
	RunE: runUI,
}

func init() {
	uiCmd.Flags().IntVar(&uiRefresh, "refresh", 0, "refresh interval in milliseconds (default from tui.refresh_interval)")
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return kerrors.WithSuggestion(errors.New("the player needs an interactive terminal"),
			"Use 'kord play' to play without the interface")
	}

	tracks, err := parseRefs(args)
	if err != nil {
		return err
	}

	// stderr belongs to the terminal UI while it runs.
	logger := zap.NewNop()
	if cfg.Log.File != "" {
		if logger, err = logging.New(cfg.Log); err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
	}

	ctx := cmd.Context()
	eng, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	usable := playable(tracks, eng.registry.Sources())
	for _, err := range usable.Errors {
		fmt.Fprintf(os.Stderr, "skipping: %v\n", err)
	}

	refresh := cfg.TUI.RefreshInterval
	if uiRefresh > 0 {
		refresh = uiRefresh
	}
	app := tui.NewApp(eng.store, eng.queue, eng.sync, time.Duration(refresh)*time.Millisecond)

	return eng.run(ctx, func(ctx context.Context) error {
		if len(usable.Data) > 0 {
			eng.queue.Load(usable.Data, cfg.Playback.Autoplay)
		}
		err := tui.Run(ctx, app)
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
}
