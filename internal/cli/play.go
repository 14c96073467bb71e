package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dalimagaadi/kord-app/internal/core"
	"github.com/dalimagaadi/kord-app/internal/logging"
	"github.com/dalimagaadi/kord-app/internal/tail"
)

// After the queue finishes, wait this long for the final events to print.
const finishGrace = 250 * time.Millisecond

var (
	playPaused    bool
	playNoEmoji   bool
	playTimestamp bool
	playFormat    string
)

var playCmd = &cobra.Command{
	Use:   "play <track>...",
	Short: "Play tracks and follow playback",
	Long: `Queue the given tracks and play them in order, printing playback
events as they happen. Exits when the queue finishes or on Ctrl+C.

Track references:
  spotify:track:<id>     https://open.spotify.com/track/<id>
  youtube:<id>           https://www.youtube.com/watch?v=<id>
  soundcloud:<artist/track>   https://soundcloud.com/<artist>/<track>

Template fields for --format:
  {{.Time}} {{.Type}} {{.Emoji}} {{.Title}} {{.Artist}} {{.Source}}
  {{.Volume}} {{.Error}}`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playPaused, "paused", false, "load the first track without starting playback")
	playCmd.Flags().BoolVar(&playNoEmoji, "no-emoji", false, "disable emoji output")
	playCmd.Flags().BoolVarP(&playTimestamp, "timestamp", "t", false, "show timestamps")
	playCmd.Flags().StringVarP(&playFormat, "format", "f", "", "custom format template")

	rootCmd.AddCommand(playCmd)
}

// parseRefs parses track references, reporting the bad ones on stderr.
func parseRefs(args []string) ([]core.Track, error) {
	refs := core.ParseTrackRefs(args)
	for _, err := range refs.Errors {
		fmt.Fprintf(os.Stderr, "skipping: %v\n", err)
	}
	if len(refs.Data) == 0 && refs.HasErrors() {
		return nil, fmt.Errorf("no playable tracks: %w", errors.Join(refs.Errors...))
	}
	return refs.Data, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	tracks, err := parseRefs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	usable := playable(tracks, eng.registry.Sources())
	for _, err := range usable.Errors {
		fmt.Fprintf(os.Stderr, "skipping: %v\n", err)
	}
	if len(usable.Data) == 0 {
		eng.close()
		return fmt.Errorf("no playable tracks: %w", errors.Join(usable.Errors...))
	}

	formatter := tail.NewFormatter(
		tail.WithEmoji(cfg.Tail.Emoji && !playNoEmoji && isTerminal(os.Stdout)),
		tail.WithTimestamp(cfg.Tail.Timestamp || playTimestamp),
		tail.WithTemplate(playFormat),
	)

	return eng.run(ctx, func(ctx context.Context) error {
		states, unsubscribe := eng.sync.Subscribe()
		defer unsubscribe()

		watcher := tail.NewWatcher(states)
		go func() {
			if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Watcher stopped", zap.Error(err))
			}
		}()

		eng.queue.Load(usable.Data, cfg.Playback.Autoplay && !playPaused)

		done := eng.queue.Done()
		var linger <-chan time.Time
		for {
			select {
			case event, ok := <-watcher.Events():
				if !ok {
					return nil
				}
				if err := printEvent(formatter, event); err != nil {
					return err
				}
			case <-done:
				done = nil
				linger = time.After(finishGrace)
			case <-linger:
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type jsonEvent struct {
	Type  string              `json:"type"`
	Time  time.Time           `json:"time"`
	State *core.PlaybackState `json:"state,omitempty"`
}

func printEvent(f *tail.Formatter, e tail.Event) error {
	if JSONOutput() {
		return printJSON(jsonEvent{Type: e.Type.String(), Time: e.Timestamp, State: e.Current})
	}
	fmt.Println(f.Format(e))
	return nil
}
