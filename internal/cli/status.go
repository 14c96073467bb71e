package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dalimagaadi/kord-app/internal/server"
)

const statusTimeout = 3 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what a running kord is playing",
	Long: `Query the status endpoint of a running 'kord play' or 'kord ui'.

Requires metrics.enabled; the address is metrics.addr.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if !cfg.Metrics.Enabled {
		return fmt.Errorf("status endpoint disabled; set metrics.enabled = true")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	st, err := fetchStatus(ctx, http.DefaultClient, "http://"+cfg.Metrics.Addr)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(st)
	}
	renderStatus(os.Stdout, st)
	return nil
}

func fetchStatus(ctx context.Context, client *http.Client, baseURL string) (*server.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/status", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kord is not running at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status request failed: %s", resp.Status)
	}

	var st server.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &st, nil
}

func renderStatus(w io.Writer, st *server.Status) {
	p := st.Playback
	if !p.HasTrack() {
		fmt.Fprintln(w, "Nothing playing")
	} else {
		state := "Paused"
		switch {
		case p.Ended:
			state = "Ended"
		case p.IsPlaying:
			state = "Playing"
		}
		fmt.Fprintf(w, "%s: %s [%s]\n", state, p.Track.DisplayTitle(), p.Track.Source)
		if p.Track.Artist != "" {
			fmt.Fprintf(w, "  by %s\n", p.Track.Artist)
		}
		fmt.Fprintf(w, "  %s\n", FormatProgress(p.Progress, p.Track.Duration))
	}
	fmt.Fprintf(w, "Volume: %d%%  Phase: %s\n", p.VolumePercent(), p.Phase)
	if p.Error != nil {
		fmt.Fprintf(w, "Error: %s\n", p.Error.Message)
	}

	if st.SourcesError != "" {
		fmt.Fprintf(w, "\nSources unavailable: %s\n", st.SourcesError)
		return
	}
	if len(st.Sources) == 0 {
		return
	}

	fmt.Fprintln(w)
	t := NewTableWriter(w, "", "SOURCE", "READY", "PLAYING", "ERROR")
	for _, s := range st.Sources {
		t.Row(StatusIcon(s.Active), string(s.Source), yesNo(s.Ready), yesNo(s.Playing), TruncateString(s.Error, 40))
	}
	t.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
