package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dalimagaadi/kord-app/internal/config"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "kord",
	Short: "Play Spotify, SoundCloud and YouTube tracks through one transport",
	Long: `Kord plays tracks from Spotify, SoundCloud and YouTube as a single queue.

One backend plays at a time. Play, pause, seek and volume are kept in sync
with whichever backend owns the current track.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(false)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.kordrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig loads the configuration. With allowMissing, an explicit --config
// path that does not exist yet falls back to defaults.
func initConfig(allowMissing bool) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
		if errors.Is(err, os.ErrNotExist) {
			if !allowMissing {
				return fmt.Errorf("%w: %s", kerrors.ErrConfigNotFound, cfgFile)
			}
			cfg, err = config.Default(), nil
			cfg.ApplyDefaults()
		}
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", kerrors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", kerrors.ErrInvalidConfig, err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, kerrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}
