package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dalimagaadi/kord-app/internal/config"
	kerrors "github.com/dalimagaadi/kord-app/internal/errors"
)

var (
	configInitInteractive bool
	configInitForce       bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing kord configuration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(true)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including defaults and KORD_* overrides.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values, or answer a few questions with --interactive.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration and token file locations",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in $EDITOR.`,
	RunE:  runConfigEdit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitInteractive, "interactive", "i", false, "fill in the configuration with a form")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return printJSON(cfg)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

// configPath is the file init and edit operate on.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if path := config.FindConfigFile(); path != "" {
		return path
	}
	return config.DefaultPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return kerrors.WithSuggestion(
			fmt.Errorf("config file already exists at %s", path),
			"Use --force to overwrite it, or 'kord config edit' to change it")
	}

	c := config.Default()
	if configInitInteractive {
		if err := runConfigForm(c); err != nil {
			return err
		}
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", kerrors.ErrInvalidConfig, err)
	}

	if err := config.Save(c, path); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "created", "path": path})
	}

	fmt.Printf("Created config file: %s\n", path)
	if c.Spotify.Enabled() {
		fmt.Println("\nNext steps:")
		fmt.Printf("  Place a Spotify OAuth token at %s\n", tokenPath(c))
	}
	return nil
}

// runConfigForm asks for the settings most people change.
func runConfigForm(c *config.Config) error {
	volume := strconv.Itoa(c.Playback.Volume)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Spotify client ID").
				Description("Leave empty to disable Spotify").
				Value(&c.Spotify.ClientID),
			huh.NewInput().
				Title("Spotify device name").
				Description("Empty uses the active Spotify Connect device").
				Value(&c.Spotify.DeviceName),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable YouTube?").
				Value(&c.YouTube.Enabled),
			huh.NewConfirm().
				Title("Enable SoundCloud?").
				Value(&c.SoundCloud.Enabled),
			huh.NewInput().
				Title("Initial volume (0-100)").
				Value(&volume).
				Validate(validateVolume),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("configuration cancelled: %w", err)
	}

	c.Spotify.ClientID = strings.TrimSpace(c.Spotify.ClientID)
	c.Spotify.DeviceName = strings.TrimSpace(c.Spotify.DeviceName)
	c.Playback.Volume, _ = strconv.Atoi(strings.TrimSpace(volume))
	return nil
}

func validateVolume(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("volume must be a whole number")
	}
	if v < 0 || v > 100 {
		return fmt.Errorf("volume must be between 0 and 100")
	}
	return nil
}

func tokenPath(c *config.Config) string {
	if c.Spotify.TokenFile != "" {
		return c.Spotify.TokenFile
	}
	return config.DefaultTokenFile()
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	loaded := cfgFile
	if loaded == "" {
		loaded = config.FindConfigFile()
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"config":  loaded,
			"default": config.DefaultPath(),
			"token":   tokenPath(cfg),
		})
	}

	if loaded == "" {
		loaded = "(none, using defaults)"
	}
	t := NewTable()
	t.Row("config:", loaded)
	t.Row("default:", config.DefaultPath())
	t.Row("token:", tokenPath(cfg))
	t.Flush()
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := configPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", kerrors.ErrConfigNotFound, path)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}
