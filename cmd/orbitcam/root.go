package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/orbitcam/internal/config"
	"github.com/inamate/orbitcam/internal/snapshot"
)

var (
	// global flags
	sceneSeed  int64
	ffmpegPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "orbitcam",
	Short: "keyframed camera orbit animations",
	Long: `orbitcam plays and renders short animations of a figure orbited by a camera.
an animation is a configuration file (json or yaml) of figure and camera segments.

when run without a subcommand, it previews the sample animation.`,
	Version: "1.0.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd, nil)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&sceneSeed, "seed", 0, "seed for the environment layout")
	rootCmd.PersistentFlags().StringVar(&ffmpegPath, "ffmpeg", "", "ffmpeg binary used for webm output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment, then applies global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("seed") {
		cfg.SceneSeed = sceneSeed
	}
	if ffmpegPath != "" {
		cfg.FfmpegPath = ffmpegPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// setupLogging sends logs to w, which is stderr except while the TUI owns
// the terminal.
func setupLogging(cfg *config.Config, w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()})))
}

// readSnapshot loads a configuration file. An empty path is the sample
// animation and "-" reads stdin.
func readSnapshot(path string) (*snapshot.Snapshot, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return snapshot.Sample(), nil
	case "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return snapshot.Decode(data)
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
