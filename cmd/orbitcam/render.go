package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inamate/orbitcam/internal/capture"
	"github.com/inamate/orbitcam/internal/export"
	"github.com/inamate/orbitcam/internal/render"
)

var (
	renderOutput string
	renderFormat string
	renderQuiet  bool
)

var renderCmd = &cobra.Command{
	Use:   "render [config]",
	Short: "record every frame of an animation to a file",
	Long: `renders the animation in config (or the sample animation) frame by frame and
writes the result as webm video or a tar of png frames.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg, os.Stderr)

		snap, err := readSnapshot(argOrEmpty(args))
		if err != nil {
			return err
		}
		if renderFormat != "" {
			snap.OutputFormat = renderFormat
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		svc := export.NewService(render.NewBuilder(cfg.SceneSeed), capture.Options{FFmpegPath: cfg.FfmpegPath})
		if !renderQuiet {
			svc.OnProgress = func(frame, total int) {
				fmt.Fprintf(os.Stderr, "\rframe %d/%d", frame, total)
			}
		}

		res, err := svc.Run(ctx, snap)
		if !renderQuiet {
			fmt.Fprintln(os.Stderr)
		}
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}

		out := renderOutput
		if out == "" {
			out = res.Name
		}
		if err := os.WriteFile(out, res.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("wrote %s (%d frames, %s)\n", out, res.Frames, formatBytes(int64(len(res.Data))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default animation_<time>.<ext>)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "override output format: webm, png_sequence")
	renderCmd.Flags().BoolVarP(&renderQuiet, "quiet", "q", false, "do not print progress")
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
