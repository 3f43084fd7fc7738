package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/inamate/orbitcam/internal/capture"
	"github.com/inamate/orbitcam/internal/engine"
	"github.com/inamate/orbitcam/internal/render"
	"github.com/inamate/orbitcam/internal/tui"
)

var (
	previewWidth  int
	previewHeight int
	previewOutDir string
)

var previewCmd = &cobra.Command{
	Use:   "preview [config]",
	Short: "play an animation in the terminal",
	Long: `opens an interactive terminal preview of the animation in config, or the
sample animation when no file is given. recordings started from the preview are
written to --out.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().IntVar(&previewWidth, "width", 0, "preview render width (default PREVIEW_WIDTH)")
	previewCmd.Flags().IntVar(&previewHeight, "height", 0, "preview render height (default PREVIEW_HEIGHT)")
	previewCmd.Flags().StringVarP(&previewOutDir, "out", "o", ".", "directory for recorded files")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if previewWidth > 0 {
		cfg.PreviewWidth = previewWidth
	}
	if previewHeight > 0 {
		cfg.PreviewHeight = previewHeight
	}
	// The TUI owns the terminal
	setupLogging(cfg, io.Discard)

	snap, err := readSnapshot(argOrEmpty(args))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The loop stops only after the controller is closed below.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := engine.NewEventLoop()
	go loop.Run(loopCtx)

	// Hooks run before the program exists; the relay buffers until it does.
	relay := tui.NewRelay(256)

	ctrl := engine.NewController(loop, render.NewBuilder(cfg.SceneSeed), capture.Factory(capture.Options{
		Context:    ctx,
		FFmpegPath: cfg.FfmpegPath,
	}), engine.Options{
		PreviewInterval: cfg.PreviewInterval(),
		PreviewWidth:    cfg.PreviewWidth,
		PreviewHeight:   cfg.PreviewHeight,
		Hooks:           tui.Hooks(relay.Send),
	})

	model := tui.NewModel(tui.ModelConfig{Loop: loop, Controller: ctrl, OutputDir: previewOutDir})
	p := tea.NewProgram(model, tea.WithAltScreen())

	var loadErr error
	if err := loop.Do(loopCtx, func() {
		if loadErr = ctrl.Load(snap); loadErr == nil {
			ctrl.Play()
		}
	}); err != nil {
		return err
	}
	if loadErr != nil {
		return fmt.Errorf("failed to load config: %w", loadErr)
	}

	relayCtx, stopRelay := context.WithCancel(ctx)
	go relay.Run(relayCtx, p.Send)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, runErr := p.Run()
	stopRelay()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	model.Close(closeCtx)

	if runErr != nil {
		return fmt.Errorf("error running bubble tea: %w", runErr)
	}
	return nil
}
