// Package tui is a terminal front end for a Controller.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inamate/orbitcam/internal/engine"
)

type FrameMsg struct {
	Index int
	Total int
	State engine.AnimationState
	Thumb string
}

type StatusMsg engine.Status

type ExportMsg engine.Export

type ErrorMsg struct {
	Err error
}

type savedMsg struct {
	Path string
	Err  error
}

// Thumbnail size in terminal cells.
const (
	thumbCols = 64
	thumbRows = 20
)

type ModelConfig struct {
	Loop       *engine.EventLoop
	Controller *engine.Controller
	// OutputDir receives finished exports.
	OutputDir string
}

type Model struct {
	loop   *engine.EventLoop
	ctrl   *engine.Controller
	outDir string

	status   engine.Status
	frame    FrameMsg
	lastSave string
	err      error
	quitting bool
	width    int
	height   int
}

func NewModel(cfg ModelConfig) Model {
	return Model{loop: cfg.Loop, ctrl: cfg.Controller, outDir: cfg.OutputDir}
}

// Hooks forwards controller events to send, usually tea.Program.Send.
// Thumbnails are drawn on the loop goroutine because the frame image is
// reused by the next render.
func Hooks(send func(tea.Msg)) engine.Hooks {
	return engine.Hooks{
		OnFrame: func(f engine.FrameInfo) {
			send(FrameMsg{Index: f.Index, Total: f.Total, State: f.State, Thumb: Thumbnail(f.Image, thumbCols, thumbRows)})
		},
		OnStatus: func(st engine.Status) { send(StatusMsg(st)) },
		OnExport: func(e engine.Export) { send(ExportMsg(e)) },
		OnError:  func(err error) { send(ErrorMsg{Err: err}) },
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) saveExport(e engine.Export) tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(m.outDir, e.Name)
		if err := os.MkdirAll(m.outDir, 0o755); err != nil {
			return savedMsg{Err: fmt.Errorf("create output dir: %w", err)}
		}
		if err := os.WriteFile(path, e.Data, 0o644); err != nil {
			return savedMsg{Err: fmt.Errorf("write export: %w", err)}
		}
		return savedMsg{Path: path}
	}
}

// Close stops the controller and waits for it.
func (m Model) Close(ctx context.Context) error {
	return m.loop.Do(ctx, m.ctrl.Close)
}
