package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inamate/orbitcam/internal/engine"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case FrameMsg:
		m.frame = msg
		return m, nil

	case StatusMsg:
		m.status = engine.Status(msg)
		return m, nil

	case ExportMsg:
		return m, m.saveExport(engine.Export(msg))

	case savedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.lastSave = msg.Path
		return m, nil

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case " ", "p":
		return m, m.do(func(c *engine.Controller) error { c.TogglePlay(); return nil })

	case "s":
		return m, m.do(func(c *engine.Controller) error { c.Stop(); return nil })

	case "left", "h":
		return m, m.scrubBy(-1)

	case "right", "l":
		return m, m.scrubBy(1)

	case "[":
		return m, m.scrubBy(-10)

	case "]":
		return m, m.scrubBy(10)

	case "0", "home":
		return m, m.do(func(c *engine.Controller) error { c.Scrub(0); return nil })

	case "r":
		m.err = nil
		return m, m.do(func(c *engine.Controller) error { return c.StartRecording() })

	case "x":
		return m, m.do(func(c *engine.Controller) error { c.StopRecording(); return nil })
	}
	return m, nil
}

// scrubBy moves relative to the frame the controller is on, not the last
// frame the UI has seen.
func (m Model) scrubBy(delta int) tea.Cmd {
	return m.do(func(c *engine.Controller) error { c.Scrub(c.Frame() + delta); return nil })
}

// do runs fn on the controller loop and reports its error, if any.
func (m Model) do(fn func(c *engine.Controller) error) tea.Cmd {
	return func() tea.Msg {
		var err error
		if loopErr := m.loop.Do(context.Background(), func() { err = fn(m.ctrl) }); loopErr != nil {
			return ErrorMsg{Err: loopErr}
		}
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return nil
	}
}
