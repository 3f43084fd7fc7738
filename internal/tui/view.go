package tui

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/inamate/orbitcam/internal/engine"
)

const (
	colorTitle   = "#8BE9FD"
	colorDim     = "#6272A4"
	colorPreview = "#50FA7B"
	colorRecord  = "#FF5555"
	colorAccent  = "#FFB86C"
)

// luminance ramp, dark to light
const ramp = " .:-=+*#%@"

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width == 0 {
		width = 80
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorTitle))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim))
	frameStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorDim))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorRecord))

	var lines []string
	lines = append(lines, titleStyle.Render("orbitcam")+"  "+m.renderState())

	if m.frame.Thumb != "" {
		lines = append(lines, frameStyle.Render(m.frame.Thumb))
	}

	lines = append(lines, m.renderProgress(width))
	lines = append(lines, dimStyle.Render(formatState(m.frame.State)))

	if m.status.Message != "" {
		lines = append(lines, dimStyle.Render(m.status.Message))
	}
	if m.lastSave != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Render("saved "+m.lastSave))
	}
	if m.err != nil {
		lines = append(lines, errorStyle.Render(m.err.Error()))
	}

	lines = append(lines, "")
	lines = append(lines, dimStyle.Render("space play/pause • s stop • ←/→ ±1 • [/] ±10 • 0 start • r record • x finish • q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderState() string {
	color := colorDim
	switch m.status.State {
	case engine.Previewing:
		color = colorPreview
	case engine.Recording:
		color = colorRecord
	}
	state := string(m.status.State)
	if state == "" {
		state = string(engine.Idle)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(state)
}

func (m Model) renderProgress(width int) string {
	total := m.frame.Total
	label := fmt.Sprintf(" %d/%d", m.frame.Index, max(total-1, 0))
	barWidth := max(width-len(label)-2, 10)
	filled := 0
	if total > 1 {
		filled = m.frame.Index * barWidth / (total - 1)
	}
	filled = min(max(filled, 0), barWidth)
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Render(bar) + label
}

func formatState(s engine.AnimationState) string {
	deg := func(r float64) float64 { return r * 180 / math.Pi }
	return fmt.Sprintf("figure (%.2f, %.2f, %.2f)  dist %.2f  elev %.1f°  azim %.1f°  roll %.1f°  pan (%.2f, %.2f)  fov %.1f°",
		s.Figure.X, s.Figure.Y, s.Figure.Z, s.Distance, deg(s.Elevation), deg(s.Azimuth), deg(s.Roll), s.PanX, s.PanY, s.Fov)
}

// Thumbnail draws img as cols×rows characters by average luminance.
func Thumbnail(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		y0 := b.Min.Y + row*b.Dy()/rows
		y1 := max(b.Min.Y+(row+1)*b.Dy()/rows, y0+1)
		for col := 0; col < cols; col++ {
			x0 := b.Min.X + col*b.Dx()/cols
			x1 := max(b.Min.X+(col+1)*b.Dx()/cols, x0+1)

			var sum, n float64
			// Sample a 2x2 grid in the cell
			for _, y := range []int{y0, (y0 + y1 - 1) / 2} {
				for _, x := range []int{x0, (x0 + x1 - 1) / 2} {
					r, g, bl, _ := img.At(x, y).RGBA()
					sum += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 0xffff
					n++
				}
			}
			idx := int(math.Round(sum / n * float64(len(ramp)-1)))
			sb.WriteByte(ramp[min(max(idx, 0), len(ramp)-1)])
		}
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
