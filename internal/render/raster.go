package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/vector"
)

// Rasterizer draws command lists into an RGBA image. It reuses its
// buffers between frames; it is not safe for concurrent use.
type Rasterizer struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

// NewRasterizer returns a rasterizer for width×height frames.
func NewRasterizer(width, height int) *Rasterizer {
	return &Rasterizer{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		z:   vector.NewRasterizer(width, height),
	}
}

// Draw executes commands and returns the internal image. The image is
// overwritten by the next call.
func (r *Rasterizer) Draw(commands []DrawCommand) (*image.RGBA, error) {
	for i, cmd := range commands {
		if err := r.exec(cmd); err != nil {
			return nil, fmt.Errorf("command %d (%s): %w", i, cmd.ObjectID, err)
		}
	}
	return r.img, nil
}

// Image returns the last drawn frame.
func (r *Rasterizer) Image() *image.RGBA { return r.img }

func (r *Rasterizer) exec(cmd DrawCommand) error {
	switch cmd.Op {
	case "clear":
		c, err := ParseColor(cmd.Fill)
		if err != nil {
			return err
		}
		draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
		return nil
	case "path":
		if cmd.Fill != "" {
			if err := r.fill(cmd); err != nil {
				return err
			}
		}
		if cmd.Stroke != "" {
			return r.stroke(cmd)
		}
		return nil
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
}

func (r *Rasterizer) fill(cmd DrawCommand) error {
	c, err := ParseColor(cmd.Fill)
	if err != nil {
		return err
	}
	b := r.img.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	open := false
	for _, pc := range cmd.Path {
		op, x, y, err := decodePathCommand(pc)
		if err != nil {
			return err
		}
		switch op {
		case "M":
			if open {
				r.z.ClosePath()
			}
			r.z.MoveTo(x, y)
			open = true
		case "L":
			r.z.LineTo(x, y)
		case "Z":
			r.z.ClosePath()
			open = false
		}
	}
	if open {
		r.z.ClosePath()
	}
	r.z.Draw(r.img, b, image.NewUniform(c), image.Point{})
	return nil
}

// stroke draws every M/L pair of the path as a quad of the stroke width.
func (r *Rasterizer) stroke(cmd DrawCommand) error {
	c, err := ParseColor(cmd.Stroke)
	if err != nil {
		return err
	}
	width := float32(cmd.StrokeWidth)
	if width <= 0 {
		width = 1
	}
	b := r.img.Bounds()
	r.z.Reset(b.Dx(), b.Dy())

	var px, py, sx, sy float32
	for _, pc := range cmd.Path {
		op, x, y, err := decodePathCommand(pc)
		if err != nil {
			return err
		}
		switch op {
		case "M":
			px, py, sx, sy = x, y, x, y
		case "L":
			r.segment(px, py, x, y, width)
			px, py = x, y
		case "Z":
			r.segment(px, py, sx, sy, width)
			px, py = sx, sy
		}
	}
	r.z.Draw(r.img, b, image.NewUniform(c), image.Point{})
	return nil
}

func (r *Rasterizer) segment(x0, y0, x1, y1, width float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	r.z.MoveTo(x0+nx, y0+ny)
	r.z.LineTo(x1+nx, y1+ny)
	r.z.LineTo(x1-nx, y1-ny)
	r.z.LineTo(x0-nx, y0-ny)
	r.z.ClosePath()
}

func decodePathCommand(pc PathCommand) (op string, x, y float32, err error) {
	if len(pc) == 0 {
		return "", 0, 0, fmt.Errorf("empty path command")
	}
	op, ok := pc[0].(string)
	if !ok {
		return "", 0, 0, fmt.Errorf("path op is %T", pc[0])
	}
	if op == "Z" {
		return op, 0, 0, nil
	}
	if len(pc) != 3 {
		return "", 0, 0, fmt.Errorf("path command %q needs 2 coordinates", op)
	}
	fx, okX := pc[1].(float64)
	fy, okY := pc[2].(float64)
	if !okX || !okY {
		return "", 0, 0, fmt.Errorf("path command %q has non-numeric coordinates", op)
	}
	return op, float32(fx), float32(fy), nil
}

// ParseColor reads a #rrggbb color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
