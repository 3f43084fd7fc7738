// Package capture turns rendered frames into downloadable files.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"runtime"

	"github.com/inamate/orbitcam/internal/engine"
	"github.com/inamate/orbitcam/internal/snapshot"
)

var (
	ErrNotStarted = errors.New("capture not started")
	ErrNotStopped = errors.New("capture still running")
	ErrNoFrames   = errors.New("no frames captured")
)

// Options configures capturers.
type Options struct {
	// Context bounds encoder processes. Defaults to context.Background.
	Context context.Context
	// FFmpegPath is the ffmpeg binary used for webm output.
	FFmpegPath string
	// TempDir is where encoders place intermediate files. Empty means the
	// system temp dir.
	TempDir string
	// Workers limits concurrent PNG encoders. Zero means GOMAXPROCS.
	Workers int
}

func (o Options) withDefaults() Options {
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.FFmpegPath == "" {
		o.FFmpegPath = "ffmpeg"
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// New returns a capturer for format.
func New(format string, fps int, opts Options) (engine.Capturer, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	opts = opts.withDefaults()
	switch format {
	case snapshot.FormatPNGSequence:
		return newPNGSequence(opts), nil
	case snapshot.FormatWebM:
		return newWebM(fps, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", engine.ErrUnsupportedFormat, format)
	}
}

// Factory adapts New to engine.CapturerFactory.
func Factory(opts Options) engine.CapturerFactory {
	return func(format string, fps int) (engine.Capturer, error) {
		return New(format, fps, opts)
	}
}

// toRGBA returns img as a tightly packed RGBA image anchored at the origin.
// When copy is true the result never aliases img.
func toRGBA(img image.Image, copy bool) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && !copy &&
		rgba.Stride == b.Dx()*4 && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// CloneRGBA returns a tightly packed copy of img that later renders cannot
// overwrite.
func CloneRGBA(img image.Image) *image.RGBA { return toRGBA(img, true) }
