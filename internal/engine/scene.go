package engine

import (
	"image"

	"github.com/inamate/orbitcam/internal/camera"
)

// SceneSpec describes the scene a SceneBuilder should produce.
type SceneSpec struct {
	FigureScale float64
	Width       int
	Height      int
	// Recording is set when every frame will be captured. Preview scenes
	// may skip producing images.
	Recording bool
}

// Frame is everything a scene needs to draw one frame.
type Frame struct {
	Index int
	State AnimationState
	Pose  camera.Pose
}

// SceneBuilder creates render scenes. The controller rebuilds the scene
// whenever figure scale or output size may have changed.
type SceneBuilder interface {
	Build(spec SceneSpec) (Scene, error)
}

// Scene draws frames. Dispose is called exactly once, before the scene is
// replaced or the controller is closed.
type Scene interface {
	// Render draws f. The image may be nil for preview scenes that present
	// frames some other way.
	Render(f Frame) (image.Image, error)
	Dispose()
}

// Capturer accumulates rendered frames into an output file.
type Capturer interface {
	Start() error
	CaptureFrame(img image.Image) error
	Stop() error
	Save() ([]byte, error)
}

// CapturerFactory returns a capturer for an output format. It fails with
// ErrUnsupportedFormat for formats it does not know.
type CapturerFactory func(format string, fps int) (Capturer, error)
