package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/inamate/orbitcam/internal/camera"
	"github.com/inamate/orbitcam/internal/segment"
)

// Version is written into every saved configuration.
const Version = 1.0

// Output formats.
const (
	FormatWebM        = "webm"
	FormatPNGSequence = "png_sequence"
)

// Limits on what a configuration may ask for.
const (
	MaxVideoSide = 8192
	MaxFrames    = 100_000
)

var (
	ErrInvalidSnapshot = errors.New("invalid configuration snapshot")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Snapshot is the flat, persisted configuration of an animation.
type Snapshot struct {
	Version              float64              `json:"version" yaml:"version"`
	FigureScale          float64              `json:"figureScale" yaml:"figureScale"`
	CameraFollowMode     camera.Mode          `json:"cameraFollowMode" yaml:"cameraFollowMode"`
	LookAtHeightOffset   float64              `json:"lookAtHeightOffset" yaml:"lookAtHeightOffset"`
	InitialDistance      float64              `json:"initialDistance" yaml:"initialDistance"`
	InitialElevationDeg  float64              `json:"initialElevationDeg" yaml:"initialElevationDeg"`
	InitialAzimuthDeg    float64              `json:"initialAzimuthDeg" yaml:"initialAzimuthDeg"`
	Fov                  float64              `json:"fov" yaml:"fov"`
	NumFrames            int                  `json:"numFrames" yaml:"numFrames"`
	VideoWidth           int                  `json:"videoWidth" yaml:"videoWidth"`
	VideoHeight          int                  `json:"videoHeight" yaml:"videoHeight"`
	FPS                  int                  `json:"fps" yaml:"fps"`
	OutputFormat         string               `json:"outputFormat" yaml:"outputFormat"`
	NumFigureActionSlots int                  `json:"numFigureActionSlots" yaml:"numFigureActionSlots"`
	NumCameraActionSlots int                  `json:"numCameraActionSlots" yaml:"numCameraActionSlots"`
	FigureSegments       []segment.RawSegment `json:"figureSegments" yaml:"figureSegments"`
	CameraSegments       []segment.RawSegment `json:"cameraSegments" yaml:"cameraSegments"`
}

// Default returns the configuration used when nothing has been loaded:
// one empty slot per target.
func Default() *Snapshot {
	return &Snapshot{
		Version:              Version,
		FigureScale:          1,
		CameraFollowMode:     camera.Follow,
		LookAtHeightOffset:   0,
		InitialDistance:      7,
		InitialElevationDeg:  10,
		InitialAzimuthDeg:    0,
		Fov:                  50,
		NumFrames:            300,
		VideoWidth:           640,
		VideoHeight:          480,
		FPS:                  30,
		OutputFormat:         FormatWebM,
		NumFigureActionSlots: 1,
		NumCameraActionSlots: 1,
		FigureSegments:       []segment.RawSegment{segment.DefaultRaw()},
		CameraSegments:       []segment.RawSegment{segment.DefaultRaw()},
	}
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	cp := *s
	cp.FigureSegments = append([]segment.RawSegment(nil), s.FigureSegments...)
	cp.CameraSegments = append([]segment.RawSegment(nil), s.CameraSegments...)
	return &cp
}

// FileExtension returns the extension of exported files for the output format.
func (s *Snapshot) FileExtension() string {
	if s.OutputFormat == FormatWebM {
		return "webm"
	}
	return "tar"
}

// Validate reports settings that cannot be rendered. Loading never calls
// it; files are accepted with whatever values they carry.
func (s *Snapshot) Validate() error {
	var errs []error
	if s.FigureScale <= 0 {
		errs = append(errs, fmt.Errorf("figureScale must be positive, got %g", s.FigureScale))
	}
	if s.CameraFollowMode != camera.Follow && s.CameraFollowMode != camera.Fixed {
		errs = append(errs, fmt.Errorf("cameraFollowMode must be follow or fixed, got %q", s.CameraFollowMode))
	}
	if s.NumFrames < 0 {
		errs = append(errs, fmt.Errorf("numFrames must not be negative, got %d", s.NumFrames))
	}
	if s.VideoWidth <= 0 || s.VideoHeight <= 0 {
		errs = append(errs, fmt.Errorf("video size must be positive, got %dx%d", s.VideoWidth, s.VideoHeight))
	}
	if s.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", s.FPS))
	}
	if s.OutputFormat != FormatWebM && s.OutputFormat != FormatPNGSequence {
		errs = append(errs, fmt.Errorf("outputFormat must be webm or png_sequence, got %q", s.OutputFormat))
	}
	errs = append(errs, s.limitErrors()...)
	return joinSettings(errs)
}

// CheckLimits reports values too large to hold or render. Unlike Validate
// it is applied whenever a configuration is loaded or edited.
func (s *Snapshot) CheckLimits() error {
	return joinSettings(s.limitErrors())
}

func (s *Snapshot) limitErrors() []error {
	var errs []error
	if s.NumFrames > MaxFrames {
		errs = append(errs, fmt.Errorf("numFrames must be at most %d, got %d", MaxFrames, s.NumFrames))
	}
	if s.VideoWidth > MaxVideoSide || s.VideoHeight > MaxVideoSide {
		errs = append(errs, fmt.Errorf("video size must be at most %dx%d, got %dx%d",
			MaxVideoSide, MaxVideoSide, s.VideoWidth, s.VideoHeight))
	}
	if len(s.FigureSegments) > segment.MaxSlots || len(s.CameraSegments) > segment.MaxSlots {
		errs = append(errs, fmt.Errorf("at most %d segments per target, got %d figure and %d camera",
			segment.MaxSlots, len(s.FigureSegments), len(s.CameraSegments)))
	}
	return errs
}

func joinSettings(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}

// FileName returns the download name for a saved configuration.
func FileName(now time.Time) string {
	return fmt.Sprintf("scene-config-%d.json", now.UnixMilli())
}
