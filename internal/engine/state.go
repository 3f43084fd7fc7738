package engine

import (
	"math"

	"github.com/inamate/orbitcam/internal/camera"
	"github.com/inamate/orbitcam/internal/snapshot"
)

// Figure proportions relative to figure scale.
const (
	bodyHeight = 0.7
	limbLength = 0.6
	groundGap  = 0.01
)

// Clamp limits applied to the final state of every evaluation.
const (
	elevationMargin = 0.01
	minDistanceRel  = 0.2
	minFov          = 5
	maxFov          = 150
)

// AnimationState is the full resolved parameter vector at one frame.
// Elevation, Azimuth and Roll are radians; Fov is degrees.
type AnimationState struct {
	Figure    camera.Point `json:"figure"`
	Distance  float64      `json:"distance"`
	Elevation float64      `json:"elevation"`
	Azimuth   float64      `json:"azimuth"`
	Roll      float64      `json:"roll"`
	PanX      float64      `json:"panX"`
	PanY      float64      `json:"panY"`
	Fov       float64      `json:"fov"`
}

// Orbit returns the camera parameters of s.
func (s AnimationState) Orbit() camera.Orbit {
	return camera.Orbit{
		Distance:  s.Distance,
		Elevation: s.Elevation,
		Azimuth:   s.Azimuth,
		Roll:      s.Roll,
		PanX:      s.PanX,
		PanY:      s.PanY,
		Fov:       s.Fov,
	}
}

// Base holds the configuration the replay starts from.
type Base struct {
	FigureScale         float64
	InitialDistance     float64
	InitialElevationDeg float64
	InitialAzimuthDeg   float64
	Fov                 float64
}

// BaseFrom extracts the replay base from a snapshot.
func BaseFrom(s *snapshot.Snapshot) Base {
	return Base{
		FigureScale:         s.FigureScale,
		InitialDistance:     s.InitialDistance,
		InitialElevationDeg: s.InitialElevationDeg,
		InitialAzimuthDeg:   s.InitialAzimuthDeg,
		Fov:                 s.Fov,
	}
}

// RestPosition is where the figure stands when nothing moves it: feet on
// the ground plane with a small gap.
func RestPosition(scale float64) camera.Point {
	lowest := -(bodyHeight*scale)/2 - (limbLength*scale)/2
	return camera.Point{X: 0, Y: -lowest + groundGap, Z: 0}
}

// State returns the state at the start of every replay.
func (b Base) State() AnimationState {
	return AnimationState{
		Figure:    RestPosition(b.FigureScale),
		Distance:  b.InitialDistance,
		Elevation: b.InitialElevationDeg * (math.Pi / 180),
		Azimuth:   b.InitialAzimuthDeg * (math.Pi / 180),
		Roll:      0,
		PanX:      0,
		PanY:      0,
		Fov:       b.Fov,
	}
}

// Clamp bounds elevation away from the poles, keeps the camera outside
// the figure and limits the field of view.
func Clamp(s AnimationState, figureScale float64) AnimationState {
	limit := math.Pi/2 - elevationMargin
	s.Elevation = math.Max(-limit, math.Min(limit, s.Elevation))
	s.Distance = math.Max(minDistanceRel*figureScale, s.Distance)
	s.Fov = math.Max(minFov, math.Min(maxFov, s.Fov))
	return s
}
