package segment

import (
	"errors"
	"math"

	"github.com/inamate/orbitcam/internal/easing"
)

var ErrParameterNotAllowed = errors.New("parameter not allowed for target")

// Parameter names the scalar a segment animates. Values match the wire
// names used in saved configurations.
type Parameter string

const (
	FigureX         Parameter = "x_pos"
	FigureY         Parameter = "y_pos"
	FigureZ         Parameter = "z_pos"
	CameraDistance  Parameter = "distance"
	CameraElevation Parameter = "elevation"
	CameraAzimuth   Parameter = "azimuth"
	CameraPanX      Parameter = "panX"
	CameraPanY      Parameter = "panY"
	CameraFov       Parameter = "fov"
	CameraRoll      Parameter = "roll"
	None            Parameter = "none"
)

var known = map[Parameter]bool{
	FigureX: true, FigureY: true, FigureZ: true,
	CameraDistance: true, CameraElevation: true, CameraAzimuth: true,
	CameraPanX: true, CameraPanY: true, CameraFov: true, CameraRoll: true,
	None: true,
}

// Known reports whether p is one of the defined parameters (including None).
func (p Parameter) Known() bool {
	return known[p]
}

// Angular reports whether values for p are authored in degrees.
func (p Parameter) Angular() bool {
	switch p {
	case CameraElevation, CameraAzimuth, CameraRoll:
		return true
	}
	return false
}

// Target is the object a slot list animates.
type Target string

const (
	Figure Target = "figure"
	Camera Target = "camera"
)

// Parameters returns the menu of parameters offered for t, None first.
func (t Target) Parameters() []Parameter {
	switch t {
	case Figure:
		return []Parameter{None, FigureX, FigureY, FigureZ}
	case Camera:
		return []Parameter{None, CameraDistance, CameraElevation, CameraAzimuth,
			CameraPanX, CameraPanY, CameraFov, CameraRoll}
	}
	return nil
}

// Allows reports whether p appears in the menu for t.
func (t Target) Allows(p Parameter) bool {
	for _, q := range t.Parameters() {
		if q == p {
			return true
		}
	}
	return false
}

// Unit tags how a segment's values are interpreted.
type Unit int

const (
	Native Unit = iota
	Degrees
)

func (u Unit) String() string {
	if u == Degrees {
		return "degrees"
	}
	return "native"
}

// Segment is an active, validated animation segment.
type Segment struct {
	Parameter  Parameter
	StartFrame int
	EndFrame   int
	StartValue float64
	EndValue   float64
	Unit       Unit
	Easing     string

	ease easing.Func
}

// Covers reports whether frame f lies within the inclusive frame range.
func (s Segment) Covers(f int) bool {
	return f >= s.StartFrame && f <= s.EndFrame
}

// Progress returns the normalized position of f within the segment.
// Zero-length segments are always complete.
func (s Segment) Progress(f int) float64 {
	if s.StartFrame == s.EndFrame {
		return 1
	}
	return float64(f-s.StartFrame) / float64(s.EndFrame-s.StartFrame)
}

// Interpolate returns the eased value at frame f. offset is added to both
// endpoints before interpolation. Degree values come back in radians.
func (s Segment) Interpolate(f int, offset float64) float64 {
	ease := s.ease
	if ease == nil {
		ease, _ = easing.Lookup(s.Easing)
		if ease == nil {
			ease, _ = easing.Lookup(easing.Default)
		}
	}
	t := ease(s.Progress(f))

	a, b := s.StartValue+offset, s.EndValue+offset
	if s.Unit == Degrees {
		a = a * (math.Pi / 180)
		b = b * (math.Pi / 180)
	}
	return lerp(a, b, t)
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
