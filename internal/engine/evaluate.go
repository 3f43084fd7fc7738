package engine

import (
	"github.com/inamate/orbitcam/internal/segment"
)

// Evaluate reconstructs the state at frame by replaying every frame from 0.
// The result depends only on its arguments. Figure segments apply before
// camera segments each frame, and within a list the later segment wins.
func Evaluate(frame int, base Base, figure, camera []segment.Segment) AnimationState {
	state := base.State()
	restY := state.Figure.Y
	for f := 0; f <= frame; f++ {
		state = step(state, f, restY, figure, camera)
	}
	return Clamp(state, base.FigureScale)
}

// step applies every segment covering frame f on top of prev.
func step(prev AnimationState, f int, restY float64, lists ...[]segment.Segment) AnimationState {
	next := prev
	for _, list := range lists {
		for _, seg := range list {
			if !seg.Covers(f) {
				continue
			}
			apply(&next, seg, f, restY)
		}
	}
	return next
}

func apply(s *AnimationState, seg segment.Segment, f int, restY float64) {
	switch seg.Parameter {
	case segment.FigureX:
		s.Figure.X = seg.Interpolate(f, 0)
	case segment.FigureY:
		s.Figure.Y = seg.Interpolate(f, restY)
	case segment.FigureZ:
		s.Figure.Z = seg.Interpolate(f, 0)
	case segment.CameraDistance:
		s.Distance = seg.Interpolate(f, 0)
	case segment.CameraElevation:
		s.Elevation = seg.Interpolate(f, 0)
	case segment.CameraAzimuth:
		s.Azimuth = seg.Interpolate(f, 0)
	case segment.CameraRoll:
		s.Roll = seg.Interpolate(f, 0)
	case segment.CameraPanX:
		s.PanX = seg.Interpolate(f, 0)
	case segment.CameraPanY:
		s.PanY = seg.Interpolate(f, 0)
	case segment.CameraFov:
		s.Fov = seg.Interpolate(f, 0)
	}
}
