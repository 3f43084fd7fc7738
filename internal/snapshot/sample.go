package snapshot

import (
	"github.com/inamate/orbitcam/internal/easing"
	"github.com/inamate/orbitcam/internal/segment"
)

// Sample returns a ready-to-play demo: the figure walks forward and hops
// while the camera orbits once, dollies in and tilts.
func Sample() *Snapshot {
	s := Default()
	s.NumFrames = 240

	s.FigureSegments = []segment.RawSegment{
		raw(segment.FigureZ, 0, 120, 0, 4, easing.EaseInOutQuad),
		raw(segment.FigureY, 120, 135, 0, 0.8, easing.EaseOutQuad),
		raw(segment.FigureY, 135, 150, 0.8, 0, easing.EaseInQuad),
		raw(segment.FigureZ, 150, 239, 4, 0, easing.EaseInOutCubic),
	}
	s.CameraSegments = []segment.RawSegment{
		raw(segment.CameraAzimuth, 0, 239, 0, 360, easing.Linear),
		raw(segment.CameraDistance, 0, 90, 7, 4, easing.EaseInOutCubic),
		raw(segment.CameraDistance, 150, 239, 4, 7, easing.EaseInOutCubic),
		raw(segment.CameraElevation, 0, 120, 10, 35, easing.EaseInOutQuad),
		raw(segment.CameraElevation, 120, 239, 35, 10, easing.EaseInOutQuad),
		raw(segment.CameraRoll, 100, 140, 0, 8, easing.EaseOutBack),
		raw(segment.CameraRoll, 140, 180, 8, 0, easing.EaseInOutQuad),
		raw(segment.CameraFov, 60, 180, 50, 40, easing.Linear),
	}
	s.NumFigureActionSlots = len(s.FigureSegments)
	s.NumCameraActionSlots = len(s.CameraSegments)
	return s
}

func raw(p segment.Parameter, startFrame, endFrame int, startValue, endValue float64, ease string) segment.RawSegment {
	return segment.RawSegment{
		Enabled:    true,
		Type:       p,
		StartFrame: segment.Int(startFrame),
		EndFrame:   segment.Int(endFrame),
		StartValue: segment.Num(startValue),
		EndValue:   segment.Num(endValue),
		Easing:     ease,
	}
}
