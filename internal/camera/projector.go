package camera

import (
	"math"

	"github.com/goki/mat32"
)

// Mode selects what the camera looks at.
type Mode string

const (
	// Follow tracks the figure's evaluated position.
	Follow Mode = "follow"
	// Fixed looks at the figure's rest position.
	Fixed Mode = "fixed"
)

// Orbit is the resolved spherical camera rig for one frame. Angles are in
// radians except Fov, which is in degrees.
type Orbit struct {
	Distance  float64
	Elevation float64
	Azimuth   float64
	Roll      float64
	PanX      float64
	PanY      float64
	Fov       float64
}

// Point is a position in scene units.
type Point struct {
	X, Y, Z float64
}

func (p Point) vec() mat32.Vec3 {
	return mat32.Vec3{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}

// Pose is a concrete camera placement ready for rendering.
type Pose struct {
	Position    mat32.Vec3
	Target      mat32.Vec3
	Up          mat32.Vec3
	Orientation mat32.Quat
	Fov         float32
}

// Forward returns the unit vector from the camera toward its target.
func (p Pose) Forward() mat32.Vec3 {
	return p.Target.Sub(p.Position).Normal()
}

// Projector turns an Orbit into a Pose.
type Projector struct {
	Mode         Mode
	HeightOffset float64
	FigureScale  float64
}

// Project places the camera for o. rest is the figure's rest position and
// figure its evaluated position this frame.
func (pr Projector) Project(o Orbit, rest, figure Point) Pose {
	var follow *Point
	if pr.Mode != Fixed {
		follow = &figure
	}
	scale := pr.FigureScale
	if scale == 0 {
		scale = 1
	}
	return Project(o, rest, follow, pr.HeightOffset*scale)
}

// Project computes the pose for o around lookAtBase, or around follow when
// it is non-nil. heightOffset raises the look-at point.
func Project(o Orbit, lookAtBase Point, follow *Point, heightOffset float64) Pose {
	base := lookAtBase
	if follow != nil {
		base = *follow
	}
	target := Point{
		X: base.X + o.PanX,
		Y: base.Y + heightOffset + o.PanY,
		Z: base.Z,
	}

	cosEl := math.Cos(o.Elevation)
	position := Point{
		X: target.X + o.Distance*cosEl*math.Sin(o.Azimuth),
		Y: target.Y + o.Distance*math.Sin(o.Elevation),
		Z: target.Z + o.Distance*cosEl*math.Cos(o.Azimuth),
	}

	pos := position.vec()
	tgt := target.vec()

	// Roll spins world up around the view axis before the look-at is fixed.
	up := mat32.Vec3Y
	forward := tgt.Sub(pos)
	if !forward.IsNil() {
		forward = forward.Normal()
		if o.Roll != 0 {
			up = mat32.Vec3Y.MulQuat(mat32.NewQuatAxisAngle(forward, float32(o.Roll)))
		}
	}

	var orientation mat32.Quat
	orientation.SetFromRotationMatrix(mat32.NewLookAt(pos, tgt, up))

	return Pose{
		Position:    pos,
		Target:      tgt,
		Up:          up,
		Orientation: orientation,
		Fov:         float32(o.Fov),
	}
}
