package camera

import "github.com/goki/mat32"

// Rig is the live perspective camera a scene renders through.
type Rig struct {
	pose   Pose
	aspect float32
	near   float32
	far    float32

	// view basis, rebuilt on every Apply
	right, up, forward mat32.Vec3

	// focal is 1/tan(fov/2); recomputed only when the fov changes
	focal   float32
	updates int
}

// NewRig returns a rig with the given vertical fov (degrees), aspect
// ratio and clip planes, looking down -Z from the origin.
func NewRig(fov, aspect, near, far float32) *Rig {
	r := &Rig{aspect: aspect, near: near, far: far}
	r.pose = Pose{Target: mat32.Vec3{Z: -1}, Up: mat32.Vec3Y, Fov: fov}
	r.updateProjection()
	r.updateView()
	return r
}

// Apply moves the rig to p. The projection is rebuilt only when the field
// of view changed; Apply reports whether that happened.
func (r *Rig) Apply(p Pose) bool {
	changed := p.Fov != r.pose.Fov
	r.pose = p
	if changed {
		r.updateProjection()
	}
	r.updateView()
	return changed
}

func (r *Rig) updateProjection() {
	r.focal = 1 / mat32.Tan(mat32.DegToRad(r.pose.Fov*0.5))
	r.updates++
}

func (r *Rig) updateView() {
	forward := r.pose.Target.Sub(r.pose.Position)
	if forward.IsNil() {
		forward = mat32.Vec3{Z: -1}
	}
	r.forward = forward.Normal()
	up := r.pose.Up
	if up.IsNil() {
		up = mat32.Vec3Y
	}
	r.right = r.forward.Cross(up).Normal()
	r.up = r.right.Cross(r.forward)
}

// Project maps world point p to normalized device coordinates. ok is false
// when p lies in front of the near plane or beyond the far plane.
func (r *Rig) Project(p mat32.Vec3) (x, y, depth float32, ok bool) {
	rel := p.Sub(r.pose.Position)
	depth = rel.Dot(r.forward)
	if depth < r.near || depth > r.far {
		return 0, 0, depth, false
	}
	x = rel.Dot(r.right) * r.focal / (r.aspect * depth)
	y = rel.Dot(r.up) * r.focal / depth
	return x, y, depth, true
}

// ViewDepth returns the distance of p along the view axis.
func (r *Rig) ViewDepth(p mat32.Vec3) float32 {
	return p.Sub(r.pose.Position).Dot(r.forward)
}

func (r *Rig) Pose() Pose { return r.pose }

func (r *Rig) Near() float32 { return r.near }

// ProjectionUpdates counts how many times the projection was rebuilt.
func (r *Rig) ProjectionUpdates() int { return r.updates }
