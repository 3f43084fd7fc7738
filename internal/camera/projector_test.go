package camera

import (
	"math"
	"testing"

	"github.com/goki/mat32"
	"github.com/stretchr/testify/assert"
)

func assertVec(t *testing.T, want, got mat32.Vec3, msg string) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-4, msg+" x")
	assert.InDelta(t, want.Y, got.Y, 1e-4, msg+" y")
	assert.InDelta(t, want.Z, got.Z, 1e-4, msg+" z")
}

func TestProjectSpherical(t *testing.T) {
	rest := Point{Y: 0.66}
	o := Orbit{Distance: 7, Fov: 50}

	p := Project(o, rest, nil, 0)
	assertVec(t, mat32.Vec3{Y: 0.66}, p.Target, "target")
	assertVec(t, mat32.Vec3{Y: 0.66, Z: 7}, p.Position, "position")
	assertVec(t, mat32.Vec3Y, p.Up, "up")
	assert.Equal(t, float32(50), p.Fov)

	o.Azimuth = math.Pi / 2
	p = Project(o, rest, nil, 0)
	assertVec(t, mat32.Vec3{X: 7, Y: 0.66}, p.Position, "azimuth 90")

	o.Azimuth = 0
	o.Elevation = math.Pi / 6
	p = Project(o, rest, nil, 0)
	assertVec(t, mat32.Vec3{Y: 0.66 + 3.5, Z: 7 * float32(math.Cos(math.Pi/6))}, p.Position, "elevation 30")
}

func TestProjectTargetAndPan(t *testing.T) {
	rest := Point{Y: 1}
	figure := Point{X: 2, Y: 1.5, Z: -3}
	o := Orbit{Distance: 5, PanX: 0.5, PanY: -0.25}

	p := Project(o, rest, &figure, 0.4)
	assertVec(t, mat32.Vec3{X: 2.5, Y: 1.65, Z: -3}, p.Target, "follow target")

	p = Project(o, rest, nil, 0.4)
	assertVec(t, mat32.Vec3{X: 0.5, Y: 1.15, Z: 0}, p.Target, "fixed target")
}

func TestProjectorModesAndScaledOffset(t *testing.T) {
	rest := Point{Y: 1}
	figure := Point{X: 3, Y: 1}
	o := Orbit{Distance: 4}

	pr := Projector{Mode: Follow, HeightOffset: 0.5, FigureScale: 2}
	p := pr.Project(o, rest, figure)
	assertVec(t, mat32.Vec3{X: 3, Y: 2}, p.Target, "follow")

	pr.Mode = Fixed
	p = pr.Project(o, rest, figure)
	assertVec(t, mat32.Vec3{Y: 2}, p.Target, "fixed")
}

func TestRollRotatesUpAroundForward(t *testing.T) {
	o := Orbit{Distance: 5, Roll: math.Pi / 2}
	p := Project(o, Point{}, nil, 0)

	forward := p.Forward()
	assertVec(t, mat32.Vec3{Z: -1}, forward, "forward")

	assert.InDelta(t, 1, p.Up.Length(), 1e-5)
	assert.InDelta(t, 0, p.Up.Dot(forward), 1e-5, "up stays perpendicular to forward")
	assert.InDelta(t, 0, p.Up.Y, 1e-5, "quarter roll lays up sideways")
	assert.InDelta(t, 1, math.Abs(float64(p.Up.X)), 1e-5)

	o.Roll = 0
	p = Project(o, Point{}, nil, 0)
	assertVec(t, mat32.Vec3Y, p.Up, "no roll")
}

func TestRigWritesFovOnlyOnChange(t *testing.T) {
	r := NewRig(50, 4.0/3.0, 0.1, 3000)
	assert.Equal(t, 1, r.ProjectionUpdates())

	assert.False(t, r.Apply(Pose{Fov: 50}))
	assert.Equal(t, 1, r.ProjectionUpdates())

	assert.True(t, r.Apply(Pose{Fov: 35}))
	assert.Equal(t, 2, r.ProjectionUpdates())
	assert.Equal(t, float32(35), r.Pose().Fov)

	assert.False(t, r.Apply(Pose{Fov: 35, Position: mat32.Vec3{X: 1}}))
	assert.Equal(t, 2, r.ProjectionUpdates())
	assert.Equal(t, float32(1), r.Pose().Position.X)
}

func TestRigProjectCentersTarget(t *testing.T) {
	r := NewRig(90, 1, 0.1, 100)
	r.Apply(Pose{
		Position: mat32.Vec3{Z: 10},
		Target:   mat32.Vec3{},
		Up:       mat32.Vec3Y,
		Fov:      90,
	})

	x, y, depth, ok := r.Project(mat32.Vec3{})
	assert.True(t, ok)
	assert.InDelta(t, 0, x, 1e-5)
	assert.InDelta(t, 0, y, 1e-5)
	assert.InDelta(t, 10, depth, 1e-5)

	// at 90 degrees a point as far off-axis as it is deep lands on the edge
	x, y, _, ok = r.Project(mat32.Vec3{X: 10, Z: 0})
	assert.True(t, ok)
	assert.InDelta(t, 1, x, 1e-4)
	assert.InDelta(t, 0, y, 1e-5)

	_, _, _, ok = r.Project(mat32.Vec3{Z: 20})
	assert.False(t, ok, "behind the camera")
}
