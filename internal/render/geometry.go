package render

import (
	"math"

	"github.com/goki/mat32"
)

// Line is a segment between two points in a mesh's local space.
type Line [2]mat32.Vec3

// Face is a planar convex polygon in a mesh's local space.
type Face []mat32.Vec3

// Mesh is wireframe and face geometry centered on its local origin.
type Mesh struct {
	Lines []Line
	Faces []Face
}

func v3(x, y, z float64) mat32.Vec3 {
	return mat32.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
}

// BoxMesh returns a w×h×d box with its 12 edges and 6 faces.
func BoxMesh(w, h, d float64) *Mesh {
	x, y, z := w/2, h/2, d/2
	c := [8]mat32.Vec3{
		v3(-x, -y, -z), v3(x, -y, -z), v3(x, y, -z), v3(-x, y, -z),
		v3(-x, -y, z), v3(x, -y, z), v3(x, y, z), v3(-x, y, z),
	}
	m := &Mesh{}
	for i := 0; i < 4; i++ {
		m.Lines = append(m.Lines,
			Line{c[i], c[(i+1)%4]},
			Line{c[i+4], c[(i+1)%4+4]},
			Line{c[i], c[i+4]},
		)
	}
	m.Faces = []Face{
		{c[0], c[1], c[2], c[3]},
		{c[4], c[5], c[6], c[7]},
		{c[0], c[1], c[5], c[4]},
		{c[3], c[2], c[6], c[7]},
		{c[0], c[3], c[7], c[4]},
		{c[1], c[2], c[6], c[5]},
	}
	return m
}

// SphereMesh returns latitude rings and meridians of a sphere of radius r.
func SphereMesh(r float64, widthSegments, heightSegments int) *Mesh {
	m := &Mesh{}
	for j := 1; j < heightSegments; j++ {
		phi := math.Pi * float64(j) / float64(heightSegments)
		y := r * math.Cos(phi)
		ring := r * math.Sin(phi)
		m.Lines = append(m.Lines, circle(ring, y, widthSegments)...)
	}
	meridians := max(widthSegments/4, 2)
	for i := 0; i < meridians; i++ {
		theta := 2 * math.Pi * float64(i) / float64(meridians)
		prev := v3(0, r, 0)
		for j := 1; j <= heightSegments; j++ {
			phi := math.Pi * float64(j) / float64(heightSegments)
			p := v3(r*math.Sin(phi)*math.Sin(theta), r*math.Cos(phi), r*math.Sin(phi)*math.Cos(theta))
			m.Lines = append(m.Lines, Line{prev, p})
			prev = p
		}
	}
	return m
}

// CylinderMesh returns a cylinder of radius r and height h along the Y axis.
func CylinderMesh(r, h float64, radialSegments int) *Mesh {
	m := &Mesh{}
	m.Lines = append(m.Lines, circle(r, h/2, radialSegments)...)
	m.Lines = append(m.Lines, circle(r, -h/2, radialSegments)...)
	sides := max(radialSegments/4, 2)
	for i := 0; i < sides; i++ {
		theta := 2 * math.Pi * float64(i) / float64(sides)
		x, z := r*math.Sin(theta), r*math.Cos(theta)
		m.Lines = append(m.Lines, Line{v3(x, h/2, z), v3(x, -h/2, z)})
	}
	return m
}

// PlaneMesh returns a size×size square in the XZ plane.
func PlaneMesh(size float64) *Mesh {
	s := size / 2
	return &Mesh{Faces: []Face{{v3(-s, 0, -s), v3(s, 0, -s), v3(s, 0, s), v3(-s, 0, s)}}}
}

// GridMesh returns a size×size grid in the XZ plane with the given number
// of divisions per side.
func GridMesh(size float64, divisions int) *Mesh {
	m := &Mesh{}
	half := size / 2
	step := size / float64(divisions)
	for i := 0; i <= divisions; i++ {
		k := -half + float64(i)*step
		m.Lines = append(m.Lines,
			Line{v3(-half, 0, k), v3(half, 0, k)},
			Line{v3(k, 0, -half), v3(k, 0, half)},
		)
	}
	return m
}

func circle(r, y float64, segments int) []Line {
	lines := make([]Line, 0, segments)
	prev := v3(0, y, r)
	for i := 1; i <= segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		p := v3(r*math.Sin(theta), y, r*math.Cos(theta))
		lines = append(lines, Line{prev, p})
		prev = p
	}
	return lines
}
