package render

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/goki/mat32"

	"github.com/inamate/orbitcam/internal/engine"
	"github.com/inamate/orbitcam/internal/snapshot"
)

var ErrInvalidSize = errors.New("invalid render size")

// Scene proportions relative to figure scale.
const (
	headRadiusRel = 0.25
	bodyHeightRel = 0.7
	bodyWidthRel  = 0.5
	bodyDepthRel  = 0.25
	limbLengthRel = 0.6
	limbRadiusRel = 0.08
)

// Environment layout in scene units.
const (
	groundSize    = 100
	gridDivisions = groundSize / 2
	boxCount      = 30
	cameraNear    = 0.1
	cameraFar     = 3000
)

// Colors.
const (
	colorBackground = "#607d8b"
	colorHead       = "#ffff00"
	colorBody       = "#00ff00"
	colorLimb       = "#ff0000"
	colorFeature    = "#222222"
	colorGround     = "#666666"
	colorGridCenter = "#000000"
	colorGrid       = "#404040"
	colorBox        = "#95a5a6"
	colorBoxEdge    = "#7f8c8d"
)

// FigureID is the node moved to the evaluated figure position every frame.
const FigureID = "figure"

// Builder creates scenes and tracks how many are alive.
type Builder struct {
	// Seed drives the placement of the distant boxes.
	Seed int64

	mu   sync.Mutex
	live int
}

// NewBuilder returns a builder whose scenes place boxes from seed.
func NewBuilder(seed int64) *Builder {
	return &Builder{Seed: seed}
}

// Build implements engine.SceneBuilder.
func (b *Builder) Build(spec engine.SceneSpec) (engine.Scene, error) {
	return b.BuildScene(spec)
}

// BuildScene creates a scene for spec.
func (b *Builder) BuildScene(spec engine.SceneSpec) (*Scene, error) {
	if spec.Width <= 0 || spec.Height <= 0 || spec.Width > snapshot.MaxVideoSide || spec.Height > snapshot.MaxVideoSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, spec.Width, spec.Height)
	}
	scale := spec.FigureScale
	if scale <= 0 {
		scale = 1
	}

	sg := NewSceneGraph()
	buildEnvironment(sg, rand.New(rand.NewSource(b.Seed)))
	figure := buildFigure(sg, scale)

	aspect := float32(spec.Width) / float32(spec.Height)
	s := &Scene{
		builder: b,
		graph:   sg,
		figure:  figure,
		rest:    engine.RestPosition(scale),
		width:   spec.Width,
		height:  spec.Height,
		rig:     newSceneRig(aspect),
	}
	figure.Local = Translation(v3(s.rest.X, s.rest.Y, s.rest.Z))

	b.mu.Lock()
	b.live++
	b.mu.Unlock()
	return s, nil
}

// Live returns the number of scenes built and not yet disposed.
func (b *Builder) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

func (b *Builder) release() {
	b.mu.Lock()
	b.live--
	b.mu.Unlock()
}

func buildFigure(sg *SceneGraph, scale float64) *Node {
	headR := headRadiusRel * scale
	bodyH := bodyHeightRel * scale
	bodyW := bodyWidthRel * scale
	bodyD := bodyDepthRel * scale
	limbL := limbLengthRel * scale
	limbR := limbRadiusRel * scale

	figure := sg.Add(nil, &Node{ID: FigureID, Local: IdentityTransform(), Visible: true, Layer: LayerObjects})

	head := sg.Add(figure, solid("head", SphereMesh(headR, 32, 16), v3(0, bodyH/2+headR, 0), colorHead))
	eye := SphereMesh(headR*0.15, 12, 8)
	sg.Add(head, solid("eye-left", eye, v3(-headR*0.4, headR*0.2, headR*0.85), colorFeature))
	sg.Add(head, solid("eye-right", eye, v3(headR*0.4, headR*0.2, headR*0.85), colorFeature))
	sg.Add(head, solid("mouth", BoxMesh(headR*0.5, headR*0.1, headR*0.1), v3(0, -headR*0.35, headR*0.88), colorFeature))

	ear := CylinderMesh(headR*0.4, headR*0.1, 16)
	for i, x := range []float64{-headR * 0.9, headR * 0.9} {
		n := solid([]string{"ear-left", "ear-right"}[i], ear, v3(x, headR*0.2, -headR*0.1), colorHead)
		n.Local = n.Local.Rotated(mat32.Vec3{Z: 1}, math.Pi/2)
		sg.Add(head, n)
	}

	sg.Add(figure, solid("body", BoxMesh(bodyW, bodyH, bodyD), mat32.Vec3{}, colorBody))

	limb := CylinderMesh(limbR, limbL, 16)
	limbs := []struct {
		id   string
		x, y float64
	}{
		{"arm-left", -bodyW/2 - limbR, bodyH/2 - limbL*0.3 - limbL/2},
		{"arm-right", bodyW/2 + limbR, bodyH/2 - limbL*0.3 - limbL/2},
		{"leg-left", -bodyW / 4, -bodyH / 2},
		{"leg-right", bodyW / 4, -bodyH / 2},
	}
	for _, l := range limbs {
		sg.Add(figure, solid(l.id, limb, v3(l.x, l.y, 0), colorLimb))
	}
	return figure
}

func buildEnvironment(sg *SceneGraph, rng *rand.Rand) {
	sg.Add(nil, &Node{
		ID:      "ground",
		Local:   IdentityTransform(),
		Mesh:    PlaneMesh(groundSize),
		Fill:    colorGround,
		Layer:   LayerGround,
		Visible: true,
	})
	sg.Add(nil, &Node{
		ID:          "grid",
		Local:       Translation(v3(0, 0.01, 0)),
		Mesh:        GridMesh(groundSize, gridDivisions),
		Stroke:      colorGrid,
		StrokeWidth: 1,
		Layer:       LayerGround,
		Visible:     true,
	})
	sg.Add(nil, &Node{
		ID:    "grid-center",
		Local: Translation(v3(0, 0.011, 0)),
		Mesh: &Mesh{Lines: []Line{
			{v3(-groundSize/2, 0, 0), v3(groundSize/2, 0, 0)},
			{v3(0, 0, -groundSize/2), v3(0, 0, groundSize/2)},
		}},
		Stroke:      colorGridCenter,
		StrokeWidth: 1,
		Layer:       LayerGround,
		Visible:     true,
	})

	for i := 0; i < boxCount; i++ {
		size := rng.Float64()*6 + 4
		angle := rng.Float64() * math.Pi * 2
		dist := groundSize / 2 * (0.8 + rng.Float64()*0.4)
		n := solid(fmt.Sprintf("box-%02d", i), BoxMesh(size, size, size),
			v3(math.Cos(angle)*dist, size/2, math.Sin(angle)*dist), colorBox)
		n.Stroke = colorBoxEdge
		sg.Add(nil, n)
	}
}

// solid returns a visible object node. Meshes with faces are filled, line
// meshes are stroked.
func solid(id string, m *Mesh, pos mat32.Vec3, color string) *Node {
	n := &Node{
		ID:          id,
		Local:       Translation(pos),
		Mesh:        m,
		StrokeWidth: 1,
		Layer:       LayerObjects,
		Visible:     true,
	}
	if len(m.Faces) > 0 {
		n.Fill = color
		n.Stroke = colorFeature
	} else {
		n.Stroke = color
		n.StrokeWidth = 1.5
	}
	return n
}
