package render

import "github.com/goki/mat32"

// Layers are drawn in order; nodes within a layer are depth sorted.
const (
	LayerGround = iota
	LayerObjects
)

// Transform is a rotation followed by a translation.
type Transform struct {
	Rotation mat32.Quat
	Position mat32.Vec3
}

// IdentityTransform leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{Rotation: mat32.NewQuat(0, 0, 0, 1)}
}

// Translation returns a transform that only moves points.
func Translation(p mat32.Vec3) Transform {
	t := IdentityTransform()
	t.Position = p
	return t
}

// Rotated returns t with an extra rotation of angle radians around axis,
// applied before t's own rotation.
func (t Transform) Rotated(axis mat32.Vec3, angle float32) Transform {
	q := t.Rotation
	t.Rotation = q.Mul(mat32.NewQuatAxisAngle(axis, angle))
	return t
}

// Apply maps a local point into the parent space.
func (t Transform) Apply(p mat32.Vec3) mat32.Vec3 {
	return p.MulQuat(t.Rotation).Add(t.Position)
}

// Then composes t (the parent) with child: the result applies child first.
func (t Transform) Then(child Transform) Transform {
	q := t.Rotation
	return Transform{
		Rotation: q.Mul(child.Rotation),
		Position: t.Apply(child.Position),
	}
}

// Node is one object in the retained scene.
type Node struct {
	ID          string
	Local       Transform
	Mesh        *Mesh
	Fill        string
	Stroke      string
	StrokeWidth float64
	Layer       int
	Visible     bool

	Parent   *Node
	Children []*Node
}

// SceneGraph holds every node of a scene, indexed by id.
type SceneGraph struct {
	Root      *Node
	NodesByID map[string]*Node
}

// NewSceneGraph creates a graph with an empty root group.
func NewSceneGraph() *SceneGraph {
	root := &Node{ID: "root", Local: IdentityTransform(), Visible: true}
	return &SceneGraph{
		Root:      root,
		NodesByID: map[string]*Node{root.ID: root},
	}
}

// Add attaches n under parent (the root when parent is nil).
func (sg *SceneGraph) Add(parent, n *Node) *Node {
	if parent == nil {
		parent = sg.Root
	}
	n.Parent = parent
	parent.Children = append(parent.Children, n)
	sg.NodesByID[n.ID] = n
	return n
}

// Walk visits every visible node with its world transform, parents first.
func (sg *SceneGraph) Walk(fn func(n *Node, world Transform)) {
	var visit func(n *Node, parent Transform)
	visit = func(n *Node, parent Transform) {
		if !n.Visible {
			return
		}
		world := parent.Then(n.Local)
		fn(n, world)
		for _, child := range n.Children {
			visit(child, world)
		}
	}
	visit(sg.Root, IdentityTransform())
}

// Len returns the number of nodes.
func (sg *SceneGraph) Len() int { return len(sg.NodesByID) }
