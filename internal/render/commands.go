package render

import (
	"encoding/json"
	"sort"

	"github.com/goki/mat32"

	"github.com/inamate/orbitcam/internal/camera"
)

// DrawCommand is a single screen-space drawing operation. The browser bridge
// replays these on a Canvas2D context; Rasterize draws them into an image.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "clear" or "path"
	ObjectID    string        `json:"objectId,omitempty"`    // node that produced the command
	Path        []PathCommand `json:"path,omitempty"`        // path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // fill color
	Stroke      string        `json:"stroke,omitempty"`      // stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // stroke width in pixels
}

// PathCommand is one path segment in Canvas2D form: ["M", x, y], ["L", x, y]
// or ["Z"].
type PathCommand []interface{}

// primitive is a projected line or face waiting for depth sorting.
type primitive struct {
	layer int
	depth float32
	cmd   DrawCommand
}

// nearEpsilon keeps clipped points strictly inside the near plane.
const nearEpsilon = 1e-4

// CompileDrawCommands projects every visible node through rig into a
// width×height viewport. Commands are in painter's order: the clear, the
// ground layer, then objects far to near.
func CompileDrawCommands(sg *SceneGraph, rig *camera.Rig, width, height int, background string) []DrawCommand {
	if sg == nil || sg.Root == nil {
		return nil
	}
	vp := viewport{rig: rig, w: float32(width), h: float32(height)}

	var prims []primitive
	sg.Walk(func(n *Node, world Transform) {
		if n.Mesh == nil {
			return
		}
		if n.Fill != "" {
			for _, f := range n.Mesh.Faces {
				if p, ok := vp.face(n, world, f); ok {
					prims = append(prims, p)
				}
			}
		}
		if n.Stroke != "" && len(n.Mesh.Lines) > 0 {
			if p, ok := vp.lines(n, world); ok {
				prims = append(prims, p)
			}
		}
	})

	sort.SliceStable(prims, func(i, j int) bool {
		if prims[i].layer != prims[j].layer {
			return prims[i].layer < prims[j].layer
		}
		return prims[i].depth > prims[j].depth
	})

	commands := make([]DrawCommand, 0, len(prims)+1)
	commands = append(commands, DrawCommand{Op: "clear", Fill: background})
	for _, p := range prims {
		commands = append(commands, p.cmd)
	}
	return commands
}

type viewport struct {
	rig  *camera.Rig
	w, h float32
}

func (vp viewport) screen(p mat32.Vec3) (float64, float64, bool) {
	x, y, _, ok := vp.rig.Project(p)
	if !ok {
		return 0, 0, false
	}
	return float64((x + 1) / 2 * vp.w), float64((1 - y) / 2 * vp.h), true
}

// lines projects all of a node's edges into one stroked path. Edges crossing
// the near plane are cut at it.
func (vp viewport) lines(n *Node, world Transform) (primitive, bool) {
	near := vp.rig.Near() + nearEpsilon
	var (
		path  []PathCommand
		depth float32
		count int
	)
	for _, l := range n.Mesh.Lines {
		a, b := world.Apply(l[0]), world.Apply(l[1])
		da, db := vp.rig.ViewDepth(a), vp.rig.ViewDepth(b)
		if da < near && db < near {
			continue
		}
		if da < near {
			a = a.Add(b.Sub(a).MulScalar((near - da) / (db - da)))
		} else if db < near {
			b = b.Add(a.Sub(b).MulScalar((near - db) / (da - db)))
		}
		ax, ay, okA := vp.screen(a)
		bx, by, okB := vp.screen(b)
		if !okA || !okB {
			continue
		}
		path = append(path, PathCommand{"M", ax, ay}, PathCommand{"L", bx, by})
		depth += (da + db) / 2
		count++
	}
	if count == 0 {
		return primitive{}, false
	}
	return primitive{
		layer: n.Layer,
		depth: depth / float32(count),
		cmd: DrawCommand{
			Op:          "path",
			ObjectID:    n.ID,
			Path:        path,
			Stroke:      n.Stroke,
			StrokeWidth: n.StrokeWidth,
		},
	}, true
}

// face projects one polygon clipped against the near plane.
func (vp viewport) face(n *Node, world Transform, f Face) (primitive, bool) {
	near := vp.rig.Near() + nearEpsilon
	pts := make([]mat32.Vec3, len(f))
	for i, p := range f {
		pts[i] = world.Apply(p)
	}
	pts = clipNear(pts, near, vp.rig.ViewDepth)
	if len(pts) < 3 {
		return primitive{}, false
	}

	path := make([]PathCommand, 0, len(pts)+1)
	var depth float32
	for i, p := range pts {
		x, y, ok := vp.screen(p)
		if !ok {
			return primitive{}, false
		}
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, x, y})
		depth += vp.rig.ViewDepth(p)
	}
	path = append(path, PathCommand{"Z"})

	cmd := DrawCommand{Op: "path", ObjectID: n.ID, Path: path, Fill: n.Fill}
	if n.Layer != LayerGround {
		cmd.Stroke = n.Stroke
		cmd.StrokeWidth = n.StrokeWidth
	}
	return primitive{layer: n.Layer, depth: depth / float32(len(pts)), cmd: cmd}, true
}

// clipNear keeps the part of polygon pts whose view depth is at least near.
func clipNear(pts []mat32.Vec3, near float32, depth func(mat32.Vec3) float32) []mat32.Vec3 {
	var out []mat32.Vec3
	for i := range pts {
		cur, next := pts[i], pts[(i+1)%len(pts)]
		dc, dn := depth(cur), depth(next)
		if dc >= near {
			out = append(out, cur)
		}
		if (dc >= near) != (dn >= near) {
			t := (near - dc) / (dn - dc)
			out = append(out, cur.Add(next.Sub(cur).MulScalar(t)))
		}
	}
	return out
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
