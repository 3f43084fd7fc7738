package render

import (
	"errors"
	"image"

	"github.com/inamate/orbitcam/internal/camera"
	"github.com/inamate/orbitcam/internal/engine"
)

var ErrDisposed = errors.New("scene disposed")

// Scene is a built environment plus figure that renders frames in software.
type Scene struct {
	builder *Builder
	graph   *SceneGraph
	figure  *Node
	rest    camera.Point
	width   int
	height  int
	rig     *camera.Rig

	raster   *Rasterizer
	commands []DrawCommand
	disposed bool
}

func newSceneRig(aspect float32) *camera.Rig {
	return camera.NewRig(50, aspect, cameraNear, cameraFar)
}

// Render implements engine.Scene. It moves the figure, applies the camera
// pose and draws the frame. The returned image is reused by the next call.
func (s *Scene) Render(f engine.Frame) (image.Image, error) {
	cmds, err := s.Compile(f)
	if err != nil {
		return nil, err
	}
	if s.raster == nil {
		s.raster = NewRasterizer(s.width, s.height)
	}
	img, err := s.raster.Draw(cmds)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Compile updates the scene for f and returns its draw commands without
// rasterizing them.
func (s *Scene) Compile(f engine.Frame) ([]DrawCommand, error) {
	if s.disposed {
		return nil, ErrDisposed
	}
	p := f.State.Figure
	s.figure.Local.Position = v3(p.X, p.Y, p.Z)
	s.rig.Apply(f.Pose)
	s.commands = CompileDrawCommands(s.graph, s.rig, s.width, s.height, colorBackground)
	return s.commands, nil
}

// Commands returns the commands of the last compiled frame.
func (s *Scene) Commands() []DrawCommand { return s.commands }

// Graph exposes the retained scene graph.
func (s *Scene) Graph() *SceneGraph { return s.graph }

// Rig returns the scene camera.
func (s *Scene) Rig() *camera.Rig { return s.rig }

// Rest returns the figure's rest position.
func (s *Scene) Rest() camera.Point { return s.rest }

// Size returns the viewport size in pixels.
func (s *Scene) Size() (int, int) { return s.width, s.height }

// Dispose implements engine.Scene. It is safe to call more than once.
func (s *Scene) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.raster = nil
	s.commands = nil
	s.graph = nil
	s.builder.release()
}
