package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/inamate/orbitcam/internal/camera"
	"github.com/inamate/orbitcam/internal/segment"
)

// wire mirrors Snapshot with every field optional so missing and null
// values can be told apart from zero.
type wire struct {
	FigureScale         *float64       `json:"figureScale" yaml:"figureScale"`
	CameraFollowMode    *camera.Mode   `json:"cameraFollowMode" yaml:"cameraFollowMode"`
	LookAtHeightOffset  *float64       `json:"lookAtHeightOffset" yaml:"lookAtHeightOffset"`
	InitialDistance     *float64       `json:"initialDistance" yaml:"initialDistance"`
	InitialElevationDeg *float64       `json:"initialElevationDeg" yaml:"initialElevationDeg"`
	InitialAzimuthDeg   *float64       `json:"initialAzimuthDeg" yaml:"initialAzimuthDeg"`
	Fov                 *float64       `json:"fov" yaml:"fov"`
	NumFrames           *int           `json:"numFrames" yaml:"numFrames"`
	VideoWidth          *int           `json:"videoWidth" yaml:"videoWidth"`
	VideoHeight         *int           `json:"videoHeight" yaml:"videoHeight"`
	FPS                 *int           `json:"fps" yaml:"fps"`
	OutputFormat        *string        `json:"outputFormat" yaml:"outputFormat"`
	FigureSegments      *[]wireSegment `json:"figureSegments" yaml:"figureSegments"`
	CameraSegments      *[]wireSegment `json:"cameraSegments" yaml:"cameraSegments"`
}

type wireSegment struct {
	Enabled    *bool              `json:"enabled" yaml:"enabled"`
	Type       *segment.Parameter `json:"type" yaml:"type"`
	StartFrame *segment.Field     `json:"startFrame" yaml:"startFrame"`
	EndFrame   *segment.Field     `json:"endFrame" yaml:"endFrame"`
	StartValue *segment.Field     `json:"startValue" yaml:"startValue"`
	EndValue   *segment.Field     `json:"endValue" yaml:"endValue"`
	Easing     *string            `json:"easing" yaml:"easing"`
}

// Decode parses a JSON or YAML configuration. Every missing or null field
// takes its default. Nothing is returned unless the whole input parses.
func Decode(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidSnapshot)
	}

	var w wire
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	} else {
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: top level must be a mapping", ErrInvalidSnapshot)
		}
		if err := node.Decode(&w); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	}

	return w.apply(), nil
}

func (w *wire) apply() *Snapshot {
	s := Default()
	setFloat(&s.FigureScale, w.FigureScale)
	if w.CameraFollowMode != nil {
		s.CameraFollowMode = *w.CameraFollowMode
	}
	setFloat(&s.LookAtHeightOffset, w.LookAtHeightOffset)
	setFloat(&s.InitialDistance, w.InitialDistance)
	setFloat(&s.InitialElevationDeg, w.InitialElevationDeg)
	setFloat(&s.InitialAzimuthDeg, w.InitialAzimuthDeg)
	setFloat(&s.Fov, w.Fov)
	setInt(&s.NumFrames, w.NumFrames)
	setInt(&s.VideoWidth, w.VideoWidth)
	setInt(&s.VideoHeight, w.VideoHeight)
	setInt(&s.FPS, w.FPS)
	if w.OutputFormat != nil {
		s.OutputFormat = *w.OutputFormat
	}

	if w.FigureSegments != nil {
		s.FigureSegments = applySegments(*w.FigureSegments)
	}
	if w.CameraSegments != nil {
		s.CameraSegments = applySegments(*w.CameraSegments)
	}
	s.NumFigureActionSlots = len(s.FigureSegments)
	s.NumCameraActionSlots = len(s.CameraSegments)
	return s
}

func applySegments(in []wireSegment) []segment.RawSegment {
	out := make([]segment.RawSegment, len(in))
	for i, ws := range in {
		r := segment.DefaultRaw()
		if ws.Enabled != nil {
			r.Enabled = *ws.Enabled
		}
		if ws.Type != nil {
			r.Type = *ws.Type
		}
		setField(&r.StartFrame, ws.StartFrame)
		setField(&r.EndFrame, ws.EndFrame)
		setField(&r.StartValue, ws.StartValue)
		setField(&r.EndValue, ws.EndValue)
		if ws.Easing != nil {
			r.Easing = *ws.Easing
		}
		out[i] = r
	}
	return out
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setField(dst *segment.Field, v *segment.Field) {
	if v != nil {
		*dst = *v
	}
}

// Encode writes s as indented JSON, refreshing the version and slot counts.
func Encode(s *Snapshot) ([]byte, error) {
	out := prepare(s)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// EncodeYAML writes s as YAML.
func EncodeYAML(s *Snapshot) ([]byte, error) {
	out := prepare(s)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("marshal snapshot yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal snapshot yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func prepare(s *Snapshot) *Snapshot {
	out := s.Clone()
	out.Version = Version
	out.NumFigureActionSlots = len(out.FigureSegments)
	out.NumCameraActionSlots = len(out.CameraSegments)
	if out.FigureSegments == nil {
		out.FigureSegments = []segment.RawSegment{}
	}
	if out.CameraSegments == nil {
		out.CameraSegments = []segment.RawSegment{}
	}
	return out
}
