package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/orbitcam/internal/camera"
	"github.com/inamate/orbitcam/internal/segment"
)

func TestDecodeAppliesDefaults(t *testing.T) {
	s, err := Decode([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.FigureScale)
	assert.Equal(t, camera.Follow, s.CameraFollowMode)
	assert.Equal(t, 0.0, s.LookAtHeightOffset)
	assert.Equal(t, 7.0, s.InitialDistance)
	assert.Equal(t, 10.0, s.InitialElevationDeg)
	assert.Equal(t, 0.0, s.InitialAzimuthDeg)
	assert.Equal(t, 50.0, s.Fov)
	assert.Equal(t, 300, s.NumFrames)
	assert.Equal(t, 640, s.VideoWidth)
	assert.Equal(t, 480, s.VideoHeight)
	assert.Equal(t, 30, s.FPS)
	assert.Equal(t, FormatWebM, s.OutputFormat)

	require.Len(t, s.FigureSegments, 1)
	require.Len(t, s.CameraSegments, 1)
	assert.Equal(t, segment.DefaultRaw(), s.CameraSegments[0])
	assert.Equal(t, 1, s.NumFigureActionSlots)
	assert.Equal(t, 1, s.NumCameraActionSlots)
}

func TestDecodeNullsTakeDefaults(t *testing.T) {
	s, err := Decode([]byte(`{
		"fov": null,
		"numFrames": 120,
		"cameraFollowMode": "fixed",
		"figureSegments": [],
		"cameraSegments": [
			{"enabled": true, "type": "distance", "startFrame": null, "endFrame": 30, "endValue": 3},
			{"type": "azimuth", "easing": "easeInCubic"}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 50.0, s.Fov)
	assert.Equal(t, 120, s.NumFrames)
	assert.Equal(t, camera.Fixed, s.CameraFollowMode)
	assert.Empty(t, s.FigureSegments)
	assert.Equal(t, 0, s.NumFigureActionSlots)
	require.Len(t, s.CameraSegments, 2)
	assert.Equal(t, 2, s.NumCameraActionSlots)

	first := s.CameraSegments[0]
	assert.True(t, first.Enabled)
	assert.Equal(t, segment.CameraDistance, first.Type)
	assert.Equal(t, segment.Field("0"), first.StartFrame)
	assert.Equal(t, segment.Field("30"), first.EndFrame)
	assert.Equal(t, segment.Field("0"), first.StartValue)
	assert.Equal(t, segment.Field("3"), first.EndValue)
	assert.Equal(t, "linear", first.Easing)

	second := s.CameraSegments[1]
	assert.False(t, second.Enabled)
	assert.Equal(t, "easeInCubic", second.Easing)
}

func TestDecodeYAML(t *testing.T) {
	s, err := Decode([]byte(`
figureScale: 2
outputFormat: png_sequence
cameraSegments:
  - enabled: true
    type: roll
    startFrame: 0
    endFrame: 10
    startValue: 0
    endValue: 45
`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.FigureScale)
	assert.Equal(t, FormatPNGSequence, s.OutputFormat)
	assert.Equal(t, "tar", s.FileExtension())
	require.Len(t, s.CameraSegments, 1)
	assert.Equal(t, segment.CameraRoll, s.CameraSegments[0].Type)
	assert.Equal(t, "linear", s.CameraSegments[0].Easing)
	assert.Len(t, s.FigureSegments, 1)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	inputs := []string{
		``,
		`   `,
		`null`,
		`{"fov": 50,`,
		`{"numFrames": "lots"}`,
		`[1, 2, 3]`,
		`just a string`,
		"- a\n- b\n",
	}
	for _, in := range inputs {
		s, err := Decode([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidSnapshot, "input %q", in)
		assert.Nil(t, s, "input %q", in)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	orig := Sample()
	orig.NumCameraActionSlots = 99

	data, err := Encode(orig)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, 1.0, generic["version"])
	assert.Equal(t, float64(len(orig.CameraSegments)), generic["numCameraActionSlots"])

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, orig.FigureSegments, back.FigureSegments)
	assert.Equal(t, orig.CameraSegments, back.CameraSegments)
	assert.Equal(t, orig.NumFrames, back.NumFrames)

	yml, err := EncodeYAML(orig)
	require.NoError(t, err)
	fromYAML, err := Decode(yml)
	require.NoError(t, err)
	assert.Equal(t, orig.CameraSegments, fromYAML.CameraSegments)
	assert.Equal(t, orig.Fov, fromYAML.Fov)
}

func TestEncodeNilSegmentsAsEmpty(t *testing.T) {
	s := Default()
	s.FigureSegments = nil

	data, err := Encode(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"figureSegments": []`)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.NoError(t, Sample().Validate())

	s := Default()
	s.VideoWidth = 0
	s.FPS = -1
	s.OutputFormat = "gif"
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "video size")
	assert.Contains(t, err.Error(), "fps")
	assert.Contains(t, err.Error(), "outputFormat")
}

func TestLimits(t *testing.T) {
	assert.NoError(t, Sample().CheckLimits())

	s := Default()
	s.VideoWidth = 1 << 30
	s.VideoHeight = 1 << 30
	s.NumFrames = MaxFrames + 1
	s.CameraSegments = make([]segment.RawSegment, segment.MaxSlots+1)

	err := s.CheckLimits()
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "numFrames must be at most")
	assert.Contains(t, err.Error(), "video size must be at most")
	assert.Contains(t, err.Error(), "segments per target")

	assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)

	s = Default()
	s.VideoWidth, s.VideoHeight = MaxVideoSide, MaxVideoSide
	s.NumFrames = MaxFrames
	assert.NoError(t, s.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	s := Sample()
	cp := s.Clone()
	cp.CameraSegments[0].Enabled = false
	assert.True(t, s.CameraSegments[0].Enabled)
}

func TestFileName(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "scene-config-1700000000123.json", FileName(ts))
}
