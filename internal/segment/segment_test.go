package segment

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/inamate/orbitcam/internal/easing"
)

func row(p Parameter, startFrame, endFrame int, startValue, endValue float64) RawSegment {
	return RawSegment{
		Enabled:    true,
		Type:       p,
		StartFrame: Int(startFrame),
		EndFrame:   Int(endFrame),
		StartValue: Num(startValue),
		EndValue:   Num(endValue),
		Easing:     easing.Linear,
	}
}

func TestResolveKeepsOrderAndTagsUnits(t *testing.T) {
	raw := []RawSegment{
		row(CameraAzimuth, 0, 100, 0, 360),
		row(CameraDistance, 0, 10, 7, 3),
		row(CameraFov, 5, 5, 50, 30),
		row(CameraRoll, 0, 1, 0, 90),
		row(CameraElevation, 0, 1, 0, 45),
	}

	active := Resolve(raw)
	require.Len(t, active, 5)

	assert.Equal(t, CameraAzimuth, active[0].Parameter)
	assert.Equal(t, Degrees, active[0].Unit)
	assert.Equal(t, CameraDistance, active[1].Parameter)
	assert.Equal(t, Native, active[1].Unit)
	assert.Equal(t, Native, active[2].Unit, "fov stays in degrees without conversion")
	assert.Equal(t, Degrees, active[3].Unit)
	assert.Equal(t, Degrees, active[4].Unit)
}

func TestResolveExcludesInactive(t *testing.T) {
	disabled := row(CameraDistance, 0, 10, 1, 2)
	disabled.Enabled = false

	none := row(None, 0, 10, 1, 2)

	inverted := row(CameraDistance, 10, 5, 1, 2)

	blankFrame := row(CameraDistance, 0, 10, 1, 2)
	blankFrame.EndFrame = ""

	garbage := row(CameraDistance, 0, 10, 1, 2)
	garbage.StartValue = "abc"

	infinite := row(CameraDistance, 0, 10, 1, 2)
	infinite.EndValue = "Inf"

	unknownType := row(Parameter("scale"), 0, 10, 1, 2)

	unknownEasing := row(CameraDistance, 0, 10, 1, 2)
	unknownEasing.Easing = "wobble"

	active := Resolve([]RawSegment{disabled, none, inverted, blankFrame, garbage, infinite, unknownType, unknownEasing})
	assert.Empty(t, active)
}

func TestResolveBlankEasingIsLinear(t *testing.T) {
	r := row(CameraPanX, 0, 10, 0, 10)
	r.Easing = ""

	active := Resolve([]RawSegment{r})
	require.Len(t, active, 1)
	assert.Equal(t, easing.Linear, active[0].Easing)
	assert.InDelta(t, 5, active[0].Interpolate(5, 0), 1e-12)
}

func TestResolveParsesLikeFormInputs(t *testing.T) {
	r := RawSegment{
		Enabled:    true,
		Type:       CameraPanY,
		StartFrame: " 3.9 ",
		EndFrame:   "12px",
		StartValue: "1.5e1m",
		EndValue:   "-2.",
		Easing:     easing.EaseInQuad,
	}

	active := Resolve([]RawSegment{r})
	require.Len(t, active, 1)
	assert.Equal(t, 3, active[0].StartFrame)
	assert.Equal(t, 12, active[0].EndFrame)
	assert.Equal(t, 15.0, active[0].StartValue)
	assert.Equal(t, -2.0, active[0].EndValue)
}

func TestFieldParsing(t *testing.T) {
	cases := []struct {
		in    Field
		wantF float64
		okF   bool
		wantI int
		okI   bool
	}{
		{"", 0, false, 0, false},
		{"42", 42, true, 42, true},
		{"-7.25", -7.25, true, -7, true},
		{".5", 0.5, true, 0, false},
		{"1e3", 1000, true, 1, true},
		{"NaN", 0, false, 0, false},
		{"+9x", 9, true, 9, true},
		{"-", 0, false, 0, false},
	}
	for _, tc := range cases {
		f, ok := tc.in.Float()
		assert.Equal(t, tc.okF, ok, "Float(%q)", tc.in)
		if ok {
			assert.Equal(t, tc.wantF, f, "Float(%q)", tc.in)
		}
		i, ok := tc.in.Int()
		assert.Equal(t, tc.okI, ok, "Int(%q)", tc.in)
		if ok {
			assert.Equal(t, tc.wantI, i, "Int(%q)", tc.in)
		}
	}
}

func TestFieldJSON(t *testing.T) {
	var r RawSegment
	err := json.Unmarshal([]byte(`{"enabled":true,"type":"fov","startFrame":0,"endFrame":"20","startValue":null,"endValue":35.5,"easing":"linear"}`), &r)
	require.NoError(t, err)

	assert.Equal(t, Field("0"), r.StartFrame)
	assert.Equal(t, Field("20"), r.EndFrame)
	assert.Equal(t, Field(""), r.StartValue)
	assert.Equal(t, Field("35.5"), r.EndValue)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true,"type":"fov","startFrame":0,"endFrame":20,"startValue":null,"endValue":35.5,"easing":"linear"}`, string(out))
}

func TestFieldYAML(t *testing.T) {
	var r RawSegment
	err := yaml.Unmarshal([]byte("enabled: true\ntype: roll\nstartFrame: 4\nendFrame: ~\nstartValue: '10'\nendValue: -45\neasing: easeOutCubic\n"), &r)
	require.NoError(t, err)

	assert.Equal(t, CameraRoll, r.Type)
	assert.Equal(t, Field("4"), r.StartFrame)
	assert.Equal(t, Field(""), r.EndFrame)
	assert.Equal(t, Field("10"), r.StartValue)
	assert.Equal(t, Field("-45"), r.EndValue)
}

func TestInterpolate(t *testing.T) {
	active := Resolve([]RawSegment{
		row(CameraAzimuth, 0, 100, 0, 360),
		row(CameraFov, 7, 7, 50, 20),
	})
	require.Len(t, active, 2)

	az := active[0]
	assert.InDelta(t, math.Pi, az.Interpolate(50, 0), 1e-12)
	assert.Equal(t, 0.0, az.Interpolate(0, 0))
	assert.InDelta(t, 2*math.Pi, az.Interpolate(100, 0), 1e-12)

	fov := active[1]
	assert.Equal(t, 1.0, fov.Progress(7))
	assert.Equal(t, 20.0, fov.Interpolate(7, 0))
	assert.True(t, fov.Covers(7))
	assert.False(t, fov.Covers(8))
}

func TestInterpolateWithOffset(t *testing.T) {
	active := Resolve([]RawSegment{row(FigureY, 0, 10, 0, 2)})
	require.Len(t, active, 1)
	assert.InDelta(t, 1.65+1, active[0].Interpolate(5, 1.65), 1e-12)
}

func TestTargetMenus(t *testing.T) {
	assert.True(t, Figure.Allows(FigureX))
	assert.True(t, Figure.Allows(None))
	assert.False(t, Figure.Allows(CameraRoll))
	assert.True(t, Camera.Allows(CameraRoll))
	assert.False(t, Camera.Allows(FigureZ))
	assert.Len(t, Camera.Parameters(), 8)
	assert.Len(t, Figure.Parameters(), 4)
}

func TestSlots(t *testing.T) {
	s := NewSlots(Camera, 2)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, DefaultRaw(), s.Rows()[0])
	assert.Empty(t, s.Active())

	held := s.Rows()

	require.NoError(t, s.Set(1, row(CameraDistance, 0, 10, 7, 2)))
	assert.Equal(t, None, held[1].Type, "earlier snapshot is untouched")
	assert.Len(t, s.Active(), 1)

	idx, err := s.Add(row(CameraFov, 0, 10, 50, 60))
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = s.Add(row(FigureX, 0, 1, 0, 1))
	assert.ErrorIs(t, err, ErrParameterNotAllowed)

	require.NoError(t, s.Remove(0))
	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, CameraDistance, rows[0].Type)
	assert.Equal(t, CameraFov, rows[1].Type)

	assert.ErrorIs(t, s.Remove(5), ErrSlotOutOfRange)
	assert.ErrorIs(t, s.Set(-1, DefaultRaw()), ErrSlotOutOfRange)

	require.NoError(t, s.Resize(4))
	rows = s.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, CameraDistance, rows[0].Type, "resize keeps existing rows")
	assert.Equal(t, DefaultRaw(), rows[3])

	require.NoError(t, s.Resize(1))
	assert.Equal(t, 1, s.Len())
	require.NoError(t, s.Resize(-3))
	assert.Equal(t, 0, s.Len())
}

func TestSlotsCap(t *testing.T) {
	s := NewSlots(Figure, MaxSlots+10)
	assert.Equal(t, MaxSlots, s.Len())

	_, err := s.Add(DefaultRaw())
	assert.ErrorIs(t, err, ErrTooManySlots)

	require.NoError(t, s.Resize(3))
	assert.ErrorIs(t, s.Resize(2_000_000_000), ErrTooManySlots)
	assert.Equal(t, 3, s.Len(), "rejected resize leaves rows alone")
}

func TestSlotsFromKeepsForeignRows(t *testing.T) {
	s := SlotsFrom(Figure, []RawSegment{row(CameraDistance, 0, 1, 3, 4)})
	assert.Equal(t, Figure, s.Target())
	assert.Len(t, s.Active(), 1)
}
