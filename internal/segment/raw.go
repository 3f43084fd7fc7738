package segment

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inamate/orbitcam/internal/easing"
)

// Field is the text of one numeric input as the user typed it. It may be
// blank or only partially numeric while a row is being edited.
type Field string

// Num returns the Field holding v.
func Num(v float64) Field {
	return Field(strconv.FormatFloat(v, 'g', -1, 64))
}

// Int returns the Field holding v.
func Int(v int) Field {
	return Field(strconv.Itoa(v))
}

// Float parses the field like a browser number input read with parseFloat:
// the longest numeric prefix counts and non-finite results fail.
func (f Field) Float() (float64, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	end := floatPrefix(s)
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Int parses the field like parseInt: an optional sign followed by the
// leading run of decimal digits. "12.9" yields 12.
func (f Field) Int() (int, bool) {
	s := strings.TrimSpace(string(f))
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	v, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return v, true
}

// floatPrefix returns the length of the longest decimal float prefix of s.
func floatPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			end = k
		}
	}
	return end
}

// MarshalJSON writes the field as a number, or null when it does not parse.
func (f Field) MarshalJSON() ([]byte, error) {
	v, ok := f.Float()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON accepts a number, a string or null.
func (f *Field) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*f = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = Field(str)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("numeric field: %w", err)
		}
		*f = Field(n.String())
	}
	return nil
}

func (f Field) MarshalYAML() (interface{}, error) {
	v, ok := f.Float()
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("numeric field: expected scalar at line %d", node.Line)
	}
	if node.Tag == "!!null" {
		*f = ""
		return nil
	}
	*f = Field(node.Value)
	return nil
}

// RawSegment is one slot row exactly as entered, before validation.
type RawSegment struct {
	Enabled    bool      `json:"enabled" yaml:"enabled"`
	Type       Parameter `json:"type" yaml:"type"`
	StartFrame Field     `json:"startFrame" yaml:"startFrame"`
	EndFrame   Field     `json:"endFrame" yaml:"endFrame"`
	StartValue Field     `json:"startValue" yaml:"startValue"`
	EndValue   Field     `json:"endValue" yaml:"endValue"`
	Easing     string    `json:"easing" yaml:"easing"`
}

// DefaultRaw returns the contents of a freshly added slot.
func DefaultRaw() RawSegment {
	return RawSegment{
		Enabled:    false,
		Type:       None,
		StartFrame: "0",
		EndFrame:   "0",
		StartValue: "0",
		EndValue:   "0",
		Easing:     easing.Default,
	}
}
