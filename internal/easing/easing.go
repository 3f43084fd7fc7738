package easing

import "math"

// Func remaps normalized progress t (0-1) to eased progress.
type Func func(t float64) float64

const (
	Linear         = "linear"
	EaseInQuad     = "easeInQuad"
	EaseOutQuad    = "easeOutQuad"
	EaseInOutQuad  = "easeInOutQuad"
	EaseInCubic    = "easeInCubic"
	EaseOutCubic   = "easeOutCubic"
	EaseInOutCubic = "easeInOutCubic"
	EaseInBack     = "easeInBack"
	EaseOutBack    = "easeOutBack"
	EaseInOutBack  = "easeInOutBack"
	EaseOutElastic = "easeOutElastic"
	EaseOutBounce  = "easeOutBounce"

	// Default is used when a segment leaves its easing blank.
	Default = Linear
)

type entry struct {
	name string
	fn   Func
}

// registry holds the curves in display order.
var registry = []entry{
	{Linear, linear},
	{EaseInQuad, inQuad},
	{EaseOutQuad, outQuad},
	{EaseInOutQuad, inOutQuad},
	{EaseInCubic, inCubic},
	{EaseOutCubic, outCubic},
	{EaseInOutCubic, inOutCubic},
	{EaseInBack, inBack},
	{EaseOutBack, outBack},
	{EaseInOutBack, inOutBack},
	{EaseOutElastic, outElastic},
	{EaseOutBounce, bounceOut},
}

var byName = func() map[string]Func {
	m := make(map[string]Func, len(registry))
	for _, e := range registry {
		m[e.name] = e.fn
	}
	return m
}()

// Lookup returns the curve registered under name.
func Lookup(name string) (Func, bool) {
	fn, ok := byName[name]
	return fn, ok
}

// Names returns every registered curve name in display order.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	return names
}

func linear(t float64) float64 { return t }

func inQuad(t float64) float64 { return t * t }

func outQuad(t float64) float64 { return t * (2 - t) }

func inOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

func inCubic(t float64) float64 { return t * t * t }

func outCubic(t float64) float64 {
	t--
	return t*t*t + 1
}

func inOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return (t-1)*(2*t-2)*(2*t-2) + 1
}

const (
	backC1 = 1.70158
	backC2 = backC1 * 1.525
	backC3 = backC1 + 1
)

func inBack(t float64) float64 {
	return backC3*t*t*t - backC1*t*t
}

func outBack(t float64) float64 {
	t2 := t - 1
	return 1 + backC3*t2*t2*t2 + backC1*t2*t2
}

func inOutBack(t float64) float64 {
	if t < 0.5 {
		return (math.Pow(2*t, 2) * ((backC2+1)*2*t - backC2)) / 2
	}
	return (math.Pow(2*t-2, 2)*((backC2+1)*(t*2-2)+backC2) + 2) / 2
}

func outElastic(t float64) float64 {
	if t == 0 || t == 1 {
		return t
	}
	c4 := (2 * math.Pi) / 3
	return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1
}

// bounceOut is the standard 4-segment parabolic bounce curve.
func bounceOut(t float64) float64 {
	n1 := 7.5625
	d1 := 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}
