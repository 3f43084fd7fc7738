package segment

import "github.com/inamate/orbitcam/internal/easing"

// Resolve returns the active segments among raw, preserving input order.
// Rows that are disabled, target None, fail to parse or have an inverted
// frame range are dropped without error; half-edited rows are normal.
func Resolve(raw []RawSegment) []Segment {
	active := make([]Segment, 0, len(raw))
	for _, r := range raw {
		seg, ok := resolveOne(r)
		if ok {
			active = append(active, seg)
		}
	}
	return active
}

func resolveOne(r RawSegment) (Segment, bool) {
	if !r.Enabled || r.Type == None || !r.Type.Known() {
		return Segment{}, false
	}

	startFrame, ok := r.StartFrame.Int()
	if !ok {
		return Segment{}, false
	}
	endFrame, ok := r.EndFrame.Int()
	if !ok {
		return Segment{}, false
	}
	startValue, ok := r.StartValue.Float()
	if !ok {
		return Segment{}, false
	}
	endValue, ok := r.EndValue.Float()
	if !ok {
		return Segment{}, false
	}
	if startFrame > endFrame {
		return Segment{}, false
	}

	name := r.Easing
	if name == "" {
		name = easing.Default
	}
	ease, ok := easing.Lookup(name)
	if !ok {
		return Segment{}, false
	}

	unit := Native
	if r.Type.Angular() {
		unit = Degrees
	}

	return Segment{
		Parameter:  r.Type,
		StartFrame: startFrame,
		EndFrame:   endFrame,
		StartValue: startValue,
		EndValue:   endValue,
		Unit:       unit,
		Easing:     name,
		ease:       ease,
	}, true
}
