package engine

import (
	"encoding/binary"
	"hash"
	"math"

	"golang.org/x/crypto/blake2b"

	"github.com/inamate/orbitcam/internal/segment"
)

// Memo caches replay results for one segment set. It keeps the unclamped
// state of every frame replayed so far, so a later frame resumes from the
// cached prefix instead of frame 0. Results equal Evaluate bit for bit.
type Memo struct {
	key    [blake2b.Size256]byte
	valid  bool
	restY  float64
	scale  float64
	prefix []AnimationState
}

// Evaluate returns the state at frame, reusing cached work when base and
// both segment lists hash to the previous key.
func (m *Memo) Evaluate(frame int, base Base, figure, camera []segment.Segment) AnimationState {
	key := Digest(base, figure, camera)
	if !m.valid || key != m.key {
		m.Reset()
		m.key = key
		m.valid = true
		m.restY = RestPosition(base.FigureScale).Y
		m.scale = base.FigureScale
	}
	if frame < 0 {
		return Clamp(base.State(), base.FigureScale)
	}

	if len(m.prefix) == 0 {
		m.prefix = append(m.prefix, step(base.State(), 0, m.restY, figure, camera))
	}
	for f := len(m.prefix); f <= frame; f++ {
		m.prefix = append(m.prefix, step(m.prefix[f-1], f, m.restY, figure, camera))
	}
	return Clamp(m.prefix[frame], m.scale)
}

// Reset drops every cached frame.
func (m *Memo) Reset() {
	m.valid = false
	m.prefix = m.prefix[:0]
}

// Cached returns how many frames are held.
func (m *Memo) Cached() int { return len(m.prefix) }

// Digest hashes everything a replay depends on.
func Digest(base Base, figure, camera []segment.Segment) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil)
	writeFloat(h, base.FigureScale)
	writeFloat(h, base.InitialDistance)
	writeFloat(h, base.InitialElevationDeg)
	writeFloat(h, base.InitialAzimuthDeg)
	writeFloat(h, base.Fov)
	for _, list := range [][]segment.Segment{figure, camera} {
		writeInt(h, int64(len(list)))
		for _, seg := range list {
			writeString(h, string(seg.Parameter))
			writeInt(h, int64(seg.StartFrame))
			writeInt(h, int64(seg.EndFrame))
			writeFloat(h, seg.StartValue)
			writeFloat(h, seg.EndValue)
			writeInt(h, int64(seg.Unit))
			writeString(h, seg.Easing)
		}
	}
	var out [blake2b.Size256]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeFloat(h hash.Hash, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	h.Write(buf[:])
}

func writeInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}

func writeString(h hash.Hash, s string) {
	writeInt(h, int64(len(s)))
	h.Write([]byte(s))
}
