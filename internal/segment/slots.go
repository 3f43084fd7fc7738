package segment

import (
	"errors"
	"fmt"
)

// MaxSlots is the most rows one target may hold.
const MaxSlots = 256

var (
	ErrSlotOutOfRange = errors.New("slot index out of range")
	ErrTooManySlots   = errors.New("too many slots")
)

// Slots is the ordered, user-editable row list for one target.
// Every mutation replaces the backing slice, so a slice returned by Rows
// is never changed underneath its holder.
type Slots struct {
	target Target
	rows   []RawSegment
}

// NewSlots returns a list of n default rows for target, at most MaxSlots.
func NewSlots(target Target, n int) *Slots {
	s := &Slots{target: target}
	_ = s.Resize(min(n, MaxSlots))
	return s
}

// SlotsFrom wraps existing rows without validating their parameters.
// Loaded files may carry rows the menu would not offer.
func SlotsFrom(target Target, rows []RawSegment) *Slots {
	cp := make([]RawSegment, len(rows))
	copy(cp, rows)
	return &Slots{target: target, rows: cp}
}

func (s *Slots) Target() Target { return s.target }

func (s *Slots) Len() int { return len(s.rows) }

// Rows returns a copy of the current rows.
func (s *Slots) Rows() []RawSegment {
	cp := make([]RawSegment, len(s.rows))
	copy(cp, s.rows)
	return cp
}

// Active resolves the current rows.
func (s *Slots) Active() []Segment {
	return Resolve(s.rows)
}

// Add appends raw and returns its index.
func (s *Slots) Add(raw RawSegment) (int, error) {
	if err := s.check(raw); err != nil {
		return 0, err
	}
	if len(s.rows) >= MaxSlots {
		return 0, fmt.Errorf("add slot: %w (max %d)", ErrTooManySlots, MaxSlots)
	}
	next := make([]RawSegment, len(s.rows), len(s.rows)+1)
	copy(next, s.rows)
	s.rows = append(next, raw)
	return len(s.rows) - 1, nil
}

// Remove deletes row i.
func (s *Slots) Remove(i int) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("remove slot %d: %w", i, ErrSlotOutOfRange)
	}
	next := make([]RawSegment, 0, len(s.rows)-1)
	next = append(next, s.rows[:i]...)
	s.rows = append(next, s.rows[i+1:]...)
	return nil
}

// Set replaces row i.
func (s *Slots) Set(i int, raw RawSegment) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("set slot %d: %w", i, ErrSlotOutOfRange)
	}
	if err := s.check(raw); err != nil {
		return err
	}
	next := s.Rows()
	next[i] = raw
	s.rows = next
	return nil
}

// Resize truncates or pads the list with default rows. Existing rows keep
// their contents. Sizes above MaxSlots are rejected and leave the list
// unchanged.
func (s *Slots) Resize(n int) error {
	if n > MaxSlots {
		return fmt.Errorf("resize to %d: %w (max %d)", n, ErrTooManySlots, MaxSlots)
	}
	if n < 0 {
		n = 0
	}
	next := make([]RawSegment, n)
	copied := copy(next, s.rows)
	for i := copied; i < n; i++ {
		next[i] = DefaultRaw()
	}
	s.rows = next
	return nil
}

func (s *Slots) check(raw RawSegment) error {
	if !s.target.Allows(raw.Type) {
		return fmt.Errorf("%s slot type %q: %w", s.target, raw.Type, ErrParameterNotAllowed)
	}
	return nil
}
