package embed

import (
	"errors"
	"fmt"
)

// MaxViews is the number of slots in a SharedTable.
const MaxViews = 16

var (
	// ErrTableFull is returned by Allocate when no slot is Closed.
	ErrTableFull = errors.New("embed: slot table is full")
	// ErrStateRegression is returned for a state change that does not move forward.
	ErrStateRegression = errors.New("embed: slot state may only move forward")
	// ErrSlotOutOfRange is returned for slot ids outside the table.
	ErrSlotOutOfRange = errors.New("embed: slot id out of range")
)

// Handle is an opaque OS handle (window or hook). Zero is null.
type Handle uint64

// IsZero reports whether h is null.
func (h Handle) IsZero() bool {
	return h == 0
}

// Rect is a window rectangle in host coordinates.
type Rect struct {
	Top    int32
	Left   int32
	Bottom int32
	Right  int32
}

// NewRect builds a Rect from a position and size.
func NewRect(x, y, width, height int32) Rect {
	return Rect{Top: y, Left: x, Bottom: y + height, Right: x + width}
}

func (r Rect) Width() int32 {
	return r.Right - r.Left
}

func (r Rect) Height() int32 {
	return r.Bottom - r.Top
}

// SlotState is the lifecycle phase of a slot.
type SlotState uint32

const (
	StateClosed SlotState = iota
	StateStarted
	StateOpened
	StateLoaded
	StateClosing
)

// String returns the string representation of the state
func (s SlotState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateStarted:
		return "started"
	case StateOpened:
		return "opened"
	case StateLoaded:
		return "loaded"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(s))
	}
}

// CanAdvance reports whether moving from s to next goes strictly forward.
func (s SlotState) CanAdvance(next SlotState) bool {
	return next > s && next <= StateClosing
}

// ViewSlot tracks one embedded viewer.
//
// OwnerThread is meaningful only while State is not Closed.
type ViewSlot struct {
	ID          uint32
	State       SlotState
	OwnerThread uint32
	Primary     Handle
	Secondary   Handle
	Parent      Handle
	Rect        Rect
}

// Advance moves the slot forward to next.
func (s *ViewSlot) Advance(next SlotState) error {
	if !s.State.CanAdvance(next) {
		return fmt.Errorf("%s -> %s: %w", s.State, next, ErrStateRegression)
	}
	s.State = next
	return nil
}

// Captured reports whether both viewer windows have been recorded.
func (s *ViewSlot) Captured() bool {
	return !s.Primary.IsZero() && !s.Secondary.IsZero()
}

// SharedTable is the only object shared between the controller and the viewer.
type SharedTable struct {
	Magic    uint32
	Version  uint16
	Capacity uint16
	// CurrentHook is the installed CBT hook, or zero once capture is complete.
	CurrentHook Handle
	Slots       [MaxViews]ViewSlot
}

// Initialize stamps the header and slot ids. Slot contents are left alone.
func (t *SharedTable) Initialize() {
	t.Magic = TableMagic
	t.Version = TableVersion
	t.Capacity = MaxViews
	for i := range t.Slots {
		t.Slots[i].ID = uint32(i)
	}
}

// Valid reports whether the header matches this build's layout.
func (t *SharedTable) Valid() bool {
	return t.Magic == TableMagic && t.Version == TableVersion && t.Capacity == MaxViews
}

// Slot returns the slot with the given id.
func (t *SharedTable) Slot(id int) (*ViewSlot, error) {
	if id < 0 || id >= len(t.Slots) {
		return nil, fmt.Errorf("slot %d: %w", id, ErrSlotOutOfRange)
	}
	return &t.Slots[id], nil
}
