package embed

import (
	"encoding/binary"

	"github.com/srediag/viewembed/pkg/shm"
)

// Table header identification.
const (
	TableMagic   uint32 = 0x56454d42 // "VEMB"
	TableVersion uint16 = 1
)

// Byte layout of SharedTable. All integers are little endian; there is no
// implicit padding.
//
//	header  magic u32 | version u16 | capacity u16 | currentHook u64
//	slot    id u32 | state u32 | ownerThread u32 | reserved u32 |
//	        primary u64 | secondary u64 | parent u64 |
//	        top i32 | left i32 | bottom i32 | right i32
const (
	magicOffset    = 0
	versionOffset  = 4
	capacityOffset = 6
	// HookOffset is 8-byte aligned so the hook word can be accessed atomically.
	HookOffset = 8
	headerSize = 16

	slotIDOffset        = 0
	slotStateOffset     = 4
	slotOwnerOffset     = 8
	slotReservedOffset  = 12
	slotPrimaryOffset   = 16
	slotSecondaryOffset = 24
	slotParentOffset    = 32
	slotRectOffset      = 40
	// SlotSize is the encoded size of one ViewSlot.
	SlotSize = 56

	// TableSize is the encoded size of a SharedTable.
	TableSize = headerSize + MaxViews*SlotSize
)

// SlotOffset returns the byte offset of slot id within the table.
func SlotOffset(id int) int {
	return headerSize + id*SlotSize
}

// TableLayout is the fixed binary layout of SharedTable.
type TableLayout struct{}

var _ shm.Layout[SharedTable] = TableLayout{}

func (TableLayout) Size() int {
	return TableSize
}

func (TableLayout) Encode(dst []byte, t *SharedTable) error {
	if len(dst) < TableSize {
		return shm.ErrShortBuffer
	}
	le := binary.LittleEndian
	le.PutUint32(dst[magicOffset:], t.Magic)
	le.PutUint16(dst[versionOffset:], t.Version)
	le.PutUint16(dst[capacityOffset:], t.Capacity)
	le.PutUint64(dst[HookOffset:], uint64(t.CurrentHook))
	for i := range t.Slots {
		encodeSlot(dst[SlotOffset(i):SlotOffset(i)+SlotSize], &t.Slots[i])
	}
	return nil
}

func (TableLayout) Decode(src []byte, t *SharedTable) error {
	if len(src) < TableSize {
		return shm.ErrShortBuffer
	}
	le := binary.LittleEndian
	t.Magic = le.Uint32(src[magicOffset:])
	t.Version = le.Uint16(src[versionOffset:])
	t.Capacity = le.Uint16(src[capacityOffset:])
	t.CurrentHook = Handle(le.Uint64(src[HookOffset:]))
	for i := range t.Slots {
		decodeSlot(src[SlotOffset(i):SlotOffset(i)+SlotSize], &t.Slots[i])
	}
	return nil
}

func encodeSlot(b []byte, s *ViewSlot) {
	le := binary.LittleEndian
	le.PutUint32(b[slotIDOffset:], s.ID)
	le.PutUint32(b[slotStateOffset:], uint32(s.State))
	le.PutUint32(b[slotOwnerOffset:], s.OwnerThread)
	le.PutUint32(b[slotReservedOffset:], 0)
	le.PutUint64(b[slotPrimaryOffset:], uint64(s.Primary))
	le.PutUint64(b[slotSecondaryOffset:], uint64(s.Secondary))
	le.PutUint64(b[slotParentOffset:], uint64(s.Parent))
	le.PutUint32(b[slotRectOffset:], uint32(s.Rect.Top))
	le.PutUint32(b[slotRectOffset+4:], uint32(s.Rect.Left))
	le.PutUint32(b[slotRectOffset+8:], uint32(s.Rect.Bottom))
	le.PutUint32(b[slotRectOffset+12:], uint32(s.Rect.Right))
}

func decodeSlot(b []byte, s *ViewSlot) {
	le := binary.LittleEndian
	s.ID = le.Uint32(b[slotIDOffset:])
	s.State = SlotState(le.Uint32(b[slotStateOffset:]))
	s.OwnerThread = le.Uint32(b[slotOwnerOffset:])
	s.Primary = Handle(le.Uint64(b[slotPrimaryOffset:]))
	s.Secondary = Handle(le.Uint64(b[slotSecondaryOffset:]))
	s.Parent = Handle(le.Uint64(b[slotParentOffset:]))
	s.Rect.Top = int32(le.Uint32(b[slotRectOffset:]))
	s.Rect.Left = int32(le.Uint32(b[slotRectOffset+4:]))
	s.Rect.Bottom = int32(le.Uint32(b[slotRectOffset+8:]))
	s.Rect.Right = int32(le.Uint32(b[slotRectOffset+12:]))
}
