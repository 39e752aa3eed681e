package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotStateOrder(t *testing.T) {
	tests := []struct {
		from, to SlotState
		ok       bool
	}{
		{StateClosed, StateStarted, true},
		{StateStarted, StateOpened, true},
		{StateOpened, StateLoaded, true},
		{StateLoaded, StateClosing, true},
		{StateClosed, StateClosing, true},
		{StateStarted, StateStarted, false},
		{StateOpened, StateStarted, false},
		{StateClosing, StateClosed, false},
		{StateLoaded, SlotState(9), false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			s := ViewSlot{State: tt.from}
			err := s.Advance(tt.to)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, s.State)
			} else {
				assert.ErrorIs(t, err, ErrStateRegression)
				assert.Equal(t, tt.from, s.State)
			}
		})
	}
	assert.Equal(t, "unknown(9)", SlotState(9).String())
}

func TestRect(t *testing.T) {
	r := NewRect(10, 20, 100, 200)
	assert.Equal(t, Rect{Top: 20, Left: 10, Bottom: 220, Right: 110}, r)
	assert.Equal(t, int32(100), r.Width())
	assert.Equal(t, int32(200), r.Height())
}

func TestAllocateUntilFull(t *testing.T) {
	var tbl SharedTable
	tbl.Initialize()

	seen := map[int]bool{}
	for i := 0; i < MaxViews; i++ {
		require.Equal(t, StateClosed, tbl.Slots[i].State)
		id, err := tbl.Allocate(Handle(0x100+i), NewRect(0, 0, 10, 10))
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
		assert.Equal(t, StateStarted, tbl.Slots[id].State)
		assert.Equal(t, Handle(0x100+i), tbl.Slots[id].Parent)
	}
	assert.Len(t, seen, MaxViews)
	assert.Equal(t, MaxViews, tbl.InUse())

	before := tbl
	id, err := tbl.Allocate(1, Rect{})
	assert.ErrorIs(t, err, ErrTableFull)
	assert.Equal(t, -1, id)
	assert.Equal(t, before, tbl)
}

func TestAllocateResetsWindows(t *testing.T) {
	var tbl SharedTable
	tbl.Initialize()
	tbl.Slots[0] = ViewSlot{ID: 0, State: StateClosed, OwnerThread: 5, Primary: 1, Secondary: 2}

	id, err := tbl.Allocate(7, NewRect(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	s := tbl.Slots[0]
	assert.Zero(t, s.OwnerThread)
	assert.Zero(t, s.Primary)
	assert.Zero(t, s.Secondary)
	assert.Equal(t, Handle(7), s.Parent)
	assert.Equal(t, NewRect(1, 2, 3, 4), s.Rect)
}

func TestFindByThread(t *testing.T) {
	var tbl SharedTable
	tbl.Initialize()
	id, err := tbl.Allocate(0, Rect{})
	require.NoError(t, err)
	require.NoError(t, tbl.SetOwner(id, 4242))

	got, ok := tbl.FindByThread(4242)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = tbl.FindByThread(1)
	assert.False(t, ok)
	_, ok = tbl.FindByThread(0)
	assert.False(t, ok)

	// a closed slot's owner thread is stale and must not match
	tbl.Slots[3].OwnerThread = 77
	_, ok = tbl.FindByThread(77)
	assert.False(t, ok)

	assert.ErrorIs(t, tbl.SetOwner(MaxViews, 1), ErrSlotOutOfRange)
}

func TestSetOwnerTakesThreadFromStaleSlot(t *testing.T) {
	tests := []struct {
		name   string
		thread uint32
		want   map[int]uint32
	}{
		{name: "reused thread moves", thread: 42, want: map[int]uint32{0: 0, 1: 42, 2: 7}},
		{name: "distinct thread", thread: 9, want: map[int]uint32{0: 42, 1: 9, 2: 7}},
		{name: "zero clears only itself", thread: 0, want: map[int]uint32{0: 42, 1: 0, 2: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tbl SharedTable
			tbl.Initialize()
			for i := 0; i < 3; i++ {
				_, err := tbl.Allocate(0, Rect{})
				require.NoError(t, err)
			}
			require.NoError(t, tbl.SetOwner(0, 42))
			tbl.Slots[0].Primary = 0xA1
			tbl.Slots[0].Secondary = 0xB2
			require.NoError(t, tbl.SetOwner(2, 7))

			require.NoError(t, tbl.SetOwner(1, tt.thread))
			for id, owner := range tt.want {
				assert.Equal(t, owner, tbl.Slots[id].OwnerThread, "slot %d", id)
			}
			if tt.thread != 0 {
				got, ok := tbl.FindByThread(tt.thread)
				assert.True(t, ok)
				assert.Equal(t, 1, got)
			}
		})
	}
}

func TestLayoutOffsets(t *testing.T) {
	assert.Equal(t, 912, TableSize)
	assert.Equal(t, TableSize, TableLayout{}.Size())
	assert.Zero(t, HookOffset%8)
	assert.Equal(t, 16, SlotOffset(0))
	assert.Equal(t, 16+3*56, SlotOffset(3))

	var tbl SharedTable
	tbl.Initialize()
	tbl.CurrentHook = 0x1122334455667788
	tbl.Slots[1] = ViewSlot{
		ID: 1, State: StateStarted, OwnerThread: 0xAABB,
		Primary: 0x10, Secondary: 0x20, Parent: 0x30,
		Rect: Rect{Top: -1, Left: 2, Bottom: 3, Right: 4},
	}
	buf := make([]byte, TableSize)
	require.NoError(t, TableLayout{}.Encode(buf, &tbl))

	assert.Equal(t, []byte{0x42, 0x4d, 0x45, 0x56}, buf[0:4])
	assert.Equal(t, []byte{1, 0}, buf[4:6])
	assert.Equal(t, []byte{16, 0}, buf[6:8])
	assert.Equal(t, []byte{0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}, buf[8:16])

	s := buf[SlotOffset(1):]
	assert.Equal(t, []byte{1, 0, 0, 0}, s[0:4])
	assert.Equal(t, []byte{1, 0, 0, 0}, s[4:8])
	assert.Equal(t, []byte{0xBB, 0xAA, 0, 0}, s[8:12])
	assert.Equal(t, byte(0x10), s[16])
	assert.Equal(t, byte(0x20), s[24])
	assert.Equal(t, byte(0x30), s[32])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, s[40:44])
	assert.Equal(t, []byte{4, 0, 0, 0}, s[52:56])

	var back SharedTable
	require.NoError(t, TableLayout{}.Decode(buf, &back))
	assert.Equal(t, tbl, back)
	assert.True(t, back.Valid())

	assert.Error(t, TableLayout{}.Encode(make([]byte, TableSize-1), &tbl))
	assert.Error(t, TableLayout{}.Decode(make([]byte, 10), &back))
}

func TestZeroTableIsInvalid(t *testing.T) {
	var tbl SharedTable
	require.NoError(t, TableLayout{}.Decode(make([]byte, TableSize), &tbl))
	assert.False(t, tbl.Valid())
	tbl.Initialize()
	assert.True(t, tbl.Valid())
	assert.Equal(t, uint32(5), tbl.Slots[5].ID)
}
