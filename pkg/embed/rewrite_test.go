package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	viewerThread = 9001
	hook         = Handle(0xBEEF)
	parent       = Handle(0xCAFE)
)

func tableWithSlot(t *testing.T, p Handle, r Rect) (*SharedTable, int) {
	t.Helper()
	var tbl SharedTable
	tbl.Initialize()
	tbl.CurrentHook = hook
	id, err := tbl.Allocate(p, r)
	require.NoError(t, err)
	require.NoError(t, tbl.SetOwner(id, viewerThread))
	return &tbl, id
}

func createNote(class string, wnd Handle, params *CreateParams) Notification {
	return Notification{
		Code:     CodeCreateWindow,
		Window:   wnd,
		Class:    class,
		ThreadID: viewerThread,
		Create:   params,
	}
}

func TestRewrite_UnrecognizedClassIsUntouched(t *testing.T) {
	for _, class := range []string{"", "Button", "paneClass", "screenclass", "screenClassExtraLong"} {
		t.Run(class, func(t *testing.T) {
			tbl, _ := tableWithSlot(t, parent, NewRect(10, 20, 100, 200))
			before := *tbl
			params := CreateParams{Parent: 1, X: 2, Y: 3, Width: 4, Height: 5}
			n := createNote(class, 0x55, &params)

			out := Rewrite(tbl, n)
			assert.False(t, out.Matched)
			assert.False(t, out.Mutated)
			assert.Equal(t, CreateParams{Parent: 1, X: 2, Y: 3, Width: 4, Height: 5}, params)
			assert.Equal(t, before, *tbl)
		})
	}
}

func TestRewrite_ScreenClassRewritesGeometry(t *testing.T) {
	tbl, id := tableWithSlot(t, parent, Rect{Top: 20, Left: 10, Bottom: 220, Right: 110})
	params := CreateParams{Parent: 1, X: 0, Y: 0, Width: 640, Height: 480}

	out := Rewrite(tbl, createNote(ScreenClass, 0x77, &params))
	assert.True(t, out.Matched)
	assert.True(t, out.Mutated)
	assert.False(t, out.Complete)
	assert.Equal(t, id, out.Slot)
	assert.Equal(t, CreateParams{
		Parent: parent,
		X:      OffscreenCoordinate,
		Y:      OffscreenCoordinate,
		Width:  100,
		Height: 200,
	}, params)
	assert.Equal(t, Handle(0x77), tbl.Slots[id].Primary)
}

func TestRewrite_ScreenClassWithoutParentKeepsRequestedParent(t *testing.T) {
	tbl, _ := tableWithSlot(t, 0, NewRect(0, 0, 30, 40))
	params := CreateParams{Parent: 0x99}

	Rewrite(tbl, createNote(ScreenClass, 0x77, &params))
	assert.Equal(t, Handle(0x99), params.Parent)
	assert.Equal(t, int32(30), params.Width)
	assert.Equal(t, int32(40), params.Height)
}

func TestRewrite_PaneClassRecordsSecondaryOnly(t *testing.T) {
	tbl, id := tableWithSlot(t, parent, NewRect(0, 0, 30, 40))
	params := CreateParams{X: 5, Y: 6, Width: 7, Height: 8}

	out := Rewrite(tbl, createNote(PaneClass, 0x66, &params))
	assert.True(t, out.Mutated)
	assert.Equal(t, CreateParams{X: 5, Y: 6, Width: 7, Height: 8}, params)
	assert.Equal(t, Handle(0x66), tbl.Slots[id].Secondary)
	assert.Zero(t, tbl.Slots[id].Primary)
}

func TestRewrite_CompleteOnceBothWindowsSeen(t *testing.T) {
	tbl, id := tableWithSlot(t, parent, NewRect(0, 0, 30, 40))

	out := Rewrite(tbl, createNote(PaneClass, 0x66, &CreateParams{}))
	assert.False(t, out.Complete)
	out = Rewrite(tbl, createNote(ScreenClass, 0x77, &CreateParams{}))
	assert.True(t, out.Complete)
	assert.True(t, tbl.Slots[id].Captured())

	// a later window on the same thread is not rewritten and does not complete again
	params := CreateParams{X: 1, Y: 1, Width: 1, Height: 1}
	out = Rewrite(tbl, createNote(ScreenClass, 0x88, &params))
	assert.True(t, out.Matched)
	assert.False(t, out.Mutated)
	assert.False(t, out.Complete)
	assert.Equal(t, CreateParams{X: 1, Y: 1, Width: 1, Height: 1}, params)
	assert.Equal(t, Handle(0x77), tbl.Slots[id].Primary)
}

func TestRewrite_PassThroughCases(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SharedTable, *Notification)
	}{
		{"other code", func(_ *SharedTable, n *Notification) { n.Code = 5 }},
		{"unknown thread", func(_ *SharedTable, n *Notification) { n.ThreadID = 1 }},
		{"hook retired", func(tbl *SharedTable, _ *Notification) { tbl.CurrentHook = 0 }},
		{"invalid table", func(tbl *SharedTable, _ *Notification) { tbl.Magic = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, _ := tableWithSlot(t, parent, NewRect(0, 0, 30, 40))
			params := CreateParams{X: 1, Y: 2, Width: 3, Height: 4}
			n := createNote(ScreenClass, 0x77, &params)
			tt.mutate(tbl, &n)
			before := *tbl

			out := Rewrite(tbl, n)
			assert.False(t, out.Mutated)
			assert.Equal(t, CreateParams{X: 1, Y: 2, Width: 3, Height: 4}, params)
			assert.Equal(t, before, *tbl)
		})
	}
}

func TestRewrite_NilCreateParams(t *testing.T) {
	tbl, id := tableWithSlot(t, parent, NewRect(0, 0, 30, 40))
	out := Rewrite(tbl, createNote(ScreenClass, 0x77, nil))
	assert.True(t, out.Mutated)
	assert.Equal(t, Handle(0x77), tbl.Slots[id].Primary)
}

func TestRewrite_ReusedThreadTargetsNewSlot(t *testing.T) {
	tbl, old := tableWithSlot(t, parent, NewRect(0, 0, 30, 40))
	tbl.Slots[old].Primary = 0xA1
	tbl.Slots[old].Secondary = 0xB2

	id, err := tbl.Allocate(parent, NewRect(0, 0, 640, 480))
	require.NoError(t, err)
	require.NoError(t, tbl.SetOwner(id, viewerThread))

	params := CreateParams{Width: 5, Height: 5}
	out := Rewrite(tbl, createNote(ScreenClass, 0xC3, &params))
	assert.Equal(t, id, out.Slot)
	assert.True(t, out.Mutated)
	assert.Equal(t, Handle(0xC3), tbl.Slots[id].Primary)
	assert.Equal(t, int32(640), params.Width)
	assert.Equal(t, int32(480), params.Height)
	assert.Equal(t, Handle(0xA1), tbl.Slots[old].Primary)
}

func TestTruncateClass(t *testing.T) {
	assert.Equal(t, "screenClass", TruncateClass("screenClass"))
	assert.Equal(t, "abcdefghijklmno", TruncateClass("abcdefghijklmnopqrstuvwxyz"))
	assert.Len(t, TruncateClass("0123456789abcdefXYZ"), ClassNameCapacity-1)
	// Code units, not runes: the astral rune needs two.
	assert.Equal(t, "abcdefghijklm\U0001F600", TruncateClass("abcdefghijklm\U0001F600x"))
	assert.Equal(t, "abcdefghijklmn\uFFFD", TruncateClass("abcdefghijklmn\U0001F600"))
}
