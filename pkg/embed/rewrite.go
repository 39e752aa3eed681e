package embed

import "unicode/utf16"

// CBT notification codes used by the rewrite.
const (
	CodeCreateWindow int32 = 3 // HCBT_CREATEWND
)

// Window classes created by the viewer.
const (
	// PaneClass is the secondary (content pane) window.
	PaneClass = "paneClassDC"
	// ScreenClass is the primary (slide show) window.
	ScreenClass = "screenClass"

	// ClassNameCapacity is the class-name buffer size in characters, terminator included.
	ClassNameCapacity = 16
)

// OffscreenCoordinate is where the primary window is created so it does not
// flash on screen before the host positions it.
const OffscreenCoordinate int32 = -32000

// CreateParams are the pending creation parameters of a window.
type CreateParams struct {
	Parent Handle
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// Notification is one CBT notification delivered on the viewer's UI thread.
type Notification struct {
	Code     int32
	Window   Handle
	Class    string
	ThreadID uint32
	// Create is nil unless Code is CodeCreateWindow.
	Create *CreateParams
}

// Outcome describes what Rewrite did. Complete is set only by the call that
// records the second window.
type Outcome struct {
	Slot     int
	Matched  bool
	Mutated  bool
	Complete bool
}

// TruncateClass clips a class name the way a ClassNameCapacity buffer of
// UTF-16 code units would. A surrogate pair cut in half decodes as U+FFFD.
func TruncateClass(name string) string {
	if u := utf16.Encode([]rune(name)); len(u) > ClassNameCapacity-1 {
		return string(utf16.Decode(u[:ClassNameCapacity-1]))
	}
	return name
}

// Rewrite applies one notification to the table.
//
// It records captured windows in the owning slot and rewrites n.Create in place
// for the primary window. The caller forwards the notification whatever the
// outcome. Anything unrecognized leaves both table and parameters untouched.
func Rewrite(t *SharedTable, n Notification) Outcome {
	out := Outcome{Slot: -1}
	if n.Code != CodeCreateWindow || !t.Valid() || t.CurrentHook.IsZero() {
		return out
	}
	class := TruncateClass(n.Class)
	if class != PaneClass && class != ScreenClass {
		return out
	}
	id, ok := t.FindByThread(n.ThreadID)
	if !ok {
		return out
	}
	s := &t.Slots[id]
	out.Slot = id
	out.Matched = true
	if s.Captured() {
		return out
	}

	switch class {
	case PaneClass:
		s.Secondary = n.Window
	case ScreenClass:
		s.Primary = n.Window
		if n.Create != nil {
			if !s.Parent.IsZero() {
				n.Create.Parent = s.Parent
			}
			n.Create.Width = s.Rect.Width()
			n.Create.Height = s.Rect.Height()
			n.Create.X = OffscreenCoordinate
			n.Create.Y = OffscreenCoordinate
		}
	}
	out.Mutated = true
	out.Complete = s.Captured()
	return out
}
