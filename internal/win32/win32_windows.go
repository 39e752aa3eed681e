//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Hook ids and CBT codes from winuser.h.
const (
	WH_CBT         = 5
	HCBT_CREATEWND = 3
)

// ClassNameCapacity matches the 16-character buffer the class name is read into.
const ClassNameCapacity = 16

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW        = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx      = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx           = user32.NewProc("CallNextHookEx")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetClientRect            = user32.NewProc("GetClientRect")
)

// CreateStruct mirrors CREATESTRUCTW.
type CreateStruct struct {
	CreateParams uintptr
	Instance     windows.Handle
	Menu         windows.Handle
	Parent       windows.HWND
	Cy           int32
	Cx           int32
	Y            int32
	X            int32
	Style        int32
	Name         *uint16
	Class        *uint16
	ExStyle      uint32
}

// CBTCreateWnd mirrors CBT_CREATEWNDW.
type CBTCreateWnd struct {
	Cs              *CreateStruct
	HwndInsertAfter windows.HWND
}

// RECT mirrors the Win32 RECT.
type RECT struct {
	Left, Top, Right, Bottom int32
}

// SetWindowsHookEx installs fn from module mod on thread tid (0 for all threads).
func SetWindowsHookEx(idHook int32, fn, mod uintptr, tid uint32) (uintptr, error) {
	r, _, err := procSetWindowsHookExW.Call(uintptr(idHook), fn, mod, uintptr(tid))
	if r == 0 {
		return 0, fmt.Errorf("SetWindowsHookEx: %w", err)
	}
	return r, nil
}

// UnhookWindowsHookEx removes hook h.
func UnhookWindowsHookEx(h uintptr) error {
	r, _, err := procUnhookWindowsHookEx.Call(h)
	if r == 0 {
		return fmt.Errorf("UnhookWindowsHookEx: %w", err)
	}
	return nil
}

// CallNextHookEx passes the notification down the hook chain.
func CallNextHookEx(h uintptr, code int32, wParam, lParam uintptr) uintptr {
	r, _, _ := procCallNextHookEx.Call(h, uintptr(code), wParam, lParam)
	return r
}

// ClassName reads the window class into a ClassNameCapacity buffer. Longer
// names come back truncated.
func ClassName(hwnd uintptr) string {
	var buf [ClassNameCapacity]uint16
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

// WindowThreadID returns the id of the thread that created hwnd.
func WindowThreadID(hwnd uintptr) uint32 {
	r, _, _ := procGetWindowThreadProcessId.Call(hwnd, 0)
	return uint32(r)
}

// ClientSize returns the client area size of hwnd.
func ClientSize(hwnd uintptr) (width, height int32, err error) {
	var rc RECT
	r, _, e := procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&rc)))
	if r == 0 {
		return 0, 0, fmt.Errorf("GetClientRect: %w", e)
	}
	return rc.Right - rc.Left, rc.Bottom - rc.Top, nil
}

// CreateStructOf returns the pending CREATESTRUCTW carried by an HCBT_CREATEWND lParam.
func CreateStructOf(lParam uintptr) *CreateStruct {
	if lParam == 0 {
		return nil
	}
	cw := (*CBTCreateWnd)(unsafe.Pointer(lParam))
	return cw.Cs
}
