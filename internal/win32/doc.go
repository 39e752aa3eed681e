// Package win32 bridges the user32 calls used by the hook and the controller.
//
// Everything here is windows-only; other platforms see an empty package.
package win32
