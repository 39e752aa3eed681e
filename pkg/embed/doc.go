// Package embed defines the table shared between the controller and the hooked
// viewer process, and the pure rewrite applied to window-creation notifications.
//
// The controller creates the table, reserves a slot per embedding and installs a
// CBT hook. Inside the viewer, each window-creation notification is passed to
// Rewrite together with the table; Rewrite records the captured windows in the
// owning slot and rewrites the pending geometry of the primary window. Nothing in
// this package talks to the OS.
package embed
