// Package shm provides typed, named shared memory regions for inter-process communication (IPC).
//
// A Region maps a fixed-size record between processes. The record is never
// reinterpreted from raw memory: every access goes through a Layout, which
// declares field order, widths and offsets explicitly. Two processes that agree
// on a Layout agree on the bytes.
//
// The package is instrumented with OpenTelemetry metrics and tracing (OTel Go SDK v1.30.0);
// both default to no-op providers.
//
// Example usage:
//
//	region, err := shm.Create[myRecord](ctx, "my-table", myLayout{})
//	if err != nil {
//	  return err
//	}
//	defer region.Close()
//	err = region.Update(func(r *myRecord) error {
//	  r.Counter++
//	  return nil
//	})
//
// Platform-specific helpers are in internal/shm.
package shm
