package controller

import (
	"errors"
	"fmt"
)

// Result codes returned by OpenPPT. Non-negative values are slot ids.
const (
	CodeLogFile      int32 = -1
	CodeModule       int32 = -2
	CodeSharedMemory int32 = -3
	CodeTableFull    int32 = -4
	CodeHookInstall  int32 = -5
	CodeSpawn        int32 = -6
)

// Stage is a step of Open. The first failing stage aborts the call.
type Stage int

const (
	StageLogFile Stage = iota + 1
	StageModule
	StageSharedMemory
	StageTableFull
	StageHookInstall
	StageSpawn
)

func (s Stage) String() string {
	switch s {
	case StageLogFile:
		return "log_file"
	case StageModule:
		return "module"
	case StageSharedMemory:
		return "shared_memory"
	case StageTableFull:
		return "table_full"
	case StageHookInstall:
		return "hook_install"
	case StageSpawn:
		return "spawn"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Code returns the OpenPPT result code for the stage.
func (s Stage) Code() int32 {
	return -int32(s)
}

// ErrShutdown is returned by Open after Shutdown.
var ErrShutdown = errors.New("controller: shut down")

// StageError reports which stage of Open failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Code maps an Open error to its result code. nil maps to 0. Errors that did
// not come from a stage are reported as shared memory failures.
func Code(err error) int32 {
	if err == nil {
		return 0
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage.Code()
	}
	return CodeSharedMemory
}
