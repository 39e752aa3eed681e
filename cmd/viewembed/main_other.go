//go:build !windows

// Command viewembed is the Windows host library. On other platforms it only
// reports that it cannot run.
package main

import (
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/srediag/viewembed/internal/logging"
)

func main() {
	log, err := logging.New(logging.Config{Level: "info", Stdout: true, Development: true})
	if err != nil {
		os.Exit(2)
	}
	log.Error("viewembed is a Windows library; build it with GOOS=windows -buildmode=c-shared",
		zap.String("goos", runtime.GOOS))
	_ = log.Sync()
	os.Exit(1)
}
