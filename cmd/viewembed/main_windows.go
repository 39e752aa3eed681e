//go:build windows

// Command viewembed builds the host library with -buildmode=c-shared. The host
// calls OpenPPT and friends; the viewer process loads the same library through
// the CBT hook and runs CbtProc on its UI thread.
package main

import "C"

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/srediag/viewembed/adapter"
	"github.com/srediag/viewembed/internal/config"
	"github.com/srediag/viewembed/internal/logging"
	"github.com/srediag/viewembed/internal/win32"
	"github.com/srediag/viewembed/pkg/controller"
	"github.com/srediag/viewembed/pkg/embed"
	"github.com/srediag/viewembed/pkg/hook"
	"github.com/srediag/viewembed/pkg/shm"
)

var (
	ctrlOnce sync.Once
	ctrl     *controller.Controller
	ctrlErr  error

	cbOnce sync.Once
	cb     *hook.Callback
)

func hostController() (*controller.Controller, error) {
	ctrlOnce.Do(func() {
		ctrl, ctrlErr = controller.New(controller.Options{
			Config:        config.LoadOrDefault(),
			RegionOptions: telemetry(),
		})
	})
	return ctrl, ctrlErr
}

func viewerCallback() *hook.Callback {
	cbOnce.Do(func() {
		cfg := config.LoadOrDefault()
		log := logging.Nop()
		if l, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File}); err == nil {
			log = l
		}
		cb = hook.NewCallback(cfg.Region, hook.NewInstaller(), log.Named("hook").Logger)
		cb.Open = hook.OpenShared(telemetry()...)
	})
	return cb
}

// telemetry uses whatever providers the host registered globally.
func telemetry() []shm.Option {
	return adapter.OTel(otel.GetMeterProvider(), otel.GetTracerProvider())
}

//export OpenPPT
func OpenPPT(exe, doc *uint16, parent uintptr, x, y, width, height int32) int32 {
	c, err := hostController()
	if err != nil {
		return controller.CodeSharedMemory
	}
	return c.OpenPPT(windows.UTF16PtrToString(exe), windows.UTF16PtrToString(doc),
		embed.Handle(parent), x, y, width, height)
}

//export ClosePPT
func ClosePPT(slot int32) {
	if c, err := hostController(); err == nil {
		c.ClosePPT(slot)
	}
}

//export SetDebug
func SetDebug(on int32) {
	if c, err := hostController(); err == nil {
		c.SetDebug(on != 0)
	}
}

//export Shutdown
func Shutdown() {
	if c, err := hostController(); err == nil {
		_ = c.Shutdown()
	}
}

// CbtProc is the hook procedure. It runs inside the viewer.
//
//export CbtProc
func CbtProc(code int32, wParam, lParam uintptr) uintptr {
	if code != win32.HCBT_CREATEWND {
		return viewerCallback().Handle(context.Background(), embed.Notification{Code: code}, func(current embed.Handle) uintptr {
			return win32.CallNextHookEx(uintptr(current), code, wParam, lParam)
		})
	}

	hwnd := wParam
	cs := win32.CreateStructOf(lParam)
	n := embed.Notification{
		Code:     code,
		Window:   embed.Handle(hwnd),
		Class:    win32.ClassName(hwnd),
		ThreadID: win32.WindowThreadID(hwnd),
	}
	if cs != nil {
		n.Create = &embed.CreateParams{
			Parent: embed.Handle(cs.Parent),
			X:      cs.X,
			Y:      cs.Y,
			Width:  cs.Cx,
			Height: cs.Cy,
		}
	}

	return viewerCallback().Handle(context.Background(), n, func(current embed.Handle) uintptr {
		if cs != nil {
			applyCreateParams(cs, n.Create)
		}
		return win32.CallNextHookEx(uintptr(current), code, wParam, lParam)
	})
}

func applyCreateParams(cs *win32.CreateStruct, p *embed.CreateParams) {
	if cs.Parent != windows.HWND(p.Parent) {
		viewerCallback().Logger.Debug("reparent window",
			zap.Uint64("from", uint64(cs.Parent)), zap.Uint64("to", uint64(p.Parent)))
	}
	cs.Parent = windows.HWND(p.Parent)
	cs.X = p.X
	cs.Y = p.Y
	cs.Cx = p.Width
	cs.Cy = p.Height
}

func main() {}
