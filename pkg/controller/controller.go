// Package controller runs embedding sessions: it reserves a slot in the shared
// table, installs the creation hook and launches the viewer, then watches the
// table until the viewer's windows have been captured.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/srediag/viewembed/internal/config"
	"github.com/srediag/viewembed/internal/logging"
	"github.com/srediag/viewembed/internal/module"
	"github.com/srediag/viewembed/pkg/embed"
	"github.com/srediag/viewembed/pkg/hook"
	"github.com/srediag/viewembed/pkg/launcher"
	"github.com/srediag/viewembed/pkg/shm"
)

// TableRegion is the controller's mapping of the shared table.
type TableRegion interface {
	Load() (embed.SharedTable, error)
	Update(fn func(*embed.SharedTable) error) error
	LoadUint64(off int) (uint64, error)
	CompareAndSwapUint64(off int, old, new uint64) (bool, error)
	Close() error
}

// Options replace the controller's collaborators. Zero fields use the
// platform implementations.
type Options struct {
	Config *config.Config

	// Logger is used as is. When nil one is opened from Config.Log on the
	// first Open, and a failure is reported as StageLogFile.
	Logger *logging.Logger

	Module func() (uintptr, error)
	Region func(ctx context.Context, name string) (TableRegion, error)
	// RegionOptions apply to the default region.
	RegionOptions []shm.Option

	Installer  hook.Installer
	Launcher   launcher.Launcher
	ClientSize func(parent embed.Handle) (width, height int32, err error)
	Alive      func(pid uint32) bool
	Registry   *prometheus.Registry
}

// Request describes one embedding.
type Request struct {
	Executable string
	Document   string
	Parent     embed.Handle
	// Geometry of the embedded window in parent client coordinates. All zero
	// with a non-null parent means the parent's whole client area.
	X, Y, Width, Height int32
}

// Controller owns the shared table region and every session opened through it.
type Controller struct {
	mu     sync.Mutex
	cfg    *config.Config
	log    *logging.Logger
	debug  bool
	closed bool

	module     func() (uintptr, error)
	openRegion func(ctx context.Context, name string) (TableRegion, error)
	region     TableRegion
	installer  hook.Installer
	launcher   launcher.Launcher
	clientSize func(embed.Handle) (int32, int32, error)
	alive      func(uint32) bool

	sessions *registry
	events   *eventQueue
	pool     *ants.Pool
	ctx      context.Context
	cancel   context.CancelFunc

	registry *prometheus.Registry
	metrics  *metrics
}

// New creates a controller. Nothing is mapped, installed or opened until the
// first Open.
func New(opts Options) (*Controller, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(cfg.Watch.PoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create watcher pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:        cfg,
		log:        opts.Logger,
		module:     opts.Module,
		openRegion: opts.Region,
		installer:  opts.Installer,
		launcher:   opts.Launcher,
		clientSize: opts.ClientSize,
		alive:      opts.Alive,
		sessions:   newRegistry(),
		events:     newEventQueue(cfg.Watch.QueueSize),
		pool:       pool,
		ctx:        ctx,
		cancel:     cancel,
		registry:   reg,
		metrics:    m,
	}
	if c.log != nil {
		c.log = c.log.Named("controller")
	}
	if c.module == nil {
		c.module = module.Handle
	}
	if c.openRegion == nil {
		c.openRegion = createRegion(opts.RegionOptions)
	}
	if c.installer == nil {
		c.installer = hook.NewInstaller()
	}
	if c.launcher == nil {
		c.launcher = launcher.New()
	}
	if c.clientSize == nil {
		c.clientSize = clientSize
	}
	if c.alive == nil {
		c.alive = processAlive
	}
	return c, nil
}

func createRegion(opts []shm.Option) func(context.Context, string) (TableRegion, error) {
	return func(ctx context.Context, name string) (TableRegion, error) {
		r, err := shm.Create[embed.SharedTable](ctx, name, embed.TableLayout{}, opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Registry returns the registry holding the controller's metrics.
func (c *Controller) Registry() *prometheus.Registry {
	return c.registry
}

// OpenPPT opens doc in a new viewer embedded in parent at the given geometry.
// It returns the slot id, or one of the negative codes for the stage that failed.
func (c *Controller) OpenPPT(exe, doc string, parent embed.Handle, x, y, width, height int32) int32 {
	s, err := c.Open(context.Background(), Request{
		Executable: exe,
		Document:   doc,
		Parent:     parent,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
	})
	if err != nil {
		return Code(err)
	}
	return int32(s.Slot)
}

// Open runs the stages in order and returns the new session. A slot reserved
// before a later stage fails stays reserved.
func (c *Controller) Open(ctx context.Context, req Request) (sess *Session, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	defer func() {
		c.metrics.openDuration.Observe(time.Since(start).Seconds())
		result := "ok"
		var se *StageError
		if errors.As(err, &se) {
			result = se.Stage.String()
		}
		c.metrics.opens.WithLabelValues(result).Inc()
	}()

	if c.closed {
		return nil, &StageError{Stage: StageSharedMemory, Err: ErrShutdown}
	}

	log, err := c.logger()
	if err != nil {
		return nil, &StageError{Stage: StageLogFile, Err: err}
	}
	log.Debug("open requested",
		zap.String("executable", req.Executable),
		zap.String("document", req.Document),
		zap.Uint64("parent", uint64(req.Parent)),
		zap.Int32s("geometry", []int32{req.X, req.Y, req.Width, req.Height}))

	if _, err := c.module(); err != nil {
		log.Error("module handle", zap.Error(err))
		return nil, &StageError{Stage: StageModule, Err: err}
	}

	region, err := c.tableRegion(ctx)
	if err != nil {
		log.Error("shared table", zap.String("region", c.cfg.Region), zap.Error(err))
		return nil, &StageError{Stage: StageSharedMemory, Err: err}
	}

	rect := c.resolveRect(req, log)
	slot := -1
	inUse := 0
	err = region.Update(func(t *embed.SharedTable) error {
		if !t.Valid() {
			t.Initialize()
		}
		id, err := t.Allocate(req.Parent, rect)
		if err != nil {
			return err
		}
		slot = id
		inUse = t.InUse()
		return nil
	})
	if errors.Is(err, embed.ErrTableFull) {
		log.Warn("no free slot", zap.Int("capacity", embed.MaxViews))
		return nil, &StageError{Stage: StageTableFull, Err: err}
	}
	if err != nil {
		log.Error("allocate slot", zap.Error(err))
		return nil, &StageError{Stage: StageSharedMemory, Err: err}
	}
	c.metrics.slotsInUse.Set(float64(inUse))
	log.Debug("slot reserved", zap.Int("slot", slot), zap.Int32s("rect",
		[]int32{rect.Top, rect.Left, rect.Bottom, rect.Right}))

	// The viewer's thread does not exist yet, so the hook covers the whole desktop.
	h, err := c.installer.Install(0)
	if err != nil {
		log.Error("install hook", zap.Int("slot", slot), zap.Error(err))
		return nil, &StageError{Stage: StageHookInstall, Err: err}
	}
	if err := c.publishHook(region, h, log); err != nil {
		if rerr := c.installer.Remove(h); rerr != nil {
			log.Debug("remove hook", zap.Uint64("hook", uint64(h)), zap.Error(rerr))
		}
		log.Error("publish hook", zap.Int("slot", slot), zap.Error(err))
		return nil, &StageError{Stage: StageHookInstall, Err: err}
	}
	log.Debug("hook installed", zap.Uint64("hook", uint64(h)))

	args := append(append([]string(nil), c.cfg.Viewer.Flags...), req.Document)
	proc, err := c.launcher.Launch(ctx, launcher.Request{
		Executable: req.Executable,
		Args:       args,
	}, func(p launcher.Process) error {
		return region.Update(func(t *embed.SharedTable) error {
			return t.SetOwner(slot, p.ThreadID)
		})
	})
	if err != nil {
		c.retireHook(region, h, log)
		log.Error("launch viewer", zap.Int("slot", slot), zap.Error(err))
		return nil, &StageError{Stage: StageSpawn, Err: err}
	}

	sess = &Session{
		ID:      uuid.NewString(),
		Slot:    slot,
		Process: proc,
		Hook:    h,
		Request: req,
		Rect:    rect,
		Started: time.Now(),
	}
	c.sessions.add(sess)
	c.metrics.sessions.Set(float64(c.sessions.count()))
	log.Info("viewer launched",
		zap.String("session", sess.ID),
		zap.Int("slot", slot),
		zap.Uint32("pid", proc.PID),
		zap.Uint32("thread", proc.ThreadID))

	c.startWatch(sess, region, log)
	return sess, nil
}

// publishHook stores h in the table's hook word and removes the hook it
// replaces, so at most one desktop-wide hook stays installed.
func (c *Controller) publishHook(region TableRegion, h embed.Handle, log *logging.Logger) error {
	for {
		prev, err := region.LoadUint64(embed.HookOffset)
		if err != nil {
			return err
		}
		swapped, err := region.CompareAndSwapUint64(embed.HookOffset, prev, uint64(h))
		if err != nil {
			return err
		}
		if !swapped {
			// the viewer cleared the word in between
			continue
		}
		if prev != 0 {
			if err := c.installer.Remove(embed.Handle(prev)); err != nil {
				log.Debug("remove replaced hook", zap.Uint64("hook", prev), zap.Error(err))
			}
		}
		return nil
	}
}

// retireHook removes h unless the viewer already did or a later Open replaced it.
func (c *Controller) retireHook(region TableRegion, h embed.Handle, log *logging.Logger) {
	swapped, err := region.CompareAndSwapUint64(embed.HookOffset, uint64(h), 0)
	if err != nil || !swapped {
		return
	}
	if err := c.installer.Remove(h); err != nil {
		log.Debug("remove hook", zap.Uint64("hook", uint64(h)), zap.Error(err))
	}
}

func (c *Controller) logger() (*logging.Logger, error) {
	if c.log != nil {
		return c.log, nil
	}
	l, err := logging.New(logging.Config{
		Level:       c.cfg.Log.Level,
		File:        c.cfg.Log.File,
		Development: c.cfg.Log.Development,
		Stdout:      c.cfg.Log.Stdout,
	})
	if err != nil {
		return nil, err
	}
	c.log = l.Named("controller")
	if c.debug {
		c.log.SetLevel(zapcore.DebugLevel)
	}
	return c.log, nil
}

func (c *Controller) logOrNop() *logging.Logger {
	if c.log != nil {
		return c.log
	}
	return logging.Nop()
}

func (c *Controller) tableRegion(ctx context.Context) (TableRegion, error) {
	if c.region != nil {
		return c.region, nil
	}
	r, err := c.openRegion(ctx, c.cfg.Region)
	if err != nil {
		return nil, err
	}
	c.region = r
	return r, nil
}

// resolveRect converts the request geometry. With a parent and no geometry
// the parent's client area is used.
func (c *Controller) resolveRect(req Request, log *logging.Logger) embed.Rect {
	if req.Parent.IsZero() || req.X != 0 || req.Y != 0 || req.Width != 0 || req.Height != 0 {
		return embed.NewRect(req.X, req.Y, req.Width, req.Height)
	}
	w, h, err := c.clientSize(req.Parent)
	if err != nil {
		log.Debug("parent client size", zap.Uint64("parent", uint64(req.Parent)), zap.Error(err))
		return embed.Rect{}
	}
	return embed.NewRect(0, 0, w, h)
}

// ClosePPT is accepted but does nothing yet: the session, slot and viewer are left as they are.
func (c *Controller) ClosePPT(slot int32) {
	c.mu.Lock()
	log := c.log
	c.mu.Unlock()
	if log != nil {
		log.Debug("close requested", zap.Int32("slot", slot))
	}
}

// SetDebug switches the diagnostic log between debug and the configured level.
func (c *Controller) SetDebug(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug = on
	if c.log == nil {
		return
	}
	if on {
		c.log.SetLevel(zapcore.DebugLevel)
		return
	}
	lvl, err := zapcore.ParseLevel(c.cfg.Log.Level)
	if err != nil {
		lvl = zapcore.WarnLevel
	}
	c.log.SetLevel(lvl)
}

// Shutdown stops the capture watchers, removes the published hook, discards
// pending events and releases the shared table. Viewers are left running. Safe
// to call more than once.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()

	var errs []error
	if err := c.pool.ReleaseTimeout(5 * time.Second); err != nil {
		errs = append(errs, fmt.Errorf("release watcher pool: %w", err))
	}
	c.events.dispose()
	if c.region != nil {
		if word, err := c.region.LoadUint64(embed.HookOffset); err == nil && word != 0 {
			c.retireHook(c.region, embed.Handle(word), c.logOrNop())
		}
		if err := c.region.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close shared table: %w", err))
		}
		c.region = nil
	}
	if c.log != nil {
		c.log.Info("controller shut down", zap.Int("sessions", c.sessions.count()))
		_ = c.log.Sync()
	}
	return errors.Join(errs...)
}

// PollEvents returns up to max capture events, waiting at most timeout for the
// first one. A non-positive timeout waits until an event arrives or Shutdown.
func (c *Controller) PollEvents(max int64, timeout time.Duration) ([]Event, error) {
	return c.events.poll(max, timeout)
}

// Table returns a copy of the shared table, mapping it if needed.
func (c *Controller) Table(ctx context.Context) (embed.SharedTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return embed.SharedTable{}, ErrShutdown
	}
	region, err := c.tableRegion(ctx)
	if err != nil {
		return embed.SharedTable{}, err
	}
	return region.Load()
}
