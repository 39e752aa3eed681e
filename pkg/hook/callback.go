package hook

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/srediag/viewembed/pkg/embed"
	"github.com/srediag/viewembed/pkg/shm"
)

// TableRegion is the part of a mapped table region the callback uses.
type TableRegion interface {
	Update(fn func(*embed.SharedTable) error) error
	LoadUint64(off int) (uint64, error)
	CompareAndSwapUint64(off int, old, new uint64) (bool, error)
	Close() error
}

// Opener maps the named table region for one notification.
type Opener func(ctx context.Context, name string) (TableRegion, error)

// OpenShared opens an existing table region through pkg/shm.
func OpenShared(opts ...shm.Option) Opener {
	return func(ctx context.Context, name string) (TableRegion, error) {
		r, err := shm.Open[embed.SharedTable](ctx, name, embed.TableLayout{}, opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Callback handles notifications inside the viewer process.
//
// It never fails: every error degrades to forwarding the notification untouched.
type Callback struct {
	Region    string
	Open      Opener
	Installer Installer
	Logger    *zap.Logger
}

// NewCallback returns a Callback mapping region through pkg/shm.
func NewCallback(region string, installer Installer, logger *zap.Logger) *Callback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Callback{
		Region:    region,
		Open:      OpenShared(),
		Installer: installer,
		Logger:    logger,
	}
}

// Handle rewrites n against the shared table and forwards it with the hook
// handle published in the table. n.Create is modified in place when the window
// is the primary one. Codes other than window creation are only forwarded.
func (c *Callback) Handle(ctx context.Context, n embed.Notification, forward Forwarder) uintptr {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	region, err := c.Open(ctx, c.Region)
	if err != nil {
		log.Debug("open table region", zap.String("region", c.Region), zap.Error(err))
		return forward(0)
	}
	defer func() {
		if err := region.Close(); err != nil {
			log.Debug("close table region", zap.Error(err))
		}
	}()

	word, err := region.LoadUint64(embed.HookOffset)
	if err != nil {
		log.Debug("load current hook", zap.Error(err))
		return forward(0)
	}
	current := embed.Handle(word)
	if n.Code != embed.CodeCreateWindow {
		return forward(current)
	}

	var out embed.Outcome
	err = region.Update(func(t *embed.SharedTable) error {
		out = embed.Rewrite(t, n)
		if !out.Mutated {
			return errNoChange
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		log.Debug("update table", zap.Error(err))
		return forward(current)
	}

	if out.Mutated {
		log.Debug("window captured",
			zap.Int("slot", out.Slot),
			zap.String("class", embed.TruncateClass(n.Class)),
			zap.Uint64("window", uint64(n.Window)),
			zap.Uint32("thread", n.ThreadID),
			zap.Bool("complete", out.Complete))
	}

	if out.Complete && !current.IsZero() {
		c.retire(region, current, log)
	}
	return forward(current)
}

// retire clears the hook word and removes the hook. Only the invocation that
// wins the compare-and-swap removes it.
func (c *Callback) retire(region TableRegion, current embed.Handle, log *zap.Logger) {
	swapped, err := region.CompareAndSwapUint64(embed.HookOffset, uint64(current), 0)
	if err != nil {
		log.Debug("clear current hook", zap.Error(err))
		return
	}
	if !swapped || c.Installer == nil {
		return
	}
	if err := c.Installer.Remove(current); err != nil {
		log.Debug("remove hook", zap.Uint64("hook", uint64(current)), zap.Error(err))
	}
}

// errNoChange aborts Update without writing when nothing matched.
var errNoChange = errors.New("hook: no change")
