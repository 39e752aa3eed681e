//go:build linux

package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/viewembed/pkg/embed"
	"github.com/srediag/viewembed/pkg/shm"
)

func TestCallback_SharedRegion(t *testing.T) {
	ctx := context.Background()
	name := "viewembed-hook-" + uuid.NewString()
	owner, err := shm.Create[embed.SharedTable](ctx, name, embed.TableLayout{})
	if errors.Is(err, shm.ErrUnsupported) {
		t.Skipf("shared memory unavailable: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = owner.Close()
		_ = shm.Remove(name)
	})

	require.NoError(t, owner.Update(func(tbl *embed.SharedTable) error {
		tbl.Initialize()
		tbl.CurrentHook = hookHandle
		id, err := tbl.Allocate(parentWnd, embed.NewRect(0, 0, 64, 48))
		if err != nil {
			return err
		}
		return tbl.SetOwner(id, viewerThread)
	}))

	inst := &fakeInstaller{}
	cb := NewCallback(name, inst, nil)
	noop := func(embed.Handle) uintptr { return 0 }

	params := embed.CreateParams{}
	cb.Handle(ctx, note(embed.ScreenClass, 0xA1, &params), noop)
	cb.Handle(ctx, note(embed.PaneClass, 0xB2, nil), noop)

	assert.Equal(t, int32(64), params.Width)
	assert.Equal(t, int32(48), params.Height)

	tbl, err := owner.Load()
	require.NoError(t, err)
	assert.Equal(t, embed.Handle(0xA1), tbl.Slots[0].Primary)
	assert.Equal(t, embed.Handle(0xB2), tbl.Slots[0].Secondary)
	assert.Equal(t, embed.Handle(0), tbl.CurrentHook)
	assert.Equal(t, []embed.Handle{hookHandle}, inst.removed)
}
