package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/srediag/viewembed/internal/config"
	"github.com/srediag/viewembed/pkg/embed"
	"github.com/srediag/viewembed/pkg/shm"
)

type tableView struct {
	Region      string     `yaml:"region"`
	Valid       bool       `yaml:"valid"`
	Magic       string     `yaml:"magic"`
	Version     uint16     `yaml:"version"`
	Capacity    uint16     `yaml:"capacity"`
	CurrentHook string     `yaml:"currentHook"`
	InUse       int        `yaml:"inUse"`
	Slots       []slotView `yaml:"slots"`
}

type slotView struct {
	ID          uint32   `yaml:"id"`
	State       string   `yaml:"state"`
	OwnerThread uint32   `yaml:"ownerThread,omitempty"`
	Primary     string   `yaml:"primary,omitempty"`
	Secondary   string   `yaml:"secondary,omitempty"`
	Parent      string   `yaml:"parent,omitempty"`
	Rect        [4]int32 `yaml:"rect,flow"`
}

func handleString(h embed.Handle) string {
	if h.IsZero() {
		return ""
	}
	return fmt.Sprintf("%#x", uint64(h))
}

// newTableView renders t. Closed slots are skipped unless all is set.
func newTableView(region string, t embed.SharedTable, all bool) tableView {
	v := tableView{
		Region:      region,
		Valid:       t.Valid(),
		Magic:       fmt.Sprintf("%#08x", t.Magic),
		Version:     t.Version,
		Capacity:    t.Capacity,
		CurrentHook: handleString(t.CurrentHook),
		InUse:       t.InUse(),
	}
	for _, s := range t.Slots {
		if s.State == embed.StateClosed && !all {
			continue
		}
		v.Slots = append(v.Slots, slotView{
			ID:          s.ID,
			State:       s.State.String(),
			OwnerThread: s.OwnerThread,
			Primary:     handleString(s.Primary),
			Secondary:   handleString(s.Secondary),
			Parent:      handleString(s.Parent),
			Rect:        [4]int32{s.Rect.Top, s.Rect.Left, s.Rect.Bottom, s.Rect.Right},
		})
	}
	return v
}

func loadTable(ctx context.Context, name string) (embed.SharedTable, error) {
	r, err := shm.Open[embed.SharedTable](ctx, name, embed.TableLayout{})
	if err != nil {
		return embed.SharedTable{}, err
	}
	defer r.Close()
	return r.Load()
}

func inspect(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	all := fs.Bool("all", false, "Include Closed slots")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := loadTable(ctx, cfg.Region)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(newTableView(cfg.Region, t, *all))
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func remove(cfg *config.Config) error {
	return shm.Remove(cfg.Region)
}
