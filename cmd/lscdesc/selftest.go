package main

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-lsc/launch"
	"github.com/ajroetker/go-lsc/lsc"
	"github.com/ajroetker/go-lsc/surface"
)

func newSelftestCmd() *cobra.Command {
	var (
		groups   int
		lanes    int
		workers  int
		platform string
	)
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run concurrent atomic increments and check that none is lost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := lsc.ParsePlatform(platform)
			if err != nil {
				return err
			}
			got, err := runSelftest(cmd.Context(), p, groups, lanes, workers)
			if err != nil {
				return err
			}
			want := uint32(groups * lanes)
			fmt.Fprintf(cmd.OutOrStdout(), "platform %v: %d groups x %d lanes, counter = %d (want %d)\n", p, groups, lanes, got, want)
			if got != want {
				return fmt.Errorf("lost %d atomic increments", want-got)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&groups, "groups", 64, "number of thread groups")
	f.IntVar(&lanes, "lanes", 16, "lanes per atomic (power of two up to 32)")
	f.IntVar(&workers, "workers", 0, "concurrent groups (0 = GOMAXPROCS)")
	f.StringVar(&platform, "platform", lsc.DefaultPlatform().String(), "emulated platform")
	return cmd
}

// runSelftest increments one counter from every lane of every group and
// returns the counter as seen by the host after a fence.
func runSelftest(ctx context.Context, p lsc.Platform, groups, lanes, workers int) (uint32, error) {
	inc, err := lsc.NewAtomic[uint32](lsc.AtomicIInc, lsc.UGM, lanes, lsc.U32)
	if err != nil {
		return 0, err
	}
	reg := surface.NewRegistry()
	h, err := reg.CreateBuffer(4)
	if err != nil {
		return 0, err
	}
	eng := lsc.New(reg, lsc.WithPlatform(p))
	target := lsc.Surface(lsc.UGM, uint32(h))
	offsets := make([]uint32, lanes)

	err = launch.New(eng, reg, launch.Config{Workers: workers}).Run(ctx, groups,
		func(ctx context.Context, inv launch.Invocation) error {
			_, err := lsc.AtomicUpdate(inv.Engine, target, inc, offsets, nil)
			return err
		})
	if err != nil {
		return 0, err
	}
	if err := eng.Fence(lsc.UGM, lsc.FenceNone, lsc.ScopeGPU); err != nil {
		return 0, err
	}
	data, err := reg.Read(h)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}
