// Copyright 2025 The go-lsc Authors. SPDX-License-Identifier: Apache-2.0

// Package launch runs emulated kernel invocations as concurrent host
// goroutines.
//
// A kernel is launched over a number of thread groups. Each group runs on
// one worker goroutine with its own local scratch memory, and all groups
// share the registry's buffers and the engine's atomic Serializer, exactly
// like thread groups on the emulated device share global memory.
//
// Usage:
//
//	l := launch.New(eng, registry, launch.Config{})
//	err := l.Run(ctx, groups, func(ctx context.Context, inv launch.Invocation) error {
//	    _, err := lsc.AtomicUpdate(inv.Engine, lsc.Surface(lsc.UGM, h), inc, offs, nil)
//	    return err
//	})
package launch

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-lsc/lsc"
	"github.com/ajroetker/go-lsc/surface"
)

// Config configures a Launcher.
type Config struct {
	// Workers is the number of groups that run at once. If <= 0, uses
	// GOMAXPROCS.
	Workers int

	// ScratchBytes is the size of each group's local scratch. If <= 0,
	// uses the engine platform's scratch size.
	ScratchBytes int
}

// Invocation is the context one thread group runs in.
type Invocation struct {
	// Group is the group index in [0, groups).
	Group int

	// Engine resolves SLM to this group's scratch and shares the
	// launcher engine's Serializer.
	Engine *lsc.Engine

	// Surfaces is the group's view of the registry.
	Surfaces *surface.Group
}

// Kernel is the body of one thread group.
type Kernel func(ctx context.Context, inv Invocation) error

// Launcher runs kernels over a registry's buffers.
type Launcher struct {
	engine   *lsc.Engine
	registry *surface.Registry
	cfg      Config
}

// New returns a Launcher that binds e to per-group views of registry.
func New(e *lsc.Engine, registry *surface.Registry, cfg Config) *Launcher {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.ScratchBytes <= 0 {
		cfg.ScratchBytes = e.Platform().ScratchBytes()
	}
	return &Launcher{engine: e, registry: registry, cfg: cfg}
}

// NumWorkers returns the number of groups that run at once.
func (l *Launcher) NumWorkers() int {
	return l.cfg.Workers
}

// Run executes k once for every group in [0, groups) and blocks until all
// groups finish. Workers take the next group index atomically, so uneven
// groups balance across workers.
//
// The first failing group cancels the context passed to the others; groups
// that have not started are skipped. Run returns that first error, wrapped
// with its group index. A failing group never affects the memory state of
// the other groups beyond what it wrote before failing.
func (l *Launcher) Run(ctx context.Context, groups int, k Kernel) error {
	if groups <= 0 {
		return nil
	}
	workers := min(l.cfg.Workers, groups)

	g, ctx := errgroup.WithContext(ctx)
	var next atomic.Int32
	for range workers {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				id := int(next.Add(1)) - 1
				if id >= groups {
					return nil
				}
				view := l.registry.NewGroup(l.cfg.ScratchBytes)
				inv := Invocation{Group: id, Engine: l.engine.Bind(view), Surfaces: view}
				if err := k(ctx, inv); err != nil {
					return fmt.Errorf("group %d: %w", id, err)
				}
			}
		})
	}
	return g.Wait()
}
