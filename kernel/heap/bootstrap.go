package heap

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/nyxkernel/slabheap/kernel/frame"
	"github.com/nyxkernel/slabheap/kernel/kernlog"
)

// InitForCPU claims one fresh page from the frame allocator, places a
// zeroed Bundle on it, and installs it as cpu's per-CPU bundle, both in the
// Heap's per-CPU table and in cpu's per-CPU pointer slot (Ops.SetPercpuPtr).
// The bundle's own backing storage comes from the frame allocator rather
// than the Go heap, so bootstrap does not depend on any allocator being
// already usable. A second call for the same cpu returns an error.
func (h *Heap) InitForCPU(cpu int) error {
	if cpu < 0 || cpu >= len(h.bundles) {
		return fmt.Errorf("heap: cpu %d out of range [0,%d)", cpu, len(h.bundles))
	}
	if h.bundles[cpu] != nil {
		return fmt.Errorf("heap: cpu %d already bootstrapped", cpu)
	}

	pg, err := frame.AllocPageZeroed(h.frames, h.tr, h.cfg.PageSize)
	if err != nil {
		return fmt.Errorf("heap: cpu %d bundle page allocation failed: %w", cpu, err)
	}

	h.bundles[cpu] = NewBundle(pg.Bytes(), h.cfg.K()+1)
	h.ops.SetPercpuPtr(cpu, unsafe.Pointer(h.bundles[cpu]))

	h.log.Debug("cpu bootstrapped", kernlog.Int("cpu", cpu))
	return nil
}

// BootstrapAllCPUs runs InitForCPU concurrently for every CPU named in the
// heap's Config, returning the first error encountered and canceling the
// rest via ctx: a CPU whose InitForCPU has not started by the time ctx is
// canceled (by the caller or by that first error) is skipped.
func (h *Heap) BootstrapAllCPUs(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for cpu := 0; cpu < h.cfg.NumCPU; cpu++ {
		cpu := cpu
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return h.InitForCPU(cpu)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("heap: bootstrap failed: %w", err)
	}
	h.log.Info("all cpus bootstrapped", kernlog.Int("count", h.cfg.NumCPU))
	return nil
}
