package heap

import (
	"fmt"
	"unsafe"

	"github.com/nyxkernel/slabheap/kernel/cpuops"
	"github.com/nyxkernel/slabheap/kernel/frame"
	"github.com/nyxkernel/slabheap/kernel/kernlog"
)

// Heap is the top-level allocator facade: Alloc/Dealloc/AllocZeroed routed
// per request to either the per-CPU magazine fast path, the size-classed
// slab slow path, or the huge bypass.
type Heap struct {
	cfg    Config
	ops    cpuops.Ops
	frames frame.Allocator
	tr     frame.Translator
	slabs  *SlabSet
	huge   *HugeAllocator
	log    *kernlog.Logger

	bundles []*Bundle // indexed by cpu; nil entries mean not yet bootstrapped
}

// New validates cfg and wires a Heap over the given collaborators. No CPU is
// usable until BootstrapAllCPUs or InitForCPU has run for it.
func New(cfg Config, ops cpuops.Ops, frames frame.Allocator, tr frame.Translator, log *kernlog.Logger) (*Heap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("heap: invalid config: %w", err)
	}
	if log == nil {
		log = kernlog.Default("heap")
	}

	return &Heap{
		cfg:     cfg,
		ops:     ops,
		frames:  frames,
		tr:      tr,
		slabs:   NewSlabSet(cfg, ops, frames, tr),
		huge:    NewHugeAllocator(cfg, frames, tr),
		log:     log.With("heap"),
		bundles: make([]*Bundle, cfg.NumCPU),
	}, nil
}

// bundleFor returns cpu's Bundle, panicking if InitForCPU has not run for
// it: allocating from an uninitialized CPU is a boot-ordering bug, not a
// recoverable runtime condition.
func (h *Heap) bundleFor(cpu int) *Bundle {
	if cpu < 0 || cpu >= len(h.bundles) || h.bundles[cpu] == nil {
		panic(fmt.Sprintf("heap: cpu %d used before bootstrap", cpu))
	}
	return h.bundles[cpu]
}

// Alloc satisfies l on behalf of cpu. Requests within the size-class range
// take the magazine fast path, falling through to the locked slab slow path
// on a miss; requests above the largest class bypass the slab layer
// entirely via the huge path.
func (h *Heap) Alloc(cpu int, l Layout) (unsafe.Pointer, error) {
	k, ok := h.cfg.Classify(l)
	if !ok {
		return h.huge.Alloc(l)
	}

	b := h.bundleFor(cpu)
	mag := b.Magazine(k)

	flags := h.ops.DisableInterrupts(cpu)
	defer h.ops.RestoreInterrupts(cpu, flags)

	if p, ok := mag.Pop(); ok {
		return p, nil
	}
	return h.slabs.AllocAndRefill(cpu, k, mag), nil
}

// AllocZeroed is Alloc followed by zeroing the returned object. Neither an
// object from a freshly grown slab page (grow does not zero the page and
// writes a free-list pointer into every slot) nor one recycled through a
// magazine or free list is zero, so this always zeroes explicitly.
//
// A request that lands on the huge path's smallest order — exactly one
// page — zeroes at frame granularity via frame.Page instead of looping
// over l.Size bytes, since the two cover the same extent for that order
// and the former matches how a freshly claimed page is normally cleared
// elsewhere in this package (see InitForCPU). Every other request falls
// back to alloc-then-zero over l.Size.
func (h *Heap) AllocZeroed(cpu int, l Layout) (unsafe.Pointer, error) {
	p, err := h.Alloc(cpu, l)
	if err != nil {
		return nil, err
	}

	if _, ok := h.cfg.Classify(l); !ok && h.huge.order(uint64(l.Size)) == 0 {
		frame.Page{VA: p, Size: h.cfg.PageSize}.Zero()
		return p, nil
	}

	buf := unsafe.Slice((*byte)(p), l.Size)
	for i := range buf {
		buf[i] = 0
	}
	return p, nil
}

// Dealloc returns ptr, originally obtained from Alloc/AllocZeroed with the
// identical Layout l, to the heap. Classification must be deterministic in
// l alone so that Dealloc recovers the same class Alloc chose.
func (h *Heap) Dealloc(cpu int, ptr unsafe.Pointer, l Layout) error {
	k, ok := h.cfg.Classify(l)
	if !ok {
		return h.huge.Dealloc(ptr, l)
	}

	b := h.bundleFor(cpu)
	mag := b.Magazine(k)

	flags := h.ops.DisableInterrupts(cpu)
	defer h.ops.RestoreInterrupts(cpu, flags)

	if mag.Push(ptr) {
		return nil
	}
	h.slabs.FreeAndDrain(cpu, k, mag, ptr)
	return nil
}

// LockAcquisitions exposes the slow path's running lock-acquisition count,
// for the fast-path locality property test.
func (h *Heap) LockAcquisitions() uint64 { return h.slabs.LockAcquisitions() }

// Config returns the validated configuration this Heap was built with.
func (h *Heap) Config() Config { return h.cfg }
