package heap

import (
	"sync/atomic"
	"unsafe"

	"github.com/nyxkernel/slabheap/kernel/cpuops"
	"github.com/nyxkernel/slabheap/kernel/frame"
)

// classSlab pairs one size class's global SizeClassSlabAllocator with the
// IRQ-safe spinlock that serializes access to it. The slow path (magazine
// refill/drain) must hold this lock with interrupts already disabled;
// Spinlock.Lock does both in the order the hardware requires.
type classSlab struct {
	slab *SizeClassSlabAllocator
	lock *cpuops.Spinlock
}

// SlabSet owns every size class's global slab allocator and lock, and
// implements the slow-path refill/drain operations magazine misses fall
// through to.
type SlabSet struct {
	cfg    Config
	ops    cpuops.Ops
	frames frame.Allocator
	tr     frame.Translator

	classes []classSlab

	// lockAcquisitions counts how many times the slow path actually took a
	// class lock, across all CPUs and classes. Exists for the fast-path
	// locality property test: a workload that never exhausts its magazines
	// should leave this at zero.
	lockAcquisitions atomic.Uint64
}

// NewSlabSet constructs one SizeClassSlabAllocator and Spinlock per size
// class 0..cfg.K().
func NewSlabSet(cfg Config, ops cpuops.Ops, frames frame.Allocator, tr frame.Translator) *SlabSet {
	classes := make([]classSlab, cfg.K()+1)
	for k := range classes {
		classes[k] = classSlab{
			slab: newSizeClassSlabAllocator(cfg.ObjectSize(uint(k)), cfg.PageSize, frames, tr),
			lock: cpuops.NewSpinlock(ops),
		}
	}
	return &SlabSet{cfg: cfg, ops: ops, frames: frames, tr: tr, classes: classes}
}

// LockAcquisitions reports the running total of slow-path lock acquisitions
// across every class, for property-test instrumentation only.
func (s *SlabSet) LockAcquisitions() uint64 { return s.lockAcquisitions.Load() }

// AllocAndRefill services a magazine miss on the allocation path: under
// class k's lock, it takes one object for the caller and tops the magazine
// back up from the same critical section, so a burst of misses from the
// same CPU amortizes the lock over many subsequent fast-path hits.
func (s *SlabSet) AllocAndRefill(cpu int, k uint, mag *Magazine) unsafe.Pointer {
	cs := &s.classes[k]

	flags := cs.lock.Lock(cpu)
	s.lockAcquisitions.Add(1)
	p := cs.slab.Alloc()
	mag.FillFrom(cs.slab)
	cs.lock.Unlock(cpu, flags)

	return p
}

// FreeAndDrain services a magazine-full case on the deallocation path: under
// class k's lock, it returns p to the global free list and then drains half
// of the magazine back in the same critical section, damping oscillation
// around the capacity boundary.
func (s *SlabSet) FreeAndDrain(cpu int, k uint, mag *Magazine, p unsafe.Pointer) {
	cs := &s.classes[k]

	flags := cs.lock.Lock(cpu)
	s.lockAcquisitions.Add(1)
	cs.slab.Free(p)
	mag.DrainHalfInto(cs.slab)
	cs.lock.Unlock(cpu, flags)
}

// PageCount reports how many slab pages class k has claimed so far.
func (s *SlabSet) PageCount(k uint) int {
	return s.classes[k].slab.PageCount()
}
