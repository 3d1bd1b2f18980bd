package cpuops

import "sync/atomic"

// Spinlock is a busy-wait lock that disables interrupts on the calling CPU
// for the duration it is held, and restores the prior state on Unlock. This
// is the IRQ-safe lock each size-class slab allocator needs: acquiring it
// must be safe even when called from a context that itself runs with
// interrupts enabled, because an interrupt handler that re-entered the
// allocator while the lock was held would deadlock.
type Spinlock struct {
	ops   Ops
	state atomic.Bool
}

// NewSpinlock creates a Spinlock backed by the given Ops.
func NewSpinlock(ops Ops) *Spinlock {
	return &Spinlock{ops: ops}
}

// Lock disables interrupts on cpu, then busy-waits for the lock. It returns
// the IRQFlags that must be passed to the matching Unlock.
func (l *Spinlock) Lock(cpu int) IRQFlags {
	flags := l.ops.DisableInterrupts(cpu)
	for !l.state.CompareAndSwap(false, true) {
		// Local spin; a contending CPU is genuinely another core here, so
		// there is nothing useful to yield to.
	}
	return flags
}

// Unlock releases the lock and restores the interrupt state saved by the
// matching Lock call.
func (l *Spinlock) Unlock(cpu int, flags IRQFlags) {
	l.state.Store(false)
	l.ops.RestoreInterrupts(cpu, flags)
}
