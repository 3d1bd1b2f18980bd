// Package cpuops stands in for the hardware primitives the kernel heap
// assumes are available on every core: disabling/restoring local interrupts
// and a single per-CPU banked pointer register. A hosted Go process has
// neither real interrupts nor banked registers, so Ops is defined against
// an explicit CPU index, backed by an indexed-by-cpu-id table that is safe
// to read as long as the caller's task stays pinned to that index.
package cpuops

import (
	"sync/atomic"
	"unsafe"
)

// IRQFlags captures the interrupt-enabled state saved by DisableInterrupts,
// to be restored by the matching RestoreInterrupts. It nests: a second
// DisableInterrupts on an already-disabled CPU returns flags that, when
// restored, leave interrupts disabled until the outer RestoreInterrupts runs.
type IRQFlags struct {
	wasEnabled bool
}

// Ops is the CPU-primitive contract the kernel heap is built against.
type Ops interface {
	DisableInterrupts(cpu int) IRQFlags
	RestoreInterrupts(cpu int, flags IRQFlags)
	GetPercpuPtr(cpu int) unsafe.Pointer
	SetPercpuPtr(cpu int, ptr unsafe.Pointer)
}

type cpuState struct {
	enabled atomic.Bool
	percpu  atomic.Pointer[byte]
}

// SimOps is a fixed-size array of simulated CPUs. Its zero value is not
// ready for use; construct with NewSimOps.
type SimOps struct {
	cpus []cpuState
}

// NewSimOps allocates a simulated CPU-ops backing for n cores, all booted
// with interrupts enabled and no per-CPU pointer installed.
func NewSimOps(n int) *SimOps {
	s := &SimOps{cpus: make([]cpuState, n)}
	for i := range s.cpus {
		s.cpus[i].enabled.Store(true)
	}
	return s
}

// NumCPU reports how many simulated CPUs this Ops instance serves.
func (s *SimOps) NumCPU() int { return len(s.cpus) }

// DisableInterrupts disables interrupts on the given simulated CPU and
// returns the previous state for RestoreInterrupts.
func (s *SimOps) DisableInterrupts(cpu int) IRQFlags {
	c := &s.cpus[cpu]
	was := c.enabled.Swap(false)
	return IRQFlags{wasEnabled: was}
}

// RestoreInterrupts restores the interrupt-enabled state saved by a prior
// DisableInterrupts on the same CPU.
func (s *SimOps) RestoreInterrupts(cpu int, flags IRQFlags) {
	s.cpus[cpu].enabled.Store(flags.wasEnabled)
}

// InterruptsEnabled reports whether interrupts are currently enabled on cpu.
// Test-only observability hook; no allocator operation depends on it.
func (s *SimOps) InterruptsEnabled(cpu int) bool {
	return s.cpus[cpu].enabled.Load()
}

// GetPercpuPtr reads the banked pointer slot for cpu.
func (s *SimOps) GetPercpuPtr(cpu int) unsafe.Pointer {
	return unsafe.Pointer(s.cpus[cpu].percpu.Load())
}

// SetPercpuPtr writes the banked pointer slot for cpu.
func (s *SimOps) SetPercpuPtr(cpu int, ptr unsafe.Pointer) {
	s.cpus[cpu].percpu.Store((*byte)(ptr))
}
