package heap

import (
	"fmt"
	"unsafe"

	"github.com/nyxkernel/slabheap/kernel/frame"
)

// SizeClassSlabAllocator is the global backing allocator for one size
// class: it bump-carves newly claimed slab pages into objects of a single
// size and threads the free ones onto an embedded free list, the first
// machine word of each free object holding the next free object's address.
//
// All methods assume the caller already holds the class's IRQ-safe lock
// (see SlabSet); SizeClassSlabAllocator itself performs no synchronization.
type SizeClassSlabAllocator struct {
	objectSize uint64
	pageSize   uint32

	freeHead unsafe.Pointer
	pages    []frame.PhysAddr

	frames     frame.Allocator
	translator frame.Translator
}

func newSizeClassSlabAllocator(objectSize uint64, pageSize uint32, frames frame.Allocator, tr frame.Translator) *SizeClassSlabAllocator {
	return &SizeClassSlabAllocator{
		objectSize: objectSize,
		pageSize:   pageSize,
		frames:     frames,
		translator: tr,
	}
}

// TryAlloc pops the free list's head without growing it, returning false if
// it is empty. Callers decide separately whether paying the growth cost is
// worthwhile (Magazine.FillFrom relies on this to stop opportunistically).
func (s *SizeClassSlabAllocator) TryAlloc() (unsafe.Pointer, bool) {
	if s.freeHead == nil {
		return nil, false
	}
	p := s.freeHead
	s.freeHead = *(*unsafe.Pointer)(p)
	return p, true
}

// Alloc returns one object, growing the slab by one fresh page first if the
// free list is empty. It panics if the frame allocator cannot supply a
// page: kernel heap exhaustion has no meaningful recovery mid-allocation.
func (s *SizeClassSlabAllocator) Alloc() unsafe.Pointer {
	if p, ok := s.TryAlloc(); ok {
		return p
	}

	s.grow()

	p, ok := s.TryAlloc()
	if !ok {
		panic(fmt.Sprintf("heap: slab allocator failed to produce an object of size %d after growing", s.objectSize))
	}
	return p
}

// Free pushes p onto the free list head. The caller must not free a
// pointer that did not originate from Alloc/TryAlloc of this same class;
// that is undefined behaviour the implementation does not detect.
func (s *SizeClassSlabAllocator) Free(p unsafe.Pointer) {
	*(*unsafe.Pointer)(p) = s.freeHead
	s.freeHead = p
}

// grow claims one fresh page from the frame allocator and threads every
// slot in it onto the free list.
func (s *SizeClassSlabAllocator) grow() {
	pg, err := frame.AllocPage(s.frames, s.translator, s.pageSize)
	if err != nil {
		panic(fmt.Sprintf("heap: out of memory growing slab for object size %d: %v", s.objectSize, err))
	}
	s.pages = append(s.pages, pg.PA)

	count := uint64(s.pageSize) / s.objectSize
	for i := uint64(0); i < count; i++ {
		obj := unsafe.Add(pg.VA, uintptr(i*s.objectSize))
		s.Free(obj)
	}
}

// PageCount reports how many slab pages this class has claimed. Test-only
// observability; no allocator operation depends on it.
func (s *SizeClassSlabAllocator) PageCount() int { return len(s.pages) }
