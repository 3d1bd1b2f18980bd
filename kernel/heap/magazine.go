package heap

import "unsafe"

// Magazine is a fixed-capacity LIFO cache of free object pointers for one
// size class. Its layout is fixed (MagazineCapacity slots) so an array of
// them can be placed in place inside a single claimed page — see Bundle.
type Magazine struct {
	n    int32
	_    [4]byte // pad to 8-byte alignment ahead of the pointer array
	ptrs [MagazineCapacity]unsafe.Pointer
}

var magazineSize = unsafe.Sizeof(Magazine{})

// Pop removes and returns the most recently pushed pointer, LIFO.
func (m *Magazine) Pop() (unsafe.Pointer, bool) {
	if m.n == 0 {
		return nil, false
	}
	m.n--
	return m.ptrs[m.n], true
}

// Push caches p. It fails if the magazine is already at capacity.
func (m *Magazine) Push(p unsafe.Pointer) bool {
	if int(m.n) == MagazineCapacity {
		return false
	}
	m.ptrs[m.n] = p
	m.n++
	return true
}

// IsEmpty reports whether the magazine holds no cached pointers.
func (m *Magazine) IsEmpty() bool { return m.n == 0 }

// IsFull reports whether the magazine is at capacity.
func (m *Magazine) IsFull() bool { return int(m.n) == MagazineCapacity }

// Len reports how many pointers are currently cached.
func (m *Magazine) Len() int { return int(m.n) }

// slabSource is the subset of SizeClassSlabAllocator FillFrom/DrainHalfInto
// need; kept as an interface purely so magazine_test.go can exercise them
// against a minimal fake without pulling in the frame allocator.
type slabSource interface {
	TryAlloc() (unsafe.Pointer, bool)
	Free(p unsafe.Pointer)
}

// FillFrom tops the magazine up from slab without growing it: it stops as
// soon as the magazine is full or the slab's free list runs dry, leaving
// the decision to pay a page-growth cost to the caller.
func (m *Magazine) FillFrom(slab slabSource) {
	for !m.IsFull() {
		p, ok := slab.TryAlloc()
		if !ok {
			return
		}
		m.ptrs[m.n] = p
		m.n++
	}
}

// DrainHalfInto moves half of the magazine's cached pointers (top of stack
// first) back into slab's free list, damping oscillation for workloads that
// alternate allocate/free around the capacity boundary.
func (m *Magazine) DrainHalfInto(slab slabSource) {
	half := m.n / 2
	for i := int32(0); i < half; i++ {
		m.n--
		slab.Free(m.ptrs[m.n])
	}
}
