package heap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxkernel/slabheap/kernel/frame"
)

func newTestFrames(t *testing.T) (*frame.Arena, *frame.LinearTranslator) {
	t.Helper()
	a, err := frame.NewArena(9, 4096, 3) // 1 guard + 8 usable pages
	require.NoError(t, err)
	return a, frame.NewLinearTranslator(a)
}

func TestSlab_AllocGrowsOnExhaustion(t *testing.T) {
	a, tr := newTestFrames(t)
	s := newSizeClassSlabAllocator(64, 4096, a, tr)

	p1 := s.Alloc()
	require.NotNil(t, p1)
	assert.Equal(t, 1, s.PageCount())

	// Drain the rest of the first page (4096/64 - 1 more objects) without
	// triggering growth.
	for i := 0; i < 4096/64-1; i++ {
		_, ok := s.TryAlloc()
		require.True(t, ok)
	}
	_, ok := s.TryAlloc()
	assert.False(t, ok, "first page should be fully drained")

	p2 := s.Alloc()
	require.NotNil(t, p2)
	assert.Equal(t, 2, s.PageCount(), "exhausting the free list must grow by exactly one page")
}

func TestSlab_FreeThenAllocReturnsSamePointer(t *testing.T) {
	a, tr := newTestFrames(t)
	s := newSizeClassSlabAllocator(64, 4096, a, tr)

	p := s.Alloc()
	s.Free(p)
	p2 := s.Alloc()

	assert.Equal(t, p, p2, "freeing the only free object and reallocating must return it")
}

func TestSlab_ObjectsWithinClassAreDistinctAndAligned(t *testing.T) {
	a, tr := newTestFrames(t)
	objSize := uint64(64)
	s := newSizeClassSlabAllocator(objSize, 4096, a, tr)

	seen := map[unsafe.Pointer]bool{}
	for i := 0; i < 64; i++ {
		p := s.Alloc()
		assert.False(t, seen[p], "slab allocator returned the same object twice while both were live")
		assert.Equal(t, uintptr(0), uintptr(p)%uintptr(objSize), "objects must be aligned to their class size")
		seen[p] = true
	}
}
