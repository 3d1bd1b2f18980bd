package heap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagazine_PushPopLIFO(t *testing.T) {
	var m Magazine
	a, b, c := byte(1), byte(2), byte(3)

	require.True(t, m.Push(unsafe.Pointer(&a)))
	require.True(t, m.Push(unsafe.Pointer(&b)))
	require.True(t, m.Push(unsafe.Pointer(&c)))

	p, ok := m.Pop()
	require.True(t, ok)
	assert.Equal(t, unsafe.Pointer(&c), p)

	p, ok = m.Pop()
	require.True(t, ok)
	assert.Equal(t, unsafe.Pointer(&b), p)
}

func TestMagazine_PopEmpty(t *testing.T) {
	var m Magazine
	_, ok := m.Pop()
	assert.False(t, ok)
}

func TestMagazine_PushAtCapacityFails(t *testing.T) {
	var m Magazine
	for i := 0; i < MagazineCapacity; i++ {
		x := byte(i)
		require.True(t, m.Push(unsafe.Pointer(&x)))
	}
	assert.True(t, m.IsFull())

	overflow := byte(99)
	assert.False(t, m.Push(unsafe.Pointer(&overflow)))
}

// fakeSlab is a minimal slabSource backed by an in-memory slice, used to
// test Magazine's refill/drain logic in isolation from the real
// SizeClassSlabAllocator and its frame-allocator dependency.
type fakeSlab struct {
	free []unsafe.Pointer
}

func (f *fakeSlab) TryAlloc() (unsafe.Pointer, bool) {
	if len(f.free) == 0 {
		return nil, false
	}
	p := f.free[len(f.free)-1]
	f.free = f.free[:len(f.free)-1]
	return p, true
}

func (f *fakeSlab) Free(p unsafe.Pointer) {
	f.free = append(f.free, p)
}

func TestMagazine_FillFromStopsWhenSlabExhausted(t *testing.T) {
	objs := make([]byte, 5)
	slab := &fakeSlab{}
	for i := range objs {
		slab.free = append(slab.free, unsafe.Pointer(&objs[i]))
	}

	var m Magazine
	m.FillFrom(slab)

	assert.Equal(t, 5, m.Len())
	assert.Empty(t, slab.free)
}

func TestMagazine_FillFromStopsWhenFull(t *testing.T) {
	objs := make([]byte, MagazineCapacity+10)
	slab := &fakeSlab{}
	for i := range objs {
		slab.free = append(slab.free, unsafe.Pointer(&objs[i]))
	}

	var m Magazine
	m.FillFrom(slab)

	assert.True(t, m.IsFull())
	assert.Len(t, slab.free, 10)
}

func TestMagazine_DrainHalfInto(t *testing.T) {
	objs := make([]byte, MagazineCapacity)
	var m Magazine
	for i := range objs {
		require.True(t, m.Push(unsafe.Pointer(&objs[i])))
	}

	slab := &fakeSlab{}
	m.DrainHalfInto(slab)

	assert.Equal(t, MagazineCapacity/2, m.Len())
	assert.Len(t, slab.free, MagazineCapacity/2)
}
