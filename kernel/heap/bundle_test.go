package heap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBundle_MagazinesAreDistinctAndEmpty(t *testing.T) {
	page := make([]byte, 4096)
	b := NewBundle(page, 5)

	for k := uint(0); k < 5; k++ {
		assert.True(t, b.Magazine(k).IsEmpty())
	}

	obj := byte(1)
	b.Magazine(2).Push(unsafe.Pointer(&obj))
	assert.False(t, b.Magazine(2).IsEmpty())
	assert.True(t, b.Magazine(1).IsEmpty(), "pushing to one class's magazine must not affect another")
	assert.True(t, b.Magazine(3).IsEmpty())
}

func TestNewBundle_PanicsWhenPageTooSmall(t *testing.T) {
	page := make([]byte, 8)
	assert.Panics(t, func() {
		NewBundle(page, 5)
	})
}

func TestNewBundle_PlacesMagazinesInGivenPage(t *testing.T) {
	page := make([]byte, 4096)
	b := NewBundle(page, 3)

	first := b.Magazine(0)
	require.NotNil(t, first)
	// The first magazine must live at the start of the backing page.
	assert.Equal(t, unsafe.Pointer(&page[0]), unsafe.Pointer(first))
}
