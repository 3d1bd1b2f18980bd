package heap

import (
	"fmt"
	"unsafe"
)

// Bundle is the per-CPU array of K+1 Magazines, one per size class. Its
// magazines are placed in place inside a single claimed physical page
// (page) rather than on the Go heap, so that a CPU can be bootstrapped
// before the slab allocator it would otherwise need to satisfy a normal Go
// allocation is itself usable. The Bundle value wrapping that page is an
// ordinary Go value; only the magazine storage it indexes into must live on
// the claimed page.
type Bundle struct {
	page    []byte
	classes uint
}

// NewBundle places `classes` zeroed Magazines at the start of page and
// returns a Bundle indexing them. page must be at least
// classes*sizeof(Magazine) bytes; Config.Validate enforces that a Config's
// class count always fits within one PageSize page.
func NewBundle(page []byte, classes uint) *Bundle {
	need := magazineSize * uintptr(classes)
	if uintptr(len(page)) < need {
		panic(fmt.Sprintf("heap: bundle needs %d bytes for %d classes, page has %d", need, classes, len(page)))
	}

	b := &Bundle{page: page, classes: classes}
	for k := uint(0); k < classes; k++ {
		*b.magazine(k) = Magazine{}
	}
	return b
}

// Magazine returns the magazine for size class k.
func (b *Bundle) Magazine(k uint) *Magazine {
	return b.magazine(k)
}

func (b *Bundle) magazine(k uint) *Magazine {
	off := magazineSize * uintptr(k)
	return (*Magazine)(unsafe.Pointer(&b.page[off]))
}
