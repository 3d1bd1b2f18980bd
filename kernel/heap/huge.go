package heap

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/nyxkernel/slabheap/kernel/frame"
)

// ErrAlignmentUnsupported is returned when a huge-path request demands an
// alignment the frame allocator cannot honor: buddy allocation only ever
// produces PageSize-aligned ranges, so any requested alignment greater than
// PageSize is unsatisfiable.
var ErrAlignmentUnsupported = errors.New("heap: requested alignment exceeds page size, huge path cannot satisfy it")

// HugeAllocator routes requests too large for any size class straight to
// the frame allocator, bypassing magazines and slab pages entirely.
type HugeAllocator struct {
	cfg    Config
	frames frame.Allocator
	tr     frame.Translator
}

// NewHugeAllocator constructs a HugeAllocator over the given frame allocator
// and translator.
func NewHugeAllocator(cfg Config, frames frame.Allocator, tr frame.Translator) *HugeAllocator {
	return &HugeAllocator{cfg: cfg, frames: frames, tr: tr}
}

// order computes the smallest buddy order whose block size (PageSize<<order)
// is at least size bytes.
func (h *HugeAllocator) order(size uint64) uint {
	pages := (size + uint64(h.cfg.PageSize) - 1) / uint64(h.cfg.PageSize)
	if pages == 0 {
		pages = 1
	}
	return ceilLog2(pages)
}

// Alloc claims PageSize<<order(l.Size) contiguous bytes and returns their
// virtual address. It rejects any alignment greater than PageSize; the huge
// path only ever promises page alignment.
func (h *HugeAllocator) Alloc(l Layout) (unsafe.Pointer, error) {
	if l.Align > uintptr(h.cfg.PageSize) {
		return nil, ErrAlignmentUnsupported
	}

	ord := h.order(uint64(l.Size))
	r, err := h.frames.AllocFrames(ord)
	if err != nil {
		return nil, fmt.Errorf("heap: huge allocation of %d bytes failed: %w", l.Size, err)
	}
	return h.tr.PAtoVA(r.Start), nil
}

// Dealloc returns a huge allocation's backing frames. It recomputes the
// same order from l that Alloc used, forms the physical range
// [to_pa(ptr), to_pa(ptr) + PageSize<<order), and gives it back to the
// frame allocator.
func (h *HugeAllocator) Dealloc(ptr unsafe.Pointer, l Layout) error {
	ord := h.order(uint64(l.Size))
	pa := h.tr.VAtoPA(ptr)
	return h.frames.AllocFromRegion(frame.PhysRange{Start: pa, Order: ord})
}
