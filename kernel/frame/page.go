package frame

import "unsafe"

// Page is a single claimed frame paired with the two addresses a caller
// needs to use it: the physical address, for handing it back to the
// allocator later, and the virtual address, for reading or writing through
// it. Ownership transfers to the caller at construction and stays there;
// nothing runs automatically when a Page value goes out of scope.
type Page struct {
	PA   PhysAddr
	VA   unsafe.Pointer
	Size uint32
}

// AllocPage claims one order-0 frame and wraps it, without touching its
// contents.
func AllocPage(frames Allocator, tr Translator, pageSize uint32) (Page, error) {
	r, err := frames.AllocFrames(0)
	if err != nil {
		return Page{}, err
	}
	return Page{PA: r.Start, VA: tr.PAtoVA(r.Start), Size: pageSize}, nil
}

// AllocPageZeroed is AllocPage followed by a zero pass over the whole page,
// for callers that need to hand out a page whose previous occupant's
// contents must not leak through.
func AllocPageZeroed(frames Allocator, tr Translator, pageSize uint32) (Page, error) {
	p, err := AllocPage(frames, tr, pageSize)
	if err != nil {
		return Page{}, err
	}
	p.Zero()
	return p, nil
}

// Bytes views the page's full extent as a byte slice.
func (p Page) Bytes() []byte {
	return unsafe.Slice((*byte)(p.VA), p.Size)
}

// Zero clears the page's entire contents.
func (p Page) Zero() {
	buf := p.Bytes()
	for i := range buf {
		buf[i] = 0
	}
}
