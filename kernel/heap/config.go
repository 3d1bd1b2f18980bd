package heap

import (
	"fmt"
	"unsafe"

	"go.uber.org/multierr"
)

// Config holds the tunable parameters of a Heap: the size-class range, the
// platform page size, and how many simulated CPUs this Heap serves.
// MagazineCapacity (M) is a fixed architectural constant, not a per-Config
// knob, because Bundle lays magazines out in place on a single claimed page
// and its layout must be fixed at compile time.
type Config struct {
	// MinShift is log2 of the smallest size class's object size.
	MinShift uint
	// MaxShift is log2 of the largest size class's object size.
	MaxShift uint
	// PageSize is the platform page size in bytes; must be a power of two.
	PageSize uint32
	// NumCPU is how many simulated CPUs BootstrapAllCPUs brings up.
	NumCPU int
}

// MagazineCapacity is M, the fixed number of pointers each per-class
// magazine holds.
const MagazineCapacity = 32

// K returns the highest size-class index; classes run 0..K inclusive.
func (c Config) K() uint {
	return c.MaxShift - c.MinShift
}

// ObjectSize returns the object size in bytes for class k.
func (c Config) ObjectSize(k uint) uint64 {
	return uint64(1) << (c.MinShift + k)
}

// Validate checks every independent invariant a Config must satisfy and
// aggregates all violations via multierr, rather than stopping at the
// first, so a misconfiguration is reported completely.
func (c Config) Validate() error {
	var errs error

	if c.PageSize == 0 || c.PageSize&(c.PageSize-1) != 0 {
		errs = multierr.Append(errs, fmt.Errorf("heap: PageSize must be a power of two, got %d", c.PageSize))
	}

	ptrSize := uint64(unsafe.Sizeof(uintptr(0)))
	minObjectSize := uint64(1) << c.MinShift
	if minObjectSize < ptrSize {
		errs = multierr.Append(errs, fmt.Errorf(
			"heap: MinShift %d yields a %d-byte object, too small to embed a %d-byte free-list pointer",
			c.MinShift, minObjectSize, ptrSize))
	}

	if c.MaxShift <= c.MinShift {
		errs = multierr.Append(errs, fmt.Errorf(
			"heap: MaxShift (%d) must be greater than MinShift (%d)", c.MaxShift, c.MinShift))
	} else if c.PageSize > 0 {
		maxObjectSize := uint64(1) << c.MaxShift
		if maxObjectSize > uint64(c.PageSize)/2 {
			errs = multierr.Append(errs, fmt.Errorf(
				"heap: largest class's object size %d exceeds PageSize/2 (%d); fewer than two objects would fit per slab page",
				maxObjectSize, c.PageSize/2))
		}

		classes := c.K() + 1
		need := magazineSize * uintptr(classes)
		if need > uintptr(c.PageSize) {
			errs = multierr.Append(errs, fmt.Errorf(
				"heap: a %d-class bundle needs %d bytes, which does not fit in one %d-byte page",
				classes, need, c.PageSize))
		}
	}

	if c.NumCPU <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("heap: NumCPU must be > 0, got %d", c.NumCPU))
	}

	return errs
}
