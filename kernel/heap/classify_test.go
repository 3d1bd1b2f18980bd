package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{MinShift: 4, MaxShift: 11, PageSize: 4096, NumCPU: 2} // classes 16B..2048B
}

func TestClassify_ExactPowersOfTwo(t *testing.T) {
	c := testConfig()

	k, ok := c.Classify(Layout{Size: 16, Align: 1})
	assert.True(t, ok)
	assert.Equal(t, uint(0), k)

	k, ok = c.Classify(Layout{Size: 2048, Align: 1})
	assert.True(t, ok)
	assert.Equal(t, c.K(), k)
}

func TestClassify_RoundsUpToNextClass(t *testing.T) {
	c := testConfig()

	k, ok := c.Classify(Layout{Size: 17, Align: 1})
	assert.True(t, ok)
	assert.Equal(t, c.ObjectSize(k), uint64(32))
}

func TestClassify_BelowMinShiftTakesSmallestClass(t *testing.T) {
	c := testConfig()

	k, ok := c.Classify(Layout{Size: 1, Align: 1})
	assert.True(t, ok)
	assert.Equal(t, uint(0), k)
}

func TestClassify_AlignmentWidensClass(t *testing.T) {
	c := testConfig()

	k, ok := c.Classify(Layout{Size: 16, Align: 64})
	assert.True(t, ok)
	assert.GreaterOrEqual(t, c.ObjectSize(k), uint64(64))
}

func TestClassify_AboveMaxShiftTakesHugePath(t *testing.T) {
	c := testConfig()

	_, ok := c.Classify(Layout{Size: 4096, Align: 1})
	assert.False(t, ok)
}

func TestClassify_ChosenClassNeverSmallerThanRequest(t *testing.T) {
	c := testConfig()

	for size := uintptr(1); size < 3000; size += 7 {
		k, ok := c.Classify(Layout{Size: size, Align: 1})
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, c.ObjectSize(k), uint64(size))
	}
}
