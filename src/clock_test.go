package magstripe

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRecoverBits(t *testing.T) {
	var intervals = []int{
		7, 300, 12, 45, 90, // Settling, dropped.
		60, 60, 60, 60, // Clock seed.
		30, 30, 60, 30, 30, 60,
		60, // Nothing to pair it with, so it is left over.
	}

	var bits = slices.Collect(RecoverBits(intervals, DefaultConfig().Clock))

	assert.Equal(t, []Bit{0, 0, 0, 0, 1, 0, 1, 0}, bits)
}

func TestRecoverBitsTooShort(t *testing.T) {
	var cfg = DefaultConfig().Clock

	assert.Empty(t, slices.Collect(RecoverBits(nil, cfg)))
	assert.Empty(t, slices.Collect(RecoverBits([]int{60, 60, 60, 60, 60, 60, 60, 60}, cfg)))
}

func TestRecoverBitsStopEarly(t *testing.T) {
	var intervals = []int{60, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60}

	var n = 0
	for range RecoverBits(intervals, DefaultConfig().Clock) {
		n++
		if n == 3 {
			break
		}
	}

	assert.Equal(t, 3, n)
}

func TestRecoverBitsSpeedChange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var data = rapid.SliceOfN(rapid.SampledFrom([]rune("0123456789:<=>")), 0, 40).Draw(t, "data")
		var cell = rapid.Float64Range(40, 100).Draw(t, "cell")
		var drift = rapid.Float64Range(-0.3, 0.5).Draw(t, "drift")

		var symbols, err = EncodeTrack(string(data))
		assert.NoError(t, err)

		var bits = EncodeBits(symbols, 20, 20)
		var intervals = EncodeIntervals(bits, cell, drift)

		var recovered = slices.Collect(RecoverBits(intervals, DefaultConfig().Clock))

		// The first five are dropped and the last trailing zero has no pair.
		assert.Equal(t, bits[5:len(bits)-1], recovered)
	})
}
