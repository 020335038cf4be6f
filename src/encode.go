package magstripe

/*------------------------------------------------------------------
 *
 * Purpose:   	Make the signal a card would make.
 *
 * Description:	The reverse of the decode chain: track data to
 *		symbols with sentinels and LRC, to bits with clocking
 *		zeros either end, to F2F reversal intervals, to a pulse
 *		per reversal.
 *
 *		Used by gen_swipe to produce test recordings and by the
 *		tests.  Nothing about it is needed to read a real card.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// EncodeTrack wraps data in sentinels and appends the LRC.
func EncodeTrack(data string) ([]Symbol, error) {
	var start, _ = SymbolFor(StartSentinel)
	var end, _ = SymbolFor(EndSentinel)

	var symbols = make([]Symbol, 0, len(data)+3)
	symbols = append(symbols, start)

	for i, c := range data {
		if c == StartSentinel || c == EndSentinel {
			return nil, fmt.Errorf("sentinel %q at position %d of track data", c, i)
		}

		var s, ok = SymbolFor(c)
		if !ok {
			return nil, fmt.Errorf("%q at position %d is not a BCD track character (0-9 : < = >)", c, i)
		}

		symbols = append(symbols, s)
	}

	symbols = append(symbols, end)
	symbols = append(symbols, LRC(symbols))

	return symbols, nil
}

// EncodeBits lays symbols out bit by bit between runs of clocking zeros.
func EncodeBits(symbols []Symbol, leadingZeros, trailingZeros int) []Bit {
	var bits = make([]Bit, 0, leadingZeros+len(symbols)*SymbolWidth+trailingZeros)

	bits = append(bits, make([]Bit, leadingZeros)...)
	for _, s := range symbols {
		bits = append(bits, s[:]...)
	}
	bits = append(bits, make([]Bit, trailingZeros)...)

	return bits
}

/*------------------------------------------------------------------
 *
 * Name:        EncodeIntervals
 *
 * Purpose:     F2F encode bits as the spacing between reversals.
 *
 * Inputs:	bits	- From EncodeBits.
 *
 *		cell	- Samples per bit cell at the start.
 *
 *		drift	- How much longer (positive) or shorter the last
 *			  cell is than the first, as a fraction.  Cell
 *			  length changes linearly in between, like a
 *			  swipe slowing down or speeding up.
 *
 * Returns:	One interval per 0, two per 1.
 *
 *----------------------------------------------------------------*/

func EncodeIntervals(bits []Bit, cell float64, drift float64) []int {
	var intervals = make([]int, 0, len(bits)*2)

	for j, b := range bits {
		var scale = 1.0
		if len(bits) > 1 {
			scale += drift * float64(j) / float64(len(bits)-1)
		}

		var length = int(math.Round(cell * scale))

		if b == 0 {
			intervals = append(intervals, length)
		} else {
			intervals = append(intervals, length/2, length-length/2)
		}
	}

	return intervals
}

type SynthOptions struct {
	Cell      float64 // Samples per bit cell.
	Drift     float64 // See EncodeIntervals.
	Amplitude int     // Pulse height.
	// Half width of each reversal pulse.  Must be under half the shortest
	// interval or neighbouring pulses run into each other.
	PulseWidth    int
	Lead          int // Quiet samples before the first reversal.
	Tail          int // And after the last.
	Noise         int // Peak of uniform noise added everywhere.
	Seed          uint64
	LeadingZeros  int
	TrailingZeros int
	// Time reverse the whole thing, as if swiped the other way.
	Reverse bool
}

func DefaultSynthOptions() SynthOptions {
	return SynthOptions{
		Cell:          60,
		Drift:         0,
		Amplitude:     8000,
		PulseWidth:    10,
		Lead:          2000,
		Tail:          2000,
		Noise:         0,
		Seed:          1,
		LeadingZeros:  20,
		TrailingZeros: 20,
		Reverse:       false,
	}
}

// Synthesize places an alternating triangular pulse at every reversal.
func Synthesize(intervals []int, opts SynthOptions) Waveform {
	var positions = make([]int, 0, len(intervals)+1)

	var p = opts.Lead
	positions = append(positions, p)
	for _, interval := range intervals {
		p += interval
		positions = append(positions, p)
	}

	var w = make(Waveform, p+opts.Tail+1)

	AddNoise(w, opts.Noise, opts.Seed)

	var h = max(opts.PulseWidth, 1)
	var sign = 1
	for _, at := range positions {
		for k := -h + 1; k < h; k++ {
			var i = at + k
			if i < 0 || i >= len(w) {
				continue
			}

			var v = int(w[i]) + sign*opts.Amplitude*(h-abs(k))/h
			w[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
		}

		sign = -sign
	}

	if opts.Reverse {
		for i, j := 0, len(w)-1; i < j; i, j = i+1, j-1 {
			w[i], w[j] = w[j], w[i]
		}
	}

	return w
}

// AddNoise adds uniform noise of up to +/- peak to every sample.  The same
// seed always gives the same noise.
func AddNoise(w Waveform, peak int, seed uint64) {
	if peak <= 0 {
		return
	}

	var rng = rand.New(rand.NewPCG(seed, seed)) //nolint:gosec
	for i := range w {
		var v = int(w[i]) + rng.IntN(2*peak+1) - peak
		w[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}
}

// SynthesizeTrack is the whole encode chain.
func SynthesizeTrack(data string, opts SynthOptions) (Waveform, error) {
	var symbols, err = EncodeTrack(data)
	if err != nil {
		return nil, err
	}

	var bits = EncodeBits(symbols, opts.LeadingZeros, opts.TrailingZeros)

	return Synthesize(EncodeIntervals(bits, opts.Cell, opts.Drift), opts), nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
