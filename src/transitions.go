package magstripe

/*------------------------------------------------------------------
 *
 * Purpose:   	Find flux reversals in a swipe.
 *
 * Description:	Each reversal shows up at the read head as a pulse,
 *		alternately positive and negative.  We look for a run of
 *		samples beyond the threshold with the expected sign,
 *		then expect the opposite sign next.
 *
 *		The first threshold comes from the quiet lead-in.  After
 *		that it follows half of the previous peak, which copes
 *		with the signal getting louder and softer as the swipe
 *		speeds up and slows down.
 *
 *		Only the spacing between reversals matters downstream.
 *
 *---------------------------------------------------------------*/

import (
	"iter"
)

// Reversals yields the sample index at which each reversal pulse ends.
func Reversals(w Waveform, cfg DetectorConfig) iter.Seq[int] {
	return func(yield func(int) bool) {
		var threshold = float64(peakToPeak(w[:min(cfg.LeadIn, len(w))])) * cfg.FirstPeakFactor
		var sign = 1

		for i := 0; i < len(w); i++ {
			var peak = 0
			for i < len(w) && float64(int(w[i])*sign) > threshold {
				peak = max(peak, int(w[i])*sign)
				i++
			}

			if peak == 0 {
				continue
			}

			if !yield(i) {
				return
			}

			sign = -sign
			threshold = float64(peak) * cfg.PeakFactor
		}
	}
}

// Transitions yields the number of samples between successive reversals.
func Transitions(w Waveform, cfg DetectorConfig) iter.Seq[int] {
	return func(yield func(int) bool) {
		var previous = 0
		var havePrevious = false

		for at := range Reversals(w, cfg) {
			if havePrevious && !yield(at-previous) {
				return
			}

			previous = at
			havePrevious = true
		}
	}
}
