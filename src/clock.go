package magstripe

/*------------------------------------------------------------------
 *
 * Purpose:   	Recover bits from the reversal spacing (F2F / biphase).
 *
 * Description:	Every bit cell starts with a reversal.  A 1 has an
 *		extra reversal half way through the cell, a 0 does not.
 *		So one long interval is a 0 and two short ones are a 1.
 *
 *		There is no fixed timebase: a hand swipe speeds up and
 *		slows down over its length.  The clock is the average of
 *		the last few half-cell lengths and anything clearly
 *		longer than a half-cell is taken as a whole one.
 *
 *		The card starts with a run of 0s for exactly this
 *		purpose.  The first few reversals are while the card is
 *		still settling against the head, and are dropped.
 *
 *---------------------------------------------------------------*/

import (
	"iter"
)

// RecoverBits turns reversal intervals into bits.  Needs look-ahead so it
// takes the whole interval slice.
func RecoverBits(intervals []int, cfg ClockConfig) iter.Seq[Bit] {
	return func(yield func(Bit) bool) {
		if len(intervals) < cfg.Discard+cfg.Seed {
			return
		}

		var cells = intervals[cfg.Discard:]

		// Half-cell lengths, oldest first.
		var clock = make([]float64, cfg.Seed)
		for k := range clock {
			clock[k] = float64(cells[k]) / 2
		}

		var push = func(v float64) {
			copy(clock, clock[1:])
			clock[len(clock)-1] = v
		}

		var i = 0
		for len(cells)-i >= 2 {
			var interval = float64(cells[i])

			if interval > cfg.Deviation*mean(clock) {
				if !yield(0) {
					return
				}
				i++
				push(interval / 2)
			} else {
				if !yield(1) {
					return
				}
				i += 2
				push(interval)
			}
		}
	}
}

func mean(v []float64) float64 {
	var sum = 0.0
	for _, x := range v {
		sum += x
	}

	return sum / float64(len(v))
}
