package magstripe

import (
	"iter"
)

/*------------------------------------------------------------------
 *
 * Name:        FrameSymbols
 *
 * Purpose:     Group bits into 5 bit symbols.
 *
 * Inputs:	bits	- Everything the clock recovery produced.
 *
 * Returns:	Symbols, in order.  The first 1 bit starts the first
 *		symbol; the zeros before it are clocking.
 *
 *		The sequence ends quietly at the first short or even
 *		parity group.  That is normally the trailing clocking
 *		zeros.  Garbage in the middle of the track is caught
 *		later by the sentinel and LRC checks.
 *
 *		ErrEmptyCapture if there are no bits, or no 1 bits.
 *
 *----------------------------------------------------------------*/

func FrameSymbols(bits []Bit) (iter.Seq[Symbol], error) {
	var start = 0
	for start < len(bits) && bits[start] == 0 {
		start++
	}

	if start == len(bits) {
		return nil, ErrEmptyCapture
	}

	return func(yield func(Symbol) bool) {
		var rest = bits[start:]
		for len(rest) >= SymbolWidth {
			var s Symbol
			copy(s[:], rest[:SymbolWidth])

			if !s.OddParity() {
				return
			}

			if !yield(s) {
				return
			}

			rest = rest[SymbolWidth:]
		}
	}, nil
}
