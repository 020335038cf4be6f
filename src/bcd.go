package magstripe

/*------------------------------------------------------------------
 *
 * Purpose:   	Turn framed symbols into track data.
 *
 * Description:	A track reads
 *
 *			; data... ? LRC
 *
 *		and can be swiped in either direction.  Backwards, the
 *		symbols arrive in reverse order and each one has its bits
 *		reversed, so the first symbol is the reversed LRC.
 *
 *		The LRC is a column by column parity over the data bits
 *		of every symbol from the start sentinel to the end
 *		sentinel inclusive.  Its own parity bit is odd parity
 *		over its data bits, like any other symbol.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"strings"
)

// Track is a successfully decoded swipe.
type Track struct {
	// Between the sentinels.
	Data string
	// The card went through the reader end sentinel first.
	Reversed bool
	// As transmitted, and as verified.
	LRC Symbol
}

func reverseSymbols(symbols []Symbol) []Symbol {
	var r = make([]Symbol, len(symbols))
	for i, s := range symbols {
		r[len(symbols)-1-i] = s.Reversed()
	}

	return r
}

// DecodeBCD checks the sentinels and LRC and returns the data between them.
// symbols is not modified.
func DecodeBCD(symbols []Symbol) (Track, error) {
	if len(symbols) == 0 {
		return Track{}, ErrEmptyCapture
	}

	var reversed = false
	if symbols[0].Char() != StartSentinel {
		symbols = reverseSymbols(symbols)
		reversed = true

		if symbols[0].Char() != StartSentinel {
			return Track{}, ErrMissingStartSentinel
		}
	}

	// A copy.  symbols[0] stays the start sentinel.
	var lrc = symbols[0]

	var data strings.Builder

	for i, s := range symbols[1:] {
		for k := range SymbolDataBits {
			lrc[k] = (lrc[k] + s[k]) % 2
		}

		if s.Char() != EndSentinel {
			data.WriteRune(s.Char())

			continue
		}

		var ones = 1
		for k := range SymbolDataBits {
			ones += int(lrc[k])
		}
		lrc[SymbolDataBits] = Bit(ones % 2)

		// symbols[1:][i] is the end sentinel, so the LRC is two further on.
		if i+2 >= len(symbols) {
			return Track{}, fmt.Errorf("%w: nothing after it for the LRC", ErrMissingEndSentinel)
		}

		if symbols[i+2] != lrc {
			return Track{}, fmt.Errorf("%w: computed %s, read %s", ErrBadLRC, lrc, symbols[i+2])
		}

		return Track{
			Data:     data.String(),
			Reversed: reversed,
			LRC:      lrc,
		}, nil
	}

	return Track{}, ErrMissingEndSentinel
}

// LRC computes the check symbol for a track that starts with the start
// sentinel and ends with the end sentinel.
func LRC(symbols []Symbol) Symbol {
	var lrc Symbol
	for _, s := range symbols {
		for k := range SymbolDataBits {
			lrc[k] ^= s[k] & 1
		}
	}

	if !lrc.OddParity() {
		lrc[SymbolDataBits] = 1
	}

	return lrc
}
