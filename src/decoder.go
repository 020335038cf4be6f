package magstripe

import (
	"errors"
	"slices"

	"github.com/charmbracelet/log"
)

// Stats records how much each stage produced, for diagnosing bad swipes.
type Stats struct {
	Samples   int
	Intervals int
	Bits      int
	Symbols   int
}

// Decoder runs everything after the segmenter.  It holds no state between
// swipes, so one Decoder can be reused.
type Decoder struct {
	cfg    Config
	logger *log.Logger
}

func NewDecoder(cfg Config, logger *log.Logger) *Decoder {
	return &Decoder{cfg: cfg, logger: orDefault(logger)}
}

/*------------------------------------------------------------------
 *
 * Name:        Decode
 *
 * Purpose:     Demodulate one swipe.
 *
 * Description:	Symbols read backwards are handled by DecodeBCD, but
 *		only once they have been framed, and framing starts at
 *		the first 1 bit.  Backwards, the first symbol is the
 *		reversed LRC, which starts with a 0 whenever the LRC
 *		parity bit is 0.  Framing then starts late and nothing
 *		lines up.
 *
 *		So the bits are framed both as received and in the
 *		opposite order, and the framing that yields more
 *		symbols is believed.  Correctly aligned framing runs
 *		all the way to the trailing zeros, misaligned framing
 *		soon hits an even parity group, so a misaligned attempt
 *		that passes the LRC by chance never beats an aligned one
 *		that fails.
 *
 *		Both framings are aligned when the reversed LRC starts
 *		with a 1, and then they only differ in which way round
 *		DecodeBCD reads a track whose reversed LRC is a start
 *		sentinel.  A misaligned framing can also run the whole
 *		length when every group happens to have odd parity.  On
 *		a tie the read that got further through DecodeBCD wins,
 *		then the longer track, then the bits as received.
 *
 * Returns:	Failures are a *StageError wrapping one of the Err*
 *		values.  Stats.Symbols is from the framing believed.
 *
 *----------------------------------------------------------------*/

func (d *Decoder) Decode(w Waveform) (Track, Stats, error) {
	var stats = Stats{Samples: len(w)} //nolint:exhaustruct

	var intervals = slices.Collect(Transitions(w, d.cfg.Detector))
	stats.Intervals = len(intervals)

	var bits = slices.Collect(RecoverBits(intervals, d.cfg.Clock))
	stats.Bits = len(bits)

	var best = decodeBits(bits)

	if best.framed {
		var backward = slices.Clone(bits)
		slices.Reverse(backward)

		var other = decodeBits(backward)
		other.track.Reversed = !other.track.Reversed

		if other.beats(best) {
			d.logger.Debug("framed with bits reversed", "symbols", other.symbols, "as received", best.symbols)

			best = other
		}
	}

	stats.Symbols = best.symbols

	d.logger.Debug("demodulated", "samples", stats.Samples, "intervals", stats.Intervals, "bits", stats.Bits, "symbols", stats.Symbols)

	if best.err != nil {
		return Track{}, stats, &StageError{Stats: stats, Err: best.err}
	}

	if best.track.Reversed {
		d.logger.Debug("card was swiped backwards")
	}

	return best.track, stats, nil
}

// One way of reading the bits.
type bitsAttempt struct {
	track   Track
	err     error
	symbols int
	// There was a 1 bit to start framing at.
	framed bool
}

// How far DecodeBCD got.
func (a bitsAttempt) progress() int {
	switch {
	case a.err == nil:
		return 4
	case errors.Is(a.err, ErrBadLRC):
		return 3
	case errors.Is(a.err, ErrMissingEndSentinel):
		return 2
	case errors.Is(a.err, ErrMissingStartSentinel):
		return 1
	default:
		return 0
	}
}

func (a bitsAttempt) beats(b bitsAttempt) bool {
	if a.symbols != b.symbols {
		return a.symbols > b.symbols
	}

	if a.progress() != b.progress() {
		return a.progress() > b.progress()
	}

	return a.err == nil && len(a.track.Data) > len(b.track.Data)
}

func decodeBits(bits []Bit) bitsAttempt {
	var symbolSeq, err = FrameSymbols(bits)
	if err != nil {
		return bitsAttempt{err: err} //nolint:exhaustruct
	}

	var symbols = slices.Collect(symbolSeq)

	var track, decodeErr = DecodeBCD(symbols)

	return bitsAttempt{
		track:   track,
		err:     decodeErr,
		symbols: len(symbols),
		framed:  true,
	}
}
