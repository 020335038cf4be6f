package magstripe

/*------------------------------------------------------------------
 *
 * Purpose:   	Pick one card swipe out of a continuous audio stream.
 *
 * Description:	The "power" of a block is its peak to peak swing.
 *		A running average of the power of recent idle blocks
 *		gives the noise floor.  Blocks well above that are
 *		"active".  Two or more active blocks in a row make a
 *		swipe; a single one is taken to be a click or bump.
 *
 *		The swipe is handed on with one idle block of context
 *		either side, trimmed back to where the signal starts,
 *		and with any DC offset removed.
 *
 *---------------------------------------------------------------*/

import (
	"context"

	"github.com/charmbracelet/log"
)

// Waveform is one bias corrected swipe.
type Waveform []int16

// Power of the idle window before anything has been heard.  Larger than any
// real block can be, so nothing triggers until the window has filled.
const initialPower = 1 << 15

type Segmenter struct {
	src       SampleSource
	cfg       SegmenterConfig
	blockSize int
	logger    *log.Logger

	powers   []int   // Recent idle block powers, oldest first.
	bias     int     // Added to every incoming sample.
	previous []int16 // Most recent idle block.
}

func NewSegmenter(src SampleSource, cfg Config, logger *log.Logger) *Segmenter {
	var powers = make([]int, cfg.Segmenter.Window)
	for i := range powers {
		powers[i] = initialPower
	}

	return &Segmenter{
		src:       src,
		cfg:       cfg.Segmenter,
		blockSize: cfg.Audio.BlockSize,
		logger:    orDefault(logger),
		powers:    powers,
		bias:      0,
		previous:  nil,
	}
}

func (s *Segmenter) baseline() float64 {
	var sum = 0
	for _, p := range s.powers {
		sum += p
	}

	return float64(sum) / float64(len(s.powers)) * s.cfg.ThresholdFactor
}

func (s *Segmenter) pushPower(power int) {
	copy(s.powers, s.powers[1:])
	s.powers[len(s.powers)-1] = power
}

func (s *Segmenter) readBlock(ctx context.Context) ([]int16, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err //nolint:wrapcheck
	}

	var block = make([]int16, s.blockSize)
	if err := s.src.Read(block); err != nil {
		return nil, 0, err //nolint:wrapcheck
	}

	addBias(block, s.bias)

	return block, peakToPeak(block), nil
}

/*------------------------------------------------------------------
 *
 * Name:        NextSwipe
 *
 * Purpose:     Wait for the next swipe.
 *
 * Inputs:	ctx	- Checked before every block read.  There is no
 *			  other way out if nobody swipes a card.
 *
 * Returns:	The swipe, or ctx.Err(), or whatever error the
 *		source returned (io.EOF at the end of a recording).
 *
 *----------------------------------------------------------------*/

func (s *Segmenter) NextSwipe(ctx context.Context) (Waveform, error) {
	for {
		var block, power, err = s.readBlock(ctx)
		if err != nil {
			return nil, err
		}

		var baseline = s.baseline()
		s.logger.Debug("block", "power", power, "baseline", baseline, "ratio", float64(power)/nonZero(baseline))

		var active [][]int16
		for float64(power) > baseline {
			s.logger.Debug("active block", "power", power, "baseline", baseline, "ratio", float64(power)/nonZero(baseline))
			active = append(active, block)

			block, power, err = s.readBlock(ctx)
			if err != nil {
				return nil, err
			}
		}

		if len(active) > 1 {
			var w = s.assemble(active, block, baseline)
			s.logger.Debug("swipe captured", "blocks", len(active), "samples", len(w))

			s.idle(block)

			return w, nil
		}

		if len(active) == 1 {
			s.logger.Debug("ignoring single active block")
		}

		s.idle(block)
		s.pushPower(power)
	}
}

// Remember an idle block as context for the next swipe, and as the
// estimate of the DC offset.
func (s *Segmenter) idle(block []int16) {
	s.previous = block
	s.bias -= average(block)
}

func (s *Segmenter) assemble(active [][]int16, tail []int16, baseline float64) Waveform {
	var n = len(s.previous) + len(tail)
	for _, a := range active {
		n += len(a)
	}

	var buf = make(Waveform, 0, n)
	buf = append(buf, s.previous...)
	for _, a := range active {
		buf = append(buf, a...)
	}
	buf = append(buf, tail...)

	var quiet = baseline / 2
	var window, step = s.cfg.TrimWindow, s.cfg.TrimStep

	for len(buf) > window && float64(peakToPeak(buf[:window])) < quiet {
		buf = buf[step:]
	}

	for len(buf) > window && float64(peakToPeak(buf[len(buf)-window:])) < quiet {
		buf = buf[:len(buf)-step]
	}

	addBias(buf, -average(buf))

	return buf
}

func nonZero(x float64) float64 {
	if x == 0 {
		return 1
	}

	return x
}
