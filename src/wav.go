package magstripe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/youpy/go-wav"
)

type riffReader interface {
	io.Reader
	io.ReaderAt
}

/*------------------------------------------------------------------
 *
 * Purpose:   	Replay a .WAV recording as if it were the sound card.
 *
 * Description:	Only the first channel is used.  8 and 16 bit PCM are
 *		accepted; 8 bit is scaled up.
 *
 *		The final partial block is padded with silence.  After
 *		that, 'padding' more blocks of silence are handed out
 *		before io.EOF, so that a swipe right at the end of a
 *		recording still has a quiet block to end it.
 *
 *---------------------------------------------------------------*/

type WAVSource struct {
	reader  *wav.Reader
	format  *wav.WavFormat
	pending []int16
	eof     bool
	padding int
}

func NewWAVSource(r riffReader, padding int) (*WAVSource, error) {
	var reader = wav.NewReader(r)

	var format, err = reader.Format()
	if err != nil {
		return nil, fmt.Errorf("reading WAV header: %w", err)
	}

	if format.AudioFormat != wav.AudioFormatPCM {
		return nil, fmt.Errorf("WAV audio format %d is not PCM", format.AudioFormat)
	}

	if format.BitsPerSample != 8 && format.BitsPerSample != 16 {
		return nil, fmt.Errorf("WAV has %d bits per sample, need 8 or 16", format.BitsPerSample)
	}

	return &WAVSource{
		reader:  reader,
		format:  format,
		pending: nil,
		eof:     false,
		padding: padding,
	}, nil
}

func (s *WAVSource) SampleRate() int {
	return int(s.format.SampleRate)
}

func (s *WAVSource) convert(raw []wav.Sample) {
	for _, r := range raw {
		var v = s.reader.IntValue(r, 0)
		if s.format.BitsPerSample == 8 {
			v = (v - 128) << 8
		}
		s.pending = append(s.pending, int16(v))
	}
}

// Pull up to n more samples into pending.
func (s *WAVSource) fill(n int) error {
	var raw, err = s.reader.ReadSamples(uint32(n)) //nolint:gosec
	s.convert(raw)

	if errors.Is(err, io.EOF) {
		s.eof = true
	} else if err != nil {
		return fmt.Errorf("reading WAV samples: %w", err)
	}

	return nil
}

func (s *WAVSource) Read(samples []int16) error {
	var filled = 0

	for filled < len(samples) {
		if len(s.pending) == 0 {
			if s.eof {
				break
			}

			if err := s.fill(len(samples) - filled); err != nil {
				return err
			}
		}

		var n = copy(samples[filled:], s.pending)
		s.pending = s.pending[n:]
		filled += n
	}

	if filled == 0 {
		if s.padding == 0 {
			return io.EOF
		}
		s.padding--
	}

	clear(samples[filled:])

	return nil
}

/*------------------------------------------------------------------
 *
 * Name:        ReadWAVFile
 *
 * Purpose:     Load a whole recording, for treating it as one swipe.
 *
 *----------------------------------------------------------------*/

func ReadWAVFile(path string) (w Waveform, sampleRate int, re error) {
	var f, err = os.Open(path) //nolint:gosec
	if err != nil {
		return nil, 0, err //nolint:wrapcheck
	}
	defer func() {
		if err := f.Close(); err != nil {
			re = multierror.Append(re, err)
		}
	}()

	var src, srcErr = NewWAVSource(f, 0)
	if srcErr != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, srcErr)
	}

	for !src.eof {
		if err := src.fill(DEFAULT_BLOCK_SIZE); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
	}

	w = Waveform(src.pending)

	return w, src.SampleRate(), nil
}

/*------------------------------------------------------------------
 *
 * Name:        WriteWAVFile
 *
 * Purpose:     Save a waveform as 16 bit mono PCM.
 *
 *----------------------------------------------------------------*/

func WriteWAVFile(path string, w Waveform, sampleRate int) (re error) {
	var f, err = os.Create(path) //nolint:gosec
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer func() {
		if err := f.Close(); err != nil {
			re = multierror.Append(re, err)
		}
	}()

	var writer = wav.NewWriter(f, uint32(len(w)), 1, uint32(sampleRate), 16) //nolint:gosec

	var samples = make([]wav.Sample, len(w))
	for i, s := range w {
		samples[i].Values[0] = int(s)
	}

	if err := writer.WriteSamples(samples); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
