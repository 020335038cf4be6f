// Package soundcard reads mono 16 bit audio from the default input device.
package soundcard

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/hashicorp/go-multierror"
)

// Capture is a running input stream.  Read blocks until the device has
// delivered enough samples.
type Capture struct {
	stream  *portaudio.Stream
	buffer  []int16
	pending []int16 // Unread tail of buffer.

	// Number of times the device overran before we read from it.  Samples
	// were lost each time, which can spoil a swipe in progress.
	Overflows int
}

/*------------------------------------------------------------------
 *
 * Name:        Open
 *
 * Purpose:     Start capturing from the default input device.
 *
 * Inputs:	sampleRate	- e.g. 44100.
 *
 *		framesPerBuffer	- Samples per device read.  Matching the
 *				  block size the caller reads keeps it to
 *				  one device read per block.
 *
 *----------------------------------------------------------------*/

func Open(sampleRate int, framesPerBuffer int) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialising audio: %w", err)
	}

	var c = &Capture{
		stream:    nil,
		buffer:    make([]int16, framesPerBuffer),
		pending:   nil,
		Overflows: 0,
	}

	var stream, err = portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, c.buffer)
	if err != nil {
		return nil, multierror.Append(fmt.Errorf("opening audio input: %w", err), portaudio.Terminate())
	}

	c.stream = stream

	if err := stream.Start(); err != nil {
		return nil, multierror.Append(fmt.Errorf("starting audio input: %w", err), stream.Close(), portaudio.Terminate())
	}

	return c, nil
}

// Read fills samples, which may be any length.
func (c *Capture) Read(samples []int16) error {
	for filled := 0; filled < len(samples); {
		if len(c.pending) == 0 {
			var err = c.stream.Read()
			if errors.Is(err, portaudio.InputOverflowed) {
				c.Overflows++
			} else if err != nil {
				return fmt.Errorf("reading audio input: %w", err)
			}

			c.pending = c.buffer
		}

		var n = copy(samples[filled:], c.pending)
		c.pending = c.pending[n:]
		filled += n
	}

	return nil
}

// Close stops the stream and releases the audio system.
func (c *Capture) Close() error {
	var result *multierror.Error

	if err := c.stream.Stop(); err != nil {
		result = multierror.Append(result, fmt.Errorf("stopping audio input: %w", err))
	}

	if err := c.stream.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing audio input: %w", err))
	}

	if err := portaudio.Terminate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("terminating audio: %w", err))
	}

	return result.ErrorOrNil()
}
