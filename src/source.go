package magstripe

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SampleSource hands out mono signed 16-bit audio.  Read blocks until
// samples is completely filled or fails; a source that has run dry returns
// io.EOF.
type SampleSource interface {
	Read(samples []int16) error
}

// ReaderSource reads raw signed little-endian 16-bit PCM, e.g. from
// `arecord -f S16_LE -c 1 -r 44100 -t raw` or a named pipe.
type ReaderSource struct {
	r   io.Reader
	buf []byte
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, buf: nil}
}

func (s *ReaderSource) Read(samples []int16) error {
	var need = len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	var buf = s.buf[:need]

	var n, err = io.ReadFull(s.r, buf)
	switch {
	case err == io.ErrUnexpectedEOF:
		return fmt.Errorf("short read, %d of %d bytes: %w", n, need, io.EOF)
	case err != nil:
		return err //nolint:wrapcheck
	}

	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}

	return nil
}
