package magstripe

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNoise = 10

// Build a recording from pieces, padded out to whole blocks with quiet,
// and serve it as raw PCM.
type recording struct {
	w    Waveform
	seed uint64
}

func (r *recording) quiet(blocks int) {
	r.w = append(r.w, make(Waveform, blocks*DEFAULT_BLOCK_SIZE)...)
}

func (r *recording) add(w Waveform) {
	r.w = append(r.w, w...)
	if rem := len(r.w) % DEFAULT_BLOCK_SIZE; rem != 0 {
		r.w = append(r.w, make(Waveform, DEFAULT_BLOCK_SIZE-rem)...)
	}
}

func (r *recording) swipe(t *testing.T, data string) {
	t.Helper()

	var opts = DefaultSynthOptions()
	opts.LeadingZeros = 80
	opts.TrailingZeros = 80

	var w, err = SynthesizeTrack(data, opts)
	require.NoError(t, err)
	require.Greater(t, len(w), DEFAULT_BLOCK_SIZE)

	r.add(w)
}

func (r *recording) source(offset int) SampleSource {
	var w = make(Waveform, len(r.w))
	copy(w, r.w)

	AddNoise(w, testNoise, r.seed+1)
	addBias(w, offset)

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, w)

	return NewReaderSource(&buf)
}

func TestSegmenterSwipe(t *testing.T) {
	var r recording
	r.quiet(5)
	r.swipe(t, "1234=5678")
	r.quiet(2)

	var segmenter = NewSegmenter(r.source(0), DefaultConfig(), nil)

	var w, err = segmenter.NextSwipe(context.Background())
	require.NoError(t, err)

	// Trimmed down from the whole surrounding blocks.
	assert.Less(t, len(w), 4*DEFAULT_BLOCK_SIZE)

	// Quiet enough at the start for the first threshold.
	assert.Less(t, peakToPeak(w[:1000]), 3*testNoise)

	var track, _, decodeErr = NewDecoder(DefaultConfig(), nil).Decode(w)
	require.NoError(t, decodeErr)
	assert.Equal(t, "1234=5678", track.Data)

	_, err = segmenter.NextSwipe(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestSegmenterBias(t *testing.T) {
	var r recording
	r.quiet(5)
	r.swipe(t, "9876")
	r.quiet(2)

	var segmenter = NewSegmenter(r.source(-1200), DefaultConfig(), nil)

	var w, err = segmenter.NextSwipe(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 0, average(w), 2*testNoise)

	var track, _, decodeErr = NewDecoder(DefaultConfig(), nil).Decode(w)
	require.NoError(t, decodeErr)
	assert.Equal(t, "9876", track.Data)
}

func TestSegmenterSeveral(t *testing.T) {
	var r recording
	r.quiet(5)
	r.swipe(t, "111")
	r.quiet(3)
	r.swipe(t, "222")
	r.quiet(3)
	r.swipe(t, "333")
	r.quiet(1)

	var segmenter = NewSegmenter(r.source(0), DefaultConfig(), nil)
	var decoder = NewDecoder(DefaultConfig(), nil)

	for _, expected := range []string{"111", "222", "333"} {
		var w, err = segmenter.NextSwipe(context.Background())
		require.NoError(t, err)

		var track, _, decodeErr = decoder.Decode(w)
		require.NoError(t, decodeErr)
		assert.Equal(t, expected, track.Data)
	}

	var _, err = segmenter.NextSwipe(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestSegmenterIgnoresBump(t *testing.T) {
	var r recording
	r.quiet(5)

	// A click, all within one block.
	var click = make(Waveform, DEFAULT_BLOCK_SIZE)
	for k := range 50 {
		click[5000+k] = 9000
	}
	r.add(click)

	r.quiet(5)

	var _, err = NewSegmenter(r.source(0), DefaultConfig(), nil).NextSwipe(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestSegmenterWarmUp(t *testing.T) {
	// Nothing can trigger until the idle window is full of real readings.
	var r recording
	r.quiet(2)
	r.swipe(t, "5")
	r.quiet(1)

	var _, err = NewSegmenter(r.source(0), DefaultConfig(), nil).NextSwipe(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestSegmenterCancel(t *testing.T) {
	var r recording
	r.quiet(100)

	var ctx, cancel = context.WithCancel(context.Background())
	cancel()

	var _, err = NewSegmenter(r.source(0), DefaultConfig(), nil).NextSwipe(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
