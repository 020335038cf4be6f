package magstripe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeEmpty(t *testing.T) {
	var decoder = NewDecoder(DefaultConfig(), nil)

	for _, w := range []Waveform{nil, make(Waveform, 20000)} {
		var _, stats, err = decoder.Decode(w)
		require.ErrorIs(t, err, ErrEmptyCapture)

		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, len(w), stageErr.Stats.Samples)
		assert.Equal(t, stats, stageErr.Stats)
		assert.Zero(t, stats.Symbols)
	}
}

func TestDecodeSynthetic(t *testing.T) {
	var w, err = SynthesizeTrack("1=2", DefaultSynthOptions())
	require.NoError(t, err)

	var track, stats, decodeErr = NewDecoder(DefaultConfig(), nil).Decode(w)
	require.NoError(t, decodeErr)

	assert.Equal(t, "1=2", track.Data)
	assert.False(t, track.Reversed)
	assert.Equal(t, len(w), stats.Samples)
	assert.Equal(t, 6, stats.Symbols)
}

func TestDecodeBackwards(t *testing.T) {
	// Each of these has an LRC that gets in the way of decoding the symbols
	// backwards.  "1=2" because its LRC reversed is a start sentinel, the
	// others because their LRC starts with a 0 when reversed.
	for _, data := range []string{"1=2", "123", "1234=5678", "4111111111111111=2512101"} {
		var opts = DefaultSynthOptions()
		opts.Reverse = true

		var w, err = SynthesizeTrack(data, opts)
		require.NoError(t, err)

		var track, stats, decodeErr = NewDecoder(DefaultConfig(), nil).Decode(w)
		require.NoError(t, decodeErr, data)

		assert.Equal(t, data, track.Data)
		assert.True(t, track.Reversed, data)
		// Sentinels and LRC, from the framing that was used.
		assert.Equal(t, len(data)+3, stats.Symbols, data)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	var symbols = mustEncode(t, "1234")
	symbols[2][1] ^= 1
	symbols[2][SymbolDataBits] ^= 1 // Keep the parity right so it still frames.

	var opts = DefaultSynthOptions()
	var w = Synthesize(EncodeIntervals(EncodeBits(symbols, 20, 20), opts.Cell, 0), opts)

	var _, _, err = NewDecoder(DefaultConfig(), nil).Decode(w)
	require.ErrorIs(t, err, ErrBadLRC)
	assert.Contains(t, err.Error(), "symbols")
}

func TestDecodeCorruptEitherWay(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var data = string(rapid.SliceOfN(rapid.SampledFrom(trackAlphabet), 1, 30).Draw(t, "data"))
		var symbols = mustEncode(t, data)

		var start, _ = SymbolFor(StartSentinel)
		if symbols[len(symbols)-1].Reversed() == start {
			// Reads as a valid track either way round, see TestDecodeBackwards.
			t.Skip("reversed LRC is a start sentinel")
		}

		// A data symbol, not a sentinel or the LRC.
		var i = rapid.IntRange(1, len(symbols)-3).Draw(t, "symbol")
		var k = rapid.IntRange(0, SymbolDataBits-1).Draw(t, "bit")

		symbols[i][k] ^= 1
		symbols[i][SymbolDataBits] ^= 1

		var end, _ = SymbolFor(EndSentinel)
		if symbols[i] == end {
			t.Skip("flip made an end sentinel")
		}

		var opts = DefaultSynthOptions()
		opts.Reverse = rapid.Bool().Draw(t, "reverse")

		var bits = EncodeBits(symbols, opts.LeadingZeros, opts.TrailingZeros)
		var w = Synthesize(EncodeIntervals(bits, opts.Cell, 0), opts)

		var track, stats, err = NewDecoder(DefaultConfig(), nil).Decode(w)
		require.ErrorIs(t, err, ErrBadLRC, "decoded %q", track.Data)
		assert.Equal(t, len(symbols), stats.Symbols)
	})
}

func TestDecodeLogsStages(t *testing.T) {
	var cfg = DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "logfmt"

	var buf bytes.Buffer

	var w, _ = SynthesizeTrack("42", DefaultSynthOptions())
	var _, _, err = NewDecoder(cfg, NewLogger(&buf, cfg.Log)).Decode(w)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "demodulated")
	assert.Contains(t, buf.String(), "symbols=5")
}

func TestDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var data = string(rapid.SliceOfN(rapid.SampledFrom(trackAlphabet), 0, 40).Draw(t, "data"))

		var opts = DefaultSynthOptions()
		// Short enough cells and the pulses run into each other.
		opts.Cell = rapid.Float64Range(50, 100).Draw(t, "cell")
		opts.Drift = rapid.Float64Range(-0.2, 0.5).Draw(t, "drift")
		opts.Noise = rapid.IntRange(0, 500).Draw(t, "noise")
		opts.Seed = rapid.Uint64().Draw(t, "seed")
		opts.Reverse = rapid.Bool().Draw(t, "reverse")

		var w, err = SynthesizeTrack(data, opts)
		require.NoError(t, err)

		var track, _, decodeErr = NewDecoder(DefaultConfig(), nil).Decode(w)
		if decodeErr != nil {
			var stageErr *StageError
			if errors.As(decodeErr, &stageErr) {
				t.Logf("stats %+v", stageErr.Stats)
			}
		}
		require.NoError(t, decodeErr)

		assert.Equal(t, data, track.Data)
		assert.Equal(t, opts.Reverse, track.Reversed)
	})
}
