package magstripe

/*------------------------------------------------------------------
 *
 * Name:	gen_swipe
 *
 * Purpose:	Test program for generating card swipes.
 *
 * Description:	Given track data is encoded the way a card would hold
 *		it and written to a .WAV type audio file, surrounded by
 *		enough quiet for the swipe detector to settle.
 *
 * Examples:	Default track:
 *
 *			gen_swipe -o z1.wav
 *			swipetest z1.wav
 *
 *		User-defined content, several swipes:
 *
 *			gen_swipe -N 5 -o z2.wav "1234=5678"
 *			swipetest -L 5 z2.wav
 *
 *		Swiped backwards, getting slower, with noise:
 *
 *			gen_swipe -R -v 0.3 -n 300 -o z3.wav
 *			swipetest z3.wav
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultTrackData = "4111111111111111=2512101"

// Quiet blocks before the first swipe, so the noise floor is known, and
// after each one.
const (
	genSwipeLeadBlocks = 6
	genSwipeGapBlocks  = 3
)

func GenSwipeMain() {
	var defaults = DefaultSynthOptions()

	var outputFile = pflag.StringP("output-file", "o", "", "Send output to .wav file.")
	var cell = pflag.Float64P("cell", "C", defaults.Cell, "Samples per bit cell at the start of the swipe.")
	var amplitude = pflag.IntP("amplitude", "a", defaults.Amplitude, "Reversal pulse height, 1 - 32767.")
	var noise = pflag.IntP("noise", "n", 0, "Peak of uniform noise added to the whole recording.")
	var drift = pflag.Float64P("variable-speed", "v", 0, "Fraction by which the last bit cell is longer (positive) or shorter than the first.")
	var reverse = pflag.BoolP("reverse", "R", false, "Swipe the card the other way.")
	var zeros = pflag.IntP("zeros", "z", 80, "Clocking zeros before and after the data.")
	var count = pflag.IntP("swipe-count", "N", 1, "Number of swipes.")
	var seed = pflag.Uint64P("seed", "s", defaults.Seed, "Noise seed.")
	var audioSampleRate = pflag.IntP("audio-sample-rate", "r", DEFAULT_SAMPLE_RATE, "Audio sample rate.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Generate audio file of magnetic stripe swipes.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [track data]\n", os.Args[0])
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Track data may contain 0-9 : < = >.  Sentinels and LRC are added.\n")
		fmt.Fprintf(os.Stderr, "Default is %s\n", defaultTrackData)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Example:  gen_swipe -o x.wav -n 300 -v -0.2 \"1234=5678\"\n")
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	if *outputFile == "" {
		fmt.Fprintf(os.Stderr, "ERROR: The -o output file option must be specified.\n")
		pflag.Usage()
		os.Exit(1)
	}

	if *amplitude < 1 || *amplitude > 32767 {
		fmt.Fprintf(os.Stderr, "Amplitude must be in range of 1 to 32767.\n")
		os.Exit(1)
	}

	if *noise < 0 || *noise >= *amplitude {
		fmt.Fprintf(os.Stderr, "Noise must be in range of 0 to less than the amplitude.\n")
		os.Exit(1)
	}

	if *drift <= -0.5 || *drift >= 1 {
		fmt.Fprintf(os.Stderr, "Variable speed must be greater than -0.5 and less than 1.\n")
		os.Exit(1)
	}

	if *count < 1 {
		fmt.Fprintf(os.Stderr, "Swipe count must be at least 1.\n")
		os.Exit(1)
	}

	var data = defaultTrackData
	switch pflag.NArg() {
	case 0:
	case 1:
		data = pflag.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Specify at most one track data string.\n")
		pflag.Usage()
		os.Exit(1)
	}

	var opts = defaults
	opts.Cell = *cell
	opts.Drift = *drift
	opts.Amplitude = *amplitude
	opts.Reverse = *reverse
	opts.LeadingZeros = *zeros
	opts.TrailingZeros = *zeros
	opts.Noise = 0 // Added once over the whole recording below.

	// The shortest interval is half a cell, possibly shrunk by the drift.
	var shortest = int(opts.Cell*min(1, 1+opts.Drift)) / 2
	if opts.PulseWidth*2 >= shortest {
		fmt.Fprintf(os.Stderr, "Cell of %g samples is too short for %d sample pulses.\n", opts.Cell, opts.PulseWidth*2)
		os.Exit(1)
	}

	var swipe, err = SynthesizeTrack(data, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	if len(swipe) <= DEFAULT_BLOCK_SIZE {
		// Anything fitting in one block looks like a bump to the segmenter.
		fmt.Fprintf(os.Stderr, "Warning: swipe of %d samples is no longer than a block (%d), increase -z or -C.\n", len(swipe), DEFAULT_BLOCK_SIZE)
	}

	var w = make(Waveform, genSwipeLeadBlocks*DEFAULT_BLOCK_SIZE, genSwipeLeadBlocks*DEFAULT_BLOCK_SIZE+*count*(len(swipe)+genSwipeGapBlocks*DEFAULT_BLOCK_SIZE))
	for range *count {
		w = append(w, swipe...)
		w = append(w, make(Waveform, genSwipeGapBlocks*DEFAULT_BLOCK_SIZE)...)
	}

	AddNoise(w, *noise, *seed)

	if err := WriteWAVFile(*outputFile, w, *audioSampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d swipe(s) of \"%s\", %d samples, to %s\n", *count, data, len(w), *outputFile)
}
