package magstripe

/*-------------------------------------------------------------------
 *
 * Purpose:     Test fixture for the swipe decoder.
 *
 * Inputs:	Takes audio from .WAV files instead of the sound card.
 *
 * Description:	This can be used to test the decoder under controlled
 *		and reproducible conditions, for tuning the calibration
 *		against recordings from a particular reader.
 *
 *		For example
 *
 *		(1) Record some swipes with any audio program, mono,
 *			16 bit, 44100 samples per second.
 *
 *		(2) swipetest -d recording.wav
 *
 *		(3) Adjust the YAML configuration until everything
 *			decodes, then use it with magstripe.
 *
 *		Or, without a reader, use gen_swipe to make recordings.
 *
 *--------------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
)

type swipeTestResults struct {
	decoded int
	failed  int
}

func SwipeTestMain() {
	var configFile = pflag.StringP("config", "c", "", "YAML configuration file.  Defaults are used if not given.")
	var whole = pflag.BoolP("whole", "w", false, "Treat each file as a single swipe rather than searching it for swipes.")
	var errorIfLessThan = pflag.IntP("error-if-less-than", "L", -1, "Error if less than this number decoded.")
	var errorIfGreaterThan = pflag.IntP("error-if-greater-than", "G", -1, "Error if greater than this number decoded.")
	var plotDir = pflag.StringP("plot", "p", "", "Write a PNG of every swipe into this directory.")
	var debug = pflag.BoolP("debug", "d", false, "Log block powers and decoder stage counts.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s decodes magnetic stripe swipes from audio recordings.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]... <WAV FILE>...\n", os.Args[0])
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "$ gen_swipe -o test1.wav 1234567890\n")
		fmt.Fprintf(os.Stderr, "$ swipetest test1.wav\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "$ gen_swipe -R -n 500 -v 0.3 -o test2.wav 1234567890\n")
		fmt.Fprintf(os.Stderr, "$ swipetest -d test2.wav\n")
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	if pflag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Specify .WAV file name on command line.\n")
		pflag.Usage()
		os.Exit(1)
	}

	var cfg, cfgErr = LoadConfig(*configFile)
	if cfgErr != nil {
		fmt.Fprintf(os.Stderr, "%s\n", cfgErr)
		os.Exit(1)
	}

	if *debug {
		cfg.Log.Level = "debug"
	}

	var logger = NewLogger(os.Stderr, cfg.Log)

	if *plotDir != "" {
		if s, err := os.Stat(*plotDir); err != nil || !s.IsDir() {
			fmt.Fprintf(os.Stderr, "Plot location %s is not a directory.\n", *plotDir)
			os.Exit(1)
		}
	}

	var results swipeTestResults

	for _, file := range pflag.Args() {
		var err error
		if *whole {
			err = swipeTestWhole(file, cfg, logger, *plotDir, &results)
		} else {
			err = swipeTestFile(file, cfg, logger, *plotDir, &results)
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("\n%d decoded, %d failed\n", results.decoded, results.failed)

	if *errorIfLessThan != -1 && results.decoded < *errorIfLessThan {
		fmt.Printf("\n * * * TEST FAILED: number decoded is less than %d * * * \n", *errorIfLessThan)
		os.Exit(1)
	}

	if *errorIfGreaterThan != -1 && results.decoded > *errorIfGreaterThan {
		fmt.Printf("\n * * * TEST FAILED: number decoded is greater than %d * * * \n", *errorIfGreaterThan)
		os.Exit(1)
	}
}

// Search a recording for swipes, like the live reader would.
func swipeTestFile(file string, cfg Config, logger *log.Logger, plotDir string, results *swipeTestResults) (re error) {
	var f, err = os.Open(file) //nolint:gosec
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer func() {
		if err := f.Close(); err != nil {
			re = multierror.Append(re, err)
		}
	}()

	// One block of silence lets a swipe run right up to the end of the file.
	var src, srcErr = NewWAVSource(f, 1)
	if srcErr != nil {
		return fmt.Errorf("%s: %w", file, srcErr)
	}

	if src.SampleRate() != cfg.Audio.SampleRate {
		logger.Warn("sample rate differs from configuration, timing constants may not suit", "file", file, "rate", src.SampleRate(), "configured", cfg.Audio.SampleRate)
	}

	logger.Info("searching for swipes", "file", file)

	var segmenter = NewSegmenter(src, cfg, logger)
	var decoder = NewDecoder(cfg, logger)

	for {
		var w, err = segmenter.NextSwipe(context.Background())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		if err := swipeTestOne(file, w, decoder, cfg, plotDir, results); err != nil {
			return err
		}
	}
}

// Decode a recording as a single swipe, already cut to size.
func swipeTestWhole(file string, cfg Config, logger *log.Logger, plotDir string, results *swipeTestResults) error {
	var w, _, err = ReadWAVFile(file)
	if err != nil {
		return err
	}

	addBias(w, -average(w))

	return swipeTestOne(file, w, NewDecoder(cfg, logger), cfg, plotDir, results)
}

func swipeTestOne(file string, w Waveform, decoder *Decoder, cfg Config, plotDir string, results *swipeTestResults) error {
	var n = results.decoded + results.failed + 1
	var track, _, decodeErr = decoder.Decode(w)

	if decodeErr != nil {
		results.failed++
	} else {
		results.decoded++
	}

	if err := Report(os.Stdout, "", fmt.Sprintf("DECODED[%d]", n), track, decodeErr); err != nil {
		return err
	}

	if plotDir != "" {
		var base = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		var path = filepath.Join(plotDir, fmt.Sprintf("%s-%d.png", base, n))

		var title = track.Data
		if decodeErr != nil {
			title = decodeErr.Error()
		}

		if err := PlotSwipe(path, title, w, cfg.Detector); err != nil {
			return err
		}
	}

	return nil
}
