package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Read a magnetic stripe card through the sound card.
 *
 * Description:	Prints READY, waits for a swipe, and prints the track
 *		data.  Exit status is 0 for a good read and 1 otherwise,
 *		so a script can run it again until it succeeds, or use
 *		--retry to have it keep asking.
 *
 *		The reader is the usual kind with a headphone plug,
 *		which just connects the read head to the microphone
 *		input.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	magstripe "github.com/doismellburning/magstripe/src"
	"github.com/doismellburning/magstripe/src/soundcard"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configFile = pflag.StringP("config", "c", "", "YAML configuration file.  Otherwise the first of ./magstripe.yaml, /usr/local/etc/magstripe.yaml, /etc/magstripe.yaml, or built-in defaults.")
	var retry = pflag.BoolP("retry", "r", false, "Keep reading swipes until one decodes.")
	var timestampFormat = pflag.StringP("timestamp-format", "T", "", "Precede output with 'strftime' format time stamp.")
	var plotFile = pflag.StringP("plot", "p", "", "Save a plot of each swipe to this file, e.g. swipe.png.")
	var debug = pflag.BoolP("debug", "d", false, "Log block powers and decoder stage counts.  With -v, print full build information.")
	var writeConfig = pflag.String("write-config", "", "Write the configuration in use to this file and exit.")
	var version = pflag.BoolP("version", "v", false, "Print version and exit.  With -d, also print the Go build information.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Read magnetic stripe cards through the sound card.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]...\n", os.Args[0])
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Swipe when READY appears.  Exit status is 0 after a good read.\n")
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		return 0
	}

	if *version {
		magstripe.PrintVersion(*debug)
		return 0
	}

	var cfg, cfgErr = magstripe.LoadConfig(*configFile)
	if cfgErr != nil {
		fmt.Fprintf(os.Stderr, "%s\n", cfgErr)
		return 1
	}

	if *debug {
		cfg.Log.Level = "debug"
	}

	if *writeConfig != "" {
		if err := magstripe.WriteConfig(*writeConfig, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		return 0
	}

	if err := magstripe.CheckTimestampFormat(*timestampFormat); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}

	var logger = magstripe.NewLogger(os.Stderr, cfg.Log)

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	var capture, openErr = soundcard.Open(cfg.Audio.SampleRate, cfg.Audio.BlockSize)
	if openErr != nil {
		logger.Error("could not open sound card", "err", openErr)
		return 1
	}
	defer func() {
		if err := capture.Close(); err != nil {
			logger.Error("closing sound card", "err", err)
		}
	}()

	var segmenter = magstripe.NewSegmenter(capture, cfg, logger)
	var decoder = magstripe.NewDecoder(cfg, logger)

	for {
		var ok, err = readOne(ctx, segmenter, decoder, capture, cfg, logger, *timestampFormat, *plotFile)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("interrupted")
			} else {
				logger.Error("capture failed", "err", err)
			}
			return 1
		}

		if ok {
			return 0
		}

		if !*retry {
			return 1
		}
	}
}

// One READY, one swipe.  The error is only for things that stop us trying again.
func readOne(ctx context.Context, segmenter *magstripe.Segmenter, decoder *magstripe.Decoder, capture *soundcard.Capture, cfg magstripe.Config, logger *log.Logger, timestampFormat string, plotFile string) (bool, error) {
	fmt.Println("READY")

	var overflows = capture.Overflows

	var w, err = segmenter.NextSwipe(ctx)
	if err != nil {
		return false, err //nolint:wrapcheck
	}

	if capture.Overflows != overflows {
		logger.Warn("audio input overflowed during swipe, samples were lost", "times", capture.Overflows-overflows)
	}

	var track, _, decodeErr = decoder.Decode(w)

	if plotFile != "" {
		var title = track.Data
		if decodeErr != nil {
			title = decodeErr.Error()
		}

		if err := magstripe.PlotSwipe(plotFile, title, w, cfg.Detector); err != nil {
			logger.Warn("could not plot swipe", "err", err)
		}
	}

	if err := magstripe.Report(os.Stdout, timestampFormat, "", track, decodeErr); err != nil {
		return false, err //nolint:wrapcheck
	}

	return decodeErr == nil, nil
}
