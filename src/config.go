package magstripe

/*------------------------------------------------------------------
 *
 * Purpose:   	Calibration and runtime options.
 *
 * Description:	The thresholds and clock constants were tuned by hand
 *		against one particular headphone-jack reader.  Other
 *		read heads and swipe speeds may need different values,
 *		so all of them can be overridden from a YAML file.
 *
 *		Anything missing from the file keeps its default.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_SAMPLE_RATE = 44100
	DEFAULT_BLOCK_SIZE  = 10000
)

type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Detector  DetectorConfig  `yaml:"detector"`
	Clock     ClockConfig     `yaml:"clock"`
	Log       LogConfig       `yaml:"log"`
}

type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	// Samples per block handed to the segmenter.
	BlockSize int `yaml:"block_size"`
}

type SegmenterConfig struct {
	// A block is active when its power exceeds the mean of the recent idle
	// powers times this.
	ThresholdFactor float64 `yaml:"threshold_factor"`
	// Number of idle block powers averaged for the baseline.
	Window int `yaml:"window"`
	// Width of the peak to peak test used when trimming the swipe ends,
	// and how much is dropped per step.
	TrimWindow int `yaml:"trim_window"`
	TrimStep   int `yaml:"trim_step"`
}

type DetectorConfig struct {
	// Samples at the start of the waveform used to set the first threshold.
	LeadIn          int     `yaml:"lead_in"`
	FirstPeakFactor float64 `yaml:"first_peak_factor"`
	PeakFactor      float64 `yaml:"peak_factor"`
}

type ClockConfig struct {
	// Unstable intervals dropped at the start of the swipe.
	Discard int `yaml:"discard"`
	// Intervals used to seed the clock.  They should all be zeros.
	Seed int `yaml:"seed"`
	// An interval longer than this many half-cells is a 0.
	Deviation float64 `yaml:"deviation"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate: DEFAULT_SAMPLE_RATE,
			BlockSize:  DEFAULT_BLOCK_SIZE,
		},
		Segmenter: SegmenterConfig{
			ThresholdFactor: 3.5,
			Window:          4,
			TrimWindow:      1500,
			TrimStep:        500,
		},
		Detector: DetectorConfig{
			LeadIn:          1000,
			FirstPeakFactor: 0.8,
			PeakFactor:      0.5,
		},
		Clock: ClockConfig{
			Discard:   5,
			Seed:      4,
			Deviation: 1.5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Used when no file is named on the command line.  First one found wins.
var configSearchLocations = []string{
	"magstripe.yaml",
	"/usr/local/etc/magstripe.yaml",
	"/etc/magstripe.yaml",
}

/*------------------------------------------------------------------
 *
 * Name:        LoadConfig
 *
 * Purpose:     Read the YAML configuration on top of the defaults.
 *
 * Inputs:	path	- File name.  Empty means try the search
 *			  locations, and use plain defaults if
 *			  none of them exist.
 *
 * Returns:	Validated configuration.
 *
 *----------------------------------------------------------------*/

func LoadConfig(path string) (Config, error) {
	var cfg = DefaultConfig()

	if path == "" {
		for _, location := range configSearchLocations {
			if _, err := os.Stat(location); err == nil {
				path = location

				break
			}
		}
	}

	if path != "" {
		var data, readErr = os.ReadFile(path)
		if readErr != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, readErr)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every bad value at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.Audio.SampleRate <= 0 {
		result = multierror.Append(result, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}

	if c.Audio.BlockSize < c.Segmenter.TrimWindow {
		result = multierror.Append(result, fmt.Errorf("audio.block_size (%d) must be at least segmenter.trim_window (%d)", c.Audio.BlockSize, c.Segmenter.TrimWindow))
	}

	if c.Segmenter.ThresholdFactor <= 0 {
		result = multierror.Append(result, fmt.Errorf("segmenter.threshold_factor must be positive, got %g", c.Segmenter.ThresholdFactor))
	}

	if c.Segmenter.Window < 1 {
		result = multierror.Append(result, fmt.Errorf("segmenter.window must be at least 1, got %d", c.Segmenter.Window))
	}

	if c.Segmenter.TrimStep < 1 || c.Segmenter.TrimWindow < c.Segmenter.TrimStep {
		result = multierror.Append(result, fmt.Errorf("segmenter.trim_step must be between 1 and trim_window (%d), got %d", c.Segmenter.TrimWindow, c.Segmenter.TrimStep))
	}

	if c.Detector.LeadIn < 1 {
		result = multierror.Append(result, fmt.Errorf("detector.lead_in must be at least 1, got %d", c.Detector.LeadIn))
	}

	if c.Detector.FirstPeakFactor <= 0 || c.Detector.PeakFactor <= 0 || c.Detector.PeakFactor >= 1 {
		result = multierror.Append(result, fmt.Errorf("detector peak factors must be positive and peak_factor below 1, got %g and %g", c.Detector.FirstPeakFactor, c.Detector.PeakFactor))
	}

	if c.Clock.Discard < 0 {
		result = multierror.Append(result, fmt.Errorf("clock.discard cannot be negative, got %d", c.Clock.Discard))
	}

	if c.Clock.Seed < 1 {
		result = multierror.Append(result, fmt.Errorf("clock.seed must be at least 1, got %d", c.Clock.Seed))
	}

	if c.Clock.Deviation <= 1 || c.Clock.Deviation >= 2 {
		result = multierror.Append(result, fmt.Errorf("clock.deviation must be between 1 and 2 half-cells, got %g", c.Clock.Deviation))
	}

	if _, err := parseLogLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, err)
	}

	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		result = multierror.Append(result, fmt.Errorf("log.format must be text, json or logfmt, got %q", c.Log.Format))
	}

	return result.ErrorOrNil()
}

// WriteConfig saves cfg as YAML, for starting a calibration from the defaults.
func WriteConfig(path string, cfg Config) error {
	var data, err = yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644) //nolint:gosec
}
