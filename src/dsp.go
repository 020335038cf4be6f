package magstripe

import (
	"math"
)

/* Largest peak to peak swing in a run of samples.  0 for an empty run. */

func peakToPeak(samples []int16) int {
	if len(samples) == 0 {
		return 0
	}

	var lo, hi = samples[0], samples[0]
	for _, s := range samples[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	return int(hi) - int(lo)
}

/* Integer mean, truncated toward zero. */

func average(samples []int16) int {
	if len(samples) == 0 {
		return 0
	}

	var sum int64
	for _, s := range samples {
		sum += int64(s)
	}

	return int(sum / int64(len(samples)))
}

// Add a constant to every sample in place, saturating at the int16 limits.
func addBias(samples []int16, bias int) {
	if bias == 0 {
		return
	}

	for i, s := range samples {
		var v = int(s) + bias
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		samples[i] = int16(v)
	}
}
