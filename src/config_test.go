package magstripe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()

	var path = filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigOverlay(t *testing.T) {
	var path = writeFile(t, "magstripe.yaml", `
segmenter:
  threshold_factor: 5
clock:
  deviation: 1.4
log:
  level: debug
`)

	var cfg, err = LoadConfig(path)
	require.NoError(t, err)

	var expected = DefaultConfig()
	expected.Segmenter.ThresholdFactor = 5
	expected.Clock.Deviation = 1.4
	expected.Log.Level = "debug"

	assert.Equal(t, expected, cfg)
}

func TestLoadConfigInvalid(t *testing.T) {
	var path = writeFile(t, "bad.yaml", `
audio:
  sample_rate: 0
clock:
  seed: 0
  deviation: 3
log:
  format: xml
`)

	var _, err = LoadConfig(path)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4)

	assert.Contains(t, err.Error(), "audio.sample_rate")
	assert.Contains(t, err.Error(), "clock.seed")
	assert.Contains(t, err.Error(), "clock.deviation")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoadConfigErrors(t *testing.T) {
	var _, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeFile(t, "broken.yaml", "segmenter: [1, 2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")

	_, err = LoadConfig(writeFile(t, "level.yaml", "log:\n  level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestWriteConfig(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "out.yaml")

	var cfg = DefaultConfig()
	cfg.Detector.PeakFactor = 0.6

	require.NoError(t, WriteConfig(path, cfg))

	var loaded, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
