package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intervalforest/internal/forest"
)

func clearForestEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DATASET_PATH", "DATASET_URL", "DATASET_NAME", "DATA_PATH",
		"N_ESTIMATORS", "N_INTERVALS", "MIN_INTERVAL_LENGTH", "MAX_INTERVAL_LENGTH",
		"ATT_SUBSAMPLE_SIZE", "TIME_LIMIT", "CONTRACT_MAX_ESTIMATORS", "RANDOM_SEED",
		"N_JOBS", "REPLACE_NAN", "DIFF_VIEW", "LISTEN_PORT", "METRICS_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearForestEnv(t)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 200, s.NEstimators)
	assert.Equal(t, 500, s.ContractMaxEstimators)
	assert.Equal(t, 1, s.NJobs)
	assert.Equal(t, time.Duration(0), s.TimeLimit)
	assert.Equal(t, "synthetic", s.DatasetName)
	assert.Equal(t, 8090, s.ListenPort)
	assert.Equal(t, 8080, s.MetricsPort)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearForestEnv(t)
	t.Setenv("N_ESTIMATORS", "64")
	t.Setenv("N_INTERVALS", "4+sqrt")
	t.Setenv("TIME_LIMIT", "2m")
	t.Setenv("RANDOM_SEED", "1234")
	t.Setenv("N_JOBS", "-1")
	t.Setenv("DIFF_VIEW", "true")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 64, s.NEstimators)
	assert.Equal(t, "4+sqrt", s.NIntervals)
	assert.Equal(t, 2*time.Minute, s.TimeLimit)
	assert.Equal(t, int64(1234), s.Seed)
	assert.Equal(t, -1, s.NJobs)
	assert.True(t, s.DiffView)
}

func TestLoadFromYAML(t *testing.T) {
	clearForestEnv(t)
	content := `
dataset:
  path: /data/train.csv
  name: household
forest:
  nEstimators: 32
  nIntervals: sqrt-div
  minIntervalLength: "5"
  attSubsampleSize: "0.5"
  timeLimit: 90s
  seed: 7
  nJobs: 4
  diffView: true
system:
  dataPath: /var/lib/forest
  listenPort: 9000
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/train.csv", s.DatasetPath)
	assert.Equal(t, "household", s.DatasetName)
	assert.Equal(t, 32, s.NEstimators)
	assert.Equal(t, "sqrt-div", s.NIntervals)
	assert.Equal(t, "5", s.MinIntervalLength)
	assert.Equal(t, "0.5", s.AttSubsampleSize)
	assert.Equal(t, 90*time.Second, s.TimeLimit)
	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, 4, s.NJobs)
	assert.True(t, s.DiffView)
	assert.Equal(t, "/var/lib/forest", s.DataPath)
	assert.Equal(t, 9000, s.ListenPort)
	assert.Equal(t, 8080, s.MetricsPort, "unset yaml values keep defaults")
}

func TestEnvOverridesYAML(t *testing.T) {
	clearForestEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forest:\n  nEstimators: 32\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("N_ESTIMATORS", "99")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 99, s.NEstimators)
}

func TestLoadRejectsBadConfigFile(t *testing.T) {
	clearForestEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))
	t.Setenv("CONFIG_FILE", path)
	_, err = Load()
	assert.Error(t, err)
}

func TestValidateSettings(t *testing.T) {
	valid := func() Settings {
		return Settings{
			NEstimators:           200,
			ContractMaxEstimators: 500,
			NJobs:                 1,
			ListenPort:            8090,
			MetricsPort:           8080,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"valid", func(*Settings) {}, false},
		{"zero estimators", func(s *Settings) { s.NEstimators = 0 }, true},
		{"too many estimators", func(s *Settings) { s.NEstimators = 20000 }, true},
		{"zero n_jobs", func(s *Settings) { s.NJobs = 0 }, true},
		{"negative time limit", func(s *Settings) { s.TimeLimit = -time.Second }, true},
		{"privileged port", func(s *Settings) { s.ListenPort = 80 }, true},
		{"bad interval spec", func(s *Settings) { s.NIntervals = "wat" }, true},
		{"bad length", func(s *Settings) { s.MinIntervalLength = "1.5" }, true},
		{"bad subsample", func(s *Settings) { s.AttSubsampleSize = "-3" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := validateSettings(&s)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseCountSpec(t *testing.T) {
	spec, err := parseCountSpec("4+sqrt")
	require.NoError(t, err)
	assert.Len(t, spec, 2)
	assert.Equal(t, 4, spec[0].Literal)
	assert.Equal(t, "sqrt", spec[1].Rule)

	empty, err := parseCountSpec("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseCountSpec("sqrt+bogus")
	assert.Error(t, err)
}

func TestParseLength(t *testing.T) {
	l, err := parseLength("7")
	require.NoError(t, err)
	assert.Equal(t, forest.AbsLength(7), l)

	l, err = parseLength("0.25")
	require.NoError(t, err)
	assert.Equal(t, forest.PropLength(0.25), l)

	l, err = parseLength("")
	require.NoError(t, err)
	assert.Equal(t, forest.Length{}, l)

	for _, bad := range []string{"0", "-3", "1.5", "abc"} {
		if _, err := parseLength(bad); err == nil {
			t.Errorf("parseLength(%q) should fail", bad)
		}
	}
}

func TestParseAttSubsample(t *testing.T) {
	a, err := parseAttSubsample("8")
	require.NoError(t, err)
	assert.Equal(t, forest.AttSubsample{K: 8}, a)

	a, err = parseAttSubsample("0.5")
	require.NoError(t, err)
	assert.Equal(t, forest.AttSubsample{Frac: 0.5}, a)

	a, err = parseAttSubsample("")
	require.NoError(t, err)
	assert.Equal(t, forest.AttSubsample{}, a)

	_, err = parseAttSubsample("2.5")
	assert.Error(t, err)
}

func TestForestConfigTranslation(t *testing.T) {
	s := Settings{
		NEstimators:           64,
		NIntervals:            "sqrt-div",
		MinIntervalLength:     "4",
		MaxIntervalLength:     "0.5",
		AttSubsampleSize:      "8",
		TimeLimit:             time.Minute,
		ContractMaxEstimators: 300,
		Seed:                  11,
		NJobs:                 2,
		ReplaceNaN:            -1,
		DiffView:              true,
	}
	cfg, err := s.ForestConfig()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.NEstimators)
	assert.Equal(t, forest.SqrtDiv(), cfg.NIntervals)
	assert.Equal(t, forest.AbsLength(4), cfg.MinLength)
	assert.Equal(t, forest.PropLength(0.5), cfg.MaxLength)
	assert.Equal(t, forest.AttSubsample{K: 8}, cfg.AttSubsample)
	assert.Equal(t, time.Minute, cfg.TimeLimit)
	assert.Equal(t, 300, cfg.ContractMaxEstimators)
	assert.Equal(t, int64(11), cfg.Seed)
	assert.Equal(t, 2, cfg.NJobs)
	assert.Equal(t, -1.0, cfg.ReplaceNaN)
	require.Len(t, cfg.Views, 2)
	assert.Equal(t, "raw", cfg.Views[0].Name)
	assert.Equal(t, "diff", cfg.Views[1].Name)
}
