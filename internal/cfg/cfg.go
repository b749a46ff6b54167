// Package cfg loads tool configuration from a YAML file and the
// environment. A YAML file named by CONFIG_FILE takes precedence, with
// environment variables overriding individual values; without a file the
// whole configuration comes from the environment with documented defaults.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	DatasetPath string
	DatasetURL  string
	DatasetName string
	DataPath    string

	NEstimators           int
	NIntervals            string
	MinIntervalLength     string
	MaxIntervalLength     string
	AttSubsampleSize      string
	TimeLimit             time.Duration
	ContractMaxEstimators int
	Seed                  int64
	NJobs                 int
	ReplaceNaN            float64
	DiffView              bool

	ListenPort  int
	MetricsPort int
}

type ConfigFile struct {
	Dataset struct {
		Path string `yaml:"path"`
		URL  string `yaml:"url"`
		Name string `yaml:"name"`
	} `yaml:"dataset"`

	Forest struct {
		NEstimators           int     `yaml:"nEstimators"`
		NIntervals            string  `yaml:"nIntervals"`
		MinIntervalLength     string  `yaml:"minIntervalLength"`
		MaxIntervalLength     string  `yaml:"maxIntervalLength"`
		AttSubsampleSize      string  `yaml:"attSubsampleSize"`
		TimeLimit             string  `yaml:"timeLimit"`
		ContractMaxEstimators int     `yaml:"contractMaxEstimators"`
		Seed                  int64   `yaml:"seed"`
		NJobs                 int     `yaml:"nJobs"`
		ReplaceNaN            float64 `yaml:"replaceNaN"`
		DiffView              bool    `yaml:"diffView"`
	} `yaml:"forest"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		ListenPort  int    `yaml:"listenPort"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Pick up a local .env if present; absence is not an error.
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeLimit, err := time.ParseDuration(config.Forest.TimeLimit)
	if err != nil {
		timeLimit = 0
	}

	settings := Settings{
		DatasetPath:           getEnvOrDefault("DATASET_PATH", config.Dataset.Path),
		DatasetURL:            getEnvOrDefault("DATASET_URL", config.Dataset.URL),
		DatasetName:           getEnvOrDefault("DATASET_NAME", config.Dataset.Name),
		DataPath:              getEnvOrDefault("DATA_PATH", config.System.DataPath),
		NEstimators:           getIntFromEnvOrConfig("N_ESTIMATORS", config.Forest.NEstimators, 200),
		NIntervals:            getEnvOrDefault("N_INTERVALS", config.Forest.NIntervals),
		MinIntervalLength:     getEnvOrDefault("MIN_INTERVAL_LENGTH", config.Forest.MinIntervalLength),
		MaxIntervalLength:     getEnvOrDefault("MAX_INTERVAL_LENGTH", config.Forest.MaxIntervalLength),
		AttSubsampleSize:      getEnvOrDefault("ATT_SUBSAMPLE_SIZE", config.Forest.AttSubsampleSize),
		TimeLimit:             getDurationOrDefault("TIME_LIMIT", timeLimit),
		ContractMaxEstimators: getIntFromEnvOrConfig("CONTRACT_MAX_ESTIMATORS", config.Forest.ContractMaxEstimators, 500),
		Seed:                  getInt64FromEnvOrConfig("RANDOM_SEED", config.Forest.Seed),
		NJobs:                 getIntFromEnvOrConfig("N_JOBS", config.Forest.NJobs, 1),
		ReplaceNaN:            getFloatFromEnvOrConfig("REPLACE_NAN", config.Forest.ReplaceNaN),
		DiffView:              getBoolFromEnvOrConfig("DIFF_VIEW", config.Forest.DiffView),
		ListenPort:            getIntFromEnvOrConfig("LISTEN_PORT", config.System.ListenPort, 8090),
		MetricsPort:           getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 8080),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DatasetPath:           os.Getenv("DATASET_PATH"),
		DatasetURL:            os.Getenv("DATASET_URL"),
		DatasetName:           getEnvOrDefault("DATASET_NAME", "synthetic"),
		DataPath:              os.Getenv("DATA_PATH"), // optional
		NEstimators:           getIntOrDefault("N_ESTIMATORS", 200),
		NIntervals:            os.Getenv("N_INTERVALS"),
		MinIntervalLength:     os.Getenv("MIN_INTERVAL_LENGTH"),
		MaxIntervalLength:     os.Getenv("MAX_INTERVAL_LENGTH"),
		AttSubsampleSize:      os.Getenv("ATT_SUBSAMPLE_SIZE"),
		TimeLimit:             getDurationOrDefault("TIME_LIMIT", 0),
		ContractMaxEstimators: getIntOrDefault("CONTRACT_MAX_ESTIMATORS", 500),
		Seed:                  getInt64OrDefault("RANDOM_SEED", 0),
		NJobs:                 getIntOrDefault("N_JOBS", 1),
		ReplaceNaN:            getFloatOrDefault("REPLACE_NAN", 0),
		DiffView:              getBoolOrDefault("DIFF_VIEW", false),
		ListenPort:            getIntOrDefault("LISTEN_PORT", 8090),
		MetricsPort:           getIntOrDefault("METRICS_PORT", 8080),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getInt64FromEnvOrConfig(key string, configValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	return configValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs range validation on configuration values.
func validateSettings(settings *Settings) error {
	if settings.NEstimators < 1 || settings.NEstimators > 10000 {
		return fmt.Errorf("n_estimators must be between 1 and 10000, got %d", settings.NEstimators)
	}
	if settings.ContractMaxEstimators < 1 || settings.ContractMaxEstimators > 10000 {
		return fmt.Errorf("contract max estimators must be between 1 and 10000, got %d", settings.ContractMaxEstimators)
	}
	if settings.NJobs < -1 || settings.NJobs == 0 {
		return fmt.Errorf("n_jobs must be -1 or positive, got %d", settings.NJobs)
	}
	if settings.TimeLimit < 0 || settings.TimeLimit > 24*time.Hour {
		return fmt.Errorf("time limit must be between 0 and 24h, got %v", settings.TimeLimit)
	}
	if settings.ListenPort < 1024 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", settings.ListenPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if _, err := parseCountSpec(settings.NIntervals); err != nil {
		return err
	}
	if _, err := parseLength(settings.MinIntervalLength); err != nil {
		return err
	}
	if _, err := parseLength(settings.MaxIntervalLength); err != nil {
		return err
	}
	if _, err := parseAttSubsample(settings.AttSubsampleSize); err != nil {
		return err
	}
	return nil
}
