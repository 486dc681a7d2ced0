// Package config loads scoring run settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"wallet-credit-score/internal/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CREDITSCORE_"

// Input sources.
const (
	SourceFile       = "file"
	SourcePostgres   = "postgres"
	SourceClickhouse = "clickhouse"
)

// Config is the full run configuration.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// InputConfig selects where transactions come from.
type InputConfig struct {
	Source        string `yaml:"source"` // file | postgres | clickhouse
	Path          string `yaml:"path"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	BatchSize     int    `yaml:"batch_size"`
}

// OutputConfig names the artifacts of a run.
type OutputConfig struct {
	Dir               string  `yaml:"dir"`
	ScoresFile        string  `yaml:"scores_file"`
	DistributionChart string  `yaml:"distribution_chart"`
	FeatureMeansChart string  `yaml:"feature_means_chart"`
	SummaryFile       string  `yaml:"summary_file"`
	ChartDPI          float64 `yaml:"chart_dpi"`
	HeadRows          int     `yaml:"head_rows"` // score rows echoed into the summary
}

// ClusteringConfig holds k-means parameters.
type ClusteringConfig struct {
	Clusters      int     `yaml:"clusters"`
	Seed          int64   `yaml:"seed"`
	Restarts      int     `yaml:"restarts"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
	Workers       int     `yaml:"workers"`
}

// ScoringConfig holds the score per cluster rank, best rank first.
type ScoringConfig struct {
	Bands []int `yaml:"bands"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// MetricsConfig configures the optional Prometheus textfile.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns the settings of the reference scoring run.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Source:    SourceFile,
			Path:      "user-wallet-transactions.json",
			BatchSize: 5000,
		},
		Output: OutputConfig{
			Dir:               ".",
			ScoresFile:        "wallet_credit_scores.csv",
			DistributionChart: "credit_score_distribution.png",
			FeatureMeansChart: "cluster_feature_means.png",
			SummaryFile:       "SCORE_REPORT.md",
			ChartDPI:          300,
			HeadRows:          10,
		},
		Clustering: ClusteringConfig{
			Clusters:      5,
			Seed:          42,
			Restarts:      10,
			MaxIterations: 300,
			Tolerance:     1e-4,
			Workers:       4,
		},
		Scoring: ScoringConfig{
			Bands: []int{1000, 750, 500, 250, 100},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over DefaultConfig, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from CREDITSCORE_* variables. Unparseable
// values are ignored.
func (c *Config) ApplyEnv() {
	c.Input.Source = GetEnvOrDefault(EnvPrefix+"INPUT_SOURCE", c.Input.Source)
	c.Input.Path = GetEnvOrDefault(EnvPrefix+"INPUT_PATH", c.Input.Path)
	c.Input.PostgresDSN = GetEnvOrDefault(EnvPrefix+"POSTGRES_DSN", c.Input.PostgresDSN)
	c.Input.ClickhouseDSN = GetEnvOrDefault(EnvPrefix+"CLICKHOUSE_DSN", c.Input.ClickhouseDSN)
	c.Input.BatchSize = GetEnvAsInt(EnvPrefix+"BATCH_SIZE", c.Input.BatchSize)

	c.Output.Dir = GetEnvOrDefault(EnvPrefix+"OUTPUT_DIR", c.Output.Dir)
	c.Output.ChartDPI = GetEnvAsFloat(EnvPrefix+"CHART_DPI", c.Output.ChartDPI)
	c.Output.HeadRows = GetEnvAsInt(EnvPrefix+"HEAD_ROWS", c.Output.HeadRows)

	c.Clustering.Clusters = GetEnvAsInt(EnvPrefix+"CLUSTERS", c.Clustering.Clusters)
	c.Clustering.Seed = int64(GetEnvAsInt(EnvPrefix+"SEED", int(c.Clustering.Seed)))
	c.Clustering.Restarts = GetEnvAsInt(EnvPrefix+"RESTARTS", c.Clustering.Restarts)
	c.Clustering.Workers = GetEnvAsInt(EnvPrefix+"WORKERS", c.Clustering.Workers)

	if v, ok := GetEnv(EnvPrefix + "BANDS"); ok {
		if bands, err := ParseBands(v); err == nil {
			c.Scoring.Bands = bands
		}
	}

	c.Log.Level = GetEnvOrDefault(EnvPrefix+"LOG_LEVEL", c.Log.Level)
	c.Log.Format = GetEnvOrDefault(EnvPrefix+"LOG_FORMAT", c.Log.Format)
	c.Metrics.Textfile = GetEnvOrDefault(EnvPrefix+"METRICS_TEXTFILE", c.Metrics.Textfile)
}

// Validate checks the configuration for a scoring run.
func (c *Config) Validate() error {
	var errs []error

	switch c.Input.Source {
	case SourceFile:
		if c.Input.Path == "" {
			errs = append(errs, errors.New("input.path is required for file source"))
		}
	case SourcePostgres:
		if c.Input.PostgresDSN == "" {
			errs = append(errs, errors.New("input.postgres_dsn is required for postgres source"))
		}
	case SourceClickhouse:
		if c.Input.ClickhouseDSN == "" {
			errs = append(errs, errors.New("input.clickhouse_dsn is required for clickhouse source"))
		}
	default:
		errs = append(errs, fmt.Errorf("input.source %q must be one of file, postgres, clickhouse", c.Input.Source))
	}

	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	if c.Output.ChartDPI <= 0 {
		errs = append(errs, errors.New("output.chart_dpi must be positive"))
	}
	if c.Output.HeadRows < 0 {
		errs = append(errs, errors.New("output.head_rows must not be negative"))
	}

	cl := c.Clustering
	if cl.Clusters <= 0 {
		errs = append(errs, errors.New("clustering.clusters must be positive"))
	}
	if cl.Restarts <= 0 {
		errs = append(errs, errors.New("clustering.restarts must be positive"))
	}
	if cl.MaxIterations <= 0 {
		errs = append(errs, errors.New("clustering.max_iterations must be positive"))
	}
	if cl.Tolerance < 0 {
		errs = append(errs, errors.New("clustering.tolerance must not be negative"))
	}

	if len(c.Scoring.Bands) != cl.Clusters {
		errs = append(errs, fmt.Errorf("scoring.bands has %d entries, need one per cluster (%d)", len(c.Scoring.Bands), cl.Clusters))
	}
	if !slices.Equal(domain.NewScoreTable(c.Scoring.Bands).Scores(), c.Scoring.Bands) {
		errs = append(errs, fmt.Errorf("scoring.bands %v must be distinct and ordered best rank first", c.Scoring.Bands))
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ParseBands parses a comma separated score list such as "1000,750,500".
func ParseBands(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse band %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
