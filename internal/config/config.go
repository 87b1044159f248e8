package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when the configuration document is missing.
var ErrNotFound = errors.New("configuration file not found")

// Config holds the whole harness configuration.
// Campaign blocks keep the key names of the experiment config.yaml the
// optimization program ships with (U_size, small_config, G_size_min, ...).
type Config struct {
	// Universe size the program is compiled for (-DU_SIZE).
	UniverseSize int `yaml:"U_size"`

	// Build and invocation of the optimization program
	Program ProgramConfig `yaml:"program"`

	// Campaign parameter blocks
	Small   *CampaignConfig `yaml:"small_config"`
	Batch   *CampaignConfig `yaml:"batch_config"`
	Genetic *CampaignConfig `yaml:"genetic_config"`

	// Output directories
	Paths PathsConfig `yaml:"paths"`

	Logging LoggingConfig `yaml:"logging"`
	Store   StoreConfig   `yaml:"store"`
	Archive ArchiveConfig `yaml:"archive"`
}

// ProgramConfig describes how to compile and run the optimization program.
type ProgramConfig struct {
	SourceDir string   `yaml:"source_dir"` // contains src/ and include/
	BuildDir  string   `yaml:"build_dir"`
	Binary    string   `yaml:"binary"`
	Compiler  string   `yaml:"compiler"`
	Flags     []string `yaml:"flags"`
	Sources   []string `yaml:"sources"` // file names relative to <source_dir>/src

	// Directory the program runs in. Relative paths resolve against the workspace.
	WorkingDir string `yaml:"working_dir"`

	BuildTimeout   string            `yaml:"build_timeout"`
	MaxOutputBytes int64             `yaml:"max_output_bytes"`
	Env            map[string]string `yaml:"env"`
}

// CampaignConfig is one campaign parameter block.
// Either Seeds or SeedStart is used depending on the campaign shape.
type CampaignConfig struct {
	Seeds     []int64 `yaml:"seeds,omitempty"`
	SeedStart *int64  `yaml:"seed_start,omitempty"`
	Instances int     `yaml:"instances,omitempty"`

	GroundSetMin      int `yaml:"G_size_min"`
	CandidateCountMin int `yaml:"F_n_min"`
	CandidateCountMax int `yaml:"F_n_max"`
	CandidateSizeMin  int `yaml:"Fi_size_min"`
	CandidateSizeMax  int `yaml:"Fi_size_max"`
	K                 int `yaml:"k"`

	// Algorithm selector passed as --algo. Empty means shape default.
	Algorithm string `yaml:"algorithm,omitempty"`
	// TimeLimit in seconds passed as --time_limit; nil means shape default.
	TimeLimit *int     `yaml:"time_limit,omitempty"`
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// PathsConfig holds the output directories per campaign shape.
type PathsConfig struct {
	ResultsSmall   string `yaml:"results_small"`
	ResultsBatch   string `yaml:"results_batch"`
	ResultsGenetic string `yaml:"results_genetic"`
	Logs           string `yaml:"logs"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // console, json
	File       bool            `yaml:"file"`   // also write to paths.logs
	Categories map[string]bool `yaml:"categories"`
}

// StoreConfig configures the optional SQLite results store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ArchiveConfig configures the optional upload of campaign artifacts to GCS.
type ArchiveConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Concurrency int    `yaml:"concurrency"`
}

// DefaultConfig returns the default configuration.
// Campaign blocks are left nil: a campaign must be configured explicitly.
func DefaultConfig() *Config {
	return &Config{
		UniverseSize: 128,
		Program: ProgramConfig{
			SourceDir: "tfgcore",
			BuildDir:  "build",
			Binary:    "programa",
			Compiler:  "g++",
			Flags:     []string{"-std=c++17", "-O3"},
			Sources: []string{
				"main.cpp", "exhaustiva.cpp", "metrics.cpp", "greedy.cpp",
				"genetico.cpp", "spea2.cpp", "generator.cpp", "ground_truth.cpp",
			},
			WorkingDir:     ".",
			BuildTimeout:   "10m",
			MaxOutputBytes: 64 << 20,
		},
		Paths: PathsConfig{
			ResultsSmall:   "results/small",
			ResultsBatch:   "results/batch",
			ResultsGenetic: "results/genetic",
			Logs:           "logs",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   true,
		},
		Store: StoreConfig{
			Path: "results/experiments.db",
		},
		Archive: ArchiveConfig{
			Prefix:      "expharness",
			Concurrency: 3,
		},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
// Unlike most tools a missing file is an error: without seeds and bounds
// there is nothing to run.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EXPHARNESS_U_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.UniverseSize = n
		}
	}
	if dir := os.Getenv("EXPHARNESS_RESULTS_DIR"); dir != "" {
		c.Paths.ResultsSmall = filepath.Join(dir, "small")
		c.Paths.ResultsBatch = filepath.Join(dir, "batch")
		c.Paths.ResultsGenetic = filepath.Join(dir, "genetic")
	}
	if level := os.Getenv("EXPHARNESS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("EXPHARNESS_STORE_PATH"); path != "" {
		c.Store.Path = path
		c.Store.Enabled = true
	}
	if bucket := os.Getenv("EXPHARNESS_ARCHIVE_BUCKET"); bucket != "" {
		c.Archive.Bucket = bucket
		c.Archive.Enabled = true
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.UniverseSize <= 0 {
		return fmt.Errorf("U_size must be positive, got %d", c.UniverseSize)
	}
	if c.Program.Binary == "" {
		return fmt.Errorf("program.binary is required")
	}
	if c.Program.MaxOutputBytes < 0 {
		return fmt.Errorf("program.max_output_bytes must not be negative")
	}
	if _, err := time.ParseDuration(c.Program.BuildTimeout); c.Program.BuildTimeout != "" && err != nil {
		return fmt.Errorf("program.build_timeout: %w", err)
	}
	blocks := map[string]*CampaignConfig{
		"small_config":   c.Small,
		"batch_config":   c.Batch,
		"genetic_config": c.Genetic,
	}
	for name, b := range blocks {
		if b == nil {
			continue
		}
		if err := b.validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the store is enabled")
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when archiving is enabled")
	}
	return nil
}

func (b *CampaignConfig) validate() error {
	if b.Instances < 0 {
		return fmt.Errorf("instances must not be negative")
	}
	if b.CandidateCountMin > b.CandidateCountMax {
		return fmt.Errorf("F_n_min (%d) > F_n_max (%d)", b.CandidateCountMin, b.CandidateCountMax)
	}
	if b.CandidateSizeMin > b.CandidateSizeMax {
		return fmt.Errorf("Fi_size_min (%d) > Fi_size_max (%d)", b.CandidateSizeMin, b.CandidateSizeMax)
	}
	if b.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", b.K)
	}
	if b.TimeLimit != nil && *b.TimeLimit < 0 {
		return fmt.Errorf("time_limit must not be negative")
	}
	return nil
}

// GetBuildTimeout returns the build timeout as a duration.
// Zero means no timeout.
func (c *Config) GetBuildTimeout() time.Duration {
	if c.Program.BuildTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Program.BuildTimeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// Resolve returns path joined to workspace unless it is already absolute.
func Resolve(workspace, path string) string {
	if path == "" || filepath.IsAbs(path) || workspace == "" {
		return path
	}
	return filepath.Join(workspace, path)
}
