package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
U_size: 256
small_config:
  seeds: [1000, 1010, 1020, 1030, 1040]
  instances: 4
  G_size_min: 20
  F_n_min: 5
  F_n_max: 30
  Fi_size_min: 5
  Fi_size_max: 40
  k: 3
batch_config:
  seed_start: 5000
  instances: 50
  G_size_min: 30
  F_n_min: 10
  F_n_max: 60
  Fi_size_min: 5
  Fi_size_max: 60
  k: 4
paths:
  results_small: out/small
  results_batch: out/batch
  logs: out/logs
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"EXPHARNESS_U_SIZE", "EXPHARNESS_RESULTS_DIR", "EXPHARNESS_LOG_LEVEL", "EXPHARNESS_STORE_PATH", "EXPHARNESS_ARCHIVE_BUCKET"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.UniverseSize != 128 {
		t.Errorf("expected U_size=128, got %d", cfg.UniverseSize)
	}
	if cfg.Program.Compiler != "g++" {
		t.Errorf("expected compiler=g++, got %s", cfg.Program.Compiler)
	}
	if cfg.Small != nil || cfg.Batch != nil {
		t.Error("campaign blocks must not have defaults")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.UniverseSize)
	require.NotNil(t, cfg.Small)
	assert.Equal(t, []int64{1000, 1010, 1020, 1030, 1040}, cfg.Small.Seeds)
	assert.Equal(t, 4, cfg.Small.Instances)
	assert.Equal(t, 30, cfg.Small.CandidateCountMax)
	assert.Nil(t, cfg.Small.TimeLimit)

	require.NotNil(t, cfg.Batch)
	require.NotNil(t, cfg.Batch.SeedStart)
	assert.Equal(t, int64(5000), *cfg.Batch.SeedStart)
	assert.Equal(t, 4, cfg.Batch.K)
	assert.Nil(t, cfg.Genetic)

	assert.Equal(t, "out/small", cfg.Paths.ResultsSmall)
	// Keys absent from the document keep their defaults.
	assert.Equal(t, "results/genetic", cfg.Paths.ResultsGenetic)
	assert.Equal(t, "programa", cfg.Program.Binary)
}

func TestLoad_RepositorySample(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join("..", "..", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().Program, cfg.Program)
	require.NotNil(t, cfg.Small)
	require.NotNil(t, cfg.Small.TimeLimit)
	assert.Equal(t, 150, *cfg.Small.TimeLimit)
	require.NotNil(t, cfg.Genetic)
	assert.Equal(t, []string{"--no-test"}, cfg.Genetic.ExtraArgs)
	assert.False(t, cfg.Store.Enabled)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "U_size: [not, an, int"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestLoad_InvalidBlock(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, `
small_config:
  seeds: [1]
  F_n_min: 10
  F_n_max: 5
  k: 2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "small_config")
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPHARNESS_U_SIZE", "512")
	t.Setenv("EXPHARNESS_RESULTS_DIR", "/data/runs")
	t.Setenv("EXPHARNESS_STORE_PATH", "/data/runs/db.sqlite")
	t.Setenv("EXPHARNESS_ARCHIVE_BUCKET", "tfg-results")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, 512, cfg.UniverseSize)
	assert.Equal(t, filepath.Join("/data/runs", "batch"), cfg.Paths.ResultsBatch)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "/data/runs/db.sqlite", cfg.Store.Path)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "tfg-results", cfg.Archive.Bucket)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	limit := 90
	cfg := DefaultConfig()
	cfg.Genetic = &CampaignConfig{
		Seeds:             []int64{1000, 1010},
		GroundSetMin:      10,
		CandidateCountMin: 5,
		CandidateCountMax: 100,
		CandidateSizeMin:  5,
		CandidateSizeMax:  100,
		K:                 10,
		TimeLimit:         &limit,
		ExtraArgs:         []string{"--no-test"},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded.Genetic)
	assert.Equal(t, cfg.Genetic, loaded.Genetic)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Archive.Enabled = true
	assert.Error(t, cfg.Validate(), "archive without bucket")

	cfg = DefaultConfig()
	cfg.UniverseSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Program.BuildTimeout = "soon"
	assert.Error(t, cfg.Validate())
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GetBuildTimeout() == 0 {
		t.Error("GetBuildTimeout should return non-zero duration")
	}
	cfg.Program.BuildTimeout = ""
	if cfg.GetBuildTimeout() != 0 {
		t.Error("empty build_timeout means no timeout")
	}

	assert.Equal(t, filepath.Join("/ws", "build"), Resolve("/ws", "build"))
	assert.Equal(t, "/abs/build", Resolve("/ws", "/abs/build"))
	assert.Equal(t, "build", Resolve("", "build"))
}
