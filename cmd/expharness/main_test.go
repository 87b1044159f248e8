package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expharness/internal/campaign"
	"expharness/internal/config"
)

const sampleOutput = "Semilla: 7\nU_size: 128\nALGORITMO: greedy\nTIEMPO_MS: 12.5\nNUM_PARETO: 3\nMEJOR_JACCARD: 0.8\n" +
	"=== CONJUNTOS ===\nUNIVERSO_U: 1 2 3\nF0: 1 2\n"

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		verbose = false
		workspace = ""
		configPath = "config.yaml"
		runAlgorithm = ""
		runSkipBuild = false
		runBinary = ""
		parseJSON = false
		cfg = nil
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeSample(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(p, []byte(sampleOutput), 0644))
	return p
}

func TestShapesFor(t *testing.T) {
	got, err := shapesFor("all")
	require.NoError(t, err)
	assert.Equal(t, []campaign.Shape{campaign.ShapeSmall, campaign.ShapeBatch}, got)

	got, err = shapesFor("genetic")
	require.NoError(t, err)
	assert.Equal(t, []campaign.Shape{campaign.ShapeGenetic}, got)

	_, err = shapesFor("everything")
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "parse", writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, out, "seed: 7")
	assert.Contains(t, out, "greedy elapsed_ms=12.5 pareto_front_size=3 best_objective_ratio=0.8")
	assert.Contains(t, out, "ground set size: N/A")
	assert.Contains(t, out, "  F0: 1 2")
}

func TestParseCommand_JSON(t *testing.T) {
	out, err := execute(t, "parse", "--json", writeSample(t))
	require.NoError(t, err)

	var got struct {
		Seed         int64                                  `json:"seed"`
		UniverseSize int                                    `json:"universe_size"`
		K            *int                                   `json:"k"`
		Algorithms   map[string]map[string]*json.RawMessage `json:"algorithms"`
		InstanceSets map[string]string                      `json:"instance_sets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(7), got.Seed)
	assert.Equal(t, 128, got.UniverseSize)
	assert.Nil(t, got.K)
	require.Contains(t, got.Algorithms, "greedy")
	assert.Equal(t, "12.5", string(*got.Algorithms["greedy"]["elapsed_ms"]))
	assert.Equal(t, map[string]string{"U": "1 2 3", "F0": "1 2"}, got.InstanceSets)
}

func TestRedactCommand(t *testing.T) {
	out, err := execute(t, "redact", writeSample(t))
	require.NoError(t, err)
	assert.Equal(t, "Semilla: 7\nU_size: 128\nALGORITMO: greedy\nTIEMPO_MS: 12.5\nNUM_PARETO: 3\nMEJOR_JACCARD: 0.8\n", out)
}

func TestParseCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "parse", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestRunCommand_MissingConfig(t *testing.T) {
	ws := t.TempDir()
	_, err := execute(t, "-w", ws, "run", "small")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrNotFound))
	assert.NoDirExists(t, filepath.Join(ws, "results"))
}

func TestRunCommand_UnconfiguredShapeFailsBeforeBuild(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, "config.yaml"), []byte("U_size: 64\n"), 0644))

	_, err := execute(t, "-w", ws, "run", "batch")
	require.Error(t, err)
	assert.True(t, errors.Is(err, campaign.ErrShapeNotConfigured))
	assert.NoDirExists(t, filepath.Join(ws, "build"))
}

func TestRunCommand_WithPrebuiltBinary(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	ws := t.TempDir()
	prog := filepath.Join(ws, "fake-programa")
	script := "#!" + sh + "\n" +
		"seed=0\n" +
		"while [ $# -gt 0 ]; do [ \"$1\" = --seed ] && seed=$2; shift; done\n" +
		"echo \"Semilla: $seed\"\n" +
		"echo 'ALGORITMO: greedy'\n" +
		"echo 'TIEMPO_MS: 2'\n" +
		"[ \"$seed\" = 1010 ] && exit 3\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(prog, []byte(script), 0755))

	yaml := `U_size: 64
small_config:
  seeds: [1000, 1010, 1020]
  G_size_min: 4
  F_n_min: 2
  F_n_max: 6
  Fi_size_min: 2
  Fi_size_max: 8
  k: 2
logging:
  file: false
`
	require.NoError(t, os.WriteFile(filepath.Join(ws, "config.yaml"), []byte(yaml), 0644))

	out, err := execute(t, "-w", ws, "run", "small", "--binary", prog)
	require.NoError(t, err, out)
	assert.Contains(t, out, "SMALL campaign complete")
	assert.Contains(t, out, "3 experiments")

	matches, err := filepath.Glob(filepath.Join(ws, "results", "small", "*"))
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	var summary string
	for _, m := range matches {
		if strings.HasSuffix(m, "_summary_small.csv") {
			data, err := os.ReadFile(m)
			require.NoError(t, err)
			summary = string(data)
		}
	}
	lines := strings.Split(strings.TrimSpace(summary), "\n")
	require.Len(t, lines, 3, summary)
	assert.True(t, strings.HasPrefix(lines[1], "1,1000,greedy,2,"))
	assert.True(t, strings.HasPrefix(lines[2], "3,1020,greedy,2,"))
}
