package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level, cats map[string]bool) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	install(core, cats, nil)
	t.Cleanup(func() { install(zapcore.NewNopCore(), nil, nil) })
	return logs
}

func TestCategoryLoggerNamesEntries(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, nil)

	Campaign("experiment %d/%d", 1, 4)
	BuildDebug("compiler=%s", "g++")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "campaign", entries[0].LoggerName)
	assert.Equal(t, "experiment 1/4", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "build", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, map[string]bool{"runner": false})

	Runner("should not appear")
	RunnerWarn("nor this")
	Store("but this does")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "store", logs.All()[0].LoggerName)
	assert.False(t, IsCategoryEnabled(CategoryRunner))
	assert.True(t, IsCategoryEnabled(CategoryCampaign))
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel, nil)

	CampaignDebug("debug")
	Campaign("info")
	CampaignWarn("warn")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "warn", logs.All()[0].Message)
}

func TestWithAttachesFields(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel, nil)

	Get(CategoryRunner).With("seed", 1020).Info("run finished")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(1020), logs.All()[0].ContextMap()["seed"])
}

func TestInitializeWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", Dir: dir}))
	t.Cleanup(func() { install(zapcore.NewNopCore(), nil, nil) })

	Boot("hello from %s", "test")
	Sync()

	matches, err := filepath.Glob(filepath.Join(dir, "*_expharness.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello from test"), "log file content: %s", data)
}

func TestInitializeRejectsBadConfig(t *testing.T) {
	assert.Error(t, Initialize(Config{Level: "loud"}))
	assert.Error(t, Initialize(Config{Format: "xml"}))
}

func TestNopCoreDoesNotPanic(t *testing.T) {
	install(zapcore.NewNopCore(), nil, nil)
	// Must not panic.
	Get(CategoryArchive).Error("nothing listens")
}
