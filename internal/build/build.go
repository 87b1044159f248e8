// Package build compiles the optimization program before a campaign.
// The universe size is a compile-time constant of the program (-DU_SIZE), so
// every campaign starts with a fresh build for the configured U_size.
// Missing sources and compiler failures are fatal: no campaign runs against
// a stale or absent binary.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"expharness/internal/config"
	"expharness/internal/logging"
	"expharness/internal/tactile"
)

var (
	// ErrMissingInput reports an absent source directory or source file.
	ErrMissingInput = errors.New("missing build input")
	// ErrCompileFailed reports a compiler that could not run or exited non-zero.
	ErrCompileFailed = errors.New("compilation failed")
)

// Builder turns the configured sources into an executable.
type Builder struct {
	Executor     tactile.Executor
	Program      config.ProgramConfig
	UniverseSize int
	Workspace    string
	Timeout      int64 // milliseconds, 0 = none
}

// NewBuilder creates a builder from the harness configuration.
func NewBuilder(exec tactile.Executor, cfg *config.Config, workspace string) *Builder {
	return &Builder{
		Executor:     exec,
		Program:      cfg.Program,
		UniverseSize: cfg.UniverseSize,
		Workspace:    workspace,
		Timeout:      cfg.GetBuildTimeout().Milliseconds(),
	}
}

// BinaryPath is where Build writes the executable.
func (b *Builder) BinaryPath() string {
	return filepath.Join(config.Resolve(b.Workspace, b.Program.BuildDir), b.Program.Binary)
}

// Command assembles the compiler invocation after checking that every input
// exists. It does not create the build directory.
func (b *Builder) Command() (tactile.Command, error) {
	sourceDir := config.Resolve(b.Workspace, b.Program.SourceDir)
	if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
		return tactile.Command{}, fmt.Errorf("%w: source directory %s", ErrMissingInput, sourceDir)
	}
	if len(b.Program.Sources) == 0 {
		return tactile.Command{}, fmt.Errorf("%w: no sources configured", ErrMissingInput)
	}

	sources := make([]string, 0, len(b.Program.Sources))
	for _, name := range b.Program.Sources {
		path := filepath.Join(sourceDir, "src", name)
		if _, err := os.Stat(path); err != nil {
			return tactile.Command{}, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		sources = append(sources, path)
	}

	args := []string{fmt.Sprintf("-DU_SIZE=%d", b.UniverseSize)}
	args = append(args, b.Program.Flags...)
	args = append(args,
		"-I"+filepath.Join(sourceDir, "include"),
		"-o", b.BinaryPath(),
	)
	args = append(args, sources...)

	cmd := tactile.Command{
		Binary:           b.Program.Compiler,
		Arguments:        args,
		WorkingDirectory: b.Workspace,
		Environment:      Env(b.Program.Env),
	}
	if b.Timeout > 0 {
		cmd.Limits = &tactile.ResourceLimits{TimeoutMs: b.Timeout}
	}
	return cmd, nil
}

// Build compiles the program and returns the path of the executable.
func (b *Builder) Build(ctx context.Context) (string, error) {
	timer := logging.StartTimer(logging.CategoryBuild, "Compilation")
	defer timer.StopWithInfo()

	cmd, err := b.Command()
	if err != nil {
		logging.BuildError("Build precondition failed: %v", err)
		return "", err
	}

	buildDir := filepath.Dir(b.BinaryPath())
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create build directory: %w", err)
	}

	logging.Build("Compiling with U_SIZE=%d: %s", b.UniverseSize, cmd.CommandString())
	res, err := b.Executor.Execute(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompileFailed, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("%w: %s", ErrCompileFailed, res.Error)
	}
	if res.Killed {
		return "", fmt.Errorf("%w: %s", ErrCompileFailed, res.KillReason)
	}
	if res.ExitCode != 0 {
		logging.BuildError("Compiler exited with %d:\n%s", res.ExitCode, res.Stderr)
		return "", fmt.Errorf("%w (exit %d): %s", ErrCompileFailed, res.ExitCode, strings.TrimSpace(res.Output()))
	}

	logging.Build("Compilation succeeded: %s", b.BinaryPath())
	return b.BinaryPath(), nil
}

// essentialVars are passed through from the harness environment so the
// compiler can find itself, its headers and a temp directory.
var essentialVars = []string{
	"PATH",
	"HOME",
	"TMPDIR", "TEMP", "TMP",
	"LANG", "LC_ALL",
	"CPATH", "LIBRARY_PATH", "LD_LIBRARY_PATH",
	"CCACHE_DIR",
	"SYSTEMROOT", // Required on Windows
}

// Env returns the compiler environment: essential variables from the current
// process followed by the configured extras in key order.
func Env(extra map[string]string) []string {
	env := []string{}
	for _, key := range essentialVars {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
		}
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = setEnvKey(env, k, extra[k])
		logging.BuildDebug("Added build config env: %s=%s", k, extra[k])
	}
	return env
}

// setEnvKey sets or replaces an environment variable in the slice.
func setEnvKey(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
