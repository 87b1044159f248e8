// Package runner invokes the optimization program once per seed.
//
// A run never fails from the caller's point of view: a non-zero exit status
// or a program that could not be started is reported in the Outcome and the
// campaign moves on. The harness imposes no timeout of its own; the program
// enforces --time_limit itself.
package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"expharness/internal/logging"
	"expharness/internal/tactile"
)

// Params are the arguments of one run.
type Params struct {
	// Algorithm selector (--algo). Empty omits the flag.
	Algorithm string

	GroundSetMin      int
	CandidateCountMin int
	CandidateCountMax int
	CandidateSizeMin  int
	CandidateSizeMax  int
	K                 int
	Seed              int64

	// TimeLimit in seconds (--time_limit). Zero omits the flag.
	TimeLimit int

	// ExtraArgs are appended verbatim.
	ExtraArgs []string
}

// Args renders the program's argument list in its fixed order.
func (p Params) Args() []string {
	args := make([]string, 0, 18+len(p.ExtraArgs))
	if p.Algorithm != "" {
		args = append(args, "--algo", p.Algorithm)
	}
	args = append(args,
		"--G", strconv.Itoa(p.GroundSetMin),
		"--Fmin", strconv.Itoa(p.CandidateCountMin),
		"--Fmax", strconv.Itoa(p.CandidateCountMax),
		"--FsizeMin", strconv.Itoa(p.CandidateSizeMin),
		"--FsizeMax", strconv.Itoa(p.CandidateSizeMax),
		"--k", strconv.Itoa(p.K),
		"--seed", strconv.FormatInt(p.Seed, 10),
	)
	if p.TimeLimit > 0 {
		args = append(args, "--time_limit", strconv.Itoa(p.TimeLimit))
	}
	return append(args, p.ExtraArgs...)
}

// Outcome is the result of one run.
type Outcome struct {
	Args        []string
	CommandLine string

	// Output is stdout and stderr interleaved as the program wrote them.
	Output string
	Stderr string

	// ExitCode is -1 when the program could not be started.
	ExitCode int
	// Err describes a spawn failure or a killed process; empty otherwise.
	Err string

	Duration time.Duration
}

// Succeeded reports whether the program ran and exited with status 0.
func (o Outcome) Succeeded() bool {
	return o.Err == "" && o.ExitCode == 0
}

// Invoker runs the compiled program.
type Invoker struct {
	Executor tactile.Executor
	Binary   string
	WorkDir  string
	// MaxOutputBytes caps the captured output; 0 means unlimited.
	MaxOutputBytes int64
}

// NewInvoker creates an invoker for binary running in workDir.
func NewInvoker(exec tactile.Executor, binary, workDir string, maxOutput int64) *Invoker {
	return &Invoker{
		Executor:       exec,
		Binary:         binary,
		WorkDir:        workDir,
		MaxOutputBytes: maxOutput,
	}
}

// Invoke runs the program with p and blocks until it exits.
func (inv *Invoker) Invoke(ctx context.Context, p Params) Outcome {
	args := p.Args()
	out := Outcome{
		Args:        args,
		CommandLine: CommandLine(inv.Binary, args),
		ExitCode:    -1,
	}

	cmd := tactile.Command{
		Binary:           inv.Binary,
		Arguments:        args,
		WorkingDirectory: inv.WorkDir,
	}
	if inv.MaxOutputBytes > 0 {
		cmd.Limits = &tactile.ResourceLimits{MaxOutputBytes: inv.MaxOutputBytes}
	}

	logging.RunnerDebug("Invoking: %s", out.CommandLine)
	res, err := inv.Executor.Execute(ctx, cmd)
	if err != nil {
		out.Err = err.Error()
		logging.RunnerWarn("Run could not start (seed %d): %v", p.Seed, err)
		return out
	}

	out.Output = res.Output()
	out.Stderr = res.Stderr
	out.Duration = res.Duration
	switch {
	case res.IsError():
		out.Err = res.Error
	case res.Killed:
		out.ExitCode = res.ExitCode
		out.Err = res.KillReason
	default:
		out.ExitCode = res.ExitCode
	}
	if res.Truncated {
		logging.RunnerWarn("Output of seed %d truncated (%d bytes dropped)", p.Seed, res.TruncatedBytes)
	}

	if out.Succeeded() {
		logging.Runner("Seed %d finished in %v", p.Seed, out.Duration)
	} else {
		logging.RunnerWarn("Seed %d failed: %s", p.Seed, out.Status())
	}
	return out
}

// Status describes how the run ended, e.g. "exit status 2".
func (o Outcome) Status() string {
	if o.Err != "" {
		return fmt.Sprintf("exit status %d: %s", o.ExitCode, o.Err)
	}
	return fmt.Sprintf("exit status %d", o.ExitCode)
}

// CommandLine renders binary and args as a POSIX shell command line that
// reproduces the run exactly. Words made only of safe characters are left
// bare; everything else is single quoted.
func CommandLine(binary string, args []string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, shellQuote(binary))
	for _, a := range args {
		words = append(words, shellQuote(a))
	}
	return strings.Join(words, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, unsafeRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, `'`, `'"'"'`) + "'"
}

func unsafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("_-+=/.,:@%", r)
}
