package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expharness/internal/report"
	"expharness/internal/runner"
)

// --- scriptedInvoker ---

// scriptedInvoker returns canned outcomes keyed by seed.
type scriptedInvoker struct {
	outputs map[int64]string
	exits   map[int64]int
	calls   []runner.Params

	// cancel, when set, is called after the given number of invocations.
	cancelAfter int
	cancel      context.CancelFunc
}

func (s *scriptedInvoker) Invoke(_ context.Context, p runner.Params) runner.Outcome {
	s.calls = append(s.calls, p)
	if s.cancel != nil && len(s.calls) == s.cancelAfter {
		s.cancel()
	}
	text, ok := s.outputs[p.Seed]
	if !ok {
		text = defaultOutput(p.Seed)
	}
	args := p.Args()
	return runner.Outcome{
		Args:        args,
		CommandLine: runner.CommandLine("build/programa", args),
		Output:      text,
		ExitCode:    s.exits[p.Seed],
	}
}

func defaultOutput(seed int64) string {
	return fmt.Sprintf("Semilla: %d\nU_size: 128\nALGORITMO: greedy\nTIEMPO_MS: 1\nNUM_PARETO: 2\nMEJOR_JACCARD: 0.5\n", seed)
}

// --- recordingSink ---

type recordingSink struct {
	events   []string
	failOn   string
	closed   bool
	lastSeen report.Totals
}

func (r *recordingSink) fail(event string) error {
	r.events = append(r.events, event)
	if strings.HasPrefix(event, r.failOn) && r.failOn != "" {
		return errors.New("sink unavailable")
	}
	return nil
}

func (r *recordingSink) Begin(c report.Campaign) error {
	return r.fail("begin:" + c.Shape)
}

func (r *recordingSink) Record(e report.Entry) error {
	return r.fail(fmt.Sprintf("record:%d", e.Seed))
}

func (r *recordingSink) End(t report.Totals) error {
	r.lastSeen = t
	return r.fail("end")
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}
