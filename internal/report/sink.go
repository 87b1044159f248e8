// Package report writes the three per-campaign artifacts: the results log,
// the reproducibility manifest and the summary table.
//
// Every sink is append only and flushed after each entry, so a campaign that
// dies halfway leaves files that are a valid prefix of the complete ones.
package report

import (
	"strings"
	"time"

	"expharness/internal/output"
	"expharness/internal/runner"
)

// Sink receives a campaign in order: Begin once, Record once per attempted
// experiment, End once. Close releases resources and may be called on any
// path, including after a failed Begin.
type Sink interface {
	Begin(c Campaign) error
	Record(e Entry) error
	End(t Totals) error
	Close() error
}

// Campaign describes a campaign before its first run.
type Campaign struct {
	ID        string
	Shape     string
	StartedAt time.Time

	UniverseSize int
	Binary       string
	Seeds        []int64

	// Template holds the per-run arguments; its Seed is ignored.
	Template runner.Params
}

// AlgorithmsLabel names the algorithms the campaign asked for.
func (c Campaign) AlgorithmsLabel() string {
	if c.Template.Algorithm == "" {
		return "program default"
	}
	return c.Template.Algorithm
}

// Entry is one attempted experiment.
type Entry struct {
	Index int // 1-based
	Total int
	Seed  int64

	Outcome runner.Outcome
	Record  *output.Record
}

// Totals summarizes a finished campaign.
type Totals struct {
	Attempted   int
	Succeeded   int
	Failed      int
	SummaryRows int
	Elapsed     time.Duration
}

const ruleWidth = 80

var rule = strings.Repeat("=", ruleWidth)

const dateLayout = "2006-01-02 15:04:05"
