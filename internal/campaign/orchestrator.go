// Package campaign runs experiment campaigns: one invocation of the
// optimization program per seed, each parsed and appended to the campaign's
// report files before the next seed starts.
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expharness/internal/config"
	"expharness/internal/logging"
	"expharness/internal/output"
	"expharness/internal/report"
	"expharness/internal/runner"
)

// Invoker runs the program once.
type Invoker interface {
	Invoke(ctx context.Context, p runner.Params) runner.Outcome
}

// OrchestratorConfig holds the orchestrator's dependencies.
type OrchestratorConfig struct {
	Config    *config.Config
	Workspace string
	Invoker   Invoker
	Binary    string // recorded in the manifest

	// Algorithm overrides the configured selector of small and batch campaigns.
	Algorithm string

	// ExtraSinks receive every campaign event after the report files. Their
	// errors are logged and never stop a campaign.
	ExtraSinks []report.Sink

	Now   func() time.Time // default time.Now
	NewID func() string    // default uuid.NewString
}

// Orchestrator runs campaigns sequentially.
type Orchestrator struct {
	cfg OrchestratorConfig
}

// NewOrchestrator creates a campaign orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	logging.CampaignDebug("Orchestrator config: workspace=%s, binary=%s, extraSinks=%d",
		cfg.Workspace, cfg.Binary, len(cfg.ExtraSinks))
	return &Orchestrator{cfg: cfg}
}

// Run executes every seed of the shape's plan. A failed run is recorded and
// the campaign continues; only configuration problems, report-file errors
// and cancellation of ctx end it early. Report files written before an early
// end are left in place and stay readable.
func (o *Orchestrator) Run(ctx context.Context, shape Shape) (*Totals, error) {
	plan, err := ResolvePlan(o.cfg.Config, shape, o.cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	startedAt := o.cfg.Now()
	camp := report.Campaign{
		ID:           o.cfg.NewID(),
		Shape:        string(shape),
		StartedAt:    startedAt,
		UniverseSize: o.cfg.Config.UniverseSize,
		Binary:       o.cfg.Binary,
		Seeds:        plan.Seeds,
		Template:     plan.Template,
	}

	dir := config.Resolve(o.cfg.Workspace, plan.ResultsDir)
	arts, err := report.Open(dir, string(shape), startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to open report files: %w", err)
	}
	defer arts.Close()

	logging.Campaign("Starting %s campaign %s: %d experiments -> %s", shape, camp.ID, len(plan.Seeds), dir)
	if err := arts.Begin(camp); err != nil {
		return nil, err
	}
	extras := o.beginExtras(camp)

	totals := report.Totals{}
	n := len(plan.Seeds)
	for i, seed := range plan.Seeds {
		if err := ctx.Err(); err != nil {
			logging.CampaignWarn("Campaign %s interrupted after %d/%d experiments", camp.ID, i, n)
			return nil, fmt.Errorf("campaign interrupted: %w", err)
		}

		p := plan.Template
		p.Seed = seed
		logging.Campaign("Experiment %d/%d (seed %d)", i+1, n, seed)

		out := o.cfg.Invoker.Invoke(ctx, p)
		rec := output.Parse(out.Output)
		logging.CampaignDebug("Seed %d: %d algorithms, %d dump lines redacted",
			seed, rec.Algorithms.Len(), output.RedactedCount(out.Output))

		totals.Attempted++
		if out.Succeeded() {
			totals.Succeeded++
			totals.SummaryRows += rec.Algorithms.Len()
		} else {
			totals.Failed++
			logging.CampaignWarn("Experiment %d (seed %d) failed: %s", i+1, seed, out.Status())
		}

		entry := report.Entry{Index: i + 1, Total: n, Seed: seed, Outcome: out, Record: rec}
		if err := arts.Record(entry); err != nil {
			return nil, fmt.Errorf("failed to record experiment %d: %w", i+1, err)
		}
		for _, s := range extras {
			if err := s.Record(entry); err != nil {
				logging.CampaignWarn("Extra sink failed on experiment %d: %v", i+1, err)
			}
		}
	}

	totals.Elapsed = o.cfg.Now().Sub(startedAt)
	if err := arts.End(totals); err != nil {
		return nil, err
	}
	for _, s := range extras {
		if err := s.End(totals); err != nil {
			logging.CampaignWarn("Extra sink failed to finish: %v", err)
		}
	}
	if err := arts.Close(); err != nil {
		return nil, fmt.Errorf("failed to close report files: %w", err)
	}
	if rows := arts.Summary.Rows(); rows != totals.SummaryRows {
		logging.CampaignWarn("Summary has %d rows, expected %d", rows, totals.SummaryRows)
	}

	logging.Campaign("Campaign %s complete: %d succeeded, %d failed, %d summary rows",
		camp.ID, totals.Succeeded, totals.Failed, totals.SummaryRows)
	return &Totals{
		Totals:     totals,
		CampaignID: camp.ID,
		Shape:      shape,
		Paths:      arts.Paths(),
	}, nil
}

// beginExtras starts the extra sinks and returns those that accepted the
// campaign.
func (o *Orchestrator) beginExtras(c report.Campaign) []report.Sink {
	var ok []report.Sink
	for _, s := range o.cfg.ExtraSinks {
		if err := s.Begin(c); err != nil {
			logging.CampaignWarn("Extra sink disabled for campaign %s: %v", c.ID, err)
			continue
		}
		ok = append(ok, s)
	}
	return ok
}
