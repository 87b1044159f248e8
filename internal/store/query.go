package store

import (
	"database/sql"
	"fmt"
)

// CampaignRow is a stored campaign.
type CampaignRow struct {
	ID           string
	Shape        string
	StartedAt    string
	FinishedAt   string
	UniverseSize int
	Attempted    int
	Succeeded    int
	Failed       int
	SummaryRows  int
}

// ResultRow is one algorithm of one successful experiment, the same grain as
// a summary table row. Nil fields were not reported.
type ResultRow struct {
	Experiment         int
	Seed               int64
	Algorithm          string
	ElapsedMS          *float64
	ParetoFrontSize    *int
	BestObjectiveRatio *float64
	UniverseSize       *int
	GroundSetSize      *int
	CandidateSetCount  *int
	K                  *int
}

// Campaigns lists stored campaigns, oldest first.
func (s *Store) Campaigns() ([]CampaignRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, shape, started_at, COALESCE(finished_at, ''), universe_size,
			COALESCE(attempted, 0), COALESCE(succeeded, 0), COALESCE(failed, 0), COALESCE(summary_rows, 0)
		FROM campaigns ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var out []CampaignRow
	for rows.Next() {
		var c CampaignRow
		if err := rows.Scan(&c.ID, &c.Shape, &c.StartedAt, &c.FinishedAt, &c.UniverseSize,
			&c.Attempted, &c.Succeeded, &c.Failed, &c.SummaryRows); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Rows returns the result rows of a campaign in experiment and algorithm order.
func (s *Store) Rows(campaignID string) ([]ResultRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT e.idx, e.seed, a.algorithm, a.elapsed_ms, a.pareto_front_size, a.best_objective_ratio,
			e.universe_size, e.ground_set_size, e.candidate_set_count, e.k
		FROM algorithm_results a
		JOIN experiments e ON e.id = a.experiment_id
		WHERE e.campaign_id = ? AND e.succeeded = 1
		ORDER BY e.idx, a.position`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []ResultRow
	for rows.Next() {
		var (
			r                      ResultRow
			elapsed, ratio         sql.NullFloat64
			pareto, u, g, count, k sql.NullInt64
		)
		if err := rows.Scan(&r.Experiment, &r.Seed, &r.Algorithm, &elapsed, &pareto, &ratio,
			&u, &g, &count, &k); err != nil {
			return nil, err
		}
		r.ElapsedMS = floatPtr(elapsed)
		r.BestObjectiveRatio = floatPtr(ratio)
		r.ParetoFrontSize = intPtr(pareto)
		r.UniverseSize = intPtr(u)
		r.GroundSetSize = intPtr(g)
		r.CandidateSetCount = intPtr(count)
		r.K = intPtr(k)
		out = append(out, r)
	}
	return out, rows.Err()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
