package report

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"expharness/internal/output"
)

// SummaryHeader is the first row of every summary table.
var SummaryHeader = []string{
	"experiment",
	"seed",
	"algorithm",
	"elapsed_ms",
	"pareto_front_size",
	"best_objective_ratio",
	"universe_size",
	"ground_set_size",
	"candidate_set_count",
	"k",
}

// SummarySink writes the summary table: one CSV row per algorithm of every
// successful experiment. Unknown values are written as output.Unknown.
type SummarySink struct {
	*fileSink
	csv  *csv.Writer
	rows int
}

// NewSummarySink creates the summary file at path. The file must not exist.
func NewSummarySink(path string) (*SummarySink, error) {
	fs, err := createFile(path)
	if err != nil {
		return nil, err
	}
	return &SummarySink{fileSink: fs, csv: csv.NewWriter(fs.w)}, nil
}

// Rows returns the number of data rows written so far.
func (s *SummarySink) Rows() int {
	return s.rows
}

// Begin writes the header row.
func (s *SummarySink) Begin(Campaign) error {
	_ = s.csv.Write(SummaryHeader)
	return s.flushCSV()
}

// Record writes one row per reported algorithm. Failed runs add nothing.
func (s *SummarySink) Record(e Entry) error {
	if !e.Outcome.Succeeded() || e.Record == nil {
		return nil
	}
	for _, row := range SummaryRows(e) {
		_ = s.csv.Write(row)
		s.rows++
	}
	return s.flushCSV()
}

// End flushes; the table has no footer.
func (s *SummarySink) End(Totals) error {
	return s.flushCSV()
}

func (s *SummarySink) flushCSV() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return s.flush()
}

// SummaryRows renders the rows of one entry in algorithm order.
func SummaryRows(e Entry) [][]string {
	rec := e.Record
	names := rec.Algorithms.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		r, _ := rec.Algorithms.Get(name)
		rows = append(rows, []string{
			strconv.Itoa(e.Index),
			strconv.FormatInt(e.Seed, 10),
			name,
			output.FormatFloat(r.ElapsedMS),
			output.FormatInt(r.ParetoFrontSize),
			output.FormatFloat(r.BestObjectiveRatio),
			output.FormatInt(rec.UniverseSize),
			output.FormatInt(rec.GroundSetSize),
			output.FormatInt(rec.CandidateSetCount),
			output.FormatInt(rec.K),
		})
	}
	return rows
}
