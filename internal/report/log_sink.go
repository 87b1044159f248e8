package report

import (
	"strings"
	"time"

	"expharness/internal/output"
)

// LogSink writes the human-readable results log: every run's output with the
// instance dump removed.
type LogSink struct {
	*fileSink
}

// NewLogSink creates the log file at path. The file must not exist.
func NewLogSink(path string) (*LogSink, error) {
	fs, err := createFile(path)
	if err != nil {
		return nil, err
	}
	return &LogSink{fs}, nil
}

// Begin writes the header.
func (s *LogSink) Begin(c Campaign) error {
	s.printf("%s\n", rule)
	s.printf("RESULTS - %s EXPERIMENTS\n", strings.ToUpper(c.Shape))
	s.printf("Campaign: %s\n", c.ID)
	s.printf("Date: %s\n", c.StartedAt.Format(dateLayout))
	s.printf("%s\n\n", rule)
	return s.flush()
}

// Record writes the banner and redacted output of one experiment.
func (s *LogSink) Record(e Entry) error {
	s.printf("\n%s\n", rule)
	s.printf("EXPERIMENT %d/%d - SEED: %d\n", e.Index, e.Total, e.Seed)
	s.printf("%s\n\n", rule)

	s.printf("%s", output.Redact(e.Outcome.Output))
	if !e.Outcome.Succeeded() {
		s.printf("RUN FAILED (%s)\n", e.Outcome.Status())
		if errText := strings.TrimSpace(e.Outcome.Stderr); errText != "" {
			s.printf("%s\n", errText)
		}
	}
	s.printf("[returncode] %d\n", e.Outcome.ExitCode)
	return s.flush()
}

// End writes the footer.
func (s *LogSink) End(t Totals) error {
	s.printf("\n%s\n", rule)
	s.printf("COMPLETED: %d experiments, %d succeeded, %d failed (%s)\n",
		t.Attempted, t.Succeeded, t.Failed, t.Elapsed.Round(time.Millisecond))
	s.printf("%s\n", rule)
	return s.flush()
}
