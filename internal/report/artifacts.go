package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"expharness/internal/logging"
)

const timestampLayout = "20060102_150405"

// Paths lists the three files of one campaign.
type Paths struct {
	Log      string
	Manifest string
	Summary  string
}

// All returns the paths in log, manifest, summary order.
func (p Paths) All() []string {
	return []string{p.Log, p.Manifest, p.Summary}
}

// PathsFor returns the artifact paths for a campaign of shape started at t.
func PathsFor(dir, shape string, t time.Time) Paths {
	stamp := t.Format(timestampLayout)
	return Paths{
		Log:      filepath.Join(dir, fmt.Sprintf("%s_results_%s.txt", stamp, shape)),
		Manifest: filepath.Join(dir, fmt.Sprintf("%s_manifest_%s.txt", stamp, shape)),
		Summary:  filepath.Join(dir, fmt.Sprintf("%s_summary_%s.csv", stamp, shape)),
	}
}

// Artifacts is the log, manifest and summary of one campaign. It is itself a
// Sink that forwards every call to the three files in that order, stopping
// at the first error.
type Artifacts struct {
	Log      *LogSink
	Manifest *ManifestSink
	Summary  *SummarySink

	paths  Paths
	closed bool
}

// Open creates dir if needed and the three artifact files inside it. If any
// file cannot be created, the ones already created are removed.
func Open(dir, shape string, startedAt time.Time) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	paths := PathsFor(dir, shape, startedAt)
	a := &Artifacts{paths: paths}

	var err error
	if a.Log, err = NewLogSink(paths.Log); err != nil {
		return nil, a.abort(err)
	}
	if a.Manifest, err = NewManifestSink(paths.Manifest); err != nil {
		return nil, a.abort(err)
	}
	if a.Summary, err = NewSummarySink(paths.Summary); err != nil {
		return nil, a.abort(err)
	}

	logging.ReportDebug("Opened artifacts: %s, %s, %s", paths.Log, paths.Manifest, paths.Summary)
	return a, nil
}

// abort closes and removes whatever Open created.
func (a *Artifacts) abort(cause error) error {
	for _, s := range a.files() {
		_ = s.Close()
		_ = os.Remove(s.path)
	}
	return cause
}

func (a *Artifacts) files() []*fileSink {
	var out []*fileSink
	if a.Log != nil {
		out = append(out, a.Log.fileSink)
	}
	if a.Manifest != nil {
		out = append(out, a.Manifest.fileSink)
	}
	if a.Summary != nil {
		out = append(out, a.Summary.fileSink)
	}
	return out
}

func (a *Artifacts) sinks() []Sink {
	return []Sink{a.Log, a.Manifest, a.Summary}
}

// Paths returns the artifact paths.
func (a *Artifacts) Paths() Paths {
	return a.paths
}

// Begin writes the three headers.
func (a *Artifacts) Begin(c Campaign) error {
	for _, s := range a.sinks() {
		if err := s.Begin(c); err != nil {
			return err
		}
	}
	return nil
}

// Record appends one experiment to the three files.
func (a *Artifacts) Record(e Entry) error {
	for _, s := range a.sinks() {
		if err := s.Record(e); err != nil {
			return err
		}
	}
	return nil
}

// End writes the three footers.
func (a *Artifacts) End(t Totals) error {
	for _, s := range a.sinks() {
		if err := s.End(t); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the three files. It is safe to call more than once.
func (a *Artifacts) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	var errs []error
	for _, s := range a.sinks() {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
