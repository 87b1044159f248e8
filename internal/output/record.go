// Package output turns the text printed by the optimization program into
// typed records, and strips the raw instance dump from text headed for the
// human-readable log.
//
// The grammar is line oriented and substring based: a marker such as
// "TIEMPO_MS:" is recognized anywhere in a line, exactly as the program
// prints it. Text that happens to contain a marker will be read as one; the
// program's output format is the contract and is not second-guessed here.
package output

import (
	"strconv"
)

// Unknown is how an absent value is rendered. A missing metric is never
// rendered as zero.
const Unknown = "N/A"

// LegacyAlgorithm names the single entry synthesized from the old output
// format, which had no per-algorithm blocks.
const LegacyAlgorithm = "unknown"

// Reserved instance-set keys. Candidate sets use "F<i>".
const (
	SetUniverse = "U"
	SetGround   = "G"
	SetFCount   = "F_count"
)

// AlgorithmResult holds the metrics one algorithm reported. Nil means the
// marker line was absent or its value unreadable.
type AlgorithmResult struct {
	ElapsedMS          *float64 `json:"elapsed_ms"`
	ParetoFrontSize    *int     `json:"pareto_front_size"`
	BestObjectiveRatio *float64 `json:"best_objective_ratio"`
}

// Record is everything parsed from one run's output.
type Record struct {
	Seed              *int64 `json:"seed"`
	UniverseSize      *int   `json:"universe_size"`
	GroundSetSize     *int   `json:"ground_set_size"`
	CandidateSetCount *int   `json:"candidate_set_count"`
	K                 *int   `json:"k"`

	Algorithms Algorithms `json:"algorithms"`

	// InstanceSets is nil unless the output contained an instance dump.
	InstanceSets map[string]string `json:"instance_sets,omitempty"`

	Raw string `json:"-"`
}

// Algorithms is an insertion-ordered map of algorithm name to result.
type Algorithms struct {
	names   []string
	results map[string]*AlgorithmResult
}

// open returns a fresh result for name. A name seen before keeps its
// position but loses its previous metrics.
func (a *Algorithms) open(name string) *AlgorithmResult {
	if a.results == nil {
		a.results = make(map[string]*AlgorithmResult)
	}
	r := &AlgorithmResult{}
	if _, seen := a.results[name]; !seen {
		a.names = append(a.names, name)
	}
	a.results[name] = r
	return r
}

// Names returns the algorithm names in order of first appearance.
func (a Algorithms) Names() []string {
	return append([]string(nil), a.names...)
}

// Get returns the result for name.
func (a Algorithms) Get(name string) (*AlgorithmResult, bool) {
	r, ok := a.results[name]
	return r, ok
}

// Len returns the number of algorithms.
func (a Algorithms) Len() int {
	return len(a.names)
}

// MarshalJSON keeps the output order stable for the inspect command.
func (a Algorithms) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, name := range a.names {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, name)
		buf = append(buf, ':')
		r := a.results[name]
		buf = append(buf, `{"elapsed_ms":`...)
		buf = appendJSONFloat(buf, r.ElapsedMS)
		buf = append(buf, `,"pareto_front_size":`...)
		if r.ParetoFrontSize == nil {
			buf = append(buf, "null"...)
		} else {
			buf = strconv.AppendInt(buf, int64(*r.ParetoFrontSize), 10)
		}
		buf = append(buf, `,"best_objective_ratio":`...)
		buf = appendJSONFloat(buf, r.BestObjectiveRatio)
		buf = append(buf, '}')
	}
	return append(buf, '}'), nil
}

func appendJSONFloat(buf []byte, f *float64) []byte {
	if f == nil {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, *f, 'g', -1, 64)
}

// FormatInt renders an optional integer, or Unknown.
func FormatInt(v *int) string {
	if v == nil {
		return Unknown
	}
	return strconv.Itoa(*v)
}

// FormatInt64 renders an optional 64-bit integer, or Unknown.
func FormatInt64(v *int64) string {
	if v == nil {
		return Unknown
	}
	return strconv.FormatInt(*v, 10)
}

// FormatFloat renders an optional number in its shortest exact form, or Unknown.
func FormatFloat(v *float64) string {
	if v == nil {
		return Unknown
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
