package output

import (
	"math"
	"strconv"
	"strings"

	"expharness/internal/logging"
)

// parseState is threaded through the scan. At most one algorithm block is
// open; entering the instance dump closes it for good.
type parseState struct {
	rec      *Record
	open     *AlgorithmResult
	inDump   bool
	sawBlock bool

	legacyElapsed    *float64
	legacyParetoSize *int
	sawLegacy        bool
}

// Parse converts one captured output into a Record. It never fails: fields
// whose marker is absent or whose value does not parse stay nil.
func Parse(text string) *Record {
	st := &parseState{rec: &Record{Raw: text}}
	for _, line := range splitLines(text) {
		st.step(Classify(line), line)
	}
	st.finish()
	logging.ParserDebug("Parsed output: %d bytes, %d algorithms, dump=%v",
		len(text), st.rec.Algorithms.Len(), st.rec.InstanceSets != nil)
	return st.rec
}

func (st *parseState) step(kind LineKind, line string) {
	rec := st.rec
	switch kind {
	case LineSeed:
		if v, ok := parseInt64(value(line)); ok {
			rec.Seed = &v
		} else {
			rec.Seed = nil
		}
	case LineUniverseSize:
		rec.UniverseSize = parseIntPtr(value(line))
	case LineGroundSetSize:
		rec.GroundSetSize = parseIntPtr(value(line))
	case LineCandidateCount:
		rec.CandidateSetCount = parseIntPtr(value(line))
	case LineK:
		rec.K = parseIntPtr(value(line))

	case LineAlgorithm:
		st.sawBlock = true
		if st.inDump {
			return
		}
		name := value(line)
		if name == "" {
			name = LegacyAlgorithm
		}
		st.open = rec.Algorithms.open(name)
	case LineElapsed:
		if st.open != nil {
			st.open.ElapsedMS = parseFloatPtr(value(line))
		}
	case LineParetoSize:
		if st.open != nil {
			st.open.ParetoFrontSize = parseIntPtr(value(line))
		}
	case LineBestRatio:
		if st.open != nil {
			st.open.BestObjectiveRatio = parseFloatPtr(value(line))
		}

	case LineDumpStart:
		st.inDump = true
		st.open = nil
		if rec.InstanceSets == nil {
			rec.InstanceSets = make(map[string]string)
		}
	case LineDumpUniverse:
		st.setEntry(SetUniverse, line)
	case LineDumpGround:
		st.setEntry(SetGround, line)
	case LineDumpCount:
		st.setEntry(SetFCount, line)
	case LineDumpSet:
		st.setEntry(setKey(line), line)

	case LineLegacyElapsed:
		st.sawLegacy = true
		st.legacyElapsed = parseFloatPtr(value(line))
	case LineLegacyParetoSize:
		st.sawLegacy = true
		st.legacyParetoSize = parseIntPtr(value(line))
	}
}

// setEntry records a dump line; outside the dump section it is ignored.
func (st *parseState) setEntry(key, line string) {
	if !st.inDump || key == "" {
		return
	}
	st.rec.InstanceSets[key] = value(line)
}

// finish applies the legacy fallback: output with no ALGORITMO: line at all
// but with the old timing markers still yields one usable entry.
func (st *parseState) finish() {
	if st.sawBlock || !st.sawLegacy {
		return
	}
	r := st.rec.Algorithms.open(LegacyAlgorithm)
	r.ElapsedMS = st.legacyElapsed
	r.ParetoFrontSize = st.legacyParetoSize
}

// splitLines splits on "\n", dropping the empty element a trailing newline
// would produce. Carriage returns are kept so callers can reproduce lines
// verbatim.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func parseInt64(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v, err == nil
}

func parseIntPtr(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

func parseFloatPtr(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
