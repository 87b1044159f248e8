package output

import (
	"regexp"
	"strings"
)

// LineKind tags a line of program output.
type LineKind int

const (
	LineOther LineKind = iota

	// Instance header
	LineSeed
	LineUniverseSize
	LineGroundSetSize
	LineCandidateCount
	LineK

	// Algorithm block
	LineAlgorithm
	LineElapsed
	LineParetoSize
	LineBestRatio

	// Instance dump
	LineDumpStart
	LineDumpUniverse
	LineDumpGround
	LineDumpCount
	LineDumpSet

	// Old single-algorithm format
	LineLegacyElapsed
	LineLegacyParetoSize
)

var kindNames = map[LineKind]string{
	LineOther:            "other",
	LineSeed:             "seed",
	LineUniverseSize:     "universe_size",
	LineGroundSetSize:    "ground_set_size",
	LineCandidateCount:   "candidate_count",
	LineK:                "k",
	LineAlgorithm:        "algorithm",
	LineElapsed:          "elapsed",
	LineParetoSize:       "pareto_size",
	LineBestRatio:        "best_ratio",
	LineDumpStart:        "dump_start",
	LineDumpUniverse:     "dump_universe",
	LineDumpGround:       "dump_ground",
	LineDumpCount:        "dump_count",
	LineDumpSet:          "dump_set",
	LineLegacyElapsed:    "legacy_elapsed",
	LineLegacyParetoSize: "legacy_pareto_size",
}

func (k LineKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// Markers printed by the optimization program.
const (
	markerSeed           = "Semilla:"
	markerUniverseSize   = "U_size:"
	markerGroundSetSize  = "G_size:"
	markerCandidateCount = "F_count:"
	markerK              = "k:"

	markerAlgorithm  = "ALGORITMO:"
	markerElapsed    = "TIEMPO_MS:"
	markerParetoSize = "NUM_PARETO:"
	markerBestRatio  = "MEJOR_JACCARD:"

	markerDumpStart    = "=== CONJUNTOS ==="
	markerDumpUniverse = "UNIVERSO_U:"
	markerDumpGround   = "CONJUNTO_G:"
	markerDumpCount    = "NUM_CONJUNTOS_F:"

	markerLegacyElapsed    = "Tiempo_ejecucion_ms:"
	markerLegacyParetoSize = "Numero_soluciones_pareto:"
)

// setLine matches a candidate-set line such as "F12: 3,5,9,".
var setLine = regexp.MustCompile(`^F(\d+)\s*:`)

// substringKinds are checked in order; the first marker contained in the
// line wins.
var substringKinds = []struct {
	marker string
	kind   LineKind
}{
	{markerSeed, LineSeed},
	{markerUniverseSize, LineUniverseSize},
	{markerGroundSetSize, LineGroundSetSize},
	{markerCandidateCount, LineCandidateCount},
}

var blockKinds = []struct {
	marker string
	kind   LineKind
}{
	{markerAlgorithm, LineAlgorithm},
	{markerElapsed, LineElapsed},
	{markerParetoSize, LineParetoSize},
	{markerBestRatio, LineBestRatio},
}

var dumpKinds = []struct {
	marker string
	kind   LineKind
}{
	{markerDumpUniverse, LineDumpUniverse},
	{markerDumpGround, LineDumpGround},
	{markerDumpCount, LineDumpCount},
}

// Classify tags a line. Header markers take precedence over block markers,
// which take precedence over the dump start and dump contents. Legacy
// markers are reported only when nothing else matched.
//
// Dump-content kinds are returned regardless of section; whether they count
// is the parser's decision.
func Classify(line string) LineKind {
	for _, m := range substringKinds {
		if strings.Contains(line, m.marker) {
			return m.kind
		}
	}
	left := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(left, markerK) {
		return LineK
	}
	for _, m := range blockKinds {
		if strings.Contains(line, m.marker) {
			return m.kind
		}
	}
	if strings.TrimSpace(line) == markerDumpStart {
		return LineDumpStart
	}
	for _, m := range dumpKinds {
		if strings.HasPrefix(left, m.marker) {
			return m.kind
		}
	}
	if setLine.MatchString(left) {
		return LineDumpSet
	}
	if strings.Contains(line, markerLegacyElapsed) {
		return LineLegacyElapsed
	}
	if strings.Contains(line, markerLegacyParetoSize) {
		return LineLegacyParetoSize
	}
	return LineOther
}

// value returns the text after the first colon, trimmed.
func value(line string) string {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[i+1:])
}

// setKey returns "F<digits>" for a candidate-set line.
func setKey(line string) string {
	m := setLine.FindStringSubmatch(strings.TrimLeft(line, " \t"))
	if m == nil {
		return ""
	}
	return "F" + m[1]
}
