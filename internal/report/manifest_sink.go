package report

import (
	"sort"
	"strconv"
	"strings"

	"expharness/internal/output"
)

// ManifestSink writes the reproducibility manifest: the effective parameters,
// then per experiment the instance shape and the exact command that
// regenerates it.
type ManifestSink struct {
	*fileSink
}

// NewManifestSink creates the manifest file at path. The file must not exist.
func NewManifestSink(path string) (*ManifestSink, error) {
	fs, err := createFile(path)
	if err != nil {
		return nil, err
	}
	return &ManifestSink{fs}, nil
}

// Begin writes the header and the parameter block.
func (s *ManifestSink) Begin(c Campaign) error {
	p := c.Template
	s.printf("%s\n", rule)
	s.printf("REPRODUCIBILITY DATA - %s\n", strings.ToUpper(c.Shape))
	s.printf("Campaign: %s\n", c.ID)
	s.printf("Date: %s\n", c.StartedAt.Format(dateLayout))
	s.printf("%s\n\n", rule)

	s.printf("PARAMETERS:\n")
	s.printf("  U_SIZE: %d\n", c.UniverseSize)
	s.printf("  G_SIZE_MIN: %d\n", p.GroundSetMin)
	s.printf("  F_N_MIN: %d\n", p.CandidateCountMin)
	s.printf("  F_N_MAX: %d\n", p.CandidateCountMax)
	s.printf("  FI_SIZE_MIN: %d\n", p.CandidateSizeMin)
	s.printf("  FI_SIZE_MAX: %d\n", p.CandidateSizeMax)
	s.printf("  K: %d\n", p.K)
	s.printf("  SEEDS: %s\n", formatSeeds(c.Seeds))
	s.printf("  ALGORITHMS: %s\n", c.AlgorithmsLabel())
	if p.TimeLimit > 0 {
		s.printf("  TIME_LIMIT: %ds\n", p.TimeLimit)
	} else {
		s.printf("  TIME_LIMIT: none\n")
	}
	if len(p.ExtraArgs) > 0 {
		s.printf("  EXTRA_ARGS: %s\n", strings.Join(p.ExtraArgs, " "))
	}
	s.printf("  BINARY: %s\n", c.Binary)
	return s.flush()
}

// Record writes one experiment.
func (s *ManifestSink) Record(e Entry) error {
	rec := e.Record
	if rec == nil {
		rec = &output.Record{}
	}

	s.printf("\n%s\n", rule)
	s.printf("EXPERIMENT %d - SEED: %d\n", e.Index, e.Seed)
	s.printf("%s\n", rule)
	if e.Outcome.Succeeded() {
		s.printf("Status: ok\n")
	} else {
		s.printf("Status: FAILED (%s)\n", e.Outcome.Status())
	}
	s.printf("Universe size U: %s\n", output.FormatInt(rec.UniverseSize))
	s.printf("Ground set size G: %s\n", output.FormatInt(rec.GroundSetSize))
	s.printf("Candidate sets in F: %s\n", output.FormatInt(rec.CandidateSetCount))
	s.printf("k: %s\n", output.FormatInt(rec.K))

	if rec.InstanceSets != nil {
		s.printf("\nINSTANCE SETS:\n")
		s.printf("  U (elements): %s\n", setOrUnknown(rec.InstanceSets, output.SetUniverse))
		s.printf("  G (elements): %s\n", setOrUnknown(rec.InstanceSets, output.SetGround))
		s.printf("  Number of F sets: %s\n", setOrUnknown(rec.InstanceSets, output.SetFCount))
		s.printf("  F_i:\n")
		for _, key := range candidateKeys(rec.InstanceSets) {
			s.printf("    %s: %s\n", key, rec.InstanceSets[key])
		}
	}

	s.printf("\nCommand to reproduce:\n")
	s.printf("  %s\n", e.Outcome.CommandLine)
	return s.flush()
}

// End writes the footer.
func (s *ManifestSink) End(t Totals) error {
	s.printf("\n%s\n", rule)
	s.printf("END OF MANIFEST: %d experiments, %d failed\n", t.Attempted, t.Failed)
	s.printf("%s\n", rule)
	return s.flush()
}

func formatSeeds(seeds []int64) string {
	parts := make([]string, len(seeds))
	for i, seed := range seeds {
		parts[i] = strconv.FormatInt(seed, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func setOrUnknown(sets map[string]string, key string) string {
	if v, ok := sets[key]; ok {
		return v
	}
	return output.Unknown
}

// candidateKeys returns the F<i> keys in numeric order.
func candidateKeys(sets map[string]string) []string {
	type key struct {
		name string
		n    int
	}
	var keys []key
	for name := range sets {
		if name == output.SetFCount || !strings.HasPrefix(name, "F") {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		keys = append(keys, key{name, n})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].n != keys[j].n {
			return keys[i].n < keys[j].n
		}
		return keys[i].name < keys[j].name
	})

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.name
	}
	return names
}
