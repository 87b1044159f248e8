package campaign

import (
	"fmt"

	"expharness/internal/config"
	"expharness/internal/runner"
)

// Shape defaults.
const (
	defaultSmallAlgorithm = "all"
	defaultSmallTimeLimit = 150
	defaultBatchAlgorithm = "both"
)

var defaultGeneticArgs = []string{"--no-test"}

// Plan is a campaign resolved from configuration: the seeds to run in order
// and the arguments shared by every run.
type Plan struct {
	Shape      Shape
	Seeds      []int64
	Template   runner.Params
	ResultsDir string
}

// ResolvePlan builds the plan for shape. A non-empty algorithm overrides the
// configured selector of the small and batch shapes.
func ResolvePlan(cfg *config.Config, shape Shape, algorithm string) (*Plan, error) {
	var (
		block *config.CampaignConfig
		dir   string
	)
	switch shape {
	case ShapeSmall:
		block, dir = cfg.Small, cfg.Paths.ResultsSmall
	case ShapeBatch:
		block, dir = cfg.Batch, cfg.Paths.ResultsBatch
	case ShapeGenetic:
		block, dir = cfg.Genetic, cfg.Paths.ResultsGenetic
	default:
		return nil, fmt.Errorf("unknown campaign shape %q", shape)
	}
	if block == nil {
		return nil, fmt.Errorf("%w: %s", ErrShapeNotConfigured, shape)
	}

	plan := &Plan{
		Shape:      shape,
		ResultsDir: dir,
		Template: runner.Params{
			Algorithm:         block.Algorithm,
			GroundSetMin:      block.GroundSetMin,
			CandidateCountMin: block.CandidateCountMin,
			CandidateCountMax: block.CandidateCountMax,
			CandidateSizeMin:  block.CandidateSizeMin,
			CandidateSizeMax:  block.CandidateSizeMax,
			K:                 block.K,
			ExtraArgs:         append([]string(nil), block.ExtraArgs...),
		},
	}
	if block.TimeLimit != nil {
		plan.Template.TimeLimit = *block.TimeLimit
	}

	switch shape {
	case ShapeSmall:
		plan.Seeds = truncate(block.Seeds, block.Instances)
		if plan.Template.Algorithm == "" {
			plan.Template.Algorithm = defaultSmallAlgorithm
		}
		if block.TimeLimit == nil {
			plan.Template.TimeLimit = defaultSmallTimeLimit
		}
	case ShapeBatch:
		if block.SeedStart != nil {
			plan.Seeds = seedRange(*block.SeedStart, block.Instances)
		}
		if plan.Template.Algorithm == "" {
			plan.Template.Algorithm = defaultBatchAlgorithm
		}
	case ShapeGenetic:
		plan.Seeds = truncate(block.Seeds, block.Instances)
		if block.ExtraArgs == nil {
			plan.Template.ExtraArgs = append([]string(nil), defaultGeneticArgs...)
		}
	}

	if algorithm != "" && shape != ShapeGenetic {
		plan.Template.Algorithm = algorithm
	}
	if len(plan.Seeds) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSeeds, shape)
	}
	return plan, nil
}

// truncate keeps the first n seeds; n <= 0 keeps them all.
func truncate(seeds []int64, n int) []int64 {
	if n > 0 && n < len(seeds) {
		seeds = seeds[:n]
	}
	return append([]int64(nil), seeds...)
}

func seedRange(start int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = start + int64(i)
	}
	return seeds
}
