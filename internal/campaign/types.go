package campaign

import (
	"errors"
	"fmt"

	"expharness/internal/report"
)

var (
	// ErrShapeNotConfigured reports a campaign whose parameter block is absent.
	ErrShapeNotConfigured = errors.New("campaign shape not configured")
	// ErrNoSeeds reports a campaign that resolves to an empty seed list.
	ErrNoSeeds = errors.New("campaign has no seeds")
)

// Shape selects a campaign's parameter block and defaults.
type Shape string

const (
	// ShapeSmall runs every algorithm on a short explicit seed list.
	ShapeSmall Shape = "small"
	// ShapeBatch runs the scalable algorithms on a contiguous seed range.
	ShapeBatch Shape = "batch"
	// ShapeGenetic runs the program's default pipeline with test mode off.
	ShapeGenetic Shape = "genetic"
)

// Shapes lists every shape in the order "run all" would consider them.
var Shapes = []Shape{ShapeSmall, ShapeBatch, ShapeGenetic}

// ParseShape validates a shape name.
func ParseShape(s string) (Shape, error) {
	for _, shape := range Shapes {
		if string(shape) == s {
			return shape, nil
		}
	}
	return "", fmt.Errorf("unknown campaign shape %q (want small, batch or genetic)", s)
}

// Totals describes a finished campaign.
type Totals struct {
	report.Totals

	CampaignID string
	Shape      Shape
	Paths      report.Paths
}
