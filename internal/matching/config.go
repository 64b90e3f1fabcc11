package matching

import (
	"fmt"
	"math"
)

// Weights defines the share of each sub-score in the overall match score.
type Weights struct {
	Budget       float64
	Region       float64
	PropertyType float64
	RoomCount    float64
	Features     float64
}

// DefaultWeights returns the fixed CRM weighting (30/25/20/15/10).
func DefaultWeights() Weights {
	return Weights{
		Budget:       0.30,
		Region:       0.25,
		PropertyType: 0.20,
		RoomCount:    0.15,
		Features:     0.10,
	}
}

// Validate checks that the weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"budget":        w.Budget,
		"region":        w.Region,
		"property_type": w.PropertyType,
		"room_count":    w.RoomCount,
		"features":      w.Features,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", name, v)
		}
	}
	sum := w.Budget + w.Region + w.PropertyType + w.RoomCount + w.Features
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %v", sum)
	}
	return nil
}

// Budget tolerance bands, as fractions of the violated bound.
const (
	budgetNearBand = 0.10
	budgetFarBand  = 0.20
)

const (
	scoreFull    = 100.0
	scoreNeutral = 50.0
	scoreNone    = 0.0

	budgetSlightlyUnder = 80.0
	budgetUnder         = 50.0
	budgetSlightlyOver  = 70.0
	budgetOver          = 40.0

	regionCityOnly = 60.0
	roomAdjacent   = 60.0

	// featureFloor is given to listings with none of the counted amenities.
	featureFloor = 30.0
	// featureDenominator is the number of tracked feature flags, of which only
	// countedFeatures take part in the count.
	featureDenominator = 6.0
	featureRichCount   = 3
)

// Tier is a qualitative band of the 0..100 match score.
type Tier struct {
	Min   int    `json:"min"`
	Label string `json:"label"`
	Color string `json:"color"`
}

//nolint:gochecknoglobals // fixed presentation breakpoints, ordered from best to worst
var tiers = []Tier{
	{Min: 80, Label: "excellent", Color: "green"},
	{Min: 60, Label: "good", Color: "blue"},
	{Min: 40, Label: "medium", Color: "yellow"},
	{Min: 20, Label: "low", Color: "orange"},
	{Min: math.MinInt, Label: "weak", Color: "red"},
}
