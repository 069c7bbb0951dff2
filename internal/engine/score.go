package engine

// ScoreWeights is the objective used to rank candidate clusters. Lower
// scores are better.
type ScoreWeights struct {
	Area      float64 `json:"area"`      // per cm² of bounding footprint
	Height    float64 `json:"height"`    // per cm of bounding height
	Volume    float64 `json:"volume"`    // per cm³ of bounding volume (height floored at 1)
	Elevation float64 `json:"elevation"` // per cm the last item sits above the floor
	NonFlat   float64 `json:"non_flat"`  // per cm the last item stands taller than its flattest orientation
}

var (
	// BeamScoreWeights ranks beam-search states.
	BeamScoreWeights = ScoreWeights{Area: 1, Height: 0.05, Volume: 1e-7, Elevation: 0.5, NonFlat: 0.5}
	// FlexScoreWeights ranks flexible-plan candidates.
	FlexScoreWeights = ScoreWeights{Area: 1, Height: 0.01, Volume: 1e-7}
)

// Score evaluates a bounding extent plus the placement penalties of the item
// that produced it.
func (w ScoreWeights) Score(usedW, usedD, usedH, elevation, excessHeight float64) float64 {
	area := usedW * usedD
	return area*w.Area +
		usedH*w.Height +
		area*max(usedH, 1)*w.Volume +
		elevation*w.Elevation +
		excessHeight*w.NonFlat
}
