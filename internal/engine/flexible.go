package engine

import (
	"math"
	"math/rand"

	"github.com/piwi3910/BoxFit/internal/model"
)

// FlexConfig controls the flexible-plan search, the fallback used when the
// beam search finds no cluster.
type FlexConfig struct {
	Extent         float64   // side of the virtual box, cm
	Shuffles       int       // shuffled runs in the open virtual box
	BudgetShuffles int       // shuffled runs per footprint budget
	Scales         []float64 // budget side as a fraction of the combined minimum footprint side
	Ratios         []float64 // budget aspect ratios
	Weights        ScoreWeights
}

// DefaultFlexConfig returns the tuned defaults.
func DefaultFlexConfig() FlexConfig {
	return FlexConfig{
		Extent:         1000,
		Shuffles:       24,
		BudgetShuffles: 20,
		Scales:         []float64{0.45, 0.55, 0.65, 0.75, 0.85, 0.95, 1.0},
		Ratios:         []float64{1.0, 1.1, 1.3, 1.5, 1.8, 2.2, 2.8},
		Weights:        FlexScoreWeights,
	}
}

// flexConfigs is the fixed MaxRects portfolio of the flexible plan.
var flexConfigs = []model.PackingConfig{
	{OrientationOrder: model.OrientMinHeightFirst, ProductOrder: model.OrderAreaDesc},
	{OrientationOrder: model.OrientMaxFootprintFirst, ProductOrder: model.OrderAreaDesc},
	{OrientationOrder: model.OrientWidthPriority, ProductOrder: model.OrderEdgeDesc},
	{OrientationOrder: model.OrientDepthPriority, ProductOrder: model.OrderEdgeDesc},
}

type flexSearch struct {
	products []model.Product
	cfg      FlexConfig
	rng      *rand.Rand
	best     *model.Cluster
	score    float64
}

// PlanFlexible runs the MaxRects packer over a portfolio of configurations,
// first in an open virtual box and then inside a grid of width/depth budgets
// that force stacking, and returns the lowest scoring cluster.
func PlanFlexible(products []model.Product, cfg FlexConfig, rng *rand.Rand) (*model.Cluster, error) {
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	if rng == nil {
		rng = newRand(0)
	}
	s := &flexSearch{products: products, cfg: cfg, rng: rng}

	open := model.Box{ID: "virtual", Width: cfg.Extent, Depth: cfg.Extent, Height: cfg.Extent}
	s.tryPortfolio(open, cfg.Shuffles, model.OrientMinHeightFirst)

	sumMin := 0.0
	for _, p := range products {
		sumMin += minFootprint(productOrientations(p))
	}
	baseSide := math.Sqrt(max(1, sumMin))
	for _, sc := range cfg.Scales {
		for _, r := range cfg.Ratios {
			w := baseSide * sc * math.Sqrt(r)
			d := baseSide * sc / math.Sqrt(r)
			s.tryBudget(w, d)
			s.tryBudget(d, w)
		}
	}

	if s.best == nil {
		return nil, strategyFailed(StrategyFlexible, "no configuration completed")
	}
	return s.best, nil
}

func (s *flexSearch) tryBudget(w, d float64) {
	box := model.Box{ID: "virtual-budget", Width: math.Ceil(w), Depth: math.Ceil(d), Height: s.cfg.Extent}
	s.tryPortfolio(box, s.cfg.BudgetShuffles, model.OrientMaxFootprintFirst)
}

func (s *flexSearch) tryPortfolio(box model.Box, shuffles int, shuffleOrient model.OrientationOrder) {
	for _, pc := range flexConfigs {
		s.consider(PackMaxRects(s.products, box, pc, s.rng))
	}
	shuffle := model.PackingConfig{OrientationOrder: shuffleOrient, ProductOrder: model.OrderShuffle}
	for i := 0; i < shuffles; i++ {
		s.consider(PackMaxRects(s.products, box, shuffle, s.rng))
	}
}

func (s *flexSearch) consider(items []model.PlacedItem, err error) {
	if err != nil {
		return
	}
	c := clusterOf(items)
	score := s.cfg.Weights.Score(c.UsedWidth, c.UsedDepth, c.UsedHeight, 0, 0)
	if s.best == nil || score < s.score {
		s.best = &c
		s.score = score
	}
}
