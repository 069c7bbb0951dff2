package engine

import (
	"math/rand"
	"sort"

	"github.com/piwi3910/BoxFit/internal/model"
)

// Options configures box selection.
type Options struct {
	Seed           int64 // 0 draws fresh entropy for every ChooseBox call
	Beam           BeamConfig
	Flex           FlexConfig
	RepackShuffles int
}

// DefaultOptions returns the tuned defaults with a fresh seed per run.
func DefaultOptions() Options {
	return Options{
		Beam:           DefaultBeamConfig(),
		Flex:           DefaultFlexConfig(),
		RepackShuffles: 8,
	}
}

// OptionsFromConfig builds Options from the application config. Zero knobs
// keep their defaults.
func OptionsFromConfig(cfg model.AppConfig) Options {
	opts := DefaultOptions()
	opts.Seed = cfg.Seed
	if cfg.BeamWidth > 0 {
		opts.Beam.Width = cfg.BeamWidth
	}
	if cfg.BranchPerState > 0 {
		opts.Beam.BranchPerState = cfg.BranchPerState
	}
	if cfg.AnchorLimit > 0 {
		opts.Beam.AnchorLimit = cfg.AnchorLimit
	}
	if cfg.RandomOrderings > 0 {
		opts.Beam.RandomOrderings = cfg.RandomOrderings
	}
	if cfg.FlexShuffles > 0 {
		opts.Flex.Shuffles = cfg.FlexShuffles
	}
	if cfg.BudgetShuffles > 0 {
		opts.Flex.BudgetShuffles = cfg.BudgetShuffles
	}
	if cfg.RepackShuffles > 0 {
		opts.RepackShuffles = cfg.RepackShuffles
	}
	return opts
}

// repackConfigs are tried in order when re-packing into a matched box.
var repackConfigs = []model.PackingConfig{
	{OrientationOrder: model.OrientMinHeightFirst, ProductOrder: model.OrderAreaDesc, FlatOnly: true},
	{OrientationOrder: model.OrientMaxFootprintFirst, ProductOrder: model.OrderEdgeDesc, FlatOnly: true},
	{OrientationOrder: model.OrientWidthPriority, ProductOrder: model.OrderEdgeDesc, FlatOnly: true},
	{OrientationOrder: model.OrientDepthPriority, ProductOrder: model.OrderEdgeDesc, FlatOnly: true},
}

// sweepConfigs are tried per box when no cluster could be matched.
var sweepConfigs = repackConfigs[:2]

// Selector chooses the smallest catalog box that holds a product set.
type Selector struct {
	opts Options
}

func NewSelector(opts Options) *Selector {
	return &Selector{opts: opts}
}

// ChooseBox returns the smallest-volume box that can hold every product
// together with the ordered placement sequence. It returns ErrNoProducts for
// an empty product list and ErrNoFit when no box works.
func (s *Selector) ChooseBox(boxes []model.Box, products []model.Product) (model.Selection, error) {
	if len(products) == 0 {
		return model.Selection{}, ErrNoProducts
	}
	rng := newRand(s.opts.Seed)

	sorted := append([]model.Box(nil), boxes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Volume() < sorted[j].Volume()
	})

	planName := StrategyBeam
	plan, err := PlanBeam(products, s.opts.Beam, rng)
	if err != nil {
		planName = StrategyFlexible
		plan, err = PlanFlexible(products, s.opts.Flex, rng)
	}

	if err == nil {
		if sel, ok := s.fromPlan(sorted, products, plan, planName, rng); ok {
			return sel, nil
		}
	}

	for _, box := range sorted {
		if sel, ok := s.attempt(box, products, StrategyShelf, func() ([]model.PlacedItem, error) {
			return PackShelf(products, box)
		}); ok {
			return sel, nil
		}
		for _, pc := range sweepConfigs {
			if sel, ok := s.attempt(box, products, MaxRectsName(pc), func() ([]model.PlacedItem, error) {
				return PackMaxRects(products, box, pc, rng)
			}); ok {
				return sel, nil
			}
		}
	}
	return model.Selection{}, ErrNoFit
}

// fromPlan matches a virtual cluster against the catalog, first as planned
// and then with width and depth swapped. Smaller boxes with room for the
// combined product volume are repacked before the matched box is accepted.
func (s *Selector) fromPlan(sorted []model.Box, products []model.Product, plan *model.Cluster, name string, rng *rand.Rand) (model.Selection, bool) {
	items := plan.Items
	box, ok := firstHolding(sorted, plan.UsedWidth, plan.UsedDepth, plan.UsedHeight)
	if !ok {
		box, ok = firstHolding(sorted, plan.UsedDepth, plan.UsedWidth, plan.UsedHeight)
		if !ok {
			return model.Selection{}, false
		}
		items, name = swapAxes(plan.Items), name+"-swapped"
	}

	if sel, ok := s.repackBelow(sorted, box, products, rng); ok {
		return sel, true
	}
	if sel, ok := s.repack(box, products, rng); ok {
		return sel, true
	}
	return model.Selection{Box: box, Items: items, Strategy: name}, true
}

// repackBelow tries every box smaller than limit, smallest first, whose
// volume covers the products and which holds each product on its own.
func (s *Selector) repackBelow(sorted []model.Box, limit model.Box, products []model.Product, rng *rand.Rand) (model.Selection, bool) {
	need := 0.0
	for _, p := range products {
		need += p.Volume()
	}
	for _, box := range sorted {
		if box.Volume() >= limit.Volume() {
			break
		}
		if box.Volume() < need || !holdsEach(box, products) {
			continue
		}
		if sel, ok := s.repack(box, products, rng); ok {
			return sel, true
		}
	}
	return model.Selection{}, false
}

// holdsEach reports whether every product fits box in some orientation.
func holdsEach(box model.Box, products []model.Product) bool {
	for _, p := range products {
		fits := false
		for _, o := range productOrientations(p) {
			if o.W <= box.Width && o.D <= box.Depth && o.H <= box.Height {
				fits = true
				break
			}
		}
		if !fits {
			return false
		}
	}
	return true
}

// repack packs the products from scratch into box: shelf first, then the
// fixed MaxRects portfolio, then shuffled MaxRects runs.
func (s *Selector) repack(box model.Box, products []model.Product, rng *rand.Rand) (model.Selection, bool) {
	if sel, ok := s.attempt(box, products, StrategyShelf, func() ([]model.PlacedItem, error) {
		return PackShelf(products, box)
	}); ok {
		return sel, true
	}
	for _, pc := range repackConfigs {
		if sel, ok := s.attempt(box, products, MaxRectsName(pc), func() ([]model.PlacedItem, error) {
			return PackMaxRects(products, box, pc, rng)
		}); ok {
			return sel, true
		}
	}
	shuffle := model.PackingConfig{OrientationOrder: model.OrientMinHeightFirst, ProductOrder: model.OrderShuffle, FlatOnly: true}
	for i := 0; i < s.opts.RepackShuffles; i++ {
		if sel, ok := s.attempt(box, products, MaxRectsName(shuffle), func() ([]model.PlacedItem, error) {
			return PackMaxRects(products, box, shuffle, rng)
		}); ok {
			return sel, true
		}
	}
	return model.Selection{}, false
}

// attempt runs one strategy and accepts its result only if it validates.
func (s *Selector) attempt(box model.Box, products []model.Product, name string, pack func() ([]model.PlacedItem, error)) (model.Selection, bool) {
	items, err := pack()
	if err != nil {
		return model.Selection{}, false
	}
	if Validate(box, products, items) != nil {
		return model.Selection{}, false
	}
	return model.Selection{Box: box, Items: items, Strategy: name}, true
}

// firstHolding returns the first box at least w x d x h.
func firstHolding(sorted []model.Box, w, d, h float64) (model.Box, bool) {
	for _, b := range sorted {
		if b.Width >= w && b.Depth >= d && b.Height >= h {
			return b, true
		}
	}
	return model.Box{}, false
}

// swapAxes mirrors a placement across the x = z plane.
func swapAxes(items []model.PlacedItem) []model.PlacedItem {
	out := make([]model.PlacedItem, len(items))
	for i, it := range items {
		it.X, it.Z = it.Z, it.X
		it.Size.W, it.Size.D = it.Size.D, it.Size.W
		out[i] = it
	}
	return out
}
