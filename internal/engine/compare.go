package engine

import (
	"github.com/piwi3910/BoxFit/internal/model"
)

// NamedStrategy is a strategy bound to its configuration, packing into one box.
type NamedStrategy struct {
	Name string
	Pack func(products []model.Product, box model.Box) ([]model.PlacedItem, error)
}

// StrategyResult holds the outcome and statistics of one strategy run
// against a single box.
type StrategyResult struct {
	Name          string             `json:"name"`
	OK            bool               `json:"ok"`
	Items         []model.PlacedItem `json:"items,omitempty"`
	Layers        int                `json:"layers"`
	UsedHeight    float64            `json:"used_height"`
	FloorCoverage float64            `json:"floor_coverage"` // percent of the box floor covered at y = 0
	VolumeUtil    float64            `json:"volume_util"`    // percent of the box volume filled
	Err           string             `json:"error,omitempty"`
}

// Strategies returns the comparison portfolio: greedy, shelf and each fixed
// MaxRects configuration, plus one seeded shuffle run.
func Strategies(seed int64) []NamedStrategy {
	list := []NamedStrategy{
		{Name: StrategyGreedy, Pack: PackGreedy},
		{Name: StrategyShelf, Pack: PackShelf},
	}
	for _, pc := range repackConfigs {
		list = append(list, NamedStrategy{
			Name: MaxRectsName(pc),
			Pack: func(products []model.Product, box model.Box) ([]model.PlacedItem, error) {
				return PackMaxRects(products, box, pc, newRand(seed))
			},
		})
	}
	shuffle := model.PackingConfig{OrientationOrder: model.OrientMinHeightFirst, ProductOrder: model.OrderShuffle, FlatOnly: true}
	list = append(list, NamedStrategy{
		Name: MaxRectsName(shuffle),
		Pack: func(products []model.Product, box model.Box) ([]model.PlacedItem, error) {
			return PackMaxRects(products, box, shuffle, newRand(seed))
		},
	})
	return list
}

// CompareStrategies runs every strategy of the portfolio against box and
// returns the results in portfolio order. This enables side-by-side
// comparison of how well each heuristic fills the same box.
func CompareStrategies(products []model.Product, box model.Box, seed int64) []StrategyResult {
	strategies := Strategies(seed)
	results := make([]StrategyResult, 0, len(strategies))

	for _, st := range strategies {
		res := StrategyResult{Name: st.Name}
		items, err := st.Pack(products, box)
		if err == nil {
			err = Validate(box, products, items)
		}
		if err != nil {
			res.Err = err.Error()
			results = append(results, res)
			continue
		}

		res.OK = true
		res.Items = items
		res.Layers = len(model.LayerIndices(items))
		res.UsedHeight = clusterOf(items).UsedHeight

		floor, vol := 0.0, 0.0
		for _, it := range items {
			if it.Y == 0 {
				floor += it.Size.Area()
			}
			vol += it.Size.Volume()
		}
		if a := box.FloorArea(); a > 0 {
			res.FloorCoverage = floor / a * 100
		}
		if v := box.Volume(); v > 0 {
			res.VolumeUtil = vol / v * 100
		}
		results = append(results, res)
	}

	return results
}
