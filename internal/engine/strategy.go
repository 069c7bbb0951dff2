package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/piwi3910/BoxFit/internal/model"
)

var (
	// ErrNoFit means no box in the catalog can hold every product.
	ErrNoFit = errors.New("products do not fit any box in the catalog")
	// ErrStrategyFailed means a single strategy could not place every product
	// in the given box.
	ErrStrategyFailed = errors.New("strategy could not place all products")
	// ErrNoProducts is returned when there is nothing to pack.
	ErrNoProducts = errors.New("no products selected")
)

// Strategy names reported in model.Selection.Strategy and comparison results.
const (
	StrategyGreedy   = "greedy"
	StrategyShelf    = "shelf"
	StrategyMaxRects = "maxrects"
	StrategyBeam     = "beam"
	StrategyFlexible = "flexible"
)

func strategyFailed(name string, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", name, ErrStrategyFailed, fmt.Sprintf(format, args...))
}

// newRand returns a generator for the given seed; 0 draws fresh entropy.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// placeItem builds an unfinalized placement of product p.
func placeItem(p model.Product, pos Point, s model.Size) model.PlacedItem {
	return model.PlacedItem{
		ProductID: p.ID,
		X:         pos.X,
		Y:         pos.Y,
		Z:         pos.Z,
		Size:      s,
	}
}

// finalize assigns identifiers and palette colors in placement order.
func finalize(items []model.PlacedItem) []model.PlacedItem {
	for i := range items {
		items[i].ID = model.NewID()
		items[i].Color = model.ColorFor(i)
		items[i].Rotation = model.Rotation{}
	}
	return items
}

// clusterOf measures the extent actually occupied by items.
func clusterOf(items []model.PlacedItem) model.Cluster {
	c := model.Cluster{Items: items}
	for _, it := range items {
		c.UsedWidth = max(c.UsedWidth, it.MaxX())
		c.UsedDepth = max(c.UsedDepth, it.MaxZ())
		c.UsedHeight = max(c.UsedHeight, it.Top())
	}
	return c
}

func indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func byVolumeDesc(products []model.Product) []int {
	idx := indices(len(products))
	sort.SliceStable(idx, func(a, b int) bool {
		return products[idx[a]].Volume() > products[idx[b]].Volume()
	})
	return idx
}

func byBaseAreaDesc(products []model.Product) []int {
	idx := indices(len(products))
	sort.SliceStable(idx, func(a, b int) bool {
		return products[idx[a]].BaseArea() > products[idx[b]].BaseArea()
	})
	return idx
}

// sortAreaDesc orders product indices by listed base area, largest first,
// lower products first on ties.
func sortAreaDesc(products []model.Product, idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := products[idx[a]], products[idx[b]]
		if pa.BaseArea() != pb.BaseArea() {
			return pa.BaseArea() > pb.BaseArea()
		}
		return pa.Height < pb.Height
	})
}

// sortEdgeDesc orders product indices by longest base edge, smaller base
// area first on ties.
func sortEdgeDesc(products []model.Product, idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := products[idx[a]], products[idx[b]]
		ea, eb := max(pa.Width, pa.Depth), max(pb.Width, pb.Depth)
		if ea != eb {
			return ea > eb
		}
		return pa.BaseArea() < pb.BaseArea()
	})
}

func shuffled(rng *rand.Rand, idx []int) []int {
	out := append([]int(nil), idx...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
