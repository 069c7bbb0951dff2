package engine

import (
	"sort"
	"testing"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube(side float64) model.Product {
	return model.NewProduct("cube", side, side, side)
}

func cubes(n int, side float64) []model.Product {
	out := make([]model.Product, n)
	for i := range out {
		out[i] = cube(side)
	}
	return out
}

func item(x, y, z, w, d, h float64) model.PlacedItem {
	return model.PlacedItem{X: x, Y: y, Z: z, Size: model.Size{W: w, D: d, H: h}}
}

// requirePacking checks the packing invariants independently of Validate:
// one item per product, everything inside the box, no intersections and
// full support, then cross-checks with Validate.
func requirePacking(t *testing.T, box model.Box, products []model.Product, items []model.PlacedItem) {
	t.Helper()
	require.Len(t, items, len(products))

	for i, a := range items {
		assert.GreaterOrEqual(t, a.X, 0.0)
		assert.GreaterOrEqual(t, a.Y, 0.0)
		assert.GreaterOrEqual(t, a.Z, 0.0)
		assert.LessOrEqual(t, a.MaxX(), box.Width, "item %d exceeds width", i)
		assert.LessOrEqual(t, a.Top(), box.Height, "item %d exceeds height", i)
		assert.LessOrEqual(t, a.MaxZ(), box.Depth, "item %d exceeds depth", i)
		for j := i + 1; j < len(items); j++ {
			b := items[j]
			overlap := a.X < b.MaxX() && a.MaxX() > b.X &&
				a.Y < b.Top() && a.Top() > b.Y &&
				a.Z < b.MaxZ() && a.MaxZ() > b.Z
			assert.False(t, overlap, "items %d and %d overlap", i, j)
		}
		if a.Y > 0 {
			assert.True(t, HasFullSupport(a.X, a.Z, a.Size.W, a.Size.D, a.Y, items), "item %d floats", i)
		}
	}
	require.NoError(t, Validate(box, products, items))
}

// positions returns the item origins sorted by x, then y, then z.
func positions(items []model.PlacedItem) []Point {
	out := make([]Point, len(items))
	for i, it := range items {
		out[i] = Point{X: it.X, Y: it.Y, Z: it.Z}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].Z < out[j].Z
	})
	return out
}

func mixedProducts() []model.Product {
	return []model.Product{
		model.NewProduct("tray", 20, 10, 5),
		model.NewProduct("tray", 20, 10, 5),
		model.NewProduct("tray", 20, 10, 5),
		model.NewProduct("tray", 20, 10, 5),
		model.NewProduct("block", 10, 10, 10),
		model.NewProduct("block", 10, 10, 10),
		model.NewProduct("bar", 15, 5, 5),
		model.NewProduct("bar", 15, 5, 5),
	}
}
