package engine

import (
	"math/rand"
	"testing"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackGreedy_SingleCubeAtOrigin(t *testing.T) {
	box := model.NewBox("", 20, 20, 20)
	products := []model.Product{cube(10)}

	items, err := PackGreedy(products, box)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, Point{}, Point{X: items[0].X, Y: items[0].Y, Z: items[0].Z})
	assert.Equal(t, model.Size{W: 10, D: 10, H: 10}, items[0].Size)
	assert.Equal(t, products[0].ID, items[0].ProductID)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, model.ColorFor(0), items[0].Color)
}

func TestPackGreedy_LargestVolumeFirst(t *testing.T) {
	box := model.NewBox("", 30, 30, 30)
	small := cube(5)
	large := cube(20)

	items, err := PackGreedy([]model.Product{small, large}, box)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, large.ID, items[0].ProductID)
	requirePacking(t, box, []model.Product{small, large}, items)
}

func TestPackGreedy_SupportStack(t *testing.T) {
	box := model.NewBox("", 20, 20, 15)
	products := []model.Product{
		model.NewProduct("top", 5, 5, 5),
		model.NewProduct("base", 20, 20, 5),
		model.NewProduct("middle", 10, 10, 5),
	}

	items, err := PackGreedy(products, box)
	require.NoError(t, err)
	requirePacking(t, box, products, items)
	assert.Equal(t, []float64{0, 5, 10}, []float64{items[0].Y, items[1].Y, items[2].Y})
}

func TestPackGreedy_Mixed(t *testing.T) {
	box := model.NewBox("", 60, 60, 60)
	products := mixedProducts()
	items, err := PackGreedy(products, box)
	require.NoError(t, err)
	requirePacking(t, box, products, items)
}

func TestPackGreedy_TooLarge(t *testing.T) {
	_, err := PackGreedy([]model.Product{cube(30)}, model.NewBox("", 20, 20, 20))
	assert.ErrorIs(t, err, ErrStrategyFailed)
}

func TestPackGreedy_NoProducts(t *testing.T) {
	_, err := PackGreedy(nil, model.NewBox("", 20, 20, 20))
	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestPackShelf_TwoCubesSideBySide(t *testing.T) {
	box := model.NewBox("", 20, 10, 10)
	products := cubes(2, 10)

	items, err := PackShelf(products, box)
	require.NoError(t, err)
	requirePacking(t, box, products, items)
	assert.Equal(t, []Point{{X: 0}, {X: 10}}, positions(items))
}

func TestPackShelf_StacksLayers(t *testing.T) {
	box := model.NewBox("", 20, 10, 20)
	products := cubes(4, 10)

	items, err := PackShelf(products, box)
	require.NoError(t, err)
	requirePacking(t, box, products, items)
	assert.Equal(t, []Point{{X: 0}, {X: 0, Y: 10}, {X: 10}, {X: 10, Y: 10}}, positions(items))
	assert.Equal(t, 0.0, items[0].Y)
	assert.Equal(t, 0.0, items[1].Y)
}

func TestPackShelf_OpensShelvesAlongDepth(t *testing.T) {
	box := model.NewBox("", 60, 60, 60)
	products := mixedProducts()

	items, err := PackShelf(products, box)
	require.NoError(t, err)
	requirePacking(t, box, products, items)
	for _, it := range items {
		assert.Equal(t, 0.0, it.Y, "everything fits on the floor")
	}
}

func TestPackShelf_UsesFlatOrientation(t *testing.T) {
	box := model.NewBox("", 30, 30, 30)
	products := []model.Product{model.NewProduct("upright", 5, 10, 20)}

	items, err := PackShelf(products, box)
	require.NoError(t, err)
	assert.Equal(t, 5.0, items[0].Size.H)
}

func TestPackShelf_OutOfHeight(t *testing.T) {
	_, err := PackShelf(cubes(3, 10), model.NewBox("", 20, 10, 10))
	assert.ErrorIs(t, err, ErrStrategyFailed)
}

func TestPackMaxRects_TwoCubesSideBySide(t *testing.T) {
	box := model.NewBox("", 20, 10, 10)
	products := cubes(2, 10)

	items, err := PackMaxRects(products, box, model.DefaultPackingConfig(), nil)
	require.NoError(t, err)
	requirePacking(t, box, products, items)
	assert.Equal(t, []Point{{X: 0}, {X: 10}}, positions(items))
}

func TestPackMaxRects_StacksOnSupportSurfaces(t *testing.T) {
	box := model.NewBox("", 20, 10, 20)
	products := cubes(4, 10)

	items, err := PackMaxRects(products, box, model.DefaultPackingConfig(), nil)
	require.NoError(t, err)
	requirePacking(t, box, products, items)
	assert.Equal(t, []Point{{X: 0}, {X: 0, Y: 10}, {X: 10}, {X: 10, Y: 10}}, positions(items))
}

func TestPackMaxRects_FlatOnlyPrefersLowOrientation(t *testing.T) {
	box := model.NewBox("", 30, 10, 30)
	products := []model.Product{model.NewProduct("plank", 30, 10, 5)}

	items, err := PackMaxRects(products, box, model.DefaultPackingConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, items[0].Size.H)
}

func TestPackMaxRects_FlatOnlyFallsBackToUprightOrientation(t *testing.T) {
	box := model.NewBox("", 10, 12, 20)
	products := []model.Product{model.NewProduct("tile", 12, 12, 4)}

	items, err := PackMaxRects(products, box, model.DefaultPackingConfig(), nil)
	require.NoError(t, err)
	requirePacking(t, box, products, items)
	assert.Equal(t, model.Size{W: 4, D: 12, H: 12}, items[0].Size)
}

func TestPackMaxRects_AllConfigurations(t *testing.T) {
	box := model.NewBox("", 60, 60, 60)
	products := mixedProducts()

	for _, cfg := range append(repackConfigs,
		model.PackingConfig{OrientationOrder: model.OrientMinHeightFirst, ProductOrder: model.OrderShuffle, FlatOnly: true},
		model.PackingConfig{OrientationOrder: model.OrientWidthPriority, ProductOrder: model.OrderEdgeDesc},
	) {
		t.Run(MaxRectsName(cfg), func(t *testing.T) {
			items, err := PackMaxRects(products, box, cfg, rand.New(rand.NewSource(1)))
			require.NoError(t, err)
			requirePacking(t, box, products, items)
		})
	}
}

func TestPackMaxRects_ShuffleIsReproducible(t *testing.T) {
	box := model.NewBox("", 60, 60, 60)
	products := mixedProducts()
	cfg := model.PackingConfig{OrientationOrder: model.OrientMinHeightFirst, ProductOrder: model.OrderShuffle, FlatOnly: true}

	a, err := PackMaxRects(products, box, cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	b, err := PackMaxRects(products, box, cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].ProductID, b[i].ProductID)
		assert.Equal(t, a[i].Size, b[i].Size)
		assert.Equal(t, Point{X: a[i].X, Y: a[i].Y, Z: a[i].Z}, Point{X: b[i].X, Y: b[i].Y, Z: b[i].Z})
	}
}

func TestPackMaxRects_TooLarge(t *testing.T) {
	_, err := PackMaxRects([]model.Product{cube(30)}, model.NewBox("", 20, 20, 20), model.DefaultPackingConfig(), nil)
	assert.ErrorIs(t, err, ErrStrategyFailed)
}

func TestMaxRectsName(t *testing.T) {
	assert.Equal(t, "maxrects(minHeightFirst/areaDesc/flat)", MaxRectsName(model.DefaultPackingConfig()))
	assert.Equal(t, "maxrects(depthPriority/edgeDesc/any)", MaxRectsName(model.PackingConfig{
		OrientationOrder: model.OrientDepthPriority,
		ProductOrder:     model.OrderEdgeDesc,
	}))
}
