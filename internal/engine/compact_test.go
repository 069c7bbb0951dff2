package engine

import (
	"testing"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAnchors_EmptyBox(t *testing.T) {
	anchors := nextAnchors(nil, model.Box{Width: 10, Depth: 10, Height: 10})
	assert.Equal(t, []Point{{}}, anchors)
}

func TestNextAnchors_AroundOneItem(t *testing.T) {
	box := model.Box{Width: 20, Depth: 20, Height: 20}
	anchors := nextAnchors([]model.PlacedItem{item(0, 0, 0, 10, 10, 10)}, box)

	require.Len(t, anchors, 8)
	assert.Equal(t, Point{}, anchors[0])
	assert.Equal(t, []Point{{X: 10}, {Y: 10}, {Z: 10}}, anchors[1:4])
	assert.Equal(t, Point{X: 10, Y: 10, Z: 10}, anchors[7])
}

func TestNextAnchors_FiltersOutsideAndDuplicates(t *testing.T) {
	box := model.Box{Width: 5, Depth: 20, Height: 20}
	anchors := nextAnchors([]model.PlacedItem{item(0, 0, 0, 10, 10, 10)}, box)
	assert.Equal(t, []Point{{}, {Y: 10}, {Z: 10}, {Y: 10, Z: 10}}, anchors)

	twins := []model.PlacedItem{item(0, 0, 0, 10, 10, 10), item(0, 0, 0, 10, 10, 10)}
	assert.Len(t, nextAnchors(twins, model.Box{Width: 20, Depth: 20, Height: 20}), 8)
}

func TestCompactPosition_SlidesAgainstNeighbour(t *testing.T) {
	box := model.Box{Width: 30, Depth: 30, Height: 30}
	placed := []model.PlacedItem{item(0, 0, 0, 10, 10, 10)}
	size := model.Size{W: 10, D: 10, H: 10}

	got := compactPosition(Point{X: 25, Y: 20, Z: 0}, size, box, placed)
	assert.Equal(t, Point{X: 10, Y: 0, Z: 0}, got)
}

func TestCompactPosition_DropsOntoSupport(t *testing.T) {
	box := model.Box{Width: 30, Depth: 30, Height: 30}
	placed := []model.PlacedItem{item(0, 0, 0, 10, 10, 10)}
	size := model.Size{W: 10, D: 10, H: 10}

	got := compactPosition(Point{X: 0, Y: 25, Z: 0}, size, box, placed)
	assert.Equal(t, Point{X: 0, Y: 10, Z: 0}, got)
}

func TestCompactPosition_SlidesAlongDepth(t *testing.T) {
	box := model.Box{Width: 30, Depth: 30, Height: 30}
	placed := []model.PlacedItem{item(0, 0, 0, 10, 10, 10)}
	size := model.Size{W: 10, D: 10, H: 10}

	got := compactPosition(Point{X: 0, Y: 0, Z: 18}, size, box, placed)
	assert.Equal(t, Point{X: 0, Y: 0, Z: 10}, got)
}

func TestBestContact_FallsBackToCurrent(t *testing.T) {
	box := model.Box{Width: 10, Depth: 10, Height: 10}
	size := model.Size{W: 10, D: 10, H: 10}
	placed := []model.PlacedItem{item(0, 0, 0, 10, 10, 10)}

	assert.Equal(t, 0.0, bestContactX(0, 0, 0, size, box, placed))
	assert.Equal(t, 0.0, bestContactZ(0, 0, 0, size, box, placed))
	assert.Equal(t, 3.0, bestContactX(3, 0, 0, model.Size{W: 5, D: 5, H: 5}, model.Box{Width: 20, Depth: 20, Height: 20}, placed))
}
