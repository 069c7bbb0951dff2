package engine

import (
	"sort"

	"github.com/piwi3910/BoxFit/internal/model"
)

// PackShelf fills the box bottom-up in layers. Each layer is cut into shelves
// along Z; a shelf takes its depth and height from the first item and is
// filled left to right with flat items that fit under it.
func PackShelf(products []model.Product, box model.Box) ([]model.PlacedItem, error) {
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	remaining := indices(len(products))
	placed := make([]model.PlacedItem, 0, len(products))
	y := 0.0

	for len(remaining) > 0 {
		if y >= box.Height {
			return nil, strategyFailed(StrategyShelf, "out of height with %d products left", len(remaining))
		}
		sortAreaDesc(products, remaining)

		zStart := 0.0
		layerHeight := 0.0
		progressLayer := false

		for zStart < box.Depth && len(remaining) > 0 {
			// The first item opens the shelf.
			var shelf model.Size
			xCursor := 0.0
			opened := false
			for i, pi := range remaining {
				flat, _ := flatOrientations(productOrientations(products[pi]))
				c, ok := largestFlat(flat, func(o model.Orientation) bool {
					return o.W <= box.Width && o.D <= box.Depth-zStart && y+o.H <= box.Height
				})
				if !ok || !HasFullSupport(0, zStart, c.W, c.D, y, placed) {
					continue
				}
				shelf = c.Size
				layerHeight = max(layerHeight, shelf.H)
				placed = append(placed, placeItem(products[pi], Point{X: 0, Y: y, Z: zStart}, c.Size))
				xCursor = c.W
				remaining = append(remaining[:i], remaining[i+1:]...)
				opened = true
				progressLayer = true
				break
			}
			if !opened {
				break
			}

			for filled := true; filled; {
				filled = false
				for i, pi := range remaining {
					flat, _ := flatOrientations(productOrientations(products[pi]))
					c, ok := widestFlat(flat, func(o model.Orientation) bool {
						return o.H <= shelf.H && o.D <= shelf.D && o.W <= box.Width-xCursor && y+o.H <= box.Height
					})
					if !ok || !HasFullSupport(xCursor, zStart, c.W, c.D, y, placed) {
						continue
					}
					placed = append(placed, placeItem(products[pi], Point{X: xCursor, Y: y, Z: zStart}, c.Size))
					xCursor += c.W
					remaining = append(remaining[:i], remaining[i+1:]...)
					filled = true
					break
				}
			}

			zStart += shelf.D
		}

		if !progressLayer {
			return nil, strategyFailed(StrategyShelf, "layer at height %g placed nothing", y)
		}
		y += layerHeight
	}
	return finalize(placed), nil
}

// largestFlat returns the orientation with the largest footprint among those
// accepted by keep.
func largestFlat(oris []model.Orientation, keep func(model.Orientation) bool) (model.Orientation, bool) {
	return firstBy(oris, keep, func(a, b model.Orientation) bool { return a.Area() > b.Area() })
}

// widestFlat returns the widest orientation among those accepted by keep.
func widestFlat(oris []model.Orientation, keep func(model.Orientation) bool) (model.Orientation, bool) {
	return firstBy(oris, keep, func(a, b model.Orientation) bool { return a.W > b.W })
}

func firstBy(oris []model.Orientation, keep func(model.Orientation) bool, less func(a, b model.Orientation) bool) (model.Orientation, bool) {
	var cands []model.Orientation
	for _, o := range oris {
		if keep(o) {
			cands = append(cands, o)
		}
	}
	if len(cands) == 0 {
		return model.Orientation{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool { return less(cands[i], cands[j]) })
	return cands[0], true
}
