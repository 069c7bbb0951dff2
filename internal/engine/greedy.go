package engine

import "github.com/piwi3910/BoxFit/internal/model"

// PackGreedy places products largest volume first. Each product takes the
// first anchor/orientation whose compacted position is free and fully
// supported.
func PackGreedy(products []model.Product, box model.Box) ([]model.PlacedItem, error) {
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	placed := make([]model.PlacedItem, 0, len(products))
	for _, pi := range byVolumeDesc(products) {
		p := products[pi]
		item, ok := anchorPlacement(p, productOrientations(p), box, placed, nextAnchors(placed, box))
		if !ok {
			return nil, strategyFailed(StrategyGreedy, "no anchor for product %q", p.ID)
		}
		placed = append(placed, item)
	}
	return finalize(placed), nil
}

// anchorPlacement tries every anchor x orientation pair in order and returns
// the first valid compacted placement.
func anchorPlacement(p model.Product, oris []model.Orientation, box model.Box, placed []model.PlacedItem, anchors []Point) (model.PlacedItem, bool) {
	for _, a := range anchors {
		for _, o := range oris {
			pos, ok := compactedFit(a, o.Size, box, placed)
			if ok {
				return placeItem(p, pos, o.Size), true
			}
		}
	}
	return model.PlacedItem{}, false
}

// compactedFit compacts an item from anchor a and reports whether the result
// is free and fully supported.
func compactedFit(a Point, s model.Size, box model.Box, placed []model.PlacedItem) (Point, bool) {
	pos := compactPosition(a, s, box, placed)
	if !CanPlaceAt(pos, s, box, placed) {
		return pos, false
	}
	if !HasFullSupport(pos.X, pos.Z, s.W, s.D, pos.Y, placed) {
		return pos, false
	}
	return pos, true
}
