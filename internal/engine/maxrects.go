package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/piwi3910/BoxFit/internal/model"
)

// PackMaxRects packs layer by layer, tracking each layer's free floor as a
// set of rectangles. Within a layer four passes run until none places
// anything: rectangle-first, product-first, small-item fallback and global
// best fit. rng is only used by the shuffle product order.
func PackMaxRects(products []model.Product, box model.Box, cfg model.PackingConfig, rng *rand.Rand) ([]model.PlacedItem, error) {
	if len(products) == 0 {
		return nil, ErrNoProducts
	}
	if rng == nil {
		rng = newRand(0)
	}
	p := &layerPacker{
		products: products,
		oris:     make([][]model.Orientation, len(products)),
		box:      box,
		cfg:      cfg,
		rng:      rng,
		placed:   make([]model.PlacedItem, 0, len(products)),
	}
	for i, prod := range products {
		p.oris[i] = productOrientations(prod)
	}
	return p.run()
}

// MaxRectsName describes a configuration, e.g. "maxrects(minHeightFirst/areaDesc/flat)".
func MaxRectsName(cfg model.PackingConfig) string {
	mode := "any"
	if cfg.FlatOnly {
		mode = "flat"
	}
	return fmt.Sprintf("%s(%s/%s/%s)", StrategyMaxRects, cfg.OrientationOrder, cfg.ProductOrder, mode)
}

type layerPacker struct {
	products []model.Product
	oris     [][]model.Orientation
	box      model.Box
	cfg      model.PackingConfig
	rng      *rand.Rand
	placed   []model.PlacedItem

	// current layer
	y         float64
	height    float64
	inLayer   map[int]bool
	remaining []int
	space     *rectTracker
}

func (p *layerPacker) run() ([]model.PlacedItem, error) {
	p.remaining = indices(len(p.products))

	for len(p.remaining) > 0 {
		if p.y >= p.box.Height {
			return nil, strategyFailed(MaxRectsName(p.cfg), "out of height with %d products left", len(p.remaining))
		}
		p.space = newLayerTracker(p.box, p.placed, p.y)
		p.height = 0
		p.inLayer = make(map[int]bool)
		order := p.productOrder()

		for {
			if p.rectFirstPass() {
				continue
			}
			if p.productFirstPass(order) || p.smallItemPass() || p.bestFitPass() {
				continue
			}
			break
		}

		if len(p.inLayer) == 0 {
			return nil, strategyFailed(MaxRectsName(p.cfg), "layer at height %g placed nothing", p.y)
		}
		p.y += p.height

		left := p.remaining[:0]
		for _, pi := range p.remaining {
			if !p.inLayer[pi] {
				left = append(left, pi)
			}
		}
		p.remaining = left
	}
	return finalize(p.placed), nil
}

func (p *layerPacker) productOrder() []int {
	order := append([]int(nil), p.remaining...)
	switch p.cfg.ProductOrder {
	case model.OrderShuffle:
		return shuffled(p.rng, order)
	case model.OrderEdgeDesc:
		sortEdgeDesc(p.products, order)
	default:
		sortAreaDesc(p.products, order)
	}
	return order
}

// usable reports whether o can rest at r on the current layer.
func (p *layerPacker) usable(r freeRect, o model.Orientation) bool {
	if p.y+o.H > p.box.Height || !r.fits(o.Size) {
		return false
	}
	return HasFullSupport(r.x, r.z, o.W, o.D, p.y, p.placed)
}

// candidates returns the orientations of product pi allowed in rect r. With
// flatOnly only the lowest orientations are used, and none at all when no
// lowest orientation fits r.
func (p *layerPacker) candidates(pi int, r freeRect) []model.Orientation {
	all := p.oris[pi]
	if !p.cfg.FlatOnly {
		return all
	}
	flat, _ := flatOrientations(all)
	for _, o := range flat {
		if r.fits(o.Size) {
			return flat
		}
	}
	return nil
}

func (p *layerPacker) commit(pi int, rectIdx int, o model.Orientation) {
	r := p.space.rects[rectIdx]
	p.placed = append(p.placed, placeItem(p.products[pi], Point{X: r.x, Y: p.y, Z: r.z}, o.Size))
	p.height = max(p.height, o.H)
	p.inLayer[pi] = true
	p.space.occupy(rectIdx, o.W, o.D)
}

// rectFirstPass walks free rects nearest-origin first and fills the first one
// that can take a flat item with the largest footprint.
func (p *layerPacker) rectFirstPass() bool {
	for _, r := range p.space.byDepthThenWidth() {
		bestPI := -1
		var best model.Orientation
		var bestArea, bestWaste float64
		for _, pi := range p.remaining {
			if p.inLayer[pi] {
				continue
			}
			flat, _ := flatOrientations(p.oris[pi])
			for _, o := range flat {
				if !p.usable(r, o) {
					continue
				}
				area := o.Area()
				waste := r.area() - area
				if bestPI < 0 || area > bestArea || (area == bestArea && waste < bestWaste) {
					bestPI, best, bestArea, bestWaste = pi, o, area, waste
				}
			}
		}
		if bestPI >= 0 {
			p.commit(bestPI, p.space.indexOf(r), best)
			return true
		}
	}
	return false
}

// productFirstPass gives each unplaced product, in configured order, the
// free rect where it leaves the least waste.
func (p *layerPacker) productFirstPass(order []int) bool {
	progress := false
	for _, pi := range order {
		if p.inLayer[pi] {
			continue
		}
		oris := p.sortedOrientations(pi)
		if p.cfg.FlatOnly {
			flat, _ := flatOrientations(oris)
			if p.space.anyFits(flat) {
				oris = flat
			}
		}

		bestRect := -1
		var best model.Orientation
		var bestWaste float64
		for ri, r := range p.space.rects {
			for _, o := range oris {
				if !p.usable(r, o) {
					continue
				}
				waste := r.area() - o.Area()
				if bestRect < 0 || waste < bestWaste || (waste == bestWaste && nearer(r, p.space.rects[bestRect])) {
					bestRect, best, bestWaste = ri, o, waste
				}
			}
		}
		if bestRect >= 0 {
			p.commit(pi, bestRect, best)
			progress = true
		}
	}
	return progress
}

// nearer reports whether a lies closer to the z = 0, x = 0 corner than b.
func nearer(a, b freeRect) bool {
	if a.z != b.z {
		return a.z < b.z
	}
	return a.x < b.x
}

// sortedOrientations orders orientations lowest first, then longest edge,
// then by the configured orientation preference.
func (p *layerPacker) sortedOrientations(pi int) []model.Orientation {
	oris := append([]model.Orientation(nil), p.oris[pi]...)
	order := p.cfg.OrientationOrder
	sort.SliceStable(oris, func(i, j int) bool {
		a, b := oris[i], oris[j]
		if a.H != b.H {
			return a.H < b.H
		}
		if la, lb := max(a.W, a.D), max(b.W, b.D); la != lb {
			return la > lb
		}
		switch order {
		case model.OrientWidthPriority:
			if a.W != b.W {
				return a.W > b.W
			}
			return a.D > b.D
		case model.OrientDepthPriority:
			if a.D != b.D {
				return a.D > b.D
			}
			return a.W > b.W
		default:
			return a.Area() > b.Area()
		}
	})
	return oris
}

// smallItemPass tries the smallest products against rects in z-then-x order
// and places the first fit.
func (p *layerPacker) smallItemPass() bool {
	small := make([]int, 0, len(p.remaining))
	for _, pi := range p.remaining {
		if !p.inLayer[pi] {
			small = append(small, pi)
		}
	}
	sort.SliceStable(small, func(a, b int) bool {
		return p.products[small[a]].BaseArea() < p.products[small[b]].BaseArea()
	})

	for _, r := range p.space.byDepthThenWidth() {
		for _, pi := range small {
			for _, o := range p.candidates(pi, r) {
				if p.usable(r, o) {
					p.commit(pi, p.space.indexOf(r), o)
					return true
				}
			}
		}
	}
	return false
}

// bestFitPass places the single rect/product/orientation triple with the
// least waste, if any fit remains on this layer.
func (p *layerPacker) bestFitPass() bool {
	bestRect, bestPI := -1, -1
	var best model.Orientation
	var bestWaste float64
	for ri, r := range p.space.rects {
		for _, pi := range p.remaining {
			if p.inLayer[pi] {
				continue
			}
			for _, o := range p.candidates(pi, r) {
				if !p.usable(r, o) {
					continue
				}
				if waste := r.area() - o.Area(); bestRect < 0 || waste < bestWaste {
					bestRect, bestPI, best, bestWaste = ri, pi, o, waste
				}
			}
		}
	}
	if bestRect < 0 {
		return false
	}
	p.commit(bestPI, bestRect, best)
	return true
}
