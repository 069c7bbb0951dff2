package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/piwi3910/BoxFit/internal/model"
)

// ErrInvalidPlacement is wrapped by every error Validate returns.
var ErrInvalidPlacement = errors.New("invalid placement")

// Point is a position inside a box, in cm from the origin corner.
type Point struct {
	X, Y, Z float64
}

func overlaps1D(aStart, aLen, bStart, bLen float64) bool {
	return aStart < bStart+bLen && aStart+aLen > bStart
}

// sameLevel reports whether a top face at height a can carry an item resting
// at height b. Heights are compared exactly.
func sameLevel(a, b float64) bool {
	return a == b
}

// CanPlaceAt reports whether an item of the given size fits at pos inside the
// box without intersecting any already placed item. Touching faces are allowed.
func CanPlaceAt(pos Point, size model.Size, box model.Box, placed []model.PlacedItem) bool {
	if pos.X < 0 || pos.Y < 0 || pos.Z < 0 {
		return false
	}
	if pos.X+size.W > box.Width || pos.Y+size.H > box.Height || pos.Z+size.D > box.Depth {
		return false
	}
	for _, it := range placed {
		if overlaps1D(pos.X, size.W, it.X, it.Size.W) &&
			overlaps1D(pos.Y, size.H, it.Y, it.Size.H) &&
			overlaps1D(pos.Z, size.D, it.Z, it.Size.D) {
			return false
		}
	}
	return true
}

type span struct {
	x0, x1, z0, z1 float64
}

// HasFullSupport reports whether the footprint [x,x+w) x [z,z+d) resting at
// height y is completely covered by top faces of placed items at that height.
// The floor (y == 0) always supports.
func HasFullSupport(x, z, w, d, y float64, placed []model.PlacedItem) bool {
	if y == 0 {
		return true
	}
	x0, x1 := x, x+w
	z0, z1 := z, z+d

	var below []span
	for _, it := range placed {
		if !sameLevel(it.Top(), y) {
			continue
		}
		r := span{x0: it.X, x1: it.MaxX(), z0: it.Z, z1: it.MaxZ()}
		if r.x1 > x0 && r.x0 < x1 && r.z1 > z0 && r.z0 < z1 {
			below = append(below, r)
		}
	}
	if len(below) == 0 {
		return false
	}

	xCuts := []float64{x0, x1}
	zCuts := []float64{z0, z1}
	for _, r := range below {
		xCuts = append(xCuts, clamp(r.x0, x0, x1), clamp(r.x1, x0, x1))
		zCuts = append(zCuts, clamp(r.z0, z0, z1), clamp(r.z1, z0, z1))
	}
	xCuts = uniqueSorted(xCuts)
	zCuts = uniqueSorted(zCuts)

	for i := 0; i+1 < len(xCuts); i++ {
		for j := 0; j+1 < len(zCuts); j++ {
			xa, xb := xCuts[i], xCuts[i+1]
			za, zb := zCuts[j], zCuts[j+1]
			if (xb-xa)*(zb-za) <= 0 {
				continue
			}
			cx := (xa + xb) / 2
			cz := (za + zb) / 2
			covered := false
			for _, r := range below {
				if cx >= r.x0 && cx <= r.x1 && cz >= r.z0 && cz <= r.z1 {
					covered = true
					break
				}
			}
			if !covered {
				return false
			}
		}
	}
	return true
}

// supportHeight returns the highest top face among items whose footprint
// overlaps [x,x+w) x [z,z+d), or 0 when nothing is beneath.
func supportHeight(x, z, w, d float64, placed []model.PlacedItem) float64 {
	support := 0.0
	for _, it := range placed {
		if overlaps1D(x, w, it.X, it.Size.W) && overlaps1D(z, d, it.Z, it.Size.D) {
			if top := it.Top(); top > support {
				support = top
			}
		}
	}
	return support
}

// Validate checks a finished placement against its box and product list:
// every product placed exactly once in one of its orientations, every item
// inside the box, no two items intersecting, and every elevated item fully
// resting on items placed before it.
func Validate(box model.Box, products []model.Product, items []model.PlacedItem) error {
	if len(items) != len(products) {
		return fmt.Errorf("%w: %d items for %d products", ErrInvalidPlacement, len(items), len(products))
	}

	pending := make(map[string][]model.Product, len(products))
	for _, p := range products {
		pending[p.ID] = append(pending[p.ID], p)
	}

	for i, it := range items {
		candidates := pending[it.ProductID]
		match := -1
		for ci, p := range candidates {
			if hasOrientation(p, it.Size) {
				match = ci
				break
			}
		}
		if match < 0 {
			return fmt.Errorf("%w: item %d (product %q) does not match any unplaced product orientation", ErrInvalidPlacement, i, it.ProductID)
		}
		pending[it.ProductID] = append(candidates[:match:match], candidates[match+1:]...)

		pos := Point{X: it.X, Y: it.Y, Z: it.Z}
		if !CanPlaceAt(pos, it.Size, box, nil) {
			return fmt.Errorf("%w: item %d at (%g,%g,%g) leaves the box", ErrInvalidPlacement, i, it.X, it.Y, it.Z)
		}
		for j := 0; j < i; j++ {
			if CanPlaceAt(pos, it.Size, box, items[j:j+1]) {
				continue
			}
			return fmt.Errorf("%w: item %d intersects item %d", ErrInvalidPlacement, i, j)
		}
		if !HasFullSupport(it.X, it.Z, it.Size.W, it.Size.D, it.Y, items[:i]) {
			return fmt.Errorf("%w: item %d at height %g is not fully supported", ErrInvalidPlacement, i, it.Y)
		}
	}
	return nil
}

func hasOrientation(p model.Product, s model.Size) bool {
	for _, o := range productOrientations(p) {
		if o.Size == s {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func uniqueSorted(vals []float64) []float64 {
	sort.Float64s(vals)
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
