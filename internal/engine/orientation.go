package engine

import "github.com/piwi3910/BoxFit/internal/model"

// Orientations returns every distinct axis-aligned permutation of a cuboid's
// dimensions. A cuboid with three distinct edges yields 6, a cube yields 1.
func Orientations(w, d, h float64) []model.Orientation {
	combos := [6][3]float64{
		{w, d, h},
		{w, h, d},
		{d, w, h},
		{d, h, w},
		{h, w, d},
		{h, d, w},
	}
	seen := make(map[model.Size]bool, len(combos))
	out := make([]model.Orientation, 0, len(combos))
	for _, c := range combos {
		s := model.Size{W: c[0], D: c[1], H: c[2]}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, model.Orientation{Size: s})
	}
	return out
}

func productOrientations(p model.Product) []model.Orientation {
	return Orientations(p.Width, p.Depth, p.Height)
}

// flatOrientations returns the orientations with the lowest height together
// with that height.
func flatOrientations(all []model.Orientation) ([]model.Orientation, float64) {
	if len(all) == 0 {
		return nil, 0
	}
	minH := all[0].H
	for _, o := range all[1:] {
		if o.H < minH {
			minH = o.H
		}
	}
	flat := make([]model.Orientation, 0, len(all))
	for _, o := range all {
		if o.H == minH {
			flat = append(flat, o)
		}
	}
	return flat, minH
}

// minFootprint returns the smallest W x D over all orientations.
func minFootprint(all []model.Orientation) float64 {
	best := -1.0
	for _, o := range all {
		if a := o.Area(); best < 0 || a < best {
			best = a
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
