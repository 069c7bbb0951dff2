package engine

import (
	"sort"

	"github.com/piwi3910/BoxFit/internal/model"
)

// freeRect is an unobstructed region of a layer's floor, in the XZ plane.
type freeRect struct {
	x, z, w, d float64
}

func (r freeRect) area() float64 {
	return r.w * r.d
}

func (r freeRect) fits(s model.Size) bool {
	return s.W <= r.w && s.D <= r.d
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner freeRect) bool {
	return inner.x >= outer.x && inner.z >= outer.z &&
		inner.x+inner.w <= outer.x+outer.w &&
		inner.z+inner.d <= outer.z+outer.d
}

// pruneRects drops empty rects and rects strictly contained in another, then
// removes exact duplicates.
func pruneRects(rects []freeRect) []freeRect {
	filtered := make([]freeRect, 0, len(rects))
	for _, r := range rects {
		if r.w > 0 && r.d > 0 {
			filtered = append(filtered, r)
		}
	}
	kept := make([]freeRect, 0, len(filtered))
	for i, a := range filtered {
		contained := false
		for j, b := range filtered {
			if i != j && a != b && containsRect(b, a) {
				contained = true
				break
			}
		}
		if contained {
			continue
		}
		dup := false
		for _, k := range kept {
			if k == a {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, a)
		}
	}
	return kept
}

// mergeRects coalesces rects sharing a full edge until no pair can be joined.
func mergeRects(rects []freeRect) []freeRect {
	arr := append([]freeRect(nil), rects...)
	for {
		i, j, merged, ok := findMerge(arr)
		if !ok {
			return arr
		}
		arr[i] = merged
		arr = append(arr[:j], arr[j+1:]...)
	}
}

func findMerge(arr []freeRect) (int, int, freeRect, bool) {
	for i := 0; i < len(arr); i++ {
		for j := i + 1; j < len(arr); j++ {
			a, b := arr[i], arr[j]
			if a.z == b.z && a.d == b.d {
				if a.x+a.w == b.x {
					return i, j, freeRect{x: a.x, z: a.z, w: a.w + b.w, d: a.d}, true
				}
				if b.x+b.w == a.x {
					return i, j, freeRect{x: b.x, z: a.z, w: a.w + b.w, d: a.d}, true
				}
			}
			if a.x == b.x && a.w == b.w {
				if a.z+a.d == b.z {
					return i, j, freeRect{x: a.x, z: a.z, w: a.w, d: a.d + b.d}, true
				}
				if b.z+b.d == a.z {
					return i, j, freeRect{x: a.x, z: b.z, w: a.w, d: a.d + b.d}, true
				}
			}
		}
	}
	return 0, 0, freeRect{}, false
}

// splitRect returns the space left in used after a w x d item is placed at
// its origin corner: a strip to the right as deep as the item, and the full
// width strip behind it.
func splitRect(used freeRect, w, d float64) (right, bottom freeRect) {
	right = freeRect{x: used.x + w, z: used.z, w: used.w - w, d: d}
	bottom = freeRect{x: used.x, z: used.z + d, w: used.w, d: used.d - d}
	return right, bottom
}

// supportSurfaceRects projects the top faces of items ending at height y onto
// the XZ plane.
func supportSurfaceRects(placed []model.PlacedItem, y float64) []freeRect {
	var faces []freeRect
	for _, it := range placed {
		if sameLevel(it.Top(), y) {
			faces = append(faces, freeRect{x: it.X, z: it.Z, w: it.Size.W, d: it.Size.D})
		}
	}
	if len(faces) == 0 {
		return nil
	}
	return mergeRects(pruneRects(faces))
}

// rectTracker maintains the free rectangles of a single layer.
type rectTracker struct {
	rects []freeRect
}

// newLayerTracker returns the free space of the layer starting at height y:
// the box floor at y == 0, otherwise the support surfaces at y, falling back
// to the floor outline when nothing ends there.
func newLayerTracker(box model.Box, placed []model.PlacedItem, y float64) *rectTracker {
	floor := freeRect{x: 0, z: 0, w: box.Width, d: box.Depth}
	if y == 0 {
		return &rectTracker{rects: []freeRect{floor}}
	}
	if surfaces := supportSurfaceRects(placed, y); len(surfaces) > 0 {
		return &rectTracker{rects: surfaces}
	}
	return &rectTracker{rects: []freeRect{floor}}
}

// occupy replaces rect i by its split remainders after placing a w x d item.
func (t *rectTracker) occupy(i int, w, d float64) {
	used := t.rects[i]
	right, bottom := splitRect(used, w, d)
	next := make([]freeRect, 0, len(t.rects)+1)
	next = append(next, t.rects[:i]...)
	next = append(next, t.rects[i+1:]...)
	next = append(next, right, bottom)
	t.rects = mergeRects(pruneRects(next))
}

// indexOf returns the position of r in the tracker, or -1.
func (t *rectTracker) indexOf(r freeRect) int {
	for i, fr := range t.rects {
		if fr == r {
			return i
		}
	}
	return -1
}

// byDepthThenWidth returns a copy of the rects ordered by z, then x.
func (t *rectTracker) byDepthThenWidth() []freeRect {
	out := append([]freeRect(nil), t.rects...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].z != out[j].z {
			return out[i].z < out[j].z
		}
		return out[i].x < out[j].x
	})
	return out
}

// anyFits reports whether any orientation fits any free rect, ignoring height
// and support.
func (t *rectTracker) anyFits(oris []model.Orientation) bool {
	for _, r := range t.rects {
		for _, o := range oris {
			if r.fits(o.Size) {
				return true
			}
		}
	}
	return false
}
