package engine

import (
	"sort"

	"github.com/piwi3910/BoxFit/internal/model"
)

// maxCompactIterations bounds the drop/slide loop of compactPosition.
const maxCompactIterations = 6

// nextAnchors returns candidate positions for the next item: the box origin
// plus the corners and edges around every placed item, kept inside the box,
// nearest to the origin first, without duplicates.
func nextAnchors(placed []model.PlacedItem, box model.Box) []Point {
	anchors := make([]Point, 0, 1+7*len(placed))
	anchors = append(anchors, Point{})
	for _, it := range placed {
		mx, top, mz := it.MaxX(), it.Top(), it.MaxZ()
		anchors = append(anchors,
			Point{X: mx, Y: it.Y, Z: it.Z},
			Point{X: it.X, Y: top, Z: it.Z},
			Point{X: it.X, Y: it.Y, Z: mz},
			Point{X: mx, Y: it.Y, Z: mz},
			Point{X: it.X, Y: top, Z: mz},
			Point{X: mx, Y: top, Z: it.Z},
			Point{X: mx, Y: top, Z: mz},
		)
	}

	inside := anchors[:0]
	for _, a := range anchors {
		if a.X <= box.Width && a.Y <= box.Height && a.Z <= box.Depth {
			inside = append(inside, a)
		}
	}
	sort.SliceStable(inside, func(i, j int) bool {
		return inside[i].X+inside[i].Y+inside[i].Z < inside[j].X+inside[j].Y+inside[j].Z
	})

	seen := make(map[Point]bool, len(inside))
	out := make([]Point, 0, len(inside))
	for _, a := range inside {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// bestContactX slides an item towards x = 0 and returns the largest contact
// position not beyond curX where it fits.
func bestContactX(curX, y, z float64, size model.Size, box model.Box, placed []model.PlacedItem) float64 {
	candidates := []float64{0}
	for _, it := range placed {
		if overlaps1D(y, size.H, it.Y, it.Size.H) && overlaps1D(z, size.D, it.Z, it.Size.D) {
			if c := it.MaxX(); c <= curX {
				candidates = append(candidates, c)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(candidates)))
	for _, x := range candidates {
		if CanPlaceAt(Point{X: x, Y: y, Z: z}, size, box, placed) {
			return x
		}
	}
	return curX
}

// bestContactZ is bestContactX along the depth axis.
func bestContactZ(x, y, curZ float64, size model.Size, box model.Box, placed []model.PlacedItem) float64 {
	candidates := []float64{0}
	for _, it := range placed {
		if overlaps1D(x, size.W, it.X, it.Size.W) && overlaps1D(y, size.H, it.Y, it.Size.H) {
			if c := it.MaxZ(); c <= curZ {
				candidates = append(candidates, c)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(candidates)))
	for _, z := range candidates {
		if CanPlaceAt(Point{X: x, Y: y, Z: z}, size, box, placed) {
			return z
		}
	}
	return curZ
}

// compactPosition moves an item from pos into a resting position: it drops
// onto the highest surface beneath and slides against the nearest contact
// along x, then z, repeating until stable.
func compactPosition(pos Point, size model.Size, box model.Box, placed []model.PlacedItem) Point {
	x := clamp(pos.X, 0, box.Width-size.W)
	y := clamp(pos.Y, 0, box.Height-size.H)
	z := clamp(pos.Z, 0, box.Depth-size.D)

	changed := true
	for iter := 0; changed && iter < maxCompactIterations; iter++ {
		changed = false

		if ny := supportHeight(x, z, size.W, size.D, placed); ny != y {
			y = ny
			changed = true
		}
		if nx := bestContactX(x, y, z, size, box, placed); nx != x {
			x = nx
			changed = true
		}
		if ny := supportHeight(x, z, size.W, size.D, placed); ny != y {
			y = ny
			changed = true
		}
		if nz := bestContactZ(x, y, z, size, box, placed); nz != z {
			z = nz
			changed = true
		}
	}

	return Point{
		X: clamp(x, 0, box.Width-size.W),
		Y: clamp(y, 0, box.Height-size.H),
		Z: clamp(z, 0, box.Depth-size.D),
	}
}
