package project

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/piwi3910/BoxFit/internal/model"
)

var (
	footprintSizes = []float64{10, 12, 14, 15, 16, 18, 20, 22, 24, 25, 26, 28, 30, 32, 34, 35, 36, 38, 40, 42, 44, 45, 46, 48, 50, 52, 54, 55, 56, 58, 60}
	lowHeights     = []float64{5, 6, 7, 8, 9, 10}
	midHeights     = []float64{12, 14, 15, 16, 18, 20}
	highHeights    = []float64{22, 24, 25, 26, 28, 30, 32, 35}
	tallHeights    = []float64{38, 40, 42, 45, 48, 50, 55, 60}
)

// heightTier is a group of box heights with the number of boxes to draw from it.
type heightTier struct {
	heights []float64
	count   int
}

// GenerateBoxCatalog returns a deterministic catalog of up to n distinct
// boxes spread over low, mid, high and tall height tiers. Box IDs are
// "b-WxDxH".
func GenerateBoxCatalog(n int) []model.Box {
	boxes := make([]model.Box, 0, n)
	seen := make(map[string]bool)

	push := func(w, d, h float64) bool {
		if len(boxes) >= n {
			return false
		}
		key := fmt.Sprintf("%gx%gx%g", w, d, h)
		if seen[key] {
			return false
		}
		seen[key] = true
		boxes = append(boxes, model.Box{ID: "b-" + key, Label: key, Width: w, Depth: d, Height: h})
		return true
	}

	// Width/depth pairs in a round-robin that spreads shapes, each with its
	// swapped twin. Oversampled since duplicates are dropped.
	type pair struct{ w, d float64 }
	var pairs []pair
	for i := 0; len(pairs) < n*3; i++ {
		w := footprintSizes[(i*7)%len(footprintSizes)]
		d := footprintSizes[(i*11+3)%len(footprintSizes)]
		pairs = append(pairs, pair{w, d}, pair{d, w})
	}

	tiers := []heightTier{
		{lowHeights, 140},
		{midHeights, 140},
		{highHeights, 140},
		{tallHeights, 80},
	}
	p := 0
	for _, tier := range tiers {
		added := 0
		for added < tier.count && len(boxes) < n && p < len(pairs) {
			pr := pairs[p]
			p++
			if push(pr.w, pr.d, tier.heights[added%len(tier.heights)]) {
				added++
			}
		}
	}

	// Top up with mixed heights when duplicates left the catalog short.
	var all []float64
	for _, tier := range tiers {
		all = append(all, tier.heights...)
	}
	for i := 0; len(boxes) < n && i < len(pairs); {
		pr := pairs[i]
		i++
		push(pr.w, pr.d, all[(i*5)%len(all)])
	}

	return boxes
}

var (
	productNames  = []string{"Smart Watch", "Shoes", "Mug", "Tablet", "Phone", "Headphones", "Book", "Shaver", "Power Bank", "Toy"}
	productBrands = []string{"Nova", "ZenTech", "Aurora", "Vektor", "Orion", "Nimbus", "Apex", "Polar", "Atlas", "Vertex"}
	// typical retail package sizes (w, d, h)
	productPresets = [][3]float64{
		{12, 8, 2},
		{18, 12, 8},
		{16, 8, 6},
		{8, 8, 10},
		{20, 15, 5},
		{25, 20, 10},
		{14, 14, 14},
		{22, 15, 3},
		{10, 7, 3},
	}
)

// RandomProducts returns n demo products drawn from common package sizes,
// each dimension jittered by up to 1 cm.
func RandomProducts(rng *rand.Rand, n int) []model.Product {
	between := func(lo, hi int) int { return lo + rng.Intn(hi-lo+1) }

	products := make([]model.Product, n)
	for i := range products {
		preset := productPresets[rng.Intn(len(productPresets))]
		w := max(3, preset[0]+float64(between(-1, 1)))
		d := max(3, preset[1]+float64(between(-1, 1)))
		h := max(2, preset[2]+float64(between(-1, 1)))

		name := productBrands[rng.Intn(len(productBrands))] + " " + productNames[rng.Intn(len(productNames))]
		p := model.NewProduct(name, w, d, h)
		p.SKU = fmt.Sprintf("SKU-%d-%d", between(1000, 9999), between(1000, 9999))

		var barcode strings.Builder
		for j := 0; j < 13; j++ {
			barcode.WriteByte(byte('0' + rng.Intn(10)))
		}
		p.Barcode = barcode.String()
		products[i] = p
	}
	return products
}
