package model

import (
	"sort"

	"github.com/google/uuid"
)

// NewID returns a fresh identifier for boxes, products and placements.
func NewID() string {
	return uuid.New().String()
}

// Box represents a candidate shipping carton. Dimensions are in cm.
type Box struct {
	ID     string  `json:"id"`
	Label  string  `json:"label,omitempty"`
	Width  float64 `json:"width"`  // cm along X
	Depth  float64 `json:"depth"`  // cm along Z
	Height float64 `json:"height"` // cm along Y
}

func NewBox(label string, w, d, h float64) Box {
	return Box{
		ID:     NewID(),
		Label:  label,
		Width:  w,
		Depth:  d,
		Height: h,
	}
}

// Volume returns the inner volume of the box in cm³.
func (b Box) Volume() float64 {
	return b.Width * b.Depth * b.Height
}

// FloorArea returns the footprint of the box in cm².
func (b Box) FloorArea() float64 {
	return b.Width * b.Depth
}

// Product is a rectangular item to be packed. Name, SKU and Barcode are
// carried for display only.
type Product struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	SKU     string  `json:"sku,omitempty"`
	Barcode string  `json:"barcode,omitempty"`
	Width   float64 `json:"width"`  // cm
	Depth   float64 `json:"depth"`  // cm
	Height  float64 `json:"height"` // cm
}

func NewProduct(name string, w, d, h float64) Product {
	return Product{
		ID:     NewID(),
		Name:   name,
		Width:  w,
		Depth:  d,
		Height: h,
	}
}

// Volume returns the product volume in cm³.
func (p Product) Volume() float64 {
	return p.Width * p.Depth * p.Height
}

// BaseArea returns width x depth as listed, without considering rotation.
func (p Product) BaseArea() float64 {
	return p.Width * p.Depth
}

// Size is an axis-aligned extent: W along X, D along Z, H along Y.
type Size struct {
	W float64 `json:"w"`
	D float64 `json:"d"`
	H float64 `json:"h"`
}

// Area returns the footprint W x D.
func (s Size) Area() float64 {
	return s.W * s.D
}

// Volume returns W x D x H.
func (s Size) Volume() float64 {
	return s.W * s.D * s.H
}

// Rotation holds rotation angles in radians around X, Y and Z. Dimensions are
// permuted instead of rotated, so every engine-produced rotation is zero.
type Rotation [3]float64

// Orientation is one distinct axis-aligned permutation of a product's dimensions.
type Orientation struct {
	Size
	Rotation Rotation `json:"rotation"`
}

// PlacedItem is a product positioned inside a box. X, Y, Z are offsets in cm
// from the box origin corner; Y is the vertical axis.
type PlacedItem struct {
	ID        string   `json:"id"`
	ProductID string   `json:"product_id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         float64  `json:"z"`
	Size      Size     `json:"size"`
	Rotation  Rotation `json:"rotation"`
	Color     string   `json:"color"`
}

// MaxX returns the far X coordinate of the item.
func (p PlacedItem) MaxX() float64 { return p.X + p.Size.W }

// MaxZ returns the far Z coordinate of the item.
func (p PlacedItem) MaxZ() float64 { return p.Z + p.Size.D }

// Top returns the height of the item's top face.
func (p PlacedItem) Top() float64 { return p.Y + p.Size.H }

// PlacementColors is the palette assigned round-robin by placement order.
var PlacementColors = []string{
	"#ff6b6b", "#ffd166", "#06d6a0", "#118ab2", "#ef476f",
	"#f78c6b", "#8e7dbe", "#00c2ff", "#ffa600", "#2a9d8f",
}

// ColorFor returns the palette color for the n-th placement.
func ColorFor(n int) string {
	return PlacementColors[n%len(PlacementColors)]
}

// OrientationOrder controls which orientation the rectangle packer tries first
// when several have the same height.
type OrientationOrder string

const (
	OrientMinHeightFirst    OrientationOrder = "minHeightFirst"
	OrientMaxFootprintFirst OrientationOrder = "maxFootprintFirst"
	OrientWidthPriority     OrientationOrder = "widthPriority"
	OrientDepthPriority     OrientationOrder = "depthPriority"
)

// ProductOrder controls the order in which unplaced products are attempted.
type ProductOrder string

const (
	OrderAreaDesc ProductOrder = "areaDesc"
	OrderEdgeDesc ProductOrder = "edgeDesc"
	OrderShuffle  ProductOrder = "shuffle"
)

// PackingConfig holds the tunables of the rectangle-based layered packer.
type PackingConfig struct {
	OrientationOrder OrientationOrder `json:"orientation_order"`
	ProductOrder     ProductOrder     `json:"product_order"`
	FlatOnly         bool             `json:"flat_only"` // Only minimum-height orientations ("stable floor-first")
}

func DefaultPackingConfig() PackingConfig {
	return PackingConfig{
		OrientationOrder: OrientMinHeightFirst,
		ProductOrder:     OrderAreaDesc,
		FlatOnly:         true,
	}
}

// Cluster is a packing in unconstrained virtual space together with the
// extent it actually occupies.
type Cluster struct {
	Items      []PlacedItem `json:"items"`
	UsedWidth  float64      `json:"used_width"`
	UsedDepth  float64      `json:"used_depth"`
	UsedHeight float64      `json:"used_height"`
}

// Volume returns the bounding volume of the cluster. Height is floored at 1
// so flat clusters still compare by footprint.
func (c Cluster) Volume() float64 {
	h := c.UsedHeight
	if h < 1 {
		h = 1
	}
	return c.UsedWidth * c.UsedDepth * h
}

// Selection is the outcome of box selection: the chosen box and the ordered
// assembly sequence.
type Selection struct {
	Box      Box          `json:"box"`
	Items    []PlacedItem `json:"items"`
	Strategy string       `json:"strategy"` // Name of the strategy that produced Items
}

// UsedVolume returns the total volume of placed items.
func (s Selection) UsedVolume() float64 {
	var total float64
	for _, it := range s.Items {
		total += it.Size.Volume()
	}
	return total
}

// Efficiency returns the volume usage percentage of the chosen box.
func (s Selection) Efficiency() float64 {
	v := s.Box.Volume()
	if v == 0 {
		return 0
	}
	return (s.UsedVolume() / v) * 100.0
}

// Layers groups item indices by their Y coordinate, lowest layer first.
func (s Selection) Layers() [][]int {
	return LayerIndices(s.Items)
}

// LayerIndices groups item indices by their Y coordinate, lowest layer first.
// Within a layer, indices keep placement order.
func LayerIndices(items []PlacedItem) [][]int {
	var levels []float64
	byLevel := make(map[float64][]int)
	for i, it := range items {
		if _, ok := byLevel[it.Y]; !ok {
			levels = append(levels, it.Y)
		}
		byLevel[it.Y] = append(byLevel[it.Y], i)
	}
	sort.Float64s(levels)
	out := make([][]int, 0, len(levels))
	for _, y := range levels {
		out = append(out, byLevel[y])
	}
	return out
}
