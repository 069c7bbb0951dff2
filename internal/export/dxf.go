package export

import (
	"fmt"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// layerColors cycles through the ACI colors for packing layers.
var layerColors = []color.ColorNumber{
	color.Red, color.Yellow, color.Green, color.Cyan, color.Blue, color.Magenta,
}

// BoxLayerName is the DXF layer holding the box outline.
const BoxLayerName = "BOX"

// LayerName returns the DXF layer name of the n-th packing layer (1-based).
func LayerName(n int) string {
	return fmt.Sprintf("LAYER_%d", n)
}

// ExportDXF writes a 3D wireframe of the box and every placed item. DXF Z is
// up, so item heights map to DXF Z and box depth to DXF Y. Each packing layer
// goes on its own DXF layer.
func ExportDXF(path string, sel model.Selection) error {
	if len(sel.Items) == 0 {
		return fmt.Errorf("no placements to export")
	}

	d := dxf.NewDrawing()

	if _, err := d.AddLayer(BoxLayerName, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add layer %s: %w", BoxLayerName, err)
	}
	if err := drawCuboid(d, 0, 0, 0, sel.Box.Width, sel.Box.Depth, sel.Box.Height); err != nil {
		return err
	}

	for l, idx := range sel.Layers() {
		name := LayerName(l + 1)
		if _, err := d.AddLayer(name, layerColors[l%len(layerColors)], dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("add layer %s: %w", name, err)
		}
		for _, i := range idx {
			it := sel.Items[i]
			if err := drawCuboid(d, it.X, it.Z, it.Y, it.Size.W, it.Size.D, it.Size.H); err != nil {
				return err
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("save dxf: %w", err)
	}
	return nil
}

// drawCuboid draws the 12 edges of an axis-aligned cuboid on the current
// layer. (x, y, z) is the DXF corner, z up.
func drawCuboid(d *drawing.Drawing, x, y, z, w, dep, h float64) error {
	corners := [8][3]float64{
		{x, y, z}, {x + w, y, z}, {x + w, y + dep, z}, {x, y + dep, z},
		{x, y, z + h}, {x + w, y, z + h}, {x + w, y + dep, z + h}, {x, y + dep, z + h},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, // bottom
		{4, 5}, {5, 6}, {6, 7}, {7, 4}, // top
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // verticals
	}
	for _, e := range edges {
		a, b := corners[e[0]], corners[e[1]]
		if _, err := d.Line(a[0], a[1], a[2], b[0], b[1], b[2]); err != nil {
			return fmt.Errorf("draw edge: %w", err)
		}
	}
	return nil
}
