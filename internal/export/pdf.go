// Package export writes packing results to PDF, Excel, DXF and HTML files.
package export

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/BoxFit/internal/model"
)

// rgb is a fill color for a placed item.
type rgb struct {
	R, G, B int
}

// hexColor parses a #rrggbb placement color. Malformed values fall back to
// mid grey.
func hexColor(s string) rgb {
	if len(s) != 7 || s[0] != '#' {
		return rgb{R: 160, G: 160, B: 160}
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return rgb{R: 160, G: 160, B: 160}
	}
	return rgb{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// step describes one placement in assembly order.
type step struct {
	Index   int // 1-based position in the sequence
	Layer   int // 1-based layer number
	Item    model.PlacedItem
	Product model.Product
}

// buildSteps pairs each placed item with its product and layer.
func buildSteps(sel model.Selection, products []model.Product) []step {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	layerOf := make([]int, len(sel.Items))
	for l, idx := range sel.Layers() {
		for _, i := range idx {
			layerOf[i] = l + 1
		}
	}
	steps := make([]step, len(sel.Items))
	for i, it := range sel.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			p = model.Product{ID: it.ProductID, Name: "Unknown"}
		}
		steps[i] = step{Index: i + 1, Layer: layerOf[i], Item: it, Product: p}
	}
	return steps
}

// ExportPDF generates a packing sheet: one page per layer with a top-down
// diagram of the box floor, followed by the placement sequence table.
func ExportPDF(path string, sel model.Selection, products []model.Product) error {
	if len(sel.Items) == 0 {
		return fmt.Errorf("no placements to export")
	}
	if sel.Box.Width <= 0 || sel.Box.Depth <= 0 {
		return fmt.Errorf("box %q has no floor area", sel.Box.Label)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	steps := buildSteps(sel, products)
	for l, idx := range sel.Layers() {
		pdf.AddPage()
		layer := make([]step, len(idx))
		for k, i := range idx {
			layer[k] = steps[i]
		}
		renderLayerPage(pdf, sel.Box, layer, l+1)
	}

	pdf.AddPage()
	renderSequencePage(pdf, sel, steps)

	return pdf.OutputFileAndClose(path)
}

// renderLayerPage draws the footprints of one layer seen from above.
func renderLayerPage(pdf *fpdf.Fpdf, box model.Box, layer []step, layerNum int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Layer %d at %.1f cm: %s (%.0f x %.0f x %.0f cm)",
		layerNum, layer[0].Item.Y, boxName(box), box.Width, box.Depth, box.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	var area float64
	for _, s := range layer {
		area += s.Item.Size.Area()
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Items: %d | Footprint: %.0f cm² of %.0f cm² (%.1f%%)",
		len(layer), area, box.FloorArea(), area/box.FloorArea()*100)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight
	scale := math.Min(drawWidth/box.Width, drawHeight/box.Depth)

	canvasW := box.Width * scale
	canvasH := box.Depth * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Box floor (cardboard)
	pdf.SetFillColor(222, 196, 160)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for _, s := range layer {
		col := hexColor(s.Item.Color)
		pw := s.Item.Size.W * scale
		ph := s.Item.Size.D * scale
		px := offsetX + s.Item.X*scale
		py := offsetY + s.Item.Z*scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 8 && ph > 6 {
			pdf.SetFont("Helvetica", "B", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)
			num := strconv.Itoa(s.Index)
			numW := pdf.GetStringWidth(num)
			pdf.SetXY(px+(pw-numW)/2, py+ph/2-4)
			pdf.CellFormat(numW, 4, num, "", 0, "C", false, 0, "")

			dims := fmt.Sprintf("%.0fx%.0fx%.0f", s.Item.Size.W, s.Item.Size.D, s.Item.Size.H)
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph)-1)
			if dimsW := pdf.GetStringWidth(dims); ph > 12 && dimsW < pw-2 {
				pdf.SetXY(px+(pw-dimsW)/2, py+ph/2)
				pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, box, offsetX, offsetY, canvasW, canvasH)
	drawLegend(pdf, layer, offsetY+canvasH+6)
}

// drawDimensionAnnotations labels the box width below and depth to the left.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, box model.Box, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f cm", box.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	depthLabel := fmt.Sprintf("%.0f cm", box.Depth)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	dLabelW := pdf.GetStringWidth(depthLabel)
	pdf.SetXY(offsetX-3-dLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(dLabelW, 4, depthLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawLegend renders the products of a layer below the diagram.
func drawLegend(pdf *fpdf.Fpdf, layer []step, startY float64) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "In this layer:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for _, s := range layer {
		col := hexColor(s.Item.Color)
		label := fmt.Sprintf("%d. %s", s.Index, s.Product.Name)
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSequencePage draws the summary and the ordered placement table.
func renderSequencePage(pdf *fpdf.Fpdf, sel model.Selection, steps []step) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Packing Sequence", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 16
	summary := []struct {
		label string
		value string
	}{
		{"Box", fmt.Sprintf("%s (%.0f x %.0f x %.0f cm)", boxName(sel.Box), sel.Box.Width, sel.Box.Depth, sel.Box.Height)},
		{"Items", strconv.Itoa(len(sel.Items))},
		{"Layers", strconv.Itoa(len(sel.Layers()))},
		{"Volume Used", fmt.Sprintf("%.1f%%", sel.Efficiency())},
		{"Strategy", sel.Strategy},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summary {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(40, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 6
	}
	y += 4

	colWidths := []float64{15, 15, 70, 45, 55, 55, 12}
	headers := []string{"Step", "Layer", "Product", "SKU", "Position (x, y, z)", "Size (w x d x h)", ""}

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, header := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		y += 6
		pdf.SetFont("Helvetica", "", 9)
	}
	drawHeader()

	for i, s := range steps {
		if y+6 > pageHeight-marginBottom {
			pdf.AddPage()
			y = marginTop
			drawHeader()
		}
		row := []string{
			strconv.Itoa(s.Index),
			strconv.Itoa(s.Layer),
			s.Product.Name,
			s.Product.SKU,
			fmt.Sprintf("%.1f, %.1f, %.1f", s.Item.X, s.Item.Y, s.Item.Z),
			fmt.Sprintf("%.1f x %.1f x %.1f", s.Item.Size.W, s.Item.Size.D, s.Item.Size.H),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos := marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		col := hexColor(s.Item.Color)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[len(colWidths)-1], 6, "", "1", 0, "C", true, 0, "")
		y += 6
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by BoxFit", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 10
	case minDim > 20:
		return 8
	default:
		return 7
	}
}

func boxName(b model.Box) string {
	if b.Label != "" {
		return b.Label
	}
	return fmt.Sprintf("%.0fx%.0fx%.0f", b.Width, b.Depth, b.Height)
}
