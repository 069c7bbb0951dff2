package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/BoxFit/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each placement label's QR code.
type LabelInfo struct {
	Step      int     `json:"step"`
	Product   string  `json:"product"`
	SKU       string  `json:"sku,omitempty"`
	Barcode   string  `json:"barcode,omitempty"`
	ProductID string  `json:"product_id"`
	Box       string  `json:"box"`
	Layer     int     `json:"layer"`
	X         float64 `json:"x_cm"`
	Y         float64 `json:"y_cm"`
	Z         float64 `json:"z_cm"`
	Width     float64 `json:"w_cm"`
	Depth     float64 `json:"d_cm"`
	Height    float64 `json:"h_cm"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF with one QR-coded label per placement, in
// packing order. Each label shows the step number, product and target
// position; the QR code encodes the same data as JSON.
func ExportLabels(path string, sel model.Selection, products []model.Product) error {
	labels := CollectLabelInfos(sel, products)
	if len(labels) == 0 {
		return fmt.Errorf("no placements to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for step %d: %w", label.Step, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_step_%d", info.Step)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	title := fmt.Sprintf("#%d %s", info.Step, info.Product)
	if pdf.GetStringWidth(title) > textW {
		for len(title) > 0 && pdf.GetStringWidth(title+"...") > textW {
			title = title[:len(title)-1]
		}
		title += "..."
	}
	pdf.CellFormat(textW, 4.5, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.0f x %.0f x %.0f cm", info.Width, info.Depth, info.Height)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pos := fmt.Sprintf("Layer %d @ (%.0f, %.0f, %.0f)", info.Layer, info.X, info.Y, info.Z)
	pdf.CellFormat(textW, 3, pos, "", 1, "L", false, 0, "")

	if info.SKU != "" {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.CellFormat(textW, 3, info.SKU, "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// CollectLabelInfos extracts label information from a selection in
// placement order.
func CollectLabelInfos(sel model.Selection, products []model.Product) []LabelInfo {
	steps := buildSteps(sel, products)
	labels := make([]LabelInfo, 0, len(steps))
	for _, s := range steps {
		labels = append(labels, LabelInfo{
			Step:      s.Index,
			Product:   s.Product.Name,
			SKU:       s.Product.SKU,
			Barcode:   s.Product.Barcode,
			ProductID: s.Product.ID,
			Box:       boxName(sel.Box),
			Layer:     s.Layer,
			X:         s.Item.X,
			Y:         s.Item.Y,
			Z:         s.Item.Z,
			Width:     s.Item.Size.W,
			Depth:     s.Item.Size.D,
			Height:    s.Item.Size.H,
		})
	}
	return labels
}
