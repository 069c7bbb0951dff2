package export

import (
	"fmt"
	"strings"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	sequenceSheet = "Sequence"
	summarySheet  = "Summary"
)

// ExportXLSX writes the placement sequence to an Excel workbook: a Sequence
// sheet with one row per step (colored like the placement) and a Summary
// sheet with box and utilization figures.
func ExportXLSX(path string, sel model.Selection, products []model.Product) error {
	if len(sel.Items) == 0 {
		return fmt.Errorf("no placements to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sequenceSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	headers := []interface{}{"Step", "Layer", "Product", "SKU", "Barcode", "X (cm)", "Y (cm)", "Z (cm)", "W (cm)", "D (cm)", "H (cm)", "Color"}
	if err := f.SetSheetRow(sequenceSheet, "A1", &headers); err != nil {
		return err
	}
	if err := f.SetCellStyle(sequenceSheet, "A1", "L1", headerStyle); err != nil {
		return err
	}

	swatches := make(map[string]int)
	for i, s := range buildSteps(sel, products) {
		row := []interface{}{
			s.Index, s.Layer, s.Product.Name, s.Product.SKU, s.Product.Barcode,
			s.Item.X, s.Item.Y, s.Item.Z,
			s.Item.Size.W, s.Item.Size.D, s.Item.Size.H,
			s.Item.Color,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sequenceSheet, cell, &row); err != nil {
			return err
		}

		style, ok := swatches[s.Item.Color]
		if !ok && s.Item.Color != "" {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Color: []string{strings.TrimPrefix(s.Item.Color, "#")}, Pattern: 1},
			})
			if err != nil {
				return err
			}
			swatches[s.Item.Color] = style
			ok = true
		}
		if ok {
			colorCell := fmt.Sprintf("L%d", i+2)
			if err := f.SetCellStyle(sequenceSheet, colorCell, colorCell, style); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(sequenceSheet, "C", "E", 22); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Box", boxName(sel.Box)},
		{"Width (cm)", sel.Box.Width},
		{"Depth (cm)", sel.Box.Depth},
		{"Height (cm)", sel.Box.Height},
		{"Items", len(sel.Items)},
		{"Layers", len(sel.Layers())},
		{"Used Volume (cm³)", sel.UsedVolume()},
		{"Efficiency (%)", sel.Efficiency()},
		{"Strategy", sel.Strategy},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return err
	}

	return f.SaveAs(path)
}
