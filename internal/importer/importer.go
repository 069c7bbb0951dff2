// Package importer provides CSV and Excel import of product lists and box
// catalogs. It supports automatic delimiter detection, flexible column
// mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation. Only one of
// Products or Boxes is filled, depending on the import function.
type ImportResult struct {
	Products []model.Product
	Boxes    []model.Box
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
// -1 means the column is absent.
type ColumnMapping struct {
	Name     int
	SKU      int
	Barcode  int
	Width    int
	Depth    int
	Height   int
	Quantity int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":     {"name", "label", "product", "product name", "description", "desc", "item", "title", "box"},
	"sku":      {"sku", "article", "article no", "item code", "code"},
	"barcode":  {"barcode", "ean", "upc", "gtin"},
	"width":    {"width", "w", "length", "len", "l", "x"},
	"depth":    {"depth", "d", "z"},
	"height":   {"height", "h", "y"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
}

// kind describes what an import produces.
type kind int

const (
	kindProducts kind = iota
	kindBoxes
)

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or the positional
// mapping (Name, Width, Depth, Height, Quantity, SKU, Barcode) and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		Name:     -1,
		SKU:      -1,
		Barcode:  -1,
		Width:    -1,
		Depth:    -1,
		Height:   -1,
		Quantity: -1,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				var slot *int
				switch role {
				case "name":
					slot = &mapping.Name
				case "sku":
					slot = &mapping.SKU
				case "barcode":
					slot = &mapping.Barcode
				case "width":
					slot = &mapping.Width
				case "depth":
					slot = &mapping.Depth
				case "height":
					slot = &mapping.Height
				case "quantity":
					slot = &mapping.Quantity
				}
				if *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{
			Name:     0,
			Width:    1,
			Depth:    2,
			Height:   3,
			Quantity: 4,
			SKU:      5,
			Barcode:  6,
		}, false
	}

	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDimension reads one required positive dimension.
func parseDimension(row []string, idx int, name, rowLabel string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	// accept a decimal comma, common in European spreadsheets
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	if v <= 0 {
		return 0, fmt.Sprintf("%s: %s must be positive", rowLabel, strings.ToUpper(name[:1])+name[1:])
	}
	return v, ""
}

// parseDimensions reads width, depth and height from a row.
func parseDimensions(row []string, mapping ColumnMapping, rowLabel string) (w, d, h float64, errMsg string) {
	if w, errMsg = parseDimension(row, mapping.Width, "width", rowLabel); errMsg != "" {
		return
	}
	if d, errMsg = parseDimension(row, mapping.Depth, "depth", rowLabel); errMsg != "" {
		return
	}
	h, errMsg = parseDimension(row, mapping.Height, "height", rowLabel)
	return
}

// parseProductRow extracts one or more identical products from a row. A
// missing quantity means one.
func parseProductRow(row []string, mapping ColumnMapping, rowLabel string, count int) ([]model.Product, string, string) {
	name := getCell(row, mapping.Name)
	if name == "" {
		name = fmt.Sprintf("Product %d", count+1)
	}

	w, d, h, errMsg := parseDimensions(row, mapping, rowLabel)
	if errMsg != "" {
		return nil, errMsg, ""
	}

	qty := 1
	var warning string
	if qtyStr := getCell(row, mapping.Quantity); qtyStr != "" {
		n, err := strconv.Atoi(qtyStr)
		if err != nil {
			return nil, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), ""
		}
		if n <= 0 {
			return nil, fmt.Sprintf("%s: Quantity must be positive", rowLabel), ""
		}
		qty = n
	} else if mapping.Quantity >= 0 {
		warning = fmt.Sprintf("%s: Missing quantity, defaulting to 1", rowLabel)
	}

	sku := getCell(row, mapping.SKU)
	barcode := getCell(row, mapping.Barcode)
	products := make([]model.Product, qty)
	for i := range products {
		p := model.NewProduct(name, w, d, h)
		p.SKU = sku
		p.Barcode = barcode
		products[i] = p
	}
	return products, "", warning
}

// parseBoxRow extracts a box from a row.
func parseBoxRow(row []string, mapping ColumnMapping, rowLabel string) (model.Box, string, string) {
	w, d, h, errMsg := parseDimensions(row, mapping, rowLabel)
	if errMsg != "" {
		return model.Box{}, errMsg, ""
	}
	label := getCell(row, mapping.Name)
	if label == "" {
		label = fmt.Sprintf("%gx%gx%g", w, d, h)
	}

	var warning string
	if q := getCell(row, mapping.Quantity); q != "" && q != "1" {
		warning = fmt.Sprintf("%s: Quantity ignored for boxes", rowLabel)
	}
	return model.NewBox(label, w, d, h), "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportProductsCSV imports products from a CSV file.
func ImportProductsCSV(path string) ImportResult {
	return importCSVFile(path, kindProducts)
}

// ImportBoxesCSV imports a box catalog from a CSV file.
func ImportBoxesCSV(path string) ImportResult {
	return importCSVFile(path, kindBoxes)
}

// ImportProductsExcel imports products from the first sheet of an Excel file.
func ImportProductsExcel(path string) ImportResult {
	return importExcelFile(path, kindProducts)
}

// ImportBoxesExcel imports a box catalog from the first sheet of an Excel file.
func ImportBoxesExcel(path string) ImportResult {
	return importExcelFile(path, kindBoxes)
}

// ImportProductsCSVFromReader imports products from a CSV reader with a
// known delimiter.
func ImportProductsCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	return importCSVReader(reader, delimiter, kindProducts)
}

// ImportBoxesCSVFromReader imports boxes from a CSV reader with a known
// delimiter.
func ImportBoxesCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	return importCSVReader(reader, delimiter, kindBoxes)
}

// importCSVFile detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func importCSVFile(path string, k kind) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	result = importCSVReader(bytes.NewReader(data), delimiter, k)
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

func importCSVReader(reader io.Reader, delimiter rune, k kind) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", k)
}

func importExcelFile(path string, k kind) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", k)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row.
func importFromRows(rows [][]string, rowPrefix string, k kind) ImportResult {
	result := ImportResult{}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Depth == -1 {
			missing = append(missing, "Depth")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 4 {
		// First column after the name is not numeric: an unrecognized
		// header. Skip it but keep the positional mapping.
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		var errMsg, warning string
		switch k {
		case kindProducts:
			var products []model.Product
			products, errMsg, warning = parseProductRow(row, mapping, rowLabel, len(result.Products))
			result.Products = append(result.Products, products...)
		case kindBoxes:
			var box model.Box
			box, errMsg, warning = parseBoxRow(row, mapping, rowLabel)
			if errMsg == "" {
				result.Boxes = append(result.Boxes, box)
			}
		}

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}

	return result
}
