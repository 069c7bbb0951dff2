package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Name,Width,Depth,Height\nMug,8,8,10\nBook,12,8,2\n", ','},
		{"semicolon", "Name;Width;Depth;Height\nMug;8;8;10\nBook;12;8;2\n", ';'},
		{"tab", "Name\tWidth\tDepth\tHeight\nMug\t8\t8\t10\nBook\t12\t8\t2\n", '\t'},
		{"pipe", "Name|Width|Depth|Height\nMug|8|8|10\nBook|12|8|2\n", '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCSVDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	row := []string{"Name", "SKU", "Barcode", "Width", "Depth", "Height", "Quantity"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Name: 0, SKU: 1, Barcode: 2, Width: 3, Depth: 4, Height: 5, Quantity: 6}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_AliasesAndCase(t *testing.T) {
	row := []string{"QTY", "H", "EAN", "L", "D", "Product"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Name: 5, SKU: -1, Barcode: 2, Width: 3, Depth: 4, Height: 1, Quantity: 0}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Mug", "8", "8", "10"})

	if isHeader {
		t.Error("expected no header")
	}
	if mapping.Name != 0 || mapping.Width != 1 || mapping.Depth != 2 || mapping.Height != 3 || mapping.Quantity != 4 {
		t.Errorf("unexpected positional mapping %+v", mapping)
	}
}

// ─── Product Import Tests ──────────────────────────────────

func TestImportProductsCSVFromReader_WithHeaders(t *testing.T) {
	data := "Name,SKU,Barcode,Width,Depth,Height,Qty\nMug,SKU-1,869000000001,8,8,10,2\nBook,SKU-2,,12,8,2,1\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Products) != 3 {
		t.Fatalf("expected 3 products (quantity expanded), got %d", len(result.Products))
	}

	mug := result.Products[0]
	if mug.Name != "Mug" || mug.SKU != "SKU-1" || mug.Barcode != "869000000001" {
		t.Errorf("unexpected metadata: %+v", mug)
	}
	if mug.Width != 8 || mug.Depth != 8 || mug.Height != 10 {
		t.Errorf("unexpected dimensions: %+v", mug)
	}
	if result.Products[1].Name != "Mug" {
		t.Errorf("expected second copy of Mug, got %s", result.Products[1].Name)
	}
	if result.Products[0].ID == result.Products[1].ID {
		t.Error("expanded copies must have distinct IDs")
	}
	if len(result.Boxes) != 0 {
		t.Errorf("expected no boxes, got %d", len(result.Boxes))
	}
}

func TestImportProductsCSVFromReader_QuantityOptional(t *testing.T) {
	data := "Name,Width,Depth,Height\nMug,8,8,10\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(result.Products))
	}
}

func TestImportProductsCSVFromReader_BlankQuantityWarns(t *testing.T) {
	data := "Name,Width,Depth,Height,Qty\nMug,8,8,10,\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ',')

	if len(result.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(result.Products))
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "defaulting to 1") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected quantity warning, got %v", result.Warnings)
	}
}

func TestImportProductsCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "Mug,8,8,10,2\nBook,12,8,2\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ',')

	if len(result.Products) != 3 {
		t.Fatalf("expected 3 products, got %d (errors: %v)", len(result.Products), result.Errors)
	}
	if result.Products[2].Name != "Book" || result.Products[2].Height != 2 {
		t.Errorf("unexpected product %+v", result.Products[2])
	}
}

func TestImportProductsCSVFromReader_UnrecognizedHeaderSkipped(t *testing.T) {
	data := "Artikel,Breite,Tiefe,Hoehe\nMug,8,8,10\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ',')

	if len(result.Products) != 1 {
		t.Fatalf("expected 1 product, got %d (errors: %v)", len(result.Products), result.Errors)
	}
}

func TestImportProductsCSVFromReader_DecimalValues(t *testing.T) {
	data := "Name;Width;Depth;Height\nMug;8.5;8,5;10\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ';')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	p := result.Products[0]
	if p.Width != 8.5 || p.Depth != 8.5 {
		t.Errorf("expected 8.5 x 8.5, got %v x %v", p.Width, p.Depth)
	}
}

func TestImportProductsCSVFromReader_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"invalid width", "Mug,abc,8,10,1", "Invalid width"},
		{"missing depth", "Mug,8,,10,1", "Missing depth"},
		{"negative height", "Mug,8,8,-10,1", "Height must be positive"},
		{"invalid quantity", "Mug,8,8,10,x", "Invalid quantity"},
		{"zero quantity", "Mug,8,8,10,0", "Quantity must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := "Name,Width,Depth,Height,Quantity\n" + tt.row + "\n"
			result := ImportProductsCSVFromReader(strings.NewReader(data), ',')
			if len(result.Products) != 0 {
				t.Errorf("expected no products, got %d", len(result.Products))
			}
			if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, result.Errors)
			}
			if len(result.Errors) == 1 && !strings.HasPrefix(result.Errors[0], "Line 2") {
				t.Errorf("expected line reference, got %q", result.Errors[0])
			}
		})
	}
}

func TestImportProductsCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "Name,Width,Depth,Height\nGood,8,8,10\nBad,abc,8,10\n\n\nAlsoGood,12,8,2\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ',')

	if len(result.Products) != 2 {
		t.Errorf("expected 2 valid products, got %d", len(result.Products))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(result.Errors))
	}
}

func TestImportProductsCSVFromReader_EmptyName(t *testing.T) {
	data := "Name,Width,Depth,Height\n,8,8,10\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ',')

	if len(result.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(result.Products))
	}
	if result.Products[0].Name != "Product 1" {
		t.Errorf("expected auto-generated name 'Product 1', got '%s'", result.Products[0].Name)
	}
}

func TestImportProductsCSVFromReader_MissingRequiredColumn(t *testing.T) {
	data := "Name,Width,Height\nMug,8,10\n"
	result := ImportProductsCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Depth") {
		t.Errorf("expected missing Depth column error, got %v", result.Errors)
	}
}

func TestImportProductsCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportProductsCSVFromReader(strings.NewReader(""), ',')

	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Box Import Tests ──────────────────────────────────────

func TestImportBoxesCSVFromReader(t *testing.T) {
	data := "Label,Width,Depth,Height\nSmall,20,15,10\n,30,30,30\n"
	result := ImportBoxesCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(result.Boxes))
	}
	if result.Boxes[0].Label != "Small" || result.Boxes[0].Volume() != 3000 {
		t.Errorf("unexpected box %+v", result.Boxes[0])
	}
	if result.Boxes[1].Label != "30x30x30" {
		t.Errorf("expected dimension label, got %q", result.Boxes[1].Label)
	}
}

func TestImportBoxesCSVFromReader_QuantityIgnored(t *testing.T) {
	data := "Label,Width,Depth,Height,Qty\nSmall,20,15,10,5\n"
	result := ImportBoxesCSVFromReader(strings.NewReader(data), ',')

	if len(result.Boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(result.Boxes))
	}
	if len(result.Warnings) < 2 {
		t.Errorf("expected header and quantity warnings, got %v", result.Warnings)
	}
}

// ─── File Import Tests ─────────────────────────────────────

func TestImportProductsCSV_SemicolonFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")
	content := "Name;Width;Depth;Height\nMug;8;8;10\nBook;12;8;2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportProductsCSV(path)

	if len(result.Products) != 2 {
		t.Errorf("expected 2 products, got %d (errors: %v)", len(result.Products), result.Errors)
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "semicolon") {
		t.Errorf("expected semicolon warning first, got %v", result.Warnings)
	}
}

func TestImportBoxesCSV_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boxes.csv")
	if err := os.WriteFile(path, []byte("Box,W,D,H\nA,10,10,10\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	result := ImportBoxesCSV(path)
	if len(result.Boxes) != 1 {
		t.Errorf("expected 1 box, got %d (errors: %v)", len(result.Boxes), result.Errors)
	}
}

func TestImportCSV_FileNotFoundAndEmpty(t *testing.T) {
	if r := ImportProductsCSV("/nonexistent/path/file.csv"); len(r.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if r := ImportBoxesCSV(path); len(r.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportProductsExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Qty", "Name", "Height", "Width", "Depth"},
		{2, "Mug", 10, 8, 8},
		{1, "Tablet", 3, 22, 15},
	})

	result := ImportProductsExcel(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(result.Products))
	}
	if result.Products[2].Name != "Tablet" || result.Products[2].Width != 22 {
		t.Errorf("unexpected product %+v", result.Products[2])
	}
}

func TestImportBoxesExcel_WithoutHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"S", 20, 15, 10},
		{"M", 40, 30, 20},
	})

	result := ImportBoxesExcel(path)

	if len(result.Boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d (errors: %v)", len(result.Boxes), result.Errors)
	}
	if result.Boxes[1].Label != "M" || result.Boxes[1].Height != 20 {
		t.Errorf("unexpected box %+v", result.Boxes[1])
	}
}

func TestImportExcel_Errors(t *testing.T) {
	if r := ImportProductsExcel("/nonexistent/file.xlsx"); len(r.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}

	path := createTestExcel(t, [][]interface{}{
		{"Name", "Width", "Depth", "Height"},
		{"Mug", "abc", 8, 10},
	})
	if r := ImportProductsExcel(path); len(r.Errors) == 0 {
		t.Error("expected error for invalid width")
	}
}
