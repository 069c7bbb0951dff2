package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/BoxFit/internal/model"
)

// Catalog is the set of boxes and products kept between runs.
type Catalog struct {
	Boxes    []model.Box     `json:"boxes"`
	Products []model.Product `json:"products"`
}

// DefaultCatalogSize is the number of boxes in a generated default catalog.
const DefaultCatalogSize = 500

// DefaultCatalog returns a generated box catalog and no products.
func DefaultCatalog() Catalog {
	return Catalog{Boxes: GenerateBoxCatalog(DefaultCatalogSize), Products: []model.Product{}}
}

// DefaultCatalogPath returns the default file path for the catalog file.
// This is located at ~/.boxfit/catalog.json.
func DefaultCatalogPath() string {
	return filepath.Join(DefaultConfigDir(), "catalog.json")
}

// SaveCatalog writes the catalog to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveCatalog(path string, c Catalog) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCatalog reads the catalog from the specified JSON file.
// If the file does not exist, it returns the default catalog and saves it.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c := DefaultCatalog()
			if saveErr := SaveCatalog(path, c); saveErr != nil {
				return c, saveErr
			}
			return c, nil
		}
		return Catalog{}, err
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// MergeCatalog appends the boxes and products of imported to existing.
// Duplicate IDs are skipped.
func MergeCatalog(existing, imported Catalog) Catalog {
	boxIDs := make(map[string]bool, len(existing.Boxes))
	for _, b := range existing.Boxes {
		boxIDs[b.ID] = true
	}
	productIDs := make(map[string]bool, len(existing.Products))
	for _, p := range existing.Products {
		productIDs[p.ID] = true
	}

	for _, b := range imported.Boxes {
		if !boxIDs[b.ID] {
			existing.Boxes = append(existing.Boxes, b)
			boxIDs[b.ID] = true
		}
	}
	for _, p := range imported.Products {
		if !productIDs[p.ID] {
			existing.Products = append(existing.Products, p)
			productIDs[p.ID] = true
		}
	}
	return existing
}

// ImportCatalog reads a catalog file and merges it into existing.
func ImportCatalog(path string, existing Catalog) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported Catalog
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}
	return MergeCatalog(existing, imported), nil
}
