package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/BoxFit/internal/importer"
	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/piwi3910/BoxFit/internal/project"
)

// loadConfig returns the stored config and the effective config with
// environment overrides applied. Only the stored one should be saved back.
func loadConfig(path string) (stored, effective model.AppConfig, err error) {
	stored, err = project.LoadAppConfig(path)
	if err != nil {
		return stored, stored, fmt.Errorf("load config: %w", err)
	}
	effective, err = project.ApplyEnv(stored, ".env")
	return stored, effective, err
}

func isExcel(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

// report logs import warnings and errors, failing when nothing usable was
// read.
func report(logger *slog.Logger, path string, res importer.ImportResult, empty bool) error {
	for _, w := range res.Warnings {
		logger.Warn("import", "file", path, "warning", w)
	}
	for _, e := range res.Errors {
		logger.Error("import", "file", path, "error", e)
	}
	if empty {
		if len(res.Errors) > 0 {
			return fmt.Errorf("%s: %s", path, res.Errors[0])
		}
		return fmt.Errorf("%s: no rows imported", path)
	}
	return nil
}

func readProducts(path string, logger *slog.Logger) ([]model.Product, error) {
	var res importer.ImportResult
	if isExcel(path) {
		res = importer.ImportProductsExcel(path)
	} else {
		res = importer.ImportProductsCSV(path)
	}
	if err := report(logger, path, res, len(res.Products) == 0); err != nil {
		return nil, err
	}
	return res.Products, nil
}

func readBoxes(path string, logger *slog.Logger) ([]model.Box, error) {
	var res importer.ImportResult
	if isExcel(path) {
		res = importer.ImportBoxesExcel(path)
	} else {
		res = importer.ImportBoxesCSV(path)
	}
	if err := report(logger, path, res, len(res.Boxes) == 0); err != nil {
		return nil, err
	}
	return res.Boxes, nil
}

// boxCatalog returns the boxes from boxesPath when given, otherwise from the
// catalog file.
func boxCatalog(boxesPath, catalogPath string, logger *slog.Logger) ([]model.Box, error) {
	if boxesPath != "" {
		return readBoxes(boxesPath, logger)
	}
	c, err := project.LoadCatalog(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c.Boxes, nil
}

// parseDims parses "WxDxH" in cm.
func parseDims(s string) (w, d, h float64, err error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid box size %q, want WxDxH", s)
	}
	var dims [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v <= 0 {
			return 0, 0, 0, fmt.Errorf("invalid box size %q, want WxDxH", s)
		}
		dims[i] = v
	}
	return dims[0], dims[1], dims[2], nil
}
