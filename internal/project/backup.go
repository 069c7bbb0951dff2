package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/piwi3910/BoxFit/internal/store"
)

// BackupVersion is written into every backup. Backups with a different
// major version are rejected on read.
const BackupVersion = "2.0"

// Backup is a portable copy of a BoxFit installation: engine config, the
// box and product catalog and the packing run history.
type Backup struct {
	Version   string          `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Catalog   Catalog         `json:"catalog"`
	Runs      []store.Run     `json:"runs"`
}

// NewBackup stamps the current version and time on a backup.
func NewBackup(config model.AppConfig, catalog Catalog, runs []store.Run) Backup {
	return Backup{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC(),
		Config:    config,
		Catalog:   catalog,
		Runs:      runs,
	}
}

// Summary describes the backup contents for display.
func (b Backup) Summary() string {
	return fmt.Sprintf("%d boxes, %d products, %d runs",
		len(b.Catalog.Boxes), len(b.Catalog.Products), len(b.Runs))
}

// WriteBackup writes b as indented JSON, creating parent directories.
func WriteBackup(path string, b Backup) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// ReadBackup loads and checks a backup. Config fields missing from the file
// keep their defaults and missing lists come back empty.
func ReadBackup(path string) (Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Backup{}, fmt.Errorf("read backup: %w", err)
	}
	b := Backup{Config: model.DefaultAppConfig()}
	if err := json.Unmarshal(data, &b); err != nil {
		return Backup{}, fmt.Errorf("parse backup: %w", err)
	}
	if err := b.check(); err != nil {
		return Backup{}, fmt.Errorf("invalid backup %s: %w", path, err)
	}
	if b.Config.RecentFiles == nil {
		b.Config.RecentFiles = []string{}
	}
	if b.Catalog.Boxes == nil {
		b.Catalog.Boxes = []model.Box{}
	}
	if b.Catalog.Products == nil {
		b.Catalog.Products = []model.Product{}
	}
	if b.Runs == nil {
		b.Runs = []store.Run{}
	}
	return b, nil
}

func (b Backup) check() error {
	if b.Version == "" {
		return errors.New("missing version")
	}
	if major(b.Version) != major(BackupVersion) {
		return fmt.Errorf("version %s is not compatible with %s", b.Version, BackupVersion)
	}

	var errs []error
	if err := CheckAppConfig(b.Config); err != nil {
		errs = append(errs, err)
	}
	for _, box := range b.Catalog.Boxes {
		if box.Width <= 0 || box.Depth <= 0 || box.Height <= 0 {
			errs = append(errs, fmt.Errorf("box %s has a non-positive dimension", box.ID))
		}
	}
	for _, p := range b.Catalog.Products {
		if p.Width <= 0 || p.Depth <= 0 || p.Height <= 0 {
			errs = append(errs, fmt.Errorf("product %s has a non-positive dimension", p.ID))
		}
	}
	for _, r := range b.Runs {
		if r.ID == "" || r.BoxID == "" {
			errs = append(errs, errors.New("run without id or box"))
		}
	}
	return errors.Join(errs...)
}

func major(version string) string {
	m, _, _ := strings.Cut(version, ".")
	return m
}

// Restore writes the catalog and run history into st. Existing boxes and
// products with the same IDs are overwritten; existing runs are kept.
func (b Backup) Restore(ctx context.Context, st *store.Store) error {
	if err := st.SaveBoxes(ctx, b.Catalog.Boxes); err != nil {
		return err
	}
	for _, p := range b.Catalog.Products {
		if err := st.SaveProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, r := range b.Runs {
		if err := st.SaveRun(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
