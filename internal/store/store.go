// Package store persists box and product catalogs and packing runs in a SQL
// database. SQLite (ncruces/go-sqlite3) is the default; PostgreSQL is
// reached through the pgx stdlib driver.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/piwi3910/BoxFit/internal/model"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Run is a stored packing result.
type Run struct {
	ID         string             `json:"id"`
	BoxID      string             `json:"box_id"`
	Strategy   string             `json:"strategy"`
	ProductIDs []string           `json:"product_ids"`
	Items      []model.PlacedItem `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewRun wraps a selection for storage. ProductIDs lists the packed
// products in placement order.
func NewRun(sel model.Selection) Run {
	ids := make([]string, len(sel.Items))
	for i, it := range sel.Items {
		ids[i] = it.ProductID
	}
	return Run{
		ID:         model.NewID(),
		BoxID:      sel.Box.ID,
		Strategy:   sel.Strategy,
		ProductIDs: ids,
		Items:      sel.Items,
		CreatedAt:  time.Now().UTC(),
	}
}

type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open connects to the database. driver is "sqlite3" or "pgx".
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	logger.Info("database connected", "driver", driver)
	return &Store{db: db, driver: driver, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS boxes (
		id     TEXT PRIMARY KEY,
		label  TEXT NOT NULL DEFAULT '',
		width  DOUBLE PRECISION NOT NULL,
		depth  DOUBLE PRECISION NOT NULL,
		height DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id      TEXT PRIMARY KEY,
		name    TEXT NOT NULL DEFAULT '',
		sku     TEXT NOT NULL DEFAULT '',
		barcode TEXT NOT NULL DEFAULT '',
		width   DOUBLE PRECISION NOT NULL,
		depth   DOUBLE PRECISION NOT NULL,
		height  DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pack_runs (
		id          TEXT PRIMARY KEY,
		box_id      TEXT NOT NULL,
		strategy    TEXT NOT NULL,
		product_ids TEXT NOT NULL,
		items       TEXT NOT NULL,
		created_at  TEXT NOT NULL
	)`,
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveBox inserts or updates a box.
func (s *Store) SaveBox(ctx context.Context, b model.Box) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO boxes (id, label, width, depth, height)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			label = excluded.label, width = excluded.width,
			depth = excluded.depth, height = excluded.height
	`), b.ID, b.Label, b.Width, b.Depth, b.Height)
	if err != nil {
		return fmt.Errorf("save box %s: %w", b.ID, err)
	}
	return nil
}

// SaveBoxes stores a whole catalog in one transaction.
func (s *Store) SaveBoxes(ctx context.Context, boxes []model.Box) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO boxes (id, label, width, depth, height)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			label = excluded.label, width = excluded.width,
			depth = excluded.depth, height = excluded.height
	`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range boxes {
		if _, err := stmt.ExecContext(ctx, b.ID, b.Label, b.Width, b.Depth, b.Height); err != nil {
			return fmt.Errorf("save box %s: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("box catalog saved", "boxes", len(boxes))
	return nil
}

// ListBoxes returns all boxes ordered by ascending volume.
func (s *Store) ListBoxes(ctx context.Context) ([]model.Box, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, width, depth, height
		FROM boxes
		ORDER BY width * depth * height, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list boxes: %w", err)
	}
	defer rows.Close()

	var boxes []model.Box
	for rows.Next() {
		var b model.Box
		if err := rows.Scan(&b.ID, &b.Label, &b.Width, &b.Depth, &b.Height); err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return boxes, rows.Err()
}

// DeleteBox removes a box. It returns ErrNotFound when id does not exist.
func (s *Store) DeleteBox(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM boxes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete box %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("box %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveProduct inserts or updates a product.
func (s *Store) SaveProduct(ctx context.Context, p model.Product) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO products (id, name, sku, barcode, width, depth, height)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, sku = excluded.sku, barcode = excluded.barcode,
			width = excluded.width, depth = excluded.depth, height = excluded.height
	`), p.ID, p.Name, p.SKU, p.Barcode, p.Width, p.Depth, p.Height)
	if err != nil {
		return fmt.Errorf("save product %s: %w", p.ID, err)
	}
	return nil
}

// ListProducts returns all products ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sku, barcode, width, depth, height
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Barcode, &p.Width, &p.Depth, &p.Height); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// DeleteProducts removes every stored product and returns how many were
// removed. Runs keep their product IDs.
func (s *Store) DeleteProducts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.logger.Info("products cleared", "products", n)
	return n, nil
}

// SaveRun stores a packing result. Runs are immutable; saving an existing ID
// again is a no-op.
func (s *Store) SaveRun(ctx context.Context, r Run) error {
	ids, err := json.Marshal(r.ProductIDs)
	if err != nil {
		return err
	}
	items, err := json.Marshal(r.Items)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO pack_runs (id, box_id, strategy, product_ids, items, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`), r.ID, r.BoxID, r.Strategy, string(ids), string(items), r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	s.logger.Info("pack run saved", "run", r.ID, "box", r.BoxID, "items", len(r.Items))
	return nil
}

// GetRun loads a packing result by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, box_id, strategy, product_ids, items, created_at
		FROM pack_runs
		WHERE id = ?
	`), id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

// ListRuns returns every stored run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, box_id, strategy, product_ids, items, created_at
		FROM pack_runs
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r              Run
		ids, items, ts string
	)
	if err := row.Scan(&r.ID, &r.BoxID, &r.Strategy, &ids, &items, &ts); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(ids), &r.ProductIDs); err != nil {
		return Run{}, fmt.Errorf("decode run %s products: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(items), &r.Items); err != nil {
		return Run{}, fmt.Errorf("decode run %s items: %w", r.ID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Run{}, fmt.Errorf("decode run %s timestamp: %w", r.ID, err)
	}
	r.CreatedAt = created
	return r, nil
}
