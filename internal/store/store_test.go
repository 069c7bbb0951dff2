package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, ":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "", nil)
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestBoxes_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	big := model.NewBox("big", 40, 40, 40)
	small := model.NewBox("small", 10, 10, 10)
	require.NoError(t, s.SaveBox(ctx, big))
	require.NoError(t, s.SaveBox(ctx, small))

	boxes, err := s.ListBoxes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Box{small, big}, boxes, "ordered by volume")

	small.Height = 50
	require.NoError(t, s.SaveBox(ctx, small))
	boxes, err = s.ListBoxes(ctx)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, 50.0, boxes[0].Height)

	require.NoError(t, s.DeleteBox(ctx, big.ID))
	assert.ErrorIs(t, s.DeleteBox(ctx, big.ID), ErrNotFound)

	boxes, err = s.ListBoxes(ctx)
	require.NoError(t, err)
	assert.Len(t, boxes, 1)
}

func TestSaveBoxes(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	catalog := []model.Box{
		model.NewBox("a", 10, 10, 10),
		model.NewBox("b", 20, 20, 20),
		model.NewBox("c", 30, 30, 30),
	}
	require.NoError(t, s.SaveBoxes(ctx, catalog))

	boxes, err := s.ListBoxes(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog, boxes)
}

func TestProducts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := model.NewProduct("Tablet", 22, 15, 3)
	p.SKU = "SKU-1000-2000"
	p.Barcode = "1234567890123"
	q := model.NewProduct("Mug", 8, 8, 10)
	require.NoError(t, s.SaveProduct(ctx, p))
	require.NoError(t, s.SaveProduct(ctx, q))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Product{q, p}, products)

	n, err := s.DeleteProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	products, err = s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	products := []model.Product{model.NewProduct("cube", 10, 10, 10)}
	sel := model.Selection{
		Box:      model.NewBox("", 20, 20, 20),
		Strategy: "shelf",
		Items: []model.PlacedItem{{
			ID:        model.NewID(),
			ProductID: products[0].ID,
			Size:      model.Size{W: 10, D: 10, H: 10},
			Color:     model.ColorFor(0),
		}},
	}
	run := NewRun(sel)
	assert.Equal(t, []string{products[0].ID}, run.ProductIDs)
	run.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.BoxID, got.BoxID)
	assert.Equal(t, run.Strategy, got.Strategy)
	assert.Equal(t, run.ProductIDs, got.ProductIDs)
	assert.Equal(t, run.Items, got.Items)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))

	_, err = s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	box := model.NewBox("", 20, 20, 20)
	later := NewRun(model.Selection{Box: box, Strategy: "shelf"})
	later.CreatedAt = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	earlier := NewRun(model.Selection{Box: box, Strategy: "beam"})
	earlier.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRun(ctx, later))
	require.NoError(t, s.SaveRun(ctx, earlier))
	require.NoError(t, s.SaveRun(ctx, earlier), "saving a run twice is a no-op")

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, earlier.ID, runs[0].ID)
	assert.Equal(t, "beam", runs[0].Strategy)
	assert.Equal(t, later.ID, runs[1].ID)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
