package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/piwi3910/BoxFit/internal/engine"
	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPacker returns a fixed result, optionally blocking until released.
type stubPacker struct {
	sel     model.Selection
	err     error
	release chan struct{}
	calls   int
}

func (p *stubPacker) ChooseBox(boxes []model.Box, products []model.Product) (model.Selection, error) {
	p.calls++
	if p.release != nil {
		<-p.release
	}
	return p.sel, p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequence(n int) []model.PlacedItem {
	items := make([]model.PlacedItem, n)
	for i := range items {
		items[i] = model.PlacedItem{ID: model.NewID(), X: float64(i) * 10, Size: model.Size{W: 10, D: 10, H: 10}}
	}
	return items
}

func newTestSession(t *testing.T, p Packer, opts ...Option) (*Session, []model.Product) {
	t.Helper()
	s := New(p, append([]Option{WithLogger(quietLogger())}, opts...)...)
	products := []model.Product{
		model.NewProduct("a", 10, 10, 10),
		model.NewProduct("b", 10, 10, 10),
	}
	s.SetBoxes([]model.Box{model.NewBox("", 20, 10, 10)})
	s.AddProducts(products...)
	return s, products
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "timed_out", TimedOut.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestPack_EmptySelectionIsNoop(t *testing.T) {
	p := &stubPacker{}
	s, _ := newTestSession(t, p)

	sel, err := s.Pack(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sel)
	assert.Equal(t, Idle, s.State())
	assert.Zero(t, p.calls)
}

func TestPack_Succeeds(t *testing.T) {
	box := model.NewBox("", 20, 10, 10)
	p := &stubPacker{sel: model.Selection{Box: box, Items: sequence(2), Strategy: "shelf"}}
	s, products := newTestSession(t, p)
	require.NoError(t, s.SetSelection([]string{products[0].ID, products[1].ID}))

	sel, err := s.Pack(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sel)
	assert.Equal(t, box.ID, sel.Box.ID)
	assert.Equal(t, Succeeded, s.State())

	snap := s.Snapshot()
	assert.Equal(t, "shelf", snap.Strategy)
	assert.Len(t, snap.Suggestions, 2)
	assert.Empty(t, snap.Placed)
	assert.Zero(t, snap.Cursor)
	assert.Empty(t, snap.Status)
}

func TestPack_NoFitSetsStatus(t *testing.T) {
	p := &stubPacker{err: engine.ErrNoFit}
	s, products := newTestSession(t, p)
	require.NoError(t, s.ToggleProduct(products[0].ID))

	_, err := s.Pack(context.Background())
	assert.ErrorIs(t, err, engine.ErrNoFit)
	assert.Equal(t, Failed, s.State())
	assert.Equal(t, NoFitMessage, s.Snapshot().Status)

	_, ok := s.Result()
	assert.False(t, ok)
}

func TestPack_OtherFailure(t *testing.T) {
	p := &stubPacker{err: errors.New("boom")}
	s, products := newTestSession(t, p)
	require.NoError(t, s.ToggleProduct(products[0].ID))

	_, err := s.Pack(context.Background())
	assert.EqualError(t, err, "boom")
	assert.Equal(t, "Packing failed: boom", s.Snapshot().Status)
}

func TestPack_TimeoutDiscardsLateResult(t *testing.T) {
	p := &stubPacker{
		sel:     model.Selection{Items: sequence(1)},
		release: make(chan struct{}),
	}
	s, products := newTestSession(t, p, WithTimeout(20*time.Millisecond))
	require.NoError(t, s.ToggleProduct(products[0].ID))

	_, err := s.Pack(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, TimedOut, s.State())
	assert.Equal(t, TimeoutMessage, s.Snapshot().Status)

	close(p.release)
	// the abandoned computation lands after the timeout and must be ignored
	assert.Never(t, func() bool {
		_, ok := s.Result()
		return ok || s.State() != TimedOut
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestPack_BusyWhileRunning(t *testing.T) {
	p := &stubPacker{
		sel:     model.Selection{Items: sequence(1)},
		release: make(chan struct{}),
	}
	s, products := newTestSession(t, p)
	require.NoError(t, s.ToggleProduct(products[0].ID))

	errc := make(chan error, 1)
	go func() {
		_, err := s.Pack(context.Background())
		errc <- err
	}()
	require.Eventually(t, func() bool { return s.State() == Running }, time.Second, time.Millisecond)

	_, err := s.Pack(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.Reset(), ErrBusy)

	close(p.release)
	require.NoError(t, <-errc)
	assert.Equal(t, Succeeded, s.State())
}

func TestPack_ContextCancelled(t *testing.T) {
	p := &stubPacker{release: make(chan struct{})}
	defer close(p.release)
	s, products := newTestSession(t, p)
	require.NoError(t, s.ToggleProduct(products[0].ID))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Pack(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Failed, s.State())
}

func TestPack_WithRealSelector(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.Seed = 1
	s, products := newTestSession(t, engine.NewSelector(opts))
	require.NoError(t, s.SetSelection([]string{products[0].ID, products[1].ID}))

	sel, err := s.Pack(context.Background())
	require.NoError(t, err)
	require.Len(t, sel.Items, 2)
	require.NoError(t, engine.Validate(sel.Box, products, sel.Items))
}

func TestStepping(t *testing.T) {
	items := sequence(3)
	p := &stubPacker{sel: model.Selection{Items: items}}
	s, products := newTestSession(t, p)
	require.NoError(t, s.ToggleProduct(products[0].ID))
	_, err := s.Pack(context.Background())
	require.NoError(t, err)

	assert.False(t, s.Previous(), "nothing to step back over")

	first, ok := s.ConfirmNext()
	require.True(t, ok)
	assert.Equal(t, items[0].ID, first.ID)
	_, ok = s.ConfirmNext()
	require.True(t, ok)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Cursor)
	assert.Len(t, snap.Placed, 2)

	require.True(t, s.Previous())
	snap = s.Snapshot()
	assert.Equal(t, 1, snap.Cursor)
	require.Len(t, snap.Placed, 1)
	assert.Equal(t, items[0].ID, snap.Placed[0].ID)

	for i := 0; i < 2; i++ {
		_, ok = s.ConfirmNext()
		require.True(t, ok)
	}
	_, ok = s.ConfirmNext()
	assert.False(t, ok, "all suggestions confirmed")
	assert.Len(t, s.Snapshot().Placed, 3)
}

func TestReset(t *testing.T) {
	p := &stubPacker{sel: model.Selection{Items: sequence(2)}}
	s, products := newTestSession(t, p)
	require.NoError(t, s.ToggleProduct(products[0].ID))
	_, err := s.Pack(context.Background())
	require.NoError(t, err)
	s.ConfirmNext()

	require.NoError(t, s.Reset())
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.Products())
	assert.Empty(t, s.Selected())
	assert.Len(t, s.Boxes(), 1, "box catalog survives a reset")

	snap := s.Snapshot()
	assert.Empty(t, snap.Suggestions)
	assert.Empty(t, snap.Placed)
	assert.Nil(t, snap.Box)
}

func TestSelection(t *testing.T) {
	s, products := newTestSession(t, &stubPacker{})

	require.NoError(t, s.ToggleProduct(products[1].ID))
	require.NoError(t, s.ToggleProduct(products[0].ID))
	sel := s.Selected()
	require.Len(t, sel, 2)
	assert.Equal(t, products[0].ID, sel[0].ID, "catalog order")

	require.NoError(t, s.ToggleProduct(products[1].ID))
	assert.Len(t, s.Selected(), 1)

	assert.ErrorIs(t, s.ToggleProduct("missing"), ErrUnknownProduct)
	assert.ErrorIs(t, s.SetSelection([]string{products[0].ID, "missing"}), ErrUnknownProduct)
	assert.Len(t, s.Selected(), 1, "rejected update leaves selection alone")

	require.NoError(t, s.SetSelection([]string{products[1].ID, products[1].ID}))
	assert.Equal(t, []string{products[1].ID}, s.Snapshot().Selected)

	s.SetProducts(products[:1])
	assert.Empty(t, s.Selected())
}

func TestBoxes(t *testing.T) {
	s, _ := newTestSession(t, &stubPacker{})
	extra := model.NewBox("extra", 5, 5, 5)
	s.AddBox(extra)

	got, ok := s.Box(extra.ID)
	require.True(t, ok)
	assert.Equal(t, extra, got)

	require.NoError(t, s.RemoveBox(extra.ID))
	_, ok = s.Box(extra.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, s.RemoveBox(extra.ID), ErrUnknownBox)
}

func TestTransitions(t *testing.T) {
	assert.True(t, canTransition(Idle, Running))
	assert.True(t, canTransition(TimedOut, Running))
	assert.False(t, canTransition(Idle, Succeeded))
	assert.False(t, canTransition(Running, Idle))
	assert.False(t, canTransition(Running, Running))
}
