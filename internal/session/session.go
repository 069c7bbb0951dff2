package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/piwi3910/BoxFit/internal/engine"
	"github.com/piwi3910/BoxFit/internal/model"
)

// NoFitMessage is the status shown when no catalog box holds the selection.
const NoFitMessage = "Selected products do not fit any box in the catalog. Add a larger box or select fewer products."

// TimeoutMessage is the status shown when the watchdog fires.
const TimeoutMessage = "Packing took too long. Try selecting fewer products."

// Packer picks a box and a placement sequence for a set of products.
// *engine.Selector implements it.
type Packer interface {
	ChooseBox(boxes []model.Box, products []model.Product) (model.Selection, error)
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout sets the watchdog timeout for Pack. Non-positive values keep
// the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session holds the catalogs, the product selection, the packing state
// machine and the step-by-step placement cursor. It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	packer  Packer
	timeout time.Duration
	logger  *slog.Logger

	boxes    []model.Box
	products []model.Product
	selected []string

	state      State
	generation uint64
	result     *model.Selection
	status     string

	suggestions []model.PlacedItem
	cursor      int
	placed      []model.PlacedItem
}

// New creates an idle Session backed by packer.
func New(packer Packer, opts ...Option) *Session {
	s := &Session{
		packer:  packer,
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current computation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Boxes returns a copy of the box catalog.
func (s *Session) Boxes() []model.Box {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Box(nil), s.boxes...)
}

// SetBoxes replaces the box catalog.
func (s *Session) SetBoxes(boxes []model.Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = append([]model.Box(nil), boxes...)
}

// AddBox appends a box to the catalog.
func (s *Session) AddBox(b model.Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = append(s.boxes, b)
}

// RemoveBox deletes a box from the catalog.
func (s *Session) RemoveBox(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.boxes {
		if b.ID == id {
			s.boxes = append(s.boxes[:i], s.boxes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownBox, id)
}

// Box looks up a catalog box by ID.
func (s *Session) Box(id string) (model.Box, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.boxes {
		if b.ID == id {
			return b, true
		}
	}
	return model.Box{}, false
}

// Products returns a copy of the product catalog.
func (s *Session) Products() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Product(nil), s.products...)
}

// SetProducts replaces the product catalog and drops selections of products
// that no longer exist.
func (s *Session) SetProducts(products []model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]model.Product(nil), products...)
	kept := s.selected[:0]
	for _, id := range s.selected {
		if s.hasProduct(id) {
			kept = append(kept, id)
		}
	}
	s.selected = kept
}

// AddProducts appends products to the catalog.
func (s *Session) AddProducts(products ...model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, products...)
}

// ToggleProduct adds the product to the selection, or removes it when it is
// already selected.
func (s *Session) ToggleProduct(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasProduct(id) {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	for i, sel := range s.selected {
		if sel == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return nil
		}
	}
	s.selected = append(s.selected, id)
	return nil
}

// SetSelection replaces the selection. Duplicate IDs are ignored; an unknown
// ID rejects the whole update.
func (s *Session) SetSelection(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(ids))
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if !s.hasProduct(id) {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	s.selected = next
	return nil
}

// Selected returns the selected products in catalog order.
func (s *Session) Selected() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedProducts()
}

// Pack chooses the smallest box for the selected products. An empty
// selection is a no-op and returns (nil, nil). Only one computation runs at a
// time; a second call while one is in flight returns ErrBusy. When the
// watchdog fires first the session moves to TimedOut and Pack returns
// ErrTimeout; the abandoned computation's result is discarded when it lands.
func (s *Session) Pack(ctx context.Context) (*model.Selection, error) {
	s.mu.Lock()
	if s.state == Running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	products := s.selectedProducts()
	if len(products) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	if err := s.transition(Running); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.generation++
	gen := s.generation
	boxes := append([]model.Box(nil), s.boxes...)
	s.clearResult()
	s.status = ""
	s.mu.Unlock()

	s.logger.Info("packing started", "products", len(products), "boxes", len(boxes))
	start := time.Now()

	type outcome struct {
		sel *model.Selection
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		sel, err := s.packer.ChooseBox(boxes, products)
		res, ferr := s.finish(gen, sel, err, time.Since(start))
		done <- outcome{res, ferr}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.sel, out.err
	case <-timer.C:
		s.abandon(gen, TimedOut, TimeoutMessage)
		return nil, ErrTimeout
	case <-ctx.Done():
		s.abandon(gen, Failed, "Packing was cancelled.")
		return nil, ctx.Err()
	}
}

// finish records a computation result if it still belongs to the current
// run.
func (s *Session) finish(gen uint64, sel model.Selection, err error, took time.Duration) (*model.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != Running {
		s.logger.Warn("discarding stale packing result", "generation", gen, "state", s.state, "took", took)
		return nil, ErrTimeout
	}

	if err != nil {
		_ = s.transition(Failed)
		if errors.Is(err, engine.ErrNoFit) {
			s.status = NoFitMessage
		} else {
			s.status = "Packing failed: " + err.Error()
		}
		s.logger.Info("packing failed", "error", err, "took", took)
		return nil, err
	}

	_ = s.transition(Succeeded)
	s.result = &sel
	s.status = ""
	s.suggestions = sel.Items
	s.logger.Info("packing succeeded",
		"box", sel.Box.ID,
		"items", len(sel.Items),
		"strategy", sel.Strategy,
		"efficiency", sel.Efficiency(),
		"took", took,
	)
	out := sel
	return &out, nil
}

func (s *Session) abandon(gen uint64, to State, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.state != Running {
		return
	}
	_ = s.transition(to)
	s.status = msg
	s.logger.Warn("packing abandoned", "state", to, "generation", gen)
}

// ConfirmNext moves the next suggested placement onto the placed list. It
// reports false when every suggestion has been confirmed.
func (s *Session) ConfirmNext() (model.PlacedItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.suggestions) {
		return model.PlacedItem{}, false
	}
	next := s.suggestions[s.cursor]
	s.placed = append(s.placed, next)
	s.cursor++
	return next, true
}

// Previous steps the cursor back one suggestion, removing the last placed
// item when it is the one being stepped over.
func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor <= 0 {
		return false
	}
	s.cursor--
	prev := s.suggestions[s.cursor]
	if n := len(s.placed); n > 0 && s.placed[n-1].ID == prev.ID {
		s.placed = s.placed[:n-1]
	}
	return true
}

// Reset clears the product catalog, the selection and any packing result,
// and returns the session to Idle. The box catalog is kept. It fails with
// ErrBusy while a computation is running.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return ErrBusy
	}
	if err := s.transition(Idle); err != nil {
		return err
	}
	s.products = nil
	s.selected = nil
	s.clearResult()
	s.status = ""
	return nil
}

// Snapshot is a point-in-time copy of the session for display.
type Snapshot struct {
	State       State              `json:"state"`
	Status      string             `json:"status,omitempty"`
	Box         *model.Box         `json:"box,omitempty"`
	Strategy    string             `json:"strategy,omitempty"`
	Efficiency  float64            `json:"efficiency,omitempty"`
	Selected    []string           `json:"selected"`
	Suggestions []model.PlacedItem `json:"suggestions"`
	Cursor      int                `json:"cursor"`
	Placed      []model.PlacedItem `json:"placed"`
}

// Snapshot returns a copy of the visible session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:       s.state,
		Status:      s.status,
		Selected:    append([]string{}, s.selected...),
		Suggestions: append([]model.PlacedItem{}, s.suggestions...),
		Cursor:      s.cursor,
		Placed:      append([]model.PlacedItem{}, s.placed...),
	}
	if s.result != nil {
		box := s.result.Box
		snap.Box = &box
		snap.Strategy = s.result.Strategy
		snap.Efficiency = s.result.Efficiency()
	}
	return snap
}

// Result returns the last successful selection.
func (s *Session) Result() (model.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return model.Selection{}, false
	}
	return *s.result, true
}

func (s *Session) transition(to State) error {
	if !canTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	return nil
}

func (s *Session) clearResult() {
	s.result = nil
	s.suggestions = nil
	s.cursor = 0
	s.placed = nil
}

func (s *Session) hasProduct(id string) bool {
	for _, p := range s.products {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) selectedProducts() []model.Product {
	if len(s.selected) == 0 {
		return nil
	}
	sel := make(map[string]bool, len(s.selected))
	for _, id := range s.selected {
		sel[id] = true
	}
	var out []model.Product
	for _, p := range s.products {
		if sel[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
