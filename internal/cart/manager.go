package cart

import (
	"context"

	"github.com/ketabino/bookstore/internal/domain"
	"github.com/ketabino/bookstore/internal/state"
)

// CellName keys the cart cell in its registry and store.
const CellName = "cart"

// Manager owns the cart for one session. Quantities are unchecked
// signed deltas here; catalog existence, availability, and minimums
// are all enforced at checkout.
//
// Operations are not safe for concurrent use: each one reads and
// replaces the whole item sequence.
type Manager struct {
	cell *state.Cell[[]domain.CartItem]
}

func NewManager(ctx context.Context, reg *state.Registry, store state.Store) (*Manager, error) {
	cell, err := state.Bind[[]domain.CartItem](ctx, reg, store, CellName)
	if err != nil {
		return nil, err
	}
	return &Manager{cell: cell}, nil
}

func (m *Manager) Items() []domain.CartItem {
	return m.cell.Get()
}

// Count returns the number of distinct lines, not total units.
func (m *Manager) Count() int {
	return len(m.cell.Get())
}

// AddItem merges quantity into an existing line for bookID or appends
// a new one. A negative quantity acts as a relative adjustment; a line
// whose quantity ends at zero or below is dropped.
func (m *Manager) AddItem(ctx context.Context, bookID int64, quantity int) error {
	items := m.cell.Get()
	next := make([]domain.CartItem, 0, len(items)+1)

	found := false
	for _, item := range items {
		if item.BookID == bookID {
			found = true
			item.Quantity += quantity
		}
		if item.Quantity > 0 {
			next = append(next, item)
		}
	}
	if !found && quantity > 0 {
		next = append(next, domain.CartItem{BookID: bookID, Quantity: quantity})
	}

	return m.cell.Set(ctx, next)
}

// RemoveItem decrements the line for bookID by quantity, dropping it
// once the quantity reaches zero or below. Unknown book ids are a
// no-op.
func (m *Manager) RemoveItem(ctx context.Context, bookID int64, quantity int) error {
	items := m.cell.Get()

	found := false
	next := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.BookID == bookID {
			found = true
			item.Quantity -= quantity
			if item.Quantity <= 0 {
				continue
			}
		}
		next = append(next, item)
	}
	if !found {
		return nil
	}

	return m.cell.Set(ctx, next)
}
