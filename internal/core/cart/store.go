// Package cart holds the shopping cart state machine.
//
// Every mutation updates the items and both totals inside one critical
// section, so a reader never observes totals that disagree with the items.
package cart

import (
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu          sync.Mutex
	items       []domain.CartItem
	totalItems  int
	totalAmount decimal.Decimal
}

func New() *Store {
	return &Store{totalAmount: decimal.Zero}
}

// AddItem increments the quantity of p by one, appending a new item when
// p is not in the cart yet. Returns the resulting cart.
func (s *Store) AddItem(p domain.Product) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.ID); i != -1 {
		s.items[i].Quantity++
		s.totalItems++
		s.totalAmount = s.totalAmount.Add(s.items[i].Price)
		return s.snapshot()
	}

	s.items = append(s.items, domain.CartItem{Product: p, Quantity: 1})
	s.totalItems++
	s.totalAmount = s.totalAmount.Add(p.Price)
	return s.snapshot()
}

// RemoveItem deletes the item with id. The bool is false when nothing
// was removed.
func (s *Store) RemoveItem(id string) (domain.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i == -1 {
		return s.snapshot(), false
	}
	s.removeAt(i)
	return s.snapshot(), true
}

// UpdateQuantity sets the quantity of id. A quantity ≤ 0 removes the
// item. The bool is false when id is not in the cart.
func (s *Store) UpdateQuantity(id string, quantity int) (domain.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i == -1 {
		return s.snapshot(), false
	}

	if quantity <= 0 {
		s.removeAt(i)
		return s.snapshot(), true
	}

	delta := quantity - s.items[i].Quantity
	s.totalItems += delta
	s.totalAmount = s.totalAmount.Add(
		s.items[i].Price.Mul(decimal.NewFromInt(int64(delta))),
	)
	s.items[i].Quantity = quantity
	return s.snapshot(), true
}

func (s *Store) Clear() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.totalItems = 0
	s.totalAmount = decimal.Zero
	return s.snapshot()
}

// Restore replaces the state with items, merging duplicate ids into the
// first occurrence. Totals are always recomputed from the items.
func (s *Store) Restore(items []domain.CartItem) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]domain.CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		if i, ok := index[it.ID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(merged)
		merged = append(merged, it)
	}

	s.items = merged
	s.totalItems, s.totalAmount = domain.Fold(merged)
	return s.snapshot()
}

func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) != -1
}

// Quantity returns the quantity of id, zero when absent.
func (s *Store) Quantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i != -1 {
		return s.items[i].Quantity
	}
	return 0
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(it domain.CartItem) bool {
		return it.ID == id
	})
}

func (s *Store) removeAt(i int) {
	it := s.items[i]
	s.totalItems -= it.Quantity
	s.totalAmount = s.totalAmount.Sub(it.Amount())
	s.items = slices.Delete(s.items, i, i+1)
}

func (s *Store) snapshot() domain.Cart {
	return domain.Cart{
		Items:       slices.Clone(s.items),
		TotalItems:  s.totalItems,
		TotalAmount: s.totalAmount,
	}
}
