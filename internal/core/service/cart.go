package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CartManager = (*CartService)(nil)

type CartService struct {
	// mu keeps the order of saved snapshots equal to the order of
	// mutations.
	mu          sync.Mutex
	store       *cart.Store
	storage     port.CartStorage
	products    productLookup
	notifier    port.Notifier
	maxQuantity int
}

// NewCartService returns the cart service. A maxQuantity ≤ 0 disables the
// per-item quantity limit.
func NewCartService(
	store *cart.Store,
	storage port.CartStorage,
	products productLookup,
	notifier port.Notifier,
	maxQuantity int,
) *CartService {
	return &CartService{
		store:       store,
		storage:     storage,
		products:    products,
		notifier:    notifierOrNop(notifier),
		maxQuantity: maxQuantity,
	}
}

// Restore hydrates the store from storage. A storage failure leaves the
// cart empty.
func (s *CartService) Restore(ctx context.Context) domain.Cart {
	const op = "CartService.Restore"
	log := slog.With("op", op)

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.storage.LoadCart(ctx)
	if err != nil {
		log.Warn("failed to load cart, starting empty", "err", err)
		return s.store.Clear()
	}

	c := s.store.Restore(saved.Items)
	log.Info("cart restored", "items", len(c.Items), "totalItems", c.TotalItems)
	return c
}

func (s *CartService) Cart() domain.Cart {
	return s.store.Snapshot()
}

func (s *CartService) AddItem(
	ctx context.Context, productID string,
) (domain.Cart, error) {
	const op = "CartService.AddItem"

	p, ok := s.products.Product(productID)
	if !ok {
		s.notifier.Notify(domain.NotifyError, "Product not found")
		return s.store.Snapshot(), fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	s.mu.Lock()
	if s.exceedsLimit(s.store.Quantity(p.ID) + 1) {
		s.mu.Unlock()
		err := s.limitErr()
		s.notifier.Notify(domain.NotifyError, domain.UserMessage(err, ""))
		return s.store.Snapshot(), fmt.Errorf("%s: %w", op, err)
	}
	c := s.store.AddItem(p)
	s.save(ctx, c)
	s.mu.Unlock()

	s.notifier.Notify(domain.NotifySuccess, p.Title+" added to cart!")
	return c, nil
}

func (s *CartService) RemoveItem(
	ctx context.Context, productID string,
) (domain.Cart, error) {
	s.mu.Lock()
	c, removed := s.store.RemoveItem(productID)
	if removed {
		s.save(ctx, c)
	}
	s.mu.Unlock()

	if removed {
		s.notifier.Notify(domain.NotifySuccess, "Item removed from cart")
	}
	return c, nil
}

// UpdateQuantity sets the quantity of productID; quantity ≤ 0 removes it.
func (s *CartService) UpdateQuantity(
	ctx context.Context, productID string, quantity int,
) (domain.Cart, error) {
	const op = "CartService.UpdateQuantity"

	if s.exceedsLimit(quantity) {
		err := s.limitErr()
		s.notifier.Notify(domain.NotifyError, domain.UserMessage(err, ""))
		return s.store.Snapshot(), fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	c, changed := s.store.UpdateQuantity(productID, quantity)
	if changed {
		s.save(ctx, c)
	}
	s.mu.Unlock()

	if changed && quantity <= 0 {
		s.notifier.Notify(domain.NotifySuccess, "Item removed from cart")
	}
	return c, nil
}

func (s *CartService) Clear(ctx context.Context) domain.Cart {
	s.mu.Lock()
	c := s.store.Clear()
	s.save(ctx, c)
	s.mu.Unlock()

	s.notifier.Notify(domain.NotifySuccess, "Cart cleared")
	return c
}

// save never fails the caller: the cart stays usable without storage.
func (s *CartService) save(ctx context.Context, c domain.Cart) {
	const op = "CartService.save"
	if err := s.storage.SaveCart(ctx, c); err != nil {
		slog.Error("failed to persist cart", "op", op, "err", err)
	}
}

func (s *CartService) exceedsLimit(quantity int) bool {
	return s.maxQuantity > 0 && quantity > s.maxQuantity
}

func (s *CartService) limitErr() error {
	return domain.NewValidationError(
		"quantity",
		fmt.Sprintf("You can add up to %d of this item", s.maxQuantity),
		domain.ErrInvalidQuantity,
	)
}
