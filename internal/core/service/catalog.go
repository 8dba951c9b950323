package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var (
	_ port.CatalogBrowser   = (*CatalogService)(nil)
	_ port.CatalogRefresher = (*CatalogService)(nil)
	_ port.CatalogAdmin     = (*CatalogService)(nil)
)

type CatalogService struct {
	cache      *catalog.Cache
	collection port.ProductCollection
	publisher  port.ProductEventsPublisher
	notifier   port.Notifier
	admin      adminGate
	now        func() time.Time

	mu           sync.Mutex
	inflight     int
	statusTicket uint64
	status       domain.CatalogStatus
}

// NewCatalogService returns the catalog service. publisher may be nil,
// then product events are not published.
func NewCatalogService(
	cache *catalog.Cache,
	collection port.ProductCollection,
	publisher port.ProductEventsPublisher,
	notifier port.Notifier,
	admin adminGate,
) *CatalogService {
	return &CatalogService{
		cache:      cache,
		collection: collection,
		publisher:  publisher,
		notifier:   notifierOrNop(notifier),
		admin:      admin,
		now:        time.Now,
	}
}

// Refresh fetches the whole product collection and replaces the cache.
// A fetch that completes after a newer one has been applied is dropped.
func (s *CatalogService) Refresh(ctx context.Context) error {
	const op = "CatalogService.Refresh"
	log := slog.With("op", op)

	ticket := s.cache.Begin()
	s.beginFetch()

	ps, err := s.collection.FetchAll(ctx)
	if err != nil {
		s.endFetch(ticket, err)
		s.notifier.Notify(domain.NotifyError, "Failed to load products")
		return fmt.Errorf("%s: %w", op, err)
	}

	if !s.cache.Commit(ticket, ps) {
		log.Debug("stale fetch discarded", "ticket", ticket)
	} else {
		log.Info("catalog refreshed", "products", len(ps))
	}
	s.endFetch(ticket, nil)
	return nil
}

func (s *CatalogService) Status() domain.CatalogStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Loading = s.inflight > 0
	st.Products = s.cache.Len()
	return st
}

func (s *CatalogService) View(q catalog.Query) []domain.Product {
	return s.cache.View(q)
}

func (s *CatalogService) Categories() []string {
	return s.cache.Categories()
}

func (s *CatalogService) Product(id string) (domain.Product, error) {
	const op = "CatalogService.Product"
	p, ok := s.cache.Product(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(
	ctx context.Context, in domain.ProductInput,
) (domain.Product, error) {
	const op = "CatalogService.CreateProduct"

	if err := s.requireAdmin(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := domain.NewProduct(in)
	if err != nil {
		s.notifier.Notify(domain.NotifyError, domain.UserMessage(err, "Invalid product"))
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.collection.Create(ctx, p)
	if err != nil {
		s.notifier.Notify(domain.NotifyError, "Failed to add product")
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Upsert(created)
	s.publish(ctx, domain.ProductCreated, created)
	s.notifier.Notify(domain.NotifySuccess, "Product added successfully")
	return created, nil
}

func (s *CatalogService) UpdateProduct(
	ctx context.Context, id string, in domain.ProductInput,
) (domain.Product, error) {
	const op = "CatalogService.UpdateProduct"

	if err := s.requireAdmin(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		err := domain.NewValidationError("id", "Product ID is missing", nil)
		s.notifier.Notify(domain.NotifyError, err.Msg)
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	existing, ok := s.cache.Product(id)
	if !ok {
		s.notifier.Notify(domain.NotifyError, "Product not found")
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	p, err := domain.NewProduct(in)
	if err != nil {
		s.notifier.Notify(domain.NotifyError, domain.UserMessage(err, "Invalid product"))
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt

	updated, err := s.collection.Update(ctx, p)
	if err != nil {
		s.notifier.Notify(domain.NotifyError, collectionMessage(err, "Failed to update product"))
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Upsert(updated)
	s.publish(ctx, domain.ProductUpdated, updated)
	s.notifier.Notify(domain.NotifySuccess, "Product updated successfully")
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	const op = "CatalogService.DeleteProduct"

	if err := s.requireAdmin(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.collection.Delete(ctx, id)
	if err != nil {
		s.notifier.Notify(domain.NotifyError, collectionMessage(err, "Failed to delete product"))
		return fmt.Errorf("%s: %w", op, err)
	}

	deleted, ok := s.cache.Product(id)
	if !ok {
		deleted = domain.Product{ID: id}
	}
	s.cache.Remove(id)
	s.publish(ctx, domain.ProductDeleted, deleted)
	s.notifier.Notify(domain.NotifySuccess, "Product deleted successfully")
	return nil
}

func (s *CatalogService) requireAdmin() error {
	if s.admin == nil {
		return domain.ErrForbidden
	}
	err := s.admin.RequireAdmin()
	if err != nil {
		s.notifier.Notify(domain.NotifyError, "Admin access required")
	}
	return err
}

func (s *CatalogService) publish(
	ctx context.Context, t domain.ProductEventType, p domain.Product,
) {
	const op = "CatalogService.publish"
	if s.publisher == nil {
		return
	}

	evt := domain.ProductEvent{Type: t, Product: p, OccurredAt: s.now()}
	if err := s.publisher.PublishProductEvent(ctx, evt); err != nil {
		slog.Error("failed to publish product event",
			"op", op, "type", t, "productID", p.ID, "err", err)
	}
}

func (s *CatalogService) beginFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
}

func (s *CatalogService) endFetch(ticket uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if ticket < s.statusTicket {
		return
	}
	s.statusTicket = ticket
	if err != nil {
		s.status.Err = err.Error()
		return
	}
	s.status.Err = ""
	s.status.FetchedAt = s.now()
}

func collectionMessage(err error, fallback string) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "Product not found"
	}
	return fallback
}
