package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter/notify"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCartStorage struct{}

func (nopCartStorage) SaveCart(context.Context, domain.Cart) error { return nil }

func (nopCartStorage) LoadCart(context.Context) (domain.Cart, error) {
	return domain.Cart{}, nil
}

type memorySessions struct {
	mu sync.Mutex
	s  *domain.Session
}

func (m *memorySessions) SaveSession(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *memorySessions) LoadSession(context.Context) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return domain.Session{}, false, nil
	}
	return *m.s, true, nil
}

func (m *memorySessions) ClearSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

type fakeProvider struct{}

func (fakeProvider) SignIn(_ context.Context, email, password string) (domain.User, string, error) {
	if password != "secret1" {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	return domain.User{UID: "uid-" + email, Email: email, DisplayName: "User"}, "tok", nil
}

func (fakeProvider) SignUp(_ context.Context, name, email, _ string) (domain.User, string, error) {
	if email == "taken@shop.com" {
		return domain.User{}, "", domain.ErrEmailTaken
	}
	return domain.User{UID: "uid-" + email, Email: email, DisplayName: name}, "tok", nil
}

func (fakeProvider) SignOut(context.Context, string) error { return nil }

func (fakeProvider) Verify(string) (domain.User, error) {
	return domain.User{}, domain.ErrUnauthenticated
}

type memoryCollection struct {
	mu       sync.Mutex
	products []domain.Product
	fail     bool
}

func (c *memoryCollection) FetchAll(context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, errors.New("collection unavailable")
	}
	return append([]domain.Product(nil), c.products...), nil
}

func (c *memoryCollection) Create(_ context.Context, p domain.Product) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p.ID = fmt.Sprintf("new-%d", len(c.products))
	p.CreatedAt = time.Now()
	c.products = append(c.products, p)
	return p, nil
}

func (c *memoryCollection) Update(_ context.Context, p domain.Product) (domain.Product, error) {
	return p, nil
}

func (c *memoryCollection) Delete(context.Context, string) error { return nil }

const adminEmail = "admin@shop.com"

type fixture struct {
	handler    http.Handler
	collection *memoryCollection
	queue      *notify.Queue
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	collection := &memoryCollection{products: []domain.Product{
		{ID: "1", Title: "Red Shirt", Price: decimal.NewFromInt(500), Category: "Shirt"},
		{ID: "2", Title: "Blue Jeans", Price: decimal.NewFromInt(1200), Category: "Jacket"},
	}}
	queue := notify.NewQueue(notify.DefaultCapacity)
	cache := catalog.NewCache()

	auth := service.NewAuthService(fakeProvider{}, &memorySessions{}, queue, adminEmail)
	catalogSvc := service.NewCatalogService(cache, collection, nil, queue, auth)
	cartSvc := service.NewCartService(cart.New(), nopCartStorage{}, cache, queue, 3)
	require.NoError(t, catalogSvc.Refresh(t.Context()))
	queue.Drain()

	mux := http.NewServeMux()
	RegisterCatalog(mux, catalogSvc, catalogSvc)
	RegisterCart(mux, cartSvc)
	RegisterAuth(mux, auth)
	RegisterAdmin(mux, catalogSvc)
	RegisterNotifications(mux, queue)

	return fixture{handler: AllowJSON(mux), collection: collection, queue: queue}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestCatalogEndpoints(t *testing.T) {
	f := newFixture(t)

	t.Run("ListFilteredSorted", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/products?search=SHIRT", "")
		require.Equal(t, http.StatusOK, rec.Code)
		ps := decodeBody[[]Product](t, rec)
		require.Len(t, ps, 1)
		assert.Equal(t, "Red Shirt", ps[0].Title)
		assert.Equal(t, json.Number("500"), ps[0].Price)

		rec = f.do(t, http.MethodGet, "/v1/products?sort=price-high", "")
		ps = decodeBody[[]Product](t, rec)
		require.Len(t, ps, 2)
		assert.Equal(t, "Blue Jeans", ps[0].Title)
	})

	t.Run("InvalidSort", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/products?sort=newest", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Product", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/products/2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Blue Jeans", decodeBody[Product](t, rec).Title)

		rec = f.do(t, http.MethodGet, "/v1/products/404", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Categories", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/categories", "")
		assert.Equal(t, []string{"Jacket", "Shirt"}, decodeBody[[]string](t, rec))
	})

	t.Run("RefreshFailure", func(t *testing.T) {
		f.collection.mu.Lock()
		f.collection.fail = true
		f.collection.mu.Unlock()
		t.Cleanup(func() {
			f.collection.mu.Lock()
			f.collection.fail = false
			f.collection.mu.Unlock()
		})

		rec := f.do(t, http.MethodPost, "/v1/products/refresh", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		st := decodeBody[CatalogStatus](t, f.do(t, http.MethodGet, "/v1/catalog/status", ""))
		assert.False(t, st.Loading)
		assert.NotEmpty(t, st.Error)
		assert.Equal(t, 2, st.Products)
	})
}

func TestCartEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/cart/items", `{"product_id":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/v1/cart/items", `{"product_id":"1"}`)
	c := decodeBody[Cart](t, rec)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, json.Number("1000"), c.TotalAmount)

	rec = f.do(t, http.MethodPost, "/v1/cart/items", `{"product_id":"404"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/v1/cart/items/1", `{"quantity":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/v1/cart/items/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/v1/cart/items/1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[Cart](t, rec).Items)

	f.do(t, http.MethodPost, "/v1/cart/items", `{"product_id":"2"}`)
	rec = f.do(t, http.MethodDelete, "/v1/cart", "")
	c = decodeBody[Cart](t, rec)
	assert.Zero(t, c.TotalItems)
	assert.Equal(t, json.Number("0"), c.TotalAmount)

	ns := decodeBody[[]Notification](t, f.do(t, http.MethodGet, "/v1/notifications", ""))
	require.NotEmpty(t, ns)
	assert.Equal(t, "Red Shirt added to cart!", ns[0].Message)
	assert.Equal(t, "Cart cleared", ns[len(ns)-1].Message)
}

func TestContentType(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/cart/items", strings.NewReader(`{"product_id":"1"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/cart/items", `{"product_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthAndAdminEndpoints(t *testing.T) {
	f := newFixture(t)
	product := `{"title":"Green Hat","price":"15.50","image_url":"https://img.example.com/h.png",
		"category":"Hat","description":"Wool"}`

	rec := f.do(t, http.MethodPost, "/v1/admin/products", product)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/auth/signin", `{"email":"bob@shop.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[Session](t, rec).IsAdmin)

	rec = f.do(t, http.MethodPost, "/v1/admin/products", product)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/auth/signout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/auth/signin", `{"email":"bob@shop.com","password":"wrong12"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/auth/signup",
		`{"name":"Admin","email":"Admin@Shop.com","password":"secret1","confirm_password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	s := decodeBody[Session](t, rec)
	assert.True(t, s.IsAdmin)
	assert.Equal(t, "tok", s.Token)

	rec = f.do(t, http.MethodGet, "/v1/auth/session", "")
	s = decodeBody[Session](t, rec)
	assert.True(t, s.SignedIn)
	assert.Empty(t, s.Token)

	rec = f.do(t, http.MethodPost, "/v1/admin/products", product)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[Product](t, rec)
	assert.Equal(t, json.Number("15.5"), created.Price)

	rec = f.do(t, http.MethodGet, "/v1/products/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/admin/products",
		`{"title":"X","price":"abc","image_url":"https://x.io/a.png","category":"C","description":"D"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.MsgInvalidPrice, decodeBody[ErrorResponse](t, rec).Error)

	rec = f.do(t, http.MethodDelete, "/v1/admin/products/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/auth/signup",
		`{"name":"T","email":"taken@shop.com","password":"secret1","confirm_password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("f", "m", nil), http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrEmailTaken, http.StatusConflict},
		{errors.New("db down"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}

func TestPriceText(t *testing.T) {
	assert.Equal(t, "1200.5", priceText(json.RawMessage(`1200.50`)))
	assert.Equal(t, "1200.5", priceText(json.RawMessage(`"1200.50"`)))
	assert.Equal(t, "", priceText(json.RawMessage(`null`)))
	assert.Equal(t, "", priceText(nil))
	assert.Equal(t, "abc", priceText(json.RawMessage(`"abc"`)))
}
