package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/port"
)

// GET v1/products?search=&category=&sort= (200 OK, 400 Bad request)
// GET v1/products/{id} (200 OK, 404 Not found)
// POST v1/products/refresh (200 OK, 503 Service unavailable)
// GET v1/catalog/status (200 OK)
// GET v1/categories (200 OK)

type CatalogHandler struct {
	browser   port.CatalogBrowser
	refresher port.CatalogRefresher
}

func RegisterCatalog(
	mux *http.ServeMux, browser port.CatalogBrowser, refresher port.CatalogRefresher,
) {
	h := CatalogHandler{browser, refresher}
	mux.HandleFunc("GET /v1/products", h.ListProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /v1/products/refresh", h.Refresh)
	mux.HandleFunc("GET /v1/catalog/status", h.Status)
	mux.HandleFunc("GET /v1/categories", h.Categories)
}

func (h CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sortKey, err := catalog.ParseSortKey(q.Get("sort"))
	if err != nil {
		writeError(w, err)
		return
	}

	ps := h.browser.View(catalog.Query{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     sortKey,
	})
	writeJSON(w, http.StatusOK, productsFromDomain(ps))
}

func (h CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.browser.Product(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productFromDomain(p))
}

func (h CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.Refresh"

	if err := h.refresher.Refresh(r.Context()); err != nil {
		slog.Error("failed to refresh catalog", "op", op, "err", err)
		writeMessage(w, http.StatusServiceUnavailable, "Failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, catalogStatusFromDomain(h.browser.Status()))
}

func (h CatalogHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogStatusFromDomain(h.browser.Status()))
}

func (h CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cs := h.browser.Categories()
	if cs == nil {
		cs = []string{}
	}
	writeJSON(w, http.StatusOK, cs)
}
