package httphandler

import (
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
)

// POST v1/admin/products JSON product (201 Created, 400, 401, 403, 503)
// PUT v1/admin/products/{id} JSON product (200 OK, 400, 401, 403, 404, 503)
// DELETE v1/admin/products/{id} (204 No content, 401, 403, 404, 503)

type AdminHandler struct {
	admin port.CatalogAdmin
}

func RegisterAdmin(mux *http.ServeMux, admin port.CatalogAdmin) {
	h := AdminHandler{admin}
	mux.HandleFunc("POST /v1/admin/products", h.CreateProduct)
	mux.HandleFunc("PUT /v1/admin/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /v1/admin/products/{id}", h.DeleteProduct)
}

func (h AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.CreateProduct"

	var req ProductInput
	if !decodeJSON(w, r, op, &req) {
		return
	}

	p, err := h.admin.CreateProduct(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, productFromDomain(p))
}

func (h AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.UpdateProduct"

	var req ProductInput
	if !decodeJSON(w, r, op, &req) {
		return
	}

	p, err := h.admin.UpdateProduct(r.Context(), r.PathValue("id"), req.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productFromDomain(p))
}

func (h AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
